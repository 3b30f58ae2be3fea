package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ByLCY/papyrus-billing/invoice"
	"github.com/ByLCY/papyrus-billing/models"
)

// ErrNotFound is returned for missing invoices, parties and products.
var ErrNotFound = errors.New("repository: record not found")

// InvoiceData is a normalized invoice ready to be stored.
type InvoiceData struct {
	Number          string
	Date            string
	CustomerName    string
	CustomerAddress string
	CustomerGST     string
	Items           []invoice.LineItem
	Totals          invoice.Totals
}

// InvoiceStore persists invoices and their lookup tables.
type InvoiceStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewInvoiceStore(db *gorm.DB) *InvoiceStore {
	return &InvoiceStore{db: db, now: time.Now}
}

// WithTx returns a store bound to tx (eg. the per-request transaction).
func (s *InvoiceStore) WithTx(tx *gorm.DB) *InvoiceStore {
	return &InvoiceStore{db: tx, now: s.now}
}

// WithClock overrides the clock used for numbering and default dates.
func (s *InvoiceStore) WithClock(now func() time.Time) *InvoiceStore {
	return &InvoiceStore{db: s.db, now: now}
}

// Create stores a new invoice. An empty number is allocated from invoice_seq,
// an empty date defaults to today.
func (s *InvoiceStore) Create(ctx context.Context, data InvoiceData) (models.Invoice, error) {
	var row models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		if strings.TrimSpace(data.Number) == "" {
			number, err := nextInvoiceNumber(tx, now)
			if err != nil {
				return err
			}
			data.Number = number
		}
		if strings.TrimSpace(data.Date) == "" {
			data.Date = now.Format("2006-01-02")
		}
		row = models.Invoice{InvoiceNumber: data.Number}
		apply(&row, data)
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("could not create invoice: %w", err)
		}
		return nil
	})
	return row, err
}

// Update replaces header fields and the whole item set. The previous state
// is kept as the next InvoiceVersion snapshot. The invoice number never changes.
func (s *InvoiceStore) Update(ctx context.Context, id uint, data InvoiceData) (models.Invoice, error) {
	var row models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&row, id).Error; err != nil {
			return notFound(err)
		}
		if err := snapshot(tx, row); err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", row.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return fmt.Errorf("could not delete items: %w", err)
		}
		if strings.TrimSpace(data.Date) == "" {
			data.Date = row.InvoiceDate
		}
		apply(&row, data)
		for i := range row.Items {
			row.Items[i].InvoiceID = row.ID
		}
		if err := tx.Omit("Items").Save(&row).Error; err != nil {
			return fmt.Errorf("could not update invoice: %w", err)
		}
		if len(row.Items) > 0 {
			if err := tx.Create(&row.Items).Error; err != nil {
				return fmt.Errorf("could not insert items: %w", err)
			}
		}
		return nil
	})
	return row, err
}

func apply(row *models.Invoice, data InvoiceData) {
	row.InvoiceDate = strings.TrimSpace(data.Date)
	row.CustomerName = strings.TrimSpace(data.CustomerName)
	row.CustomerAddress = strings.TrimSpace(data.CustomerAddress)
	row.CustomerGST = strings.ToUpper(strings.TrimSpace(data.CustomerGST))
	row.Items = models.NewItems(data.Items)
	row.Subtotal = data.Totals.Subtotal.InexactFloat64()
	row.TotalGST = data.Totals.TotalTax.InexactFloat64()
	row.Total = data.Totals.GrandTotal.InexactFloat64()
}

func snapshot(tx *gorm.DB, row models.Invoice) error {
	blob, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("could not snapshot invoice: %w", err)
	}
	var last int
	if err := tx.Model(&models.InvoiceVersion{}).
		Where("invoice_id = ?", row.ID).
		Select("COALESCE(MAX(version_no), 0)").
		Scan(&last).Error; err != nil {
		return fmt.Errorf("could not read version: %w", err)
	}
	version := models.InvoiceVersion{
		InvoiceID: row.ID,
		VersionNo: last + 1,
		Snapshot:  datatypes.JSON(blob),
	}
	if err := tx.Create(&version).Error; err != nil {
		return fmt.Errorf("could not store version: %w", err)
	}
	return nil
}

// Get loads one invoice with its items.
func (s *InvoiceStore) Get(ctx context.Context, id uint) (models.Invoice, error) {
	var row models.Invoice
	if err := s.db.WithContext(ctx).Preload("Items").First(&row, id).Error; err != nil {
		return row, notFound(err)
	}
	return row, nil
}

// List returns all invoices without items, newest first.
func (s *InvoiceStore) List(ctx context.Context) ([]models.Invoice, error) {
	var rows []models.Invoice
	err := s.db.WithContext(ctx).Order("invoice_date desc").Order("id desc").Find(&rows).Error
	return rows, err
}

// Versions lists the stored snapshots of an invoice, oldest first.
func (s *InvoiceStore) Versions(ctx context.Context, id uint) ([]models.InvoiceVersion, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	var out []models.InvoiceVersion
	err := s.db.WithContext(ctx).Where("invoice_id = ?", id).Order("version_no asc").Find(&out).Error
	return out, err
}

// SetFilePath records where the rendered document was written.
func (s *InvoiceStore) SetFilePath(ctx context.Context, id uint, path string) error {
	res := s.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", id).Update("file_path", path)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// NextInvoiceNumber allocates INV-YYYYMM-NNNN from the invoice_seq counter.
func (s *InvoiceStore) NextInvoiceNumber(ctx context.Context, now time.Time) (string, error) {
	var number string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := nextInvoiceNumber(tx, now)
		number = n
		return err
	})
	return number, err
}

func nextInvoiceNumber(tx *gorm.DB, now time.Time) (string, error) {
	res := tx.Model(&models.InvoiceSeq{}).Where("id = ?", 1).
		Update("last_seq", gorm.Expr("last_seq + 1"))
	if res.Error != nil {
		return "", fmt.Errorf("could not advance invoice_seq: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if err := tx.Create(&models.InvoiceSeq{ID: 1, LastSeq: 1}).Error; err != nil {
			return "", fmt.Errorf("could not seed invoice_seq: %w", err)
		}
	}
	var seq models.InvoiceSeq
	if err := tx.First(&seq, 1).Error; err != nil {
		return "", fmt.Errorf("could not read invoice_seq: %w", err)
	}
	return FormatInvoiceNumber(now, seq.LastSeq), nil
}

// FormatInvoiceNumber renders INV-YYYYMM-NNNN.
func FormatInvoiceNumber(now time.Time, seq int) string {
	return fmt.Sprintf("INV-%s-%04d", now.Format("200601"), seq)
}

// UpsertParty remembers the customer's name and address by GSTIN.
// Parties without a GSTIN are not stored.
func (s *InvoiceStore) UpsertParty(ctx context.Context, p models.Party) error {
	p.GST = strings.ToUpper(strings.TrimSpace(p.GST))
	if p.GST == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gst"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "address"}),
	}).Create(&p).Error
}

func (s *InvoiceStore) FindParty(ctx context.Context, gst string) (models.Party, error) {
	var p models.Party
	err := s.db.WithContext(ctx).Where("gst = ?", strings.ToUpper(strings.TrimSpace(gst))).First(&p).Error
	return p, notFound(err)
}

// UpsertProduct remembers the HSN/SAC code of a product. Empty codes are skipped.
func (s *InvoiceStore) UpsertProduct(ctx context.Context, p models.Product) error {
	p.ProductName = strings.TrimSpace(p.ProductName)
	p.HSNSAC = strings.TrimSpace(p.HSNSAC)
	if p.ProductName == "" || p.HSNSAC == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"hsn_sac"}),
	}).Create(&p).Error
}

func (s *InvoiceStore) FindProduct(ctx context.Context, name string) (models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Where("product_name = ?", strings.TrimSpace(name)).First(&p).Error
	return p, notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

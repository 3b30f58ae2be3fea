package controllers

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ByLCY/papyrus-billing/database"
	"github.com/ByLCY/papyrus-billing/document"
	"github.com/ByLCY/papyrus-billing/invoice"
	"github.com/ByLCY/papyrus-billing/middlewares"
	"github.com/ByLCY/papyrus-billing/models"
	"github.com/ByLCY/papyrus-billing/repository"
	"github.com/ByLCY/papyrus-billing/utils"
)

type invoiceRequest struct {
	InvoiceNumber   string              `json:"invoice_number" validate:"omitempty,max=32"`
	InvoiceDate     string              `json:"invoice_date" validate:"omitempty,datetime=2006-01-02"`
	CustomerName    string              `json:"customer_name" validate:"required"`
	CustomerAddress string              `json:"customer_address"`
	CustomerGST     string              `json:"customer_gst" validate:"omitempty,alphanum,max=15"`
	Items           []invoice.ItemInput `json:"items" validate:"required,min=1,dive"`
}

// Invoices serves the invoice endpoints. Every create/update re-renders the
// document and stores its location.
type Invoices struct {
	DB         *gorm.DB
	Generator  *document.Generator
	Profile    invoice.CompanyProfile
	Normalizer invoice.Normalizer
	StorageDir string
	Now        func() time.Time
	Log        *zap.Logger
}

func (h *Invoices) store(c *fiber.Ctx) *repository.InvoiceStore {
	s := repository.NewInvoiceStore(database.Conn(c, h.DB))
	if h.Now != nil {
		s = s.WithClock(h.Now)
	}
	return s
}

func (h *Invoices) sink() document.FileSink {
	return document.FileSink{Root: h.StorageDir, Now: h.Now}
}

// bind parses, normalizes and prices the request.
func (h *Invoices) bind(c *fiber.Ctx) (repository.InvoiceData, error) {
	var req invoiceRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return repository.InvoiceData{}, err
	}
	utils.NormalizeDTO(&req)
	for i := range req.Items {
		utils.NormalizeDTO(&req.Items[i])
	}
	items := h.Normalizer.Normalize(req.Items, req.CustomerGST)
	totals, err := invoice.ComputeTotals(items)
	if err != nil {
		return repository.InvoiceData{}, err
	}
	return repository.InvoiceData{
		Number:          req.InvoiceNumber,
		Date:            req.InvoiceDate,
		CustomerName:    req.CustomerName,
		CustomerAddress: req.CustomerAddress,
		CustomerGST:     req.CustomerGST,
		Items:           items,
		Totals:          totals,
	}, nil
}

// publish renders the stored invoice, records the file and refreshes the lookup tables.
// A rendered file whose bookkeeping fails is removed again; when the location
// changed (new customer name or date) the previous file is removed after success.
func (h *Invoices) publish(c *fiber.Ctx, store *repository.InvoiceStore, row *models.Invoice) error {
	ctx := c.UserContext()
	previous := row.FilePath
	location, err := h.Generator.LayoutAndRender(ctx, row.Document(), h.Profile, h.sink())
	if err != nil {
		return err
	}
	if err := h.record(c, store, row, location); err != nil {
		h.discard(location)
		return err
	}
	row.FilePath = location
	if previous != "" && previous != location {
		h.discard(previous)
	}
	return nil
}

func (h *Invoices) record(c *fiber.Ctx, store *repository.InvoiceStore, row *models.Invoice, location string) error {
	ctx := c.UserContext()
	if err := store.SetFilePath(ctx, row.ID, location); err != nil {
		return err
	}
	if err := store.UpsertParty(ctx, models.Party{GST: row.CustomerGST, Name: row.CustomerName, Address: row.CustomerAddress}); err != nil {
		return err
	}
	for _, it := range row.Items {
		if err := store.UpsertProduct(ctx, models.Product{ProductName: it.ProductName, HSNSAC: it.HSNSAC}); err != nil {
			return err
		}
	}
	return nil
}

func (h *Invoices) discard(location string) {
	if err := os.Remove(location); err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.logger().Warn("could not remove invoice file", zap.String("location", location), zap.Error(err))
	}
}

func (h *Invoices) Create(c *fiber.Ctx) error {
	data, err := h.bind(c)
	if err != nil {
		return err
	}
	store := h.store(c)
	row, err := store.Create(c.UserContext(), data)
	if err != nil {
		return err
	}
	if err := h.publish(c, store, &row); err != nil {
		return err
	}
	h.logger().Info("invoice created", zap.Uint("id", row.ID), zap.String("number", row.InvoiceNumber))
	return c.Status(fiber.StatusCreated).JSON(row)
}

func (h *Invoices) Update(c *fiber.Ctx) error {
	id, err := invoiceID(c)
	if err != nil {
		return err
	}
	data, err := h.bind(c)
	if err != nil {
		return err
	}
	store := h.store(c)
	row, err := store.Update(c.UserContext(), id, data)
	if err != nil {
		return err
	}
	if err := h.publish(c, store, &row); err != nil {
		return err
	}
	h.logger().Info("invoice updated", zap.Uint("id", row.ID), zap.String("number", row.InvoiceNumber))
	return c.JSON(row)
}

func (h *Invoices) List(c *fiber.Ctx) error {
	rows, err := h.store(c).List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

func (h *Invoices) Get(c *fiber.Ctx) error {
	id, err := invoiceID(c)
	if err != nil {
		return err
	}
	row, err := h.store(c).Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(row)
}

func (h *Invoices) Versions(c *fiber.Ctx) error {
	id, err := invoiceID(c)
	if err != nil {
		return err
	}
	versions, err := h.store(c).Versions(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(versions)
}

// PDF serves the stored document; a missing file is rendered again in memory.
func (h *Invoices) PDF(c *fiber.Ctx) error {
	id, err := invoiceID(c)
	if err != nil {
		return err
	}
	row, err := h.store(c).Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	name := invoice.SafeName(row.InvoiceNumber, "invoice") + invoice.DocumentExt
	var body []byte
	if row.FilePath != "" {
		body, err = os.ReadFile(row.FilePath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if body == nil {
		sink := &document.MemorySink{Name: name}
		if _, err := h.Generator.LayoutAndRender(c.UserContext(), row.Document(), h.Profile, sink); err != nil {
			return err
		}
		body = sink.Bytes()
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+name+`"`)
	return c.Send(body)
}

func (h *Invoices) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func invoiceID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid invoice id")
	}
	return uint(id), nil
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/ByLCY/papyrus-billing/invoice"
)

// Invoice is the current/live state of a tax invoice.
type Invoice struct {
	ID              uint          `json:"id" gorm:"primaryKey"`
	InvoiceNumber   string        `json:"invoice_number" gorm:"size:32;uniqueIndex;not null"`
	InvoiceDate     string        `json:"invoice_date" gorm:"size:10;index"`
	CustomerName    string        `json:"customer_name" gorm:"not null"`
	CustomerAddress string        `json:"customer_address"`
	CustomerGST     string        `json:"customer_gst" gorm:"size:15"`
	Items           []InvoiceItem `json:"items,omitempty" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Subtotal        float64       `json:"subtotal" gorm:"type:numeric(12,2)"`
	TotalGST        float64       `json:"total_gst" gorm:"type:numeric(12,2)"`
	Total           float64       `json:"total" gorm:"type:numeric(12,2)"`
	FilePath        string        `json:"file_path"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type InvoiceItem struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	InvoiceID   uint    `json:"-" gorm:"index"`
	ProductName string  `json:"product_name" gorm:"not null"`
	HSNSAC      string  `json:"hsn_sac"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	CGSTRate    float64 `json:"cgst_rate"`
	SGSTRate    float64 `json:"sgst_rate"`
	IGSTRate    float64 `json:"igst_rate"`
	LineTotal   float64 `json:"line_total" gorm:"type:numeric(12,2)"`
}

// Immutable snapshot of an invoice taken before each edit.
type InvoiceVersion struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	InvoiceID uint           `json:"invoice_id" gorm:"uniqueIndex:idx_invoice_versions_invoice_id_version_no,priority:1"`
	VersionNo int            `json:"version_no" gorm:"not null;uniqueIndex:idx_invoice_versions_invoice_id_version_no,priority:2"`
	Snapshot  datatypes.JSON `json:"snapshot"`
	CreatedAt time.Time      `json:"created_at"`
}

// Party is the last known name/address for a customer GSTIN.
type Party struct {
	GST     string `json:"gst" gorm:"primaryKey;size:15"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Product remembers the HSN/SAC code last used for a product name.
type Product struct {
	ProductName string `json:"product_name" gorm:"primaryKey"`
	HSNSAC      string `json:"hsn_sac"`
}

// InvoiceSeq is a single-row counter behind invoice numbers.
type InvoiceSeq struct {
	ID      uint `gorm:"primaryKey"`
	LastSeq int  `gorm:"not null;default:0"`
}

func (InvoiceSeq) TableName() string { return "invoice_seq" }

// Document converts the stored invoice into the layout engine's input.
// Stored totals are passed through so that the printed figures match the record.
func (inv Invoice) Document() invoice.Invoice {
	sub := decimal.NewFromFloat(inv.Subtotal)
	tax := decimal.NewFromFloat(inv.TotalGST)
	total := decimal.NewFromFloat(inv.Total)
	out := invoice.Invoice{
		Number:          inv.InvoiceNumber,
		Date:            inv.InvoiceDate,
		CustomerName:    inv.CustomerName,
		CustomerAddress: inv.CustomerAddress,
		CustomerTaxID:   inv.CustomerGST,
		Subtotal:        &sub,
		TotalTax:        &tax,
		GrandTotal:      &total,
	}
	for _, it := range inv.Items {
		out.Items = append(out.Items, it.LineItem())
	}
	return out
}

func (it InvoiceItem) LineItem() invoice.LineItem {
	return invoice.LineItem{
		ProductName: it.ProductName,
		Description: it.Description,
		HSNSAC:      it.HSNSAC,
		Quantity:    it.Quantity,
		UnitPrice:   it.UnitPrice,
		CGSTRate:    it.CGSTRate,
		SGSTRate:    it.SGSTRate,
		IGSTRate:    it.IGSTRate,
	}
}

// NewItems maps normalized engine items to rows, with line totals.
func NewItems(items []invoice.LineItem) []InvoiceItem {
	out := make([]InvoiceItem, 0, len(items))
	for _, it := range items {
		out = append(out, InvoiceItem{
			ProductName: it.ProductName,
			HSNSAC:      it.HSNSAC,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			CGSTRate:    it.CGSTRate,
			SGSTRate:    it.SGSTRate,
			IGSTRate:    it.IGSTRate,
			LineTotal:   invoice.LineTotal(it).InexactFloat64(),
		})
	}
	return out
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Invoice{}, &InvoiceItem{}, &InvoiceVersion{},
		&Party{}, &Product{}, &InvoiceSeq{}, &IdempotencyKey{},
	}
}

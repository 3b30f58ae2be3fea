package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem is one billed row. Rates are percentages; exactly one regime's
// fields are non-zero after normalization.
type LineItem struct {
	ProductName string  `json:"product_name"`
	Description string  `json:"description,omitempty"`
	HSNSAC      string  `json:"hsn_sac,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	CGSTRate    float64 `json:"cgst_rate"`
	SGSTRate    float64 `json:"sgst_rate"`
	IGSTRate    float64 `json:"igst_rate"`
}

// TaxRate returns the sum of all rate fields of the item.
func (it LineItem) TaxRate() float64 {
	return it.CGSTRate + it.SGSTRate + it.IGSTRate
}

// Label is the text printed in the Description column.
func (it LineItem) Label() string {
	label := it.ProductName
	if d := strings.TrimSpace(it.Description); d != "" {
		label += " - " + d
	}
	return strings.TrimSpace(label)
}

// Invoice is the read-only input of the layout engine.
// Subtotal, TotalTax and GrandTotal are optional; when any of them is
// missing the engine computes all three from Items.
type Invoice struct {
	Number          string           `json:"invoice_number"`
	Date            string           `json:"invoice_date"`
	CustomerName    string           `json:"customer_name"`
	CustomerAddress string           `json:"customer_address"`
	CustomerTaxID   string           `json:"customer_gst"`
	Items           []LineItem       `json:"items"`
	Subtotal        *decimal.Decimal `json:"subtotal,omitempty"`
	TotalTax        *decimal.Decimal `json:"total_gst,omitempty"`
	GrandTotal      *decimal.Decimal `json:"total,omitempty"`
}

// BankDetails are printed in the left half of the bank/signature box.
type BankDetails struct {
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	RoutingCode   string `json:"ifsc"`
	Branch        string `json:"branch"`
	Beneficiary   string `json:"beneficiary"`
	// UPI is an optional payment address; when set a payment QR code is
	// placed next to the bank lines.
	UPI string `json:"upi,omitempty"`
}

// PageSetup selects the physical page. Zero values mean A4 with 36pt margins.
type PageSetup struct {
	Size   string  `json:"size,omitempty"`
	Margin float64 `json:"margin,omitempty"` // pt
}

// CompanyProfile is static issuer configuration injected per render call.
type CompanyProfile struct {
	Name             string      `json:"name"`
	Address          string      `json:"address"`
	Email            string      `json:"email"`
	Mobile           string      `json:"mobile"`
	TaxID            string      `json:"gstin"`
	LogoPath         string      `json:"logo,omitempty"`
	FooterNote       string      `json:"footer,omitempty"`
	SignatureCaption string      `json:"signature,omitempty"`
	CurrencyUnit     string      `json:"currency,omitempty"`
	Bank             BankDetails `json:"bank"`
	Page             PageSetup   `json:"page"`
}

const (
	DefaultFooterNote       = "This is a computer-generated invoice and does not require a physical signature."
	DefaultSignatureCaption = "For ${company.name}"
	DefaultCurrencyUnit     = "RUPEES"
)

// WithDefaults fills the optional texts of the profile.
func (p CompanyProfile) WithDefaults() CompanyProfile {
	if strings.TrimSpace(p.FooterNote) == "" {
		p.FooterNote = DefaultFooterNote
	}
	if strings.TrimSpace(p.SignatureCaption) == "" {
		p.SignatureCaption = DefaultSignatureCaption
	}
	if strings.TrimSpace(p.CurrencyUnit) == "" {
		p.CurrencyUnit = DefaultCurrencyUnit
	}
	return p
}

// ChallanNumber derives the delivery challan reference: "CH" plus the last
// four characters of the invoice number.
func ChallanNumber(number string) string {
	if number == "" {
		return ""
	}
	runes := []rune(number)
	if len(runes) > 4 {
		runes = runes[len(runes)-4:]
	}
	return "CH" + string(runes)
}

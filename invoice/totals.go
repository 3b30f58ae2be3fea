package invoice

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals are the invoice aggregates, each rounded to 2 decimals.
// GrandTotal is exactly Subtotal + TotalTax.
type Totals struct {
	Subtotal   decimal.Decimal   `json:"subtotal"`
	TotalTax   decimal.Decimal   `json:"total_gst"`
	GrandTotal decimal.Decimal   `json:"total"`
	LineTotals []decimal.Decimal `json:"line_totals,omitempty"`
}

// Rounded is the grand total rounded to the currency's major unit.
func (t Totals) Rounded() decimal.Decimal {
	return t.GrandTotal.Round(0)
}

// RoundOff is Rounded() - GrandTotal; negative when the total was rounded down.
func (t Totals) RoundOff() decimal.Decimal {
	return t.Rounded().Sub(t.GrandTotal).Round(2)
}

func lineNet(it LineItem) decimal.Decimal {
	return decimal.NewFromFloat(it.Quantity).Mul(decimal.NewFromFloat(it.UnitPrice))
}

func lineTax(it LineItem) decimal.Decimal {
	return lineNet(it).Mul(decimal.NewFromFloat(it.TaxRate())).Div(hundred)
}

// LineTotal is quantity × unit price × (1 + rate/100), rounded to 2 decimals.
// Callers must have validated the item.
func LineTotal(it LineItem) decimal.Decimal {
	return lineNet(it).Add(lineTax(it)).Round(2)
}

// ComputeTotals aggregates the items. Negative or non-finite quantities,
// prices or rates fail with a ValidationError.
func ComputeTotals(items []LineItem) (Totals, error) {
	subtotal := decimal.Zero
	tax := decimal.Zero
	lines := make([]decimal.Decimal, 0, len(items))
	for i, it := range items {
		if err := checkAmounts(i, it); err != nil {
			return Totals{}, err
		}
		net := lineNet(it)
		t := lineTax(it)
		subtotal = subtotal.Add(net)
		tax = tax.Add(t)
		lines = append(lines, net.Add(t).Round(2))
	}
	subtotal = subtotal.Round(2)
	tax = tax.Round(2)
	return Totals{
		Subtotal:   subtotal,
		TotalTax:   tax,
		GrandTotal: subtotal.Add(tax),
		LineTotals: lines,
	}, nil
}

// ResolveTotals uses the supplied aggregates when all three are present and
// otherwise computes them from the items.
func (inv Invoice) ResolveTotals() (Totals, error) {
	computed, err := ComputeTotals(inv.Items)
	if err != nil {
		return Totals{}, err
	}
	if inv.Subtotal == nil || inv.TotalTax == nil || inv.GrandTotal == nil {
		return computed, nil
	}
	return Totals{
		Subtotal:   inv.Subtotal.Round(2),
		TotalTax:   inv.TotalTax.Round(2),
		GrandTotal: inv.GrandTotal.Round(2),
		LineTotals: computed.LineTotals,
	}, nil
}

// Validate rejects invoices the engine must not render.
func (inv Invoice) Validate() error {
	if len(inv.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "at least one line item is required"}
	}
	for i, it := range inv.Items {
		if strings.TrimSpace(it.ProductName) == "" {
			return &ValidationError{Field: itemField(i, "product_name"), Reason: "is required"}
		}
		if err := checkAmounts(i, it); err != nil {
			return err
		}
	}
	return nil
}

func checkAmounts(i int, it LineItem) error {
	fields := []struct {
		name string
		v    float64
	}{
		{"quantity", it.Quantity},
		{"unit_price", it.UnitPrice},
		{"cgst_rate", it.CGSTRate},
		{"sgst_rate", it.SGSTRate},
		{"igst_rate", it.IGSTRate},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &ValidationError{Field: itemField(i, f.name), Reason: "must be a finite number"}
		}
		if f.v < 0 {
			return &ValidationError{Field: itemField(i, f.name), Reason: "must not be negative"}
		}
	}
	return nil
}

func itemField(i int, name string) string {
	return fmt.Sprintf("items[%d].%s", i, name)
}

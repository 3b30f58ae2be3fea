package binding

import (
	"testing"

	"github.com/ByLCY/papyrus-billing/invoice"
)

func TestInterpolateInvoiceContext(t *testing.T) {
	inv := invoice.Invoice{
		Number:       "INV-202501-0007",
		CustomerName: "Acme Traders",
		Items:        []invoice.LineItem{{ProductName: "Widget"}},
	}
	profile := invoice.CompanyProfile{Name: "VISTAR ENTERPRISE", Bank: invoice.BankDetails{Name: "BANK OF BARODA"}}
	ctx := Context(inv, profile)

	cases := []struct{ in, want string }{
		{"For ${company.name}", "For VISTAR ENTERPRISE"},
		{"Invoice ${invoice.number} for ${customer.name}", "Invoice INV-202501-0007 for Acme Traders"},
		{"Challan ${invoice.challan}", "Challan CH0007"},
		{"First: ${invoice.items[0].product_name}", "First: Widget"},
		{"Keep ${unknown.path} as is", "Keep ${unknown.path} as is"},
		{"Out of range ${invoice.items[3].hsn_sac}", "Out of range ${invoice.items[3].hsn_sac}"},
		{"Spaced ${ company.bank.name }", "Spaced BANK OF BARODA"},
		{"No placeholders", "No placeholders"},
	}
	for _, tc := range cases {
		if got := Interpolate(tc.in, ctx); got != tc.want {
			t.Fatalf("Interpolate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestInterpolateNilData(t *testing.T) {
	if got := Interpolate("For ${company.name}", nil); got != "For ${company.name}" {
		t.Fatalf("nil data should keep placeholders, got %q", got)
	}
}

package utils

import (
	"testing"

	"github.com/ByLCY/papyrus-billing/invoice"
)

func TestNormalizeDTO(t *testing.T) {
	rate := 9.0049
	note := "  blue "
	var missing *float64
	dto := struct {
		Name    string
		Note    *string
		Price   float64
		Rate    *float64
		Absent  *float64
		private string
	}{Name: "  Widget ", Note: &note, Price: 10.127, Rate: &rate, Absent: missing, private: " x "}

	NormalizeDTO(&dto)
	if dto.Name != "Widget" || *dto.Note != "blue" || dto.Absent != nil {
		t.Fatalf("unexpected normalized dto: %+v", dto)
	}
	if dto.Price != 10.127 || *dto.Rate != 9.0049 {
		t.Fatalf("numbers must keep full precision, got price=%v rate=%v", dto.Price, *dto.Rate)
	}
	if dto.private != " x " {
		t.Fatalf("unexported fields must not be touched")
	}
	NormalizeDTO(dto) // not a pointer: no-op
}

func TestNormalizeItemKeepsFractionalAmounts(t *testing.T) {
	igst := 0.125
	item := invoice.ItemInput{ProductName: " Widget ", Quantity: 0.125, UnitPrice: 1000.005, IGSTRate: &igst}
	NormalizeDTO(&item)
	if item.ProductName != "Widget" || item.Quantity != 0.125 || item.UnitPrice != 1000.005 || *item.IGSTRate != 0.125 {
		t.Fatalf("unexpected item after normalization: %+v", item)
	}
}

package invoice

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSafeName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`Acme/Traders: "Pune"`, `Acme_Traders_ _Pune_`},
		{`a\b?c<d>e|f`, "a_b_c_d_e_f"},
		{"", "customer"},
		{"..", "__"},
		{strings.Repeat("x", 60), strings.Repeat("x", MaxNameLength)},
		{strings.Repeat("म", 55), strings.Repeat("म", MaxNameLength)},
	}
	for _, tc := range cases {
		if got := SafeName(tc.in, "customer"); got != tc.want {
			t.Fatalf("SafeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)
	inv := Invoice{Number: "INV-202501-0001", Date: "2025-01-02", CustomerName: "Acme/Traders"}
	want := filepath.Join("storage", "2025-01-02", "Acme_Traders", "INV-202501-0001.pdf")
	if got := OutputPath("storage", inv, now); got != want {
		t.Fatalf("OutputPath = %q, want %q", got, want)
	}

	inv.Date = ""
	inv.CustomerName = ""
	want = filepath.Join("storage", "2025-03-09", "customer", "INV-202501-0001.pdf")
	if got := OutputPath("storage", inv, now); got != want {
		t.Fatalf("OutputPath = %q, want %q", got, want)
	}
}

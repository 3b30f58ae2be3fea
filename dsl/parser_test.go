package dsl_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/papyrus-billing/dsl"
	"github.com/ByLCY/papyrus-billing/layout"
)

const sampleProfile = `
# issuer profile
company "VISTAR ENTERPRISE" {
  address: "B-704, Mulund West, Mumbai"
  email: "accounts@vistar.example"
  mobile: "9800000000"
  gstin: "27AHKPR5834N1ZJ"
  logo: "assets/logo.png"
  footer: "This is a computer-generated invoice."
  currency: "RUPEES"
  page A4 margin 10mm

  bank {
    name: "BANK OF BARODA"
    account: "38350200000607"
    ifsc: "BARB0MULWES"; branch: "Mulund West"
    beneficiary: "VISTAR ENTERPRISES"
    upi: "vistar@upi"
  }
}
`

func TestParseProfile(t *testing.T) {
	doc, err := dsl.ParseString(sampleProfile)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if string(doc.Name) != "VISTAR ENTERPRISE" {
		t.Fatalf("unexpected company name %q", doc.Name)
	}
	kinds := []string{}
	for _, st := range doc.Statements {
		kinds = append(kinds, st.Kind())
	}
	if got := strings.Join(kinds, ","); got != "assignment,assignment,assignment,assignment,assignment,assignment,assignment,page,bank" {
		t.Fatalf("unexpected statement kinds: %s", got)
	}

	p, err := doc.Profile("/etc/billing")
	if err != nil {
		t.Fatalf("profile conversion failed: %v", err)
	}
	if p.TaxID != "27AHKPR5834N1ZJ" || p.Bank.RoutingCode != "BARB0MULWES" || p.Bank.Branch != "Mulund West" || p.Bank.UPI != "vistar@upi" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if p.LogoPath != filepath.Join("/etc/billing", "assets/logo.png") {
		t.Fatalf("logo path should resolve against base dir, got %s", p.LogoPath)
	}
	if p.Page.Size != "A4" || math.Abs(p.Page.Margin-10*layout.MmToPt) > 1e-9 {
		t.Fatalf("unexpected page setup: %+v", p.Page)
	}
}

func TestProfileRejectsUnknownKey(t *testing.T) {
	doc, err := dsl.ParseString(`company "X" { colour: "red" }`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = doc.Profile("")
	if err == nil || !strings.Contains(err.Error(), "colour") || !strings.HasPrefix(err.Error(), "1:") {
		t.Fatalf("expected positioned unknown-key error, got %v", err)
	}
}

func TestProfileRejectsUnknownBankKey(t *testing.T) {
	doc, err := dsl.ParseString("company \"X\" {\n bank {\n swift: \"ABC\"\n }\n}")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if _, err := doc.Profile(""); err == nil || !strings.Contains(err.Error(), "bank.swift") {
		t.Fatalf("expected bank.swift error, got %v", err)
	}
}

func TestProfileRejectsDuplicateKey(t *testing.T) {
	doc, err := dsl.ParseString("company \"X\" {\n email: \"a\"\n email: \"b\"\n}")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if _, err := doc.Profile(""); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestPageSpecVariants(t *testing.T) {
	cases := []struct {
		src     string
		size    string
		margin  float64
		wantErr bool
	}{
		{`company "X" { page Letter margin 0.5in }`, "Letter", 36, false},
		{`company "X" { page a5 margin 24 }`, "A5", 24, false},
		{`company "X" { page A4 }`, "A4", 0, false},
		{`company "X" { page B9 }`, "", 0, true},
		{`company "X" { page A4 margin }`, "", 0, true},
		{`company "X" { page A4 landscape }`, "", 0, true},
	}
	for _, tc := range cases {
		doc, err := dsl.ParseString(tc.src)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.src, err)
		}
		p, err := doc.Profile("")
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.src)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.src, err)
		}
		if p.Page.Size != tc.size || math.Abs(p.Page.Margin-tc.margin) > 1e-6 {
			t.Fatalf("%q: got %+v", tc.src, p.Page)
		}
	}
}

func TestParseSyntaxError(t *testing.T) {
	if _, err := dsl.ParseString(`company "X" { address "missing colon" }`); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "company.profile")
	if err := os.WriteFile(path, []byte(sampleProfile), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := dsl.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if p.LogoPath != filepath.Join(dir, "assets/logo.png") {
		t.Fatalf("unexpected logo path %s", p.LogoPath)
	}
	if _, err := dsl.Load(filepath.Join(dir, "missing.profile")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

package layout

import (
	"errors"
	"image"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ByLCY/papyrus-billing/invoice"
)

func testProfile() invoice.CompanyProfile {
	return invoice.CompanyProfile{
		Name:    "VISTAR ENTERPRISE",
		Address: "B-704, Mulund West, Mumbai",
		Email:   "accounts@vistar.example",
		Mobile:  "9800000000",
		TaxID:   "27AHKPR5834N1ZJ",
		Bank: invoice.BankDetails{
			Name:          "BANK OF BARODA",
			AccountNumber: "38350200000607",
			RoutingCode:   "BARB0MULWES",
			Branch:        "Mulund West",
			Beneficiary:   "VISTAR ENTERPRISES",
		},
	}
}

func testInvoice(items ...invoice.LineItem) invoice.Invoice {
	return invoice.Invoice{
		Number:          "INV-202501-0042",
		Date:            "2025-01-15",
		CustomerName:    "Acme Traders",
		CustomerAddress: "12 Market Road, Pune",
		CustomerTaxID:   "29AAACA1234A1Z5",
		Items:           items,
	}
}

func buildWith(t *testing.T, inv invoice.Invoice, profile invoice.CompanyProfile, opts BuildOptions) *Result {
	t.Helper()
	if opts.Typesetter == nil {
		opts.Typesetter = stubTypesetter{}
	}
	res, err := Build(inv, profile, opts)
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

func hasText(res *Result, content string) bool {
	for _, tb := range res.Page.Texts() {
		if tb.Content == content {
			return true
		}
	}
	return false
}

func TestBuildTotalsAndWords(t *testing.T) {
	inv := testInvoice(invoice.LineItem{ProductName: "Widget", Quantity: 2, UnitPrice: 100, IGSTRate: 18})
	res := buildWith(t, inv, testProfile(), BuildOptions{})
	for _, want := range []string{"200.00", "36.00", "+0.00", "236.00", "TWO HUNDRED THIRTY SIX RUPEES ONLY"} {
		if !hasText(res, want) {
			t.Fatalf("页面缺少文本 %q", want)
		}
	}
	if res.Report.Regime != "IGST" {
		t.Fatalf("期望 IGST，实际 %s", res.Report.Regime)
	}
}

// TestBuildSplitRegimeColumns：同州税号的发票经规范化后使用 CGST/SGST 两列。
func TestBuildSplitRegimeColumns(t *testing.T) {
	rate := 18.0
	items := invoice.NewNormalizer("27").Normalize([]invoice.ItemInput{
		{ProductName: "Widget", Quantity: 1, UnitPrice: 50, IGSTRate: &rate},
		{ProductName: "Gadget", Quantity: 3, UnitPrice: 10, IGSTRate: &rate},
	}, "27ABCDE1234F1Z5")
	for _, it := range items {
		if it.CGSTRate != 9 || it.SGSTRate != 9 || it.IGSTRate != 0 {
			t.Fatalf("规范化结果不正确: %+v", it)
		}
	}
	inv := testInvoice(items...)
	inv.CustomerTaxID = "27ABCDE1234F1Z5"
	res := buildWith(t, inv, testProfile(), BuildOptions{})
	cols := strings.Join(res.Report.Columns, ",")
	if !strings.Contains(cols, "CGST%,SGST%") || strings.Contains(cols, "IGST%") {
		t.Fatalf("列集合不正确: %s", cols)
	}
	if !hasText(res, "CGST%") || hasText(res, "IGST%") {
		t.Fatalf("表头文本不正确")
	}
}

func TestBuildZeroItemsFailsBeforeDrawing(t *testing.T) {
	res, err := Build(testInvoice(), testProfile(), BuildOptions{Typesetter: stubTypesetter{}})
	if !errors.Is(err, invoice.ErrValidation) {
		t.Fatalf("期望 ValidationError，实际 %v", err)
	}
	if res != nil {
		t.Fatalf("校验失败时不应返回布局结果")
	}
}

func TestBuildRejectsNegativeQuantity(t *testing.T) {
	inv := testInvoice(invoice.LineItem{ProductName: "Widget", Quantity: -1, UnitPrice: 5})
	_, err := Build(inv, testProfile(), BuildOptions{Typesetter: stubTypesetter{}})
	var ve *invoice.ValidationError
	if !errors.As(err, &ve) || ve.Field != "items[0].quantity" {
		t.Fatalf("期望 items[0].quantity 校验错误，实际 %v", err)
	}
}

func manyItems(n int) []invoice.LineItem {
	items := make([]invoice.LineItem, n)
	for i := range items {
		items[i] = invoice.LineItem{ProductName: "Item", Quantity: 1, UnitPrice: 10, IGSTRate: 18}
	}
	return items
}

func TestBuildOverflowAcceptLogsAndReports(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	res := buildWith(t, testInvoice(manyItems(60)...), testProfile(), BuildOptions{Logger: zap.New(core)})
	if res.Report.RowHeight != MinRowHeight {
		t.Fatalf("期望行高 %g，实际 %g", MinRowHeight, res.Report.RowHeight)
	}
	if res.Report.OverflowRows != 60-res.Report.Capacity || res.Report.OverflowRows <= 0 {
		t.Fatalf("溢出行数不正确: %+v", res.Report)
	}
	if logs.FilterMessage("items overflow the table frame").Len() != 1 {
		t.Fatalf("缺少溢出告警日志")
	}
	// 超出容量的行画在表格边框之外。
	last := 0.0
	for _, tb := range res.Page.Texts() {
		if tb.Content == "60" {
			last = tb.Y
		}
	}
	if last <= res.Geometry.Table.Bottom() {
		t.Fatalf("第 60 行应位于表格底边之下: y=%g bottom=%g", last, res.Geometry.Table.Bottom())
	}
}

func TestBuildOverflowFail(t *testing.T) {
	_, err := Build(testInvoice(manyItems(60)...), testProfile(), BuildOptions{Typesetter: stubTypesetter{}, Overflow: OverflowFail})
	if !errors.Is(err, ErrTableOverflow) {
		t.Fatalf("期望 ErrTableOverflow，实际 %v", err)
	}
}

func TestBuildLogoPlaceholder(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	profile := testProfile()
	profile.LogoPath = "does-not-exist.png"
	res := buildWith(t, testInvoice(manyItems(1)...), profile, BuildOptions{
		Logger:    zap.New(core),
		LoadImage: func(string) (image.Image, error) { return nil, os.ErrNotExist },
	})
	if !res.Report.LogoFallback {
		t.Fatalf("logo 读取失败时应使用占位框")
	}
	logo := res.Geometry.Logo
	found := false
	for _, it := range res.Page.Items {
		if it.Kind == KindRect && it.Rect.X == logo.X && it.Rect.Y == logo.Y && it.Rect.Width == logo.Width && it.Rect.Height == logo.Height {
			found = true
		}
		if it.Kind == KindImage && it.Image.Name == "logo" {
			t.Fatalf("不应绘制 logo 图片")
		}
	}
	if !found {
		t.Fatalf("缺少与 logo 区域等大的占位框")
	}
	if logs.FilterMessage("logo unavailable, drawing placeholder").Len() != 1 {
		t.Fatalf("缺少 logo 告警日志")
	}
}

func TestBuildLogoFitsReservedArea(t *testing.T) {
	profile := testProfile()
	profile.LogoPath = "logo.png"
	res := buildWith(t, testInvoice(manyItems(1)...), profile, BuildOptions{
		LoadImage: func(string) (image.Image, error) { return image.NewRGBA(image.Rect(0, 0, 100, 50)), nil },
	})
	var logo *ImageBox
	for _, it := range res.Page.Items {
		if it.Kind == KindImage && it.Image.Name == "logo" {
			logo = it.Image
		}
	}
	if logo == nil {
		t.Fatalf("缺少 logo 图片")
	}
	area := res.Geometry.Logo
	if logo.Width > area.Width+1e-9 || logo.Height > area.Height+1e-9 || logo.X != area.X || logo.Y != area.Y {
		t.Fatalf("logo 超出预留区域: %+v area=%+v", *logo, area)
	}
	if res.Report.LogoFallback {
		t.Fatalf("logo 正常时不应回退")
	}
}

func TestBuildDrawingOrder(t *testing.T) {
	res := buildWith(t, testInvoice(manyItems(3)...), testProfile(), BuildOptions{})
	items := res.Page.Items
	if items[0].Kind != KindText || items[0].Text.Content != TitleText {
		t.Fatalf("第一个原语应为标题，实际 %+v", items[0])
	}
	last := items[len(items)-1]
	if last.Kind != KindText || last.Text.Content != invoice.DefaultFooterNote || last.Text.Color != Muted {
		t.Fatalf("最后一个原语应为页脚，实际 %+v", last)
	}
	order := []string{"Bill To:", "Invoice Details:", "SNo", "Subtotal", "Amount (in words):", "Bank Details:", "Authorised Signatory"}
	pos := -1
	for _, want := range order {
		idx := -1
		for i, it := range items {
			if it.Kind == KindText && it.Text.Content == want {
				idx = i
				break
			}
		}
		if idx <= pos {
			t.Fatalf("%q 的绘制顺序不正确", want)
		}
		pos = idx
	}
}

func TestBuildSignatureAndChallan(t *testing.T) {
	profile := testProfile()
	profile.FooterNote = "Thank you, ${customer.name}"
	res := buildWith(t, testInvoice(manyItems(1)...), profile, BuildOptions{})
	for _, want := range []string{"For VISTAR ENTERPRISE", "Challan No: CH0042", "Thank you, Acme Traders", "IFSC: BARB0MULWES"} {
		if !hasText(res, want) {
			t.Fatalf("页面缺少文本 %q", want)
		}
	}
}

func TestBuildUPIQRCode(t *testing.T) {
	profile := testProfile()
	profile.Bank.UPI = "vistar@upi"
	res := buildWith(t, testInvoice(manyItems(1)...), profile, BuildOptions{})
	for _, it := range res.Page.Items {
		if it.Kind == KindImage && it.Image.Name == "upi-qr" {
			info := res.Geometry.BankInfo
			if it.Image.X+it.Image.Width > info.Right() || it.Image.Y+it.Image.Height > info.Bottom() {
				t.Fatalf("二维码超出银行信息区: %+v", *it.Image)
			}
			return
		}
	}
	t.Fatalf("设置 UPI 后应绘制付款二维码")
}

func TestBuildMixedRegimeRejected(t *testing.T) {
	inv := testInvoice(
		invoice.LineItem{ProductName: "A", Quantity: 1, UnitPrice: 1, IGSTRate: 18},
		invoice.LineItem{ProductName: "B", Quantity: 1, UnitPrice: 1, CGSTRate: 9, SGSTRate: 9},
	)
	if _, err := Build(inv, testProfile(), BuildOptions{Typesetter: stubTypesetter{}}); !errors.Is(err, invoice.ErrValidation) {
		t.Fatalf("混合税制应被拒绝，实际 %v", err)
	}
}

func TestPlanGeometryA4(t *testing.T) {
	size, _ := LookupPageSize("a4")
	g := PlanGeometry(size, DefaultMargin, 21.6)
	if g.Company.Y != 36+21.6+Gap*1.2 {
		t.Fatalf("公司框位置不正确: %g", g.Company.Y)
	}
	if g.BillTo.Width != 287 || g.Details.X != 36+287+12 {
		t.Fatalf("收票方/发票信息分栏不正确: %+v %+v", g.BillTo, g.Details)
	}
	wantTableH := size.Height - DefaultMargin - BottomReserve - FooterReserve - g.Table.Y
	if d := g.Table.Height - wantTableH; d > 1e-9 || d < -1e-9 {
		t.Fatalf("表格高度不正确: %g want %g", g.Table.Height, wantTableH)
	}
	if g.Totals.Right() != g.Content.Right() || g.Totals.Y != g.Words.Y {
		t.Fatalf("合计框应右对齐并与大写金额框同行")
	}
	if g.Signature.Width != g.BankInfo.Width {
		t.Fatalf("银行与签名区应等宽")
	}
	if g.Footer.Y != size.Height-DefaultMargin-FooterOffset {
		t.Fatalf("页脚位置不正确: %g", g.Footer.Y)
	}
}

func TestPlanGeometryTableFloor(t *testing.T) {
	short := PageSize{Name: "short", Width: 419.53, Height: 500}
	g := PlanGeometry(short, DefaultMargin, 21.6)
	if g.Table.Height != MinTableHeight {
		t.Fatalf("页面过短时表格应使用最小高度，实际 %g", g.Table.Height)
	}
	if _, err := LookupPageSize("B9"); err == nil {
		t.Fatalf("未知页面尺寸应报错")
	}
}

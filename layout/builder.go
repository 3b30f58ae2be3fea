package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/ByLCY/papyrus-billing/binding"
	"github.com/ByLCY/papyrus-billing/invoice"
)

// Build 将发票、公司资料与页面几何映射为单页的绘制原语序列。
// 校验失败时返回 *invoice.ValidationError，不生成任何原语。
// 输出顺序固定：标题、公司、收票方、发票信息、表格、合计、大写金额、银行/签名、页脚。
func Build(inv invoice.Invoice, profile invoice.CompanyProfile, opts BuildOptions) (*Result, error) {
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	totals, err := inv.ResolveTotals()
	if err != nil {
		return nil, err
	}
	fallback := invoice.NewNormalizer(opts.StatePrefix).Regime(inv.CustomerTaxID)
	regime, err := invoice.ResolveRegime(inv.Items, fallback)
	if err != nil {
		return nil, err
	}

	profile = profile.WithDefaults()
	size, err := LookupPageSize(profile.Page.Size)
	if err != nil {
		return nil, &invoice.ValidationError{Field: "page.size", Reason: err.Error()}
	}
	margin := profile.Page.Margin
	if margin <= 0 {
		margin = DefaultMargin
	}
	fonts := opts.Fonts
	if len(fonts) == 0 {
		fonts = DefaultFonts()
	}

	b := &pageBuilder{ts: opts.Typesetter, fonts: fonts, log: log}
	titleLines, err := b.ts.LayoutLines(TitleText, size.Width-2*margin, fonts[FontBold], TitleSize, TitleSize*LineHeightFactor, "nowrap")
	if err != nil {
		return nil, fmt.Errorf("测量标题失败: %w", err)
	}
	geom := PlanGeometry(size, margin, TextHeight(titleLines))

	cols := Columns(regime)
	rows := PlanRows(geom.Table.Height, len(inv.Items))
	if rows.Overflow > 0 {
		if opts.Overflow == OverflowFail {
			return nil, fmt.Errorf("%w: %d items, capacity %d", ErrTableOverflow, len(inv.Items), rows.Capacity)
		}
		log.Warn("items overflow the table frame",
			zap.String("invoice", inv.Number),
			zap.Int("items", len(inv.Items)),
			zap.Int("capacity", rows.Capacity),
			zap.Int("overflow_rows", rows.Overflow),
		)
	}

	res := &Result{
		Page: Page{
			Width:  size.Width,
			Height: size.Height,
			Margin: geom.Margin,
		},
		Resources: ResourceSet{Fonts: fonts},
		Meta:      newMeta(inv, profile),
		Geometry:  geom,
		Report: Report{
			Regime:       regime.String(),
			RowHeight:    rows.RowHeight,
			FontSize:     rows.FontSize,
			Capacity:     rows.Capacity,
			OverflowRows: rows.Overflow,
		},
	}
	for _, c := range cols {
		res.Report.Columns = append(res.Report.Columns, c.Header)
	}

	vars := binding.Context(inv, profile)
	loader := opts.LoadImage
	if loader == nil {
		loader = LoadImageFile
	}

	steps := []func() error{
		func() error { return b.title(geom) },
		func() error {
			fellBack, err := b.company(geom, profile, loader)
			res.Report.LogoFallback = fellBack
			return err
		},
		func() error { return b.billTo(geom, inv) },
		func() error { return b.details(geom, inv) },
		func() error {
			t := &tableLayout{ts: b.ts, fonts: fonts, box: geom.Table, cols: cols, widths: ColumnWidths(cols, geom.Table.Width), rows: rows}
			items, err := t.items(inv.Items)
			b.items = append(b.items, items...)
			return err
		},
		func() error { return b.totals(geom, totals) },
		func() error { return b.words(geom, totals, profile.CurrencyUnit) },
		func() error { return b.bank(geom, profile, totals, vars) },
		func() error { return b.footer(geom, binding.Interpolate(profile.FooterNote, vars)) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	res.Page.Items = b.items
	return res, nil
}

type pageBuilder struct {
	ts    Typesetter
	fonts map[string]FontResource
	log   *zap.Logger
	items []Item
}

func (b *pageBuilder) add(items ...Item) { b.items = append(b.items, items...) }

func (b *pageBuilder) box(box Box, stroke float64) {
	b.add(rectItem(Rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height, Radius: BoxRadius, StrokeWidth: stroke}))
}

// line 放置单行文本，超出宽度时截断。
func (b *pageBuilder) line(content string, x, y, width float64, font string, size float64, align string) error {
	text, err := TruncateToWidth(b.ts, content, width, b.fonts[font], size)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	b.add(textItem(TextBox{Content: text, X: x, Y: y, Width: width, Font: font, FontSize: size, Align: align}))
	return nil
}

// block 在 maxHeight 内放置多行文本：先缩小字号，仍放不下时只保留能放下的行，
// 最后一行截断。
func (b *pageBuilder) block(content string, x, y, width, maxHeight float64, font string, start float64) error {
	res := b.fonts[font]
	size, err := ShrinkFontToHeight(b.ts, content, maxHeight, width, res, start, MinFontSize)
	if err != nil {
		return err
	}
	lines, err := b.ts.LayoutLines(content, width, res, size, size*LineHeightFactor, "anywhere")
	if err != nil {
		return err
	}
	used := 0.0
	for i, ln := range lines {
		text := ln.Content
		lastFitting := false
		if i+1 < len(lines) {
			next := lines[i+1]
			lastFitting = used+ln.GapBefore+ln.Height+next.GapBefore+next.Height > maxHeight
		}
		if lastFitting {
			rest := make([]string, 0, len(lines)-i)
			for _, l := range lines[i:] {
				rest = append(rest, strings.TrimSpace(l.Content))
			}
			text = strings.Join(rest, " ")
		}
		used += ln.GapBefore
		if err := b.line(strings.TrimSpace(text), x, y+used, width, font, size, "left"); err != nil {
			return err
		}
		if lastFitting {
			return nil
		}
		used += ln.Height
	}
	return nil
}

func (b *pageBuilder) title(g Geometry) error {
	return b.line(TitleText, g.Title.X, g.Title.Y, g.Title.Width, FontBold, TitleSize, "center")
}

// company 绘制公司信息框，返回 logo 是否退化为占位框。
func (b *pageBuilder) company(g Geometry, p invoice.CompanyProfile, load ImageLoader) (bool, error) {
	c := g.Company
	b.box(c, 0.7)

	fellBack := false
	if img, err := b.logo(g.Logo, p.LogoPath, load); err != nil {
		var rre *invoice.RenderResourceError
		if errors.As(err, &rre) {
			b.log.Warn("logo unavailable, drawing placeholder", zap.String("path", rre.Path), zap.Error(rre.Err))
			fellBack = true
		}
		b.add(rectItem(Rect{X: g.Logo.X, Y: g.Logo.Y, Width: g.Logo.Width, Height: g.Logo.Height, StrokeWidth: 0.4}))
	} else {
		b.add(imageItem(img))
	}

	textX := g.Logo.Right() + 5
	textW := c.Right() - textX - 12
	rows := []struct {
		text string
		dy   float64
		font string
		size float64
	}{
		{p.Name, 12, FontBold, CompanyNameSize},
		{p.Address, 30, FontRegular, NormalSize},
		{"Email: " + p.Email, 42, FontRegular, NormalSize},
		{"Mobile: " + p.Mobile, 54, FontRegular, NormalSize},
		{"GSTIN: " + p.TaxID, CompanyBoxHeight - 15, FontBold, CompanyNameSize - 2},
	}
	for _, r := range rows {
		if err := b.line(r.text, textX, c.Y+r.dy, textW, r.font, r.size, "left"); err != nil {
			return fellBack, err
		}
	}
	return fellBack, nil
}

var errNoLogo = errors.New("no logo configured")

// logo 读取 logo 并按比例缩放到预留区域内（左上对齐）。
func (b *pageBuilder) logo(area Box, path string, load ImageLoader) (ImageBox, error) {
	if strings.TrimSpace(path) == "" {
		return ImageBox{}, errNoLogo
	}
	img, err := load(path)
	if err != nil {
		return ImageBox{}, &invoice.RenderResourceError{Path: path, Err: err}
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return ImageBox{}, &invoice.RenderResourceError{Path: path, Err: fmt.Errorf("empty image")}
	}
	scale := math.Min(area.Width/float64(bounds.Dx()), area.Height/float64(bounds.Dy()))
	return ImageBox{
		Name:   "logo",
		X:      area.X,
		Y:      area.Y,
		Width:  float64(bounds.Dx()) * scale,
		Height: float64(bounds.Dy()) * scale,
		Image:  img,
	}, nil
}

func (b *pageBuilder) billTo(g Geometry, inv invoice.Invoice) error {
	box := g.BillTo
	b.box(box, 0.5)
	x := box.X + 10
	if err := b.line("Bill To:", x, box.Y+8, box.Width-20, FontBold, NormalSize+1, "left"); err != nil {
		return err
	}
	if err := b.line("Name: "+inv.CustomerName, x, box.Y+26, box.Width-20, FontBold, NormalSize, "left"); err != nil {
		return err
	}
	addrY := box.Y + 44
	if err := b.line("Address:", x, addrY, 60, FontBold, NormalSize, "left"); err != nil {
		return err
	}
	if err := b.block(inv.CustomerAddress, x+42, addrY, box.Width-72, 18, FontRegular, NormalSize); err != nil {
		return err
	}
	return b.line("GSTIN: "+inv.CustomerTaxID, x, addrY+18, box.Width-20, FontBold, NormalSize, "left")
}

func (b *pageBuilder) details(g Geometry, inv invoice.Invoice) error {
	box := g.Details
	b.box(box, 0.5)
	x, w := box.X+10, box.Width-20
	rows := []struct {
		text string
		dy   float64
		font string
		size float64
	}{
		{"Invoice Details:", 8, FontBold, NormalSize + 1},
		{"Invoice No: " + inv.Number, 26, FontRegular, NormalSize},
		{"Date: " + inv.Date, 44, FontRegular, NormalSize},
		{"Challan No: " + invoice.ChallanNumber(inv.Number), 62, FontRegular, NormalSize},
	}
	for _, r := range rows {
		if err := b.line(r.text, x, box.Y+r.dy, w, r.font, r.size, "left"); err != nil {
			return err
		}
	}
	return nil
}

func (b *pageBuilder) totals(g Geometry, t invoice.Totals) error {
	box := g.Totals
	b.box(box, 0.6)
	x, w := box.X+10, box.Width-20
	rows := []struct {
		label, value string
		dy           float64
		font         string
	}{
		{"Subtotal", invoice.FormatINR(t.Subtotal), 10, FontRegular},
		{"Total GST", invoice.FormatINR(t.TotalTax), 28, FontRegular},
		{"Round Off", invoice.FormatSigned(t.RoundOff()), 46, FontRegular},
		{"Grand Total", invoice.FormatINR(t.Rounded()), 64, FontBold},
	}
	for _, r := range rows {
		if err := b.line(r.label, x, box.Y+r.dy, w, r.font, NormalSize, "left"); err != nil {
			return err
		}
		if err := b.line(r.value, x, box.Y+r.dy, w, r.font, NormalSize, "right"); err != nil {
			return err
		}
	}
	return nil
}

func (b *pageBuilder) words(g Geometry, t invoice.Totals, unit string) error {
	box := g.Words
	b.box(box, 0.6)
	x, w := box.X+12, box.Width-24
	if err := b.line("Amount (in words):", x, box.Y+12, w, FontBold, NormalSize, "left"); err != nil {
		return err
	}
	words := invoice.AmountInWords(t.Rounded(), unit)
	return b.block(words, x, box.Y+28, w, box.Height-28-4, FontBold, NormalSize)
}

func (b *pageBuilder) bank(g Geometry, p invoice.CompanyProfile, t invoice.Totals, vars binding.Vars) error {
	b.box(g.Bank, 0.7)
	b.add(lineItem(Line{X1: g.DividerX, Y1: g.Bank.Y + 2, X2: g.DividerX, Y2: g.Bank.Bottom() - 2, Width: 0.8}))

	info := g.BankInfo
	lineW := info.Width - 8
	if p.Bank.UPI != "" {
		qr, err := paymentQR(info, p, t)
		if err != nil {
			b.log.Warn("payment QR skipped", zap.Error(err))
		} else {
			b.add(imageItem(qr))
			lineW = qr.X - info.X - 4
		}
	}
	if err := b.line("Bank Details:", info.X, info.Y, info.Width-8, FontBold, NormalSize+0.5, "left"); err != nil {
		return err
	}
	for i, ln := range bankLines(p.Bank) {
		if err := b.line(ln, info.X, info.Y+18+float64(i)*14, lineW, FontRegular, SmallSize, "left"); err != nil {
			return err
		}
	}

	sig := g.Signature
	caption := binding.Interpolate(p.SignatureCaption, vars)
	if err := b.line(caption, sig.X+18, sig.Y, sig.Width-24, FontBold, NormalSize+1, "left"); err != nil {
		return err
	}
	sigY := sig.Y + 54
	b.add(lineItem(Line{X1: sig.X + 24, Y1: sigY, X2: sig.X + sig.Width - 6, Y2: sigY, Width: 0.7}))
	return b.line("Authorised Signatory", sig.X, g.Bank.Bottom()-22, sig.Width-8, FontRegular, NormalSize, "right")
}

func bankLines(bank invoice.BankDetails) []string {
	return []string{
		"Bank Name: " + bank.Name,
		"A/C No: " + bank.AccountNumber,
		"IFSC: " + bank.RoutingCode,
		"Branch: " + bank.Branch,
		"Beneficiary: " + bank.Beneficiary,
	}
}

func (b *pageBuilder) footer(g Geometry, note string) error {
	f := g.Footer
	text, err := TruncateToWidth(b.ts, note, f.Width, b.fonts[FontRegular], SmallSize)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	b.add(textItem(TextBox{
		Content: text, X: f.X, Y: f.Y, Width: f.Width,
		Font: FontRegular, FontSize: SmallSize, Color: Muted, Align: "center",
	}))
	return nil
}

package layout

import (
	"fmt"
	"math"
	"strings"
)

// 版式常量，单位 pt。
const (
	TitleSize       = 18.0
	CompanyNameSize = 12.0
	NormalSize      = 9.0
	SmallSize       = 7.0
	MinFontSize     = 6.0

	Gap        = 8.0
	BoxRadius  = 6.0
	SubtleLine = 0.25

	DefaultMargin = 36.0

	LogoMaxWidth     = 130.0
	LogoMaxHeight    = 60.0
	CompanyBoxHeight = 86.0
	BillToRowHeight  = 74.0
	BillToRatio      = 0.55
	BoxGutter        = 12.0

	BottomReserve  = 200.0 // totals + words + bank/signature
	FooterReserve  = 30.0
	MinTableHeight = 80.0

	TotalsRatio     = 0.36
	TotalsBoxHeight = 76.0
	WordsBoxHeight  = 56.0
	WordsGutter     = 16.0
	BankBoxHeight   = 100.0
	BankInnerPad    = 12.0
	FooterOffset    = 12.0
)

// TitleText is the heading printed at the top of the page.
const TitleText = "TAX INVOICE"

// PageSize 是页面的物理尺寸（pt）。
type PageSize struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var pageSizes = map[string]PageSize{
	"A4":     {Name: "A4", Width: 595.28, Height: 841.89},
	"A5":     {Name: "A5", Width: 419.53, Height: 595.28},
	"LETTER": {Name: "Letter", Width: 612, Height: 792},
}

// LookupPageSize 按名称（大小写不敏感）查找页面尺寸，空名称返回 A4。
func LookupPageSize(name string) (PageSize, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		key = "A4"
	}
	size, ok := pageSizes[key]
	if !ok {
		return PageSize{}, fmt.Errorf("unsupported page size %q", name)
	}
	return size, nil
}

// Box 是页面上的一个矩形区域。
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b Box) Right() float64  { return b.X + b.Width }
func (b Box) Bottom() float64 { return b.Y + b.Height }

// Geometry 是一次渲染的全部命名区域，每次渲染重新计算。
type Geometry struct {
	Page    PageSize `json:"page"`
	Margin  Margin   `json:"margin"`
	Content Box      `json:"content"`

	Title   Box `json:"title"`
	Company Box `json:"company"`
	Logo    Box `json:"logo"`
	BillTo  Box `json:"billTo"`
	Details Box `json:"details"`
	Table   Box `json:"table"`
	Totals  Box `json:"totals"`
	Words   Box `json:"words"`
	Bank    Box `json:"bank"`
	// BankInfo 与 Signature 是 Bank 内部等宽的左右两半。
	BankInfo  Box     `json:"bankInfo"`
	Signature Box     `json:"signature"`
	DividerX  float64 `json:"dividerX"`
	Footer    Box     `json:"footer"`
}

// PlanGeometry 自上而下依次预留固定区域，剩余高度分给商品表格。
// 每一步接收当前的 y 并返回下一步的 y，不存在共享的游标状态。
func PlanGeometry(page PageSize, margin, titleHeight float64) Geometry {
	m := Margin{Top: margin, Right: margin, Bottom: margin, Left: margin}
	content := Box{
		X:      m.Left,
		Y:      m.Top,
		Width:  page.Width - m.Left - m.Right,
		Height: page.Height - m.Top - m.Bottom,
	}
	g := Geometry{Page: page, Margin: m, Content: content}

	y := content.Y
	g.Title, y = placeTitle(content, y, titleHeight)
	g.Company, g.Logo, y = placeCompany(content, y)
	g.BillTo, g.Details, y = placeBillRow(content, y)
	g.Table, y = placeTable(content, y, page.Height-m.Bottom)
	g.Totals, g.Words, y = placeSummary(content, y)
	g.Bank, g.BankInfo, g.Signature, g.DividerX, _ = placeBank(content, y)
	g.Footer = placeFooter(content, page.Height-m.Bottom)
	return g
}

func placeTitle(c Box, y, height float64) (Box, float64) {
	box := Box{X: c.X, Y: y, Width: c.Width, Height: height}
	return box, y + height + Gap*1.2
}

func placeCompany(c Box, y float64) (company, logo Box, next float64) {
	company = Box{X: c.X, Y: y, Width: c.Width, Height: CompanyBoxHeight}
	logo = Box{
		X:      company.X + 12,
		Y:      company.Y + 12,
		Width:  math.Min(LogoMaxWidth, math.Floor(company.Width*0.16)),
		Height: math.Min(LogoMaxHeight, CompanyBoxHeight-24),
	}
	return company, logo, company.Bottom() + Gap
}

func placeBillRow(c Box, y float64) (billTo, details Box, next float64) {
	leftW := math.Floor(c.Width * BillToRatio)
	billTo = Box{X: c.X, Y: y, Width: leftW, Height: BillToRowHeight}
	details = Box{
		X:      c.X + leftW + BoxGutter,
		Y:      y,
		Width:  c.Width - leftW - BoxGutter,
		Height: BillToRowHeight,
	}
	return billTo, details, y + BillToRowHeight + Gap
}

// placeTable 为底部区块与页脚预留固定高度，剩余部分（不少于 MinTableHeight）给表格。
func placeTable(c Box, y, contentBottom float64) (Box, float64) {
	limit := contentBottom - BottomReserve - FooterReserve
	h := math.Max(MinTableHeight, limit-y)
	box := Box{X: c.X, Y: y, Width: c.Width, Height: h}
	return box, box.Bottom() + Gap
}

func placeSummary(c Box, y float64) (totals, words Box, next float64) {
	totW := math.Floor(c.Width * TotalsRatio)
	totals = Box{X: c.Right() - totW, Y: y, Width: totW, Height: TotalsBoxHeight}
	words = Box{X: c.X, Y: y, Width: c.Width - totW - WordsGutter, Height: WordsBoxHeight}
	return totals, words, y + math.Max(TotalsBoxHeight, WordsBoxHeight) + Gap
}

func placeBank(c Box, y float64) (bank, info, sig Box, dividerX, next float64) {
	bank = Box{X: c.X, Y: y, Width: c.Width, Height: BankBoxHeight}
	halfW := math.Floor((bank.Width - BankInnerPad*2 - 1) / 2)
	innerY := bank.Y + BankInnerPad
	innerH := bank.Height - BankInnerPad*2
	info = Box{X: bank.X + BankInnerPad, Y: innerY, Width: halfW, Height: innerH}
	dividerX = info.Right()
	sig = Box{X: dividerX + 1, Y: innerY, Width: halfW, Height: innerH}
	return bank, info, sig, dividerX, bank.Bottom() + Gap
}

func placeFooter(c Box, contentBottom float64) Box {
	return Box{X: c.X, Y: contentBottom - FooterOffset, Width: c.Width, Height: SmallSize * LineHeightFactor}
}

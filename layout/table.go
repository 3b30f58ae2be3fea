package layout

import (
	"errors"
	"math"
	"strconv"

	"github.com/ByLCY/papyrus-billing/invoice"
)

// 表格行布局常量（pt）。
const (
	HeaderHeight = 20.0
	// RowPadding 是表头下方与表格底部合计保留的空白。
	RowPadding   = 8.0
	RowTopOffset = 6.0
	MinRowHeight = 10.0
	MaxRowHeight = 18.0
	BaseFontSize = NormalSize
	CellPadding  = 6.0

	NoItemsText = "No items"
)

// ErrTableOverflow 仅在 OverflowFail 策略下返回。
var ErrTableOverflow = errors.New("layout: items exceed table capacity")

// FitMode 决定单元格内容放不下时的处理方式。
type FitMode int

const (
	// FitTruncate 保持共享字号，按宽度截断。
	FitTruncate FitMode = iota
	// FitShrinkHeight 先按行高缩小字号，再按宽度截断（描述列）。
	FitShrinkHeight
	// FitShrinkWidth 先按列宽缩小字号，再按宽度截断（金额列）。
	FitShrinkWidth
)

// Column 描述一列：表头、宽度百分比、对齐方式与取值函数。
type Column struct {
	Header  string
	Percent float64
	Align   string
	Fit     FitMode
	Value   func(index int, it invoice.LineItem) string
}

func fixed2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

var (
	colSNo = Column{Header: "SNo", Align: "center", Value: func(i int, _ invoice.LineItem) string {
		return strconv.Itoa(i + 1)
	}}
	colDescription = Column{Header: "Description", Align: "left", Fit: FitShrinkHeight, Value: func(_ int, it invoice.LineItem) string {
		return it.Label()
	}}
	colHSN = Column{Header: "HSN/SAC", Align: "center", Value: func(_ int, it invoice.LineItem) string {
		return it.HSNSAC
	}}
	colQty = Column{Header: "Qty", Align: "right", Value: func(_ int, it invoice.LineItem) string {
		return strconv.FormatFloat(it.Quantity, 'f', -1, 64)
	}}
	colUnitPrice = Column{Header: "Unit Price", Align: "right", Value: func(_ int, it invoice.LineItem) string {
		return fixed2(it.UnitPrice)
	}}
	colCGST = Column{Header: "CGST%", Align: "right", Value: func(_ int, it invoice.LineItem) string {
		return fixed2(it.CGSTRate)
	}}
	colSGST = Column{Header: "SGST%", Align: "right", Value: func(_ int, it invoice.LineItem) string {
		return fixed2(it.SGSTRate)
	}}
	colIGST = Column{Header: "IGST%", Align: "right", Value: func(_ int, it invoice.LineItem) string {
		return fixed2(it.IGSTRate)
	}}
	// 金额按数量、单价与税率重新计算，不直接使用输入值。
	colAmount = Column{Header: "Amount", Align: "right", Fit: FitShrinkWidth, Value: func(_ int, it invoice.LineItem) string {
		return invoice.LineTotal(it).StringFixed(2)
	}}
)

func withPercent(c Column, p float64) Column {
	c.Percent = p
	return c
}

// Columns 返回税制对应的列描述列表。
func Columns(regime invoice.TaxRegime) []Column {
	if regime == invoice.RegimeSplit {
		return []Column{
			withPercent(colSNo, 6),
			withPercent(colDescription, 32),
			withPercent(colHSN, 12),
			withPercent(colQty, 6),
			withPercent(colUnitPrice, 12),
			withPercent(colCGST, 9),
			withPercent(colSGST, 9),
			withPercent(colAmount, 14),
		}
	}
	return []Column{
		withPercent(colSNo, 6),
		withPercent(colDescription, 34),
		withPercent(colHSN, 12),
		withPercent(colQty, 6),
		withPercent(colUnitPrice, 12),
		withPercent(colIGST, 10),
		withPercent(colAmount, 20),
	}
}

// ColumnWidths 将百分比换算为整数宽度（向下取整）。
func ColumnWidths(cols []Column, tableWidth float64) []float64 {
	widths := make([]float64, len(cols))
	for i, c := range cols {
		widths[i] = math.Floor(c.Percent / 100 * tableWidth)
	}
	return widths
}

// RowLayout 是所有行共享的行高与字号。
type RowLayout struct {
	RowAreaHeight float64 `json:"rowAreaHeight"`
	RowHeight     float64 `json:"rowHeight"`
	FontSize      float64 `json:"fontSize"`
	Capacity      int     `json:"capacity"`
	Overflow      int     `json:"overflow"`
}

// PlanRows 计算 n 行共享的行高与字号：
// 行高 = clamp(floor(可用高度/n), MinRowHeight, MaxRowHeight)，
// 字号 = clamp(floor(BaseFontSize*行高/MaxRowHeight), MinFontSize, BaseFontSize)。
func PlanRows(tableHeight float64, n int) RowLayout {
	area := tableHeight - HeaderHeight - RowPadding
	rowH := MaxRowHeight
	if n > 0 {
		rowH = math.Floor(area / float64(n))
	}
	rowH = clamp(rowH, MinRowHeight, MaxRowHeight)
	font := clamp(math.Floor(BaseFontSize*rowH/MaxRowHeight), MinFontSize, BaseFontSize)

	capacity := 0
	if area > 0 {
		capacity = int(math.Floor(area / rowH))
	}
	overflow := 0
	if n > capacity {
		overflow = n - capacity
	}
	return RowLayout{
		RowAreaHeight: area,
		RowHeight:     rowH,
		FontSize:      font,
		Capacity:      capacity,
		Overflow:      overflow,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// tableLayout 生成表格的全部绘制原语：外框、表头、列分隔线、表头分隔线与各行单元格。
type tableLayout struct {
	ts     Typesetter
	fonts  map[string]FontResource
	box    Box
	cols   []Column
	widths []float64
	rows   RowLayout
}

func (t *tableLayout) items(lineItems []invoice.LineItem) ([]Item, error) {
	var out []Item
	out = append(out, rectItem(Rect{X: t.box.X, Y: t.box.Y, Width: t.box.Width, Height: t.box.Height, StrokeWidth: 0.5}))

	x := t.box.X
	for i, col := range t.cols {
		w := t.widths[i]
		header, err := TruncateToWidth(t.ts, col.Header, w-2*CellPadding, t.fonts[FontBold], NormalSize)
		if err != nil {
			return nil, err
		}
		out = append(out, textItem(TextBox{
			Content: header, X: x + CellPadding, Y: t.box.Y + RowTopOffset, Width: w - 2*CellPadding,
			Font: FontBold, FontSize: NormalSize, Align: "center",
		}))
		if i < len(t.cols)-1 {
			out = append(out, lineItem(Line{X1: x + w, Y1: t.box.Y, X2: x + w, Y2: t.box.Bottom(), Width: SubtleLine}))
		}
		x += w
	}
	out = append(out, lineItem(Line{
		X1: t.box.X, Y1: t.box.Y + HeaderHeight, X2: t.box.Right(), Y2: t.box.Y + HeaderHeight, Width: 0.5,
	}))

	// Build 已经拒绝空发票，这里只服务于直接排版表格的调用方（见 table_test）。
	if len(lineItems) == 0 {
		out = append(out, textItem(TextBox{
			Content: NoItemsText, X: t.box.X + 8, Y: t.box.Y + HeaderHeight + 8,
			Width: t.box.Width - 16, Font: FontItalic, FontSize: NormalSize,
		}))
		return out, nil
	}

	rowY := t.box.Y + HeaderHeight + RowTopOffset
	for i, it := range lineItems {
		cells, err := t.row(i, it, rowY)
		if err != nil {
			return nil, err
		}
		out = append(out, cells...)
		rowY += t.rows.RowHeight
	}
	return out, nil
}

func (t *tableLayout) row(index int, it invoice.LineItem, rowY float64) ([]Item, error) {
	cells := make([]Item, 0, len(t.cols))
	x := t.box.X
	for i, col := range t.cols {
		w := t.widths[i]
		text, size, err := t.fitCell(col, col.Value(index, it), w-2*CellPadding)
		if err != nil {
			return nil, err
		}
		cells = append(cells, textItem(TextBox{
			Content:  text,
			X:        x + CellPadding,
			Y:        rowY + (t.rows.RowHeight-size)/2,
			Width:    w - 2*CellPadding,
			Font:     FontRegular,
			FontSize: size,
			Align:    col.Align,
		}))
		x += w
	}
	return cells, nil
}

// fitCell 返回单元格最终的文本与字号；结果总是单行。
func (t *tableLayout) fitCell(col Column, value string, width float64) (string, float64, error) {
	font := t.fonts[FontRegular]
	size := t.rows.FontSize
	var err error
	switch col.Fit {
	case FitShrinkHeight:
		size, err = ShrinkFontToHeight(t.ts, value, t.rows.RowHeight, width, font, size, MinFontSize)
	case FitShrinkWidth:
		size, err = ShrinkFontToWidth(t.ts, value, width, font, size, MinFontSize)
	}
	if err != nil {
		return "", 0, err
	}
	text, err := TruncateToWidth(t.ts, value, width, font, size)
	if err != nil {
		return "", 0, err
	}
	return text, size, nil
}

func textItem(tb TextBox) Item   { return Item{Kind: KindText, Text: &tb} }
func rectItem(r Rect) Item       { return Item{Kind: KindRect, Rect: &r} }
func lineItem(l Line) Item       { return Item{Kind: KindLine, Line: &l} }
func imageItem(im ImageBox) Item { return Item{Kind: KindImage, Image: &im} }

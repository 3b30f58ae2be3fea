package layout

import (
	"reflect"
	"testing"

	"github.com/ByLCY/papyrus-billing/invoice"
)

// TestPlanRowsFitsFrame 断言：只要 N 不超过容量，N 行加表头与留白不超过表格高度。
func TestPlanRowsFitsFrame(t *testing.T) {
	for _, tableH := range []float64{80, 120.5, 332.69, 428, 600} {
		capacity := PlanRows(tableH, 1).RowAreaHeight / MinRowHeight
		for n := 1; float64(n) <= capacity; n++ {
			rl := PlanRows(tableH, n)
			if rl.Overflow != 0 {
				t.Fatalf("tableH=%g n=%d 不应溢出，实际 overflow=%d", tableH, n, rl.Overflow)
			}
			if used := rl.RowHeight*float64(n) + HeaderHeight + RowPadding; used > tableH {
				t.Fatalf("tableH=%g n=%d 行高 %g 超出表格: %g", tableH, n, rl.RowHeight, used)
			}
			if rl.RowHeight < MinRowHeight || rl.RowHeight > MaxRowHeight {
				t.Fatalf("行高越界: %g", rl.RowHeight)
			}
			if rl.FontSize < MinFontSize || rl.FontSize > BaseFontSize {
				t.Fatalf("字号越界: %g", rl.FontSize)
			}
		}
	}
}

// TestPlanRowsOverflow 对应 60 行、容量 40 行的退化场景。
func TestPlanRowsOverflow(t *testing.T) {
	rl := PlanRows(428, 60)
	want := RowLayout{RowAreaHeight: 400, RowHeight: MinRowHeight, FontSize: MinFontSize, Capacity: 40, Overflow: 20}
	if rl != want {
		t.Fatalf("PlanRows(428, 60) = %+v, want %+v", rl, want)
	}
}

func TestPlanRowsDensity(t *testing.T) {
	cases := []struct {
		n        int
		rowH     float64
		fontSize float64
	}{
		{0, 18, 9},
		{1, 18, 9},
		{20, 15, 7},
		{30, 10, 6},
	}
	// 行区域 = 332 - 28 = 304。
	for _, tc := range cases {
		rl := PlanRows(332, tc.n)
		if rl.RowHeight != tc.rowH || rl.FontSize != tc.fontSize {
			t.Fatalf("n=%d: got rowH=%g font=%g, want rowH=%g font=%g", tc.n, rl.RowHeight, rl.FontSize, tc.rowH, tc.fontSize)
		}
	}
}

func headers(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

func TestColumnsByRegime(t *testing.T) {
	split := Columns(invoice.RegimeSplit)
	if got, want := headers(split), []string{"SNo", "Description", "HSN/SAC", "Qty", "Unit Price", "CGST%", "SGST%", "Amount"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("split 列不正确: %v", got)
	}
	unified := Columns(invoice.RegimeUnified)
	if got, want := headers(unified), []string{"SNo", "Description", "HSN/SAC", "Qty", "Unit Price", "IGST%", "Amount"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unified 列不正确: %v", got)
	}
	for _, cols := range [][]Column{split, unified} {
		total := 0.0
		for _, w := range ColumnWidths(cols, 523.28) {
			total += w
		}
		if total > 523.28 {
			t.Fatalf("列宽之和 %g 超出表格宽度", total)
		}
	}
}

func TestColumnValues(t *testing.T) {
	it := invoice.LineItem{ProductName: "Bolt", Description: "M8", HSNSAC: "7318", Quantity: 2.5, UnitPrice: 100, CGSTRate: 9, SGSTRate: 9}
	cols := Columns(invoice.RegimeSplit)
	want := []string{"4", "Bolt - M8", "7318", "2.5", "100.00", "9.00", "9.00", "295.00"}
	for i, c := range cols {
		if got := c.Value(3, it); got != want[i] {
			t.Fatalf("列 %s: got %q want %q", c.Header, got, want[i])
		}
	}
}

func TestTableNoItemsPlaceholder(t *testing.T) {
	cols := Columns(invoice.RegimeUnified)
	box := Box{X: 36, Y: 200, Width: 523.28, Height: 300}
	tl := &tableLayout{ts: stubTypesetter{}, fonts: DefaultFonts(), box: box, cols: cols, widths: ColumnWidths(cols, box.Width), rows: PlanRows(box.Height, 0)}
	items, err := tl.items(nil)
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}
	var found *TextBox
	for _, it := range items {
		if it.Kind == KindText && it.Text.Content == NoItemsText {
			found = it.Text
		}
	}
	if found == nil {
		t.Fatalf("缺少 No items 占位行")
	}
	if found.Font != FontItalic || found.X != box.X+8 || found.Y != box.Y+28 {
		t.Fatalf("占位行位置或字体不正确: %+v", *found)
	}
}

func TestTableSeparatorsSpanFullHeight(t *testing.T) {
	cols := Columns(invoice.RegimeSplit)
	box := Box{X: 36, Y: 200, Width: 523.28, Height: 300}
	items := []invoice.LineItem{{ProductName: "A", Quantity: 1, UnitPrice: 1, CGSTRate: 9, SGSTRate: 9}}
	tl := &tableLayout{ts: stubTypesetter{}, fonts: DefaultFonts(), box: box, cols: cols, widths: ColumnWidths(cols, box.Width), rows: PlanRows(box.Height, len(items))}
	out, err := tl.items(items)
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}
	vertical, dividers := 0, 0
	for _, it := range out {
		if it.Kind != KindLine {
			continue
		}
		ln := it.Line
		switch {
		case ln.X1 == ln.X2 && ln.Y1 == box.Y && ln.Y2 == box.Bottom():
			vertical++
		case ln.Y1 == ln.Y2 && ln.Y1 == box.Y+HeaderHeight:
			dividers++
		}
	}
	if vertical != len(cols)-1 || dividers != 1 {
		t.Fatalf("分隔线数量不正确: vertical=%d dividers=%d", vertical, dividers)
	}
}

// TestDescriptionCellSingleLine 断言：超长描述被缩小并截断为单行，宽度不超过单元格。
func TestDescriptionCellSingleLine(t *testing.T) {
	ts := stubTypesetter{}
	cols := Columns(invoice.RegimeUnified)
	box := Box{X: 36, Y: 200, Width: 523.28, Height: 300}
	long := invoice.LineItem{ProductName: "Heavy duty industrial grade hydraulic pump assembly", Description: "with spare seals, gaskets and mounting brackets", Quantity: 1, UnitPrice: 10, IGSTRate: 18}
	tl := &tableLayout{ts: ts, fonts: DefaultFonts(), box: box, cols: cols, widths: ColumnWidths(cols, box.Width), rows: PlanRows(box.Height, 1)}
	text, size, err := tl.fitCell(cols[1], long.Label(), tl.widths[1]-2*CellPadding)
	if err != nil {
		t.Fatalf("fitCell 失败: %v", err)
	}
	if size > tl.rows.FontSize || size < MinFontSize {
		t.Fatalf("描述字号越界: %g", size)
	}
	if w, _ := ts.TextWidth(text, testFont, size); w > tl.widths[1]-2*CellPadding {
		t.Fatalf("描述超宽: %q", text)
	}
}

package renderer

import (
	"errors"
	"testing"

	"github.com/ByLCY/papyrus-billing/layout"
)

// recordingSurface 记录调用顺序，可在指定调用上返回错误。
type recordingSurface struct {
	calls    []string
	failOn   string
	finished int
}

func (r *recordingSurface) record(name string) error {
	r.calls = append(r.calls, name)
	if name == r.failOn {
		return errors.New("boom")
	}
	return nil
}

func (r *recordingSurface) DrawText(tb layout.TextBox, font layout.FontResource) error {
	return r.record("text:" + tb.Content + "@" + font.Name)
}
func (r *recordingSurface) StrokeRect(layout.Rect) error { return r.record("rect") }
func (r *recordingSurface) StrokeLine(layout.Line) error { return r.record("line") }
func (r *recordingSurface) DrawImage(layout.ImageBox) error { return r.record("image") }
func (r *recordingSurface) Finish() ([]byte, error) {
	r.finished++
	return []byte("%PDF"), nil
}

func sampleResult() *layout.Result {
	return &layout.Result{
		Resources: layout.ResourceSet{Fonts: layout.DefaultFonts()},
		Page: layout.Page{Items: []layout.Item{
			{Kind: layout.KindText, Text: &layout.TextBox{Content: "TAX INVOICE", Font: layout.FontBold}},
			{Kind: layout.KindRect, Rect: &layout.Rect{Width: 10, Height: 10}},
			{Kind: layout.KindImage, Image: &layout.ImageBox{Name: "logo"}},
			{Kind: layout.KindLine, Line: &layout.Line{X2: 10}},
			{Kind: layout.KindText, Text: &layout.TextBox{Content: "footer", Font: "missing"}},
		}},
	}
}

func TestEmitDrawsInOrderAndFinishesOnce(t *testing.T) {
	s := &recordingSurface{}
	out, err := Emit(sampleResult(), s)
	if err != nil {
		t.Fatalf("Emit 失败: %v", err)
	}
	want := []string{"text:TAX INVOICE@bold", "rect", "image", "line", "text:footer@regular"}
	if len(s.calls) != len(want) {
		t.Fatalf("调用次数不正确: %v", s.calls)
	}
	for i := range want {
		if s.calls[i] != want[i] {
			t.Fatalf("第 %d 次调用: got %q want %q", i, s.calls[i], want[i])
		}
	}
	if s.finished != 1 || string(out) != "%PDF" {
		t.Fatalf("Finish 应恰好调用一次")
	}
}

func TestEmitStopsOnDrawFailure(t *testing.T) {
	s := &recordingSurface{failOn: "image"}
	if _, err := Emit(sampleResult(), s); err == nil {
		t.Fatalf("绘制失败时应返回错误")
	}
	if s.finished != 0 {
		t.Fatalf("失败后不应结束页面")
	}
	if len(s.calls) != 3 {
		t.Fatalf("失败后不应继续绘制: %v", s.calls)
	}
}

func TestEmitNilResult(t *testing.T) {
	if _, err := Emit(nil, &recordingSurface{}); !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("期望 ErrEmptyResult，实际 %v", err)
	}
}

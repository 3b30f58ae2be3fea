package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestLengthToConversions 覆盖 Length 在常见单位上的转换正确性（到 mm/pt）。
func TestLengthToConversions(t *testing.T) {
	in := Length{Value: 1, Unit: UnitIN}
	if got := in.ToMM(); math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("1in 转 mm 期望 25.4，实际 %g", got)
	}
	cm := Length{Value: 2.54, Unit: UnitCM}
	if got := cm.ToMM(); math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("2.54cm 转 mm 期望 25.4，实际 %g", got)
	}
	pt := Length{Value: 12, Unit: UnitPT}
	if got := pt.ToMM(); math.Abs(got-12*PtToMm) > 1e-9 {
		t.Fatalf("12pt 转 mm 期望 %g，实际 %g", 12*PtToMm, got)
	}
	mm := Length{Value: 10, Unit: UnitMM}
	if got := mm.ToPT(); math.Abs(got-10*MmToPt) > 1e-9 {
		t.Fatalf("10mm 转 pt 期望 %g，实际 %g", 10*MmToPt, got)
	}
}

func TestParseRawLengthStr(t *testing.T) {
	cases := []struct {
		in   string
		want Length
	}{
		{"36pt", Length{Value: 36, Unit: UnitPT}},
		{"12.5mm", Length{Value: 12.5, Unit: UnitMM}},
		{" 1in ", Length{Value: 1, Unit: UnitIN}},
		{"2CM", Length{Value: 2, Unit: UnitCM}},
		{"36", Length{Value: 36, Unit: UnitNone}},
		{"", Length{Unit: UnitNone}},
		{"abc", Length{Unit: UnitNone}},
	}
	for _, tc := range cases {
		if got := ParseRawLengthStr(tc.in); got != tc.want {
			t.Fatalf("ParseRawLengthStr(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

package layout

import (
	"strings"
	"unicode/utf8"
)

// stubTypesetter 是等宽字体的最小实现：每个字符宽 size/2，行高取入参。
// 仅用于测试，避免引入 renderer 造成循环依赖。
type stubTypesetter struct{}

func (stubTypesetter) TextWidth(content string, _ FontResource, size float64) (float64, error) {
	return float64(utf8.RuneCountInString(content)) * size / 2, nil
}

func (s stubTypesetter) LayoutLines(content string, width float64, font FontResource, size, lineHeight float64, wrap string) ([]TextLine, error) {
	if wrap == "nowrap" || width <= 0 {
		w, _ := s.TextWidth(content, font, size)
		return []TextLine{{Content: content, Width: w, Height: lineHeight}}, nil
	}
	var lines []TextLine
	current := ""
	flush := func() {
		w, _ := s.TextWidth(current, font, size)
		lines = append(lines, TextLine{Content: current, Width: w, Height: lineHeight})
		current = ""
	}
	for _, word := range strings.Fields(content) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if w, _ := s.TextWidth(candidate, font, size); w <= width || current == "" {
			current = candidate
			continue
		}
		flush()
		current = word
	}
	flush()
	return lines, nil
}

package layout

import (
	"strings"
	"unicode"
)

// Ellipsis 是截断文本时追加的单个省略号字符。
const Ellipsis = "…"

// LineHeightFactor 是行高相对字号的倍数。
const LineHeightFactor = 1.2

// TruncateToWidth 返回渲染宽度不超过 maxWidth 的最长前缀加省略号。
// 完整文本本身放得下时原样返回；空文本返回空串；连省略号都放不下时返回空串。
// 前缀长度通过二分查找确定（前缀越长宽度越大）。
func TruncateToWidth(ts Typesetter, text string, maxWidth float64, font FontResource, size float64) (string, error) {
	if text == "" || maxWidth <= 0 {
		return "", nil
	}
	full, err := ts.TextWidth(text, font, size)
	if err != nil {
		return "", err
	}
	if full <= maxWidth {
		return text, nil
	}
	runes := []rune(text)
	fits := func(n int) (bool, error) {
		w, err := ts.TextWidth(withEllipsis(runes[:n]), font, size)
		if err != nil {
			return false, err
		}
		return w <= maxWidth, nil
	}
	ok, err := fits(0)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	// 不变式：fits(lo) 为真；hi 之后的前缀都放不下。
	lo, hi := 0, len(runes)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		ok, err := fits(mid)
		if err != nil {
			return "", err
		}
		if ok {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return withEllipsis(runes[:lo]), nil
}

func withEllipsis(prefix []rune) string {
	return strings.TrimRightFunc(string(prefix), unicode.IsSpace) + Ellipsis
}

// TextHeight 计算排版后多行文本的总高度。
func TextHeight(lines []TextLine) float64 {
	total := 0.0
	for _, ln := range lines {
		total += ln.GapBefore + ln.Height
	}
	return total
}

// ShrinkFontToHeight 从 startSize 起每次减 1pt，直到按 boxWidth 折行后的高度
// 不超过 maxHeight；到达 minSize 即停止，即使仍然溢出。
func ShrinkFontToHeight(ts Typesetter, text string, maxHeight, boxWidth float64, font FontResource, startSize, minSize float64) (float64, error) {
	size := startSize
	if size < minSize {
		size = minSize
	}
	for {
		lines, err := ts.LayoutLines(text, boxWidth, font, size, size*LineHeightFactor, "anywhere")
		if err != nil {
			return 0, err
		}
		if TextHeight(lines) <= maxHeight || size-1 < minSize {
			return size, nil
		}
		size--
	}
}

// ShrinkFontToWidth 与 ShrinkFontToHeight 相同，但约束的是单行宽度。
func ShrinkFontToWidth(ts Typesetter, text string, maxWidth float64, font FontResource, startSize, minSize float64) (float64, error) {
	size := startSize
	if size < minSize {
		size = minSize
	}
	for {
		w, err := ts.TextWidth(text, font, size)
		if err != nil {
			return 0, err
		}
		if w <= maxWidth || size-1 < minSize {
			return size, nil
		}
		size--
	}
}

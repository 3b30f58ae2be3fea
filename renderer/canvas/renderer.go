package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/papyrus-billing/fonts"
	"github.com/ByLCY/papyrus-billing/layout"
	"github.com/ByLCY/papyrus-billing/renderer"
)

const defaultStrokeWidth = 0.5 // pt

// Renderer draws layout results via github.com/tdewolff/canvas.
// 布局层使用 pt，canvas 内部使用 mm，换算只发生在本包的边界上。
// 字体缓存受互斥锁保护，同一个 Renderer 可以被并发的渲染调用共享。
type Renderer struct {
	baseDir string

	fontBlobs map[string][]byte // by unique name

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // fonts accessible via built-in:<name>
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving font paths.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected fonts and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, _ := os.ReadFile(res.Path) // 读取失败时在实际使用处报错
			if len(data) > 0 {
				r.fontBlobs[name] = data
			}
		}
	}
	return r
}

// Render renders the single-page result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, renderer.ErrEmptyResult
	}
	if result.Page.Width <= 0 || result.Page.Height <= 0 {
		return nil, fmt.Errorf("页面尺寸无效: %gx%g", result.Page.Width, result.Page.Height)
	}
	return renderer.Emit(result, r.NewSurface(result.Page, result.Meta))
}

// NewSurface returns a fresh PDF surface for one page.
func (r *Renderer) NewSurface(page layout.Page, meta layout.DocumentMeta) renderer.Surface {
	c := canvas.New(mm(page.Width), mm(page.Height))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	return &pdfSurface{r: r, c: c, ctx: ctx, meta: meta}
}

// TextWidth 实现 layout.Typesetter：返回单行文本宽度（pt）。
func (r *Renderer) TextWidth(content string, font layout.FontResource, fontSize float64) (float64, error) {
	face, err := r.fontFace(font, fontSize, layout.Black)
	if err != nil {
		return 0, err
	}
	return pt(face.TextWidth(content)), nil
}

// LayoutLines 实现 layout.Typesetter 接口，使用贪心换行算法。
// 约定：width/fontSize/lineHeight 入参与返回值均为 pt。
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	face, err := r.fontFace(font, fontSize, layout.Black)
	if err != nil {
		return nil, err
	}
	measure := func(s string) float64 { return pt(face.TextWidth(s)) }

	if wrap == "" {
		wrap = "anywhere"
	}
	lines := greedyWrapTokens(content, width, measure, wrap)
	textHeight := pt(face.Metrics().LineHeight)
	if textHeight <= 0 {
		textHeight = lineHeight
	}
	leading := math.Max(lineHeight-textHeight, 0)
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: "", Width: 0, Height: textHeight}}
	}
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = textHeight
		}
		if i == 0 {
			lines[i].GapBefore = 0
		} else {
			lines[i].GapBefore = leading
		}
	}
	return lines, nil
}

// pdfSurface 是 renderer.Surface 的 PDF 实现，每次渲染独立创建。
type pdfSurface struct {
	r        *Renderer
	c        *canvas.Canvas
	ctx      *canvas.Context
	meta     layout.DocumentMeta
	finished bool
}

func (s *pdfSurface) DrawText(tb layout.TextBox, font layout.FontResource) error {
	if tb.Content == "" {
		return nil
	}
	face, err := s.r.fontFace(font, tb.FontSize, tb.Color)
	if err != nil {
		return err
	}

	// 处理水平对齐：left（默认）/center/right。
	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(tb.Align) {
	case "center":
		textAlign = canvas.Center
		anchorX = tb.X + tb.Width/2
	case "right", "end":
		textAlign = canvas.Right
		anchorX = tb.X + tb.Width
	default:
		textAlign = canvas.Left
		anchorX = tb.X
	}

	// 基线位置：文本顶部加上字体上升部（Ascent，已是 mm）。
	baseline := mm(tb.Y) + face.Metrics().Ascent
	s.ctx.DrawText(mm(anchorX), baseline, canvas.NewTextLine(face, tb.Content, textAlign))
	return nil
}

func (s *pdfSurface) StrokeRect(rc layout.Rect) error {
	if rc.FillColor != nil {
		s.ctx.SetFillColor(colorFromLayout(*rc.FillColor))
	} else {
		s.ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	}
	s.stroke(rc.StrokeColor, rc.StrokeWidth)
	path := canvas.Rectangle(mm(rc.Width), mm(rc.Height))
	if rc.Radius > 0 {
		path = canvas.RoundedRectangle(mm(rc.Width), mm(rc.Height), mm(rc.Radius))
	}
	s.ctx.DrawPath(mm(rc.X), mm(rc.Y), path)
	return nil
}

func (s *pdfSurface) StrokeLine(ln layout.Line) error {
	s.ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	s.stroke(ln.Color, ln.Width)
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(mm(ln.X2-ln.X1), mm(ln.Y2-ln.Y1))
	s.ctx.DrawPath(mm(ln.X1), mm(ln.Y1), p)
	return nil
}

func (s *pdfSurface) DrawImage(im layout.ImageBox) error {
	if im.Image == nil {
		return fmt.Errorf("图片 %s 未解码", im.Name)
	}
	px := im.Image.Bounds().Dx()
	if px <= 0 || im.Width <= 0 {
		return fmt.Errorf("图片 %s 尺寸无效", im.Name)
	}
	dpmm := float64(px) / mm(im.Width)
	s.ctx.DrawImage(mm(im.X), mm(im.Y), im.Image, canvas.DPMM(dpmm))
	return nil
}

func (s *pdfSurface) Finish() ([]byte, error) {
	if s.finished {
		return nil, fmt.Errorf("页面已结束")
	}
	s.finished = true

	var buf bytes.Buffer
	writer := pdf.New(&buf, s.c.W, s.c.H, nil)
	writer.SetInfo(s.meta.Title, s.meta.Subject, strings.Join(s.meta.Keywords, ", "), s.meta.Author, s.meta.Creator)
	s.c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *pdfSurface) stroke(c layout.Color, width float64) {
	if width <= 0 {
		width = defaultStrokeWidth
	}
	s.ctx.SetStrokeColor(colorFromLayout(c))
	s.ctx.SetStrokeWidth(mm(width))
}

func (r *Renderer) fontFace(font layout.FontResource, sizePt float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(sizePt, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Name
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbStyle, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	entry := &fontFamilyEntry{family: family, style: style}
	r.fontFamilies[key] = entry
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	if font.Src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	src := font.Src
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		return nil, fmt.Errorf("找不到内置字体资源 built-in:%s", name)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 built-in: 或 embed:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

// fallback 在调用方持有 fontMu 时使用。
func (r *Renderer) fallback() (*canvas.FontFamily, canvas.FontStyle, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, canvas.FontRegular, nil
	}
	data, err := fonts.Load("goregular")
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily("papyrus-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// mm 将点(pt)转换为毫米(mm)。
func mm(v float64) float64 { return v * layout.PtToMm }

// pt 将毫米(mm)转换为点(pt)。
func pt(v float64) float64 { return v * layout.MmToPt }

// greedyWrapTokens 按 measure（pt）贪心折行；width<=0 表示不限宽。
func greedyWrapTokens(content string, width float64, measure func(string) float64, wrap string) []layout.TextLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	// nowrap：仅按显式换行划分，不基于宽度折行
	if wrap == "nowrap" {
		parts := strings.Split(content, "\n")
		lines := make([]layout.TextLine, 0, len(parts))
		for _, p := range parts {
			lines = append(lines, layout.TextLine{Content: p, Width: measure(p)})
		}
		return lines
	}

	tokens := tokenizeContent(content)
	var lines []layout.TextLine
	var builder strings.Builder
	currentWidth := 0.0

	emit := func(force bool) {
		if builder.Len() == 0 {
			if force {
				lines = append(lines, layout.TextLine{Content: "", Width: 0})
			}
			return
		}
		line := strings.TrimRightFunc(builder.String(), unicode.IsSpace)
		lines = append(lines, layout.TextLine{Content: line, Width: measure(line)})
		builder.Reset()
		currentWidth = 0
	}

	appendToken := func(token string) {
		builder.WriteString(token)
		currentWidth += measure(token)
	}

	lastWasNewline := false
	for _, token := range tokens {
		if token == "\n" {
			// 宽度恰好填满后紧跟换行时，上一行已输出，不再产生空行。
			if builder.Len() > 0 || lastWasNewline || len(lines) == 0 {
				emit(true)
			}
			lastWasNewline = true
			continue
		}
		lastWasNewline = false
		if builder.Len() == 0 && isSpace(token) {
			continue
		}

		tokenWidth := measure(token)
		if currentWidth > 0 && currentWidth+tokenWidth > limit {
			emit(false)
			if isSpace(token) {
				continue
			}
		}
		if tokenWidth <= limit {
			appendToken(token)
			continue
		}

		for _, chunk := range splitTokenByWidth(token, limit, measure) {
			chunkWidth := measure(chunk)
			if currentWidth > 0 && currentWidth+chunkWidth > limit {
				emit(false)
			}
			appendToken(chunk)
		}
	}

	emit(len(lines) == 0 || lastWasNewline)
	return lines
}

func isSpace(token string) bool {
	return strings.TrimSpace(token) == ""
}

func tokenizeContent(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func splitTokenByWidth(token string, limit float64, measure func(string) float64) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var builder strings.Builder
	for _, r := range token {
		builder.WriteRune(r)
		if measure(builder.String()) > limit && builder.Len() > 1 {
			runes := []rune(builder.String())
			parts = append(parts, string(runes[:len(runes)-1]))
			builder.Reset()
			builder.WriteRune(r)
		}
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts
}

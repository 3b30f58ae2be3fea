package layout

import (
	"image"

	"github.com/ByLCY/papyrus-billing/invoice"
)

// 该文件定义布局结果与资源描述，供布局计算、渲染与调试 JSON 共用。
// 所有坐标与尺寸单位均为 pt，原点在页面左上角，y 向下增长。

// Result 保存单页发票的布局结果。
type Result struct {
	Page      Page         `json:"page"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
	Geometry  Geometry     `json:"geometry"`
	Report    Report       `json:"report"`
}

// Report 记录表格布局的决策，便于调试与测试断言。
type Report struct {
	Regime       string   `json:"regime"`
	Columns      []string `json:"columns"`
	RowHeight    float64  `json:"rowHeight"`
	FontSize     float64  `json:"fontSize"`
	Capacity     int      `json:"capacity"`
	OverflowRows int      `json:"overflowRows"`
	LogoFallback bool     `json:"logoFallback,omitempty"`
}

// ResourceSet 记录页面用到的字体。
type ResourceSet struct {
	Fonts map[string]FontResource `json:"fonts"`
}

// FontResource 描述字体资源，src 可以是文件路径或 embed:* 形式。
type FontResource struct {
	Name  string `json:"name"`
	Src   string `json:"src"`
	Style string `json:"style"`
}

// 页面使用的三种字体。
const (
	FontRegular = "regular"
	FontBold    = "bold"
	FontItalic  = "italic"
)

// DefaultFonts 使用内置的 Go 字体。
func DefaultFonts() map[string]FontResource {
	return map[string]FontResource{
		FontRegular: {Name: FontRegular, Src: "embed:goregular", Style: "regular"},
		FontBold:    {Name: FontBold, Src: "embed:gobold", Style: "bold"},
		FontItalic:  {Name: FontItalic, Src: "embed:goitalic", Style: "italic"},
	}
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	Black = Color{}
	Muted = Color{R: 0x66, G: 0x66, B: 0x66}
)

// Margin 以 pt 为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// ItemKind 区分页面上的绘制原语。
type ItemKind string

const (
	KindText  ItemKind = "text"
	KindRect  ItemKind = "rect"
	KindLine  ItemKind = "line"
	KindImage ItemKind = "image"
)

// Item 是一个已定位的绘制原语，只有与 Kind 对应的字段非空。
type Item struct {
	Kind  ItemKind  `json:"kind"`
	Text  *TextBox  `json:"text,omitempty"`
	Rect  *Rect     `json:"rect,omitempty"`
	Line  *Line     `json:"line,omitempty"`
	Image *ImageBox `json:"image,omitempty"`
}

// Page 记录页面尺寸、边距与按绘制顺序排列的元素。
type Page struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
	Items  []Item  `json:"items"`
}

// Texts returns the text items of the page in drawing order.
func (p Page) Texts() []TextBox {
	var out []TextBox
	for _, it := range p.Items {
		if it.Kind == KindText && it.Text != nil {
			out = append(out, *it.Text)
		}
	}
	return out
}

// TextBox 表示一行已经排好坐标的文本，Y 为文本顶部。
type TextBox struct {
	Content  string  `json:"content"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Font     string  `json:"font"`
	FontSize float64 `json:"fontSize"`
	Color    Color   `json:"color"`
	Align    string  `json:"align,omitempty"` // left/center/right，默认 left
}

// TextLine 表示排版后的一行文本内容及其宽高。
type TextLine struct {
	Content   string  `json:"content"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
}

// Line 表示一条线段。
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"`
}

// Rect 表示一个矩形，Radius > 0 时为圆角矩形。
type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Radius      float64 `json:"radius,omitempty"`
	StrokeColor Color   `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   *Color  `json:"fillColor,omitempty"` // 为空表示不填充
}

// ImageBox 描述已解码图片的位置与尺寸。
type ImageBox struct {
	Name   string      `json:"name"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Image  image.Image `json:"-"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

func newMeta(inv invoice.Invoice, profile invoice.CompanyProfile) DocumentMeta {
	return DocumentMeta{
		Title:    "Tax Invoice " + inv.Number,
		Author:   profile.Name,
		Subject:  inv.CustomerName,
		Creator:  "papyrus-billing",
		Keywords: []string{"invoice", inv.Number},
	}
}

package renderer

import (
	"errors"
	"fmt"

	"github.com/ByLCY/papyrus-billing/layout"
)

// Renderer 将布局结果输出为最终文件，例如 PDF。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Surface 是单页的绘制表面。坐标单位为 pt，原点在左上角。
// 每次渲染使用独立的 Surface 实例。
type Surface interface {
	DrawText(tb layout.TextBox, font layout.FontResource) error
	StrokeRect(r layout.Rect) error
	StrokeLine(l layout.Line) error
	DrawImage(im layout.ImageBox) error
	// Finish 结束页面并返回编码后的文档，只调用一次。
	Finish() ([]byte, error)
}

var ErrEmptyResult = errors.New("renderer: 渲染结果为空")

// Emit 按顺序把页面原语绘制到 s 上，最后结束页面。
// 任一绘制调用失败即整体失败，且不会调用 Finish。
func Emit(result *layout.Result, s Surface) ([]byte, error) {
	if result == nil {
		return nil, ErrEmptyResult
	}
	for i, item := range result.Page.Items {
		if err := draw(item, result.Resources.Fonts, s); err != nil {
			return nil, fmt.Errorf("绘制第 %d 个元素（%s）失败: %w", i, item.Kind, err)
		}
	}
	return s.Finish()
}

func draw(item layout.Item, fonts map[string]layout.FontResource, s Surface) error {
	switch {
	case item.Kind == layout.KindText && item.Text != nil:
		return s.DrawText(*item.Text, ResolveFont(item.Text.Font, fonts))
	case item.Kind == layout.KindRect && item.Rect != nil:
		return s.StrokeRect(*item.Rect)
	case item.Kind == layout.KindLine && item.Line != nil:
		return s.StrokeLine(*item.Line)
	case item.Kind == layout.KindImage && item.Image != nil:
		return s.DrawImage(*item.Image)
	default:
		return fmt.Errorf("未知的元素类型 %q", item.Kind)
	}
}

// ResolveFont 按名称查找字体，找不到时回退到常规字体。
func ResolveFont(name string, fonts map[string]layout.FontResource) layout.FontResource {
	if font, ok := fonts[name]; ok {
		return font
	}
	if font, ok := fonts[layout.FontRegular]; ok {
		return font
	}
	return layout.DefaultFonts()[layout.FontRegular]
}

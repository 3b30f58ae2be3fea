package layout

import (
	"image"

	"go.uber.org/zap"
)

// OverflowPolicy 决定表格行数超过容量时的处理方式。
type OverflowPolicy int

const (
	// OverflowAccept 照常绘制，超出的行落在表格边框之外，并记录在 Report 中。
	OverflowAccept OverflowPolicy = iota
	// OverflowFail 在绘制前返回 ErrTableOverflow。
	OverflowFail
)

func (p OverflowPolicy) String() string {
	if p == OverflowFail {
		return "fail"
	}
	return "accept"
}

// ParseOverflowPolicy maps "fail" to OverflowFail and anything else to OverflowAccept.
func ParseOverflowPolicy(s string) OverflowPolicy {
	if s == "fail" {
		return OverflowFail
	}
	return OverflowAccept
}

// ImageLoader 读取并解码 logo。
type ImageLoader func(path string) (image.Image, error)

// BuildOptions 配置布局阶段所需的依赖，例如排版后端。
type BuildOptions struct {
	Typesetter Typesetter
	Overflow   OverflowPolicy
	// LoadImage 为空时使用 LoadImageFile。
	LoadImage ImageLoader
	Logger    *zap.Logger
	// StatePrefix 在所有税率为零时用于判断税制。
	StatePrefix string
	Fonts       map[string]FontResource
}

// Typesetter 负责文本测量，与绘制表面的状态无关。
// 所有长度单位为 pt。
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error)
	TextWidth(content string, font FontResource, fontSize float64) (float64, error)
}

package layout

import (
	"fmt"
	"strings"
)

// Measurer 回答“某字号下这段文本有多宽、一行有多高”，供字号搜索使用。
// 约定：size 与返回值均为像素。
type Measurer interface {
	TextWidth(text string, size float64) float64
	LineHeight(size float64) float64
}

// 默认排版参数。
const (
	DefaultMaxFontHeight = 64
	DefaultMinFontHeight = 8
	DefaultLineSpacing   = 0.15
	DefaultPadding       = 12
)

// FitOptions 配置文本自适应排版。
type FitOptions struct {
	MaxFontHeight int     // 搜索起点（像素），<=0 时取 DefaultMaxFontHeight
	MinFontHeight int     // 搜索下限（像素），<=0 时取 DefaultMinFontHeight
	LineSpacing   Spacing // 行间距
}

// DefaultFitOptions 返回 max=64、min=8、行距 0.15x。
func DefaultFitOptions() FitOptions {
	return FitOptions{
		MaxFontHeight: DefaultMaxFontHeight,
		MinFontHeight: DefaultMinFontHeight,
		LineSpacing:   Spacing{Kind: SpacingFactor, Factor: DefaultLineSpacing},
	}
}

func (o FitOptions) normalized() FitOptions {
	if o.MaxFontHeight <= 0 {
		o.MaxFontHeight = DefaultMaxFontHeight
	}
	if o.MinFontHeight <= 0 {
		o.MinFontHeight = DefaultMinFontHeight
	}
	return o
}

// Align 是单个方向上的对齐方式。
type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignEnd:
		return "end"
	default:
		return "start"
	}
}

// ParseAlign 支持 start/end 及 left/right/top/bottom/middle 别名。
func ParseAlign(value string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "start", "left", "top":
		return AlignStart, nil
	case "center", "centre", "middle":
		return AlignCenter, nil
	case "end", "right", "bottom":
		return AlignEnd, nil
	default:
		return AlignStart, fmt.Errorf("未知的对齐方式 %q", value)
	}
}

// offset 返回宽度为 size 的内容在 container 中的起始偏移。
func (a Align) offset(container, size float64) float64 {
	if container <= size {
		return 0
	}
	switch a {
	case AlignCenter:
		return (container - size) / 2
	case AlignEnd:
		return container - size
	default:
		return 0
	}
}

// Alignment 组合水平与垂直对齐。
type Alignment struct {
	Horizontal Align `json:"horizontal"`
	Vertical   Align `json:"vertical"`
}

// Centered 水平、垂直均居中。
var Centered = Alignment{Horizontal: AlignCenter, Vertical: AlignCenter}

// PasteOptions 配置贴图。
type PasteOptions struct {
	Align        Alignment
	Padding      int
	AllowUpscale bool
}

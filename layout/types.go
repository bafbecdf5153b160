package layout

import "image"

// 该文件定义排版与贴图的结果类型，供布局计算、合成与调试 JSON 共用。

// Style 标记一段文本的着色方式。
type Style int

const (
	StyleNormal    Style = iota // 普通文本
	StyleHighlight              // 括号强调文本
)

func (s Style) String() string {
	if s == StyleHighlight {
		return "highlight"
	}
	return "normal"
}

// MarshalText 让调试 JSON 输出可读的样式名。
func (s Style) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// StyledRun 是一段带统一颜色标记的连续文本。
type StyledRun struct {
	Text  string `json:"text"`
	Style Style  `json:"style"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Palette 给每种 Style 指定填充色。
type Palette struct {
	Normal    Color `json:"normal"`
	Highlight Color `json:"highlight"`
}

// ColorOf 返回 style 对应的颜色。
func (p Palette) ColorOf(s Style) Color {
	if s == StyleHighlight {
		return p.Highlight
	}
	return p.Normal
}

// FontResource 描述一个字体来源。Src 可以是文件路径，也可以是 "builtin:<name>"。
type FontResource struct {
	Name  string `json:"name,omitempty" toml:"name" yaml:"name"`
	Src   string `json:"src" toml:"src" yaml:"src"`
	Style string `json:"style,omitempty" toml:"style" yaml:"style"`
}

// Fragment 是某一行里来自同一个 StyledRun 的连续片段。
type Fragment struct {
	Text  string  `json:"text"`
	Style Style   `json:"style"`
	Width float64 `json:"width"`
}

// LayoutLine 表示在选定字号下排好的一行。
type LayoutLine struct {
	Fragments []Fragment `json:"fragments"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	GapBefore float64    `json:"gapBefore,omitempty"`
}

// Text 返回整行的纯文本。
func (l LayoutLine) Text() string {
	n := 0
	for _, f := range l.Fragments {
		n += len(f.Text)
	}
	buf := make([]byte, 0, n)
	for _, f := range l.Fragments {
		buf = append(buf, f.Text...)
	}
	return string(buf)
}

// FitResult 是文本自适应排版的结果。
// 不变式：Height <= 文本框高度，Width <= 文本框宽度。
type FitResult struct {
	FontSize   int          `json:"fontSize"`
	LineHeight float64      `json:"lineHeight"`
	Lines      []LayoutLine `json:"lines"`
	Width      float64      `json:"width"`  // 最宽一行
	Height     float64      `json:"height"` // Σ(GapBefore + Height)
}

// Placement 是一行文本左上角在底图坐标系中的位置。
type Placement struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PasteLayout 描述源图缩放后在底图中的目标矩形。
type PasteLayout struct {
	Dest  image.Rectangle `json:"dest"`
	Scale float64         `json:"scale"`
}

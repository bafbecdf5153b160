package layout

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// 常用颜色。Purple 是强调文本的默认颜色。
var (
	Black  = Color{R: 0, G: 0, B: 0}
	Purple = Color{R: 128, G: 0, B: 128}
)

// DefaultPalette 黑色正文、紫色强调。
var DefaultPalette = Palette{Normal: Black, Highlight: Purple}

// ParseColor 解析 #rgb、#rrggbb 与 #rrggbbaa（忽略 alpha）。
func ParseColor(value string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(v) {
	case 3:
		v = strings.Repeat(v[0:1], 2) + strings.Repeat(v[1:2], 2) + strings.Repeat(v[2:3], 2)
	case 6, 8:
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	var c [3]int
	for i := range c {
		n, err := strconv.ParseUint(v[i*2:i*2+2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
		}
		c[i] = int(n)
	}
	return Color{R: c[0], G: c[1], B: c[2]}, nil
}

// Hex 返回 #rrggbb 形式。
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ToColor 转为不透明的 color.RGBA。
func (c Color) ToColor() color.RGBA {
	return color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 255}
}

package renderer

import (
	"image"

	"github.com/ByLCY/sketchbook/layout"
)

// FontLoader 根据字体资源返回可度量、可绘制的字体。
// 实现需要缓存已加载的字体并允许并发调用。
type FontLoader interface {
	Face(font layout.FontResource) (Face, error)
}

// Face 在像素坐标系下度量并绘制文本。
type Face interface {
	layout.Measurer

	// Rasterize 在 size 大小的透明图层上按 placements 绘制 fit 中的每一行，
	// 每个片段使用 palette 中对应样式的颜色。
	Rasterize(size image.Point, fit *layout.FitResult, placements []layout.Placement, palette layout.Palette) (*image.RGBA, error)
}

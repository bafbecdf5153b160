package layout

import (
	"fmt"
	"image"
	"math"
)

// FitImage 计算把 src 尺寸的图片等比放入 box 的位置（contain 规则，不裁剪）。
// 可用区域为 box 四边各减去 Padding；不允许放大时缩放系数最多为 1。
func FitImage(box Box, src image.Point, opts PasteOptions) (PasteLayout, error) {
	if err := box.Validate(); err != nil {
		return PasteLayout{}, err
	}
	area, err := box.Inset(opts.Padding)
	if err != nil {
		return PasteLayout{}, err
	}
	if src.X <= 0 || src.Y <= 0 {
		return PasteLayout{}, fmt.Errorf("%w: 源图尺寸 %dx%d", ErrDecode, src.X, src.Y)
	}

	aw, ah := area.Width(), area.Height()
	scale := math.Min(float64(aw)/float64(src.X), float64(ah)/float64(src.Y))
	if scale > 1 && !opts.AllowUpscale {
		scale = 1
	}

	w := clampInt(int(math.Round(float64(src.X)*scale)), 1, aw)
	h := clampInt(int(math.Round(float64(src.Y)*scale)), 1, ah)

	x := area.TopLeft.X + int(math.Floor(opts.Align.Horizontal.offset(float64(aw), float64(w))))
	y := area.TopLeft.Y + int(math.Floor(opts.Align.Vertical.offset(float64(ah), float64(h))))

	return PasteLayout{
		Dest:  image.Rect(x, y, x+w, y+h),
		Scale: scale,
	}, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

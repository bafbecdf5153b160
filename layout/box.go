package layout

import (
	"encoding/json"
	"fmt"
	"image"
)

// Box 是底图坐标系中的矩形区域，由左上角与右下角确定。
type Box struct {
	TopLeft     image.Point
	BottomRight image.Point
}

// NewBox 校验右下角在两个方向上都严格大于左上角。
func NewBox(topLeft, bottomRight image.Point) (Box, error) {
	b := Box{TopLeft: topLeft, BottomRight: bottomRight}
	if err := b.Validate(); err != nil {
		return Box{}, err
	}
	return b, nil
}

// Validate 检查宽高为正。
func (b Box) Validate() error {
	if b.BottomRight.X <= b.TopLeft.X || b.BottomRight.Y <= b.TopLeft.Y {
		return fmt.Errorf("%w: %v-%v", ErrDegenerateBox, b.TopLeft, b.BottomRight)
	}
	return nil
}

func (b Box) Width() int  { return b.BottomRight.X - b.TopLeft.X }
func (b Box) Height() int { return b.BottomRight.Y - b.TopLeft.Y }

// Rect 返回对应的 image.Rectangle。
func (b Box) Rect() image.Rectangle {
	return image.Rectangle{Min: b.TopLeft, Max: b.BottomRight}
}

// Inset 四边各收缩 padding 像素；padding 为负或收缩后为空时返回 ErrDegenerateBox。
func (b Box) Inset(padding int) (Box, error) {
	if padding < 0 {
		return Box{}, fmt.Errorf("%w: padding %d 不能为负数", ErrDegenerateBox, padding)
	}
	in := Box{
		TopLeft:     b.TopLeft.Add(image.Pt(padding, padding)),
		BottomRight: b.BottomRight.Sub(image.Pt(padding, padding)),
	}
	if err := in.Validate(); err != nil {
		return Box{}, fmt.Errorf("padding %d 过大: %w", padding, err)
	}
	return in, nil
}

func (b Box) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", b.TopLeft.X, b.TopLeft.Y, b.BottomRight.X, b.BottomRight.Y)
}

// MarshalJSON 以 [x1, y1, x2, y2] 输出，便于调试 JSON 阅读。
func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{b.TopLeft.X, b.TopLeft.Y, b.BottomRight.X, b.BottomRight.Y})
}

package compose

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ByLCY/sketchbook/imageio"
	"github.com/ByLCY/sketchbook/layout"
)

// Canvas 是一次合成的工作区：底图、可选的覆盖层和当前结果。每次调用新建，用完即弃。
type Canvas struct {
	work    *image.NRGBA
	overlay image.Image
}

// NewCanvas 读入底图与覆盖层。覆盖层尺寸在解码像素之前就与底图比对。
func NewCanvas(base, overlay imageio.Input) (*Canvas, error) {
	baseBlob, err := base.Load()
	if err != nil {
		return nil, err
	}
	baseSize, err := baseBlob.Size()
	if err != nil {
		return nil, err
	}

	var overlayBlob imageio.Blob
	hasOverlay := !overlay.IsZero()
	if hasOverlay {
		if overlayBlob, err = overlay.Load(); err != nil {
			return nil, err
		}
		overlaySize, err := overlayBlob.Size()
		if err != nil {
			return nil, err
		}
		if overlaySize != baseSize {
			return nil, mismatch(baseSize, overlaySize)
		}
	}

	baseImg, err := baseBlob.Decode()
	if err != nil {
		return nil, err
	}
	c := &Canvas{work: imaging.Clone(baseImg)}
	if hasOverlay {
		img, err := overlayBlob.Decode()
		if err != nil {
			return nil, err
		}
		// EXIF 旋转可能让解码后的尺寸与头部信息不同。
		if got, want := img.Bounds().Size(), c.work.Bounds().Size(); got != want {
			return nil, mismatch(want, got)
		}
		c.overlay = img
	}
	return c, nil
}

func mismatch(base, overlay image.Point) error {
	return fmt.Errorf("%w: 底图 %dx%d，覆盖层 %dx%d", layout.ErrDimensionMismatch, base.X, base.Y, overlay.X, overlay.Y)
}

// Size 返回底图尺寸。
func (c *Canvas) Size() image.Point { return c.work.Bounds().Size() }

// Over 以 alpha "over" 方式把 layer 叠加到 at 处。
func (c *Canvas) Over(layer image.Image, at image.Point) {
	c.work = imaging.Overlay(c.work, layer, at, 1.0)
}

// Replace 用 layer 的像素直接替换 at 处的像素。
func (c *Canvas) Replace(layer image.Image, at image.Point) {
	c.work = imaging.Paste(c.work, layer, at)
}

// Image 返回叠加覆盖层之后的最终图像；覆盖层总在最上层。
func (c *Canvas) Image() image.Image {
	if c.overlay == nil {
		return c.work
	}
	return imaging.Overlay(c.work, c.overlay, image.Point{}, 1.0)
}

// Encode 输出 PNG 字节。
func (c *Canvas) Encode() ([]byte, error) {
	return imageio.EncodePNG(c.Image())
}

// flatten 把带透明度的图片铺在白底上，得到不透明的图片。
func flatten(img image.Image) *image.NRGBA {
	bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
	return imaging.Overlay(bg, img, image.Point{}, 1.0)
}

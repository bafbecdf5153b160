package compose

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/sketchbook/imageio"
	"github.com/ByLCY/sketchbook/layout"
	canvasrenderer "github.com/ByLCY/sketchbook/renderer/canvas"
)

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	red   = color.NRGBA{R: 255, A: 255}
)

func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return encode(t, img)
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func assertNear(t *testing.T, want, got color.NRGBA, tol int, msgAndArgs ...any) {
	t.Helper()
	near := func(a, b uint8) bool {
		d := int(a) - int(b)
		return d <= tol && d >= -tol
	}
	if !near(want.R, got.R) || !near(want.G, got.G) || !near(want.B, got.B) || !near(want.A, got.A) {
		assert.Fail(t, "color mismatch", "want %+v got %+v %v", want, got, msgAndArgs)
	}
}

func sketchbookBox(t *testing.T) layout.Box {
	t.Helper()
	box, err := layout.NewBox(image.Pt(119, 450), image.Pt(398, 625))
	require.NoError(t, err)
	return box
}

func newEngine(opts ...Option) *Engine {
	fonts := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Fallback: "goregular"})
	return New(fonts, append([]Option{WithFont(layout.FontResource{Src: "builtin:goregular"})}, opts...)...)
}

func TestRenderTextIsDeterministicAndStaysInBox(t *testing.T) {
	e := newEngine()
	req := TextRequest{
		Base: imageio.FromBytes(solidPNG(t, 500, 700, white)),
		Box:  sketchbookBox(t),
		Text: "hello 【sketchbook】 world",
	}
	a, err := e.RenderText(req)
	require.NoError(t, err)
	b, err := e.RenderText(req)
	require.NoError(t, err)
	assert.Equal(t, a, b, "相同输入应得到完全相同的 PNG")

	img := decode(t, a)
	assert.Equal(t, image.Rect(0, 0, 500, 700), img.Bounds())

	inner := req.Box.Rect().Inset(-2)
	drawn := 0
	for y := 0; y < 700; y++ {
		for x := 0; x < 500; x++ {
			c := nrgbaAt(img, x, y)
			if c == white {
				continue
			}
			require.True(t, image.Pt(x, y).In(inner), "文本框外的像素被修改: (%d,%d) %+v", x, y, c)
			drawn++
		}
	}
	assert.Positive(t, drawn)
}

func TestRenderTextConcurrent(t *testing.T) {
	e := newEngine()
	req := TextRequest{
		Base: imageio.FromBytes(solidPNG(t, 500, 700, white)),
		Box:  sketchbookBox(t),
		Text: "concurrent calls share nothing",
	}
	want, err := e.RenderText(req)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.RenderText(req)
		}(i)
	}
	wg.Wait()
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
	}
}

func TestRenderTextOverlayIsTopmost(t *testing.T) {
	overlay := image.NewNRGBA(image.Rect(0, 0, 500, 700))
	for y := 400; y < 700; y++ {
		for x := 0; x < 500; x++ {
			overlay.SetNRGBA(x, y, red)
		}
	}
	out, err := newEngine().RenderText(TextRequest{
		Base:    imageio.FromBytes(solidPNG(t, 500, 700, white)),
		Overlay: imageio.FromBytes(encode(t, overlay)),
		Box:     sketchbookBox(t),
		Text:    "hidden under the overlay",
	})
	require.NoError(t, err)

	img := decode(t, out)
	for y := 450; y < 625; y += 5 {
		for x := 119; x < 398; x += 5 {
			require.Equal(t, red, nrgbaAt(img, x, y))
		}
	}
	assert.Equal(t, white, nrgbaAt(img, 10, 10))
}

func TestDimensionMismatch(t *testing.T) {
	e := newEngine()
	base := imageio.FromBytes(solidPNG(t, 500, 700, white))
	overlay := imageio.FromBytes(solidPNG(t, 10, 10, white))

	_, err := e.RenderText(TextRequest{Base: base, Overlay: overlay, Box: sketchbookBox(t), Text: "x"})
	assert.True(t, errors.Is(err, layout.ErrDimensionMismatch), "got %v", err)

	_, err = e.PasteImage(PasteRequest{
		Base:    base,
		Overlay: overlay,
		Box:     sketchbookBox(t),
		Content: imageio.FromBytes(solidPNG(t, 4, 4, red)),
	})
	assert.True(t, errors.Is(err, layout.ErrDimensionMismatch), "got %v", err)
}

func TestLayoutTextNeedsNoImages(t *testing.T) {
	e := newEngine()
	fit, err := e.LayoutText(TextRequest{Box: sketchbookBox(t), Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, layout.DefaultMaxFontHeight, fit.FontSize)
	require.Len(t, fit.Lines, 1)

	tiny, err := layout.NewBox(image.Pt(0, 0), image.Pt(30, 10))
	require.NoError(t, err)
	_, err = e.LayoutText(TextRequest{Box: tiny, Text: "this will never fit into such a small box"})
	assert.True(t, errors.Is(err, layout.ErrLayoutOverflow), "got %v", err)

	_, err = e.LayoutText(TextRequest{Box: layout.Box{}, Text: "x"})
	assert.True(t, errors.Is(err, layout.ErrDegenerateBox), "got %v", err)
}

func TestPasteImageScenario(t *testing.T) {
	var debug *layout.Debug
	e := newEngine(WithDebugHook(func(d *layout.Debug) { debug = d }))
	out, err := e.PasteImage(PasteRequest{
		Base:    imageio.FromBytes(solidPNG(t, 500, 700, white)),
		Box:     sketchbookBox(t),
		Content: imageio.FromBytes(solidPNG(t, 1000, 500, blue)),
		Options: layout.PasteOptions{Align: layout.Centered, Padding: 12, AllowUpscale: true},
	})
	require.NoError(t, err)
	require.NotNil(t, debug)
	require.NotNil(t, debug.Paste)
	assert.Equal(t, image.Rect(131, 473, 386, 601), debug.Paste.Dest)

	img := decode(t, out)
	assertNear(t, blue, nrgbaAt(img, 250, 540), 1)
	assertNear(t, blue, nrgbaAt(img, 132, 474), 8)
	assert.Equal(t, white, nrgbaAt(img, 130, 540))
	assert.Equal(t, white, nrgbaAt(img, 250, 602))
	assert.Equal(t, white, nrgbaAt(img, 0, 0))
	assert.Equal(t, white, nrgbaAt(img, 499, 699))
}

// 半透明内容：KeepAlpha 时与底图混合，否则先铺白底再覆盖。
func TestPasteImageAlphaModes(t *testing.T) {
	translucent := color.NRGBA{R: 255, A: 128}
	req := PasteRequest{
		Base:    imageio.FromBytes(solidPNG(t, 200, 200, blue)),
		Box:     layout.Box{TopLeft: image.Pt(0, 0), BottomRight: image.Pt(200, 200)},
		Content: imageio.FromBytes(solidPNG(t, 100, 50, translucent)),
		Options: layout.PasteOptions{Align: layout.Centered},
	}
	e := newEngine()

	req.KeepAlpha = true
	out, err := e.PasteImage(req)
	require.NoError(t, err)
	assertNear(t, color.NRGBA{R: 128, B: 127, A: 255}, nrgbaAt(decode(t, out), 100, 100), 2, "keep alpha")

	req.KeepAlpha = false
	out, err = e.PasteImage(req)
	require.NoError(t, err)
	img := decode(t, out)
	assertNear(t, color.NRGBA{R: 255, G: 127, B: 127, A: 255}, nrgbaAt(img, 100, 100), 2, "flattened")
	assert.Equal(t, blue, nrgbaAt(img, 10, 10))
}

func TestPasteImageErrors(t *testing.T) {
	e := newEngine()
	base := imageio.FromBytes(solidPNG(t, 500, 700, white))

	_, err := e.PasteImage(PasteRequest{Base: base, Box: sketchbookBox(t), Content: imageio.FromBytes([]byte("garbage"))})
	assert.True(t, errors.Is(err, layout.ErrDecode), "got %v", err)

	_, err = e.PasteImage(PasteRequest{
		Base:    base,
		Box:     sketchbookBox(t),
		Content: imageio.FromBytes(solidPNG(t, 4, 4, red)),
		Options: layout.PasteOptions{Padding: 200},
	})
	assert.True(t, errors.Is(err, layout.ErrDegenerateBox), "got %v", err)
}

package canvasrenderer

import (
	"errors"
	"image"
	"io/fs"
	"math"
	"testing"

	"github.com/ByLCY/sketchbook/layout"
)

var goRegular = layout.FontResource{Name: "Body", Src: "builtin:goregular"}

func mustFace(t *testing.T, r *Renderer, font layout.FontResource) *Face {
	t.Helper()
	f, err := r.Face(font)
	if err != nil {
		t.Fatalf("加载字体失败: %v", err)
	}
	return f.(*Face)
}

func TestFaceMeasuresLinearlyInSize(t *testing.T) {
	f := mustFace(t, NewRenderer(""), goRegular)
	w20 := f.TextWidth("hello world", 20)
	w40 := f.TextWidth("hello world", 40)
	if w20 <= 0 {
		t.Fatalf("宽度应为正数: %g", w20)
	}
	if diff := math.Abs(w40 - 2*w20); diff > 1e-6*w40 {
		t.Fatalf("宽度未随字号线性变化: 20px=%g 40px=%g", w20, w40)
	}
	if h := f.LineHeight(20); h < 20 || h > 40 {
		t.Fatalf("20px 行高不合理: %g", h)
	}
}

func TestFaceIsCached(t *testing.T) {
	r := NewRenderer("")
	a := mustFace(t, r, goRegular)
	b := mustFace(t, r, layout.FontResource{Name: "Body", Src: "built-in:goregular"})
	if a != b {
		t.Fatalf("同一字体应复用缓存")
	}
}

func TestFaceLoadErrors(t *testing.T) {
	r := NewRendererWithOptions(Options{Fonts: map[string]Resource{"broken": {Bytes: []byte("not a font")}}})
	for _, font := range []layout.FontResource{
		{Src: "/definitely/missing/font.ttf"},
		{Src: "builtin:broken"},
		{Src: "builtin:nope"},
		{Name: "empty"},
	} {
		_, err := r.Face(font)
		if !errors.Is(err, layout.ErrFontLoad) {
			t.Fatalf("%+v: 期望 ErrFontLoad，实际 %v", font, err)
		}
		var fe *layout.FontLoadError
		if !errors.As(err, &fe) {
			t.Fatalf("%+v: 期望 *FontLoadError，实际 %T", font, err)
		}
	}

	// Resource.Path 读取失败的原因随 FontLoadError 一起返回。
	missing := NewRendererWithOptions(Options{Fonts: map[string]Resource{"custom": {Path: "/definitely/missing/custom.ttf"}}})
	_, err := missing.Face(layout.FontResource{Src: "builtin:custom"})
	if !errors.Is(err, layout.ErrFontLoad) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("期望 ErrFontLoad 且包含 fs.ErrNotExist，实际 %v", err)
	}

	withFallback := NewRendererWithOptions(Options{Fallback: "goregular"})
	f, err := withFallback.Face(layout.FontResource{Src: "/definitely/missing/font.ttf"})
	if err != nil {
		t.Fatalf("启用兜底字体后不应报错: %v", err)
	}
	if f.TextWidth("x", 20) <= 0 {
		t.Fatalf("兜底字体无法度量")
	}
}

// 第一行宽度与文本框宽度恰好相等且后面紧跟显式换行时，不应产生额外的空行。
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	f := mustFace(t, NewRenderer(""), goRegular)
	const size = 20
	first := "SAMPLE-A"
	width := int(math.Ceil(f.TextWidth(first, size)))

	box, err := layout.NewBox(image.Pt(0, 0), image.Pt(width, 1000))
	if err != nil {
		t.Fatalf("NewBox error: %v", err)
	}
	res, err := layout.FitText([]layout.StyledRun{{Text: first + "\nSAMPLE-B"}}, box, f, layout.FitOptions{MaxFontHeight: size, MinFontHeight: size})
	if err != nil {
		t.Fatalf("FitText error: %v", err)
	}
	if got := len(res.Lines); got != 2 {
		t.Fatalf("expected 2 lines without blank, got %d", got)
	}
	if res.Lines[0].Text() != first || res.Lines[1].Text() != "SAMPLE-B" {
		t.Fatalf("line mismatch: %q / %q", res.Lines[0].Text(), res.Lines[1].Text())
	}
}

// 真实字体下的排版同样满足宽高不变式。
func TestFitWithRealFontStaysInsideBox(t *testing.T) {
	f := mustFace(t, NewRenderer(""), goRegular)
	box, _ := layout.NewBox(image.Pt(119, 450), image.Pt(398, 625))
	text := "the quick brown fox jumps over the lazy dog and keeps running far away"
	res, err := layout.FitText([]layout.StyledRun{{Text: text}}, box, f, layout.DefaultFitOptions())
	if err != nil {
		t.Fatalf("FitText error: %v", err)
	}
	if res.Width > float64(box.Width()) || res.Height > float64(box.Height()) {
		t.Fatalf("排版超出文本框: %gx%g", res.Width, res.Height)
	}
	if len(res.Lines) < 2 {
		t.Fatalf("长句应当折行，实际 %d 行", len(res.Lines))
	}
}

func TestRasterizeDrawsInsideBoxWithPaletteColours(t *testing.T) {
	f := mustFace(t, NewRenderer(""), goRegular)
	box, _ := layout.NewBox(image.Pt(20, 20), image.Pt(180, 100))
	runs := []layout.StyledRun{{Text: "HH", Style: layout.StyleNormal}, {Text: "MM", Style: layout.StyleHighlight}}
	res, err := layout.FitText(runs, box, f, layout.FitOptions{MaxFontHeight: 48, MinFontHeight: 8})
	if err != nil {
		t.Fatalf("FitText error: %v", err)
	}
	palette := layout.Palette{Normal: layout.Black, Highlight: layout.Purple}
	img, err := f.Rasterize(image.Pt(200, 120), res, res.Place(box, layout.Centered), palette)
	if err != nil {
		t.Fatalf("Rasterize error: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 200, 120) {
		t.Fatalf("图层尺寸错误: %v", img.Bounds())
	}

	var black, purple int
	for y := 0; y < 120; y++ {
		for x := 0; x < 200; x++ {
			c := img.RGBAAt(x, y)
			if c.A == 0 {
				continue
			}
			if !image.Pt(x, y).In(box.Rect().Inset(-2)) {
				t.Fatalf("文本框外出现像素 (%d,%d): %+v", x, y, c)
			}
			if c.A == 255 && c.R < 10 && c.G < 10 && c.B < 10 {
				black++
			}
			if c.A == 255 && c.R > 100 && c.G < 30 && c.B > 100 {
				purple++
			}
		}
	}
	if black == 0 || purple == 0 {
		t.Fatalf("期望同时出现黑色与紫色像素: black=%d purple=%d", black, purple)
	}
}

func TestRasterizeRejectsMismatchedPlacements(t *testing.T) {
	f := mustFace(t, NewRenderer(""), goRegular)
	res := &layout.FitResult{FontSize: 10, Lines: []layout.LayoutLine{{}}}
	if _, err := f.Rasterize(image.Pt(10, 10), res, nil, layout.DefaultPalette); err == nil {
		t.Fatalf("位置数量不一致时应当报错")
	}
}

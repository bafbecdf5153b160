package canvasrenderer

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/sketchbook/fonts"
	"github.com/ByLCY/sketchbook/layout"
	"github.com/ByLCY/sketchbook/renderer"
)

// Renderer loads fonts through github.com/tdewolff/canvas and rasterizes text layers.
//
// 约定：画布按 1px = 1mm 建立，并以 DPMM(1) 栅格化；字号在与字体系统交互时换算为 pt。
type Renderer struct {
	baseDir  string
	fallback string
	logger   *slog.Logger

	// injected resources
	fontBlobs map[string][]byte // by unique name
	fontErrs  map[string]error  // Resource.Path 读取失败的原因，使用该字体时返回

	fontMu       sync.Mutex
	fontFamilies map[string]*Face
	fallbackFace *Face
}

var (
	_ renderer.FontLoader = (*Renderer)(nil)
	_ renderer.Face       = (*Face)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // fonts accessible via builtin:<name>, shadowing the fonts package
	// Fallback 是字体加载失败时改用的内置字体名；为空时直接返回 FontLoadError。
	Fallback string
	Logger   *slog.Logger
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a renderer rooted at baseDir for resolving font paths.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		fallback:     opts.Fallback,
		logger:       opts.Logger,
		fontBlobs:    map[string][]byte{},
		fontErrs:     map[string]error{},
		fontFamilies: map[string]*Face{},
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, err := os.ReadFile(res.Path)
			switch {
			case err != nil:
				r.fontErrs[name] = fmt.Errorf("读取字体资源 %s 失败: %w", res.Path, err)
			case len(data) == 0:
				r.fontErrs[name] = fmt.Errorf("字体资源 %s 为空", res.Path)
			default:
				r.fontBlobs[name] = data
			}
		}
	}
	return r
}

// Face 返回（并缓存）font 对应的字体。
func (r *Renderer) Face(font layout.FontResource) (renderer.Face, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if f, ok := r.fontFamilies[key]; ok {
		return f, nil
	}

	style := parseFontStyle(font.Style)
	family := canvas.NewFontFamily(familyName(font))
	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		loadErr := &layout.FontLoadError{Font: fontLabel(font), Err: err}
		if r.fallback == "" {
			return nil, loadErr
		}
		fb, fbErr := r.fallbackLocked()
		if fbErr != nil {
			return nil, loadErr
		}
		r.logger.Warn("字体加载失败，改用内置字体", "font", fontLabel(font), "fallback", r.fallback, "err", err)
		r.fontFamilies[key] = fb
		return fb, nil
	}

	f := newFace(family, style)
	r.fontFamilies[key] = f
	return f, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	if font.Src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	src := fonts.Trim(font.Src)
	if fonts.IsBuiltin(src) {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "builtin:"), "embed:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		if err, ok := r.fontErrs[name]; ok {
			return nil, err
		}
		return fonts.Load(name)
	}
	path := src
	if r.baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// fallbackLocked 需要在持有 fontMu 时调用。
func (r *Renderer) fallbackLocked() (*Face, error) {
	if r.fallbackFace != nil {
		return r.fallbackFace, nil
	}
	data, ok := r.fontBlobs[r.fallback]
	if !ok {
		var err error
		if data, err = fonts.Load(r.fallback); err != nil {
			return nil, err
		}
	}
	family := canvas.NewFontFamily("sketchbook-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	r.fallbackFace = newFace(family, canvas.FontRegular)
	return r.fallbackFace, nil
}

// Face 是一个已加载的字体族，按像素字号度量和绘制文本。
type Face struct {
	family *canvas.FontFamily
	style  canvas.FontStyle

	mu     sync.Mutex
	bySize map[float64]*canvas.FontFace // 仅用于度量的黑色字体面
}

func newFace(family *canvas.FontFamily, style canvas.FontStyle) *Face {
	return &Face{family: family, style: style, bySize: map[float64]*canvas.FontFace{}}
}

// TextWidth 返回 text 在 size 像素字号下的宽度（像素）。
func (f *Face) TextWidth(text string, size float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.measureFace(size).TextWidth(text)
}

// LineHeight 返回 size 像素字号下一行的高度（上升部 + 下降部 + 行间隙）。
func (f *Face) LineHeight(size float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h := f.measureFace(size).Metrics().LineHeight; h > 0 {
		return h
	}
	return size
}

// Rasterize 绘制一个与底图同尺寸的透明文本图层。
func (f *Face) Rasterize(size image.Point, fit *layout.FitResult, placements []layout.Placement, palette layout.Palette) (*image.RGBA, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("图层尺寸无效: %v", size)
	}
	if fit == nil {
		return nil, fmt.Errorf("排版结果为空")
	}
	if len(placements) != len(fit.Lines) {
		return nil, fmt.Errorf("行数 %d 与位置数 %d 不一致", len(fit.Lines), len(placements))
	}

	c := canvas.New(float64(size.X), float64(size.Y))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 左上角为原点，与底图像素坐标一致

	f.mu.Lock()
	defer f.mu.Unlock()

	px := float64(fit.FontSize)
	ascent := f.measureFace(px).Metrics().Ascent
	faces := map[layout.Style]*canvas.FontFace{}
	faceOf := func(s layout.Style) *canvas.FontFace {
		if face, ok := faces[s]; ok {
			return face
		}
		face := f.family.Face(toPt(px), colorFromLayout(palette.ColorOf(s)), f.style, canvas.FontNormal)
		faces[s] = face
		return face
	}

	for i, line := range fit.Lines {
		x := placements[i].X
		baseline := placements[i].Y + ascent
		for _, frag := range line.Fragments {
			if strings.TrimSpace(frag.Text) != "" {
				ctx.DrawText(x, baseline, canvas.NewTextLine(faceOf(frag.Style), frag.Text, canvas.Left))
			}
			x += frag.Width
		}
	}
	return rasterizer.Draw(c, canvas.DPMM(1), canvas.DefaultColorSpace), nil
}

// measureFace 需要在持有 mu 时调用。
func (f *Face) measureFace(size float64) *canvas.FontFace {
	if face, ok := f.bySize[size]; ok {
		return face
	}
	face := f.family.Face(toPt(size), canvas.Black, f.style, canvas.FontNormal)
	f.bySize[size] = face
	return face
}

func familyName(font layout.FontResource) string {
	if font.Name != "" {
		return font.Name
	}
	return "Body"
}

func fontLabel(font layout.FontResource) string {
	if font.Name != "" && font.Name != font.Src {
		return fmt.Sprintf("%s (%s)", font.Name, font.Src)
	}
	return font.Src
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	var result canvas.FontStyle
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	default:
		result = canvas.FontRegular
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, fonts.Trim(font.Src), font.Style)
}

func colorFromLayout(c layout.Color) color.Color { return c.ToColor() }

// toPt 将像素（按毫米处理）转换为点(pt)。
func toPt(px float64) float64 { return px * layout.MmToPt }

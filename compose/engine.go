// Package compose 把排好的文本或缩放后的图片合成到底图上，输出 PNG。
package compose

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/ByLCY/sketchbook/imageio"
	"github.com/ByLCY/sketchbook/layout"
	"github.com/ByLCY/sketchbook/markup"
	"github.com/ByLCY/sketchbook/renderer"
)

// Engine 持有不可变的合成配置。方法之间不共享可变状态，可并发调用。
type Engine struct {
	fonts   renderer.FontLoader
	logger  *slog.Logger
	font    layout.FontResource
	palette layout.Palette
	fit     layout.FitOptions
	align   layout.Alignment
	parser  *markup.Parser
	debug   func(*layout.Debug)
}

// Option 配置 Engine。
type Option func(*Engine)

// WithLogger 设置日志输出，默认丢弃。
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithFont 设置请求未指定字体时使用的字体。
func WithFont(font layout.FontResource) Option {
	return func(e *Engine) { e.font = font }
}

// WithPalette 设置默认的正文/强调颜色。
func WithPalette(p layout.Palette) Option {
	return func(e *Engine) { e.palette = p }
}

// WithFitOptions 设置字号搜索范围与行距。
func WithFitOptions(o layout.FitOptions) Option {
	return func(e *Engine) { e.fit = o }
}

// WithTextAlign 设置文本在框内的对齐方式，默认水平、垂直居中。
func WithTextAlign(a layout.Alignment) Option {
	return func(e *Engine) { e.align = a }
}

// WithMarkup 替换强调括号解析器。
func WithMarkup(p *markup.Parser) Option {
	return func(e *Engine) {
		if p != nil {
			e.parser = p
		}
	}
}

// WithDebugHook 在每次合成后回调排版信息，用于输出调试 JSON。
func WithDebugHook(fn func(*layout.Debug)) Option {
	return func(e *Engine) { e.debug = fn }
}

// New 创建合成引擎。fonts 负责加载字体，文本模式必需。
func New(fonts renderer.FontLoader, opts ...Option) *Engine {
	e := &Engine{
		fonts:   fonts,
		logger:  slog.New(slog.DiscardHandler),
		palette: layout.DefaultPalette,
		fit:     layout.DefaultFitOptions(),
		align:   layout.Centered,
		parser:  markup.MustNewParser(markup.DefaultOpen, markup.DefaultClose),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TextRequest 描述一次文本合成。零值字段使用 Engine 的默认配置。
type TextRequest struct {
	Base    imageio.Input
	Overlay imageio.Input // 零值表示不叠加覆盖层
	Box     layout.Box
	Text    string

	Font          layout.FontResource
	Palette       *layout.Palette
	MaxFontHeight int
	Align         *layout.Alignment
}

// PasteRequest 描述一次图片贴入。
type PasteRequest struct {
	Base    imageio.Input
	Overlay imageio.Input
	Box     layout.Box
	Content imageio.Input
	Options layout.PasteOptions
	// KeepAlpha 为 true 时按透明度混合；否则先铺白底再整体覆盖框内像素。
	KeepAlpha bool
}

// LayoutText 只做解析与字号搜索，不读取任何图片。
func (e *Engine) LayoutText(req TextRequest) (*layout.FitResult, error) {
	fit, _, _, err := e.layoutText(req)
	return fit, err
}

func (e *Engine) layoutText(req TextRequest) (*layout.FitResult, []layout.StyledRun, renderer.Face, error) {
	if err := req.Box.Validate(); err != nil {
		return nil, nil, nil, err
	}
	if e.fonts == nil {
		return nil, nil, nil, errors.New("compose: 未配置字体加载器")
	}
	runs, err := e.parser.Parse(req.Text)
	if err != nil {
		return nil, nil, nil, err
	}
	font := req.Font
	if font.Src == "" {
		font = e.font
	}
	face, err := e.fonts.Face(font)
	if err != nil {
		return nil, nil, nil, err
	}
	opts := e.fit
	if req.MaxFontHeight > 0 {
		opts.MaxFontHeight = req.MaxFontHeight
	}
	fit, err := layout.FitText(runs, req.Box, face, opts)
	if err != nil {
		return nil, runs, face, fmt.Errorf("排版 %q 失败: %w", markup.Plain(runs), err)
	}
	return fit, runs, face, nil
}

// RenderText 在底图的文本框内自适应绘制文本，返回 PNG 字节。
func (e *Engine) RenderText(req TextRequest) ([]byte, error) {
	fit, runs, face, err := e.layoutText(req)
	if err != nil {
		return nil, err
	}
	c, err := NewCanvas(req.Base, req.Overlay)
	if err != nil {
		return nil, err
	}

	align := e.align
	if req.Align != nil {
		align = *req.Align
	}
	palette := e.palette
	if req.Palette != nil {
		palette = *req.Palette
	}
	placements := fit.Place(req.Box, align)
	e.logger.Debug("文本排版完成",
		"box", req.Box.String(),
		"fontSize", fit.FontSize,
		"lines", len(fit.Lines),
		"width", fit.Width,
		"height", fit.Height,
	)

	if len(fit.Lines) > 0 {
		layer, err := face.Rasterize(c.Size(), fit, placements, palette)
		if err != nil {
			return nil, fmt.Errorf("绘制文本失败: %w", err)
		}
		c.Over(layer, layer.Bounds().Min)
	}
	if e.debug != nil {
		e.debug(&layout.Debug{Box: req.Box, Runs: runs, Text: fit, Placements: placements})
	}
	return c.Encode()
}

// PasteImage 把 Content 等比缩放后贴入底图的框内，返回 PNG 字节。
func (e *Engine) PasteImage(req PasteRequest) ([]byte, error) {
	if _, err := req.Box.Inset(req.Options.Padding); err != nil {
		return nil, err
	}
	c, err := NewCanvas(req.Base, req.Overlay)
	if err != nil {
		return nil, err
	}
	content, err := imageio.Decode(req.Content)
	if err != nil {
		return nil, err
	}
	pl, err := layout.FitImage(req.Box, content.Bounds().Size(), req.Options)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("贴图排版完成",
		"box", req.Box.String(),
		"source", req.Content.Source(),
		"dest", pl.Dest.String(),
		"scale", pl.Scale,
		"keepAlpha", req.KeepAlpha,
	)

	scaled := imaging.Resize(content, pl.Dest.Dx(), pl.Dest.Dy(), imaging.Lanczos)
	if req.KeepAlpha {
		c.Over(scaled, pl.Dest.Min)
	} else {
		c.Replace(flatten(scaled), pl.Dest.Min)
	}
	if e.debug != nil {
		e.debug(&layout.Debug{Box: req.Box, Paste: &pl})
	}
	return c.Encode()
}

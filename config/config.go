// Package config 读取素描本的配置文件（TOML、YAML 或 JSON），并换算成各组件的选项。
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/sketchbook/binding"
	"github.com/ByLCY/sketchbook/fonts"
	"github.com/ByLCY/sketchbook/layout"
	"github.com/ByLCY/sketchbook/markup"
)

// Config 是配置文件的完整结构。路径相对于配置文件所在目录。
type Config struct {
	Font         layout.FontResource `toml:"font" yaml:"font" json:"font"`
	FontFallback string              `toml:"font_fallback" yaml:"font_fallback" json:"fontFallback"`

	Base       string            `toml:"base" yaml:"base" json:"base"`
	Keywords   []binding.Keyword `toml:"keywords" yaml:"keywords" json:"keywords"`
	Overlay    string            `toml:"overlay" yaml:"overlay" json:"overlay"`
	UseOverlay bool              `toml:"use_overlay" yaml:"use_overlay" json:"useOverlay"`

	Box   Box   `toml:"box" yaml:"box" json:"box"`
	Text  Text  `toml:"text" yaml:"text" json:"text"`
	Paste Paste `toml:"paste" yaml:"paste" json:"paste"`

	dir string
}

// Box 是文本框（同时用作贴图框）的两个角，单位像素。
type Box struct {
	TopLeft     []int `toml:"top_left" yaml:"top_left" json:"topLeft"`
	BottomRight []int `toml:"bottom_right" yaml:"bottom_right" json:"bottomRight"`
}

// Text 配置文本模式。
type Text struct {
	Color         string `toml:"color" yaml:"color" json:"color"`
	Highlight     string `toml:"highlight" yaml:"highlight" json:"highlight"`
	MaxFontHeight int    `toml:"max_font_height" yaml:"max_font_height" json:"maxFontHeight"`
	MinFontHeight int    `toml:"min_font_height" yaml:"min_font_height" json:"minFontHeight"`
	LineSpacing   string `toml:"line_spacing" yaml:"line_spacing" json:"lineSpacing"` // "0.15x" 或 "4px"
	Align         string `toml:"align" yaml:"align" json:"align"`
	VAlign        string `toml:"valign" yaml:"valign" json:"valign"`
	Open          string `toml:"open" yaml:"open" json:"open"`
	Close         string `toml:"close" yaml:"close" json:"close"`
}

// Paste 配置贴图模式。
type Paste struct {
	Align        string `toml:"align" yaml:"align" json:"align"`
	VAlign       string `toml:"valign" yaml:"valign" json:"valign"`
	Padding      int    `toml:"padding" yaml:"padding" json:"padding"`
	AllowUpscale bool   `toml:"allow_upscale" yaml:"allow_upscale" json:"allowUpscale"`
	KeepAlpha    bool   `toml:"keep_alpha" yaml:"keep_alpha" json:"keepAlpha"`
}

// Default 返回与桌面版一致的默认配置。
func Default() *Config {
	return &Config{
		Font:         layout.FontResource{Name: "Body", Src: "font.ttf"},
		Base:         "BaseImages/base.png",
		Keywords: []binding.Keyword{
			{Tag: "#普通#", Path: "BaseImages/base.png"},
			{Tag: "#开心#", Path: "BaseImages/开心.png"},
			{Tag: "#生气#", Path: "BaseImages/生气.png"},
			{Tag: "#无语#", Path: "BaseImages/无语.png"},
			{Tag: "#脸红#", Path: "BaseImages/脸红.png"},
			{Tag: "#病娇#", Path: "BaseImages/病娇.png"},
		},
		Overlay:    "BaseImages/base_overlay.png",
		UseOverlay: true,
		Box: Box{
			TopLeft:     []int{119, 450},
			BottomRight: []int{119 + 279, 450 + 175},
		},
		Text: Text{
			Color:         layout.Black.Hex(),
			Highlight:     layout.Purple.Hex(),
			MaxFontHeight: layout.DefaultMaxFontHeight,
			MinFontHeight: layout.DefaultMinFontHeight,
			LineSpacing:   fmt.Sprintf("%gx", layout.DefaultLineSpacing),
			Align:         "center",
			VAlign:        "middle",
			Open:          markup.DefaultOpen,
			Close:         markup.DefaultClose,
		},
		Paste: Paste{
			Align:        "center",
			VAlign:       "middle",
			Padding:      layout.DefaultPadding,
			AllowUpscale: true,
			KeepAlpha:    true,
		},
	}
}

// Load 在默认配置之上读取 path，按扩展名选择格式。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置 %s 失败: %w", path, err)
	}
	cfg := Default()
	// 关键字列表整体替换而不是追加；文件未配置时沿用默认列表。
	defaults := cfg.Keywords
	cfg.Keywords = nil
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("不支持的配置格式 %q（可用 .toml/.yaml/.json）", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("解析配置 %s 失败: %w", path, err)
	}
	if cfg.Keywords == nil {
		cfg.Keywords = defaults
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.SetDir(filepath.Dir(abs))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置 %s 无效: %w", path, err)
	}
	return cfg, nil
}

// SetDir 设置解析相对路径的目录。
func (c *Config) SetDir(dir string) { c.dir = dir }

// Dir 返回解析相对路径的目录，未设置时为空（即当前目录）。
func (c *Config) Dir() string { return c.dir }

// Validate 汇总所有配置错误。
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.TextBox(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Palette(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.FitOptions(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.TextAlign(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.PasteOptions(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Markup(); err != nil {
		errs = append(errs, err)
	}
	if c.Base == "" {
		errs = append(errs, errors.New("缺少底图 base"))
	}
	if c.UseOverlay && c.Overlay == "" {
		errs = append(errs, errors.New("启用了覆盖层但没有配置 overlay"))
	}
	for i, kw := range c.Keywords {
		if kw.Tag == "" || kw.Path == "" {
			errs = append(errs, fmt.Errorf("keywords[%d] 缺少 tag 或 path", i))
		}
	}
	return errors.Join(errs...)
}

// Resolve 把配置中的路径转换为可直接打开的路径。兼容 Windows 风格的反斜杠。
func (c *Config) Resolve(p string) string {
	if p == "" || fonts.IsBuiltin(p) {
		return p
	}
	p = filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
	if filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// FontResource 返回路径已解析的字体。
func (c *Config) FontResource() layout.FontResource {
	f := c.Font
	f.Src = c.Resolve(f.Src)
	return f
}

// BasePath 返回默认底图路径。
func (c *Config) BasePath() string { return c.Resolve(c.Base) }

// OverlayPath 返回覆盖层路径；未启用时为空。
func (c *Config) OverlayPath() string {
	if !c.UseOverlay {
		return ""
	}
	return c.Resolve(c.Overlay)
}

// ResolvedKeywords 返回路径已解析的关键字列表，保持配置顺序。
func (c *Config) ResolvedKeywords() []binding.Keyword {
	out := make([]binding.Keyword, len(c.Keywords))
	for i, kw := range c.Keywords {
		out[i] = binding.Keyword{Tag: kw.Tag, Path: c.Resolve(kw.Path)}
	}
	return out
}

// TextBox 返回文本框。
func (c *Config) TextBox() (layout.Box, error) {
	if len(c.Box.TopLeft) != 2 || len(c.Box.BottomRight) != 2 {
		return layout.Box{}, fmt.Errorf("box 的 top_left/bottom_right 必须是 [x, y]")
	}
	return layout.NewBox(
		image.Pt(c.Box.TopLeft[0], c.Box.TopLeft[1]),
		image.Pt(c.Box.BottomRight[0], c.Box.BottomRight[1]),
	)
}

// Palette 返回正文与强调颜色。
func (c *Config) Palette() (layout.Palette, error) {
	normal, err := layout.ParseColor(c.Text.Color)
	if err != nil {
		return layout.Palette{}, fmt.Errorf("text.color: %w", err)
	}
	hl, err := layout.ParseColor(c.Text.Highlight)
	if err != nil {
		return layout.Palette{}, fmt.Errorf("text.highlight: %w", err)
	}
	return layout.Palette{Normal: normal, Highlight: hl}, nil
}

// FitOptions 返回字号搜索参数。
func (c *Config) FitOptions() (layout.FitOptions, error) {
	opts := layout.DefaultFitOptions()
	if c.Text.MaxFontHeight < 0 || c.Text.MinFontHeight < 0 {
		return opts, fmt.Errorf("字号不能为负数")
	}
	if c.Text.MaxFontHeight > 0 {
		opts.MaxFontHeight = c.Text.MaxFontHeight
	}
	if c.Text.MinFontHeight > 0 {
		opts.MinFontHeight = c.Text.MinFontHeight
	}
	if c.Text.LineSpacing != "" {
		s, err := layout.ParseSpacing(c.Text.LineSpacing)
		if err != nil {
			return opts, fmt.Errorf("text.line_spacing: %w", err)
		}
		opts.LineSpacing = s
	}
	return opts, nil
}

// TextAlign 返回文本对齐方式。
func (c *Config) TextAlign() (layout.Alignment, error) {
	return parseAlignment(c.Text.Align, c.Text.VAlign)
}

// PasteOptions 返回贴图参数。
func (c *Config) PasteOptions() (layout.PasteOptions, error) {
	align, err := parseAlignment(c.Paste.Align, c.Paste.VAlign)
	if err != nil {
		return layout.PasteOptions{}, fmt.Errorf("paste: %w", err)
	}
	if c.Paste.Padding < 0 {
		return layout.PasteOptions{}, fmt.Errorf("paste.padding 不能为负数: %d", c.Paste.Padding)
	}
	return layout.PasteOptions{Align: align, Padding: c.Paste.Padding, AllowUpscale: c.Paste.AllowUpscale}, nil
}

// Markup 返回配置的强调括号解析器。
func (c *Config) Markup() (*markup.Parser, error) {
	open, close := c.Text.Open, c.Text.Close
	if open == "" {
		open = markup.DefaultOpen
	}
	if close == "" {
		close = markup.DefaultClose
	}
	return markup.NewParser(open, close)
}

func parseAlignment(h, v string) (layout.Alignment, error) {
	ha, err := layout.ParseAlign(h)
	if err != nil {
		return layout.Alignment{}, err
	}
	va, err := layout.ParseAlign(v)
	if err != nil {
		return layout.Alignment{}, err
	}
	return layout.Alignment{Horizontal: ha, Vertical: va}, nil
}

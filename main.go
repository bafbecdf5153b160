package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/muesli/termenv"

	"github.com/ByLCY/sketchbook/binding"
	"github.com/ByLCY/sketchbook/compose"
	"github.com/ByLCY/sketchbook/config"
	"github.com/ByLCY/sketchbook/imageio"
	"github.com/ByLCY/sketchbook/layout"
	canvasrenderer "github.com/ByLCY/sketchbook/renderer/canvas"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（.toml/.yaml/.json），为空时使用内置默认配置")
	text := flag.String("text", "", "要绘制的文本，\"-\" 表示从标准输入读取")
	imagePath := flag.String("image", "", "要贴入的图片路径，优先于 -text")
	base := flag.String("base", "", "显式指定底图关键字，例如 开心 或 #开心#")
	noOverlay := flag.Bool("no-overlay", false, "不叠加覆盖层")
	output := flag.String("out", "output/sketchbook.png", "PNG 输出路径")
	debug := flag.String("debug", "", "排版调试 JSON 输出路径")
	listBases := flag.Bool("list-bases", false, "列出可用的底图关键字后退出")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	stdout := termenv.NewOutput(os.Stdout)
	stderr := termenv.NewOutput(os.Stderr)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(stderr, "读取配置失败", err)
	}
	if *listBases {
		listKeywords(stdout, cfg)
		return
	}

	j := job{
		text:      *text,
		imagePath: *imagePath,
		base:      *base,
		noOverlay: *noOverlay,
		output:    *output,
		debug:     *debug,
	}
	if j.text == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatal(stderr, "读取标准输入失败", err)
		}
		j.text = string(data)
	}
	if err := run(cfg, j, logger); err != nil {
		fatal(stderr, "生成图片失败", err)
	}
	fmt.Fprintln(os.Stdout, stdout.String("已生成图片："+j.output).Foreground(termenv.ANSIGreen))
}

func fatal(out *termenv.Output, msg string, err error) {
	fmt.Fprintln(os.Stderr, out.String(fmt.Sprintf("%s: %v", msg, err)).Foreground(termenv.ANSIRed))
	os.Exit(1)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func listKeywords(out *termenv.Output, cfg *config.Config) {
	fmt.Fprintf(os.Stdout, "%s %s\n", out.String("默认").Bold(), cfg.BasePath())
	for _, kw := range cfg.ResolvedKeywords() {
		fmt.Fprintf(os.Stdout, "%s %s\n", out.String(kw.Tag).Foreground(termenv.ANSIMagenta), kw.Path)
	}
}

// job 是一次命令行调用的参数。
type job struct {
	text      string
	imagePath string
	base      string
	noOverlay bool
	output    string
	debug     string
}

// run 串联关键字选择、排版与合成。
func run(cfg *config.Config, j job, logger *slog.Logger) error {
	text := strings.TrimSpace(j.text)
	if text == "" && j.imagePath == "" {
		return errors.New("必须提供 -text 或 -image 之一")
	}

	keywords := cfg.ResolvedKeywords()
	basePath := cfg.BasePath()
	if j.base != "" {
		p, ok := binding.Lookup(j.base, keywords)
		if !ok {
			return fmt.Errorf("未知的底图关键字 %q", j.base)
		}
		basePath = p
	} else {
		m := binding.Select(text, keywords, basePath)
		basePath, text = m.Path, m.Text
		if m.Matched {
			logger.Debug("根据关键字切换底图", "tag", m.Tag, "base", m.Path)
		}
	}
	for _, tag := range binding.Unknown(text, keywords) {
		logger.Warn("文本中包含未配置的关键字", "tag", tag)
	}

	var overlay imageio.Input
	if p := cfg.OverlayPath(); p != "" && !j.noOverlay {
		overlay = imageio.FromPath(p)
	}
	box, err := cfg.TextBox()
	if err != nil {
		return err
	}

	var dbg *layout.Debug
	engine, err := newEngine(cfg, logger, func(d *layout.Debug) { dbg = d })
	if err != nil {
		return err
	}

	var png []byte
	if j.imagePath != "" {
		opts, err := cfg.PasteOptions()
		if err != nil {
			return err
		}
		png, err = engine.PasteImage(compose.PasteRequest{
			Base:      imageio.FromPath(basePath),
			Overlay:   overlay,
			Box:       box,
			Content:   imageio.FromPath(j.imagePath),
			Options:   opts,
			KeepAlpha: cfg.Paste.KeepAlpha,
		})
		if err != nil {
			return fmt.Errorf("贴入图片 %s 失败: %w", j.imagePath, err)
		}
	} else {
		png, err = engine.RenderText(compose.TextRequest{
			Base:    imageio.FromPath(basePath),
			Overlay: overlay,
			Box:     box,
			Text:    text,
		})
		if err != nil {
			return fmt.Errorf("绘制文本失败: %w", err)
		}
	}

	if j.debug != "" {
		if err := writeDebug(dbg, j.debug); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(j.output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(j.output, png, 0o644); err != nil {
		return fmt.Errorf("写入图片失败: %w", err)
	}
	logger.Debug("写入图片", "path", j.output, "bytes", len(png), "base", basePath)
	return nil
}

func newEngine(cfg *config.Config, logger *slog.Logger, hook func(*layout.Debug)) (*compose.Engine, error) {
	palette, err := cfg.Palette()
	if err != nil {
		return nil, err
	}
	fit, err := cfg.FitOptions()
	if err != nil {
		return nil, err
	}
	align, err := cfg.TextAlign()
	if err != nil {
		return nil, err
	}
	parser, err := cfg.Markup()
	if err != nil {
		return nil, err
	}
	fonts := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir:  cfg.Dir(),
		Fallback: cfg.FontFallback,
		Logger:   logger,
	})
	return compose.New(fonts,
		compose.WithLogger(logger),
		compose.WithFont(cfg.FontResource()),
		compose.WithPalette(palette),
		compose.WithFitOptions(fit),
		compose.WithTextAlign(align),
		compose.WithMarkup(parser),
		compose.WithDebugHook(hook),
	), nil
}

func writeDebug(d *layout.Debug, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(d, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

package layout

import (
	"errors"
	"fmt"
)

// 错误分类。所有失败都以这些哨兵错误（或包装它们的类型）返回，调用方用 errors.Is 判断。
var (
	// ErrLayoutOverflow 文本在最小字号下仍放不进文本框。
	ErrLayoutOverflow = errors.New("文本在最小字号下仍无法放入文本框")
	// ErrDegenerateBox 文本框（扣除内边距后）宽或高不为正，属于配置错误。
	ErrDegenerateBox = errors.New("文本框的可用区域为空")
	// ErrDimensionMismatch 覆盖层与底图尺寸不一致。
	ErrDimensionMismatch = errors.New("覆盖层尺寸与底图不一致")
	// ErrFontLoad 字体缺失或损坏。
	ErrFontLoad = errors.New("字体加载失败")
	// ErrDecode 图片字节无法解码。
	ErrDecode = errors.New("图片解码失败")
)

// DecodeError 携带底层编解码器的错误信息。
type DecodeError struct {
	Source string // 路径或 "<bytes>"
	Format string // 嗅探到的 MIME 类型，未知时为空
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("解码图片 %s (%s) 失败: %v", e.Source, e.Format, e.Err)
	}
	return fmt.Sprintf("解码图片 %s 失败: %v", e.Source, e.Err)
}

// Unwrap 同时暴露 ErrDecode 与底层错误。
func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// FontLoadError 携带字体来源与底层错误。
type FontLoadError struct {
	Font string
	Err  error
}

func (e *FontLoadError) Error() string {
	return fmt.Sprintf("加载字体 %s 失败: %v", e.Font, e.Err)
}

func (e *FontLoadError) Unwrap() []error { return []error{ErrFontLoad, e.Err} }

// Package imageio 是图片编解码的边界：调用方传入的路径或字节在这里被读入、嗅探并解码，
// 合成结果在这里编码为 PNG。
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/sketchbook/layout"
)

// Input 是图片来源：文件路径或内存字节，二者择一。Bytes 非空时优先使用。
type Input struct {
	Path  string
	Bytes []byte
}

// FromPath 以文件路径构造 Input。
func FromPath(path string) Input { return Input{Path: path} }

// FromBytes 以内存字节构造 Input。
func FromBytes(data []byte) Input { return Input{Bytes: data} }

// IsZero 表示未提供任何来源。
func (in Input) IsZero() bool { return in.Path == "" && len(in.Bytes) == 0 }

// Source 返回用于日志与错误信息的来源描述。
func (in Input) Source() string {
	if len(in.Bytes) > 0 || in.Path == "" {
		return "<bytes>"
	}
	return in.Path
}

// Blob 是已读入内存的图片字节。
type Blob struct {
	Source string
	Data   []byte
}

// Load 读取 Input，路径只在这里访问一次。读取失败同样按解码失败报告。
func (in Input) Load() (Blob, error) {
	if len(in.Bytes) > 0 {
		return Blob{Source: in.Source(), Data: in.Bytes}, nil
	}
	if in.Path == "" {
		return Blob{}, &layout.DecodeError{Source: in.Source(), Err: errors.New("没有提供图片")}
	}
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return Blob{}, &layout.DecodeError{Source: in.Path, Err: err}
	}
	return Blob{Source: in.Path, Data: data}, nil
}

// Format 返回嗅探到的 MIME 类型，无法识别时为空字符串。
func (b Blob) Format() string {
	kind, err := filetype.Match(b.Data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}

// Config 只解析图片头部，返回尺寸与颜色模型。
func (b Blob) Config() (image.Config, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b.Data))
	if err != nil {
		return image.Config{}, b.decodeError(err)
	}
	return cfg, nil
}

// Size 返回图片宽高。
func (b Blob) Size() (image.Point, error) {
	cfg, err := b.Config()
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

// Decode 解码整张图片，并按 EXIF 方向旋转。
func (b Blob) Decode() (image.Image, error) {
	if len(b.Data) == 0 {
		return nil, b.decodeError(errors.New("图片内容为空"))
	}
	img, err := imaging.Decode(bytes.NewReader(b.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, b.decodeError(err)
	}
	if r := img.Bounds(); r.Dx() <= 0 || r.Dy() <= 0 {
		return nil, b.decodeError(fmt.Errorf("图片尺寸为空: %v", r.Size()))
	}
	return img, nil
}

func (b Blob) decodeError(err error) error {
	return &layout.DecodeError{Source: b.Source, Format: b.Format(), Err: err}
}

// Decode 读取并解码 in。
func Decode(in Input) (image.Image, error) {
	blob, err := in.Load()
	if err != nil {
		return nil, err
	}
	return blob.Decode()
}

// EncodePNG 使用默认压缩级别编码为 PNG，同样的输入总是得到同样的字节。
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// Package fonts 提供随程序分发的内置字体，找不到字体文件时作为兜底。
package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-fonts/latin-modern/lmsans10regular"
	"golang.org/x/image/font/gofont/goregular"
)

var builtin = map[string][]byte{
	"goregular": goregular.TTF,
	"lmsans10":  lmsans10regular.TTF,
	"lmroman10": lmroman10regular.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "builtin:goregular"、"embed:goregular" 或直接 "goregular"。
func Load(name string) ([]byte, error) {
	key := strings.TrimPrefix(strings.TrimPrefix(Trim(name), "embed:"), "builtin:")
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("找不到内置字体 %s（可用: %s）", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// IsBuiltin 判断 src 是否指向内置字体而非文件路径。
func IsBuiltin(src string) bool {
	src = Trim(src)
	return strings.HasPrefix(src, "builtin:") || strings.HasPrefix(src, "embed:")
}

// Trim 统一 "built-in:" 写法。
func Trim(src string) string {
	if rest, ok := strings.CutPrefix(src, "built-in:"); ok {
		return "builtin:" + rest
	}
	return src
}

// Names 返回按字母排序的内置字体名称。
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package binding 处理聊天文本里的底图关键字，例如 "#开心#今天也好【开心】"。
package binding

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`#[^#\s]+#`)

// Keyword 把一个关键字绑定到一张底图。
type Keyword struct {
	Tag  string `json:"tag" toml:"tag" yaml:"tag"`
	Path string `json:"path" toml:"path" yaml:"path"`
}

// Match 是关键字选择的结果。
type Match struct {
	Path    string // 选中的底图
	Tag     string // 命中的关键字，未命中时为空
	Text    string // 去掉关键字并修剪首尾空白后的文本
	Matched bool
}

// Select 按 keywords 的顺序查找第一个出现在 text 中的关键字：
// 命中时返回其底图，并删除文本中该关键字的所有出现；否则返回 fallback。
// 无论是否命中，返回的文本都去掉首尾空白。
func Select(text string, keywords []Keyword, fallback string) Match {
	for _, kw := range keywords {
		if kw.Tag == "" || !strings.Contains(text, kw.Tag) {
			continue
		}
		return Match{
			Path:    kw.Path,
			Tag:     kw.Tag,
			Text:    strings.TrimSpace(strings.ReplaceAll(text, kw.Tag, "")),
			Matched: true,
		}
	}
	return Match{Path: fallback, Text: strings.TrimSpace(text)}
}

// Lookup 按关键字精确查找底图，供显式指定底图时使用。
func Lookup(tag string, keywords []Keyword) (string, bool) {
	for _, kw := range keywords {
		if kw.Tag == tag || strings.Trim(kw.Tag, "#") == tag {
			return kw.Path, true
		}
	}
	return "", false
}

// Tags 列出文本中所有 #xxx# 形式的标记（按出现顺序，不去重）。
func Tags(text string) []string {
	return tagPattern.FindAllString(text, -1)
}

// Unknown 返回 text 中出现但未配置的 #xxx# 标记，便于调用方提示拼写错误。
func Unknown(text string, keywords []Keyword) []string {
	known := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		known[kw.Tag] = struct{}{}
	}
	var out []string
	for _, tag := range Tags(text) {
		if _, ok := known[tag]; !ok {
			out = append(out, tag)
		}
	}
	return out
}

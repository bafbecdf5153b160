// Package markup 解析聊天文本里的强调括号，例如 "你好【安安】"，
// 输出带颜色标记的 StyledRun 序列。
//
// 规则：
//   - 未闭合的开括号：从括号起到结尾整体作为强调文本；
//   - 强调文本内部再出现开括号：按普通字符保留在当前片段中（不支持嵌套）；
//   - 强调文本之外的孤立闭括号：按普通字符保留。
//
// 任何输入都不会解析失败。
package markup

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/sketchbook/layout"
)

// 默认使用全角方括号。
const (
	DefaultOpen  = "【"
	DefaultClose = "】"
)

// Document is the root AST node of a marked-up line of chat text.
type Document struct {
	Segments []*Segment `parser:"@@*"`
}

// Segment is either a bracketed highlight or a piece of plain text.
type Segment struct {
	Highlight *Highlight `parser:"  @@"`
	Plain     *string    `parser:"| @(Text | Close)"`
}

// Highlight captures everything after an opener. Closed is false when the
// input ended before a closer was found.
type Highlight struct {
	Parts  []string `parser:"Open @(Text | Open)*"`
	Closed bool     `parser:"@Close?"`
}

// Parser 是针对一对括号构建的解析器，可并发使用。
type Parser struct {
	open, close string
	parser      *participle.Parser[Document]
}

var defaultParser = MustNewParser(DefaultOpen, DefaultClose)

// NewParser 为给定的开/闭括号构建词法与语法。
func NewParser(open, close string) (*Parser, error) {
	if open == "" || close == "" || open == close {
		return nil, fmt.Errorf("markup: 括号设置无效 %q %q", open, close)
	}
	// 规则按顺序匹配：括号优先，其次是不含括号首字符的文本，
	// 最后单个字符兜底（首字符相同但并非完整括号的情况）。
	lex, err := lexer.New(lexer.Rules{
		"Root": {
			{Name: "Open", Pattern: regexp.QuoteMeta(open)},
			{Name: "Close", Pattern: regexp.QuoteMeta(close)},
			{Name: "Text", Pattern: `(?s)[^` + classEscape(firstRune(open)) + classEscape(firstRune(close)) + `]+|(?s).`},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("markup: 构建词法失败: %w", err)
	}
	p, err := participle.Build[Document](participle.Lexer(lex))
	if err != nil {
		return nil, fmt.Errorf("markup: 构建语法失败: %w", err)
	}
	return &Parser{open: open, close: close, parser: p}, nil
}

// MustNewParser is like NewParser but panics on error.
func MustNewParser(open, close string) *Parser {
	p, err := NewParser(open, close)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse 使用默认的【】括号解析。
func Parse(text string) ([]layout.StyledRun, error) {
	return defaultParser.Parse(text)
}

// Parse 返回合并后的片段：相邻同样式片段合并，空片段丢弃。
func (p *Parser) Parse(text string) ([]layout.StyledRun, error) {
	if text == "" {
		return nil, nil
	}
	doc, err := p.parser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("markup: 解析失败: %w", err)
	}
	var b runBuilder
	for _, seg := range doc.Segments {
		switch {
		case seg.Highlight != nil:
			b.write(strings.Join(seg.Highlight.Parts, ""), layout.StyleHighlight)
		case seg.Plain != nil:
			b.write(*seg.Plain, layout.StyleNormal)
		}
	}
	return b.runs, nil
}

// Format 把片段重新序列化为带括号的文本。
func (p *Parser) Format(runs []layout.StyledRun) string {
	var sb strings.Builder
	for _, r := range runs {
		if r.Style == layout.StyleHighlight {
			sb.WriteString(p.open)
			sb.WriteString(r.Text)
			sb.WriteString(p.close)
			continue
		}
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Format 使用默认括号序列化。
func Format(runs []layout.StyledRun) string { return defaultParser.Format(runs) }

// Plain 拼接所有片段的文本（不含括号）。
func Plain(runs []layout.StyledRun) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func classEscape(r rune) string {
	switch r {
	case '\\', ']', '[', '^', '-':
		return `\` + string(r)
	}
	return string(r)
}

type runBuilder struct {
	runs []layout.StyledRun
}

func (b *runBuilder) write(text string, style layout.Style) {
	if text == "" {
		return
	}
	if n := len(b.runs); n > 0 && b.runs[n-1].Style == style {
		b.runs[n-1].Text += text
		return
	}
	b.runs = append(b.runs, layout.StyledRun{Text: text, Style: style})
}

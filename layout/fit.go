package layout

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// FitText 从 MaxFontHeight 开始逐级减小字号，返回第一个（即最大的）能让
// 全部文本在 box 内完成折行的排版结果。
//
// 折行是贪心的：按测量宽度逐个追加 token，放不下就换行。无空格的 CJK 文本
// 每个字符都是一个 token；比整行还宽的单词按字符拆开。这是启发式而非最优
// 折行，对短句足够。
func FitText(runs []StyledRun, box Box, m Measurer, opts FitOptions) (*FitResult, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("layout: 缺少字体度量 Measurer")
	}
	opts = opts.normalized()
	minSize := opts.MinFontHeight
	if minSize > opts.MaxFontHeight {
		minSize = opts.MaxFontHeight
	}

	tokens := tokenizeRuns(runs)
	if len(tokens) == 0 {
		size := float64(opts.MaxFontHeight)
		return &FitResult{FontSize: opts.MaxFontHeight, LineHeight: m.LineHeight(size)}, nil
	}

	limitW, limitH := float64(box.Width()), float64(box.Height())
	for size := opts.MaxFontHeight; size >= minSize; size-- {
		res, ok := layoutAt(tokens, float64(size), limitW, m, opts.LineSpacing)
		if !ok || res.Height > limitH {
			continue
		}
		res.FontSize = size
		return res, nil
	}
	return nil, fmt.Errorf("%w: 字号下限 %dpx，文本框 %dx%d", ErrLayoutOverflow, minSize, box.Width(), box.Height())
}

// Place 按对齐方式计算每一行左上角的位置：整块文本在 box 内垂直对齐，
// 每一行各自水平对齐。
func (f *FitResult) Place(box Box, align Alignment) []Placement {
	if f == nil || len(f.Lines) == 0 {
		return nil
	}
	boxW, boxH := float64(box.Width()), float64(box.Height())
	y := float64(box.TopLeft.Y) + align.Vertical.offset(boxH, f.Height)
	out := make([]Placement, 0, len(f.Lines))
	for _, line := range f.Lines {
		y += line.GapBefore
		x := float64(box.TopLeft.X) + align.Horizontal.offset(boxW, line.Width)
		out = append(out, Placement{X: x, Y: y})
		y += line.Height
	}
	return out
}

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenSpace
	tokenNewline
)

type token struct {
	text  string
	style Style
	kind  tokenKind
}

// tokenizeRuns 把样式片段切成 token：空白串、单词、每个全角字符、显式换行。
// token 不会跨越 StyledRun 的边界。
func tokenizeRuns(runs []StyledRun) []token {
	var tokens []token
	for _, run := range runs {
		var builder strings.Builder
		lastWasSpace := false
		flush := func() {
			if builder.Len() == 0 {
				return
			}
			kind := tokenWord
			if lastWasSpace {
				kind = tokenSpace
			}
			tokens = append(tokens, token{text: builder.String(), style: run.Style, kind: kind})
			builder.Reset()
		}
		for _, r := range run.Text {
			switch {
			case r == '\r':
				continue
			case r == '\n':
				flush()
				tokens = append(tokens, token{text: "\n", style: run.Style, kind: tokenNewline})
				continue
			case isWide(r):
				flush()
				tokens = append(tokens, token{text: string(r), style: run.Style, kind: tokenWord})
				continue
			}
			isSpace := unicode.IsSpace(r)
			if builder.Len() > 0 && lastWasSpace != isSpace {
				flush()
			}
			lastWasSpace = isSpace
			builder.WriteRune(r)
		}
		flush()
	}
	return tokens
}

// isWide 判断东亚宽字符（汉字、假名、全角标点等），它们之间处处可断行。
func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}

type piece struct {
	text  string
	style Style
	width float64
	space bool
}

// lineBuilder 收集当前行的 token，输出时去掉行尾空白并按样式合并成片段。
type lineBuilder struct {
	pieces []piece
	width  float64
}

func (b *lineBuilder) empty() bool { return len(b.pieces) == 0 }

func (b *lineBuilder) add(p piece) {
	b.pieces = append(b.pieces, p)
	b.width += p.width
}

func (b *lineBuilder) take() LayoutLine {
	pieces := b.pieces
	for len(pieces) > 0 && pieces[len(pieces)-1].space {
		pieces = pieces[:len(pieces)-1]
	}
	var line LayoutLine
	for _, p := range pieces {
		if n := len(line.Fragments); n > 0 && line.Fragments[n-1].Style == p.style {
			line.Fragments[n-1].Text += p.text
			line.Fragments[n-1].Width += p.width
		} else {
			line.Fragments = append(line.Fragments, Fragment{Text: p.text, Style: p.style, Width: p.width})
		}
		line.Width += p.width
	}
	b.pieces = nil
	b.width = 0
	return line
}

// layoutAt 在固定字号下做贪心折行。单个字符就比行宽还宽时返回 false。
func layoutAt(tokens []token, size, limit float64, m Measurer, spacing Spacing) (*FitResult, bool) {
	var (
		lines     []LayoutLine
		cur       lineBuilder
		softStart bool // 当前行由自动换行产生，行首空白应丢弃
	)
	emit := func(soft bool) {
		lines = append(lines, cur.take())
		softStart = soft
	}

	for _, tk := range tokens {
		switch tk.kind {
		case tokenNewline:
			emit(false)
			continue
		case tokenSpace:
			if cur.empty() && softStart {
				continue
			}
			w := m.TextWidth(tk.text, size)
			if cur.width+w > limit {
				if !cur.empty() {
					emit(true)
				}
				continue
			}
			cur.add(piece{text: tk.text, style: tk.style, width: w, space: true})
			continue
		}

		w := m.TextWidth(tk.text, size)
		if !cur.empty() && cur.width+w > limit {
			emit(true)
		}
		if w <= limit {
			cur.add(piece{text: tk.text, style: tk.style, width: w})
			softStart = false
			continue
		}

		// 单词比整行还宽：逐字符拆分。
		for _, r := range tk.text {
			s := string(r)
			cw := m.TextWidth(s, size)
			if cw > limit {
				return nil, false
			}
			if !cur.empty() && cur.width+cw > limit {
				emit(true)
			}
			cur.add(piece{text: s, style: tk.style, width: cw})
			softStart = false
		}
	}
	if !cur.empty() {
		emit(false)
	}

	lineHeight := m.LineHeight(size)
	gap := spacing.Resolve(size)
	res := &FitResult{LineHeight: lineHeight, Lines: lines}
	for i := range res.Lines {
		res.Lines[i].Height = lineHeight
		if i > 0 {
			res.Lines[i].GapBefore = gap
		}
		res.Height += res.Lines[i].GapBefore + res.Lines[i].Height
		if res.Lines[i].Width > res.Width {
			res.Width = res.Lines[i].Width
		}
	}
	return res, true
}

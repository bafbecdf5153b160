package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var keywords = []Keyword{
	{Tag: "#普通#", Path: "BaseImages/base.png"},
	{Tag: "#开心#", Path: "BaseImages/开心.png"},
	{Tag: "#生气#", Path: "BaseImages/生气.png"},
}

func TestSelect(t *testing.T) {
	m := Select("  #开心#今天也很好#开心#  ", keywords, "BaseImages/base.png")
	assert.True(t, m.Matched)
	assert.Equal(t, "BaseImages/开心.png", m.Path)
	assert.Equal(t, "#开心#", m.Tag)
	assert.Equal(t, "今天也很好", m.Text)

	// 配置顺序优先，而不是文本中出现的顺序。
	m = Select("#生气##开心#哼", keywords, "fallback.png")
	assert.Equal(t, "BaseImages/开心.png", m.Path)
	assert.Equal(t, "#生气#哼", m.Text)

	m = Select(" 没有关键字 ", keywords, "fallback.png")
	assert.False(t, m.Matched)
	assert.Equal(t, "fallback.png", m.Path)
	assert.Equal(t, "没有关键字", m.Text)
}

func TestLookupAndTags(t *testing.T) {
	p, ok := Lookup("生气", keywords)
	assert.True(t, ok)
	assert.Equal(t, "BaseImages/生气.png", p)

	_, ok = Lookup("#无语#", keywords)
	assert.False(t, ok)

	assert.Equal(t, []string{"#开心#", "#无语#"}, Tags("#开心#a #无语# b"))
	assert.Equal(t, []string{"#无语#"}, Unknown("#开心#a #无语# b", keywords))
	assert.Empty(t, Tags("# 不是标记 #"))
}

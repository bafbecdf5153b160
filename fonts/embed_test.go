package fonts

import "testing"

func TestLoadBuiltinFonts(t *testing.T) {
	for _, name := range Names() {
		for _, src := range []string{name, "builtin:" + name, "built-in:" + name, "embed:" + name} {
			data, err := Load(src)
			if err != nil {
				t.Fatalf("加载 %s 失败: %v", src, err)
			}
			if len(data) < 1024 {
				t.Fatalf("%s 字体数据过小: %d", src, len(data))
			}
		}
	}
	if _, err := Load("builtin:missing"); err == nil {
		t.Fatalf("不存在的内置字体应当报错")
	}
}

func TestIsBuiltin(t *testing.T) {
	cases := map[string]bool{
		"builtin:goregular":  true,
		"built-in:goregular": true,
		"embed:lmsans10":     true,
		"font.ttf":           false,
		"/abs/font.ttf":      false,
	}
	for src, want := range cases {
		if got := IsBuiltin(src); got != want {
			t.Fatalf("IsBuiltin(%q) = %v, want %v", src, got, want)
		}
	}
}

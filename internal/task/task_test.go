package task_test

import (
	"testing"

	"srcfmt/internal/task"
)

func TestNewFileTask_Kind(t *testing.T) {
	shaders := map[string]struct{}{"hlsl": {}, "ankiprog": {}}
	cases := []struct {
		path string
		want task.Kind
	}{
		{"AnKi/Core/App.cpp", task.KindRegular},
		{"AnKi/Shaders/Blit.hlsl", task.KindShader},
		{"AnKi/Shaders/Ssao.ankiprog", task.KindShader},
		{"AnKi/Shaders/Include/Common.h", task.KindRegular},
		{"AnKi/Shaders/Legacy.glsl", task.KindRegular},
		{`AnKi\Shaders\Win.hlsl`, task.KindShader},
	}
	for _, tc := range cases {
		if got := task.NewFileTask(tc.path, shaders).Kind; got != tc.want {
			t.Fatalf("%s: kind %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestExt(t *testing.T) {
	cases := map[string]string{
		"a/b.cpp":      "cpp",
		"a.b/c":        "",
		`a.b\c`:        "",
		"noext":        "",
		"x.tar.hlsl":   "hlsl",
		"trailing.":    "",
		"dir/.profile": "profile",
	}
	for in, want := range cases {
		if got := task.Ext(in); got != want {
			t.Fatalf("Ext(%q) = %q, want %q", in, got, want)
		}
	}
}

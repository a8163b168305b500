package discover_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"srcfmt/internal/discover"
	"srcfmt/internal/task"
)

func touch(t *testing.T, base string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		path := filepath.Join(base, filepath.FromSlash(r))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("int x;\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func options(base string, roots ...string) discover.Options {
	return discover.Options{
		Base:             base,
		Roots:            roots,
		Extensions:       map[string]struct{}{"h": {}, "cpp": {}, "glsl": {}, "hlsl": {}, "ankiprog": {}},
		ShaderExtensions: map[string]struct{}{"hlsl": {}, "ankiprog": {}},
	}
}

func relPaths(t *testing.T, base string, tasks []task.FileTask) []string {
	t.Helper()
	out := make([]string, len(tasks))
	for i, ft := range tasks {
		rel, err := filepath.Rel(base, ft.Path)
		if err != nil {
			t.Fatalf("rel: %v", err)
		}
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestDiscover_RecursiveMixedExtensions(t *testing.T) {
	base := t.TempDir()
	touch(t, base,
		"AnKi/Core/App.cpp",
		"AnKi/Core/App.h",
		"AnKi/Shaders/Blit.hlsl",
		"AnKi/Shaders/Deep/Nested/Ssao.ankiprog",
		"AnKi/Shaders/Old.glsl",
		"AnKi/README.md",
		"AnKi/Core/App.cpp.orig",
	)

	tasks, err := discover.Discover(context.Background(), options(base, "AnKi"))
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	got := relPaths(t, base, tasks)
	want := []string{
		"AnKi/Core/App.cpp",
		"AnKi/Core/App.h",
		"AnKi/Shaders/Blit.hlsl",
		"AnKi/Shaders/Deep/Nested/Ssao.ankiprog",
		"AnKi/Shaders/Old.glsl",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("task %d: got %s, want %s", i, got[i], want[i])
		}
	}
	kinds := map[string]task.Kind{}
	for i, ft := range tasks {
		kinds[got[i]] = ft.Kind
	}
	if kinds["AnKi/Shaders/Blit.hlsl"] != task.KindShader || kinds["AnKi/Shaders/Deep/Nested/Ssao.ankiprog"] != task.KindShader {
		t.Fatal("shader extensions not classified as shaders")
	}
	if kinds["AnKi/Shaders/Old.glsl"] != task.KindRegular {
		t.Fatal("glsl must be regular")
	}
}

func TestDiscover_SkipsHiddenEntries(t *testing.T) {
	base := t.TempDir()
	touch(t, base, "Tools/.cache/gen.cpp", "Tools/.hidden.h", "Tools/visible.h")
	tasks, err := discover.Discover(context.Background(), options(base, "Tools"))
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	got := relPaths(t, base, tasks)
	if len(got) != 1 || got[0] != "Tools/visible.h" {
		t.Fatalf("got %v, want only Tools/visible.h", got)
	}
}

func TestDiscover_MissingRootContributesNothing(t *testing.T) {
	base := t.TempDir()
	touch(t, base, "Tests/a.cpp")
	tasks, err := discover.Discover(context.Background(), options(base, "AnKi", "Tests", "Samples"))
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
}

func TestDiscover_RootThatIsAFile(t *testing.T) {
	base := t.TempDir()
	touch(t, base, "Sandbox")
	tasks, err := discover.Discover(context.Background(), options(base, "Sandbox"))
	if err != nil || len(tasks) != 0 {
		t.Fatalf("tasks=%d err=%v, want none", len(tasks), err)
	}
}

func TestDiscover_UnreadableRootFails(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	base := t.TempDir()
	touch(t, base, "AnKi/Locked/a.cpp")
	locked := filepath.Join(base, "AnKi", "Locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := discover.Discover(context.Background(), options(base, "AnKi"))
	var derr *discover.Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected *discover.Error, got %v", err)
	}
	if derr.Root != "AnKi" {
		t.Fatalf("error root %q, want AnKi", derr.Root)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestDiscover_OverlappingRootsKeepDuplicates(t *testing.T) {
	base := t.TempDir()
	touch(t, base, "AnKi/Shaders/Blit.hlsl")
	tasks, err := discover.Discover(context.Background(), options(base, "AnKi", "AnKi/Shaders"))
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Path != tasks[1].Path {
		t.Fatalf("expected the same file twice, got %v", tasks)
	}
}

func TestDiscover_CancelledContext(t *testing.T) {
	base := t.TempDir()
	touch(t, base, "AnKi/a.cpp")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := discover.Discover(ctx, options(base, "AnKi")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDiscover_FollowsSymlinks(t *testing.T) {
	base := t.TempDir()
	touch(t, base, "Shared/Common.h", "Shared/Inc/Math.hlsl", "AnKi/Core/App.cpp")
	links := map[string]string{
		"AnKi/Common.h": filepath.Join(base, "Shared", "Common.h"),
		"AnKi/Inc":      filepath.Join(base, "Shared", "Inc"),
		"AnKi/Loop":     filepath.Join(base, "AnKi"),
		"AnKi/Broken.h": filepath.Join(base, "Missing.h"),
	}
	for rel, target := range links {
		if err := os.Symlink(target, filepath.Join(base, filepath.FromSlash(rel))); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}
	}

	tasks, err := discover.Discover(context.Background(), options(base, "AnKi"))
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	got := relPaths(t, base, tasks)
	want := []string{"AnKi/Common.h", "AnKi/Core/App.cpp", "AnKi/Inc/Math.hlsl"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("task %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if tasks[2].Kind != task.KindShader {
		t.Fatal("linked shader not classified as a shader")
	}
}

package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"srcfmt/internal/dispatch"
	"srcfmt/internal/task"
)

func newTestModel(paths ...string) *progressModel {
	tasks := make([]task.FileTask, len(paths))
	for i, p := range paths {
		tasks[i] = task.NewFileTask(p, map[string]struct{}{"hlsl": {}})
	}
	return NewProgressModel("formatting", tasks, make(chan dispatch.Event)).(*progressModel)
}

func TestProgressModel_Events(t *testing.T) {
	m := newTestModel("a.cpp", "b.hlsl", "c.h")

	m.applyEvent(dispatch.Event{File: "b.hlsl", Stage: dispatch.StageMask, Status: dispatch.StatusWorking})
	if m.items[1].status != "mask" || len(m.active) != 1 {
		t.Fatalf("working event not applied: %+v active=%v", m.items[1], m.active)
	}
	m.applyEvent(dispatch.Event{File: "b.hlsl", Status: dispatch.StatusDone})
	m.applyEvent(dispatch.Event{File: "a.cpp", Status: dispatch.StatusError})
	m.applyEvent(dispatch.Event{File: "unknown.cpp", Status: dispatch.StatusDone})

	if m.done != 1 || m.failed != 1 || len(m.active) != 0 {
		t.Fatalf("done=%d failed=%d active=%v", m.done, m.failed, m.active)
	}
	view := m.View()
	if !strings.Contains(view, "formatting 2/3 (1 failed)") {
		t.Fatalf("unexpected header:\n%s", view)
	}
	if !strings.Contains(view, "a.cpp") {
		t.Fatalf("failed file not listed:\n%s", view)
	}
}

func TestProgressModel_DuplicatePaths(t *testing.T) {
	m := newTestModel("x.hlsl", "x.hlsl")
	m.applyEvent(dispatch.Event{File: "x.hlsl", Status: dispatch.StatusDone})
	m.applyEvent(dispatch.Event{File: "x.hlsl", Status: dispatch.StatusDone})
	if !m.items[0].final || !m.items[1].final || m.done != 2 {
		t.Fatalf("duplicate rows not both finished: %+v", m.items)
	}
}

func TestProgressModel_DuplicatePathsInFlight(t *testing.T) {
	m := newTestModel("x.hlsl", "x.hlsl")
	m.applyEvent(dispatch.Event{File: "x.hlsl", Worker: 1, Stage: dispatch.StageMask, Status: dispatch.StatusWorking})
	m.applyEvent(dispatch.Event{File: "x.hlsl", Worker: 2, Stage: dispatch.StageMask, Status: dispatch.StatusWorking})
	if len(m.active) != 2 {
		t.Fatalf("both in-flight duplicates should be active, got %v", m.active)
	}
	m.applyEvent(dispatch.Event{File: "x.hlsl", Worker: 2, Stage: dispatch.StageFormat, Status: dispatch.StatusWorking})
	if m.items[0].status != "mask" || m.items[1].status != "format" {
		t.Fatalf("stage landed on the wrong row: %+v", m.items)
	}
	m.applyEvent(dispatch.Event{File: "x.hlsl", Worker: 2, Status: dispatch.StatusError})
	if m.items[0].final || !m.items[1].final || len(m.active) != 1 || m.active[0] != 0 {
		t.Fatalf("worker 2 finish should close its own row: %+v active=%v", m.items, m.active)
	}
	m.applyEvent(dispatch.Event{File: "x.hlsl", Worker: 1, Status: dispatch.StatusDone})
	if m.done != 1 || m.failed != 1 || len(m.active) != 0 {
		t.Fatalf("done=%d failed=%d active=%v", m.done, m.failed, m.active)
	}
}

func TestProgressModel_DoneAndInterrupt(t *testing.T) {
	m := newTestModel("a.cpp")
	if _, cmd := m.Update(doneMsg{}); cmd == nil || !m.closed {
		t.Fatal("done message should close and quit")
	}

	m = newTestModel("a.cpp")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.Interrupted() {
		t.Fatal("ctrl+c should mark the model interrupted")
	}
}

func TestProgressModel_RowLimit(t *testing.T) {
	paths := make([]string, 40)
	for i := range paths {
		paths[i] = strings.Repeat("d/", i) + "f.cpp"
	}
	m := newTestModel(paths...)
	for _, p := range paths {
		m.applyEvent(dispatch.Event{File: p, Stage: dispatch.StageFormat, Status: dispatch.StatusWorking})
	}
	if rows := m.visibleRows(); len(rows) != maxRows {
		t.Fatalf("visible rows %d, want %d", len(rows), maxRows)
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName(fileItem{path: "s.hlsl", kind: task.KindShader}); got != "s.hlsl [hlsl]" {
		t.Fatalf("shader display name %q", got)
	}
	if got := displayName(fileItem{path: "a.cpp"}); got != "a.cpp" {
		t.Fatalf("regular display name %q", got)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"short.cpp", 20, "short.cpp"},
		{"AnKi/Renderer/Deep/File.cpp", 12, ".../File.cpp"},
		{"abcdef", 3, "abc"},
		{"anything", 0, "anything"},
	}
	for _, tc := range cases {
		got := truncate(tc.in, tc.width)
		if got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
	wide := truncate("Shaders/日本語/ファイル.hlsl", 10)
	if runewidth.StringWidth(wide) > 10 || !strings.HasPrefix(wide, "...") {
		t.Fatalf("wide truncate %q", wide)
	}
}

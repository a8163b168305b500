package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"srcfmt/internal/config"
	"srcfmt/internal/driver"
	"srcfmt/internal/task"
	"srcfmt/internal/trace"
)

func TestReadUIMode(t *testing.T) {
	cases := map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, " on ": uiModeOn, "off": uiModeOff}
	for in, want := range cases {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := readUIMode("fancy"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if shouldUseTUI(uiModeOn, "json") {
		t.Fatal("json output must never start the progress view")
	}
}

func textCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	return cmd, &out, &errOut
}

func TestRenderRunText_Success(t *testing.T) {
	cmd, out, _ := textCommand()
	summary := &driver.Summary{
		Files:   3,
		Changed: 1,
		Results: []driver.FileResult{
			{Path: "AnKi/b.cpp"},
			{Path: "AnKi/a.hlsl", Kind: task.KindShader, Changed: true},
			{Path: "AnKi/c.h"},
		},
	}
	if err := renderRunText(cmd, summary, nil, runOptions{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "reformatted AnKi/a.hlsl\nDone! Formatted 3 files\n"
	if out.String() != want {
		t.Fatalf("output:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestRenderRunText_CheckFailsOnChanges(t *testing.T) {
	cmd, out, _ := textCommand()
	summary := &driver.Summary{Files: 1, Changed: 1, DryRun: true, Results: []driver.FileResult{{Path: "a.cpp", Changed: true}}}
	err := renderRunText(cmd, summary, nil, runOptions{check: true, dryRun: true})
	if err == nil {
		t.Fatal("expected --check to fail")
	}
	if !strings.Contains(out.String(), "would reformat a.cpp") {
		t.Fatalf("output %q", out.String())
	}
}

func TestRenderRunText_FileFailure(t *testing.T) {
	cmd, out, errOut := textCommand()
	fail := errors.New("formatter exited with status 1")
	summary := &driver.Summary{Files: 2, Failed: 1, Results: []driver.FileResult{{Path: "a.cpp", Err: fail}, {Path: "b.cpp"}}}
	err := renderRunText(cmd, summary, fail, runOptions{})
	if !errors.Is(err, errReported) {
		t.Fatalf("expected errReported, got %v", err)
	}
	if strings.Contains(out.String(), "Done!") {
		t.Fatal("summary line printed for a failed run")
	}
	if !strings.Contains(errOut.String(), "a.cpp: formatter exited with status 1") {
		t.Fatalf("stderr %q", errOut.String())
	}
}

func TestRenderRunText_SetupFailure(t *testing.T) {
	cmd, out, _ := textCommand()
	setup := errors.New("unsupported platform")
	if err := renderRunText(cmd, &driver.Summary{}, setup, runOptions{}); !errors.Is(err, setup) {
		t.Fatalf("expected setup error returned as is, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, "", "init", "-C", dir, "--color", "off"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := config.Load(filepath.Join(dir, config.FileName)); err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if _, err := execute(t, "", "init", "-C", dir, "--color", "off"); err == nil {
		t.Fatal("second init must refuse to overwrite")
	}
}

func TestMaskCommand(t *testing.T) {
	dir := t.TempDir()
	src := "float4 pos : SV_POSITION;\n"
	out, err := execute(t, src, "mask", "-C", dir, "--color", "off")
	if err != nil {
		t.Fatalf("mask: %v", err)
	}
	if out != "float4 pos __SV_POSITION;\n" {
		t.Fatalf("mask output %q", out)
	}

	path := filepath.Join(dir, "masked.hlsl")
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	restored, err := execute(t, "", "unmask", "-C", dir, "--color", "off", path)
	if err != nil {
		t.Fatalf("unmask: %v", err)
	}
	if restored != src {
		t.Fatalf("unmask output %q", restored)
	}
}

func projectTree(t *testing.T) (root, sub string) {
	t.Helper()
	root = t.TempDir()
	sub = filepath.Join(root, "AnKi", "Shaders")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, config.FileName), []byte("[discover]\nroots = [\"AnKi\"]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a.cpp"), []byte("int a;\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return root, sub
}

func TestResolveProject_FromSubdirectory(t *testing.T) {
	root, sub := projectTree(t)
	base, cfg, err := resolveProject(sub, false, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if base != root {
		t.Fatalf("base %q, want manifest directory %q", base, root)
	}
	if len(cfg.Discover.Roots) != 1 || cfg.Discover.Roots[0] != "AnKi" {
		t.Fatalf("roots %v", cfg.Discover.Roots)
	}

	base, _, err = resolveProject(sub, true, "")
	if err != nil {
		t.Fatalf("resolve with chdir: %v", err)
	}
	if base != sub {
		t.Fatalf("--chdir base %q, want %q", base, sub)
	}
}

func TestListCommand_FromSubdirectory(t *testing.T) {
	_, sub := projectTree(t)
	t.Chdir(sub)
	out, err := execute(t, "", "list", "--chdir=", "--config=", "--color", "off")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "AnKi/Shaders/a.cpp") {
		t.Fatalf("list output %q", out)
	}
}

func TestStartSession_ClosesTracerOnFlagError(t *testing.T) {
	cmd := &cobra.Command{Use: "bare"}
	pf := cmd.PersistentFlags()
	pf.String("trace", filepath.Join(t.TempDir(), "run.trace"), "")
	pf.String("trace-level", "phase", "")
	pf.String("trace-mode", "stream", "")
	pf.Int("trace-ring-size", 16, "")
	cmd.SetContext(context.Background())

	if _, err := startSession(cmd); err == nil {
		t.Fatal("expected missing trace-heartbeat flag to fail")
	}
	tracer := trace.FromContext(cmd.Context())
	if err := tracer.Close(); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("trace file left open: second close returned %v", err)
	}
}

package report_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"srcfmt/internal/driver"
	"srcfmt/internal/observ"
	"srcfmt/internal/report"
	"srcfmt/internal/task"
)

func sampleSummary() *driver.Summary {
	return &driver.Summary{
		Discovered: 3,
		Files:      3,
		Shaders:    1,
		Changed:    1,
		Failed:     1,
		Workers:    2,
		Results: []driver.FileResult{
			{Path: "AnKi/z.cpp", Kind: task.KindRegular, Worker: 1, Elapsed: 2 * time.Millisecond},
			{Path: "AnKi/a.hlsl", Kind: task.KindShader, Changed: true, Elapsed: time.Millisecond},
			{Path: "AnKi/m.h", Kind: task.KindRegular, Err: errors.New("formatter exited with status 1")},
		},
		Timings: observ.Report{TotalMS: 3, Phases: []observ.PhaseReport{{Name: "dispatch", DurationMS: 3}}},
	}
}

func TestBuild(t *testing.T) {
	runErr := errors.New("1 file failed")
	r, err := report.Build("1.2.3", sampleSummary(), runErr)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if r.OK || r.Error != "1 file failed" || r.Version != "1.2.3" {
		t.Fatalf("unexpected header %+v", r)
	}
	if r.Processed != 3 || r.Shaders != 1 || r.Changed != 1 || r.Failed != 1 || r.Workers != 2 {
		t.Fatalf("unexpected counts %+v", r)
	}
	order := []string{"AnKi/a.hlsl", "AnKi/m.h", "AnKi/z.cpp"}
	for i, want := range order {
		if r.Files[i].Path != want {
			t.Fatalf("file %d: %s, want %s", i, r.Files[i].Path, want)
		}
	}
	if r.Files[0].Kind != "shader" || !r.Files[0].Changed || r.Files[0].ElapsedMS != 1 {
		t.Fatalf("unexpected shader entry %+v", r.Files[0])
	}
	if r.Files[1].Error == "" {
		t.Fatal("failure message dropped")
	}
}

func TestBuild_NegativeCount(t *testing.T) {
	s := sampleSummary()
	s.Failed = -1
	if _, err := report.Build("dev", s, nil); err == nil {
		t.Fatal("expected conversion error for negative count")
	}
}

func TestDisplayPath_NFC(t *testing.T) {
	decomposed := "Shaders/Cafe\u0301.hlsl"
	if got := report.DisplayPath(decomposed); got != "Shaders/Caf\u00e9.hlsl" {
		t.Fatalf("DisplayPath = %q", got)
	}
}

func TestWriteFile_JSON(t *testing.T) {
	r, err := report.Build("dev", sampleSummary(), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	path := filepath.Join(t.TempDir(), "report.json")
	if err := report.WriteFile(path, r); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["tool"] != "srcfmt" || decoded["ok"] != true {
		t.Fatalf("unexpected JSON header: %v", decoded)
	}
	if files, _ := decoded["files"].([]any); len(files) != 3 {
		t.Fatalf("files: %v", decoded["files"])
	}
}

func TestWriteFile_Msgpack(t *testing.T) {
	r, err := report.Build("dev", sampleSummary(), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	path := filepath.Join(t.TempDir(), "report.msgpack")
	if err := report.WriteFile(path, r); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if json.Valid(data) {
		t.Fatal(".msgpack report was written as JSON")
	}
	got, err := report.ReadMsgpack(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Processed != 3 || len(got.Files) != 3 || got.Files[2].Path != "AnKi/z.cpp" {
		t.Fatalf("decoded report differs: %+v", got)
	}
	if got.Timings.TotalMS != 3 {
		t.Fatalf("timings lost: %+v", got.Timings)
	}
}

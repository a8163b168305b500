// Package report renders the outcome of a run for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/text/unicode/norm"

	"srcfmt/internal/driver"
	"srcfmt/internal/observ"
)

// File is the per-file entry of a report.
type File struct {
	Path      string  `json:"path" msgpack:"path"`
	Kind      string  `json:"kind" msgpack:"kind"`
	Worker    int     `json:"worker" msgpack:"worker"`
	Changed   bool    `json:"changed" msgpack:"changed"`
	Error     string  `json:"error,omitempty" msgpack:"error,omitempty"`
	ElapsedMS float64 `json:"elapsed_ms" msgpack:"elapsed_ms"`
}

// Report is the serialisable form of a driver.Summary.
type Report struct {
	Tool       string        `json:"tool" msgpack:"tool"`
	Version    string        `json:"version" msgpack:"version"`
	OK         bool          `json:"ok" msgpack:"ok"`
	Error      string        `json:"error,omitempty" msgpack:"error,omitempty"`
	DryRun     bool          `json:"dry_run" msgpack:"dry_run"`
	Discovered uint32        `json:"discovered" msgpack:"discovered"`
	Processed  uint32        `json:"processed" msgpack:"processed"`
	Shaders    uint32        `json:"shaders" msgpack:"shaders"`
	Changed    uint32        `json:"changed" msgpack:"changed"`
	Failed     uint32        `json:"failed" msgpack:"failed"`
	Workers    uint32        `json:"workers" msgpack:"workers"`
	Files      []File        `json:"files" msgpack:"files"`
	Timings    observ.Report `json:"timings" msgpack:"timings"`
}

// Build converts a summary and the run error into a Report.
func Build(version string, s *driver.Summary, runErr error) (*Report, error) {
	r := &Report{
		Tool:    "srcfmt",
		Version: version,
		OK:      runErr == nil,
		DryRun:  s.DryRun,
		Timings: s.Timings,
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}

	counts := []struct {
		dst *uint32
		src int
	}{
		{&r.Discovered, s.Discovered},
		{&r.Processed, s.Files},
		{&r.Shaders, s.Shaders},
		{&r.Changed, s.Changed},
		{&r.Failed, s.Failed},
		{&r.Workers, s.Workers},
	}
	for _, c := range counts {
		v, err := safecast.Conv[uint32](c.src)
		if err != nil {
			return nil, fmt.Errorf("report: count overflow: %w", err)
		}
		*c.dst = v
	}

	r.Files = make([]File, 0, len(s.Results))
	for _, res := range s.Results {
		f := File{
			Path:      DisplayPath(res.Path),
			Kind:      res.Kind.String(),
			Worker:    res.Worker,
			Changed:   res.Changed,
			ElapsedMS: observ.Millis(res.Elapsed),
		}
		if res.Err != nil {
			f.Error = res.Err.Error()
		}
		r.Files = append(r.Files, f)
	}
	sort.Slice(r.Files, func(i, j int) bool { return r.Files[i].Path < r.Files[j].Path })
	return r, nil
}

// DisplayPath returns path with forward slashes in Unicode NFC, so reports
// compare equal across hosts whose file systems decompose names.
func DisplayPath(path string) string {
	return norm.NFC.String(filepath.ToSlash(path))
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteMsgpack writes r as MessagePack.
func WriteMsgpack(w io.Writer, r *Report) error {
	return msgpack.NewEncoder(w).Encode(r)
}

// ReadMsgpack decodes a report written by WriteMsgpack.
func ReadMsgpack(rd io.Reader) (*Report, error) {
	var r Report
	if err := msgpack.NewDecoder(rd).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// WriteFile stores r at path; ".msgpack" and ".mp" select MessagePack,
// anything else JSON.
func WriteFile(path string, r *Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("report: %w", cerr)
		}
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mp":
		err = WriteMsgpack(f, r)
	default:
		err = WriteJSON(f, r)
	}
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

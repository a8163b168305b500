package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"srcfmt/internal/dispatch"
	"srcfmt/internal/shader"
	"srcfmt/internal/task"
	"srcfmt/internal/trace"
)

// Formatter formats a file in place. report names the file in diagnostics.
type Formatter interface {
	Invoke(ctx context.Context, path, report string, kind task.Kind) error
}

// Pipeline runs one file through mask, format and restore.
// It holds no per-file state and is shared by all workers.
type Pipeline struct {
	Formatter Formatter
	Map       *shader.SemanticMap
	// DryRun formats into temporary copies and never touches the tree.
	DryRun bool
	// TempDir holds temporary copies; "" means os.TempDir().
	TempDir string
	Sink    dispatch.ProgressSink
}

// Process formats t and reports whether its content changed.
func (p *Pipeline) Process(ctx context.Context, worker int, t task.FileTask) (changed bool, err error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeFile, "file:"+t.Path, trace.CurrentSpan(ctx).SpanID)
	span.WithExtra("kind", t.Kind.String())
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})
	defer func() {
		detail := "unchanged"
		if err != nil {
			detail = err.Error()
		} else if changed {
			detail = "changed"
		}
		span.End(detail)
	}()

	if t.Kind == task.KindShader {
		return p.processShader(ctx, worker, t)
	}
	return p.processRegular(ctx, worker, t)
}

func (p *Pipeline) stage(worker int, t task.FileTask, stage dispatch.Stage, started time.Time) {
	dispatch.Report(p.Sink, dispatch.Event{
		File:    t.Path,
		Worker:  worker,
		Stage:   stage,
		Status:  dispatch.StatusWorking,
		Elapsed: time.Since(started),
	})
}

func (p *Pipeline) processRegular(ctx context.Context, worker int, t task.FileTask) (changed bool, err error) {
	started := time.Now()
	original, err := os.ReadFile(t.Path)
	if err != nil {
		return false, fmt.Errorf("%s: %w", t.Path, err)
	}
	before := shader.Fingerprint(original)

	target := t.Path
	if p.DryRun {
		var tmp string
		tmp, err = p.writeTemp(t.Path, filepath.Ext(t.Path), original)
		if err != nil {
			return false, err
		}
		defer removeTemp(tmp, t.Path, &err)
		target = tmp
	}

	p.stage(worker, t, dispatch.StageFormat, started)
	if err := p.Formatter.Invoke(ctx, target, t.Path, t.Kind); err != nil {
		return false, err
	}

	formatted, err := os.ReadFile(target)
	if err != nil {
		return false, fmt.Errorf("%s: %w", t.Path, err)
	}
	return shader.Fingerprint(formatted) != before, nil
}

func (p *Pipeline) processShader(ctx context.Context, worker int, t task.FileTask) (changed bool, err error) {
	started := time.Now()
	p.stage(worker, t, dispatch.StageMask, started)

	original, err := os.ReadFile(t.Path)
	if err != nil {
		return false, &TranscodeIOError{Op: "read", Path: t.Path, Err: err}
	}
	before := shader.Fingerprint(original)
	if p.Map.Collides(original) {
		// Unmask will also rewrite these occurrences.
		trace.Point(trace.FromContext(ctx), trace.ScopeFile, "placeholder-collision", t.Path, trace.CurrentSpan(ctx).SpanID)
	}

	tmp, err := p.writeTemp(t.Path, ".txt", p.Map.Mask(original))
	if err != nil {
		return false, err
	}
	defer removeTemp(tmp, t.Path, &err)

	p.stage(worker, t, dispatch.StageFormat, started)
	if err := p.Formatter.Invoke(ctx, tmp, t.Path, t.Kind); err != nil {
		return false, err
	}

	p.stage(worker, t, dispatch.StageRestore, started)
	formatted, err := os.ReadFile(tmp)
	if err != nil {
		return false, &TranscodeIOError{Op: "read-temp", Path: t.Path, Err: err}
	}
	restored := p.Map.Unmask(formatted)
	if shader.Fingerprint(restored) == before {
		return false, nil
	}
	if p.DryRun {
		return true, nil
	}
	if err := writeBack(t.Path, restored); err != nil {
		return false, &TranscodeIOError{Op: "write-back", Path: t.Path, Err: err}
	}
	return true, nil
}

// writeTemp stores data in a fresh file private to the calling worker.
func (p *Pipeline) writeTemp(origin, suffix string, data []byte) (string, error) {
	f, err := os.CreateTemp(p.TempDir, "srcfmt-*"+suffix)
	if err != nil {
		return "", &TranscodeIOError{Op: "write-temp", Path: origin, Err: err}
	}
	name := f.Name()
	_, werr := f.Write(data)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(name)
		return "", &TranscodeIOError{Op: "write-temp", Path: origin, Err: err}
	}
	return name, nil
}

// removeTemp deletes tmp and folds a removal failure into *errp.
func removeTemp(tmp, origin string, errp *error) {
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		*errp = errors.Join(*errp, &TranscodeIOError{Op: "remove-temp", Path: origin, Err: err})
	}
}

// writeBack overwrites path keeping its permission bits.
func writeBack(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	return os.WriteFile(path, data, mode.Perm())
}

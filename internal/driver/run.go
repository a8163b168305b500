// Package driver ties discovery, the worker pool and the per-file pipeline
// into a formatting run.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"srcfmt/internal/config"
	"srcfmt/internal/discover"
	"srcfmt/internal/dispatch"
	"srcfmt/internal/formatter"
	"srcfmt/internal/observ"
	"srcfmt/internal/task"
	"srcfmt/internal/trace"
)

// Request configures a run.
type Request struct {
	Config *config.Config
	// Base is the project root that roots, style profiles and the formatter
	// path are resolved against; "" means cwd.
	Base string
	// GOOS selects the formatter binary; "" means the host.
	GOOS    string
	Workers int
	DryRun  bool
	TempDir string
	// Runner replaces the formatter subprocess, mainly for tests.
	Runner formatter.Runner
	Sink   dispatch.ProgressSink
	// Tasks skips discovery when non-nil.
	Tasks []task.FileTask
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path    string
	Kind    task.Kind
	Worker  int
	Changed bool
	Err     error
	Elapsed time.Duration
}

// Summary describes a finished run.
type Summary struct {
	// Discovered counts tasks found; Files counts tasks a worker claimed.
	Discovered int
	Files      int
	Shaders    int
	Changed    int
	Failed     int
	Workers    int
	DryRun     bool
	Results    []FileResult
	Timings    observ.Report
}

// Discover lists the tasks of a run without formatting anything.
func Discover(ctx context.Context, req *Request) ([]task.FileTask, error) {
	cfg := req.Config
	if cfg == nil {
		cfg = config.Default()
	}
	base, err := projectRoot(req)
	if err != nil {
		return nil, err
	}
	return discover.Discover(ctx, discover.Options{
		Base:             base,
		Roots:            cfg.Discover.Roots,
		Extensions:       cfg.ExtensionSet(),
		ShaderExtensions: cfg.ShaderExtensionSet(),
	})
}

// Run discovers files and formats them all.
func Run(ctx context.Context, req *Request) (Summary, error) {
	timer := observ.NewTimer()
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeRun, "run", trace.CurrentSpan(ctx).SpanID)
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})

	summary, err := run(ctx, req, timer)
	summary.Timings = timer.Report()
	if err != nil {
		span.End(err.Error())
		return summary, err
	}
	span.WithExtra("files", fmt.Sprint(summary.Files)).WithExtra("changed", fmt.Sprint(summary.Changed)).End("ok")
	return summary, nil
}

func run(ctx context.Context, req *Request, timer *observ.Timer) (Summary, error) {
	summary := Summary{DryRun: req.DryRun}
	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx).SpanID

	idx := timer.Begin("setup")
	cfg := req.Config
	if cfg == nil {
		cfg = config.Default()
	}
	var exe string
	var err error
	if req.GOOS == "" {
		exe, err = formatter.HostExecutable(cfg.Formatter)
	} else {
		exe, err = formatter.ExecutableFor(req.GOOS, cfg.Formatter)
	}
	if err != nil {
		return summary, err
	}
	semantics, err := cfg.SemanticMap()
	if err != nil {
		return summary, err
	}
	base, err := projectRoot(req)
	if err != nil {
		return summary, err
	}
	invoker := formatter.New(anchorExecutable(base, exe), config.StyleProfiles{
		Regular: anchor(base, cfg.Style.Regular),
		Shader:  anchor(base, cfg.Style.Shader),
	})
	if req.Runner != nil {
		invoker.Runner = req.Runner
	}
	timer.End(idx, exe)

	idx = timer.Begin("discover")
	phase := trace.Begin(tracer, trace.ScopePhase, "discover", parent)
	tasks := req.Tasks
	if tasks == nil {
		tasks, err = Discover(ctx, req)
		if err != nil {
			phase.End(err.Error())
			return summary, err
		}
	}
	summary.Discovered = len(tasks)
	phase.WithExtra("tasks", fmt.Sprint(len(tasks))).End("")
	timer.End(idx, fmt.Sprintf("%d files", len(tasks)))

	return dispatchTasks(ctx, req, timer, tasks, &Pipeline{
		Formatter: invoker,
		Map:       semantics,
		DryRun:    req.DryRun,
		TempDir:   req.TempDir,
		Sink:      req.Sink,
	}, summary)
}

func dispatchTasks(ctx context.Context, req *Request, timer *observ.Timer, tasks []task.FileTask, p *Pipeline, summary Summary) (Summary, error) {
	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx).SpanID

	idx := timer.Begin("dispatch")
	pool := &dispatch.Pool{Workers: req.Workers, Sink: req.Sink}
	queue := task.NewQueue(tasks)
	summary.Workers = pool.Size(queue.Len())

	phase := trace.Begin(tracer, trace.ScopePhase, "dispatch", parent)
	phase.WithExtra("workers", fmt.Sprint(summary.Workers))
	pctx := trace.WithSpanContext(ctx, trace.SpanContext{SpanID: phase.ID()})

	outcomes, err := pool.Run(pctx, queue, p.Process)

	summary.Files = queue.Claimed()
	summary.Results = make([]FileResult, 0, len(outcomes))
	for _, o := range outcomes {
		summary.Results = append(summary.Results, FileResult{
			Path:    o.Task.Path,
			Kind:    o.Task.Kind,
			Worker:  o.Worker,
			Changed: o.Changed,
			Err:     o.Err,
			Elapsed: o.Elapsed,
		})
		if o.Task.Kind == task.KindShader {
			summary.Shaders++
		}
		if o.Changed {
			summary.Changed++
		}
		if o.Err != nil {
			summary.Failed++
		}
	}

	note := fmt.Sprintf("%d workers", summary.Workers)
	timer.End(idx, note)
	if err != nil {
		phase.End(err.Error())
		return summary, err
	}
	phase.End("")
	return summary, nil
}

func projectRoot(req *Request) (string, error) {
	if req.Base != "" {
		return req.Base, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to read working directory: %w", err)
	}
	return wd, nil
}

// anchor joins a relative path onto the project root.
func anchor(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// anchorExecutable is anchor for the formatter binary. A bare name such as
// "clang-format" stays a PATH lookup.
func anchorExecutable(base, exe string) string {
	if !strings.ContainsRune(exe, '/') && !strings.ContainsRune(exe, filepath.Separator) {
		return exe
	}
	return anchor(base, exe)
}

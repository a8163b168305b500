package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"srcfmt/internal/task"
	"srcfmt/internal/trace"
)

// ProcessFunc handles one claimed task and reports whether it changed the file.
type ProcessFunc func(ctx context.Context, worker int, t task.FileTask) (changed bool, err error)

// Outcome records how one task went.
type Outcome struct {
	Task    task.FileTask
	Worker  int
	Changed bool
	Err     error
	Elapsed time.Duration
}

// Pool runs a fixed number of workers over a closed worklist.
type Pool struct {
	// Workers is the pool size; <= 0 means one per CPU.
	Workers int
	Sink    ProgressSink
}

// DefaultWorkers is the number of processing units available to the process.
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// Size returns the number of workers Run starts for n tasks.
func (p *Pool) Size(n int) int {
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	return max(min(workers, n), 0)
}

// Run drains q with Size(q.Len()) workers and returns once every worker is
// done. After the first failure no new task is claimed, but tasks already in
// flight finish. The returned error joins every task failure.
func (p *Pool) Run(ctx context.Context, q *task.Queue, fn ProcessFunc) ([]Outcome, error) {
	n := p.Size(q.Len())
	if n == 0 {
		return nil, ctx.Err()
	}

	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx).SpanID

	// Each worker appends only to its own slot; merged after Wait.
	perWorker := make([][]Outcome, n)

	g, gctx := errgroup.WithContext(ctx)
	for w := range n {
		g.Go(func() error {
			span := trace.Begin(tracer, trace.ScopeWorker, fmt.Sprintf("worker:%d", w), parent)
			wctx := trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})
			handled := 0
			defer func() {
				span.WithExtra("tasks", fmt.Sprint(handled)).End("")
			}()

			for {
				if gctx.Err() != nil {
					return nil
				}
				t, ok := q.Claim()
				if !ok {
					return nil
				}
				handled++

				start := time.Now()
				changed, err := fn(wctx, w, t)
				out := Outcome{Task: t, Worker: w, Changed: changed, Err: err, Elapsed: time.Since(start)}
				perWorker[w] = append(perWorker[w], out)

				if err != nil {
					Report(p.Sink, Event{File: t.Path, Worker: w, Status: StatusError, Err: err, Elapsed: out.Elapsed})
					return err
				}
				Report(p.Sink, Event{File: t.Path, Worker: w, Status: StatusDone, Elapsed: out.Elapsed})
			}
		})
	}
	waitErr := g.Wait()

	var outcomes []Outcome
	var failures []error
	for _, outs := range perWorker {
		for _, o := range outs {
			outcomes = append(outcomes, o)
			if o.Err != nil {
				failures = append(failures, o.Err)
			}
		}
	}
	if len(failures) > 0 {
		return outcomes, errors.Join(failures...)
	}
	if waitErr != nil {
		return outcomes, waitErr
	}
	return outcomes, ctx.Err()
}

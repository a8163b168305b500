// Package trace records what a formatting run is doing and for how long.
//
// Tracing is off unless requested on the command line:
//
//	srcfmt run --trace=- --trace-level=worker
//
// # Tracers
//
//   - Nop: used when tracing is disabled
//   - StreamTracer: writes each event as it happens (file or stderr)
//   - RingTracer: keeps the most recent events for a dump after a failure
//   - MultiTracer: fans out to several tracers
//
// # Scopes and levels
//
// Every event carries a scope; the level decides which scopes are kept.
//
//   - ScopeRun (level run): the whole invocation
//   - ScopePhase (level phase): discovery and dispatch
//   - ScopeWorker (level worker): one span per pool worker
//   - ScopeFile (level file): one span per formatted file
//
// # Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePhase, "discover", 0)
//	defer span.End("")
package trace

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"srcfmt/internal/prof"
	"srcfmt/internal/trace"
)

// session holds the tracer and profilers for one command invocation.
type session struct {
	tracer    trace.Tracer
	heartbeat *trace.Heartbeat
	profiles  *prof.Session
	cmd       *cobra.Command
}

// startSession reads the trace and profiling flags, attaches the tracer to
// the command context and starts the requested profilers.
func startSession(cmd *cobra.Command) (*session, error) {
	tracer, err := setupTracing(cmd)
	if err != nil {
		return nil, err
	}
	s := &session{tracer: tracer, cmd: cmd}

	heartbeat, err := cmd.Root().PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		s.close()
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}
	s.heartbeat = trace.StartHeartbeat(tracer, heartbeat)

	opts, err := profileOptions(cmd)
	if err != nil {
		s.close()
		return nil, err
	}
	if s.profiles, err = prof.Start(opts); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *session) close() {
	s.heartbeat.Stop()
	if err := s.profiles.Stop(); err != nil {
		fmt.Fprintf(s.cmd.ErrOrStderr(), "profile: %v\n", err)
	}
	if err := s.tracer.Flush(); err != nil {
		fmt.Fprintf(s.cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
	}
	if err := s.tracer.Close(); err != nil {
		fmt.Fprintf(s.cmd.ErrOrStderr(), "trace: close error: %v\n", err)
	}
}

// dumpRing prints the ring buffer after a failed run.
func (s *session) dumpRing() {
	ring, ok := trace.Ring(s.tracer)
	if !ok {
		return
	}
	out := s.cmd.ErrOrStderr()
	fmt.Fprintln(out, "trace: last events before failure:")
	if err := ring.Dump(out, trace.FormatText); err != nil {
		fmt.Fprintf(out, "trace: dump error: %v\n", err)
	}
}

// setupTracing creates the tracer described by the trace flags and stores it
// in the command context.
func setupTracing(cmd *cobra.Command) (trace.Tracer, error) {
	flags := cmd.Root().PersistentFlags()

	output, err := flags.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	// --trace alone turns on phase-level tracing.
	if level == trace.LevelOff && output != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return trace.Nop, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}
	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: output,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	return tracer, nil
}

func profileOptions(cmd *cobra.Command) (prof.Options, error) {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return opts, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.Mem, err = flags.GetString("mem-profile"); err != nil {
		return opts, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return opts, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	return opts, nil
}

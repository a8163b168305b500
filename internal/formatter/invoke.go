// Package formatter runs the external clang-format binary on single files.
package formatter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"srcfmt/internal/config"
	"srcfmt/internal/task"
)

// Runner executes a command to completion and returns its stderr.
type Runner interface {
	Run(ctx context.Context, name string, args []string) (stderr []byte, err error)
}

// ExecRunner runs real subprocesses.
//
// The context does not cancel a started process; every invocation runs to
// completion and there is no timeout.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(_ context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// InvocationError reports a formatter that could not run or exited non-zero.
type InvocationError struct {
	Path     string
	ExitCode int // -1 when the process never ran
	Stderr   string
	Err      error
}

func (e *InvocationError) Error() string {
	var b strings.Builder
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, "%s: formatter exited with status %d", e.Path, e.ExitCode)
	} else {
		fmt.Fprintf(&b, "%s: formatter failed to run: %v", e.Path, e.Err)
	}
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Invoker formats one file at a time with the profile matching its kind.
type Invoker struct {
	Executable string
	Profiles   config.StyleProfiles
	Runner     Runner
}

// New returns an Invoker backed by real subprocesses.
func New(executable string, profiles config.StyleProfiles) *Invoker {
	return &Invoker{Executable: executable, Profiles: profiles, Runner: ExecRunner{}}
}

// Args returns the formatter command line for path.
func (inv *Invoker) Args(path string, kind task.Kind) []string {
	return []string{
		"-sort-includes=false",
		"--style=file:" + inv.Profiles.For(kind),
		"-i",
		path,
	}
}

// Invoke formats path in place. report names the file in diagnostics; it
// differs from path when a shader is formatted through a temporary copy.
func (inv *Invoker) Invoke(ctx context.Context, path, report string, kind task.Kind) error {
	runner := inv.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	if report == "" {
		report = path
	}
	stderr, err := runner.Run(ctx, inv.Executable, inv.Args(path, kind))
	if err == nil {
		return nil
	}
	ie := &InvocationError{Path: report, ExitCode: -1, Stderr: string(stderr), Err: err}
	var codeErr interface{ ExitCode() int }
	if errors.As(err, &codeErr) {
		ie.ExitCode = codeErr.ExitCode()
	}
	return ie
}

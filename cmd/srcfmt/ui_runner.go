package main

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"srcfmt/internal/dispatch"
	"srcfmt/internal/driver"
	"srcfmt/internal/ui"
)

type runOutcome struct {
	summary driver.Summary
	err     error
}

var errInterrupted = errors.New("interrupted")

// runWithUI runs req while a progress view renders its events. req.Tasks
// must already be discovered so the view can list every file up front.
func runWithUI(ctx context.Context, title string, req *driver.Request) (driver.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan dispatch.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Sink = dispatch.ChannelSink{Ch: events}
		summary, err := driver.Run(ctx, &reqCopy)
		outcomeCh <- runOutcome{summary: summary, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, req.Tasks, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	final, uiErr := program.Run()

	interrupted := false
	if m, ok := final.(interface{ Interrupted() bool }); ok && m.Interrupted() {
		interrupted = true
		cancel()
	}
	// The view may quit before the run does; keep workers from blocking.
	go func() {
		for range events {
		}
	}()

	outcome := <-outcomeCh
	switch {
	case interrupted:
		return outcome.summary, errors.Join(errInterrupted, outcome.err)
	case uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled):
		return outcome.summary, uiErr
	}
	return outcome.summary, outcome.err
}

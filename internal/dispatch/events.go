package dispatch

import "time"

// Stage describes where a file is in the per-file pipeline.
type Stage string

const (
	// StageMask is the shader masking stage.
	StageMask Stage = "mask"
	// StageFormat is the formatter invocation stage.
	StageFormat Stage = "format"
	// StageRestore is the shader unmask and write-back stage.
	StageRestore Stage = "restore"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to be claimed.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently being processed.
	StatusWorking Status = "working"
	// StatusDone indicates the task finished.
	StatusDone Status = "done"
	// StatusError indicates the task failed.
	StatusError Status = "error"
)

// Event reports progress for one file.
type Event struct {
	File    string
	Worker  int
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use; every worker reports through the same sink.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

// OnEvent implements ProgressSink.
func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// Report sends evt to sink when one is set.
func Report(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}

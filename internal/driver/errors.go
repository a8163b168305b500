package driver

import "fmt"

// TranscodeIOError reports a failed read or write around a shader's
// temporary buffer. The temporary file has already been removed when it is
// returned.
type TranscodeIOError struct {
	Op   string // "read", "write-temp", "read-temp", "write-back", "remove-temp"
	Path string
	Err  error
}

func (e *TranscodeIOError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *TranscodeIOError) Unwrap() error { return e.Err }

package liveedit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDecodeIncomplete means nothing usable has been decoded yet. It is the
	// expected steady state at the start of a stream, not a failure.
	ErrDecodeIncomplete  = errors.New("response not decodable yet")
	ErrStreamNotFinished = errors.New("stream has not finished")
	ErrStreamFinished    = errors.New("stream already finished")
	ErrStreamCancelled   = errors.New("stream was cancelled")
	ErrAlreadyCommitted  = errors.New("response already committed")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// ReadError reports that the original content of an edit's target could
// not be read while rendering.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("cannot read original %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// MalformedEditError reports an edit that cannot be committed, or a stream
// whose already-rendered edits changed under it.
type MalformedEditError struct {
	Index  int
	Path   string
	Reason string
}

func (e *MalformedEditError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed edit #%d: %s", e.Index+1, e.Reason)
	}
	return fmt.Sprintf("malformed edit #%d (%s): %s", e.Index+1, e.Path, e.Reason)
}

// WriteError reports the path that could not be written. Written lists the
// paths committed before the failure; they stay on disk.
type WriteError struct {
	Path    string
	Written []string
	Err     error
}

func (e *WriteError) Error() string {
	msg := fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
	if len(e.Written) > 0 {
		msg += fmt.Sprintf(" (already written: %s)", strings.Join(e.Written, ", "))
	}
	return msg
}

func (e *WriteError) Unwrap() error { return e.Err }

// DetailedError enhances an error with the stack of a recovered panic.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string { return e.Err.Error() }

func (e *DetailedError) Unwrap() error { return e.Err }

package liveedit

import (
	"strings"
)

// RedactedEditMessage replaces a response in the conversation transcript
// once its edits have been written, so file content is not repeated.
const RedactedEditMessage = "(edits were applied to the files listed above; content omitted)"

// Session drives one streamed response: fragments go in, frames come out,
// and once the stream has finished the edits can be committed. A Session is
// used from a single goroutine.
type Session struct {
	fsys      FileSystem
	originals OriginalSource
	journal   *Journal

	raw  strings.Builder
	args *ResponseArguments

	ended     bool
	cancelled bool
	committed bool
	err       error
	summary   *Summary
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithJournal records the commit for undo.
func WithJournal(j *Journal) SessionOption {
	return func(s *Session) { s.journal = j }
}

// WithOriginals overrides where original file lines are read from.
func WithOriginals(src OriginalSource) SessionOption {
	return func(s *Session) { s.originals = src }
}

// NewSession creates a Session that reads originals from and commits to fsys.
func NewSession(fsys FileSystem, opts ...SessionOption) (*Session, error) {
	s := &Session{fsys: fsys}
	for _, opt := range opts {
		opt(s)
	}
	if s.originals == nil {
		originals, err := NewOriginals(fsys, defaultCacheSize)
		if err != nil {
			return nil, err
		}
		s.originals = originals
	}
	return s, nil
}

// Feed adds one fragment and renders the response so far. The frame is nil
// while nothing can be decoded yet.
func (s *Session) Feed(fragment string) (*Frame, error) {
	switch {
	case s.err != nil:
		return nil, s.err
	case s.cancelled:
		return nil, ErrStreamCancelled
	case s.ended:
		return nil, ErrStreamFinished
	}

	log.Stream("fragment", fragment)
	s.raw.WriteString(fragment)
	return s.update()
}

// Finish marks the end of the stream and renders the final frame, in which
// every edit is settled.
func (s *Session) Finish() (*Frame, error) {
	switch {
	case s.err != nil:
		return nil, s.err
	case s.cancelled:
		return nil, ErrStreamCancelled
	case s.ended:
		return nil, ErrStreamFinished
	}

	s.ended = true
	frame, err := s.update()
	if frame == nil && err == nil {
		// The complete response never decoded; there is nothing to commit.
		s.args = nil
	}
	return frame, err
}

// Cancel abandons the stream. A cancelled session is never committed.
func (s *Session) Cancel() {
	if !s.committed {
		s.cancelled = true
	}
}

func (s *Session) update() (*Frame, error) {
	args, ok := DecodePartial(s.raw.String())
	if !ok {
		return nil, nil
	}

	if s.args != nil {
		if err := checkRegression(s.args, &args); err != nil {
			log.Error("stream regression: %v", err)
			s.err = err
			return nil, err
		}
	}
	s.args = &args

	frame := Render(&args, s.ended, s.originals)
	for _, readErr := range frame.Errors {
		log.Debug("render: %v", readErr)
	}
	return frame, nil
}

// checkRegression verifies that cur extends prev: no edit disappears, a
// settled edit never changes, and the streaming edit only grows by append.
func checkRegression(prev, cur *ResponseArguments) error {
	n := len(prev.Edits)
	if len(cur.Edits) < n {
		gone := prev.Edits[len(cur.Edits)]
		return &MalformedEditError{Index: len(cur.Edits), Path: gone.Path, Reason: "edit disappeared from the stream"}
	}

	for i, before := range prev.Edits {
		after := cur.Edits[i]
		if Settled(i, n, false) {
			if after != before {
				return &MalformedEditError{Index: i, Path: before.Path, Reason: "settled edit changed"}
			}
			continue
		}
		if before.Path != "" && after.Path != before.Path {
			return &MalformedEditError{Index: i, Path: before.Path, Reason: "path of streaming edit changed to " + after.Path}
		}
		if !strings.HasPrefix(after.Content, before.Content) {
			return &MalformedEditError{Index: i, Path: before.Path, Reason: "content of streaming edit was rewritten"}
		}
	}
	return nil
}

// Commit writes the finished response. It fails unless the stream finished
// normally, and runs at most once.
func (s *Session) Commit() (*Summary, error) {
	switch {
	case s.err != nil:
		return nil, s.err
	case s.cancelled:
		return nil, ErrStreamCancelled
	case !s.ended:
		return nil, ErrStreamNotFinished
	case s.committed:
		return nil, ErrAlreadyCommitted
	}

	s.committed = true
	summary, err := Commit(s.args, s.fsys, s.journal)
	s.summary = summary
	return summary, err
}

// Args returns the latest decoded arguments, or nil.
func (s *Session) Args() *ResponseArguments { return s.args }

// Raw returns the text received so far.
func (s *Session) Raw() string { return s.raw.String() }

// Report describes the outcome of the response for the conversation
// history.
type Report struct {
	Edited bool
	Paths  []string
	Raw    string
}

// Report returns what the session did. Paths is empty unless a commit wrote
// files.
func (s *Session) Report() Report {
	r := Report{Raw: s.raw.String()}
	if s.summary.Edited() {
		r.Edited = true
		r.Paths = append(r.Paths, s.summary.Paths...)
	}
	return r
}

// TranscriptEntry is the assistant message to keep in the conversation:
// redacted when edits were written, the literal response otherwise.
func (r Report) TranscriptEntry() string {
	if r.Edited {
		return RedactedEditMessage
	}
	return r.Raw
}

package liveedit

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

// FrameHandler receives every rendered frame, the last one with all edits
// settled.
type FrameHandler func(frame *Frame)

// App runs one invocation: stream a response and optionally commit it, or
// undo or redo the last commit.
type App struct {
	cfg     *Config
	fsys    FileSystem
	nvim    *NvimFS
	journal *Journal
	source  Source
	onFrame FrameHandler

	session *Session
}

func NewApp(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	disk, err := NewDiskFS(cfg.Root)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, fsys: disk}

	if cfg.UseNvim && cfg.Write {
		nv, err := NewNvimFS(disk.Root())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to neovim: %w", err)
		}
		a.nvim = nv
		a.fsys = nv
	}

	a.journal, err = OpenJournal(disk.Root())
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// SetFrameHandler registers the callback for rendered frames.
func (a *App) SetFrameHandler(h FrameHandler) { a.onFrame = h }

// SetSource overrides the response source chosen from the config.
func (a *App) SetSource(src Source) { a.source = src }

// Session returns the session of the last streamed response, or nil.
func (a *App) Session() *Session { return a.session }

// Close releases the Neovim connection, if any.
func (a *App) Close() {
	if a.nvim != nil {
		a.nvim.Close()
	}
}

func (a *App) Execute(ctx context.Context) (summary *Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{Err: fmt.Errorf("panic: %v", r), Stack: debug.Stack()}
		}
	}()

	switch {
	case a.cfg.Undo:
		return a.journal.Undo(a.fsys)
	case a.cfg.Redo:
		return a.journal.Redo(a.fsys)
	default:
		return a.stream(ctx)
	}
}

func (a *App) stream(ctx context.Context) (*Summary, error) {
	src, err := a.resolveSource(ctx)
	if err != nil {
		return nil, err
	}

	originals, err := NewOriginals(a.fsys, a.cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	s, err := NewSession(a.fsys, WithJournal(a.journal), WithOriginals(originals))
	if err != nil {
		return nil, err
	}
	a.session = s

	err = src.Stream(ctx, func(fragment string) error {
		frame, err := s.Feed(fragment)
		if err != nil {
			return err
		}
		a.emit(frame)
		return nil
	})
	if err != nil {
		s.Cancel()
		if errors.Is(err, context.Canceled) {
			return &Summary{Message: "Cancelled; no files were written."}, nil
		}
		return nil, err
	}

	frame, err := s.Finish()
	if err != nil {
		return nil, err
	}
	a.emit(frame)
	if s.Args() == nil {
		return &Summary{Message: "Response could not be decoded; nothing to do."}, nil
	}

	if !a.cfg.Write {
		return &Summary{Message: "Preview only; run with --write to apply."}, nil
	}

	summary, err := s.Commit()
	if err != nil {
		return summary, err
	}
	summary.Message = "Applied."
	return summary, nil
}

func (a *App) resolveSource(ctx context.Context) (Source, error) {
	if a.source != nil {
		return a.source, nil
	}
	if a.cfg.Prompt != "" {
		return NewGeminiSource(ctx, a.cfg.APIKey, a.cfg.Model, a.cfg.Prompt)
	}

	text, err := ReadReplayInput(a.cfg.Input)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, errors.New("empty source: pass a response file, pipe one on stdin, or copy one to the clipboard")
	}
	return NewReplaySource(text, a.cfg.ChunkSize, a.cfg.Delay), nil
}

func (a *App) emit(frame *Frame) {
	if frame != nil && a.onFrame != nil {
		a.onFrame(frame)
	}
}

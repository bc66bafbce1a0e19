package liveedit

import (
	"errors"
	"io/fs"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// OriginalSource yields the on-disk lines of an edit's target file.
type OriginalSource interface {
	Lines(path string) ([]string, error)
}

// Frame is one rendered view of the response.
type Frame struct {
	Text string
	// Errors lists the edits whose original could not be read. Their blocks
	// are flagged in Text and the other edits still render.
	Errors []*ReadError
}

// Render builds the display text for the response decoded so far. It returns
// nil when args is nil, meaning there is nothing to show yet.
func Render(args *ResponseArguments, streamEnded bool, src OriginalSource) *Frame {
	if args == nil {
		return nil
	}

	frame := &Frame{}
	var b strings.Builder
	if args.Explanation != "" {
		b.WriteString(args.Explanation)
		b.WriteString("\n\n")
	}

	n := len(args.Edits)
	for i, edit := range args.Edits {
		if edit.Path == "" || edit.Content == "" {
			continue
		}

		b.WriteString(edit.Path + ":\n")

		original, err := src.Lines(edit.Path)
		if err != nil {
			readErr := &ReadError{Path: edit.Path, Err: err}
			frame.Errors = append(frame.Errors, readErr)
			b.WriteString("(!) " + readErr.Error() + "\n\n")
			continue
		}

		b.WriteString(DiffPartial(original, SplitLines(edit.Content), Settled(i, n, streamEnded)))
		b.WriteString("\n")
	}

	frame.Text = b.String()
	return frame
}

// Originals reads original files through a FileSystem and keeps them for the
// rest of the response. Files are not expected to change mid-stream.
type Originals struct {
	fsys  FileSystem
	cache *lru.Cache[string, []string]
}

// NewOriginals creates an Originals holding up to size files.
func NewOriginals(fsys FileSystem, size int) (*Originals, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, err
	}
	return &Originals{fsys: fsys, cache: cache}, nil
}

// Lines returns the lines of path. A file that does not exist yet has no
// lines; any other failure is returned and not cached.
func (o *Originals) Lines(path string) ([]string, error) {
	if lines, ok := o.cache.Get(path); ok {
		return lines, nil
	}

	data, err := o.fsys.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	lines := SplitLines(string(data))
	o.cache.Add(path, lines)
	return lines, nil
}

// Purge drops every cached original.
func (o *Originals) Purge() {
	o.cache.Purge()
}

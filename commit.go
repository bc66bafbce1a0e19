package liveedit

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// writtenFile is one distinct path touched by a commit, with its content
// before the commit and after the last write to it.
type writtenFile struct {
	Path    string
	Existed bool
	Old     []byte
	New     []byte
}

// Commit writes every edit's content through fsys, in order. All edits are
// validated before the first write: an edit without a path or content fails
// the whole commit with a *MalformedEditError and nothing is written.
//
// A failed write returns a *WriteError; files written before it stay on
// disk. When journal is non-nil the written files are recorded for undo,
// including on a partial failure.
func Commit(args *ResponseArguments, fsys FileSystem, journal *Journal) (*Summary, error) {
	if args == nil {
		return nil, ErrDecodeIncomplete
	}
	if err := validateEdits(args.Edits); err != nil {
		return nil, err
	}

	summary := &Summary{Stats: map[string]LineStats{}}
	var files []*writtenFile
	byPath := map[string]*writtenFile{}

	for _, edit := range args.Edits {
		f, seen := byPath[edit.Path]
		if !seen {
			old, err := fsys.ReadFile(edit.Path)
			f = &writtenFile{Path: edit.Path, Existed: err == nil, Old: old}
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Debug("reading %s before commit: %v", edit.Path, err)
			}
		}

		if err := fsys.WriteFile(edit.Path, []byte(edit.Content)); err != nil {
			written := append([]string(nil), summary.Paths...)
			log.Error("commit stopped at %s: %v", edit.Path, err)
			recordCommit(journal, files)
			return summary, &WriteError{Path: edit.Path, Written: written, Err: err}
		}
		log.Debug("wrote %s (%d bytes)", edit.Path, len(edit.Content))

		f.New = []byte(edit.Content)
		if !seen {
			byPath[edit.Path] = f
			files = append(files, f)
			summary.Paths = append(summary.Paths, edit.Path)
		}
	}

	for _, f := range files {
		if f.Existed {
			summary.Modified = append(summary.Modified, f.Path)
		} else {
			summary.Created = append(summary.Created, f.Path)
		}
		summary.Stats[f.Path] = lineStats(string(f.Old), string(f.New))
	}

	recordCommit(journal, files)
	return summary, nil
}

func validateEdits(edits []FileEdit) error {
	for i, edit := range edits {
		if edit.Path == "" {
			return &MalformedEditError{Index: i, Reason: "missing path"}
		}
		if edit.Content == "" {
			return &MalformedEditError{Index: i, Path: edit.Path, Reason: "missing content"}
		}
	}
	return nil
}

func recordCommit(journal *Journal, files []*writtenFile) {
	if journal == nil || len(files) == 0 {
		return
	}
	if err := journal.Record(files); err != nil {
		log.Error("failed to journal commit, undo will not be available: %v", err)
	}
}

// lineStats counts the lines added and removed between two contents.
func lineStats(before, after string) LineStats {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var stats LineStats
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if d.Text != "" && !strings.HasSuffix(d.Text, "\n") {
			n++
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			stats.Added += n
		case diffmatchpatch.DiffDelete:
			stats.Removed += n
		}
	}
	return stats
}

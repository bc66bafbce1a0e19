package liveedit

import (
	"errors"
	"io/fs"
)

// Undo reverts the last recorded commit. A file is only reverted if it
// still holds the committed content; others are reported as failed.
func (j *Journal) Undo(fsys FileSystem) (*Summary, error) {
	ops, err := j.operationsToUndo()
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return &Summary{Message: "No operation to undo."}, nil
	}

	s := &Summary{Message: "Undid last commit."}
	for _, op := range ops {
		if !j.undoFile(fsys, op) {
			s.Failed = append(s.Failed, op.Path)
			continue
		}
		s.Paths = append(s.Paths, op.Path)
		if op.Action == "create" {
			s.Deleted = append(s.Deleted, op.Path)
		} else {
			s.Modified = append(s.Modified, op.Path)
		}
	}
	return s, nil
}

func (j *Journal) undoFile(fsys FileSystem, op Operation) bool {
	current, err := fsys.ReadFile(op.Path)
	if err != nil || contentHash(current) != op.ContentHash {
		log.Debug("undo skipped %s: content changed since commit", op.Path)
		return false
	}

	if op.Action == "create" {
		return fsys.Remove(op.Path) == nil
	}

	old, err := j.readBlob(op.OldContentHash)
	if err != nil {
		log.Error("undo %s: %v", op.Path, err)
		return false
	}
	return fsys.WriteFile(op.Path, old) == nil
}

// Redo re-applies the last undone commit. A file is only rewritten if it
// still holds its pre-commit content.
func (j *Journal) Redo(fsys FileSystem) (*Summary, error) {
	ops, err := j.operationsToRedo()
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return &Summary{Message: "No operation to redo."}, nil
	}

	s := &Summary{Message: "Redid last undone commit."}
	for _, op := range ops {
		if !j.redoFile(fsys, op) {
			s.Failed = append(s.Failed, op.Path)
			continue
		}
		s.Paths = append(s.Paths, op.Path)
		if op.Action == "create" {
			s.Created = append(s.Created, op.Path)
		} else {
			s.Modified = append(s.Modified, op.Path)
		}
	}
	return s, nil
}

func (j *Journal) redoFile(fsys FileSystem, op Operation) bool {
	current, err := fsys.ReadFile(op.Path)
	switch op.Action {
	case "create":
		if !errors.Is(err, fs.ErrNotExist) {
			return false
		}
	default:
		if err != nil || contentHash(current) != op.OldContentHash {
			return false
		}
	}

	content, err := j.readBlob(op.ContentHash)
	if err != nil {
		log.Error("redo %s: %v", op.Path, err)
		return false
	}
	return fsys.WriteFile(op.Path, content) == nil
}

package liveedit

import (
	"bytes"
	"compress/zlib"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	stateDirName  = ".liveedit"
	stateFileName = "journal.json"
	blobsDir      = "blobs"
)

// Operation records one file touched by a commit.
type Operation struct {
	Timestamp      int64  `json:"timestamp"`
	Action         string `json:"action"` // "create" or "modify"
	Path           string `json:"path"`
	OldContentHash string `json:"old_hash,omitempty"`
	ContentHash    string `json:"hash"`
}

// HistoryEntry groups the operations of one commit.
type HistoryEntry struct {
	Operations []Operation `json:"operations"`
}

type journalState struct {
	CurrentIndex int            `json:"current_index"`
	History      []HistoryEntry `json:"history"`
}

// Journal keeps the commit history of a project root so the last commit can
// be undone and redone.
type Journal struct {
	dir       string
	statePath string
	state     journalState
}

// OpenJournal loads the journal stored under root, creating its directory.
func OpenJournal(root string) (*Journal, error) {
	dir := filepath.Join(root, stateDirName)
	if err := os.MkdirAll(filepath.Join(dir, blobsDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal dir: %w", err)
	}

	j := &Journal{
		dir:       dir,
		statePath: filepath.Join(dir, stateFileName),
		state:     journalState{CurrentIndex: -1},
	}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

// Dir returns the directory holding the journal and its blobs.
func (j *Journal) Dir() string { return j.dir }

func (j *Journal) load() error {
	data, err := os.ReadFile(j.statePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	if err := json.Unmarshal(data, &j.state); err != nil {
		return fmt.Errorf("failed to parse journal %s: %w", j.statePath, err)
	}
	if j.state.CurrentIndex >= len(j.state.History) {
		j.state.CurrentIndex = len(j.state.History) - 1
	}
	return nil
}

func (j *Journal) save() error {
	data, err := json.MarshalIndent(j.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(j.statePath, data, 0644)
}

// Record appends the files of one commit as a new history entry, dropping
// anything that could have been redone.
func (j *Journal) Record(files []*writtenFile) error {
	now := time.Now().UTC().Unix()
	ops := make([]Operation, 0, len(files))

	for _, f := range files {
		op := Operation{Timestamp: now, Action: "create", Path: f.Path}
		if f.Existed {
			op.Action = "modify"
			op.OldContentHash = contentHash(f.Old)
			if err := j.writeBlob(op.OldContentHash, f.Old); err != nil {
				return err
			}
		}
		op.ContentHash = contentHash(f.New)
		if err := j.writeBlob(op.ContentHash, f.New); err != nil {
			return err
		}
		ops = append(ops, op)
	}

	j.state.History = append(j.state.History[:j.state.CurrentIndex+1], HistoryEntry{Operations: ops})
	j.state.CurrentIndex = len(j.state.History) - 1
	return j.save()
}

// operationsToUndo returns the current entry and steps back past it.
func (j *Journal) operationsToUndo() ([]Operation, error) {
	if j.state.CurrentIndex < 0 {
		return nil, nil
	}
	ops := j.state.History[j.state.CurrentIndex].Operations
	j.state.CurrentIndex--
	return ops, j.save()
}

// operationsToRedo steps forward to the next entry and returns it.
func (j *Journal) operationsToRedo() ([]Operation, error) {
	if j.state.CurrentIndex+1 >= len(j.state.History) {
		return nil, nil
	}
	j.state.CurrentIndex++
	return j.state.History[j.state.CurrentIndex].Operations, j.save()
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (j *Journal) writeBlob(hash string, content []byte) error {
	path := filepath.Join(j.dir, blobsDir, hash)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	var b bytes.Buffer
	w := zlib.NewWriter(&b)
	if _, err := w.Write(content); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, b.Bytes(), 0644)
}

func (j *Journal) readBlob(hash string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(j.dir, blobsDir, hash))
	if err != nil {
		return nil, err
	}
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("corrupt blob %s: %w", hash, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

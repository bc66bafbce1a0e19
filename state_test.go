package liveedit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitWithJournal(t *testing.T, fsys *DiskFS, j *Journal, edits ...FileEdit) {
	t.Helper()
	_, err := Commit(&ResponseArguments{Edits: edits}, fsys, j)
	require.NoError(t, err)
}

func TestJournalUndoRedo(t *testing.T) {
	fsys := newTestFS(t, map[string]string{"a.txt": "v1\n"})
	j, err := OpenJournal(fsys.Root())
	require.NoError(t, err)

	commitWithJournal(t, fsys, j,
		FileEdit{Path: "a.txt", Content: "v2\n"},
		FileEdit{Path: "b.txt", Content: "created\n"},
	)

	summary, err := j.Undo(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, summary.Modified)
	assert.Equal(t, []string{"b.txt"}, summary.Deleted)
	assert.Empty(t, summary.Failed)
	assert.Equal(t, "v1\n", readTestFile(t, fsys, "a.txt"))
	_, err = os.Stat(fsys.Resolve("b.txt"))
	assert.True(t, os.IsNotExist(err))

	summary, err = j.Undo(fsys)
	require.NoError(t, err)
	assert.Equal(t, "No operation to undo.", summary.Message)
	assert.False(t, summary.Edited())

	summary, err = j.Redo(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, summary.Modified)
	assert.Equal(t, []string{"b.txt"}, summary.Created)
	assert.Equal(t, "v2\n", readTestFile(t, fsys, "a.txt"))
	assert.Equal(t, "created\n", readTestFile(t, fsys, "b.txt"))

	summary, err = j.Redo(fsys)
	require.NoError(t, err)
	assert.Equal(t, "No operation to redo.", summary.Message)
}

func TestJournalUndoSkipsChangedFiles(t *testing.T) {
	fsys := newTestFS(t, map[string]string{"a.txt": "v1\n"})
	j, err := OpenJournal(fsys.Root())
	require.NoError(t, err)

	commitWithJournal(t, fsys, j, FileEdit{Path: "a.txt", Content: "v2\n"})
	require.NoError(t, os.WriteFile(fsys.Resolve("a.txt"), []byte("edited by hand\n"), 0644))

	summary, err := j.Undo(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, summary.Failed)
	assert.Equal(t, "edited by hand\n", readTestFile(t, fsys, "a.txt"))
}

func TestJournalPersists(t *testing.T) {
	fsys := newTestFS(t, map[string]string{"a.txt": "v1\n"})
	j, err := OpenJournal(fsys.Root())
	require.NoError(t, err)
	commitWithJournal(t, fsys, j, FileEdit{Path: "a.txt", Content: "v2\n"})

	assert.FileExists(t, filepath.Join(j.Dir(), stateFileName))

	reopened, err := OpenJournal(fsys.Root())
	require.NoError(t, err)
	summary, err := reopened.Undo(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, summary.Modified)
	assert.Equal(t, "v1\n", readTestFile(t, fsys, "a.txt"))
}

func TestJournalNewCommitDropsRedo(t *testing.T) {
	fsys := newTestFS(t, map[string]string{"a.txt": "v1\n"})
	j, err := OpenJournal(fsys.Root())
	require.NoError(t, err)

	commitWithJournal(t, fsys, j, FileEdit{Path: "a.txt", Content: "v2\n"})
	_, err = j.Undo(fsys)
	require.NoError(t, err)
	commitWithJournal(t, fsys, j, FileEdit{Path: "a.txt", Content: "v3\n"})

	summary, err := j.Redo(fsys)
	require.NoError(t, err)
	assert.Equal(t, "No operation to redo.", summary.Message)
	assert.Equal(t, "v3\n", readTestFile(t, fsys, "a.txt"))
}

func TestBlobRoundTrip(t *testing.T) {
	j, err := OpenJournal(t.TempDir())
	require.NoError(t, err)

	content := []byte("some content\nwith lines\n")
	hash := contentHash(content)
	require.NoError(t, j.writeBlob(hash, content))

	got, err := j.readBlob(hash)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

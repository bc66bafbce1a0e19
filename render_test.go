package liveedit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOriginals struct {
	files  map[string]string
	failed map[string]error
	reads  int
}

func (s *stubOriginals) Lines(path string) ([]string, error) {
	s.reads++
	if err, ok := s.failed[path]; ok {
		return nil, err
	}
	return SplitLines(s.files[path]), nil
}

func TestRenderNothingDecoded(t *testing.T) {
	assert.Nil(t, Render(nil, false, &stubOriginals{}))
}

func TestRenderExplanationAndEdits(t *testing.T) {
	src := &stubOriginals{files: map[string]string{"a.txt": "one\ntwo\n"}}
	args := &ResponseArguments{
		Explanation:    "Update a",
		HasExplanation: true,
		Edits:          []FileEdit{{Path: "a.txt", Content: "one\n2\n"}},
	}

	frame := Render(args, true, src)
	require.NotNil(t, frame)
	assert.Empty(t, frame.Errors)
	assert.Equal(t, "Update a\n\na.txt:\n```diff\n@@ -1,2 +1,2 @@\n one\n-two\n+2\n```\n\n", frame.Text)
}

func TestRenderSkipsIncompleteEdits(t *testing.T) {
	src := &stubOriginals{}
	args := &ResponseArguments{Edits: []FileEdit{{Path: ""}, {Path: "a.txt"}}}

	frame := Render(args, false, src)
	require.NotNil(t, frame)
	assert.Empty(t, frame.Text)
	assert.Zero(t, src.reads)
}

func TestRenderIsIdempotent(t *testing.T) {
	src := &stubOriginals{files: map[string]string{"a.txt": "a\nb\nc\n"}}
	args := &ResponseArguments{Edits: []FileEdit{
		{Path: "a.txt", Content: "a\nB\nc\n"},
		{Path: "b.txt", Content: "new\npart"},
	}}

	first := Render(args, false, src)
	second := Render(args, false, src)
	assert.Equal(t, first.Text, second.Text)
}

func TestRenderSettlement(t *testing.T) {
	src := &stubOriginals{}
	args := &ResponseArguments{Edits: []FileEdit{
		{Path: "a.txt", Content: "x\ny"},
		{Path: "b.txt", Content: "p\nq"},
	}}

	streaming := Render(args, false, src).Text
	// Only the last edit can still grow.
	assert.Contains(t, streaming, "+y\n"+noNewlineMarker)
	assert.Contains(t, streaming, "~q\n")
	assert.NotContains(t, streaming, "+q")

	ended := Render(args, true, src).Text
	assert.Contains(t, ended, "+q\n"+noNewlineMarker)
	assert.NotContains(t, ended, "~q")
}

func TestRenderReadFailureIsIsolated(t *testing.T) {
	broken := errors.New("permission denied")
	src := &stubOriginals{
		files:  map[string]string{"1.txt": "one\n", "3.txt": "three\n"},
		failed: map[string]error{"2.txt": broken},
	}
	args := &ResponseArguments{Edits: []FileEdit{
		{Path: "1.txt", Content: "ONE\n"},
		{Path: "2.txt", Content: "TWO\n"},
		{Path: "3.txt", Content: "THREE\n"},
	}}

	frame := Render(args, true, src)
	require.NotNil(t, frame)
	require.Len(t, frame.Errors, 1)
	assert.Equal(t, "2.txt", frame.Errors[0].Path)
	assert.ErrorIs(t, frame.Errors[0], broken)

	assert.Contains(t, frame.Text, "+ONE\n")
	assert.Contains(t, frame.Text, "(!) cannot read original 2.txt")
	assert.NotContains(t, frame.Text, "+TWO")
	assert.Contains(t, frame.Text, "+THREE\n")
}

func TestOriginals(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a\nb"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0755))

	fsys, err := NewDiskFS(root)
	require.NoError(t, err)
	originals, err := NewOriginals(fsys, 4)
	require.NoError(t, err)

	lines, err := originals.Lines("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"a\n", "b"}, lines)

	t.Run("cached for the rest of the response", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("changed\n"), 0644))
		lines, err := originals.Lines("a.txt")
		require.NoError(t, err)
		assert.Equal(t, []string{"a\n", "b"}, lines)

		originals.Purge()
		lines, err = originals.Lines("a.txt")
		require.NoError(t, err)
		assert.Equal(t, []string{"changed\n"}, lines)
	})

	t.Run("missing file is empty", func(t *testing.T) {
		lines, err := originals.Lines("new/file.txt")
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("unreadable file fails", func(t *testing.T) {
		_, err := originals.Lines("dir")
		assert.Error(t, err)
	})
}

package liveedit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkRunes(t *testing.T) {
	assert.Equal(t, []string{"hé", "ll", "o"}, chunkRunes("héllo", 2))
	assert.Nil(t, chunkRunes("", 4))
}

func TestReplaySource(t *testing.T) {
	src := NewReplaySource("abcdefg", 3, 0)

	var got []string
	err := src.Stream(context.Background(), func(fragment string) error {
		got = append(got, fragment)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "def", "g"}, got)
}

func TestReplaySourceStops(t *testing.T) {
	t.Run("emit error", func(t *testing.T) {
		stop := errors.New("stop")
		calls := 0
		err := NewReplaySource("abcdefg", 1, 0).Stream(context.Background(), func(string) error {
			calls++
			if calls == 2 {
				return stop
			}
			return nil
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 2, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewReplaySource("abc", 1, 0).Stream(ctx, func(string) error {
			t.Fatal("nothing should be emitted")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestReadReplayInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "response.json")
	require.NoError(t, os.WriteFile(path, []byte(twoFileResponse), 0644))

	text, err := ReadReplayInput(path)
	require.NoError(t, err)
	assert.Equal(t, twoFileResponse, text)

	_, err = ReadReplayInput(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReplayedResponseRendersLikeWhole(t *testing.T) {
	fsys := newTestFS(t, map[string]string{"a.txt": "hello\n"})
	s, err := NewSession(fsys)
	require.NoError(t, err)

	err = NewReplaySource(twoFileResponse, 5, 0).Stream(context.Background(), func(fragment string) error {
		_, err := s.Feed(fragment)
		return err
	})
	require.NoError(t, err)
	final, err := s.Finish()
	require.NoError(t, err)

	whole, err := Preview(twoFileResponse, fsys.Root())
	require.NoError(t, err)
	assert.Equal(t, whole, final.Text)
	assert.True(t, strings.HasPrefix(whole, "Greet\n\n"))
}

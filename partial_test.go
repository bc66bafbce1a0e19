package liveedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePartial(t *testing.T) {
	t.Run("nothing decodable yet", func(t *testing.T) {
		for _, raw := range []string{"", "   ", "\n"} {
			_, ok := DecodePartial(raw)
			assert.False(t, ok, "raw %q", raw)
		}
	})

	t.Run("open object has no edits", func(t *testing.T) {
		args, ok := DecodePartial("{")
		require.True(t, ok)
		assert.Empty(t, args.Edits)
		assert.False(t, args.HasExplanation)
	})

	t.Run("truncated explanation", func(t *testing.T) {
		args, ok := DecodePartial(`{"explanation": "Fix the bu`)
		require.True(t, ok)
		assert.Equal(t, "Fix the bu", args.Explanation)
		assert.True(t, args.HasExplanation)
	})

	t.Run("truncated content", func(t *testing.T) {
		args, ok := DecodePartial(`{"edits": [{"path": "a.go", "content": "package ma`)
		require.True(t, ok)
		require.Len(t, args.Edits, 1)
		assert.Equal(t, FileEdit{Path: "a.go", Content: "package ma"}, args.Edits[0])
	})

	t.Run("truncated path is dropped", func(t *testing.T) {
		args, ok := DecodePartial(`{"edits": [{"path": "a.g`)
		require.True(t, ok)
		require.Len(t, args.Edits, 1)
		assert.Equal(t, FileEdit{}, args.Edits[0])
	})

	t.Run("complete document", func(t *testing.T) {
		raw := `{"explanation":"two files","edits":[{"path":"a","content":"1\n"},{"path":"b","content":"2\n"}]}`
		args, ok := DecodePartial(raw)
		require.True(t, ok)
		assert.Equal(t, "two files", args.Explanation)
		assert.Equal(t, []FileEdit{{Path: "a", Content: "1\n"}, {Path: "b", Content: "2\n"}}, args.Edits)
	})

	t.Run("files alias", func(t *testing.T) {
		args, ok := DecodePartial(`{"files":[{"path":"a","content":"x"}]}`)
		require.True(t, ok)
		assert.Equal(t, []FileEdit{{Path: "a", Content: "x"}}, args.Edits)
	})

	t.Run("malformed items keep their index", func(t *testing.T) {
		args, ok := DecodePartial(`{"edits":[42,{"path":"b","content":"y"}]}`)
		require.True(t, ok)
		require.Len(t, args.Edits, 2)
		assert.Equal(t, FileEdit{}, args.Edits[0])
		assert.Equal(t, "b", args.Edits[1].Path)
	})
}

func TestDecodePartialEscapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"simple escapes", `{"edits":[{"path":"a","content":"x\n\"y\"\t\\"}]}`, "x\n\"y\"\t\\"},
		{"unicode escape", `{"edits":[{"path":"a","content":"caf\u00e9"}]}`, "café"},
		{"surrogate pair", `{"edits":[{"path":"a","content":"\ud83d\ude00"}]}`, "😀"},
		{"truncated backslash", `{"edits":[{"path":"a","content":"x\`, "x"},
		{"truncated unicode", `{"edits":[{"path":"a","content":"x\u00`, "x"},
		{"truncated low surrogate", `{"edits":[{"path":"a","content":"x\ud83d\ude`, "x"},
		{"split multi-byte rune", "{\"edits\":[{\"path\":\"a\",\"content\":\"caf\xc3", "caf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, ok := DecodePartial(tt.raw)
			require.True(t, ok)
			require.Len(t, args.Edits, 1)
			assert.Equal(t, tt.want, args.Edits[0].Content)
		})
	}
}

func TestDecodePartialRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{
		`[1, 2]`,
		`"just a string"`,
		`hello`,
		`{"a" 1}`,
		`{"edits": [}`,
		`{"edits":[{"path":"a","content":"\q"}]}`,
	} {
		_, ok := DecodePartial(raw)
		assert.False(t, ok, "raw %q", raw)
	}
}

func TestDecodePartialPrefixesGrow(t *testing.T) {
	raw := `{"explanation":"Rename","edits":[{"path":"main.go","content":"package main\n\nfunc main() {}\n"},{"path":"b.go","content":"package b\n"}]}`

	var prev *ResponseArguments
	for i := 1; i <= len(raw); i++ {
		args, ok := DecodePartial(raw[:i])
		if !ok {
			continue
		}
		if prev != nil {
			require.NoError(t, checkRegression(prev, &args), "prefix %q", raw[:i])
		}
		prev = &args
	}

	require.NotNil(t, prev)
	assert.Len(t, prev.Edits, 2)
}

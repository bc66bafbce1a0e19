package liveedit

// FileEdit is the target state of one file as carried by the response.
type FileEdit struct {
	Path    string
	Content string
}

// ResponseArguments is the best-effort structured value decoded from the
// raw response text received so far.
type ResponseArguments struct {
	Explanation    string
	HasExplanation bool
	Edits          []FileEdit
}

// Settled reports whether the edit at index i of n can still receive
// content. Only the last edit of a growing sequence is open; everything is
// settled once the stream has ended.
func Settled(i, n int, streamEnded bool) bool {
	return i < n-1 || streamEnded
}

// LineStats counts added and removed lines for one written file.
type LineStats struct {
	Added   int
	Removed int
}

// Summary holds the results of a commit, undo or redo for display.
type Summary struct {
	// Paths lists every distinct path written, in first-write order.
	Paths    []string
	Created  []string
	Modified []string
	Deleted  []string
	Failed   []string
	Stats    map[string]LineStats
	Message  string
}

// Edited reports whether any file was written.
func (s *Summary) Edited() bool {
	return s != nil && len(s.Paths) > 0
}

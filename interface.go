package liveedit

// Apply decodes a complete response and writes its edits under root,
// recording the commit in root's journal. It is the non-interactive form of
// streaming a response with --write.
func Apply(raw, root string) (*Summary, error) {
	fsys, err := NewDiskFS(root)
	if err != nil {
		return nil, err
	}
	journal, err := OpenJournal(fsys.Root())
	if err != nil {
		return nil, err
	}

	s, err := NewSession(fsys, WithJournal(journal))
	if err != nil {
		return nil, err
	}
	if _, err := s.Feed(raw); err != nil {
		return nil, err
	}
	if _, err := s.Finish(); err != nil {
		return nil, err
	}
	if s.Args() == nil {
		return nil, ErrDecodeIncomplete
	}
	return s.Commit()
}

// Preview renders a complete response against the files under root without
// writing anything.
func Preview(raw, root string) (string, error) {
	fsys, err := NewDiskFS(root)
	if err != nil {
		return "", err
	}
	originals, err := NewOriginals(fsys, defaultCacheSize)
	if err != nil {
		return "", err
	}

	args, ok := DecodePartial(raw)
	if !ok {
		return "", ErrDecodeIncomplete
	}
	return Render(&args, true, originals).Text, nil
}

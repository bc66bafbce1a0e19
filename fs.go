package liveedit

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileSystem is where originals are read from and edits are written to.
// Paths are relative to Root unless absolute.
type FileSystem interface {
	Root() string
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Remove(path string) error
}

// DiskFS reads and writes files directly under a project root.
type DiskFS struct {
	root string
}

// NewDiskFS creates a DiskFS rooted at root, or at the working directory
// when root is empty.
func NewDiskFS(root string) (*DiskFS, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid project root %q: %w", root, err)
	}
	return &DiskFS{root: abs}, nil
}

func (d *DiskFS) Root() string { return d.root }

// Resolve maps path to an absolute filesystem path.
func (d *DiskFS) Resolve(path string) string {
	return resolvePath(d.root, path)
}

func (d *DiskFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(d.Resolve(path))
}

// WriteFile overwrites or creates the file. Parent directories must exist.
func (d *DiskFS) WriteFile(path string, data []byte) error {
	return os.WriteFile(d.Resolve(path), data, 0644)
}

func (d *DiskFS) Remove(path string) error {
	return os.Remove(d.Resolve(path))
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

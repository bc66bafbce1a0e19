package liveedit

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/neovim/go-client/nvim"
)

const undoDir = "~/.local/state/nvim/undo/"

// NvimFS writes edits through Neovim buffers so that open editors and
// persistent undo see them. Reads go straight to disk.
type NvimFS struct {
	*DiskFS
	v             *nvim.Nvim
	isSelfStarted bool
	cmd           *exec.Cmd
	socketPath    string
}

// NewNvimFS attaches to $NVIM_LISTEN_ADDRESS, or starts a headless
// instance when no editor is listening.
func NewNvimFS(root string) (*NvimFS, error) {
	disk, err := NewDiskFS(root)
	if err != nil {
		return nil, err
	}

	if addr := os.Getenv("NVIM_LISTEN_ADDRESS"); addr != "" {
		v, err := nvim.Dial(addr)
		if err == nil {
			log.Info("attached to nvim at %s", addr)
			return &NvimFS{DiskFS: disk, v: v}, nil
		}
		log.Debug("nvim at %s unreachable, starting headless: %v", addr, err)
	}

	tmpDir, err := os.MkdirTemp("", "liveedit-nvim-")
	if err != nil {
		return nil, err
	}
	socketPath := filepath.Join(tmpDir, "nvim.sock")

	cmd := exec.Command("nvim", "--headless", "--clean", "--listen", socketPath)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to start nvim: %w", err)
	}

	for i := 0; i < 20; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	v, err := nvim.Dial(socketPath)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to connect to nvim: %w", err)
	}

	n := &NvimFS{DiskFS: disk, v: v, isSelfStarted: true, cmd: cmd, socketPath: socketPath}
	n.configureTempInstance()
	return n, nil
}

func (n *NvimFS) configureTempInstance() {
	home, _ := os.UserHomeDir()
	expandedUndoDir := strings.Replace(undoDir, "~", home, 1)
	os.MkdirAll(expandedUndoDir, 0755)

	b := n.v.NewBatch()
	b.Command("set undofile")
	b.Command("set undodir=" + expandedUndoDir)
	b.Command("set noswapfile")
	if err := b.Execute(); err != nil {
		log.Debug("configuring headless nvim: %v", err)
	}
}

// WriteFile replaces the buffer content of path and writes it.
func (n *NvimFS) WriteFile(path string, data []byte) error {
	hasEOL := len(data) == 0 || bytes.HasSuffix(data, []byte("\n"))
	lines := bytes.Split(bytes.TrimSuffix(data, []byte("\n")), []byte("\n"))

	eol := "eol"
	if !hasEOL {
		eol = "noeol nofixeol"
	}

	b := n.v.NewBatch()
	b.Command("execute 'edit!' fnameescape(" + vimString(n.Resolve(path)) + ")")
	b.SetBufferLines(0, 0, -1, true, lines)
	b.Command("setlocal " + eol)
	b.Command("write")
	return b.Execute()
}

// Remove deletes path and wipes its buffer.
func (n *NvimFS) Remove(path string) error {
	abs := n.Resolve(path)
	if err := os.Remove(abs); err != nil {
		return err
	}
	if err := n.v.Command("silent! execute 'bwipeout!' fnameescape(" + vimString(abs) + ")"); err != nil {
		log.Debug("wiping buffer %s: %v", abs, err)
	}
	return nil
}

// Close disconnects, stopping the instance if this process started it.
func (n *NvimFS) Close() {
	if n.v != nil {
		n.v.Close()
	}
	if n.isSelfStarted && n.cmd != nil && n.cmd.Process != nil {
		n.cmd.Process.Kill()
		n.cmd.Wait()
		os.RemoveAll(filepath.Dir(n.socketPath))
	}
}

func vimString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

package liveedit

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultChunkSize = 24
	defaultDelay     = 15 * time.Millisecond
	defaultCacheSize = 128
	defaultModel     = "gemini-2.5-flash"
)

// Config holds everything an App needs. Values come from the project's .env
// file and the environment; command-line flags override them.
type Config struct {
	Root string
	// Input is a recorded response file; empty means stdin or clipboard.
	Input     string
	ChunkSize int
	Delay     time.Duration
	CacheSize int

	Prompt string
	Model  string
	APIKey string

	Write       bool
	UseNvim     bool
	NoAnimation bool
	Plain       bool
	Undo        bool
	Redo        bool
}

// LoadConfig reads <root>/.env, if present, and the LIVEEDIT_* environment.
func LoadConfig(root string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(root, ".env"))

	cfg := &Config{
		Root:   root,
		Model:  firstNonEmpty(os.Getenv("LIVEEDIT_MODEL"), defaultModel),
		APIKey: firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY")),
	}

	var err error
	if cfg.ChunkSize, err = envInt("LIVEEDIT_CHUNK_SIZE", defaultChunkSize); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = envInt("LIVEEDIT_CACHE_SIZE", defaultCacheSize); err != nil {
		return nil, err
	}
	delayMS, err := envInt("LIVEEDIT_DELAY_MS", int(defaultDelay/time.Millisecond))
	if err != nil {
		return nil, err
	}
	cfg.Delay = time.Duration(delayMS) * time.Millisecond

	return cfg, nil
}

// Validate checks option combinations.
func (c *Config) Validate() error {
	if c.Undo && c.Redo {
		return fmt.Errorf("%w: --undo and --redo are mutually exclusive", ErrInvalidConfig)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.Prompt != "" && c.Input != "" {
		return fmt.Errorf("%w: a prompt and an input file cannot be used together", ErrInvalidConfig)
	}
	return nil
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s=%q is not a non-negative integer", ErrInvalidConfig, key, raw)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

package liveedit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes debug logs to a file when LIVEEDIT_DEBUG=1 or
// ~/.liveedit/debug exists. Errors always go to stderr as well.
type Logger struct {
	once    sync.Once
	mu      sync.Mutex
	file    *os.File
	enabled bool
	stderr  io.Writer
}

var log = &Logger{stderr: os.Stderr}

// GetLogger returns the package logger.
func GetLogger() *Logger { return log }

func (l *Logger) init() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}

	_, statErr := os.Stat(filepath.Join(home, stateDirName, "debug"))
	if os.Getenv("LIVEEDIT_DEBUG") != "1" && statErr != nil {
		return
	}

	logsDir := filepath.Join(home, stateDirName, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Fprintf(l.stderr, "liveedit log: failed to create logs dir %s: %v\n", logsDir, err)
		return
	}

	logPath := filepath.Join(logsDir, fmt.Sprintf("liveedit-%s.log", time.Now().Format("2006-01-02_15-04-05")))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(l.stderr, "liveedit log: failed to open log file %s: %v\n", logPath, err)
		return
	}

	l.file = file
	l.enabled = true
	l.logf("INFO", "Log file: %s", logPath)
}

// Enabled reports whether debug logging is on.
func (l *Logger) Enabled() bool {
	l.once.Do(l.init)
	return l.enabled
}

func (l *Logger) logf(level, format string, args ...any) {
	if l.file == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.file, "[%s] %s: %s\n", time.Now().Format("15:04:05.000"), level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) {
	if l.Enabled() {
		l.logf("DEBUG", format, args...)
	}
}

func (l *Logger) Info(format string, args ...any) {
	if l.Enabled() {
		l.logf("INFO", format, args...)
	}
}

// Error logs to the file and to stderr.
func (l *Logger) Error(format string, args ...any) {
	fmt.Fprintf(l.stderr, "liveedit error: %s\n", fmt.Sprintf(format, args...))
	if l.Enabled() {
		l.logf("ERROR", format, args...)
	}
}

// Stream logs a received fragment.
func (l *Logger) Stream(event, content string) {
	if l.Enabled() {
		l.logf("STREAM", "[%s] %s", event, truncate(content, 200))
	}
}

// SetOutput redirects the stderr copy of error logs.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stderr = w
}

// Close closes the log file.
func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

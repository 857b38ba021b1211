// Package logger provides levelled logging for docrag.
// Console output is gated by verbose mode (the --verbose flag) so that
// normal CLI output stays clean. When a log directory is configured,
// every message at or above the configured level is also appended to
// docrag.log in that directory.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level is a log severity.
type Level int

// Log levels, lowest first.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// FileName is the name of the log file created inside the log directory.
const FileName = "docrag.log"

var (
	mu      sync.RWMutex
	verbose bool
	level             = LevelInfo
	output  io.Writer = os.Stderr
	file    io.WriteCloser
)

// String returns the level tag used in log lines.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to a Level. Unknown names map to LevelInfo.
// WARNING is accepted as an alias of WARN.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetVerbose enables or disables verbose console logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetLevel sets the minimum level written to the log file.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// GetLevel returns the minimum level written to the log file.
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetOutput sets the console writer.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// OpenFile starts appending log lines to dir/docrag.log.
// Any previously opened file is closed first.
func OpenFile(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
	}
	file = f
	return nil
}

// Close closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// Debug logs a debug message.
func Debug(format string, args ...any) {
	write(LevelDebug, format, args...)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	write(LevelInfo, format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	write(LevelWarn, format, args...)
}

// Error logs an error. Errors reach the log file at every level.
func Error(format string, args ...any) {
	write(LevelError, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
	if file != nil && level == LevelDebug {
		fmt.Fprintf(file, "%s [DEBUG] === %s ===\n", timestamp(), name)
	}
}

func write(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "["+l.String()+"] "+format+"\n", args...)
	}
	if file != nil && l >= level {
		fmt.Fprintf(file, "%s [%s] %s\n", timestamp(), l, fmt.Sprintf(format, args...))
	}
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

// Package logging builds the application logger: console output plus a
// rotated log file under the user state directory.
package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration.
type Config struct {
	Level   string
	LogFile string
	NoColor bool
}

// DefaultLogFile returns the default log file path under the XDG state
// directory.
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, _ := os.UserHomeDir()
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "program-installer", "installer.log")
}

// New creates a zerolog logger with dual output (console + file).
func New(cfg Config) zerolog.Logger {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        newProgressSafeWriter(os.Stderr),
		TimeFormat: "15:04:05",
		NoColor:    cfg.NoColor,
	}

	writers := []io.Writer{consoleWriter}

	if cfg.LogFile != "" {
		dir := filepath.Dir(cfg.LogFile)
		if err := os.MkdirAll(dir, 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    5, // MB
				MaxBackups: 2,
				MaxAge:     28, // days
				Compress:   true,
			})
		}
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// NewTestLogger creates a logger for tests that writes to the given writer.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// progressSafeWriter keeps console log lines from overlapping the CLI's
// carriage-return progress output. It clears the current terminal line
// before each log entry.
type progressSafeWriter struct {
	out       io.Writer
	lineStart bool
	mu        sync.Mutex
	clearSeq  []byte
}

func newProgressSafeWriter(out io.Writer) *progressSafeWriter {
	return &progressSafeWriter{
		out:       out,
		lineStart: true,
		clearSeq:  []byte("\r\033[2K"),
	}
}

func (w *progressSafeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.lineStart {
		if _, err := w.out.Write(w.clearSeq); err != nil {
			return 0, err
		}
		w.lineStart = false
	}

	n, err := w.out.Write(p)

	if n > 0 && bytes.LastIndexByte(p[:n], '\n') == n-1 {
		w.lineStart = true
	}

	return n, err
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

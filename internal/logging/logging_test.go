package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestParseLevel tests log level parsing with fallback
func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

// TestDefaultLogFile tests XDG state dir resolution
func TestDefaultLogFile(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)

	want := filepath.Join(state, "program-installer", "installer.log")
	if got := DefaultLogFile(); got != want {
		t.Errorf("DefaultLogFile = %s, want %s", got, want)
	}
}

// TestNewWritesLogFile tests that the file sink receives entries
func TestNewWritesLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "test.log")

	log := New(Config{Level: "debug", LogFile: logFile, NoColor: true})
	log.Info().Str("key", "value").Msg("hello from the test")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Log file was not written: %v", err)
	}
	if !strings.Contains(string(data), "hello from the test") {
		t.Errorf("Log file missing the message: %s", data)
	}

	// The file sink carries structured JSON.
	line := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)[0]
	var record map[string]interface{}
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("Log line is not JSON: %v", err)
	}
	if record["key"] != "value" {
		t.Errorf("Structured field lost: %v", record)
	}
}

// TestNewHonorsLevel tests that entries below the level are dropped
func TestNewHonorsLevel(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	log := New(Config{Level: "error", LogFile: logFile, NoColor: true})
	log.Info().Msg("should be dropped")
	log.Error().Msg("should be kept")

	data, _ := os.ReadFile(logFile)
	if strings.Contains(string(data), "should be dropped") {
		t.Error("Info entry should have been filtered at error level")
	}
	if !strings.Contains(string(data), "should be kept") {
		t.Error("Error entry is missing")
	}
}

// TestNewTestLogger tests the test logger writes to the given writer
func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewTestLogger(&buf)
	log.Warn().Msg("captured")

	if !strings.Contains(buf.String(), "captured") {
		t.Errorf("Test logger output = %q", buf.String())
	}
}

// TestProgressSafeWriter tests line clearing around progress output
func TestProgressSafeWriter(t *testing.T) {
	var buf bytes.Buffer
	w := newProgressSafeWriter(&buf)

	if _, err := w.Write([]byte("first line\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("second line\n")); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if strings.Count(out, "\r\033[2K") != 2 {
		t.Errorf("Each line should start with the clear sequence: %q", out)
	}
	if !strings.Contains(out, "first line") || !strings.Contains(out, "second line") {
		t.Errorf("Output lost content: %q", out)
	}
}

// TestProgressSafeWriterPartialLine tests that a split line clears only once
func TestProgressSafeWriterPartialLine(t *testing.T) {
	var buf bytes.Buffer
	w := newProgressSafeWriter(&buf)

	w.Write([]byte("partial "))
	w.Write([]byte("rest\n"))

	if strings.Count(buf.String(), "\r\033[2K") != 1 {
		t.Errorf("A line written in two parts should clear once: %q", buf.String())
	}
}

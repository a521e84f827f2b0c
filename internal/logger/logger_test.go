package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn, &buf)

	l.Debug("debug message", nil)
	l.Info("info message", nil)
	l.Warn("warn message", nil)
	l.Error("error message", nil, errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines at WARN level, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "warn message") {
		t.Errorf("expected first line to be the warning, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "boom") {
		t.Errorf("expected error line to include error string, got %q", lines[1])
	}
}

func TestLoggerStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo, &buf)

	l.Info("source fetched", Fields{"source": "TechPoint", "records": 12})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}
	if entry.Level != "INFO" {
		t.Errorf("expected level INFO, got %s", entry.Level)
	}
	if entry.Fields["source"] != "TechPoint" {
		t.Errorf("expected source field, got %v", entry.Fields)
	}
	if entry.Timestamp == "" {
		t.Error("expected timestamp to be set")
	}
}

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"ERROR", LevelError, false},
		{"invalid", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			if test.hasError && err == nil {
				t.Error("expected error, got nil")
			}
			if !test.hasError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.hasError && level != test.expected {
				t.Errorf("expected %v, got %v", test.expected, level)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		parsed, err := ParseLevel(LevelString(level))
		if err != nil {
			t.Fatalf("ParseLevel(LevelString(%v)): %v", level, err)
		}
		if parsed != level {
			t.Errorf("expected %v, got %v", level, parsed)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("expected default level Info, got %v", cfg.Level)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected default output stderr, got %s", cfg.Output)
	}
	if cfg.Component != "pressviz" {
		t.Errorf("expected component pressviz, got %s", cfg.Component)
	}
	if cfg.MaxSize <= 0 || cfg.MaxBackups <= 0 {
		t.Errorf("expected positive rotation limits, got %d/%d", cfg.MaxSize, cfg.MaxBackups)
	}
}

func TestJSONFormatWithComponent(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(&Config{
		Level:     LevelInfo,
		Format:    FormatJSON,
		Component: "test",
		Writer:    &buf,
	})
	if err != nil {
		t.Fatalf("failed to create JSON logger: %v", err)
	}

	logger.WithComponent("capture").Info("started", "backend", "simulated")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "started" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["backend"] != "simulated" {
		t.Errorf("unexpected backend: %v", entry["backend"])
	}
}

func TestKeyTextRedaction(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&Config{Level: LevelDebug, Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Debug("shown", "text", "⌘C", "count", 2)
	out := buf.String()
	if strings.Contains(out, "⌘C") {
		t.Errorf("key text leaked into log: %q", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("expected redaction marker: %q", out)
	}

	buf.Reset()
	logger, _ = New(&Config{Level: LevelDebug, Writer: &buf, ShowKeyText: true})
	logger.Debug("shown", "text", "⌘C")
	if !strings.Contains(buf.String(), "⌘C") {
		t.Errorf("expected key text with ShowKeyText: %q", buf.String())
	}
}

func TestShouldRedact(t *testing.T) {
	tests := map[string]bool{
		"text":       true,
		"Characters": true,
		"display":    true,
		"keycode":    false,
		"button":     false,
	}
	for key, want := range tests {
		if got := shouldRedact(key); got != want {
			t.Errorf("shouldRedact(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l == nil || l.Logger == nil {
		t.Fatal("Discard returned nil logger")
	}
	l.Error("dropped")
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(&Config{Level: LevelInfo, Writer: &buf})

	if logger.Recover("ok", func() {}) {
		t.Error("no panic expected")
	}

	if !logger.Recover("tick", func() { panic("boom") }) {
		t.Error("panic should be reported")
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("panic value missing from log: %q", buf.String())
	}
}

func TestFileRotator(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "test.log")

	rotator, err := NewFileRotator(&Config{FilePath: logPath, MaxSize: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("failed to create rotator: %v", err)
	}
	defer rotator.Close()

	data := []byte("test log line\n")
	n, err := rotator.Write(data)
	if err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if n != len(data) {
		t.Errorf("expected to write %d bytes, wrote %d", len(data), n)
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestFileRotatorRotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	rotator, err := NewFileRotator(&Config{FilePath: logPath, MaxSize: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("failed to create rotator: %v", err)
	}
	defer rotator.Close()

	chunk := bytes.Repeat([]byte("x"), 600*1024)
	for i := 0; i < 4; i++ {
		if _, err := rotator.Write(chunk); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	if _, err := os.Stat(logPath + ".1"); err != nil {
		t.Errorf("expected first backup: %v", err)
	}
	if _, err := os.Stat(logPath + ".2"); err != nil {
		t.Errorf("expected second backup: %v", err)
	}
	if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
		t.Errorf("backup beyond MaxBackups should not exist")
	}
}

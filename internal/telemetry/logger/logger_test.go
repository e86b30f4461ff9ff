package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default config", cfg: DefaultConfig()},
		{name: "text format", cfg: Config{Level: "debug", Format: "text"}},
		{name: "console format", cfg: Config{Level: "info", Format: "console"}},
		{name: "empty level and format", cfg: Config{}},
		{name: "unknown format", cfg: Config{Format: "xml"}, wantErr: true},
		{name: "unknown level", cfg: Config{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if l == nil || l.Slog() == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("test message", "component", "test-value")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("invalid JSON output: %v (%q)", err, buf.String())
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["msg"] != "test message" {
				t.Errorf("msg = %v, want test message", entry["msg"])
			}
			if entry["component"] != "test-value" {
				t.Errorf("component = %v, want test-value", entry["component"])
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug logged at info level: %q", buf.String())
	}

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	if GetLevel() != "debug" {
		t.Errorf("GetLevel() = %q, want debug", GetLevel())
	}
	l.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug not logged after SetLevel: %q", buf.String())
	}

	if err := SetLevel("nonsense"); err == nil {
		t.Error("SetLevel(nonsense) expected error")
	}
	if GetLevel() != "debug" {
		t.Errorf("GetLevel() after bad SetLevel = %q, want debug", GetLevel())
	}

	_ = SetLevel("info")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})

	l.With("conn", "01H").Info("accepted")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if entry["conn"] != "01H" {
		t.Errorf("conn = %v, want 01H", entry["conn"])
	}
}

func TestLogger_TruncatesLongValues(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf, MaxAttrLen: 8})

	l.Info("stored", "value", strings.Repeat("x", 20), "key", "short")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if got, want := entry["value"], "xxxxxxxx...(12 more bytes)"; got != want {
		t.Errorf("value = %v, want %v", got, want)
	}
	if entry["key"] != "short" {
		t.Errorf("key = %v, want short", entry["key"])
	}
	if entry["msg"] != "stored" {
		t.Errorf("msg = %v, want stored", entry["msg"])
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	// "é" is two bytes; cutting at 3 would split the second one.
	got := truncate("éééé", 3)
	if !strings.HasPrefix(got, "é...") {
		t.Errorf("truncate = %q, want prefix %q", got, "é...")
	}
}

func TestLogger_TruncatesGroupMembers(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf, MaxAttrLen: 4})

	l.Info("command", slog.Group("cmd", slog.String("arg", strings.Repeat("y", 10)), slog.Int("n", 3)))

	var entry struct {
		Cmd struct {
			Arg string  `json:"arg"`
			N   float64 `json:"n"`
		} `json:"cmd"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if entry.Cmd.Arg != "yyyy...(6 more bytes)" {
		t.Errorf("cmd.arg = %q", entry.Cmd.Arg)
	}
	if entry.Cmd.N != 3 {
		t.Errorf("cmd.n = %v, want 3", entry.Cmd.N)
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}

	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "text", Output: &buf})
	prev := Default()
	SetDefault(l)
	defer SetDefault(prev)

	if Default() != l {
		t.Error("SetDefault did not replace the default logger")
	}
	slog.Info("through slog default")
	if !strings.Contains(buf.String(), "through slog default") {
		t.Errorf("slog default not redirected: %q", buf.String())
	}
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/neurofig/internal/constants"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"info", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"Trace", LevelTrace},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, s := range []string{"info", "debug", "trace", "INFO"} {
		if !ValidLevel(s) {
			t.Errorf("ValidLevel(%q) = false", s)
		}
	}
	for _, s := range []string{"", "warn", "verbose"} {
		if ValidLevel(s) {
			t.Errorf("ValidLevel(%q) = true", s)
		}
	}
}

func TestNewLoggerFiltering(t *testing.T) {
	tests := []struct {
		level                string
		wantTrace, wantDebug bool
	}{
		{"info", false, false},
		{"debug", false, true},
		{"trace", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			Trace(context.Background(), logger, "trace message")
			if got := strings.Contains(buf.String(), "trace message"); got != tt.wantTrace {
				t.Errorf("trace visible = %v, want %v", got, tt.wantTrace)
			}
			if tt.wantTrace && !strings.Contains(buf.String(), "level=TRACE") {
				t.Errorf("trace level not labelled: %q", buf.String())
			}

			buf.Reset()
			logger.Debug("debug message")
			if got := strings.Contains(buf.String(), "debug message"); got != tt.wantDebug {
				t.Errorf("debug visible = %v, want %v", got, tt.wantDebug)
			}

			buf.Reset()
			logger.Info("info message")
			if !strings.Contains(buf.String(), "info message") {
				t.Error("info message filtered")
			}
		})
	}
}

func TestRenderLogInfoLevel(t *testing.T) {
	dir := t.TempDir()
	rl := NewRenderLog(dir, "info")
	if rl != nil {
		t.Fatal("NewRenderLog at info level should be nil")
	}
	rl.Log(RenderEvent{Event: "render"})
	rl.Close()
	if _, err := os.Stat(filepath.Join(dir, constants.RenderLogName)); err == nil {
		t.Error("render log created at info level")
	}
}

func TestRenderLogWrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".neurofig")
	rl := NewRenderLog(dir, "debug")
	if rl == nil {
		t.Fatal("NewRenderLog at debug level returned nil")
	}
	rl.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	rl.Log(RenderEvent{Event: "render", Figure: "sigmoid", Params: map[string]float64{"u_ref": -62.5}})
	rl.Log(RenderEvent{Event: "error", Figure: "leaky-noise", Error: "missing input", Time: "fixed"})
	rl.Close()
	rl.Log(RenderEvent{Event: "after close"})

	path := filepath.Join(dir, constants.RenderLogName)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 0600", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), data)
	}
	var first, second RenderEvent
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if first.Figure != "sigmoid" || first.Params["u_ref"] != -62.5 {
		t.Errorf("first = %+v", first)
	}
	if first.Time != "2026-03-01T12:00:00Z" {
		t.Errorf("first.Time = %q", first.Time)
	}
	if second.Time != "fixed" || second.Error != "missing input" {
		t.Errorf("second = %+v", second)
	}
}

func TestRenderLogNilSafety(t *testing.T) {
	var rl *RenderLog
	rl.Log(RenderEvent{Event: "render"})
	rl.Close()
}

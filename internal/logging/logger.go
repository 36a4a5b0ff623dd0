// Package logging provides neurofig's two log outputs:
//   - a leveled slog.Logger on stderr for operational messages
//   - a RenderLog of JSONL render traces in .neurofig/renders.jsonl
package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvandessel/neurofig/internal/constants"
)

// LevelTrace sits below Debug and adds per-step render detail.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps "info", "debug" or "trace" (any case) to a level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether s names a known level.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "info", "debug", "trace":
		return true
	}
	return false
}

// NewLogger creates a leveled text logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Trace logs at LevelTrace.
func Trace(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	logger.Log(ctx, LevelTrace, msg, args...)
}

// RenderEvent is one line of the render trace.
type RenderEvent struct {
	Time     string             `json:"time"`
	Event    string             `json:"event"`
	Figure   string             `json:"figure,omitempty"`
	Params   map[string]float64 `json:"params,omitempty"`
	Options  map[string]string  `json:"options,omitempty"`
	Input    string             `json:"input,omitempty"`
	Output   string             `json:"output,omitempty"`
	Bytes    int64              `json:"bytes,omitempty"`
	Checksum string             `json:"checksum,omitempty"`
	Duration string             `json:"duration,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// RenderLog appends RenderEvents to a JSONL file. It is safe for concurrent
// use, and a nil *RenderLog ignores every call.
type RenderLog struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// NewRenderLog opens dir/renders.jsonl for append. At info level it returns
// nil and creates nothing. It also returns nil when the file cannot be
// opened, since the trace is best effort.
func NewRenderLog(dir, level string) *RenderLog {
	if ParseLevel(level) == slog.LevelInfo {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, constants.RenderLogName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &RenderLog{file: f, now: time.Now}
}

// Log writes e as one line, stamping Time when it is empty.
func (rl *RenderLog) Log(e RenderEvent) {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.file == nil {
		return
	}
	if e.Time == "" {
		e.Time = rl.now().UTC().Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	_, _ = rl.file.Write(append(data, '\n'))
}

// Close closes the file. Later calls to Log are ignored.
func (rl *RenderLog) Close() {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.file != nil {
		rl.file.Close()
		rl.file = nil
	}
}

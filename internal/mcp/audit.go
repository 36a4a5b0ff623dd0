package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nvandessel/neurofig/internal/constants"
)

// AuditEntry records one MCP tool call. Params carries metadata only.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Tool       string            `json:"tool"`
	DurationMs int64             `json:"duration_ms"`
	Status     string            `json:"status"` // "success" or "error"
	Error      string            `json:"error,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// AuditLogger appends AuditEntries to .neurofig/audit.jsonl. It is safe
// for concurrent use and a nil *AuditLogger ignores every call.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditLogger opens dir/audit.jsonl for append. It returns nil when
// the file cannot be opened.
func NewAuditLogger(dir string) *AuditLogger {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, constants.AuditLogName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &AuditLogger{file: f}
}

// Log appends entry as one JSON line.
func (a *AuditLogger) Log(entry AuditEntry) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = a.file.Write(append(data, '\n'))
}

// Close closes the file.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Values of these parameters are logged as is.
var auditValueParams = map[string]bool{
	"figure":   true,
	"function": true,
	"group":    true,
	"format":   true,
	"export":   true,
	"limit":    true,
}

// Only the presence of these is logged, since they may hold local paths.
var auditPresenceParams = map[string]bool{
	"input":      true,
	"output_dir": true,
}

// sanitizeToolParams keeps the loggable subset of a tool's arguments.
// Figure parameter overrides are logged by name. Unknown keys are dropped.
func sanitizeToolParams(params map[string]any) map[string]string {
	out := make(map[string]string, len(params)+1)
	set := 0
	for key, val := range params {
		if isEmpty(val) {
			continue
		}
		set++
		switch {
		case auditValueParams[key]:
			out[key] = fmt.Sprint(val)
		case auditPresenceParams[key]:
			out[key] = "(set)"
		case key == "params":
			if m, ok := val.(map[string]any); ok {
				names := make([]string, 0, len(m))
				for name := range m {
					names = append(names, name)
				}
				sort.Strings(names)
				out[key] = strings.Join(names, ",")
			}
		}
	}
	out["_param_count"] = fmt.Sprint(set)
	return out
}

func isEmpty(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case int:
		return v == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

// auditTool logs a finished tool call.
func (s *Server) auditTool(tool string, start time.Time, err error, params map[string]string) {
	entry := AuditEntry{
		Timestamp:  start,
		Tool:       tool,
		DurationMs: time.Since(start).Milliseconds(),
		Status:     "success",
		Params:     params,
	}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
	}
	s.audit.Log(entry)
}

package audit

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one processed pipeline event: which job, which phase, how it
// ended. Written as JSON lines so pipeline health is observable without
// trawling application logs.
type Entry struct {
	Timestamp     time.Time     `json:"timestamp"`
	JobID         string        `json:"job_id"`
	EventType     string        `json:"event_type"`
	Outcome       string        `json:"outcome"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration_ns"`
	LatencyMs     int64         `json:"latency_ms"`
	CorrelationID string        `json:"correlation_id"`
}

type Logger struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewLogger(w io.Writer) *Logger {
	return &Logger{writer: w}
}

func NewFileLogger(path string) (*Logger, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	cleanPath := filepath.Clean(path)
	f, err := os.OpenFile(cleanPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path is from application config, not user input
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, f)
	return NewLogger(mw), nil
}

func (l *Logger) Log(entry Entry) {
	entry.Timestamp = time.Now()
	entry.LatencyMs = entry.Duration.Milliseconds()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := json.NewEncoder(l.writer).Encode(entry); err != nil {
		slog.Error("failed to write audit log entry", "error", err)
	}
}

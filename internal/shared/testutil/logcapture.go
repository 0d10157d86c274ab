package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log line
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// logStore is shared by a capture handler and the handlers derived from it
type logStore struct {
	mu      sync.Mutex
	records []LogRecord
}

// LogCapture is a slog.Handler that keeps every record in memory.
// Attributes added through With are carried onto the records.
type LogCapture struct {
	store *logStore
	attrs []slog.Attr
	t     *testing.T
}

// NewLogCapture returns a capture handler. Records are echoed to t.Log when t is set.
func NewLogCapture(t *testing.T) *LogCapture {
	return &LogCapture{store: &logStore{}, t: t}
}

// NewTestLogger returns a logger writing into a fresh capture handler
func NewTestLogger(t *testing.T) (*slog.Logger, *LogCapture) {
	capture := NewLogCapture(t)
	return slog.New(capture), capture
}

// Enabled implements slog.Handler. Every level is captured.
func (h *LogCapture) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler
func (h *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.store.mu.Lock()
	h.store.records = append(h.store.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.store.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

// WithAttrs implements slog.Handler
func (h *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &LogCapture{store: h.store, attrs: merged, t: h.t}
}

// WithGroup implements slog.Handler. Groups are flattened.
func (h *LogCapture) WithGroup(string) slog.Handler {
	return h
}

// Records returns a copy of everything captured so far
func (h *LogCapture) Records() []LogRecord {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	records := make([]LogRecord, len(h.store.records))
	copy(records, h.store.records)
	return records
}

// Find returns the first record at level whose message contains message
func (h *LogCapture) Find(level slog.Level, message string) (LogRecord, bool) {
	for _, r := range h.Records() {
		if r.Level == level && strings.Contains(r.Message, message) {
			return r, true
		}
	}
	return LogRecord{}, false
}

// Count returns the number of captured records at level
func (h *LogCapture) Count(level slog.Level) int {
	n := 0
	for _, r := range h.Records() {
		if r.Level == level {
			n++
		}
	}
	return n
}

// AssertLogged fails the test unless a record at level contains message,
// and returns that record for further checks
func AssertLogged(t *testing.T, h *LogCapture, level slog.Level, message string) LogRecord {
	t.Helper()

	r, ok := h.Find(level, message)
	if !ok {
		t.Errorf("expected %s log containing %q", level, message)
		for _, rec := range h.Records() {
			t.Logf("  captured [%s] %s %v", rec.Level, rec.Message, rec.Attrs)
		}
	}
	return r
}

// Package audit implements the AuditSink: an append-only, one-file-per-
// calendar-day JSONL log of every completion-review decision. Writes are
// best-effort — a failure to log never fails the orchestration, since the
// review decision itself is far more valuable than its audit trail.
package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Sink is the AuditSink.
type Sink struct {
	dir string
	now func() time.Time
}

// New builds a Sink writing to dir/logs.
func New(dir string) *Sink {
	return NewWithClock(dir, time.Now)
}

// NewWithClock is New with an injectable clock for deterministic tests.
func NewWithClock(dir string, now func() time.Time) *Sink {
	return &Sink{dir: filepath.Join(dir, "logs"), now: now}
}

// Event is one audit log entry. EventID is stamped fresh on every
// Record call so concurrent invocations never collide, grounded on the
// pack's session-manager use of uuid for correlation IDs.
type Event struct {
	EventID   string         `json:"event_id"`
	Timestamp string         `json:"timestamp"`
	SessionID string         `json:"session_id"`
	EventType string         `json:"event_type"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Record appends one event to today's log file. Errors are logged via
// slog and swallowed — callers never need to handle an audit-log
// failure.
func (s *Sink) Record(sessionID, eventType string, detail map[string]any) {
	event := Event{
		EventID:   uuid.NewString(),
		Timestamp: s.now().Format(time.RFC3339),
		SessionID: sessionID,
		EventType: eventType,
		Detail:    detail,
	}

	if err := s.write(event); err != nil {
		slog.Warn("audit: failed to write event", "event_type", eventType, "session_id", sessionID, "error", err)
	}
}

func (s *Sink) write(event Event) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("audit: mkdir: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("completion-audit-%s.jsonl", s.now().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("audit: open: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: marshal: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("audit: write: %w", err)
	}
	return nil
}

// Tail reads every event logged on the given calendar date (YYYY-MM-DD),
// for the `audit tail` subcommand's read-only access to the log. A
// missing file (no events logged that day) returns an empty slice, not
// an error.
func (s *Sink) Tail(date string) ([]Event, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("completion-audit-%s.jsonl", date))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("audit: read %s: %w", path, err)
	}

	var events []Event
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e Event
		if err := dec.Decode(&e); err != nil {
			return events, fmt.Errorf("audit: decode %s: %w", path, err)
		}
		events = append(events, e)
	}
	return events, nil
}

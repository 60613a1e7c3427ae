// Package quota implements the QuotaMonitor: a circuit breaker that tracks
// each external review adapter's recent success/failure history and takes
// it out of rotation once it looks exhausted, so a rate-limited or down
// adapter doesn't stall every completion review.
package quota

import (
	"strings"
	"time"

	"github.com/boshu2/completion-review/internal/state"
)

// Status mirrors the original implementation's QuotaStatus enum.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusLow       Status = "LOW"
	StatusExhausted Status = "EXHAUSTED"
	StatusUnknown   Status = "UNKNOWN"
)

const (
	cooldown                = 30 * time.Minute
	consecutiveForExhausted = 3
	consecutiveForLow       = 2
)

// quotaKeywords are substrings that, when found case-insensitively in a
// failure's error text, mark the failure as quota-related regardless of
// the consecutive-failure count. This is the literal keyword set spec.md
// mandates, ported from the original implementation's quota_monitor.py.
var quotaKeywords = []string{
	"quota", "limit", "exceeded", "rate", "429", "exhausted",
}

// AdapterQuota is one adapter's rolling quota bookkeeping for the current
// calendar day.
type AdapterQuota struct {
	Status              Status    `json:"status"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	SuccessCount        int       `json:"success_count"`
	FailureCount        int       `json:"failure_count"`
	CooldownUntil       time.Time `json:"cooldown_until,omitempty"`
	Date                string    `json:"date"`
}

// Monitor is the QuotaMonitor. It is backed by the shared state.Store
// under the process-global KeyQuota record, so every invocation of the
// hook across sessions observes the same adapter quota state.
type Monitor struct {
	store *state.Store
	now   func() time.Time
}

// New creates a Monitor. now defaults to time.Now; tests may override it
// via NewWithClock.
func New(store *state.Store) *Monitor {
	return NewWithClock(store, time.Now)
}

// NewWithClock is New with an injectable clock, for deterministic tests of
// daily-reset and cooldown-expiry behavior.
func NewWithClock(store *state.Store, now func() time.Time) *Monitor {
	return &Monitor{store: store, now: now}
}

const dateLayout = "2006-01-02"

func (m *Monitor) today() string {
	return m.now().Format(dateLayout)
}

// load reads the adapter's record, resetting it if the stored date is not
// today (daily reset, keyed on local-calendar-date string comparison).
func (m *Monitor) load(raw map[string]any, name string) AdapterQuota {
	entry, _ := raw[name].(map[string]any)
	q := AdapterQuota{Status: StatusUnknown, Date: m.today()}
	if entry == nil {
		return q
	}
	if date, _ := entry["date"].(string); date != m.today() {
		return q
	}
	q.Date = m.today()
	if s, ok := entry["status"].(string); ok {
		q.Status = Status(s)
	}
	if v, ok := entry["consecutive_failures"].(float64); ok {
		q.ConsecutiveFailures = int(v)
	}
	if v, ok := entry["success_count"].(float64); ok {
		q.SuccessCount = int(v)
	}
	if v, ok := entry["failure_count"].(float64); ok {
		q.FailureCount = int(v)
	}
	if v, ok := entry["cooldown_until"].(string); ok && v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.CooldownUntil = t
		}
	}
	return q
}

func (q AdapterQuota) dict() map[string]any {
	d := map[string]any{
		"status":               string(q.Status),
		"consecutive_failures": q.ConsecutiveFailures,
		"success_count":        q.SuccessCount,
		"failure_count":        q.FailureCount,
		"date":                 q.Date,
	}
	if !q.CooldownUntil.IsZero() {
		d["cooldown_until"] = q.CooldownUntil.Format(time.RFC3339)
	}
	return d
}

// RecordSuccess resets the adapter's failure streak and marks it available.
func (m *Monitor) RecordSuccess(adapter string) error {
	return m.store.Mutate("", state.KeyQuota, func(raw map[string]any) map[string]any {
		q := m.load(raw, adapter)
		q.ConsecutiveFailures = 0
		q.SuccessCount++
		q.Status = StatusAvailable
		q.CooldownUntil = time.Time{}
		raw[adapter] = q.dict()
		return raw
	})
}

// RecordFailure increments the adapter's failure streak and, if the error
// text matches a known quota keyword or the consecutive-failure count
// reaches the exhaustion threshold, marks it exhausted with a 30 minute
// cooldown. A lower, non-exhausting streak is marked low.
func (m *Monitor) RecordFailure(adapter, errText string) error {
	return m.store.Mutate("", state.KeyQuota, func(raw map[string]any) map[string]any {
		q := m.load(raw, adapter)
		q.ConsecutiveFailures++
		q.FailureCount++

		switch {
		case isQuotaError(errText) || q.ConsecutiveFailures >= consecutiveForExhausted:
			q.Status = StatusExhausted
			q.CooldownUntil = m.now().Add(cooldown)
		case q.ConsecutiveFailures >= consecutiveForLow:
			q.Status = StatusLow
		}

		raw[adapter] = q.dict()
		return raw
	})
}

func isQuotaError(errText string) bool {
	lower := strings.ToLower(errText)
	for _, kw := range quotaKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsAvailable reports whether the adapter should be used for the next
// review. A cooldown that has expired auto-clears back to unknown (fresh
// slate) rather than staying stuck exhausted.
func (m *Monitor) IsAvailable(adapter string) (bool, error) {
	available := true
	err := m.store.Mutate("", state.KeyQuota, func(raw map[string]any) map[string]any {
		q := m.load(raw, adapter)
		if q.Status == StatusExhausted {
			if !q.CooldownUntil.IsZero() && m.now().After(q.CooldownUntil) {
				q.Status = StatusUnknown
				q.CooldownUntil = time.Time{}
				q.ConsecutiveFailures = 0
				raw[adapter] = q.dict()
			} else {
				available = false
			}
		}
		return raw
	})
	return available, err
}

// Filter returns the subset of candidate adapter names currently available.
func (m *Monitor) Filter(candidates []string) ([]string, error) {
	out := make([]string, 0, len(candidates))
	for _, name := range candidates {
		ok, err := m.IsAvailable(name)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// Summary returns a snapshot of every adapter's quota record known to the
// store, for the audit log's quota_status field.
func (m *Monitor) Summary() (map[string]AdapterQuota, error) {
	raw, err := m.store.Read("", state.KeyQuota)
	if err != nil {
		return nil, err
	}
	out := make(map[string]AdapterQuota, len(raw))
	for name := range raw {
		out[name] = m.load(raw, name)
	}
	return out, nil
}

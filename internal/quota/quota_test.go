package quota

import (
	"testing"
	"time"

	"github.com/boshu2/completion-review/internal/state"
)

func newTestMonitor(t *testing.T, now time.Time) *Monitor {
	t.Helper()
	store := state.New(t.TempDir())
	clock := now
	return NewWithClock(store, func() time.Time { return clock })
}

func TestRecordSuccessClearsFailures(t *testing.T) {
	m := newTestMonitor(t, time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
	if err := m.RecordFailure("gemini", "some transient error"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if err := m.RecordSuccess("gemini"); err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}
	ok, err := m.IsAvailable("gemini")
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if !ok {
		t.Fatal("expected gemini available after success")
	}
}

func TestThreeConsecutiveFailuresExhausts(t *testing.T) {
	m := newTestMonitor(t, time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
	for i := 0; i < 3; i++ {
		if err := m.RecordFailure("codex", "timeout"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	ok, err := m.IsAvailable("codex")
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if ok {
		t.Fatal("expected codex exhausted after 3 consecutive failures")
	}
}

func TestQuotaKeywordExhaustsImmediately(t *testing.T) {
	m := newTestMonitor(t, time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
	if err := m.RecordFailure("gemini", "429 Too Many Requests: quota exceeded"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	ok, err := m.IsAvailable("gemini")
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if ok {
		t.Fatal("expected immediate exhaustion on quota keyword match")
	}
}

func TestQuotaKeywordMatchesSingleWordSubstrings(t *testing.T) {
	cases := []string{"Daily cap exceeded", "rate limited", "limit reached"}
	for _, errText := range cases {
		m := newTestMonitor(t, time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
		if err := m.RecordFailure("gemini", errText); err != nil {
			t.Fatalf("RecordFailure(%q): %v", errText, err)
		}
		ok, err := m.IsAvailable("gemini")
		if err != nil {
			t.Fatalf("IsAvailable: %v", err)
		}
		if ok {
			t.Errorf("expected exhaustion on single failure %q", errText)
		}
	}
}

func TestCooldownExpiryClearsExhaustion(t *testing.T) {
	start := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	store := state.New(t.TempDir())
	clock := start
	m := NewWithClock(store, func() time.Time { return clock })

	for i := 0; i < 3; i++ {
		if err := m.RecordFailure("codex", "timeout"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	clock = start.Add(31 * time.Minute)
	ok, err := m.IsAvailable("codex")
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if !ok {
		t.Fatal("expected codex available again after cooldown expiry")
	}
}

func TestDailyResetClearsPriorDayState(t *testing.T) {
	day1 := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	store := state.New(t.TempDir())
	clock := day1
	m := NewWithClock(store, func() time.Time { return clock })

	for i := 0; i < 3; i++ {
		if err := m.RecordFailure("codex", "timeout"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	clock = day1.Add(24 * time.Hour)
	ok, err := m.IsAvailable("codex")
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if !ok {
		t.Fatal("expected codex state reset on a new calendar day")
	}
}

func TestFilterReturnsOnlyAvailable(t *testing.T) {
	m := newTestMonitor(t, time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
	for i := 0; i < 3; i++ {
		if err := m.RecordFailure("codex", "timeout"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	if err := m.RecordSuccess("gemini"); err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}
	got, err := m.Filter([]string{"codex", "gemini"})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(got) != 1 || got[0] != "gemini" {
		t.Fatalf("expected only gemini available, got %v", got)
	}
}

func TestTwoConsecutiveFailuresMarksLowNotExhausted(t *testing.T) {
	m := newTestMonitor(t, time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
	for i := 0; i < 2; i++ {
		if err := m.RecordFailure("codex", "timeout"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	ok, err := m.IsAvailable("codex")
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if !ok {
		t.Fatal("expected codex still available (low, not exhausted) at 2 consecutive failures")
	}
	summary, err := m.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if got := summary["codex"].Status; got != StatusLow {
		t.Fatalf("expected codex status %s at 2 consecutive failures, got %s", StatusLow, got)
	}
}

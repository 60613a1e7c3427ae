// Package completion implements the CompletionDetector: it compares the
// todo list's prior snapshot against the current one to decide whether
// this invocation is the moment work "just completed", and tracks how
// many completion reviews have already run for this session so the
// orchestrator can cap review effort. The before/after comparison is
// structured the way internal/goals's drift computation diffs two
// snapshots, not a stateless boolean check.
package completion

import (
	"time"

	"github.com/boshu2/completion-review/internal/state"
)

// TodoItem is the minimal shape of one todo entry the detector needs.
type TodoItem struct {
	Content string `json:"content"`
	Status  string `json:"status"`
}

// Snapshot is what the detector persists per session: whether the
// previous detection saw all items complete, plus the review-count
// bookkeeping the orchestrator's max_reviews gate reads.
type Snapshot struct {
	AllCompleted bool      `json:"all_completed"`
	Total        int       `json:"total"`
	Completed    int       `json:"completed"`
	ReviewCount  int       `json:"review_count"`
	LastReviewAt time.Time `json:"last_review_at,omitempty"`
}

// Result is what Detect returns: the freshly computed completion state
// plus whether completion just happened on this call.
type Result struct {
	AllCompleted  bool
	JustCompleted bool
	Total         int
	Completed     int
	ReviewCount   int
}

// Detector is the CompletionDetector.
type Detector struct {
	store *state.Store
}

// New builds a Detector backed by store.
func New(store *state.Store) *Detector {
	return &Detector{store: store}
}

// Detect computes the completion state for the given todo list and
// persists the refreshed snapshot. JustCompleted is true only on the
// transition from "not all complete" to "all complete" — calling Detect
// again on an already-complete list returns JustCompleted=false. The
// snapshot's review_count and last_review_at are always carried forward
// unchanged here; IncrementReviewCount is the only thing that advances
// them. This corrects the original implementation, where saving the todo
// snapshot and the review count shared one record and the save
// inadvertently reset the count to zero on every call.
func (d *Detector) Detect(sessionID string, items []TodoItem) (Result, error) {
	total := len(items)
	completedCount := 0
	for _, item := range items {
		if item.Status == "completed" {
			completedCount++
		}
	}
	allCompleted := total > 0 && completedCount == total

	var result Result
	err := d.store.Mutate(sessionID, state.KeyTodo, func(raw map[string]any) map[string]any {
		prev := loadSnapshot(raw)

		result = Result{
			AllCompleted:  allCompleted,
			JustCompleted: allCompleted && !prev.AllCompleted,
			Total:         total,
			Completed:     completedCount,
			ReviewCount:   prev.ReviewCount,
		}

		next := Snapshot{
			AllCompleted: allCompleted,
			Total:        total,
			Completed:    completedCount,
			ReviewCount:  prev.ReviewCount,
			LastReviewAt: prev.LastReviewAt,
		}
		return snapshotToMap(next)
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// IncrementReviewCount bumps the session's review_count and stamps
// last_review_at, returning the new count so the caller can compare it
// against max_reviews.
func (d *Detector) IncrementReviewCount(sessionID string, now time.Time) (int, error) {
	var newCount int
	err := d.store.Mutate(sessionID, state.KeyTodo, func(raw map[string]any) map[string]any {
		snap := loadSnapshot(raw)
		snap.ReviewCount++
		snap.LastReviewAt = now
		newCount = snap.ReviewCount
		return snapshotToMap(snap)
	})
	return newCount, err
}

// ReviewCount reads the session's current review count without mutating
// anything.
func (d *Detector) ReviewCount(sessionID string) (int, error) {
	raw, err := d.store.Read(sessionID, state.KeyTodo)
	if err != nil {
		return 0, err
	}
	return loadSnapshot(raw).ReviewCount, nil
}

func loadSnapshot(raw map[string]any) Snapshot {
	var s Snapshot
	if v, ok := raw["all_completed"].(bool); ok {
		s.AllCompleted = v
	}
	if v, ok := raw["total"].(float64); ok {
		s.Total = int(v)
	}
	if v, ok := raw["completed"].(float64); ok {
		s.Completed = int(v)
	}
	if v, ok := raw["review_count"].(float64); ok {
		s.ReviewCount = int(v)
	}
	if v, ok := raw["last_review_at"].(string); ok && v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			s.LastReviewAt = t
		}
	}
	return s
}

func snapshotToMap(s Snapshot) map[string]any {
	m := map[string]any{
		"all_completed": s.AllCompleted,
		"total":         s.Total,
		"completed":     s.Completed,
		"review_count":  s.ReviewCount,
	}
	if !s.LastReviewAt.IsZero() {
		m["last_review_at"] = s.LastReviewAt.Format(time.RFC3339)
	}
	return m
}

// Package adapter defines ReviewAdapter, the common interface every
// reviewer (the self-review adapter and each external LLM adapter)
// implements, plus the two concrete Transport implementations external
// adapters use to reach an actual model: an HTTP transport and a
// subprocess (CLI) transport. Grounded on the claude-ops session
// manager's ProcessRunner/subprocess-invocation idiom and on
// cmd/ao/rpi_phased_phase_runner.go's context-cancellable external calls.
package adapter

import (
	"context"
	"time"

	"github.com/boshu2/completion-review/internal/review"
)

// ReviewContext is the assembled input handed to every adapter: the
// extracted user intent plus, for debate rounds after the first, the
// other adapters' opinions so far.
type ReviewContext struct {
	Intent        string
	PriorOpinions string
	Round         int
}

// ReviewAdapter is implemented by every reviewer, self or external.
type ReviewAdapter interface {
	// Name is the adapter's identity, used for quota tracking, audit
	// logging, and debate prompts.
	Name() string

	// Available reports whether the adapter can currently be invoked at
	// all (configured, binary present, API key set). Quota exhaustion is
	// handled separately by the caller via internal/quota, not here.
	Available() bool

	// Review runs one review call and always returns a Verdict — on
	// failure it returns review.Failed(...) rather than an error, so
	// callers never need special-case handling to keep a fan-out result
	// slice populated.
	Review(ctx context.Context, rc ReviewContext) review.Verdict
}

// Transport is the narrow interface an ExternalAdapter delegates the
// actual network or process call to. Keeping it this small means adding
// a new vendor requires only a new Transport, not a new ReviewAdapter.
type Transport interface {
	Call(ctx context.Context, prompt string) (string, error)
}

// timed runs fn and returns its result along with the elapsed duration in
// milliseconds, the shape every adapter uses to populate Verdict.DurationMS.
func timed(fn func() (string, error)) (string, int64, error) {
	start := time.Now()
	out, err := fn()
	return out, time.Since(start).Milliseconds(), err
}

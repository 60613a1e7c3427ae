// Package fanout runs every available review adapter concurrently under
// a shared deadline and collects their verdicts in input order. Ordering
// follows internal/worker's Pool[T].Process (index-positioned results,
// one goroutine per item); the concurrency control and shared-deadline
// cancellation follow the errgroup.WithContext/SetLimit pattern used by
// the pack's multi-agent review orchestrator, so one slow or hung adapter
// cannot stall the others past the deadline.
package fanout

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/boshu2/completion-review/internal/adapter"
	"github.com/boshu2/completion-review/internal/quota"
	"github.com/boshu2/completion-review/internal/review"
)

// Executor is the FanOutExecutor.
type Executor struct {
	quota       *quota.Monitor
	concurrency int
}

// New builds an Executor. concurrency <= 0 means unlimited (one goroutine
// per adapter); quota may be nil to skip success/failure recording.
func New(q *quota.Monitor, concurrency int) *Executor {
	return &Executor{quota: q, concurrency: concurrency}
}

// Execute runs rc against every adapter in adapters concurrently, bounded
// by deadline, and returns one Verdict per adapter in the same order as
// adapters. Every adapter receives a context that is cancelled when
// deadline elapses, and an adapter that honors it returns a failed
// Verdict. Execute waits for every Review call to return; an adapter that
// ignores the cancelled context holds up the batch until it returns.
func (e *Executor) Execute(ctx context.Context, deadline time.Time, adapters []adapter.ReviewAdapter, rc adapter.ReviewContext) []review.Verdict {
	if len(adapters) == 0 {
		return nil
	}

	gctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	g, gctx := errgroup.WithContext(gctx)
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}

	results := make([]review.Verdict, len(adapters))
	var mu sync.Mutex

	for i, a := range adapters {
		i, a := i, a
		g.Go(func() error {
			v := a.Review(gctx, rc)

			mu.Lock()
			results[i] = v
			mu.Unlock()

			e.recordQuota(a.Name(), v)

			// Per-adapter failures never abort the group: every
			// goroutine returns nil, so g.Wait never reports an error.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.fillTimeouts(results, adapters, err)
	}

	return results
}

func (e *Executor) recordQuota(name string, v review.Verdict) {
	if e.quota == nil || v.IsSelfReview {
		return
	}
	if v.Success {
		_ = e.quota.RecordSuccess(name)
	} else {
		_ = e.quota.RecordFailure(name, v.Error)
	}
}

// fillTimeouts replaces any still-zero-value result (an adapter whose
// goroutine never got to write before the shared context was cancelled)
// with a failed verdict carrying the cancellation reason.
func (e *Executor) fillTimeouts(results []review.Verdict, adapters []adapter.ReviewAdapter, cause error) {
	for i, v := range results {
		if v.AdapterName == "" {
			results[i] = review.Failed(adapters[i].Name(), "fanout: "+cause.Error(), 0)
		}
	}
}

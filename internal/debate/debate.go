// Package debate implements the DebateEngine: when reviewers disagree
// sharply or any of them flags a severe finding, it runs additional
// rounds feeding each adapter the others' opinions, checking for
// consensus after every round, and falling back to a weighted vote if
// the rounds run out without agreement. Grounded on the same
// errgroup-based fan-out the rest of the orchestrator uses — within a
// round, every adapter runs concurrently through its own
// fanout.Execute-shaped RoundRunner call.
package debate

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/boshu2/completion-review/internal/adapter"
	"github.com/boshu2/completion-review/internal/review"
)

// Round is one debate round's outcome.
type Round struct {
	RoundNum         int
	Verdicts         []review.Verdict
	ConsensusReached bool
	FinalSeverity    review.Severity
}

// AdapterWeight is one adapter's vote weight for the fallback weighted
// vote, keyed by adapter name.
type AdapterWeight struct {
	Name   string
	Weight float64
}

// Config controls when and how long a debate runs.
type Config struct {
	Enabled                bool
	MaxRounds              int
	TriggerOnDisagreement  bool
	TriggerOnSevereFinding bool
	Weights                []AdapterWeight
}

// DefaultConfig mirrors the original implementation's defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:                true,
		MaxRounds:              3,
		TriggerOnDisagreement:  true,
		TriggerOnSevereFinding: true,
	}
}

// RoundRunner is the shape of fanout.Executor.Execute, kept as a function
// type so the engine doesn't import internal/fanout directly and tests
// can substitute a deterministic round runner.
type RoundRunner func(ctx context.Context, deadline time.Time, adapters []adapter.ReviewAdapter, rc adapter.ReviewContext) []review.Verdict

// Run executes up to MaxRounds additional debate rounds (round numbers
// start at 2, since round 1 is the initial fan-out the caller already
// ran). Within a round every adapter is run concurrently, each through its
// own runRound call because each adapter's prompt leaves out its own prior
// opinion. It stops at the first round that reaches consensus, and falls
// back to a weighted vote if MaxRounds is exhausted without one; the
// weighted-vote result is recorded on the last round run.
func (c Config) Run(ctx context.Context, deadline time.Time, runRound RoundRunner, adapters []adapter.ReviewAdapter, intent string, initial []review.Verdict) []Round {
	rounds := make([]Round, 0, c.MaxRounds)
	prior := initial

	for roundNum := 2; roundNum <= c.MaxRounds+1; roundNum++ {
		verdicts := make([]review.Verdict, len(adapters))
		var wg sync.WaitGroup
		for i, a := range adapters {
			i, a := i, a
			wg.Add(1)
			go func() {
				defer wg.Done()
				rc := BuildPrompt(intent, roundNum, prior, a.Name())
				v := runRound(ctx, deadline, []adapter.ReviewAdapter{a}, rc)
				if len(v) == 1 {
					verdicts[i] = v[0]
				}
			}()
		}
		wg.Wait()

		reached, severity := CheckConsensus(verdicts)
		round := Round{RoundNum: roundNum, Verdicts: verdicts, ConsensusReached: reached, FinalSeverity: severity}
		rounds = append(rounds, round)
		prior = verdicts

		if reached {
			return rounds
		}
	}

	final := c.WeightedVote(prior)
	if len(rounds) > 0 {
		rounds[len(rounds)-1].FinalSeverity = final
		return rounds
	}
	rounds = append(rounds, Round{
		RoundNum:         c.MaxRounds + 1,
		Verdicts:         prior,
		ConsensusReached: false,
		FinalSeverity:    final,
	})
	return rounds
}

// NeedsDebate reports whether verdicts warrant running a debate: any
// HIGH/CRITICAL finding among successful verdicts, or at least 2
// successful verdicts spanning a severity spread of 2 or more steps.
func (c Config) NeedsDebate(verdicts []review.Verdict) bool {
	if !c.Enabled {
		return false
	}

	successful := successfulSeverities(verdicts)

	if c.TriggerOnSevereFinding {
		for _, s := range successful {
			if s >= review.HIGH {
				return true
			}
		}
	}

	if c.TriggerOnDisagreement && len(successful) >= 2 {
		if review.Spread(successful) >= 2 {
			return true
		}
	}

	return false
}

func successfulSeverities(verdicts []review.Verdict) []review.Severity {
	out := make([]review.Severity, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Success {
			out = append(out, v.Severity)
		}
	}
	return out
}

// CheckConsensus reports whether verdicts agree closely enough to stop
// debating, and at what severity: unanimous agreement, or a spread of at
// most 1 step resolves to the higher severity present.
func CheckConsensus(verdicts []review.Verdict) (reached bool, severity review.Severity) {
	successful := successfulSeverities(verdicts)
	if len(successful) == 0 {
		return false, review.OK
	}
	if review.Spread(successful) <= 1 {
		return true, review.MaxOf(successful)
	}
	return false, review.OK
}

// BuildPrompt renders the debate context for round >= 2: the original
// intent plus a rendering of every other adapter's opinion so far.
func BuildPrompt(intent string, round int, priorVerdicts []review.Verdict, excludeAdapter string) adapter.ReviewContext {
	var sb strings.Builder
	for _, v := range priorVerdicts {
		if v.AdapterName == excludeAdapter || !v.Success {
			continue
		}
		fmt.Fprintf(&sb, "- %s rated this %s", v.AdapterName, v.Severity)
		if len(v.Issues) > 0 {
			fmt.Fprintf(&sb, " (%d issue(s) raised)", len(v.Issues))
		}
		sb.WriteString("\n")
	}
	return adapter.ReviewContext{
		Intent:        intent,
		PriorOpinions: sb.String(),
		Round:         round,
	}
}

// WeightedVote is the fallback when no consensus is reached within
// MaxRounds: a weight-averaged severity score, rounded half-to-even,
// ties resolved upward toward the more conservative (higher) severity.
func (c Config) WeightedVote(verdicts []review.Verdict) review.Severity {
	weights := make(map[string]float64, len(c.Weights))
	for _, w := range c.Weights {
		weights[w.Name] = w.Weight
	}

	var weightedScore, totalWeight float64
	for _, v := range verdicts {
		if !v.Success {
			continue
		}
		w, ok := weights[v.AdapterName]
		if !ok {
			w = 1.0
		}
		weightedScore += w * float64(v.Severity)
		totalWeight += w
	}
	if totalWeight == 0 {
		return review.OK
	}

	score := weightedScore / totalWeight
	rounded := math.RoundToEven(score)

	// A tie between two integers (the half-to-even case landing exactly
	// between neighbors) resolves upward toward the more conservative
	// severity, matching the original implementation's tie-break.
	if score-math.Floor(score) == 0.5 && int(rounded) < int(math.Ceil(score)) {
		rounded = math.Ceil(score)
	}

	sev := review.Severity(int(rounded))
	if sev < review.OK {
		return review.OK
	}
	if sev > review.CRITICAL {
		return review.CRITICAL
	}
	return sev
}

// Package orchestrator implements the CompletionOrchestrator: the
// top-level entry point that gates on completion detection, enforces the
// review budget, assembles context, runs the fan-out and (if triggered)
// the debate, and emits the single decision the host assistant acts on.
package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/boshu2/completion-review/internal/adapter"
	"github.com/boshu2/completion-review/internal/audit"
	"github.com/boshu2/completion-review/internal/completion"
	"github.com/boshu2/completion-review/internal/config"
	"github.com/boshu2/completion-review/internal/debate"
	"github.com/boshu2/completion-review/internal/fanout"
	"github.com/boshu2/completion-review/internal/hookio"
	"github.com/boshu2/completion-review/internal/intent"
	"github.com/boshu2/completion-review/internal/masking"
	"github.com/boshu2/completion-review/internal/quota"
	"github.com/boshu2/completion-review/internal/review"
)

const selfReviewIntentCap = 3000

// Orchestrator wires every subsystem together for one invocation.
type Orchestrator struct {
	Config    *config.Config
	Detector  *completion.Detector
	Quota     *quota.Monitor
	Fanout    *fanout.Executor
	Audit     *audit.Sink
	Self      adapter.ReviewAdapter
	Externals []adapter.ReviewAdapter
	Now       func() time.Time
}

// New builds an Orchestrator from its already-constructed dependencies.
func New(cfg *config.Config, detector *completion.Detector, q *quota.Monitor, fe *fanout.Executor, sink *audit.Sink, self adapter.ReviewAdapter, externals []adapter.ReviewAdapter) *Orchestrator {
	return &Orchestrator{
		Config:    cfg,
		Detector:  detector,
		Quota:     q,
		Fanout:    fe,
		Audit:     sink,
		Self:      self,
		Externals: externals,
		Now:       time.Now,
	}
}

// Orchestrate runs one full invocation and returns the decision to write
// to stdout.
func (o *Orchestrator) Orchestrate(ctx context.Context, in hookio.Input) hookio.Output {
	items := toTodoItems(in.ToolInput.Todos)

	detectResult, err := o.Detector.Detect(in.SessionID, items)
	if err != nil {
		return hookio.Output{Continue: true, SystemMessage: "[completion-review] state store error: " + err.Error()}
	}

	// Gate 1 — edge detection.
	if !detectResult.JustCompleted {
		return hookio.Output{Continue: true, SystemMessage: ""}
	}

	// Gate 2 — review budget.
	if detectResult.ReviewCount >= o.Config.CompletionReview.MaxReviews {
		o.Audit.Record(in.SessionID, "review_budget_exhausted", map[string]any{
			"review_count": detectResult.ReviewCount,
			"max_reviews":  o.Config.CompletionReview.MaxReviews,
		})
		return hookio.Output{
			Continue:      true,
			SystemMessage: fmt.Sprintf("[completion-review] review budget exhausted (%d/%d)", detectResult.ReviewCount, o.Config.CompletionReview.MaxReviews),
		}
	}
	if _, err := o.Detector.IncrementReviewCount(in.SessionID, o.Now()); err != nil {
		return hookio.Output{Continue: true, SystemMessage: "[completion-review] state store error: " + err.Error()}
	}

	// Context assembly.
	combinedIntent := ""
	if in.TranscriptPath != "" {
		combinedIntent = intent.Extract(in.TranscriptPath)
	}
	if o.Config.Security.MaskSensitiveData {
		combinedIntent = masking.MaskWithKeywords(combinedIntent, o.Config.Security.SensitivePatterns)
	}

	adapters, err := o.selectAdapters()
	if err != nil {
		return hookio.Output{Continue: true, SystemMessage: "[completion-review] adapter selection error: " + err.Error()}
	}

	timeout := time.Duration(o.Config.TimeoutSeconds) * time.Second
	deadline := o.Now().Add(timeout)
	rc := adapter.ReviewContext{Intent: truncate(combinedIntent, selfReviewIntentCap), Round: 1}
	verdicts := o.Fanout.Execute(ctx, deadline, adapters, rc)

	selfVerdict, externalVerdicts := splitVerdicts(verdicts)

	debateCfg := debate.Config{
		Enabled:                o.Config.Debate.Enabled,
		MaxRounds:              o.Config.Debate.MaxRounds,
		TriggerOnDisagreement:  o.Config.Debate.TriggerOnDisagreement,
		TriggerOnSevereFinding: o.Config.Debate.TriggerOnSevereFinding,
		Weights:                weightsFromConfig(o.Config.ConflictResolution.Weights),
	}

	var debateRounds []debate.Round
	if debateCfg.NeedsDebate(externalVerdicts) {
		externalAdapters := externalOnly(adapters)
		// Each debate fan-out gets its own TimeoutSeconds deadline rather
		// than the remainder of round 1's.
		runRound := func(ctx context.Context, _ time.Time, as []adapter.ReviewAdapter, rc adapter.ReviewContext) []review.Verdict {
			return o.Fanout.Execute(ctx, o.Now().Add(timeout), as, rc)
		}
		debateRounds = debateCfg.Run(ctx, deadline, runRound, externalAdapters, combinedIntent, externalVerdicts)
		if len(debateRounds) > 0 {
			externalVerdicts = debateRounds[len(debateRounds)-1].Verdicts
		}
	}

	finalSeverity := review.OK
	if len(debateRounds) > 0 {
		finalSeverity = debateRounds[len(debateRounds)-1].FinalSeverity
	} else {
		finalSeverity = maxSuccessfulSeverity(externalVerdicts)
	}

	message := o.buildMessage(selfVerdict, externalVerdicts, finalSeverity, debateRounds)
	continueFlag := finalSeverity != review.CRITICAL

	o.Audit.Record(in.SessionID, "completion_review_ran", map[string]any{
		"review_count":   detectResult.ReviewCount + 1,
		"todo_count":     detectResult.Total,
		"intent_length":  len(combinedIntent),
		"llm_results":    verdictDicts(externalVerdicts),
		"quota_status":   o.quotaSummary(),
		"debate":         debateSummary(debateRounds),
		"final_severity": finalSeverity.String(),
	})

	return hookio.Output{Continue: continueFlag, SystemMessage: message}
}

func toTodoItems(todos []hookio.Todo) []completion.TodoItem {
	items := make([]completion.TodoItem, 0, len(todos))
	for _, t := range todos {
		items = append(items, completion.TodoItem{Content: t.Content, Status: t.Status})
	}
	return items
}

// selectAdapters builds the adapter list for this invocation: the
// self-review adapter (if configured and non-nil) plus the external
// adapters whose names are both enabled in config and currently
// available per the QuotaMonitor. The set is rebuilt on every
// orchestration so a cooldown recorded moments earlier already applies.
func (o *Orchestrator) selectAdapters() ([]adapter.ReviewAdapter, error) {
	var selected []adapter.ReviewAdapter
	if o.Self != nil && o.Config.CompletionReview.IncludeSelfReview {
		selected = append(selected, o.Self)
	}

	if !o.Config.CompletionReview.IncludeExternalReview {
		return selected, nil
	}

	enabled := make(map[string]bool, len(o.Config.EnabledAdapters))
	for _, name := range o.Config.EnabledAdapters {
		enabled[name] = true
	}

	names := make([]string, 0, len(o.Externals))
	byName := make(map[string]adapter.ReviewAdapter, len(o.Externals))
	for _, a := range o.Externals {
		if !enabled[a.Name()] || !a.Available() {
			continue
		}
		names = append(names, a.Name())
		byName[a.Name()] = a
	}

	available, err := o.Quota.Filter(names)
	if err != nil {
		return nil, err
	}
	for _, name := range available {
		selected = append(selected, byName[name])
	}
	return selected, nil
}

func splitVerdicts(verdicts []review.Verdict) (self review.Verdict, externals []review.Verdict) {
	for _, v := range verdicts {
		if v.IsSelfReview {
			self = v
			continue
		}
		externals = append(externals, v)
	}
	return self, externals
}

func externalOnly(adapters []adapter.ReviewAdapter) []adapter.ReviewAdapter {
	out := make([]adapter.ReviewAdapter, 0, len(adapters))
	for _, a := range adapters {
		if a.Name() != "self" {
			out = append(out, a)
		}
	}
	return out
}

func maxSuccessfulSeverity(verdicts []review.Verdict) review.Severity {
	max := review.OK
	for _, v := range verdicts {
		if v.Success && v.Severity > max {
			max = v.Severity
		}
	}
	return max
}

func weightsFromConfig(weights map[string]float64) []debate.AdapterWeight {
	out := make([]debate.AdapterWeight, 0, len(weights))
	for name, w := range weights {
		out = append(out, debate.AdapterWeight{Name: name, Weight: w})
	}
	return out
}

func verdictDicts(verdicts []review.Verdict) []map[string]any {
	out := make([]map[string]any, 0, len(verdicts))
	for _, v := range verdicts {
		out = append(out, v.DictForAudit())
	}
	return out
}

func (o *Orchestrator) quotaSummary() map[string]any {
	summary, err := o.Quota.Summary()
	if err != nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(summary))
	for name, q := range summary {
		out[name] = q.Status
	}
	return out
}

func debateSummary(rounds []debate.Round) map[string]any {
	if len(rounds) == 0 {
		return nil
	}
	last := rounds[len(rounds)-1]
	return map[string]any{
		"rounds_run":        len(rounds),
		"final_round":       last.RoundNum,
		"consensus_reached": last.ConsensusReached,
		"final_severity":    last.FinalSeverity.String(),
	}
}

func (o *Orchestrator) buildMessage(self review.Verdict, externals []review.Verdict, finalSeverity review.Severity, rounds []debate.Round) string {
	var sb strings.Builder
	if self.RawText != "" {
		sb.WriteString(self.RawText)
	}

	if finalSeverity != review.OK {
		sb.WriteString("\n\n## External review findings (severity: ")
		sb.WriteString(finalSeverity.String())
		sb.WriteString(")\n")
		for _, v := range externals {
			if !v.Success {
				continue
			}
			for _, issue := range v.Issues {
				fmt.Fprintf(&sb, "- [%s] %s: %s", v.AdapterName, issue.Severity, issue.Description)
				if issue.Location != "" {
					fmt.Fprintf(&sb, " (%s)", issue.Location)
				}
				sb.WriteString("\n")
			}
		}
	}

	if len(rounds) > 0 {
		last := rounds[len(rounds)-1]
		sb.WriteString("\n\n## Debate summary\n")
		fmt.Fprintf(&sb, "Ran %d round(s); final round %d; consensus=%v; final severity %s.\n",
			len(rounds), last.RoundNum, last.ConsensusReached, last.FinalSeverity)
	}

	return sb.String()
}

// truncate caps s to n characters, appending an elision marker when it
// does, mirroring the self-review adapter's own 3000-char intent cap so
// the orchestrator and the adapter never disagree about the limit.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "\n\n[...truncated, " + strconv.Itoa(len(s)-n) + " more characters...]"
}

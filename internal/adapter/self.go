package adapter

import (
	"bytes"
	"context"
	"io/fs"
	"text/template"
	"time"

	"github.com/boshu2/completion-review/internal/review"
)

// SelfReviewAdapter never leaves the process: it renders a checklist (or
// subagent-invocation instruction) for the calling assistant to act on
// inline, and always succeeds with severity OK — the self-review itself
// produces no verdict of its own, only guidance. Grounded on the original
// implementation's ClaudeSelfAdapter, which likewise performs no I/O and
// always returns a successful, OK-severity result.
type SelfReviewAdapter struct {
	prompts     fs.FS
	promptFile  string
	maxIntChars int
}

const defaultIntentTruncateChars = 3000

// NewSelfReviewAdapter builds a SelfReviewAdapter rendering promptFile
// (one of embedded.PromptSelfSimple or embedded.PromptSelfSubagent)
// from prompts.
func NewSelfReviewAdapter(prompts fs.FS, promptFile string) *SelfReviewAdapter {
	return &SelfReviewAdapter{prompts: prompts, promptFile: promptFile, maxIntChars: defaultIntentTruncateChars}
}

func (a *SelfReviewAdapter) Name() string { return "self" }

func (a *SelfReviewAdapter) Available() bool { return true }

func (a *SelfReviewAdapter) Review(_ context.Context, rc ReviewContext) review.Verdict {
	start := time.Now()

	tmpl, err := template.ParseFS(a.prompts, a.promptFile)
	if err != nil {
		return review.Failed(a.Name(), "self review: parse prompt template: "+err.Error(), time.Since(start).Milliseconds())
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{"Intent": a.truncateIntent(rc.Intent)}); err != nil {
		return review.Failed(a.Name(), "self review: render prompt template: "+err.Error(), time.Since(start).Milliseconds())
	}

	return review.Verdict{
		AdapterName:  a.Name(),
		Severity:     review.OK,
		Issues:       nil,
		RawText:      buf.String(),
		Success:      true,
		DurationMS:   time.Since(start).Milliseconds(),
		IsSelfReview: true,
	}
}

// truncateIntent mirrors the original implementation's 3000-character
// cap on the intent text embedded in a self-review message, appending a
// "[...truncated...]" marker when it cuts.
func (a *SelfReviewAdapter) truncateIntent(intent string) string {
	if len(intent) <= a.maxIntChars {
		return intent
	}
	return intent[:a.maxIntChars] + "\n\n[...truncated...]"
}

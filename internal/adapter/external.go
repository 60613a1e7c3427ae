package adapter

import (
	"bytes"
	"context"
	"io/fs"
	"text/template"

	"github.com/boshu2/completion-review/internal/review"
	"github.com/boshu2/completion-review/internal/verdictparser"
)

// ExternalAdapter wraps a Transport (HTTP or subprocess) with the shared
// prompt-rendering and verdict-parsing logic every external reviewer
// needs, so adding a new vendor is just a new Transport plus a name.
type ExternalAdapter struct {
	name       string
	transport  Transport
	prompts    fs.FS
	promptFile string
	available  func() bool
}

// NewExternalAdapter builds an ExternalAdapter. available, if nil,
// defaults to always-true (HTTP adapters are "available" whenever
// configured; subprocess-backed adapters should pass transport.Available
// so a missing CLI binary is detected up front).
func NewExternalAdapter(name string, transport Transport, prompts fs.FS, promptFile string, available func() bool) *ExternalAdapter {
	if available == nil {
		available = func() bool { return true }
	}
	return &ExternalAdapter{name: name, transport: transport, prompts: prompts, promptFile: promptFile, available: available}
}

func (a *ExternalAdapter) Name() string { return a.name }

func (a *ExternalAdapter) Available() bool { return a.available() }

func (a *ExternalAdapter) Review(ctx context.Context, rc ReviewContext) review.Verdict {
	raw, durationMS, err := timed(func() (string, error) {
		prompt, err := a.render(rc)
		if err != nil {
			return "", err
		}
		return a.transport.Call(ctx, prompt)
	})
	if err != nil {
		return review.Failed(a.name, err.Error(), durationMS)
	}

	severity, issues := verdictparser.Parse(raw)
	return review.Verdict{
		AdapterName: a.name,
		Severity:    severity,
		Issues:      issues,
		RawText:     raw,
		Success:     true,
		DurationMS:  durationMS,
	}
}

func (a *ExternalAdapter) render(rc ReviewContext) (string, error) {
	tmpl, err := template.ParseFS(a.prompts, a.promptFile)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, rc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

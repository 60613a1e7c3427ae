// Package embedded provides the prompt templates compiled into the
// completion-review binary. These embedded copies are the only prompts
// the hook uses; no project-local prompt file is read.
package embedded

import "embed"

// Prompts holds the default self-review and external-review prompt
// templates, rendered with text/template.
//
//go:embed prompts
var Prompts embed.FS

const (
	// PromptSelfSimple is the default self-review prompt: a structured
	// checklist the invoking assistant works through inline.
	PromptSelfSimple = "prompts/self_simple.md"

	// PromptSelfSubagent is the self-review prompt variant used when
	// use_subagent is enabled: it delegates to a dedicated review
	// subagent instead of a checklist.
	PromptSelfSubagent = "prompts/self_subagent.md"

	// PromptExternalReview is the prompt sent to every external review
	// adapter (HTTP or subprocess transport), requesting strict JSON
	// output.
	PromptExternalReview = "prompts/external_review.md"
)

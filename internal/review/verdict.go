package review

// Issue is a single finding within a Verdict. Location and suggestion are
// advisory free text; nothing in the orchestration engine interprets them.
type Issue struct {
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Location    string   `json:"location,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// Verdict is what a single reviewer (self or external) returns for one
// review call. Invariant: Success == false implies Severity == OK and
// Issues is empty; IsSelfReview == true implies no external cost was
// incurred producing it.
type Verdict struct {
	AdapterName  string   `json:"adapter_name"`
	Severity     Severity `json:"severity"`
	Issues       []Issue  `json:"issues"`
	RawText      string   `json:"raw_text"`
	Success      bool     `json:"success"`
	Error        string   `json:"error,omitempty"`
	DurationMS   int64    `json:"duration_ms"`
	IsSelfReview bool     `json:"is_self_review"`
}

// Failed builds a failed Verdict for the named adapter. It always satisfies
// the success=false invariant (OK severity, no issues).
func Failed(adapterName, errText string, durationMS int64) Verdict {
	return Verdict{
		AdapterName: adapterName,
		Severity:    OK,
		Success:     false,
		Error:       errText,
		DurationMS:  durationMS,
	}
}

// DictForAudit renders the verdict's audit-log shape: the same field set
// the original implementation's ReviewResult.to_dict() emits, used by
// AuditSink so log lines stay stable even if Verdict itself grows fields
// later used only internally.
func (v Verdict) DictForAudit() map[string]any {
	issues := make([]map[string]any, 0, len(v.Issues))
	for _, i := range v.Issues {
		issues = append(issues, map[string]any{
			"description": i.Description,
			"severity":    i.Severity.String(),
			"location":    i.Location,
			"suggestion":  i.Suggestion,
		})
	}
	return map[string]any{
		"adapter":        v.AdapterName,
		"severity":       v.Severity.String(),
		"issues":         issues,
		"success":        v.Success,
		"error":          v.Error,
		"duration_ms":    v.DurationMS,
		"is_self_review": v.IsSelfReview,
	}
}

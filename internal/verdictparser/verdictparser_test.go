package verdictparser

import (
	"testing"

	"github.com/boshu2/completion-review/internal/review"
)

func TestParsePlainJSON(t *testing.T) {
	raw := `{"severity": "HIGH", "issues": [{"description": "missing auth check", "severity": "HIGH", "location": "handler.go:42"}]}`
	severity, issues := Parse(raw)
	if severity != review.HIGH {
		t.Fatalf("severity = %v, want HIGH", severity)
	}
	if len(issues) != 1 || issues[0].Location != "handler.go:42" {
		t.Fatalf("issues = %+v", issues)
	}
}

func TestParseFencedJSON(t *testing.T) {
	raw := "Here is my review:\n```json\n{\"severity\": \"MEDIUM\", \"issues\": []}\n```\nThanks."
	severity, issues := Parse(raw)
	if severity != review.MEDIUM {
		t.Fatalf("severity = %v, want MEDIUM", severity)
	}
	if len(issues) != 0 {
		t.Fatalf("issues = %+v, want none", issues)
	}
}

func TestParseFallsBackToKeywordsOnMalformedJSON(t *testing.T) {
	raw := "I couldn't produce JSON, but this looks like a critical security vulnerability."
	severity, issues := Parse(raw)
	if severity != review.CRITICAL {
		t.Fatalf("severity = %v, want CRITICAL", severity)
	}
	if len(issues) != 1 {
		t.Fatalf("issues = %+v, want exactly one synthetic issue", issues)
	}
}

func TestParseUnrecognizedTextIsOK(t *testing.T) {
	severity, issues := Parse("looks fine to me, nothing to flag")
	if severity != review.OK {
		t.Fatalf("severity = %v, want OK", severity)
	}
	if issues != nil {
		t.Fatalf("issues = %+v, want nil", issues)
	}
}

func TestParseNeverPanicsOnGarbage(t *testing.T) {
	inputs := []string{"", "{{{{", "```json\n{not json}\n```", "\x00\x01binary junk"}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Parse(%q) panicked: %v", in, r)
				}
			}()
			Parse(in)
		}()
	}
}

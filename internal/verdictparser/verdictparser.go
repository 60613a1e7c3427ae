// Package verdictparser turns a reviewer's raw text response into a
// severity and an issue list. The primary path extracts and decodes a
// JSON object (including one wrapped in a fenced code block); the
// fallback path is a descending-severity keyword scan, structured the
// same way as internal/parser's ExtractionPattern keyword matching.
// Parse never panics and never returns an error — a response this
// function cannot make sense of degrades to OK severity with no issues
// rather than aborting the review.
package verdictparser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/boshu2/completion-review/internal/review"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

type verdictJSON struct {
	Severity string `json:"severity"`
	Issues   []struct {
		Description string `json:"description"`
		Severity    string `json:"severity"`
		Location    string `json:"location"`
		Suggestion  string `json:"suggestion"`
	} `json:"issues"`
}

// Parse extracts a severity and issue list from raw adapter output.
func Parse(raw string) (review.Severity, []review.Issue) {
	if severity, issues, ok := parseJSON(raw); ok {
		return severity, issues
	}
	return parseKeywords(raw)
}

func parseJSON(raw string) (review.Severity, []review.Issue, bool) {
	candidate := extractJSONObject(raw)
	if candidate == "" {
		return review.OK, nil, false
	}

	var v verdictJSON
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return review.OK, nil, false
	}
	if v.Severity == "" {
		return review.OK, nil, false
	}

	issues := make([]review.Issue, 0, len(v.Issues))
	for _, i := range v.Issues {
		issues = append(issues, review.Issue{
			Description: i.Description,
			Severity:    review.ParseSeverity(i.Severity),
			Location:    i.Location,
			Suggestion:  i.Suggestion,
		})
	}
	return review.ParseSeverity(v.Severity), issues, true
}

// extractJSONObject returns a fenced JSON block's contents if present,
// otherwise the first top-level {...} span in raw, otherwise "".
func extractJSONObject(raw string) string {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}

// keywordOrder lists severities from most to least severe; the first
// match wins, mirroring the original implementation's descending keyword
// scan.
var keywordOrder = []struct {
	severity review.Severity
	keywords []string
}{
	{review.CRITICAL, []string{"critical", "심각", "보안취약", "security vulnerability"}},
	{review.HIGH, []string{"high", "버그", "오류", "bug", "broken"}},
	{review.MEDIUM, []string{"medium", "개선", "improve", "should"}},
	{review.LOW, []string{"low", "사소", "minor", "nitpick"}},
}

func parseKeywords(raw string) (review.Severity, []review.Issue) {
	lower := strings.ToLower(raw)
	for _, entry := range keywordOrder {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.severity, []review.Issue{{
					Description: strings.TrimSpace(raw),
					Severity:    entry.severity,
				}}
			}
		}
	}
	return review.OK, nil
}

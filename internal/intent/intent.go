// Package intent implements the IntentExtractor: it reads the user's
// turns out of a conversation transcript and combines them into a single
// bounded-size string every reviewer sees as "what was asked for".
// Structured the way internal/context's Summarizer budgets content —
// preserve what's most informative, drop the rest with a visible marker.
// A first message that alone exceeds the budget is cut to MaxChars with
// no marker.
package intent

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// MaxChars bounds the combined intent text handed to reviewers.
const MaxChars = 10000

const separator = "\n\n---\n\n"

// transcriptMessage is the shape of one entry in a transcript file,
// whether the file is a bare JSON array of messages or an object with a
// "messages" array.
type transcriptMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// Extract reads the transcript at path and returns the combined,
// budget-limited text of every user turn. Any failure to read or parse
// the transcript returns an empty string, never an error — a malformed
// or missing transcript degrades the review to "no intent known" rather
// than aborting the hook.
func Extract(path string) string {
	messages, err := loadTranscript(path)
	if err != nil {
		slog.Warn("intent: failed to load transcript, continuing with empty intent", "path", path, "error", err)
		return ""
	}
	userTexts := extractUserMessages(messages)
	return CombineWithLimit(userTexts)
}

func loadTranscript(path string) ([]transcriptMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	var asArray []transcriptMessage
	if err := json.Unmarshal(data, &asArray); err == nil {
		return asArray, nil
	}

	var asObject struct {
		Messages []transcriptMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &asObject); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	return asObject.Messages, nil
}

func extractUserMessages(messages []transcriptMessage) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		role := strings.ToLower(m.Role)
		if role != "user" && role != "human" {
			continue
		}
		text := strings.TrimSpace(contentText(m.Content))
		if text == "" {
			continue
		}
		out = append(out, text)
	}
	return out
}

// contentText handles both a plain string content field and a
// multimodal content list, joining any text parts with newlines.
func contentText(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		var parts []string
		for _, item := range c {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := m["text"].(string); ok {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}

// CombineWithLimit joins messages with separator, staying within
// MaxChars by keeping the first message in full and backfilling from the
// newest message backward, eliding whatever doesn't fit in between.
func CombineWithLimit(messages []string) string {
	if len(messages) == 0 {
		return ""
	}

	combined := strings.Join(messages, separator)
	if len(combined) <= MaxChars {
		return combined
	}

	first := messages[0]
	if len(first) >= MaxChars {
		return first[:MaxChars]
	}

	remaining := MaxChars - len(first) - 100
	var kept []string
	used := 0
	for i := len(messages) - 1; i >= 1; i-- {
		msg := messages[i]
		cost := len(msg)
		if len(kept) > 0 {
			cost += len(separator)
		}
		if used+cost > remaining {
			break
		}
		kept = append([]string{msg}, kept...)
		used += cost
	}

	elided := len(messages) - 1 - len(kept)
	if elided <= 0 {
		return strings.Join(append([]string{first}, kept...), separator)
	}

	marker := fmt.Sprintf("[...%d messages omitted...]", elided)
	if len(kept) == 0 {
		return first + separator + marker
	}
	return first + separator + marker + separator + strings.Join(kept, separator)
}

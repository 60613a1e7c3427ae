// Package hookio defines the stdin/stdout envelope the completion-review
// hook speaks to its host assistant: a single JSON object read from
// stdin, and exactly one JSON object written to stdout with no trailing
// text. stdout is reserved exclusively for that one line; everything
// else the process wants to say goes to stderr via log/slog.
package hookio

import (
	"encoding/json"
	"io"
)

// Todo is one tracked sub-task in the host assistant's todo list.
type Todo struct {
	Content string `json:"content"`
	Status  string `json:"status"`
}

// Input is what the host assistant delivers on stdin.
type Input struct {
	SessionID string `json:"session_id"`
	ToolInput struct {
		Todos []Todo `json:"todos"`
	} `json:"tool_input"`
	TranscriptPath string `json:"transcript_path,omitempty"`
	Cwd            string `json:"cwd,omitempty"`
}

// Output is the single response object written to stdout.
type Output struct {
	Continue      bool   `json:"continue"`
	SystemMessage string `json:"systemMessage"`
}

// ReadInput decodes one Input object from r. A decode failure is
// reported to the caller rather than swallowed here — the orchestrator
// entrypoint is responsible for converting that into the documented
// InputParseError fallback response, since only it knows the exact
// graceful-degradation message to emit.
func ReadInput(r io.Reader) (Input, error) {
	var in Input
	dec := json.NewDecoder(r)
	err := dec.Decode(&in)
	return in, err
}

// WriteOutput encodes out to w as the sole JSON object on stdout, with a
// trailing newline and nothing else.
func WriteOutput(w io.Writer, out Output) error {
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

// ParseFailureOutput is the fixed response emitted when stdin cannot be
// parsed at all: never block the host assistant over a malformed
// envelope.
func ParseFailureOutput() Output {
	return Output{Continue: true, SystemMessage: "[completion-review] input parse failed"}
}

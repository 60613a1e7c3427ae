package hookio

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadInputParsesTodos(t *testing.T) {
	raw := `{"session_id": "sess-1", "tool_input": {"todos": [{"content": "a", "status": "completed"}]}, "cwd": "/repo"}`
	in, err := ReadInput(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadInput: %v", err)
	}
	if in.SessionID != "sess-1" {
		t.Fatalf("SessionID = %q, want sess-1", in.SessionID)
	}
	if len(in.ToolInput.Todos) != 1 || in.ToolInput.Todos[0].Status != "completed" {
		t.Fatalf("unexpected todos: %+v", in.ToolInput.Todos)
	}
	if in.Cwd != "/repo" {
		t.Fatalf("Cwd = %q, want /repo", in.Cwd)
	}
}

func TestReadInputMalformedReturnsError(t *testing.T) {
	_, err := ReadInput(strings.NewReader("not json at all"))
	if err == nil {
		t.Fatal("expected an error decoding malformed input")
	}
}

func TestWriteOutputProducesExactlyOneJSONLine(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, Output{Continue: true, SystemMessage: "ok"}); err != nil {
		t.Fatalf("WriteOutput: %v", err)
	}
	got := buf.String()
	if strings.Count(got, "\n") != 1 {
		t.Fatalf("expected exactly one trailing newline, got %q", got)
	}
	if !strings.Contains(got, `"continue":true`) || !strings.Contains(got, `"systemMessage":"ok"`) {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestParseFailureOutputNeverBlocks(t *testing.T) {
	out := ParseFailureOutput()
	if !out.Continue {
		t.Fatal("expected ParseFailureOutput to never block the host assistant")
	}
}

package adapter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/boshu2/completion-review/internal/masking"
)

// SubprocessTransport calls a vendor's CLI as a child process, feeding the
// prompt on stdin and capturing stdout — the transport used when an
// adapter has no HTTP API and only a local CLI (e.g. a `gemini` binary on
// PATH). Grounded on the claude-ops session manager's CLI-subprocess
// invocation idiom.
type SubprocessTransport struct {
	Binary string
	Args   []string
}

// NewSubprocessTransport builds a SubprocessTransport invoking binary
// with args, writing the prompt to its stdin.
func NewSubprocessTransport(binary string, args ...string) *SubprocessTransport {
	return &SubprocessTransport{Binary: binary, Args: args}
}

// Available reports whether the binary can be found on PATH.
func (t *SubprocessTransport) Available() bool {
	_, err := exec.LookPath(t.Binary)
	return err == nil
}

func (t *SubprocessTransport) Call(ctx context.Context, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, t.Binary, t.Args...)
	cmd.Stdin = bytes.NewBufferString(masking.SanitizeForSubprocess(prompt))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("subprocess transport: %s: %w: %s", t.Binary, err, stderr.String())
	}
	return stdout.String(), nil
}

package agent

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/iishyfishyy/learnq/internal/logging"
)

// ClaudeAgent implements the Agent interface using Claude CLI
type ClaudeAgent struct {
	binary string
}

// NewClaudeAgent creates a new Claude agent
func NewClaudeAgent() *ClaudeAgent {
	return &ClaudeAgent{binary: "claude"}
}

// IsClaudeCLIInstalled checks if the claude CLI is available
func IsClaudeCLIInstalled() bool {
	_, err := exec.LookPath("claude")
	return err == nil
}

// Complete runs the CLI in print mode with the prompt as its only argument
func (c *ClaudeAgent) Complete(ctx context.Context, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, c.binary, "-p", prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.L().Debug("claude_cli_call")

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to call claude CLI: %w\nStderr: %s", err, stderr.String())
	}

	output := strings.TrimSpace(stdout.String())
	if output == "" {
		return "", fmt.Errorf("claude CLI returned empty response")
	}

	return output, nil
}

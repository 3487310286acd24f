package agent

import "context"

// Agent represents an LLM backend that answers a single prompt
type Agent interface {
	// Complete sends prompt as one user message and returns the raw reply text
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to the Agent interface
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

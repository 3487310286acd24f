package agent

import (
	"fmt"

	"github.com/iishyfishyy/learnq/internal/config"
	lqerrors "github.com/iishyfishyy/learnq/internal/errors"
)

// New builds the configured backend wrapped in a Guarded
func New(cfg config.LLMConfig) (*Guarded, error) {
	var inner Agent
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		inner = NewOpenAIAgent(OpenAIConfig{
			Endpoint:    cfg.Endpoint,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
	case config.ProviderClaude:
		if !IsClaudeCLIInstalled() {
			return nil, lqerrors.NewConfigInvalidError("claude CLI not found in PATH", nil)
		}
		inner = NewClaudeAgent()
	default:
		return nil, lqerrors.NewConfigInvalidError(fmt.Sprintf("unknown llm provider %q", cfg.Provider), nil)
	}

	return NewGuarded(inner, GuardConfig{
		Timeout:           cfg.Timeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
		BreakerFailures:   cfg.BreakerFailures,
		BreakerCooldown:   cfg.BreakerCooldown,
	}), nil
}

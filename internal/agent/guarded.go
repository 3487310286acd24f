package agent

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	lqerrors "github.com/iishyfishyy/learnq/internal/errors"
	"github.com/iishyfishyy/learnq/internal/logging"
)

// GuardConfig bounds how an Agent is called
type GuardConfig struct {
	// Timeout applies to each call, including the wait for a rate token
	Timeout           time.Duration
	RequestsPerMinute int
	// BreakerFailures consecutive failures open the breaker for BreakerCooldown
	BreakerFailures int
	BreakerCooldown time.Duration
}

// Guarded wraps an Agent with a per-call timeout, a token bucket and a
// circuit breaker. Every failure comes back as a translation transport error.
// Calls are never retried
type Guarded struct {
	inner   Agent
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuarded wraps inner
func NewGuarded(inner Agent, cfg GuardConfig) *Guarded {
	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	failures := uint32(3)
	if cfg.BreakerFailures > 0 {
		failures = uint32(cfg.BreakerFailures)
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logging.L().Warn("breaker_state_change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Guarded{
		inner:   inner,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker,
	}
}

// Complete calls the wrapped agent
func (g *Guarded) Complete(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", lqerrors.NewTranslationTransportError("rate_limit", err)
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Complete(ctx, prompt)
	})
	if err != nil {
		return "", lqerrors.NewTranslationTransportError("complete", err)
	}
	return out.(string), nil
}

// State reports the breaker state
func (g *Guarded) State() gobreaker.State {
	return g.breaker.State()
}

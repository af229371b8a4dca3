package expert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stwalsh4118/permits/api/internal/logger"
)

// GuardConfig bounds calls to a remote analyzer.
type GuardConfig struct {
	Timeout time.Duration
	// Failures is the number of consecutive failures that opens the circuit.
	Failures uint32
	// Cooldown is how long the circuit stays open before a trial call.
	Cooldown time.Duration
}

// DefaultGuardConfig matches the service defaults.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Timeout:  20 * time.Second,
		Failures: 3,
		Cooldown: 60 * time.Second,
	}
}

// Guard wraps an Analyzer with a per-call timeout and a circuit breaker.
// While the circuit is open calls fail fast with ErrUnavailable.
type Guard struct {
	next    Analyzer
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

// NewGuard wraps next.
func NewGuard(next Analyzer, cfg GuardConfig, log *logger.Logger) *Guard {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGuardConfig().Timeout
	}
	if cfg.Failures == 0 {
		cfg.Failures = DefaultGuardConfig().Failures
	}

	failures := cfg.Failures
	settings := gobreaker.Settings{
		Name:        "expert-analysis",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.Warn("Expert analysis circuit changed state", map[string]interface{}{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				})
			}
		},
	}

	return &Guard{
		next:    next,
		timeout: cfg.Timeout,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

type analysis struct {
	text string
	err  error
}

// Analyze calls the wrapped analyzer under the timeout. The call runs in its
// own goroutine so an analyzer that ignores ctx cannot hold the caller past
// the deadline.
func (g *Guard) Analyze(ctx context.Context, prompt Prompt) (string, error) {
	out, err := g.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		done := make(chan analysis, 1)
		go func() {
			text, err := g.next.Analyze(ctx, prompt)
			done <- analysis{text: text, err: err}
		}()

		select {
		case r := <-done:
			return r.text, r.err
		case <-ctx.Done():
			return nil, fmt.Errorf("expert analysis timed out after %s: %w", g.timeout, ctx.Err())
		}
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return "", err
	}
	return out.(string), nil
}

// Model reports the wrapped analyzer's model.
func (g *Guard) Model() string {
	return ModelOf(g.next)
}

// State exposes the circuit state for health reporting.
func (g *Guard) State() string {
	return g.breaker.State().String()
}

package llm

import (
	"context"
	"errors"

	"github.com/sony/gobreaker/v2"

	"careerpilot-backend/internal/shared/telemetry"
)

// BreakerClient wraps a Client with a circuit breaker so a misbehaving
// provider sheds load instead of stacking up timed-out calls.
type BreakerClient struct {
	base Client
	cb   *gobreaker.CircuitBreaker[CompletionResult]
}

// NewBreakerClient wraps base with circuit breaker protection.
func NewBreakerClient(base Client) *BreakerClient {
	settings := gobreaker.Settings{
		Name: "completion-provider",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			telemetry.Warn("llm.breaker.state", map[string]any{
				"name": name,
				"from": from.String(),
				"to":   to.String(),
			})
		},
	}
	return &BreakerClient{
		base: base,
		cb:   gobreaker.NewCircuitBreaker[CompletionResult](settings),
	}
}

// Complete executes the call through the breaker. An open breaker reads as a
// transient network failure to callers.
func (b *BreakerClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	result, err := b.cb.Execute(func() (CompletionResult, error) {
		return b.base.Complete(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return CompletionResult{}, &StatusError{StatusCode: 503, Kind: "circuit_open", Message: err.Error()}
		}
		return CompletionResult{}, err
	}
	return result, nil
}

var _ Client = (*BreakerClient)(nil)

package agent

import (
	"context"
	"errors"
	"time"

	"careerpilot-backend/internal/llm"
	"careerpilot-backend/internal/shared/telemetry"
)

// Operation bundles the prompt builder, extractor, and validator for one
// agent-backed operation. Extract failures are retryable; Validate failures
// are not, since re-asking will not fix a semantically wrong answer.
type Operation[T any] struct {
	Name        string
	BuildPrompt func(attempt int) (llm.CompletionRequest, error)
	Extract     func(text string) (T, error)
	Validate    func(data T) error
}

// Policy controls attempt count and backoff shape for one operation.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	// Multiplier of 1 gives fixed delays; above 1 gives exponential backoff.
	Multiplier float64
}

// DefaultPolicy is a conservative fixed-delay policy.
var DefaultPolicy = Policy{MaxAttempts: 2, InitialDelay: 300 * time.Millisecond, Multiplier: 1}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 300 * time.Millisecond
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	return p
}

// Run drives an operation to a single Outcome: build the prompt, call the
// completion client, extract, validate, retrying only retryable failures
// while attempt budget remains. Each attempt rebuilds the prompt, so callers
// may vary it per attempt; by default the same prompt is resent.
func Run[T any](ctx context.Context, client llm.Client, op Operation[T], policy Policy) Outcome[T] {
	policy = policy.normalized()

	var lastErr *Error
	delay := policy.InitialDelay
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			telemetry.Info("agent.retry", map[string]any{
				"operation": op.Name,
				"attempt":   attempt,
				"delay_ms":  delay.Milliseconds(),
				"error":     lastErr.Message,
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				out := Fail[T](&Error{
					Code:      "context_canceled",
					Message:   ctx.Err().Error(),
					Category:  CategoryTimeout,
					Retryable: false,
				})
				out.Retries = attempt - 1
				return out
			}
			delay = time.Duration(float64(delay) * policy.Multiplier)
		}

		req, err := op.BuildPrompt(attempt)
		if err != nil {
			out := Fail[T](&Error{Code: "prompt_build_failed", Message: err.Error(), Category: CategoryInternal})
			out.Retries = attempt - 1
			return out
		}
		if req.Operation == "" {
			req.Operation = op.Name
		}

		result, err := client.Complete(ctx, req)
		if err != nil {
			lastErr = classifyCompletionError(err)
			if lastErr.Retryable && attempt < policy.MaxAttempts {
				continue
			}
			out := Fail[T](lastErr)
			out.Retries = attempt - 1
			return out
		}

		data, err := op.Extract(result.Text)
		if err != nil {
			lastErr = classifyExtractError(err)
			if lastErr.Retryable && attempt < policy.MaxAttempts {
				continue
			}
			out := Fail[T](lastErr)
			out.Retries = attempt - 1
			return out
		}

		if op.Validate != nil {
			if err := op.Validate(data); err != nil {
				out := Fail[T](&Error{
					Code:     "output_validation_failed",
					Message:  err.Error(),
					Category: CategoryValidation,
				})
				out.Retries = attempt - 1
				return out
			}
		}

		out := Ok(data, result.Usage, result.Model)
		out.Retries = attempt - 1
		return out
	}

	// Unreachable: the loop always returns. Kept for the compiler.
	out := Fail[T](lastErr)
	out.Retries = policy.MaxAttempts - 1
	return out
}

func classifyCompletionError(err error) *Error {
	switch {
	case errors.Is(err, llm.ErrContentPolicy):
		return &Error{Code: "content_policy", Message: err.Error(), Category: CategoryValidation}
	case llm.IsTimeout(err):
		return &Error{Code: "completion_timeout", Message: err.Error(), Category: CategoryTimeout, Retryable: true}
	case llm.IsTransient(err):
		return &Error{Code: "completion_unavailable", Message: err.Error(), Category: CategoryNetwork, Retryable: true}
	default:
		return &Error{Code: "completion_failed", Message: err.Error(), Category: CategoryInternal}
	}
}

func classifyExtractError(err error) *Error {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return &Error{Code: "response_unparseable", Message: err.Error(), Category: CategoryParsing, Retryable: true}
	}
	return &Error{Code: "extract_failed", Message: err.Error(), Category: CategoryInternal}
}

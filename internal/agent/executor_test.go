package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"careerpilot-backend/internal/llm"
)

type scriptedClient struct {
	calls     int
	responses []func() (llm.CompletionResult, error)
}

func (s *scriptedClient) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	_ = ctx
	_ = req
	idx := s.calls
	s.calls++
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx]()
}

func ok(text string) func() (llm.CompletionResult, error) {
	return func() (llm.CompletionResult, error) {
		return llm.CompletionResult{Text: text, Model: "test-model", Usage: llm.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}, nil
	}
}

func fail(err error) func() (llm.CompletionResult, error) {
	return func() (llm.CompletionResult, error) {
		return llm.CompletionResult{}, err
	}
}

type payload struct {
	Name string `json:"name"`
}

func testOp() Operation[payload] {
	return Operation[payload]{
		Name: "test",
		BuildPrompt: func(attempt int) (llm.CompletionRequest, error) {
			return llm.CompletionRequest{User: "hello"}, nil
		},
		Extract: func(text string) (payload, error) {
			return Decode[payload](text)
		},
	}
}

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, InitialDelay: time.Millisecond, Multiplier: 1}
}

func TestRunSucceedsFirstAttempt(t *testing.T) {
	client := &scriptedClient{responses: []func() (llm.CompletionResult, error){ok(`{"name":"jane"}`)}}

	out := Run(context.Background(), client, testOp(), fastPolicy(3))

	if !out.OK {
		t.Fatalf("expected success, got %+v", out.Err)
	}
	if out.Data.Name != "jane" {
		t.Fatalf("unexpected data: %+v", out.Data)
	}
	if out.Retries != 0 {
		t.Fatalf("expected 0 retries, got %d", out.Retries)
	}
	if out.Model != "test-model" || out.Usage.TotalTokens != 15 {
		t.Fatalf("usage/model not propagated: %+v", out)
	}
}

func TestRunRetriesTimeoutThenSucceeds(t *testing.T) {
	timeout := fmt.Errorf("openai request timeout: %w", context.DeadlineExceeded)
	client := &scriptedClient{responses: []func() (llm.CompletionResult, error){
		fail(timeout),
		fail(timeout),
		ok(`{"name":"jane"}`),
	}}

	out := Run(context.Background(), client, testOp(), fastPolicy(3))

	if !out.OK {
		t.Fatalf("expected success after retries, got %+v", out.Err)
	}
	if out.Retries != 2 {
		t.Fatalf("expected exactly 2 retries, got %d", out.Retries)
	}
	if client.calls != 3 {
		t.Fatalf("expected 3 completion calls, got %d", client.calls)
	}
}

func TestRunExhaustsBudgetOnRetryable(t *testing.T) {
	client := &scriptedClient{responses: []func() (llm.CompletionResult, error){ok("no json here at all")}}

	out := Run(context.Background(), client, testOp(), fastPolicy(2))

	if out.OK {
		t.Fatal("expected failure")
	}
	if out.Err.Category != CategoryParsing {
		t.Fatalf("expected parsing category, got %s", out.Err.Category)
	}
	if !out.Err.Retryable {
		t.Fatal("parse failures must be marked retryable")
	}
	if client.calls != 2 {
		t.Fatalf("expected budget of 2 calls, got %d", client.calls)
	}
}

func TestRunDoesNotRetryValidationFailure(t *testing.T) {
	client := &scriptedClient{responses: []func() (llm.CompletionResult, error){ok(`{"name":""}`)}}

	op := testOp()
	op.Validate = func(p payload) error {
		if strings.TrimSpace(p.Name) == "" {
			return errors.New("name is required")
		}
		return nil
	}

	out := Run(context.Background(), client, op, fastPolicy(5))

	if out.OK {
		t.Fatal("expected validation failure")
	}
	if out.Err.Category != CategoryValidation {
		t.Fatalf("expected validation category, got %s", out.Err.Category)
	}
	if client.calls != 1 {
		t.Fatalf("validation failures must not be retried, got %d calls", client.calls)
	}
}

func TestRunDoesNotRetryContentPolicy(t *testing.T) {
	client := &scriptedClient{responses: []func() (llm.CompletionResult, error){fail(llm.ErrContentPolicy)}}

	out := Run(context.Background(), client, testOp(), fastPolicy(4))

	if out.OK {
		t.Fatal("expected failure")
	}
	if out.Err.Retryable {
		t.Fatal("content policy rejection must not be retryable")
	}
	if client.calls != 1 {
		t.Fatalf("expected a single call, got %d", client.calls)
	}
}

func TestRunClassifiesProviderErrors(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		category  Category
		wantRetry bool
	}{
		{name: "rate limited", err: &llm.StatusError{StatusCode: 429, Message: "slow down"}, category: CategoryNetwork, wantRetry: true},
		{name: "server error", err: &llm.StatusError{StatusCode: 502, Message: "bad gateway"}, category: CategoryNetwork, wantRetry: true},
		{name: "bad request", err: &llm.StatusError{StatusCode: 400, Message: "bad payload"}, category: CategoryInternal, wantRetry: false},
		{name: "deadline", err: context.DeadlineExceeded, category: CategoryTimeout, wantRetry: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &scriptedClient{responses: []func() (llm.CompletionResult, error){fail(tc.err)}}
			out := Run(context.Background(), client, testOp(), fastPolicy(1))
			if out.OK {
				t.Fatal("expected failure")
			}
			if out.Err.Category != tc.category {
				t.Fatalf("category: got %s want %s", out.Err.Category, tc.category)
			}
			if out.Err.Retryable != tc.wantRetry {
				t.Fatalf("retryable: got %v want %v", out.Err.Retryable, tc.wantRetry)
			}
		})
	}
}

func TestRunStopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &scriptedClient{responses: []func() (llm.CompletionResult, error){
		fail(&llm.StatusError{StatusCode: 500, Message: "boom"}),
	}}

	out := Run(ctx, client, testOp(), Policy{MaxAttempts: 3, InitialDelay: time.Hour, Multiplier: 1})

	if out.OK {
		t.Fatal("expected failure")
	}
	if out.Err.Code != "context_canceled" {
		t.Fatalf("expected context_canceled, got %s", out.Err.Code)
	}
}

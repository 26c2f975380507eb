package llm

import "context"

// CompletionRequest describes one call to the completion service.
// Requests are built fresh per attempt and never mutated after construction.
type CompletionRequest struct {
	Operation   string
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	Stop        []string
	ForceJSON   bool
}

// Usage captures token accounting for a single completion call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// CompletionResult is the raw outcome of a completion call. Only data derived
// from it is persisted; the result itself is discarded after extraction.
type CompletionResult struct {
	Text  string
	Usage Usage
	Model string
}

// Client abstracts the external text-completion provider.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req CompletionRequest) (CompletionResult, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	return f(ctx, req)
}

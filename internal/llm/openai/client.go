package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"careerpilot-backend/internal/llm"
	"careerpilot-backend/internal/shared/metrics"
	"careerpilot-backend/internal/shared/telemetry"
)

const apiURL = "https://api.openai.com/v1/chat/completions"

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL overrides the provider endpoint, primarily for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient constructs a new OpenAI client. The HTTP timeout is the upper
// bound for long-form generation; callers set shorter per-call deadlines
// on the context for parsing-style operations.
func NewClient(apiKey, model string, maxTimeout time.Duration, opts ...Option) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if maxTimeout <= 0 {
		maxTimeout = 300 * time.Second
	}
	c := &Client{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: maxTimeout},
		baseURL:    apiURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Stop           []string        `json:"stop,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends one chat-completion request and reports usage metrics for
// every call, success or failure.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	started := time.Now()
	result, err := c.complete(ctx, req)
	elapsed := float64(time.Since(started).Microseconds()) / 1000.0

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.IncCompletionCall(req.Operation, outcome)
	metrics.ObserveCompletionDurationMs(req.Operation, elapsed)
	metrics.AddCompletionTokens(result.Usage.InputTokens, result.Usage.OutputTokens)

	fields := map[string]any{
		"operation":     req.Operation,
		"model":         c.model,
		"duration_ms":   elapsed,
		"input_tokens":  result.Usage.InputTokens,
		"output_tokens": result.Usage.OutputTokens,
		"total_tokens":  result.Usage.TotalTokens,
	}
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Error("llm.complete", fields)
		return llm.CompletionResult{}, err
	}
	telemetry.Info("llm.complete", fields)
	return result, nil
}

func (c *Client) complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	temp := req.Temperature
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: &temp,
		MaxTokens:   req.MaxTokens,
		Stop:        req.Stop,
	}
	if req.ForceJSON {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return llm.CompletionResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return llm.CompletionResult{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.CompletionResult{}, fmt.Errorf("openai request timeout: %w", err)
		}
		return llm.CompletionResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.CompletionResult{}, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return llm.CompletionResult{}, &llm.StatusError{StatusCode: resp.StatusCode, Message: truncate(string(body), 200)}
		}
		return llm.CompletionResult{}, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		if strings.Contains(strings.ToLower(parsed.Error.Type), "content_policy") {
			return llm.CompletionResult{}, llm.ErrContentPolicy
		}
		return llm.CompletionResult{}, &llm.StatusError{
			StatusCode: resp.StatusCode,
			Kind:       parsed.Error.Type,
			Message:    parsed.Error.Message,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return llm.CompletionResult{}, &llm.StatusError{StatusCode: resp.StatusCode, Message: truncate(string(body), 200)}
	}
	if len(parsed.Choices) == 0 {
		return llm.CompletionResult{}, fmt.Errorf("openai response missing choices")
	}
	if parsed.Choices[0].FinishReason == "content_filter" {
		return llm.CompletionResult{}, llm.ErrContentPolicy
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return llm.CompletionResult{}, fmt.Errorf("openai response empty content")
	}

	result := llm.CompletionResult{Text: content, Model: parsed.Model}
	if result.Model == "" {
		result.Model = c.model
	}
	if parsed.Usage != nil {
		result.Usage = llm.Usage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		}
	}
	return result, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

var _ llm.Client = (*Client)(nil)

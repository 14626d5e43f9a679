// Package providers abstracts the language model capability behind a narrow
// request/response interface so the extraction workflow can be exercised with
// deterministic stand-ins.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrUnavailable indicates the model capability could not be reached
// (network failure, quota exhaustion, timeout).
var ErrUnavailable = errors.New("model capability unavailable")

// LLMClient issues a single completion request to a language model.
type LLMClient interface {
	// Complete sends a completion request and returns the model's response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)

	// Name returns the client identifier (e.g. "openai").
	Name() string
}

// ResponseFormat requests structured output conforming to a JSON Schema.
type ResponseFormat struct {
	// Name labels the schema for the provider API.
	Name string `json:"name"`
	// Schema is the JSON Schema document the output must satisfy.
	Schema json.RawMessage `json:"schema"`
}

// CompletionRequest is a single request to an LLM.
type CompletionRequest struct {
	System string `json:"system,omitempty"`
	User   string `json:"user"`

	// Model selection (client default if empty).
	Model string `json:"model,omitempty"`

	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Timeout     time.Duration `json:"-"`

	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	RequestID string `json:"-"`
}

// CompletionResult is the response from an LLM call.
type CompletionResult struct {
	Content    string          `json:"content"`
	ParsedJSON json.RawMessage `json:"parsed_json,omitempty"` // set when ResponseFormat was requested

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`

	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`
	RequestID string `json:"request_id"`
}

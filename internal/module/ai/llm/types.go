// Package llm invokes text models for prompt variations.
package llm

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrNotConfigured is returned by Unconfigured.
	ErrNotConfigured = errors.New("no language model configured")
)

// Role is the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ResponseFormat constrains the model output.
type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json_object"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single model invocation.
type Request struct {
	Messages       []Message      `json:"messages"`
	ResponseFormat ResponseFormat `json:"response_format,omitempty"`
	Temperature    *float32       `json:"temperature,omitempty"`
}

// Response is the model output.
type Response struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Invoker invokes a text model.
type Invoker interface {
	Invoke(ctx context.Context, req *Request) (*Response, error)
}

// Recorder receives LLM metrics.
type Recorder interface {
	RecordLLMRequest(model, status string, duration time.Duration)
	RecordLLMTokens(model string, inputTokens, outputTokens int)
}

// Unconfigured is the Invoker used when no model credentials are set.
type Unconfigured struct{}

// Invoke implements Invoker.
func (Unconfigured) Invoke(context.Context, *Request) (*Response, error) {
	return nil, ErrNotConfigured
}

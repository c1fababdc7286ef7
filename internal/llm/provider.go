// Package llm provides a unified interface for text-generation providers
// (Gemini, OpenAI-compatible endpoints) used by the analysis stage.
//
// The pipeline issues exactly one blocking Chat call per company; the
// provider is injected as a capability so tests can substitute a fake.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider names for routing and configuration.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Common errors returned by LLM providers.
var (
	ErrNoAPIKey     = errors.New("llm: API key not configured")
	ErrRateLimit    = errors.New("llm: rate limit exceeded")
	ErrProviderDown = errors.New("llm: provider unavailable")
	ErrInvalidModel = errors.New("llm: invalid model")
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Response represents a complete response from the LLM.
type Response struct {
	Content  string        `json:"content"`
	Usage    Usage         `json:"usage"`
	Model    string        `json:"model"`
	Provider string        `json:"provider"`
	Latency  time.Duration `json:"latency"`
}

// Usage tracks token consumption for a request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatOptions configures a single chat request.
type ChatOptions struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Provider is the interface that all text-generation backends implement.
type Provider interface {
	// Name returns the provider identifier (e.g., "gemini", "openai").
	Name() string

	// Chat sends a conversation and returns a complete response.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)

	// Models returns the list of known models for this provider.
	Models() []string

	// Ping checks if the provider is reachable and the API key is valid.
	Ping(ctx context.Context) error
}

// SystemMessage creates a system prompt message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// String returns a human-readable summary of the response.
func (r *Response) String() string {
	truncated := r.Content
	if len(truncated) > 100 {
		truncated = truncated[:100] + "..."
	}
	return fmt.Sprintf("[%s/%s] %q, %d tokens, %v",
		r.Provider, r.Model, truncated, r.Usage.TotalTokens, r.Latency.Round(time.Millisecond))
}

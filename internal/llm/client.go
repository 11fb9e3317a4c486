// Package llm holds the completion collaborator used by every narrative step:
// a provider-neutral request/response shape and the Bedrock, OpenAI,
// Anthropic and Gemini implementations behind it.
package llm

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is an internal message representation that can include system prompts.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// Request is one completion call. A negative Temperature leaves the provider default.
type Request struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
	// Operation labels metrics and spans (collect, extract, generate, adapt).
	Operation string
}

type Response struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// Client is the completion collaborator.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (Response, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

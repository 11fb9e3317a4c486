package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 1024

// AnthropicMessagesAPI is the subset of the Anthropic Messages service used here.
type AnthropicMessagesAPI interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicClient implements Client on the Anthropic Messages API.
type AnthropicClient struct {
	api   AnthropicMessagesAPI
	model string
}

func NewAnthropicClient(apiKey, model string) (*AnthropicClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: anthropic api key is required")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropicClientWithAPI(&client.Messages, model), nil
}

func NewAnthropicClientWithAPI(api AnthropicMessagesAPI, model string) *AnthropicClient {
	if api == nil {
		panic("llm: anthropic messages client cannot be nil")
	}
	return &AnthropicClient{api: api, model: model}
}

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	if model == "" {
		return Response{}, errors.New("llm: anthropic model is required")
	}

	var system []anthropic.TextBlockParam
	for _, block := range req.System {
		if strings.TrimSpace(block) != "" {
			system = append(system, anthropic.TextBlockParam{Text: block})
		}
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case ChatRoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: content})
		case ChatRoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(content)))
		case ChatRoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(content)))
		default:
			return Response{}, fmt.Errorf("llm: unsupported role %q", msg.Role)
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
	}
	if req.Temperature >= 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}
	if req.TopP > 0 {
		params.TopP = anthropic.Float(float64(req.TopP))
	}

	msg, err := c.api.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("llm: anthropic completion failed: %w", err)
	}
	if msg == nil {
		return Response{}, errors.New("llm: anthropic response is nil")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return Response{}, errors.New("llm: anthropic response contained no text blocks")
	}
	return Response{
		Text:       strings.TrimSpace(text.String()),
		StopReason: string(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:  int32(msg.Usage.InputTokens),
			OutputTokens: int32(msg.Usage.OutputTokens),
			TotalTokens:  int32(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

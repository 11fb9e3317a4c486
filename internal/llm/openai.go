package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// OpenAIResponsesAPI is the subset of the OpenAI Responses service used here.
type OpenAIResponsesAPI interface {
	New(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

// OpenAIClient implements Client on the OpenAI Responses API.
type OpenAIClient struct {
	api   OpenAIResponsesAPI
	model string
}

// NewOpenAIClient builds a client from an API key and optional base URL.
func NewOpenAIClient(apiKey, baseURL, model string) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: openai api key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return NewOpenAIClientWithAPI(&client.Responses, model), nil
}

func NewOpenAIClientWithAPI(api OpenAIResponsesAPI, model string) *OpenAIClient {
	if api == nil {
		panic("llm: openai responses client cannot be nil")
	}
	return &OpenAIClient{api: api, model: model}
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	if model == "" {
		return Response{}, errors.New("llm: openai model is required")
	}

	items := make(responses.ResponseInputParam, 0, len(req.System)+len(req.Messages))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		items = append(items, responses.ResponseInputItemParamOfMessage(block, responses.EasyInputMessageRoleSystem))
	}
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		var role responses.EasyInputMessageRole
		switch msg.Role {
		case ChatRoleSystem:
			role = responses.EasyInputMessageRoleSystem
		case ChatRoleUser:
			role = responses.EasyInputMessageRoleUser
		case ChatRoleAssistant:
			role = responses.EasyInputMessageRoleAssistant
		default:
			return Response{}, fmt.Errorf("llm: unsupported role %q", msg.Role)
		}
		items = append(items, responses.ResponseInputItemParamOfMessage(content, role))
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: items,
		},
	}
	if req.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature >= 0 {
		params.Temperature = openai.Float(float64(req.Temperature))
	}
	if req.TopP > 0 {
		params.TopP = openai.Float(float64(req.TopP))
	}

	result, err := c.api.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("llm: openai completion failed: %w", err)
	}
	if result == nil {
		return Response{}, errors.New("llm: openai response is nil")
	}

	text := strings.TrimSpace(result.OutputText())
	if text == "" {
		return Response{}, errors.New("llm: openai response contained no output text")
	}
	return Response{
		Text:       text,
		StopReason: string(result.Status),
		Usage: TokenUsage{
			InputTokens:  int32(result.Usage.InputTokens),
			OutputTokens: int32(result.Usage.OutputTokens),
			TotalTokens:  int32(result.Usage.TotalTokens),
		},
	}, nil
}

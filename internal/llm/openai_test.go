package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResponses struct {
	body   string
	err    error
	params responses.ResponseNewParams
}

func (s *stubResponses) New(_ context.Context, body responses.ResponseNewParams, _ ...option.RequestOption) (*responses.Response, error) {
	s.params = body
	if s.err != nil {
		return nil, s.err
	}
	var out responses.Response
	if err := json.Unmarshal([]byte(s.body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

const openAIReply = `{
  "id": "resp_1",
  "object": "response",
  "status": "completed",
  "model": "gpt-4o",
  "output": [{
    "type": "message",
    "id": "msg_1",
    "role": "assistant",
    "status": "completed",
    "content": [{"type": "output_text", "text": "{\"output_scenario\": \"A story\"}", "annotations": []}]
  }],
  "usage": {"input_tokens": 12, "output_tokens": 5, "total_tokens": 17}
}`

func TestOpenAIClientComplete(t *testing.T) {
	api := &stubResponses{body: openAIReply}
	client := NewOpenAIClientWithAPI(api, "gpt-4o")

	resp, err := client.Complete(context.Background(), Request{
		System:      []string{"system rules"},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: "hi"}, {Role: ChatRoleAssistant, Content: "hello"}},
		MaxTokens:   100,
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"output_scenario": "A story"}`, resp.Text)
	assert.Equal(t, int32(17), resp.Usage.TotalTokens)
	assert.Equal(t, "completed", resp.StopReason)
	assert.Len(t, api.params.Input.OfInputItemList, 3)
	assert.Equal(t, "gpt-4o", string(api.params.Model))
}

func TestOpenAIClientErrors(t *testing.T) {
	boom := errors.New("rate limited")
	_, err := NewOpenAIClientWithAPI(&stubResponses{err: boom}, "gpt-4o").Complete(context.Background(), Request{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
	})
	assert.ErrorIs(t, err, boom)

	_, err = NewOpenAIClientWithAPI(&stubResponses{}, "").Complete(context.Background(), Request{})
	assert.Error(t, err)

	_, err = NewOpenAIClient("", "", "gpt-4o")
	assert.Error(t, err)
}

package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConverse struct {
	response string
	err      error
	input    *bedrockruntime.ConverseInput
}

func (m *mockConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: m.response},
				},
			},
		},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(10),
			OutputTokens: aws.Int32(4),
			TotalTokens:  aws.Int32(14),
		},
	}, nil
}

func TestBedrockClientBuildsConverseInput(t *testing.T) {
	api := &mockConverse{response: "  hello there  "}
	client := NewBedrockClient(api, "default-model")

	resp, err := client.Complete(context.Background(), Request{
		System: []string{"be brief", " "},
		Messages: []ChatMessage{
			{Role: ChatRoleAssistant, Content: "intro"},
			{Role: ChatRoleUser, Content: "hi"},
			{Role: ChatRoleSystem, Content: "extra rule"},
			{Role: ChatRoleUser, Content: "   "},
		},
		MaxTokens:   200,
		Temperature: 0.1,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Text)
	assert.Equal(t, int32(14), resp.Usage.TotalTokens)
	assert.Equal(t, "end_turn", resp.StopReason)

	require.NotNil(t, api.input)
	assert.Equal(t, "default-model", aws.ToString(api.input.ModelId))
	assert.Len(t, api.input.System, 2)
	assert.Len(t, api.input.Messages, 2)
	assert.Equal(t, brtypes.ConversationRoleAssistant, api.input.Messages[0].Role)
	require.NotNil(t, api.input.InferenceConfig)
	assert.InDelta(t, 0.1, aws.ToFloat32(api.input.InferenceConfig.Temperature), 0.0001)
	assert.Equal(t, int32(200), aws.ToInt32(api.input.InferenceConfig.MaxTokens))
}

func TestBedrockClientOmitsNegativeTemperature(t *testing.T) {
	api := &mockConverse{response: "ok"}
	client := NewBedrockClient(api, "m")

	_, err := client.Complete(context.Background(), Request{
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
		Temperature: -1,
	})
	require.NoError(t, err)
	assert.Nil(t, api.input.InferenceConfig)
}

func TestBedrockClientErrors(t *testing.T) {
	_, err := NewBedrockClient(&mockConverse{}, "").Complete(context.Background(), Request{})
	assert.Error(t, err)

	_, err = NewBedrockClient(&mockConverse{}, "m").Complete(context.Background(), Request{
		Messages: []ChatMessage{{Role: "tool", Content: "x"}},
	})
	assert.Error(t, err)

	boom := errors.New("throttled")
	_, err = NewBedrockClient(&mockConverse{err: boom}, "m").Complete(context.Background(), Request{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
	})
	assert.ErrorIs(t, err, boom)

	_, err = NewBedrockClient(&mockConverse{response: "   "}, "m").Complete(context.Background(), Request{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
	})
	assert.Error(t, err)
}

func TestNewBedrockClientPanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewBedrockClient(nil, "m") })
}

package narrative

import (
	"context"
	"strings"

	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/llm"
)

// CompletionSettings are the model parameters for one kind of call.
type CompletionSettings struct {
	Model       string
	MaxTokens   int32
	Temperature float32
}

// CollectResult is the outcome of one interview turn.
type CollectResult struct {
	Transcript Transcript
	// Reply is what the participant sees; the thank-you line once the sentinel appears.
	Reply    string
	Finished bool
}

// Collector drives the interview one participant turn at a time.
type Collector struct {
	client   llm.Client
	settings CompletionSettings
}

func NewCollector(client llm.Client, settings CompletionSettings) *Collector {
	if client == nil {
		panic("narrative: collector requires a completion client")
	}
	return &Collector{client: client, settings: settings}
}

// Collect appends the participant's utterance and the interviewer's reply.
// On a collaborator failure the transcript is returned untouched.
func (c *Collector) Collect(ctx context.Context, transcript Transcript, utterance string) (CollectResult, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return CollectResult{Transcript: transcript}, ErrEmptyInput
	}

	history := transcript.clone()
	if len(history) == 0 {
		history = append(history, Turn{Role: RoleAssistant, Text: IntroMessage})
	}

	system, messages := collectMessages(history, utterance)

	resp, err := c.client.Complete(ctx, llm.Request{
		Model:       c.settings.Model,
		System:      system,
		Messages:    messages,
		MaxTokens:   c.settings.MaxTokens,
		Temperature: c.settings.Temperature,
		Operation:   "collect",
	})
	if err != nil {
		return CollectResult{Transcript: transcript}, &CollaboratorError{Stage: "collect", Err: err}
	}

	reply := strings.TrimSpace(resp.Text)
	history = append(history,
		Turn{Role: RoleUser, Text: utterance},
		Turn{Role: RoleAssistant, Text: reply},
	)

	result := CollectResult{Transcript: history, Reply: reply}
	if IsFinished(reply) {
		result.Finished = true
		result.Reply = ThankYouMessage
	}
	return result, nil
}

// collectMessages builds the prompt for one turn. Providers such as Bedrock
// and Gemini require the conversation to open with a user message, so the
// interviewer's opening turns are moved into the system prompt.
func collectMessages(history Transcript, utterance string) ([]string, []llm.ChatMessage) {
	system := []string{collectSystemPrompt}
	start := 0
	for start < len(history) && history[start].Role == RoleAssistant {
		system = append(system, openingPrefix+history[start].Text)
		start++
	}

	messages := make([]llm.ChatMessage, 0, len(history)-start+1)
	for _, turn := range history[start:] {
		messages = append(messages, llm.ChatMessage{Role: string(turn.Role), Content: turn.Text})
	}
	messages = append(messages, llm.ChatMessage{Role: llm.ChatRoleUser, Content: utterance})
	return system, messages
}

const openingPrefix = "You already opened the interview with this message:\n"

// IsFinished reports whether reply carries the end-of-interview sentinel.
func IsFinished(reply string) bool {
	return strings.Contains(reply, Sentinel)
}

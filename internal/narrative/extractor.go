package narrative

import (
	"context"
	"strings"

	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/llm"
)

// Extractor distills a transcript into an AnswerSet.
type Extractor struct {
	client   llm.Client
	settings CompletionSettings
	testing  bool
}

// NewExtractor builds an extractor. With testing set, the canned transcript is
// used in place of the participant's.
func NewExtractor(client llm.Client, settings CompletionSettings, testing bool) *Extractor {
	if client == nil {
		panic("narrative: extractor requires a completion client")
	}
	return &Extractor{client: client, settings: settings, testing: testing}
}

func (e *Extractor) Extract(ctx context.Context, transcript Transcript) (AnswerSet, error) {
	if e.testing {
		transcript = cannedTranscript
	}

	resp, err := e.client.Complete(ctx, llm.Request{
		Model:  e.settings.Model,
		System: []string{extractionPrompt},
		Messages: []llm.ChatMessage{
			{Role: llm.ChatRoleUser, Content: "Interview history:\n" + transcript.Render()},
		},
		MaxTokens:   e.settings.MaxTokens,
		Temperature: e.settings.Temperature,
		Operation:   "extract",
	})
	if err != nil {
		return AnswerSet{}, &CollaboratorError{Stage: "extract", Err: err}
	}
	return ParseAnswerSet(resp.Text)
}

// ParseAnswerSet requires a JSON object with exactly the four answer keys, each non-blank.
func ParseAnswerSet(raw string) (AnswerSet, error) {
	var parsed struct {
		What     *string `json:"what"`
		Context  *string `json:"context"`
		Outcome  *string `json:"outcome"`
		Reaction *string `json:"reaction"`
	}
	if err := llm.DecodeObjectStrict(raw, &parsed); err != nil {
		return AnswerSet{}, &MalformedExtractionError{Stage: "extract", Reason: err.Error(), Raw: raw}
	}

	fields := []struct {
		name  string
		value *string
	}{
		{"what", parsed.What},
		{"context", parsed.Context},
		{"outcome", parsed.Outcome},
		{"reaction", parsed.Reaction},
	}
	for _, f := range fields {
		if f.value == nil {
			return AnswerSet{}, &MalformedExtractionError{Stage: "extract", Reason: "missing key " + f.name, Raw: raw}
		}
		if strings.TrimSpace(*f.value) == "" {
			return AnswerSet{}, &MalformedExtractionError{Stage: "extract", Reason: "empty value for " + f.name, Raw: raw}
		}
	}

	return AnswerSet{
		What:     strings.TrimSpace(*parsed.What),
		Context:  strings.TrimSpace(*parsed.Context),
		Outcome:  strings.TrimSpace(*parsed.Outcome),
		Reaction: strings.TrimSpace(*parsed.Reaction),
	}, nil
}

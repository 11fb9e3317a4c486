package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnswerSet(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    AnswerSet
		wantErr bool
	}{
		{name: "plain object", raw: answersJSON, want: AnswerSet{What: "w", Context: "c", Outcome: "o", Reaction: "r"}},
		{name: "fenced", raw: "```json\n" + answersJSON + "\n```", want: AnswerSet{What: "w", Context: "c", Outcome: "o", Reaction: "r"}},
		{name: "missing key", raw: `{"what":"w","context":"c","outcome":"o"}`, wantErr: true},
		{name: "extra key", raw: `{"what":"w","context":"c","outcome":"o","reaction":"r","mood":"x"}`, wantErr: true},
		{name: "blank value", raw: `{"what":"w","context":" ","outcome":"o","reaction":"r"}`, wantErr: true},
		{name: "non string", raw: `{"what":1,"context":"c","outcome":"o","reaction":"r"}`, wantErr: true},
		{name: "not json", raw: "I could not find any answers.", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswerSet(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedExtraction))
				var mErr *MalformedExtractionError
				require.True(t, errors.As(err, &mErr))
				assert.Equal(t, tt.raw, mErr.Raw)
				assert.Equal(t, AnswerSet{}, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractorUsesLowTemperature(t *testing.T) {
	client := newScriptedClient().on("extract", reply(answersJSON))
	e := NewExtractor(client, CompletionSettings{Model: "m", Temperature: 0.1}, false)
	transcript := Transcript{{Role: RoleAssistant, Text: "What happened?"}, {Role: RoleUser, Text: "someone shared my photo"}}

	answers, err := e.Extract(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, "w", answers.What)

	req := client.requests[0]
	assert.InDelta(t, 0.1, req.Temperature, 0.0001)
	assert.Contains(t, req.Messages[0].Content, "user: someone shared my photo")
}

func TestExtractorTestingModeUsesCannedTranscript(t *testing.T) {
	client := newScriptedClient().on("extract", reply(answersJSON))
	e := NewExtractor(client, CompletionSettings{}, true)

	_, err := e.Extract(context.Background(), Transcript{{Role: RoleUser, Text: "real participant text"}})
	require.NoError(t, err)
	content := client.requests[0].Messages[0].Content
	assert.False(t, strings.Contains(content, "real participant text"))
	assert.True(t, containsAll(content, "learn to code", "public forum"))
}

func TestExtractorCollaboratorFailure(t *testing.T) {
	client := newScriptedClient().on("extract", failure("503"))
	e := NewExtractor(client, CompletionSettings{}, false)

	_, err := e.Extract(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrCollaboratorUnavailable))
	assert.False(t, errors.Is(err, ErrMalformedExtraction))
}

package narrative

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Event
	}{
		{"consent", `{"type":"consent_given"}`, ConsentGiven{}},
		{"answer", `{"type":"user_answered","text":"it was on a forum"}`, UserAnswered{Text: "it was on a forum"}},
		{"feedback", `{"type":"feedback_submitted","slot":2,"feedback_type":"faces","score":"🙂","text":"close"}`,
			FeedbackSubmitted{Slot: 2, Kind: FeedbackFaces, Score: "🙂", Comment: "close"}},
		{"rated by label", `{"type":"scenario_rated","slot":1,"rating":"pretty_good"}`, ScenarioRated{Slot: 1, Rating: RatingPrettyGood}},
		{"rated by ordinal", `{"type":"scenario_rated","slot":3,"rating":"4"}`, ScenarioRated{Slot: 3, Rating: RatingReadyAsIs}},
		{"try another", `{"type":"try_another","slot":3}`, TryAnother{Slot: 3}},
		{"select", `{"type":"scenario_selected","slot":2}`, ScenarioSelected{Slot: 2}},
		{"edit", `{"type":"scenario_edited","text":"T"}`, ScenarioEdited{Text: "T"}},
		{"adapt", `{"type":"adaptation_requested","instruction":"shorter"}`, AdaptationRequested{Instruction: "shorter"}},
		{"accept", `{"type":"adaptation_accepted"}`, AdaptationAccepted{}},
		{"retry", `{"type":"scenarios_requested"}`, ScenariosRequested{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEventRejects(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":"go_back"}`))
	assert.True(t, errors.Is(err, ErrUnknownEvent))

	_, err = DecodeEvent([]byte(`{"type":`))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`{"type":"scenario_rated","slot":1,"rating":"amazing"}`))
	assert.Error(t, err)
}

func TestEncodeEventCarriesType(t *testing.T) {
	raw, err := EncodeEvent(ScenarioRated{Slot: 2, Rating: RatingNeedsEdits})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "scenario_rated", fields["type"])
	assert.Equal(t, "needs_edits", fields["rating"])

	back, err := DecodeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, ScenarioRated{Slot: 2, Rating: RatingNeedsEdits}, back)
}

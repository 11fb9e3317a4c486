package narrative

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackScore(t *testing.T) {
	tests := []struct {
		kind  FeedbackKind
		token string
		want  float64
	}{
		{FeedbackThumbs, "👍", 1},
		{FeedbackThumbs, "👎", 0},
		{FeedbackFaces, "😀", 1},
		{FeedbackFaces, "🙂", 0.75},
		{FeedbackFaces, "😐", 0.5},
		{FeedbackFaces, "🙁", 0.25},
		{FeedbackFaces, "😞", 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+tt.token, func(t *testing.T) {
			got, err := FeedbackScore(tt.kind, tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFeedbackScoreRejectsUnknownTokens(t *testing.T) {
	for _, tc := range []struct {
		kind  FeedbackKind
		token string
	}{
		{FeedbackThumbs, "😀"},
		{FeedbackFaces, "👍"},
		{"stars", "5"},
		{FeedbackThumbs, ""},
	} {
		_, err := FeedbackScore(tc.kind, tc.token)
		assert.True(t, errors.Is(err, ErrInvalidFeedbackScore), "%s %q", tc.kind, tc.token)
	}
}

func TestRecordFeedbackIsWriteOnce(t *testing.T) {
	variant := &ScenarioVariant{Slot: 2, Text: "B"}
	now := time.Now()

	first, err := RecordFeedback(variant, FeedbackThumbs, "👍", "  spot on ", now)
	require.NoError(t, err)
	assert.Equal(t, 1.0, first.Score)
	assert.Equal(t, "spot on", first.Comment)

	_, err = RecordFeedback(variant, FeedbackThumbs, "👎", "changed my mind", now)
	assert.ErrorIs(t, err, ErrFeedbackAlreadyRecorded)
	require.NotNil(t, variant.Feedback)
	assert.Equal(t, 1.0, variant.Feedback.Score)
	assert.Equal(t, "spot on", variant.Feedback.Comment)
}

func TestRecordFeedbackInvalidTokenLeavesVariantUnchanged(t *testing.T) {
	variant := &ScenarioVariant{Slot: 1, Text: "A"}
	_, err := RecordFeedback(variant, FeedbackFaces, "🤷", "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidFeedbackScore)
	assert.Nil(t, variant.Feedback)
}

func TestSelectionGate(t *testing.T) {
	var gate SlotGate
	assert.True(t, gate.AwaitingJudgment())
	assert.False(t, CanAccept(gate))

	require.NoError(t, RateSlot(&gate, RatingNeedsEdits))
	assert.False(t, gate.AwaitingJudgment())
	assert.True(t, CanAccept(gate))

	TryAnotherSlot(&gate)
	assert.True(t, gate.AwaitingJudgment())
	assert.False(t, CanAccept(gate))

	// Try another is always allowed, even when already awaiting judgment.
	TryAnotherSlot(&gate)
	assert.False(t, CanAccept(gate))

	require.NoError(t, RateSlot(&gate, RatingReadyAsIs))
	assert.True(t, CanAccept(gate))
	assert.Error(t, RateSlot(&gate, Rating(9)))
	assert.Equal(t, RatingReadyAsIs, gate.Rating)
}

func TestParseRating(t *testing.T) {
	tests := map[string]Rating{
		"not_really":       RatingNotReally,
		"needs edits":      RatingNeedsEdits,
		"Pretty-Good":      RatingPrettyGood,
		"Ready as is!":     RatingReadyAsIs,
		"4":                RatingReadyAsIs,
		"Needs some edits": RatingNeedsEdits,
	}
	for raw, want := range tests {
		got, err := ParseRating(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []string{"0", "5", "great", ""} {
		_, err := ParseRating(raw)
		assert.Error(t, err, raw)
	}
	assert.True(t, RatingNotReally < RatingNeedsEdits && RatingNeedsEdits < RatingPrettyGood && RatingPrettyGood < RatingReadyAsIs)
}

package narrative

import (
	"fmt"
	"strings"
	"time"
)

var feedbackScores = map[FeedbackKind]map[string]float64{
	FeedbackThumbs: {
		"👍": 1,
		"👎": 0,
	},
	FeedbackFaces: {
		"😀": 1,
		"🙂": 0.75,
		"😐": 0.5,
		"🙁": 0.25,
		"😞": 0,
	},
}

// FeedbackScore maps a feedback token to its numeric score.
func FeedbackScore(kind FeedbackKind, token string) (float64, error) {
	table, ok := feedbackScores[FeedbackKind(strings.ToLower(strings.TrimSpace(string(kind))))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown feedback type %q", ErrInvalidFeedbackScore, kind)
	}
	score, ok := table[strings.TrimSpace(token)]
	if !ok {
		return 0, fmt.Errorf("%w: %q is not a %s score", ErrInvalidFeedbackScore, token, kind)
	}
	return score, nil
}

// RecordFeedback writes the slot's one feedback record. A slot that already
// holds feedback is left unchanged and ErrFeedbackAlreadyRecorded is returned.
func RecordFeedback(variant *ScenarioVariant, kind FeedbackKind, token, comment string, now time.Time) (FeedbackRecord, error) {
	if variant == nil {
		return FeedbackRecord{}, ErrInvalidSlot
	}
	if variant.Feedback != nil {
		return *variant.Feedback, fmt.Errorf("%w: %s", ErrFeedbackAlreadyRecorded, variant.Slot)
	}
	score, err := FeedbackScore(kind, token)
	if err != nil {
		return FeedbackRecord{}, err
	}

	record := FeedbackRecord{
		Kind:       FeedbackKind(strings.ToLower(strings.TrimSpace(string(kind)))),
		Token:      strings.TrimSpace(token),
		Score:      score,
		Comment:    strings.TrimSpace(comment),
		RecordedAt: now,
	}
	variant.Feedback = &record
	return record, nil
}

// RateSlot records a quality rating and enables the slot's accept control.
func RateSlot(gate *SlotGate, rating Rating) error {
	if !rating.Valid() {
		return fmt.Errorf("narrative: invalid rating %d", int(rating))
	}
	gate.Rating = rating
	gate.Rated = true
	return nil
}

// TryAnotherSlot returns the slot to awaiting judgment and disables accept.
func TryAnotherSlot(gate *SlotGate) {
	gate.Rated = false
}

// CanAccept reports whether the slot's accept control is enabled.
func CanAccept(gate SlotGate) bool {
	return gate.Rated && gate.Rating.Valid()
}

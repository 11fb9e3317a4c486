package narrative

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildViewHidesSentinelAndPersonas(t *testing.T) {
	s := reviewSession()
	s.Gates[1] = SlotGate{Rating: RatingPrettyGood, Rated: true}

	view := BuildView(s, Outcome{From: PhaseReview, To: PhaseReview}, "CODE")
	assert.Equal(t, ThankYouMessage, view.Messages[len(view.Messages)-1].Text)
	assert.Empty(t, view.ConsentText)
	assert.Nil(t, view.Progress)
	assert.Empty(t, view.CompletionCode)
	require.Len(t, view.Scenarios, 3)
	assert.False(t, view.Scenarios[0].CanAccept)
	assert.True(t, view.Scenarios[1].CanAccept)
	assert.Equal(t, "pretty_good", view.Scenarios[1].Rating)
	assert.Empty(t, view.Scenarios[2].Rating)
}

func TestBuildViewProgressDuringSummarize(t *testing.T) {
	s := reviewSession()
	s.Phase = PhaseSummarize
	s.Variants[2] = nil

	view := BuildView(s, Outcome{}, "")
	require.NotNil(t, view.Progress)
	assert.Equal(t, Progress{Done: 2, Total: 3}, *view.Progress)
	assert.Empty(t, view.Scenarios)
}

func TestNewPackageRecord(t *testing.T) {
	s := reviewSession()
	s.Variants[0].Feedback = &FeedbackRecord{Kind: FeedbackFaces, Token: "🙂", Score: 0.75, Comment: "ok"}
	s.Phase = PhaseReady
	s.Package = &ScenarioPackage{
		Scenario:     "T",
		SelectedSlot: 2,
		Answers:      *s.Answers,
		Judgment:     RatingReadyAsIs,
		Transcript:   s.Transcript.clone(),
		Adaptations:  []AdaptationEntry{{Source: "direct_text_edit from: B", Result: "T"}},
		Assignment:   *s.Assignment,
	}
	for _, v := range s.Variants {
		s.Package.Variants = append(s.Package.Variants, *v.clone())
	}

	finalized := time.Date(2025, 6, 1, 14, 0, 0, 0, time.FixedZone("BST", 3600))
	record := NewPackageRecord(s, finalized)
	assert.Equal(t, "p-1", record.SessionID)
	assert.Equal(t, time.UTC, record.FinalizedAt.Location())
	assert.Equal(t, "Ready as is!", record.Judgment)
	assert.Equal(t, []string{"formal", "young-sibling", "friend"}, record.PersonaAssignment)
	require.Len(t, record.Scenarios, 3)
	assert.Equal(t, "faces", record.Scenarios[0].FeedbackKind)
	assert.Equal(t, 0.75, *record.Scenarios[0].FeedbackScore)
	assert.Nil(t, record.Scenarios[1].FeedbackScore)
	assert.Equal(t, "B", record.Scenarios[1].Text)
	assert.Len(t, record.Transcript, len(s.Transcript))
	assert.Equal(t, "direct_text_edit from: B", record.Adaptations[0].Source)
}

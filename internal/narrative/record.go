package narrative

import "time"

// TranscriptPair is one flattened (role, text) interview turn.
type TranscriptPair struct {
	Role string `json:"role" dynamodbav:"role"`
	Text string `json:"text" dynamodbav:"text"`
}

// VariantRecord is one original scenario with its feedback, as persisted.
type VariantRecord struct {
	Slot            int      `json:"slot" dynamodbav:"slot"`
	Persona         string   `json:"persona" dynamodbav:"persona"`
	Text            string   `json:"text" dynamodbav:"text"`
	FeedbackKind    string   `json:"feedback_kind,omitempty" dynamodbav:"feedback_kind,omitempty"`
	FeedbackToken   string   `json:"feedback_token,omitempty" dynamodbav:"feedback_token,omitempty"`
	FeedbackScore   *float64 `json:"feedback_score,omitempty" dynamodbav:"feedback_score,omitempty"`
	FeedbackComment string   `json:"feedback_comment,omitempty" dynamodbav:"feedback_comment,omitempty"`
}

// PackageRecord is the write-once row stored when a session reaches ready.
type PackageRecord struct {
	SessionID         string            `json:"session_id" dynamodbav:"session_id"`
	CreatedAt         time.Time         `json:"created_at" dynamodbav:"created_at"`
	FinalizedAt       time.Time         `json:"finalized_at" dynamodbav:"finalized_at"`
	Scenario          string            `json:"scenario" dynamodbav:"scenario"`
	Answers           AnswerSet         `json:"answer_set" dynamodbav:"answer_set"`
	Judgment          string            `json:"judgment" dynamodbav:"judgment"`
	SelectedSlot      int               `json:"selected_slot" dynamodbav:"selected_slot"`
	PersonaAssignment []string          `json:"persona_assignment" dynamodbav:"persona_assignment"`
	Scenarios         []VariantRecord   `json:"scenarios_all" dynamodbav:"scenarios_all"`
	Transcript        []TranscriptPair  `json:"chat_history" dynamodbav:"chat_history"`
	Adaptations       []AdaptationEntry `json:"adaptation_list" dynamodbav:"adaptation_list"`
}

// NewPackageRecord flattens a ready session's package. The session must hold a package.
func NewPackageRecord(s *Session, finalizedAt time.Time) PackageRecord {
	pkg := s.Package
	record := PackageRecord{
		SessionID:    s.ID,
		CreatedAt:    s.CreatedAt.UTC(),
		FinalizedAt:  finalizedAt.UTC(),
		Scenario:     pkg.Scenario,
		Answers:      pkg.Answers,
		Judgment:     pkg.Judgment.Display(),
		SelectedSlot: int(pkg.SelectedSlot),
		Adaptations:  append([]AdaptationEntry{}, pkg.Adaptations...),
	}
	for _, id := range pkg.Assignment {
		record.PersonaAssignment = append(record.PersonaAssignment, string(id))
	}
	for _, v := range pkg.Variants {
		row := VariantRecord{Slot: int(v.Slot), Persona: string(v.Persona), Text: v.Text}
		if v.Feedback != nil {
			score := v.Feedback.Score
			row.FeedbackKind = string(v.Feedback.Kind)
			row.FeedbackToken = v.Feedback.Token
			row.FeedbackScore = &score
			row.FeedbackComment = v.Feedback.Comment
		}
		record.Scenarios = append(record.Scenarios, row)
	}
	for _, turn := range pkg.Transcript {
		record.Transcript = append(record.Transcript, TranscriptPair{Role: string(turn.Role), Text: turn.Text})
	}
	return record
}

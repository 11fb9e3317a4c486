package narrative

// Progress reports the scenario fan-out.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// ScenarioView is one slot as the participant sees it. Personas stay hidden.
type ScenarioView struct {
	Slot           Slot            `json:"slot"`
	Text           string          `json:"text"`
	Feedback       *FeedbackRecord `json:"feedback,omitempty"`
	FeedbackLocked bool            `json:"feedback_locked"`
	Rating         string          `json:"rating,omitempty"`
	CanAccept      bool            `json:"can_accept"`
}

// FinalView is the selected scenario during finalize.
type FinalView struct {
	Scenario    string            `json:"scenario"`
	Judgment    string            `json:"judgment"`
	Proposal    string            `json:"proposal,omitempty"`
	Adaptations []AdaptationEntry `json:"adaptations"`
	Ready       bool              `json:"ready"`
}

// View is the participant-facing rendering of a session.
type View struct {
	SessionID      string         `json:"session_id"`
	Phase          Phase          `json:"phase"`
	Consented      bool           `json:"consented"`
	ConsentText    string         `json:"consent_text,omitempty"`
	Messages       []Turn         `json:"messages"`
	Reply          string         `json:"reply,omitempty"`
	Notices        []string       `json:"notices,omitempty"`
	Warning        string         `json:"warning,omitempty"`
	Progress       *Progress      `json:"progress,omitempty"`
	Scenarios      []ScenarioView `json:"scenarios,omitempty"`
	Final          *FinalView     `json:"final,omitempty"`
	CompletionCode string         `json:"completion_code,omitempty"`
	Persisted      bool           `json:"persisted"`
}

// BuildView renders s after out. completionCode is shown once the package is saved.
func BuildView(s *Session, out Outcome, completionCode string) View {
	v := View{
		SessionID: s.ID,
		Phase:     s.Phase,
		Consented: s.Consented,
		Reply:     out.Reply,
		Notices:   out.Notices,
		Persisted: s.Persisted,
	}
	if !s.Consented {
		v.ConsentText = ConsentMessage
	}

	v.Messages = make([]Turn, 0, len(s.Transcript))
	for _, turn := range s.Transcript {
		if turn.Role == RoleAssistant && IsFinished(turn.Text) {
			turn.Text = ThankYouMessage
		}
		v.Messages = append(v.Messages, turn)
	}

	if s.Phase == PhaseSummarize {
		v.Progress = &Progress{Done: s.GeneratedCount(), Total: SlotCount}
	}

	if s.Phase == PhaseReview {
		for _, slot := range Slots() {
			variant := s.Variant(slot)
			if variant == nil {
				continue
			}
			gate := s.Gates[slot.index()]
			sv := ScenarioView{
				Slot:           slot,
				Text:           variant.Text,
				Feedback:       variant.Feedback,
				FeedbackLocked: variant.Feedback != nil,
				CanAccept:      CanAccept(gate),
			}
			if gate.Rated {
				sv.Rating = gate.Rating.String()
			}
			v.Scenarios = append(v.Scenarios, sv)
		}
	}

	if s.Package != nil {
		v.Final = &FinalView{
			Scenario:    s.Package.Scenario,
			Judgment:    s.Package.Judgment.Display(),
			Proposal:    s.Package.Proposal,
			Adaptations: s.Package.Adaptations,
			Ready:       s.Phase == PhaseReady,
		}
	}
	if s.Phase == PhaseReady && s.Persisted {
		v.CompletionCode = completionCode
	}
	return v
}

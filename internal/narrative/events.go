package narrative

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventType names an event on the wire.
type EventType string

const (
	EventConsentGiven        EventType = "consent_given"
	EventUserAnswered        EventType = "user_answered"
	EventScenariosRequested  EventType = "scenarios_requested"
	EventFeedbackSubmitted   EventType = "feedback_submitted"
	EventScenarioRated       EventType = "scenario_rated"
	EventTryAnother          EventType = "try_another"
	EventScenarioSelected    EventType = "scenario_selected"
	EventScenarioEdited      EventType = "scenario_edited"
	EventAdaptationRequested EventType = "adaptation_requested"
	EventAdaptationAccepted  EventType = "adaptation_accepted"
)

// Event is one participant action. The set is closed.
type Event interface {
	Type() EventType
	isEvent()
}

type ConsentGiven struct{}

type UserAnswered struct {
	Text string `json:"text"`
}

// ScenariosRequested re-runs an unfinished summarize step.
type ScenariosRequested struct{}

type FeedbackSubmitted struct {
	Slot    Slot         `json:"slot"`
	Kind    FeedbackKind `json:"feedback_type"`
	Score   string       `json:"score"`
	Comment string       `json:"text,omitempty"`
}

type ScenarioRated struct {
	Slot   Slot   `json:"slot"`
	Rating Rating `json:"rating"`
}

type TryAnother struct {
	Slot Slot `json:"slot"`
}

type ScenarioSelected struct {
	Slot Slot `json:"slot"`
}

type ScenarioEdited struct {
	Text string `json:"text"`
}

type AdaptationRequested struct {
	Instruction string `json:"instruction"`
}

type AdaptationAccepted struct{}

func (ConsentGiven) Type() EventType        { return EventConsentGiven }
func (UserAnswered) Type() EventType        { return EventUserAnswered }
func (ScenariosRequested) Type() EventType  { return EventScenariosRequested }
func (FeedbackSubmitted) Type() EventType   { return EventFeedbackSubmitted }
func (ScenarioRated) Type() EventType       { return EventScenarioRated }
func (TryAnother) Type() EventType          { return EventTryAnother }
func (ScenarioSelected) Type() EventType    { return EventScenarioSelected }
func (ScenarioEdited) Type() EventType      { return EventScenarioEdited }
func (AdaptationRequested) Type() EventType { return EventAdaptationRequested }
func (AdaptationAccepted) Type() EventType  { return EventAdaptationAccepted }

func (ConsentGiven) isEvent()        {}
func (UserAnswered) isEvent()        {}
func (ScenariosRequested) isEvent()  {}
func (FeedbackSubmitted) isEvent()   {}
func (ScenarioRated) isEvent()       {}
func (TryAnother) isEvent()          {}
func (ScenarioSelected) isEvent()    {}
func (ScenarioEdited) isEvent()      {}
func (AdaptationRequested) isEvent() {}
func (AdaptationAccepted) isEvent()  {}

// envelope is the wire form: {"type": "...", ...payload}.
type envelope struct {
	Type EventType `json:"type"`
}

// DecodeEvent parses a JSON envelope into its concrete event.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("narrative: decode event: %w", err)
	}

	var ev Event
	var err error
	switch EventType(strings.TrimSpace(string(env.Type))) {
	case EventConsentGiven:
		ev = ConsentGiven{}
	case EventUserAnswered:
		var e UserAnswered
		err = json.Unmarshal(data, &e)
		ev = e
	case EventScenariosRequested:
		ev = ScenariosRequested{}
	case EventFeedbackSubmitted:
		var e FeedbackSubmitted
		err = json.Unmarshal(data, &e)
		ev = e
	case EventScenarioRated:
		var e ScenarioRated
		err = json.Unmarshal(data, &e)
		ev = e
	case EventTryAnother:
		var e TryAnother
		err = json.Unmarshal(data, &e)
		ev = e
	case EventScenarioSelected:
		var e ScenarioSelected
		err = json.Unmarshal(data, &e)
		ev = e
	case EventScenarioEdited:
		var e ScenarioEdited
		err = json.Unmarshal(data, &e)
		ev = e
	case EventAdaptationRequested:
		var e AdaptationRequested
		err = json.Unmarshal(data, &e)
		ev = e
	case EventAdaptationAccepted:
		ev = AdaptationAccepted{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("narrative: decode %s: %w", env.Type, err)
	}
	return ev, nil
}

// EncodeEvent renders ev as a JSON envelope.
func EncodeEvent(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}
	typ, _ := json.Marshal(ev.Type())
	fields["type"] = typ
	return json.Marshal(fields)
}

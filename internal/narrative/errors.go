package narrative

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSessionIdentity is returned before any phase logic when no session id is supplied.
	ErrMissingSessionIdentity = errors.New("narrative: missing session identity")
	// ErrMalformedExtraction marks model output that does not parse into the required shape.
	ErrMalformedExtraction = errors.New("narrative: malformed extraction")
	// ErrInvalidFeedbackScore is an advisory condition; the session is unchanged.
	ErrInvalidFeedbackScore = errors.New("narrative: invalid feedback score")
	// ErrCollaboratorUnavailable marks a failed completion call; the trigger can be retried.
	ErrCollaboratorUnavailable = errors.New("narrative: completion collaborator unavailable")

	ErrEventNotAllowed         = errors.New("narrative: event not allowed in current phase")
	ErrUnknownEvent            = errors.New("narrative: unknown event type")
	ErrInvalidSlot             = errors.New("narrative: invalid scenario slot")
	ErrEmptyInput              = errors.New("narrative: input text is empty")
	ErrConsentRequired         = errors.New("narrative: consent required before the interview starts")
	ErrFeedbackAlreadyRecorded = errors.New("narrative: feedback already recorded for slot")
	ErrSelectionNotJudged      = errors.New("narrative: scenario must be rated before it can be selected")
	ErrNoPendingAdaptation     = errors.New("narrative: no adapted scenario awaiting acceptance")
	ErrFanOutIncomplete        = errors.New("narrative: scenario generation incomplete")
	ErrSessionNotFound         = errors.New("narrative: session not found")
	ErrSessionBusy             = errors.New("narrative: session is handling another action")
)

// MalformedExtractionError carries the raw model output that failed to parse.
type MalformedExtractionError struct {
	Stage  string
	Reason string
	Raw    string
}

func (e *MalformedExtractionError) Error() string {
	return fmt.Sprintf("narrative: malformed %s output: %s", e.Stage, e.Reason)
}

func (e *MalformedExtractionError) Unwrap() error { return ErrMalformedExtraction }

// CollaboratorError wraps a failed completion call.
type CollaboratorError struct {
	Stage string
	Err   error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("narrative: %s completion failed: %v", e.Stage, e.Err)
}

func (e *CollaboratorError) Unwrap() []error { return []error{ErrCollaboratorUnavailable, e.Err} }

// SlotError attributes a fan-out failure to one slot.
type SlotError struct {
	Slot    Slot
	Persona PersonaID
	Err     error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Slot, e.Persona, e.Err)
}

func (e *SlotError) Unwrap() error { return e.Err }

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

const maxEventBytes = 64 << 10

// SessionService is what the session endpoints need from narrative.Service.
type SessionService interface {
	Current(ctx context.Context, sessionID string) (narrative.View, error)
	Handle(ctx context.Context, sessionID string, ev narrative.Event) (narrative.View, error)
}

// SessionHandler serves the participant-facing session API.
type SessionHandler struct {
	service SessionService
	logger  *logging.Logger
}

func NewSessionHandler(service SessionService, logger *logging.Logger) *SessionHandler {
	if service == nil {
		panic("handlers: session service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionHandler{service: service, logger: logger}
}

type errorResponse struct {
	Error   string `json:"error"`
	Warning string `json:"warning,omitempty"`
}

// GetSession handles GET /session?pid=.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	pid := strings.TrimSpace(r.URL.Query().Get("pid"))
	if pid == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "pid query parameter is required"})
		return
	}
	view, err := h.service.Current(r.Context(), pid)
	if err != nil {
		h.writeError(w, pid, view, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// PostEvent handles POST /session/events?pid= with one event envelope as the body.
func (h *SessionHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	pid := strings.TrimSpace(r.URL.Query().Get("pid"))
	if pid == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "pid query parameter is required"})
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "event too large"})
		return
	}
	ev, err := narrative.DecodeEvent(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	view, err := h.service.Handle(r.Context(), pid, ev)
	if err != nil {
		h.writeError(w, pid, view, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// writeError renders err. Advisory failures still return the view so the
// page can show the warning in place.
func (h *SessionHandler) writeError(w http.ResponseWriter, pid string, view narrative.View, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ForSession(pid).Error("session request failed", "status", status, "error", err)
	}
	if view.SessionID != "" {
		w.Header().Set("X-Narrative-Error", errorCode(err))
		writeJSON(w, status, view)
		return
	}
	writeJSON(w, status, errorResponse{Error: errorCode(err), Warning: view.Warning})
}

// StatusFor maps a session error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, narrative.ErrInvalidFeedbackScore), errors.Is(err, narrative.ErrEmptyInput):
		return http.StatusOK
	case errors.Is(err, narrative.ErrMissingSessionIdentity), errors.Is(err, narrative.ErrUnknownEvent),
		errors.Is(err, narrative.ErrInvalidSlot):
		return http.StatusBadRequest
	case errors.Is(err, narrative.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, narrative.ErrEventNotAllowed), errors.Is(err, narrative.ErrSelectionNotJudged),
		errors.Is(err, narrative.ErrFeedbackAlreadyRecorded), errors.Is(err, narrative.ErrConsentRequired),
		errors.Is(err, narrative.ErrNoPendingAdaptation), errors.Is(err, narrative.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, narrative.ErrMalformedExtraction), errors.Is(err, narrative.ErrFanOutIncomplete):
		return http.StatusBadGateway
	case errors.Is(err, narrative.ErrCollaboratorUnavailable), errors.Is(err, narrative.ErrPackageNotPersisted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, narrative.ErrInvalidFeedbackScore):
		return "invalid_feedback_score"
	case errors.Is(err, narrative.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, narrative.ErrMissingSessionIdentity):
		return "missing_session_identity"
	case errors.Is(err, narrative.ErrUnknownEvent):
		return "unknown_event"
	case errors.Is(err, narrative.ErrInvalidSlot):
		return "invalid_slot"
	case errors.Is(err, narrative.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, narrative.ErrEventNotAllowed):
		return "event_not_allowed"
	case errors.Is(err, narrative.ErrSelectionNotJudged):
		return "selection_not_judged"
	case errors.Is(err, narrative.ErrFeedbackAlreadyRecorded):
		return "feedback_already_recorded"
	case errors.Is(err, narrative.ErrConsentRequired):
		return "consent_required"
	case errors.Is(err, narrative.ErrNoPendingAdaptation):
		return "no_pending_adaptation"
	case errors.Is(err, narrative.ErrSessionBusy):
		return "session_busy"
	case errors.Is(err, narrative.ErrMalformedExtraction):
		return "malformed_extraction"
	case errors.Is(err, narrative.ErrFanOutIncomplete):
		return "fan_out_incomplete"
	case errors.Is(err, narrative.ErrCollaboratorUnavailable):
		return "collaborator_unavailable"
	case errors.Is(err, narrative.ErrPackageNotPersisted):
		return "package_not_persisted"
	default:
		return "internal_error"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/http/middleware"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

// SessionReader returns raw session state.
type SessionReader interface {
	Session(ctx context.Context, sessionID string) (*narrative.Session, error)
}

// AdminSessionsHandler lets researchers inspect live session state, personas included.
type AdminSessionsHandler struct {
	reader SessionReader
	logger *logging.Logger
}

func NewAdminSessionsHandler(reader SessionReader, logger *logging.Logger) *AdminSessionsHandler {
	if reader == nil {
		panic("handlers: session reader cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminSessionsHandler{reader: reader, logger: logger}
}

// GetSession handles GET /admin/sessions/{pid}.
func (h *AdminSessionsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	pid := strings.TrimSpace(chi.URLParam(r, "pid"))
	if pid == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "pid is required"})
		return
	}
	sess, err := h.reader.Session(r.Context(), pid)
	if err != nil {
		if errors.Is(err, narrative.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "session_not_found"})
			return
		}
		h.logger.Error("admin session lookup failed", "session_id", pid, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
		return
	}

	if claims, ok := middleware.AdminClaimsFromContext(r.Context()); ok {
		h.logger.Info("admin viewed session", "session_id", pid, "researcher", claims.Subject)
	}
	writeJSON(w, http.StatusOK, sess)
}

package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
	"golang.org/x/net/websocket"
)

// SessionService is the part of narrative.Service the socket drives.
type SessionService interface {
	Current(ctx context.Context, sessionID string) (narrative.View, error)
	Handle(ctx context.Context, sessionID string, ev narrative.Event) (narrative.View, error)
}

// Handler runs the participant's live session over a WebSocket.
type Handler struct {
	service SessionService
	logger  *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*wsConn // pid -> active connection
}

type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(msg OutboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return websocket.JSON.Send(c.conn, msg)
}

// OutboundMessage is what the page receives.
type OutboundMessage struct {
	Type     string              `json:"type"` // "view", "progress", "error", "pong"
	View     *narrative.View     `json:"view,omitempty"`
	Progress *narrative.Progress `json:"progress,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func NewHandler(service SessionService, logger *logging.Logger) *Handler {
	if service == nil {
		panic("webchat: session service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger, sessions: make(map[string]*wsConn)}
}

// HandleWebSocket serves GET /session/ws?pid=.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	pid := strings.TrimSpace(r.URL.Query().Get("pid"))
	wsc := &wsConn{conn: conn}
	if pid == "" {
		_ = wsc.send(OutboundMessage{Type: "error", Error: "missing pid parameter"})
		return
	}
	ctx := r.Context()
	logger := h.logger.ForSession(pid)

	view, err := h.service.Current(ctx, pid)
	if err != nil {
		_ = wsc.send(OutboundMessage{Type: "error", Error: err.Error()})
		return
	}
	_ = wsc.send(OutboundMessage{Type: "view", View: &view})

	// A newer tab for the same participant takes over pushes.
	h.mu.Lock()
	h.sessions[pid] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.sessions[pid] == wsc {
			delete(h.sessions, pid)
		}
		h.mu.Unlock()
	}()

	logger.Info("webchat: connection opened")
	for {
		var raw []byte
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			logger.Debug("webchat: connection closed", "error", err)
			return
		}
		h.processMessage(ctx, pid, raw)
	}
}

func (h *Handler) processMessage(ctx context.Context, pid string, raw []byte) {
	var frame struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &frame); err == nil && frame.Type == "ping" {
		h.SendToSession(pid, OutboundMessage{Type: "pong"})
		return
	}

	ev, err := narrative.DecodeEvent(raw)
	if err != nil {
		h.SendToSession(pid, OutboundMessage{Type: "error", Error: err.Error()})
		return
	}

	ctx = narrative.WithProgress(ctx, func(done, total int) {
		h.SendToSession(pid, OutboundMessage{Type: "progress", Progress: &narrative.Progress{Done: done, Total: total}})
	})
	view, err := h.service.Handle(ctx, pid, ev)
	if err != nil {
		msg := OutboundMessage{Type: "error", Error: err.Error()}
		if view.SessionID != "" {
			msg.View = &view
		}
		if !errors.Is(err, narrative.ErrInvalidFeedbackScore) {
			h.logger.ForSession(pid).Warn("webchat: event failed", "event", ev.Type(), "error", err)
		}
		h.SendToSession(pid, msg)
		return
	}
	h.SendToSession(pid, OutboundMessage{Type: "view", View: &view})
}

// SendToSession pushes msg to the participant's open socket, if any.
func (h *Handler) SendToSession(pid string, msg OutboundMessage) {
	h.mu.RLock()
	wsc, ok := h.sessions[pid]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := wsc.send(msg); err != nil {
		h.logger.ForSession(pid).Debug("webchat: send failed", "type", msg.Type, "error", err)
	}
}

// Connected reports whether pid has an open socket.
func (h *Handler) Connected(pid string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessions[pid]
	return ok
}

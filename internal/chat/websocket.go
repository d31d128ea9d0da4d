package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/itpurple/stylist/internal/assistant"
	"github.com/itpurple/stylist/internal/dialog"
	"github.com/itpurple/stylist/internal/domain"
	"github.com/itpurple/stylist/internal/identity"
)

// inboundFrame is one user action sent over the socket.
type inboundFrame struct {
	Kind  string `json:"kind"` // "select", "free_text", "back"
	Step  string `json:"step,omitempty"`
	Value string `json:"value,omitempty"`
}

// errorFrame reports a malformed frame back to the client.
type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// WebSocketHandler runs a conversation over a WebSocket: event frames in,
// prompt/result frames out.
type WebSocketHandler struct {
	svc   *assistant.Service
	cm    *ConnManager
	isDev bool
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(svc *assistant.Service, cm *ConnManager, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{svc: svc, cm: cm, isDev: isDev}
}

// ServeHTTP upgrades the connection and pumps the dialog loop until the
// client disconnects.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = identity.AnonIDFromContext(r.Context())
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	slog.Info("Chat connection request", "session_id", sessionID, "ip", r.RemoteAddr)

	opts := &websocket.AcceptOptions{}
	if h.isDev {
		opts.OriginPatterns = []string{"*"}
	}
	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "conversation ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()

	h.cm.Register(sessionID, ws)
	defer h.cm.Unregister(sessionID, ws)

	ctx := r.Context()

	// A new session gets the greeting and first prompt; a reconnect re-prompts
	// the current step without feeding anything through the dialog.
	if err := h.writeJSON(ctx, ws, h.svc.Open(sessionID)); err != nil {
		return
	}

	for {
		ev, err := h.readEvent(ctx, ws)
		if err != nil {
			if !isClosedConn(err) {
				slog.Debug("Chat read error", "session_id", sessionID, "error", err)
			}
			return
		}
		if ev == nil {
			// Malformed frame already reported to the client.
			continue
		}

		reply, err := h.svc.HandleEvent(ctx, sessionID, ev)
		if err != nil {
			slog.Error("Failed to handle chat event", "session_id", sessionID, "error", err)
			return
		}
		if err := h.writeJSON(ctx, ws, reply); err != nil {
			return
		}
	}
}

// readEvent reads and converts one inbound frame. A malformed frame is
// reported to the client and returns (nil, nil).
func (h *WebSocketHandler) readEvent(ctx context.Context, ws *websocket.Conn) (dialog.Event, error) {
	_, data, err := ws.Read(ctx)
	if err != nil {
		return nil, err
	}

	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		_ = h.writeJSON(ctx, ws, errorFrame{Type: "error", Error: "invalid frame"})
		return nil, nil
	}

	switch frame.Kind {
	case "select":
		return dialog.Select{Step: domain.StepID(frame.Step), Value: frame.Value}, nil
	case "free_text":
		return dialog.FreeText{Text: frame.Value}, nil
	case "back":
		return dialog.Back{}, nil
	default:
		_ = h.writeJSON(ctx, ws, errorFrame{Type: "error", Error: "unknown event kind"})
		return nil, nil
	}
}

func (h *WebSocketHandler) writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal chat frame", "error", err)
		return err
	}
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		if !isClosedConn(err) {
			slog.Debug("Chat write error", "error", err)
		}
		return err
	}
	return nil
}

func isClosedConn(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled) ||
		websocket.CloseStatus(err) != -1
}

// Package api provides HTTP handlers for the stylist API.
//
//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/itpurple/stylist/internal/assistant"
	"github.com/itpurple/stylist/internal/dialog"
	"github.com/itpurple/stylist/internal/domain"
)

// maxRequestBodySize is the maximum allowed request body size (64KB). Dialog
// events are tiny; anything bigger is abuse.
const maxRequestBodySize = 64 << 10

// Handler serves the dialog and catalog endpoints.
type Handler struct {
	svc *assistant.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *assistant.Service) *Handler {
	return &Handler{svc: svc}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// RegisterRoutes registers dialog and catalog routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/dialog/events", h.HandleEvent)
		r.Post("/dialog/reset", h.Reset)
		r.Get("/catalog/items", h.ListItems)
	})
}

// EventRequest is the inbound event surface: exactly what the transport
// layer mapped a platform UI action into.
type EventRequest struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"` // "select", "free_text", "back"
	Step      string `json:"step,omitempty"`
	Value     string `json:"value,omitempty"`
}

// Event converts the request into an engine event.
func (r EventRequest) Event() (dialog.Event, error) {
	switch r.Kind {
	case "select":
		if r.Step == "" {
			return nil, errors.New("select event requires a step")
		}
		return dialog.Select{Step: domain.StepID(r.Step), Value: r.Value}, nil
	case "free_text":
		return dialog.FreeText{Text: r.Value}, nil
	case "back":
		return dialog.Back{}, nil
	default:
		return nil, errors.New("unknown event kind: " + r.Kind)
	}
}

// HandleEvent applies one dialog event and returns the next prompt, a
// rejection, or the final recommendation document.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := decodeBody(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	ev, err := req.Event()
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.svc.HandleEvent(r.Context(), req.SessionID, ev)
	if err != nil {
		slog.Error("Failed to handle dialog event", "session_id", req.SessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to handle event")
		return
	}
	JSON(w, http.StatusOK, reply)
}

// ResetRequest identifies the session to drop.
type ResetRequest struct {
	SessionID string `json:"session_id"`
}

// Reset drops a session so the next event starts over.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := decodeBody(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}
	h.svc.Reset(req.SessionID)
	JSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// ListItems returns the entire catalog cache. The read path is unfiltered.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.CachedItems(r.Context())
	if err != nil {
		slog.Error("Failed to list cached items", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []domain.CatalogItem{}
	}
	JSON(w, http.StatusOK, map[string]any{"items": items})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

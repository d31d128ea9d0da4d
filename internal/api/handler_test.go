package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/itpurple/stylist/internal/assistant"
	"github.com/itpurple/stylist/internal/dialog"
	"github.com/itpurple/stylist/internal/domain"
	"github.com/itpurple/stylist/internal/schema"
	"github.com/itpurple/stylist/internal/session"
)

type stubFetcher struct {
	items []domain.CatalogItem
}

func (f stubFetcher) Fetch(context.Context, domain.CatalogQuery) ([]domain.CatalogItem, error) {
	return f.items, nil
}

type stubDescriber struct{}

func (stubDescriber) Describe(context.Context, []domain.CatalogItem, domain.Answers) string {
	return "Описание образа."
}

type stubCache struct {
	items []domain.CatalogItem
}

func (c *stubCache) UpsertItems(context.Context, []domain.CatalogItem) error { return nil }
func (c *stubCache) ListItems(context.Context) ([]domain.CatalogItem, error) {
	return c.items, nil
}
func (c *stubCache) Ping(context.Context) error { return nil }
func (c *stubCache) Close() error               { return nil }

func newTestRouter(cache *stubCache) chi.Router {
	engine := dialog.NewEngine(schema.QuickFlow())
	svc := assistant.NewService(engine, session.NewStore(), stubFetcher{}, cache, stubDescriber{}, time.Second)
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, r chi.Router, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleEvent_FirstContact(t *testing.T) {
	r := newTestRouter(&stubCache{})

	rec := postJSON(t, r, "/api/dialog/events",
		`{"session_id":"s1","kind":"free_text","value":"/start"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var reply assistant.Reply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("Failed to decode reply: %v", err)
	}
	if reply.Type != "prompt" {
		t.Errorf("Expected prompt reply, got %q", reply.Type)
	}
	if reply.Greeting == "" {
		t.Error("Expected greeting for a new session")
	}
}

func TestHandleEvent_MissingSessionID(t *testing.T) {
	r := newTestRouter(&stubCache{})

	rec := postJSON(t, r, "/api/dialog/events", `{"kind":"back"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing session_id, got %d", rec.Code)
	}
}

func TestHandleEvent_UnknownKind(t *testing.T) {
	r := newTestRouter(&stubCache{})

	rec := postJSON(t, r, "/api/dialog/events",
		`{"session_id":"s1","kind":"teleport"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown kind, got %d", rec.Code)
	}
}

func TestHandleEvent_SelectWithoutStep(t *testing.T) {
	r := newTestRouter(&stubCache{})

	rec := postJSON(t, r, "/api/dialog/events",
		`{"session_id":"s1","kind":"select","value":"Прогулка"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for select without step, got %d", rec.Code)
	}
}

func TestHandleEvent_MalformedBody(t *testing.T) {
	r := newTestRouter(&stubCache{})

	rec := postJSON(t, r, "/api/dialog/events", `{"session_id":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed JSON, got %d", rec.Code)
	}

	rec = postJSON(t, r, "/api/dialog/events",
		`{"session_id":"s1","kind":"back","surprise":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestHandleEvent_FullQuickFlow(t *testing.T) {
	r := newTestRouter(&stubCache{})

	postJSON(t, r, "/api/dialog/events", `{"session_id":"s1","kind":"free_text","value":"/start"}`)
	postJSON(t, r, "/api/dialog/events", `{"session_id":"s1","kind":"select","step":"occasion","value":"Прогулка"}`)
	postJSON(t, r, "/api/dialog/events", `{"session_id":"s1","kind":"select","step":"style","value":"Спортивный"}`)

	rec := postJSON(t, r, "/api/dialog/events",
		`{"session_id":"s1","kind":"free_text","value":"3000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var reply assistant.Reply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("Failed to decode reply: %v", err)
	}
	if reply.Type != "result" {
		t.Errorf("Expected result, got %q (%s)", reply.Type, reply.Reason)
	}
	if !strings.Contains(reply.Document, "Описание образа.") {
		t.Errorf("Document missing description:\n%s", reply.Document)
	}
}

func TestReset(t *testing.T) {
	r := newTestRouter(&stubCache{})

	postJSON(t, r, "/api/dialog/events", `{"session_id":"s1","kind":"free_text","value":"/start"}`)
	postJSON(t, r, "/api/dialog/events", `{"session_id":"s1","kind":"select","step":"occasion","value":"Прогулка"}`)

	rec := postJSON(t, r, "/api/dialog/reset", `{"session_id":"s1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	// The next event reopens the dialog from the first step.
	rec = postJSON(t, r, "/api/dialog/events", `{"session_id":"s1","kind":"free_text","value":"/start"}`)
	var reply assistant.Reply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("Failed to decode reply: %v", err)
	}
	if reply.Greeting == "" {
		t.Error("Expected a fresh session after reset")
	}
}

func TestReset_MissingSessionID(t *testing.T) {
	r := newTestRouter(&stubCache{})

	rec := postJSON(t, r, "/api/dialog/reset", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestListItems(t *testing.T) {
	cache := &stubCache{items: []domain.CatalogItem{
		{ID: 1, Name: "Джинсы", Price: 2999.90},
		{ID: 2, Name: "Футболка", Price: 799},
	}}
	r := newTestRouter(cache)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/items", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Items []domain.CatalogItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(resp.Items))
	}
	if resp.Items[0].Name != "Джинсы" {
		t.Errorf("Unexpected first item: %+v", resp.Items[0])
	}
}

func TestListItems_EmptyCacheYieldsEmptyArray(t *testing.T) {
	r := newTestRouter(&stubCache{})

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/items", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"items":[]`) {
		t.Errorf("Expected empty items array, got %s", rec.Body.String())
	}
}

package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/itpurple/stylist/internal/domain"
	"github.com/itpurple/stylist/internal/schema"
)

const sampleResponse = `{
	"data": {
		"products": [
			{"id": 101, "name": "Джинсы прямые", "brand": "Levi's", "priceU": 549900, "image": "https://img.example/101.jpg"},
			{"id": 102, "name": "Футболка базовая", "brand": "Uniqlo", "priceU": 99000, "image": "https://img.example/102.jpg"}
		]
	}
}`

func TestFetch_ParsesProducts(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	items, err := c.Fetch(context.Background(), domain.CatalogQuery{
		CategoryID:       "8126",
		StylePreferences: []string{"Повседневный", "Спортивный"},
		Budget:           5000,
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	first := items[0]
	if first.ID != 101 {
		t.Errorf("Expected id 101, got %d", first.ID)
	}
	if first.Name != "Джинсы прямые" {
		t.Errorf("Unexpected name %q", first.Name)
	}
	if first.Description != "Levi's" {
		t.Errorf("Expected brand as description, got %q", first.Description)
	}
	if first.Price != 5499.0 {
		t.Errorf("Expected price 5499.0 (priceU/100), got %v", first.Price)
	}
	if first.MarketplaceURL != "https://www.wildberries.ru/catalog/101/detail.aspx" {
		t.Errorf("Unexpected marketplace URL %q", first.MarketplaceURL)
	}

	expectedParams := map[string]string{
		"appType": "1",
		"curr":    "rub",
		"dest":    "-1185367",
		"sort":    "popular",
		"spp":     "30",
		"cat":     "8126",
		"subject": "Повседневный,Спортивный",
	}
	for k, want := range expectedParams {
		if got := gotQuery[k]; got != want {
			t.Errorf("Query param %s: expected %q, got %q", k, want, got)
		}
	}
}

func TestFetch_NoStylesOmitsSubject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("subject") {
			t.Error("subject param must be omitted when no styles are set")
		}
		_, _ = w.Write([]byte(`{"data":{"products":[]}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	items, err := c.Fetch(context.Background(), domain.CatalogQuery{CategoryID: "8126"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected empty result, got %d items", len(items))
	}
}

func TestFetch_ServerErrorYieldsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	items, err := c.Fetch(context.Background(), domain.CatalogQuery{CategoryID: "8126"})
	if err == nil {
		t.Error("Expected an error for a 502 response")
	}
	if len(items) != 0 {
		t.Errorf("Expected empty result on failure, got %d items", len(items))
	}
}

func TestFetch_MalformedBodyYieldsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": "not an object`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	items, err := c.Fetch(context.Background(), domain.CatalogQuery{CategoryID: "8126"})
	if err == nil {
		t.Error("Expected an error for a malformed body")
	}
	if len(items) != 0 {
		t.Errorf("Expected empty result on failure, got %d items", len(items))
	}
}

func TestFetch_UnreachableHostYieldsEmptyResult(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	items, err := c.Fetch(context.Background(), domain.CatalogQuery{CategoryID: "8126"})
	if err == nil {
		t.Error("Expected a transport error")
	}
	if len(items) != 0 {
		t.Errorf("Expected empty result on failure, got %d items", len(items))
	}
}

func TestBuildQuery(t *testing.T) {
	ans := domain.Answers{
		schema.KeyOccasion:    "Прогулка в городе",
		schema.KeyCategoryID:  "8126",
		schema.KeyStyle:       []string{"Повседневный"},
		schema.KeyBudget:      5000,
		schema.KeySize:        46,
		schema.KeyColor:       "Синий",
		schema.KeyComposition: "Хлопок",
		schema.KeyOriginal:    "Да",
		schema.KeySeason:      "Лето",
	}

	q := BuildQuery(ans)
	if q.CategoryID != "8126" {
		t.Errorf("CategoryID: got %q", q.CategoryID)
	}
	if len(q.StylePreferences) != 1 || q.StylePreferences[0] != "Повседневный" {
		t.Errorf("StylePreferences: got %v", q.StylePreferences)
	}
	if q.Budget != 5000 || q.Size != 46 {
		t.Errorf("Budget/Size: got %d/%d", q.Budget, q.Size)
	}
	if q.Color != "Синий" || q.Season != "Лето" {
		t.Errorf("Color/Season: got %q/%q", q.Color, q.Season)
	}
}

func TestBuildQuery_ShortFlowLeavesZeroFields(t *testing.T) {
	q := BuildQuery(domain.Answers{
		schema.KeyOccasion: "Прогулка",
		schema.KeyStyle:    []string{"Спортивный"},
		schema.KeyBudget:   3000,
	})
	if q.CategoryID != "" {
		t.Errorf("Expected empty category, got %q", q.CategoryID)
	}
	if q.Size != 0 || q.Color != "" {
		t.Errorf("Expected zero size/color, got %d/%q", q.Size, q.Color)
	}
}

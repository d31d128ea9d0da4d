package domain

import (
	"time"
)

// CatalogItem is one marketplace product. Identity is ID; the cache enforces
// uniqueness on it.
type CatalogItem struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	ImageURL       string    `json:"image_url"`
	MarketplaceURL string    `json:"marketplace_url"`
	Composition    []string  `json:"composition"`
	LastUpdated    time.Time `json:"last_updated"`
}

// CatalogQuery carries the collected answers in the shape the marketplace
// search expects. Immutable once built.
type CatalogQuery struct {
	CategoryID       string
	StylePreferences []string
	Budget           int
	Size             int
	Color            string
	Composition      string
	OriginalOnly     string
	Season           string
}

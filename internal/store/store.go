// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/itpurple/stylist/internal/domain"
)

// Repository defines the interface for the catalog cache.
type Repository interface {
	// UpsertItems writes items keyed by id: existing ids are fully replaced,
	// new ids inserted. Idempotent per item and safe under concurrent
	// writers (last writer wins per id).
	UpsertItems(ctx context.Context, items []domain.CatalogItem) error

	// ListItems returns the entire cache, unfiltered. The cache is a
	// write-through log of everything ever fetched; the read path applies
	// no query filters.
	ListItems(ctx context.Context) ([]domain.CatalogItem, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// Package catalog retrieves products from the marketplace search API.
package catalog

import (
	"github.com/itpurple/stylist/internal/domain"
	"github.com/itpurple/stylist/internal/schema"
)

// BuildQuery derives the immutable search query from a completed answers
// snapshot. Keys missing from the snapshot (short flow) stay zero.
func BuildQuery(ans domain.Answers) domain.CatalogQuery {
	return domain.CatalogQuery{
		CategoryID:       ans.String(schema.KeyCategoryID),
		StylePreferences: ans.List(schema.KeyStyle),
		Budget:           ans.Int(schema.KeyBudget),
		Size:             ans.Int(schema.KeySize),
		Color:            ans.String(schema.KeyColor),
		Composition:      ans.String(schema.KeyComposition),
		OriginalOnly:     ans.String(schema.KeyOriginal),
		Season:           ans.String(schema.KeySeason),
	}
}

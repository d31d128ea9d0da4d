package stylist

import (
	"fmt"
	"html"
	"strings"

	"github.com/itpurple/stylist/internal/domain"
)

// FormatResult renders the final recommendation document: a header, one block
// per item with a linked name, description and composition list, then the
// generated description. Pure function, HTML output for the transport layer.
func FormatResult(items []domain.CatalogItem, description string) string {
	var b strings.Builder
	b.WriteString("<b>Рекомендуемый образ:</b>\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- <a href='%s'>%s</a>\n", item.MarketplaceURL, html.EscapeString(item.Name))
		fmt.Fprintf(&b, "Описание: %s\n", html.EscapeString(item.Description))
		fmt.Fprintf(&b, "Состав: %s\n\n", html.EscapeString(strings.Join(item.Composition, ", ")))
	}
	fmt.Fprintf(&b, "\n<b>Описание от AI:</b>\n%s", html.EscapeString(description))
	return b.String()
}

package schema

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	_ "embed"
)

//go:embed menu.csv
var defaultMenuCSV []byte

// Category is one row of the clothing menu: a marketplace category id plus
// the dialog attributes it is suitable for. Empty attribute lists mean
// "suitable for anything".
type Category struct {
	ID        string
	Name      string
	Situation []string
	Style     []string
	Size      []string
	AgeGroup  []string
	Season    []string
}

// CategoryFilter narrows the menu. Empty fields do not constrain.
type CategoryFilter struct {
	Situation string
	Style     string
	Size      string
	AgeGroup  string
	Season    string
}

// CategoryCatalog is the loaded clothing menu.
type CategoryCatalog struct {
	categories []Category
}

// DefaultCatalog loads the menu shipped with the binary.
func DefaultCatalog() *CategoryCatalog {
	c, err := LoadCategories(bytes.NewReader(defaultMenuCSV))
	if err != nil {
		// The embedded menu is validated by tests; a parse failure here is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded menu is invalid: %v", err))
	}
	return c
}

// LoadCategories parses the clothing menu CSV. Expected header:
// id,name,situation,style,size,age_group,season. Multi-valued cells are
// comma-separated inside quotes.
func LoadCategories(r io.Reader) (*CategoryCatalog, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read menu csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("menu csv is empty")
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"id", "name"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("menu csv missing column %q", required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	categories := make([]Category, 0, len(records)-1)
	for _, row := range records[1:] {
		c := Category{
			ID:        cell(row, "id"),
			Name:      cell(row, "name"),
			Situation: splitList(cell(row, "situation")),
			Style:     splitList(cell(row, "style")),
			Size:      splitList(cell(row, "size")),
			AgeGroup:  splitList(cell(row, "age_group")),
			Season:    splitList(cell(row, "season")),
		}
		if c.ID == "" || c.Name == "" {
			continue
		}
		categories = append(categories, c)
	}
	return &CategoryCatalog{categories: categories}, nil
}

// Filter returns the categories matching every set filter field. A category
// with an empty attribute list matches any value of that attribute.
func (c *CategoryCatalog) Filter(f CategoryFilter) []Category {
	var out []Category
	for _, cat := range c.categories {
		if !attrMatches(f.Situation, cat.Situation) {
			continue
		}
		if !attrMatches(f.Style, cat.Style) {
			continue
		}
		if !attrMatches(f.Size, cat.Size) {
			continue
		}
		if !attrMatches(f.AgeGroup, cat.AgeGroup) {
			continue
		}
		if !attrMatches(f.Season, cat.Season) {
			continue
		}
		out = append(out, cat)
	}
	return out
}

// All returns every category in menu order.
func (c *CategoryCatalog) All() []Category {
	return c.categories
}

func attrMatches(want string, have []string) bool {
	if want == "" || len(have) == 0 {
		return true
	}
	for _, h := range have {
		if h == want {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

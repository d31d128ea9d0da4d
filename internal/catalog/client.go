package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/itpurple/stylist/internal/domain"
)

// Fixed search parameters: RU storefront, rouble prices, popularity sort.
// These are configuration of the marketplace integration, not user input.
const (
	paramAppType = "1"
	paramCurr    = "rub"
	paramDest    = "-1185367"
	paramSort    = "popular"
	paramSpp     = "30"
)

const defaultTimeout = 15 * time.Second

// Client fetches products from a Wildberries-style search endpoint.
type Client struct {
	baseURL    string
	productURL string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, e.g. to route through
// a proxy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithProductURL overrides the product page URL template. It must contain
// one %d verb for the item id.
func WithProductURL(tmpl string) Option {
	return func(c *Client) {
		c.productURL = tmpl
	}
}

// NewClient creates a catalog client for the given search endpoint.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		productURL: "https://www.wildberries.ru/catalog/%d/detail.aspx",
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// searchResponse is the minimal response shape of the search endpoint.
type searchResponse struct {
	Data struct {
		Products []searchProduct `json:"products"`
	} `json:"data"`
}

type searchProduct struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Brand  string `json:"brand"`
	PriceU int64  `json:"priceU"`
	Image  string `json:"image"`
}

// Fetch retrieves products matching the query. Any transport failure,
// non-2xx status or malformed body yields an empty slice together with the
// error; callers must treat an empty result as "nothing found" and use the
// error for logging only.
func (c *Client) Fetch(ctx context.Context, q domain.CatalogQuery) ([]domain.CatalogItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.URL.RawQuery = c.queryParams(q).Encode()
	setBrowserHeaders(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("Failed to close catalog response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	now := time.Now()
	items := make([]domain.CatalogItem, 0, len(parsed.Data.Products))
	for _, p := range parsed.Data.Products {
		items = append(items, domain.CatalogItem{
			ID:             p.ID,
			Name:           p.Name,
			Description:    p.Brand,
			Price:          float64(p.PriceU) / 100,
			ImageURL:       p.Image,
			MarketplaceURL: fmt.Sprintf(c.productURL, p.ID),
			Composition:    []string{},
			LastUpdated:    now,
		})
	}
	return items, nil
}

func (c *Client) queryParams(q domain.CatalogQuery) url.Values {
	params := url.Values{}
	params.Set("appType", paramAppType)
	params.Set("curr", paramCurr)
	params.Set("dest", paramDest)
	params.Set("sort", paramSort)
	params.Set("spp", paramSpp)
	params.Set("cat", q.CategoryID)
	if len(q.StylePreferences) > 0 {
		params.Set("subject", strings.Join(q.StylePreferences, ","))
	}
	return params
}

// setBrowserHeaders mimics a desktop browser; the marketplace endpoint
// rejects anonymous clients.
func setBrowserHeaders(h http.Header) {
	h.Set("Accept", "*/*")
	h.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
	h.Set("Origin", "https://www.wildberries.ru")
	h.Set("Referer", "https://www.wildberries.ru")
	h.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36")
}

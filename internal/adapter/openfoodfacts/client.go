// Package openfoodfacts implements the catalog port against the Open Food
// Facts HTTP API.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"foodfollow/internal/domain"
)

// DefaultBaseURL is the public French Open Food Facts instance.
const DefaultBaseURL = "https://fr.openfoodfacts.org"

// Fields is the projection requested on every call.
var Fields = strings.Join([]string{
	"code",
	"product_name",
	"product_name_fr",
	"product_name_en",
	"brands",
	"nutriments",
	"image_url",
	"nutriscore_grade",
}, ",")

// StatusError reports a non-2xx response from the catalog.
type StatusError struct {
	Op     string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed (%d)", e.Op, e.Status)
}

// Client talks to the Open Food Facts HTTP API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

var _ domain.Catalog = (*Client)(nil)

// New creates a Client. An empty baseURL uses DefaultBaseURL and a nil
// httpClient uses http.DefaultClient.
func New(baseURL, userAgent string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      httpClient,
	}
}

// SearchProducts runs a full-text search and normalizes every returned product.
func (c *Client) SearchProducts(ctx context.Context, terms string, pageSize int) ([]domain.Product, error) {
	q := url.Values{}
	q.Set("search_terms", terms)
	q.Set("search_simple", "1")
	q.Set("action", "process")
	q.Set("json", "1")
	q.Set("fields", Fields)
	q.Set("page_size", strconv.Itoa(pageSize))

	var payload struct {
		Products json.RawMessage `json:"products"`
	}
	if err := c.get(ctx, "search", "/cgi/search.pl?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	// A products value that is not an array is an empty page, and entries
	// that are not objects are skipped.
	var entries []json.RawMessage
	_ = json.Unmarshal(payload.Products, &entries)
	out := make([]domain.Product, 0, len(entries))
	for _, raw := range entries {
		if p, ok := decodeProduct(raw); ok {
			out = append(out, normalize(p))
		}
	}
	return out, nil
}

// ProductByBarcode fetches a single product. A status other than 1, or a
// missing product body, is reported as found=false.
func (c *Client) ProductByBarcode(ctx context.Context, barcode string) (domain.Product, bool, error) {
	q := url.Values{}
	q.Set("fields", Fields)

	var payload struct {
		Status  json.RawMessage `json:"status"`
		Product json.RawMessage `json:"product"`
	}
	p := "/api/v2/product/" + url.PathEscape(barcode) + ".json?" + q.Encode()
	if err := c.get(ctx, "barcode", p, &payload); err != nil {
		return domain.Product{}, false, err
	}

	// Only the number 1 means found; "1" as a string does not.
	var status float64
	if err := json.Unmarshal(payload.Status, &status); err != nil || status != 1 {
		return domain.Product{}, false, nil
	}
	product, ok := decodeProduct(payload.Product)
	if !ok {
		return domain.Product{}, false, nil
	}
	return normalize(product), true, nil
}

func (c *Client) get(ctx context.Context, op, pathAndQuery string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s response: %w", op, err)
	}
	return nil
}

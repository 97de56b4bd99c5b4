// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"foodfollow/internal/domain"
	"foodfollow/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// MinQueryLength is the shortest trimmed query sent to the catalog.
const MinQueryLength = 2

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 10

var (
	// ErrEmptyBarcode indicates a barcode lookup without a code.
	ErrEmptyBarcode = errors.New("barcode is required")
	// ErrSearchFailed indicates the catalog text search could not be completed.
	ErrSearchFailed = errors.New("search failed, retry")
	// ErrBarcodeFailed indicates the catalog barcode lookup could not be completed.
	ErrBarcodeFailed = errors.New("barcode search failed")
)

type barcodeResult struct {
	product domain.Product
	found   bool
}

// CatalogService encapsulates product search use cases.
type CatalogService struct {
	catalog  domain.Catalog
	pageSize int
	metrics  *metrics.Metrics
	lookups  singleflight.Group
}

// NewCatalogService creates a CatalogService backed by the given catalog.
func NewCatalogService(catalog domain.Catalog, pageSize int, m *metrics.Metrics) *CatalogService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if m == nil {
		m = metrics.Discard()
	}
	return &CatalogService{catalog: catalog, pageSize: pageSize, metrics: m}
}

// SearchByText returns catalog products matching query. Queries shorter than
// MinQueryLength after trimming return an empty result without any call.
func (s *CatalogService) SearchByText(ctx context.Context, query string, pageSize int) ([]domain.Product, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinQueryLength {
		return []domain.Product{}, nil
	}
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	products, err := s.catalog.SearchProducts(ctx, q, pageSize)
	if err != nil {
		s.metrics.CatalogRequests.WithLabelValues("search", "error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	s.metrics.CatalogRequests.WithLabelValues("search", "ok").Inc()
	return products, nil
}

// LookupByBarcode returns the product for code. found=false means the
// catalog does not know it, which is not an error.
func (s *CatalogService) LookupByBarcode(ctx context.Context, code string) (domain.Product, bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Product{}, false, ErrEmptyBarcode
	}

	// The shared lookup outlives any single caller; each caller stops
	// waiting on its own ctx.
	shared := context.WithoutCancel(ctx)
	ch := s.lookups.DoChan(code, func() (any, error) {
		p, found, err := s.catalog.ProductByBarcode(shared, code)
		return barcodeResult{product: p, found: found}, err
	})

	var r singleflight.Result
	select {
	case <-ctx.Done():
		s.metrics.CatalogRequests.WithLabelValues("barcode", "error").Inc()
		return domain.Product{}, false, fmt.Errorf("%w: %w", ErrBarcodeFailed, ctx.Err())
	case r = <-ch:
	}
	if r.Err != nil {
		s.metrics.CatalogRequests.WithLabelValues("barcode", "error").Inc()
		return domain.Product{}, false, fmt.Errorf("%w: %w", ErrBarcodeFailed, r.Err)
	}

	res := r.Val.(barcodeResult)
	outcome := "found"
	if !res.found {
		outcome = "not_found"
	}
	s.metrics.CatalogRequests.WithLabelValues("barcode", outcome).Inc()
	return res.product, res.found, nil
}

// PageSize returns the default page size used for searches.
func (s *CatalogService) PageSize() int {
	return s.pageSize
}

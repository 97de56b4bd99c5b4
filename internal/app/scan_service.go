package app

import (
	"context"
	"errors"

	"foodfollow/internal/domain"
)

// ErrScanInProgress indicates a scan arrived while the previous one for the
// same workspace was still being looked up.
var ErrScanInProgress = errors.New("a scan is already being processed")

// Scan messages shown to the user.
const (
	ScanMsgNotFound = "product not found in Open Food Facts"
	ScanMsgFailed   = "scan failed, retry"
)

// ScanResult is the outcome of one barcode scan.
type ScanResult struct {
	Found   bool             `json:"found"`
	Food    *domain.FoodItem `json:"food,omitempty"`
	Message string           `json:"message,omitempty"`
}

// ScanService resolves scanned barcodes and hands the food to the draft.
type ScanService struct {
	catalog *CatalogService
}

// NewScanService creates a ScanService using catalog for lookups.
func NewScanService(catalog *CatalogService) *ScanService {
	return &ScanService{catalog: catalog}
}

// Scan looks up code and, when the catalog knows it, places the food in the
// workspace's pending slot. Only one scan per workspace runs at a time.
func (s *ScanService) Scan(ctx context.Context, ws *Workspace, code string) (ScanResult, error) {
	if !ws.scanning.CompareAndSwap(false, true) {
		return ScanResult{}, ErrScanInProgress
	}
	defer ws.scanning.Store(false)

	product, found, err := s.catalog.LookupByBarcode(ctx, code)
	if errors.Is(err, ErrEmptyBarcode) {
		return ScanResult{}, err
	}
	if err != nil {
		return ScanResult{Message: ScanMsgFailed}, err
	}
	if !found {
		return ScanResult{Message: ScanMsgNotFound}, nil
	}

	food := domain.NewFoodItem(product)
	ws.Pending.Put(food)
	return ScanResult{Found: true, Food: &food}, nil
}

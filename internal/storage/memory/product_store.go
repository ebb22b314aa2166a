// Package memory provides an in-memory product store for development and
// testing.
package memory

import (
	"context"
	"sync"

	"github.com/pricewatch/pricewatch/internal/tracker"
)

// ProductStore keeps tracked products in a map guarded by a RWMutex.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]tracker.TrackedProduct
	order    []string
}

// NewProductStore constructs an empty ProductStore.
func NewProductStore() *ProductStore {
	return &ProductStore{
		products: make(map[string]tracker.TrackedProduct),
	}
}

// Seed inserts products without going through UpsertByLocator, preserving
// insertion order for ListAll.
func (s *ProductStore) Seed(products ...tracker.TrackedProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		if _, exists := s.products[p.Locator]; !exists {
			s.order = append(s.order, p.Locator)
		}
		s.products[p.Locator] = cloneProduct(p)
	}
}

// ListAll returns every tracked product in insertion order.
func (s *ProductStore) ListAll(_ context.Context) ([]tracker.TrackedProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]tracker.TrackedProduct, 0, len(s.order))
	for _, locator := range s.order {
		out = append(out, cloneProduct(s.products[locator]))
	}
	return out, nil
}

// UpsertByLocator stores the product and returns the stored copy.
func (s *ProductStore) UpsertByLocator(_ context.Context, product tracker.TrackedProduct) (tracker.TrackedProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[product.Locator]; !exists {
		s.order = append(s.order, product.Locator)
	}
	s.products[product.Locator] = cloneProduct(product)
	return cloneProduct(product), nil
}

// Get fetches one product by locator.
func (s *ProductStore) Get(_ context.Context, locator string) (tracker.TrackedProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[locator]
	if !ok {
		return tracker.TrackedProduct{}, tracker.ErrNotFound
	}
	return cloneProduct(product), nil
}

func cloneProduct(p tracker.TrackedProduct) tracker.TrackedProduct {
	cp := p
	cp.PriceHistory = make(tracker.PriceHistory, len(p.PriceHistory))
	copy(cp.PriceHistory, p.PriceHistory)
	cp.Subscribers = make([]string, len(p.Subscribers))
	copy(cp.Subscribers, p.Subscribers)
	if p.TargetPrice != nil {
		target := *p.TargetPrice
		cp.TargetPrice = &target
	}
	return cp
}

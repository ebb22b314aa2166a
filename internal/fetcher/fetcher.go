// Package fetcher turns product locators into parsed snapshots.
package fetcher

import (
	"context"
	"net/http"
	"time"
)

// PageRequest captures everything needed to retrieve a product page.
type PageRequest struct {
	Locator     string
	Headers     http.Header
	UseHeadless bool
}

// PageResponse is the raw result returned by a PageFetcher.
type PageResponse struct {
	URL          string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
}

// PageFetcher retrieves a single product page.
type PageFetcher interface {
	Fetch(ctx context.Context, request PageRequest) (PageResponse, error)
}

// PromotionDetector decides whether a fetched page needs a headless
// rendering pass before it can be parsed.
type PromotionDetector interface {
	ShouldPromote(resp PageResponse) bool
}

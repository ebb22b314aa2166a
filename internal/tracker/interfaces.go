package tracker

import (
	"context"
	"io"
	"time"
)

// Fetcher retrieves the current snapshot for a product locator. A single
// call is one attempt; retry policy belongs to the caller.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (Snapshot, error)
}

// ProductStore persists tracked products keyed by locator.
type ProductStore interface {
	// ListAll returns every tracked product.
	ListAll(ctx context.Context) ([]TrackedProduct, error)
	// UpsertByLocator writes the product atomically and returns the
	// post-write document.
	UpsertByLocator(ctx context.Context, product TrackedProduct) (TrackedProduct, error)
}

// Dispatcher delivers a rendered notification message to recipients.
type Dispatcher interface {
	Send(ctx context.Context, subject, body string, recipients []string) error
}

// Archive stores raw fetched page bodies for later inspection.
type Archive interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

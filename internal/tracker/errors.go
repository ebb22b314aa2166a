package tracker

import (
	"errors"
	"fmt"
)

// Fatal batch errors. Only these two escape the coordinator to the caller;
// everything else is captured per product.
var (
	ErrNoProductsTracked = errors.New("no products tracked")
	ErrStoreUnreachable  = errors.New("store unreachable")
)

// ErrNotFound is returned by stores when a locator has no document.
var ErrNotFound = errors.New("product not found")

// FailureKind identifies which refresh step failed.
type FailureKind string

// Per-product failure kinds. FetchFailed and PersistFailed fail the
// refresh; DispatchFailed is informational and never does.
const (
	FetchFailed    FailureKind = "fetch_failed"
	PersistFailed  FailureKind = "persist_failed"
	DispatchFailed FailureKind = "dispatch_failed"
)

// RefreshError wraps a per-product failure with its step and locator.
type RefreshError struct {
	Kind    FailureKind
	Locator string
	Err     error
}

// Error implements the error interface.
func (e *RefreshError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Locator, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *RefreshError) Unwrap() error {
	return e.Err
}

// NewRefreshError builds a RefreshError for the given step.
func NewRefreshError(kind FailureKind, locator string, err error) *RefreshError {
	return &RefreshError{Kind: kind, Locator: locator, Err: err}
}

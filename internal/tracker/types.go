// Package tracker defines core types shared across subsystems.
package tracker

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is a single observation in a product's price history.
// Samples are appended in observation order; insertion order is
// chronological order.
type PriceSample struct {
	Price      decimal.Decimal `json:"price"`
	ObservedAt time.Time       `json:"observed_at"`
}

// PriceHistory is the append-only chronological record of price samples.
type PriceHistory []PriceSample

// Append returns a new history with the sample added at the end. The
// receiver is never mutated so callers can keep the pre-update view.
func (h PriceHistory) Append(sample PriceSample) PriceHistory {
	out := make(PriceHistory, len(h), len(h)+1)
	copy(out, h)
	return append(out, sample)
}

// Snapshot is a point-in-time observation of a product page, produced by a
// Fetcher. It is immutable once returned.
type Snapshot struct {
	Locator      string          `json:"locator"`
	Title        string          `json:"title"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Currency     string          `json:"currency"`
	ImageURL     string          `json:"image_url"`
	Available    bool            `json:"available"`
	FetchedAt    time.Time       `json:"fetched_at"`

	// Body is the raw page the snapshot was parsed from, kept only so the
	// refresher can archive it. It is not persisted with the product.
	Body []byte `json:"-"`
}

// TrackedProduct is the persisted entity for a product under tracking.
// The locator is the stable identity; all store operations key on it.
type TrackedProduct struct {
	Locator      string           `json:"locator"`
	Title        string           `json:"title"`
	Currency     string           `json:"currency"`
	ImageURL     string           `json:"image_url"`
	Available    bool             `json:"available"`
	CurrentPrice decimal.Decimal  `json:"current_price"`
	LowestPrice  decimal.Decimal  `json:"lowest_price"`
	HighestPrice decimal.Decimal  `json:"highest_price"`
	AveragePrice decimal.Decimal  `json:"average_price"`
	TargetPrice  *decimal.Decimal `json:"target_price,omitempty"`
	PriceHistory PriceHistory     `json:"price_history"`
	Subscribers  []string         `json:"subscribers"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// NotificationKind classifies why subscribers should be notified.
type NotificationKind string

// Notification kinds, in classifier priority order.
const (
	KindBackInStock      NotificationKind = "back_in_stock"
	KindPriceDrop        NotificationKind = "price_drop"
	KindThresholdReached NotificationKind = "threshold_reached"
	KindNone             NotificationKind = ""
)

// Notification is the ephemeral event handed to the dispatcher. It is not
// persisted.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Locator string           `json:"locator"`
	Title   string           `json:"title"`
}

// FailedRefresh records one product whose refresh did not complete.
type FailedRefresh struct {
	Locator string `json:"locator"`
	Reason  string `json:"reason"`
}

// BatchResult is the aggregate outcome of one batch run. Succeeded holds
// the post-update documents returned by the store; Failed preserves the
// failure reason per locator.
type BatchResult struct {
	RunID     string           `json:"run_id"`
	Started   time.Time        `json:"started_at"`
	Finished  time.Time        `json:"finished_at"`
	Succeeded []TrackedProduct `json:"succeeded"`
	Failed    []FailedRefresh  `json:"failed"`
}

// Package classify decides whether a refresh warrants a notification.
package classify

import "github.com/pricewatch/pricewatch/internal/tracker"

// DropPolicy selects which price movements count as a price drop.
type DropPolicy string

// Supported drop policies. AnyDecrease notifies on every strict decrease
// of the current price; NewLowOnly additionally requires the fresh price
// to be at or below the previous historic low.
const (
	DropAnyDecrease DropPolicy = "any_decrease"
	DropNewLowOnly  DropPolicy = "new_low_only"
)

// Policy configures the classifier.
type Policy struct {
	Drop DropPolicy
}

// DefaultPolicy notifies on any strict price decrease.
func DefaultPolicy() Policy {
	return Policy{Drop: DropAnyDecrease}
}

// Classify maps the pre-update product state and a fresh snapshot to at
// most one notification kind. The checks run in fixed priority order and
// the first match wins, so identical inputs always yield the same output.
func Classify(policy Policy, prev tracker.TrackedProduct, fresh tracker.Snapshot) tracker.NotificationKind {
	if !prev.Available && fresh.Available {
		return tracker.KindBackInStock
	}

	dropped := fresh.CurrentPrice.LessThan(prev.CurrentPrice)
	if dropped && policy.Drop == DropNewLowOnly {
		dropped = fresh.CurrentPrice.LessThanOrEqual(prev.LowestPrice)
	}
	if dropped {
		return tracker.KindPriceDrop
	}

	if prev.TargetPrice != nil && fresh.CurrentPrice.LessThanOrEqual(*prev.TargetPrice) {
		return tracker.KindThresholdReached
	}

	return tracker.KindNone
}

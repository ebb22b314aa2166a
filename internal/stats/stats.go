// Package stats computes derived price statistics over a price history.
// All functions are pure; callers must never pass an empty history since a
// tracked product always carries at least one sample.
package stats

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/pricewatch/pricewatch/internal/tracker"
)

// ErrEmptyHistory is returned when a statistic is requested over zero
// samples.
var ErrEmptyHistory = errors.New("price history is empty")

// minorUnitPlaces is the currency minor-unit precision the average is
// rounded to.
const minorUnitPlaces = 2

// Lowest returns the minimum price across all samples.
func Lowest(history tracker.PriceHistory) (decimal.Decimal, error) {
	if len(history) == 0 {
		return decimal.Decimal{}, ErrEmptyHistory
	}
	low := history[0].Price
	for _, sample := range history[1:] {
		if sample.Price.LessThan(low) {
			low = sample.Price
		}
	}
	return low, nil
}

// Highest returns the maximum price across all samples.
func Highest(history tracker.PriceHistory) (decimal.Decimal, error) {
	if len(history) == 0 {
		return decimal.Decimal{}, ErrEmptyHistory
	}
	high := history[0].Price
	for _, sample := range history[1:] {
		if sample.Price.GreaterThan(high) {
			high = sample.Price
		}
	}
	return high, nil
}

// Average returns the arithmetic mean across all samples, rounded to the
// currency minor unit with banker's rounding. Decimal summation is exact,
// so the result is independent of sample order.
func Average(history tracker.PriceHistory) (decimal.Decimal, error) {
	if len(history) == 0 {
		return decimal.Decimal{}, ErrEmptyHistory
	}
	sum := decimal.Zero
	for _, sample := range history {
		sum = sum.Add(sample.Price)
	}
	count := decimal.NewFromInt(int64(len(history)))
	return sum.Div(count).RoundBank(minorUnitPlaces), nil
}

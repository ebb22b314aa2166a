package classify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pricewatch/pricewatch/internal/tracker"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func product(current, lowest string, available bool) tracker.TrackedProduct {
	return tracker.TrackedProduct{
		Locator:      "https://shop.example/item/1",
		CurrentPrice: dec(current),
		LowestPrice:  dec(lowest),
		Available:    available,
	}
}

func snapshot(price string, available bool) tracker.Snapshot {
	return tracker.Snapshot{
		Locator:      "https://shop.example/item/1",
		CurrentPrice: dec(price),
		Available:    available,
	}
}

func TestBackInStockWinsRegardlessOfPrice(t *testing.T) {
	t.Parallel()

	prev := product("10", "8", false)
	// Price also dropped to a new low; availability still takes priority.
	kind := Classify(DefaultPolicy(), prev, snapshot("7", true))
	require.Equal(t, tracker.KindBackInStock, kind)

	// Price rose; still back in stock.
	kind = Classify(DefaultPolicy(), prev, snapshot("12", true))
	require.Equal(t, tracker.KindBackInStock, kind)
}

func TestPriceDropAnyDecrease(t *testing.T) {
	t.Parallel()

	prev := product("10", "8", true)

	require.Equal(t, tracker.KindPriceDrop, Classify(DefaultPolicy(), prev, snapshot("9.99", true)))
	require.Equal(t, tracker.KindNone, Classify(DefaultPolicy(), prev, snapshot("10", true)))
	require.Equal(t, tracker.KindNone, Classify(DefaultPolicy(), prev, snapshot("11", true)))
}

func TestPriceDropNewLowOnly(t *testing.T) {
	t.Parallel()

	policy := Policy{Drop: DropNewLowOnly}
	prev := product("10", "8", true)

	// Decrease but not at or below the historic low.
	require.Equal(t, tracker.KindNone, Classify(policy, prev, snapshot("9", true)))
	// Decrease matching the historic low.
	require.Equal(t, tracker.KindPriceDrop, Classify(policy, prev, snapshot("8", true)))
	// New historic low.
	require.Equal(t, tracker.KindPriceDrop, Classify(policy, prev, snapshot("7", true)))
}

func TestThresholdReached(t *testing.T) {
	t.Parallel()

	target := dec("10")
	prev := product("10", "8", true)
	prev.TargetPrice = &target

	// Price unchanged but at the target: drop does not fire, the
	// threshold does.
	require.Equal(t, tracker.KindThresholdReached, Classify(DefaultPolicy(), prev, snapshot("10", true)))

	// Above target and unchanged: nothing.
	lowTarget := dec("5")
	prev.TargetPrice = &lowTarget
	require.Equal(t, tracker.KindNone, Classify(DefaultPolicy(), prev, snapshot("10", true)))

	// No target configured: the rule is skipped.
	prev.TargetPrice = nil
	require.Equal(t, tracker.KindNone, Classify(DefaultPolicy(), prev, snapshot("10", true)))
}

func TestStablePriceYieldsNone(t *testing.T) {
	t.Parallel()

	prev := product("10", "8", true)
	require.Equal(t, tracker.KindNone, Classify(DefaultPolicy(), prev, snapshot("10", true)))
}

func TestClassifyDeterministic(t *testing.T) {
	t.Parallel()

	prev := product("10", "8", false)
	fresh := snapshot("7", true)

	first := Classify(DefaultPolicy(), prev, fresh)
	second := Classify(DefaultPolicy(), prev, fresh)
	require.Equal(t, first, second)
}

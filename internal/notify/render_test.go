package notify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pricewatch/pricewatch/internal/tracker"
)

func TestRenderPerKind(t *testing.T) {
	t.Parallel()

	title := "Mechanical Keyboard"
	locator := "https://shop.example/item/42"

	subject, body := Render(tracker.KindBackInStock, title, locator)
	require.Contains(t, subject, "back in stock")
	require.Contains(t, body, locator)

	subject, body = Render(tracker.KindPriceDrop, title, locator)
	require.Contains(t, subject, "Price drop")
	require.Contains(t, body, title)

	subject, body = Render(tracker.KindThresholdReached, title, locator)
	require.Contains(t, subject, "target price")
	require.Contains(t, body, locator)
}

func TestRenderNoneIsEmpty(t *testing.T) {
	t.Parallel()

	subject, body := Render(tracker.KindNone, "x", "y")
	require.Empty(t, subject)
	require.Empty(t, body)
}

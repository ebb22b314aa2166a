// Package notify renders notification messages and delivers them to
// subscribers.
package notify

import (
	"fmt"

	"github.com/pricewatch/pricewatch/internal/tracker"
)

// Render produces the subject and plain-text body for a notification. The
// HTML template rendering for e-mail happens downstream of the dispatcher.
func Render(kind tracker.NotificationKind, title, locator string) (string, string) {
	switch kind {
	case tracker.KindBackInStock:
		return fmt.Sprintf("%s is back in stock", title),
			fmt.Sprintf("%s is available again. See the latest price: %s", title, locator)
	case tracker.KindPriceDrop:
		return fmt.Sprintf("Price drop for %s", title),
			fmt.Sprintf("The price of %s just dropped. See the latest price: %s", title, locator)
	case tracker.KindThresholdReached:
		return fmt.Sprintf("%s reached your target price", title),
			fmt.Sprintf("%s is now at or below your target price. See it here: %s", title, locator)
	default:
		return "", ""
	}
}

package fetcher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const productPage = `<!DOCTYPE html>
<html>
<body>
  <h1 id="productTitle"> Cordless Drill 18V </h1>
  <span class="a-price"><span class="a-offscreen">$1,299.99</span></span>
  <img id="landingImage" src="https://img.shop.test/drill.jpg"/>
  <div id="availability">In Stock.</div>
</body>
</html>`

const unavailablePage = `<html><body>
  <h1>Out of Season Widget</h1>
  <span class="price">€49.90</span>
  <div class="availability">Currently unavailable.</div>
</body></html>`

func TestParseSnapshot(t *testing.T) {
	t.Parallel()

	p := NewParser(ParserConfig{})
	fetchedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	snap, err := p.ParseSnapshot("https://shop.test/drill", []byte(productPage), fetchedAt)
	require.NoError(t, err)
	require.Equal(t, "https://shop.test/drill", snap.Locator)
	require.Equal(t, "Cordless Drill 18V", snap.Title)
	require.True(t, snap.CurrentPrice.Equal(decimal.RequireFromString("1299.99")))
	require.Equal(t, "USD", snap.Currency)
	require.Equal(t, "https://img.shop.test/drill.jpg", snap.ImageURL)
	require.True(t, snap.Available)
	require.Equal(t, fetchedAt, snap.FetchedAt)
	require.Equal(t, []byte(productPage), snap.Body)
}

func TestParseSnapshotUnavailable(t *testing.T) {
	t.Parallel()

	p := NewParser(ParserConfig{})
	snap, err := p.ParseSnapshot("https://shop.test/widget", []byte(unavailablePage), time.Now())
	require.NoError(t, err)
	require.False(t, snap.Available)
	require.Equal(t, "EUR", snap.Currency)
}

func TestParseSnapshotMissingPrice(t *testing.T) {
	t.Parallel()

	p := NewParser(ParserConfig{})
	_, err := p.ParseSnapshot("https://shop.test/empty", []byte("<html><body><h1>No price</h1></body></html>"), time.Now())
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse price")
}

func TestParseSnapshotItempropContent(t *testing.T) {
	t.Parallel()

	page := `<html><body>
	  <h1>Meta Priced</h1>
	  <meta itemprop="price" content="15.50"/>
	</body></html>`
	p := NewParser(ParserConfig{})
	snap, err := p.ParseSnapshot("https://shop.test/meta", []byte(page), time.Now())
	require.NoError(t, err)
	require.True(t, snap.CurrentPrice.Equal(decimal.RequireFromString("15.5")))
	require.Equal(t, "USD", snap.Currency)
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		want     string
		currency string
		wantErr  bool
	}{
		{name: "dollar with thousands", text: "$1,299.99", want: "1299.99", currency: "USD"},
		{name: "euro", text: "€49.90", want: "49.9", currency: "EUR"},
		{name: "pound", text: "£5", want: "5", currency: "GBP"},
		{name: "bare number", text: "12.34", want: "12.34", currency: ""},
		{name: "surrounding text", text: "Now only $8.00!", want: "8", currency: "USD"},
		{name: "minus is noise", text: "-$5.00", want: "5", currency: "USD"},
		{name: "no digits", text: "call for price", wantErr: true},
		{name: "empty", text: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			price, currency, err := ParsePrice(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, price.Equal(decimal.RequireFromString(tt.want)), "got %s", price)
			require.Equal(t, tt.currency, currency)
		})
	}
}

package fetcher

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/pricewatch/pricewatch/internal/tracker"
)

// ParserConfig holds the CSS selectors used to lift snapshot fields out of
// a product page. Zero values fall back to defaults that cover common
// storefront markup.
type ParserConfig struct {
	TitleSelector        string `mapstructure:"title_selector"`
	PriceSelector        string `mapstructure:"price_selector"`
	ImageSelector        string `mapstructure:"image_selector"`
	AvailabilitySelector string `mapstructure:"availability_selector"`
	UnavailableMarker    string `mapstructure:"unavailable_marker"`
	DefaultCurrency      string `mapstructure:"default_currency"`
}

// Parser extracts snapshots from fetched page bodies.
type Parser struct {
	cfg ParserConfig
}

// NewParser builds a Parser, applying selector defaults.
func NewParser(cfg ParserConfig) *Parser {
	if cfg.TitleSelector == "" {
		cfg.TitleSelector = "#productTitle, h1.product-title, h1"
	}
	if cfg.PriceSelector == "" {
		cfg.PriceSelector = ".a-price .a-offscreen, .price, [itemprop=price]"
	}
	if cfg.ImageSelector == "" {
		cfg.ImageSelector = "#landingImage, img.product-image, [itemprop=image]"
	}
	if cfg.AvailabilitySelector == "" {
		cfg.AvailabilitySelector = "#availability, .availability, [itemprop=availability]"
	}
	if cfg.UnavailableMarker == "" {
		cfg.UnavailableMarker = "unavailable"
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "USD"
	}
	return &Parser{cfg: cfg}
}

// ParseSnapshot lifts a snapshot out of a product page body. A page
// without a parseable price is a fetch failure; everything else degrades
// to sensible defaults.
func (p *Parser) ParseSnapshot(locator string, body []byte, fetchedAt time.Time) (tracker.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return tracker.Snapshot{}, fmt.Errorf("parse product page: %w", err)
	}

	priceText := firstText(doc, p.cfg.PriceSelector)
	if priceText == "" {
		if content, ok := doc.Find(p.cfg.PriceSelector).First().Attr("content"); ok {
			priceText = content
		}
	}
	price, currency, err := ParsePrice(priceText)
	if err != nil {
		return tracker.Snapshot{}, fmt.Errorf("parse price %q: %w", priceText, err)
	}
	if currency == "" {
		currency = p.cfg.DefaultCurrency
	}

	imageURL := ""
	if src, ok := doc.Find(p.cfg.ImageSelector).First().Attr("src"); ok {
		imageURL = src
	}

	available := true
	if availText := firstText(doc, p.cfg.AvailabilitySelector); availText != "" {
		available = !strings.Contains(strings.ToLower(availText), p.cfg.UnavailableMarker)
	}

	return tracker.Snapshot{
		Locator:      locator,
		Title:        firstText(doc, p.cfg.TitleSelector),
		CurrentPrice: price,
		Currency:     currency,
		ImageURL:     imageURL,
		Available:    available,
		FetchedAt:    fetchedAt,
		Body:         body,
	}, nil
}

func firstText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

var currencySymbols = map[rune]string{
	'$': "USD",
	'€': "EUR",
	'£': "GBP",
	'¥': "JPY",
}

// ParsePrice extracts a decimal amount and, when a known symbol is
// present, a currency code from raw price text such as "$1,299.99".
func ParsePrice(text string) (decimal.Decimal, string, error) {
	currency := ""
	var digits strings.Builder
	for _, r := range text {
		if code, ok := currencySymbols[r]; ok && currency == "" {
			currency = code
			continue
		}
		switch {
		case r >= '0' && r <= '9', r == '.':
			digits.WriteRune(r)
		case r == ',':
			// Thousands separator.
		}
	}
	raw := digits.String()
	if raw == "" {
		return decimal.Decimal{}, "", fmt.Errorf("no digits in price text")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, "", fmt.Errorf("invalid price %q: %w", raw, err)
	}
	return price, currency, nil
}

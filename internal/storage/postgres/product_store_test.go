package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pricewatch/pricewatch/internal/tracker"
)

func sampleProduct() tracker.TrackedProduct {
	return tracker.TrackedProduct{
		Locator:      "https://shop.example/item/1",
		Title:        "Item One",
		Currency:     "USD",
		Available:    true,
		CurrentPrice: decimal.RequireFromString("9.99"),
		LowestPrice:  decimal.RequireFromString("9.99"),
		HighestPrice: decimal.RequireFromString("9.99"),
		AveragePrice: decimal.RequireFromString("9.99"),
		PriceHistory: tracker.PriceHistory{
			{Price: decimal.RequireFromString("9.99"), ObservedAt: time.Unix(1700000000, 0).UTC()},
		},
		Subscribers: []string{"a@example.com"},
		UpdatedAt:   time.Unix(1700000000, 0).UTC(),
	}
}

func TestUpsertByLocatorReturnsStoredDocument(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "tracked_products")
	require.NoError(t, err)

	product := sampleProduct()
	doc, err := json.Marshal(product)
	require.NoError(t, err)

	mock.ExpectQuery("INSERT INTO tracked_products").
		WithArgs(product.Locator, doc, product.UpdatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"doc"}).AddRow(doc))

	stored, err := store.UpsertByLocator(context.Background(), product)
	require.NoError(t, err)
	require.Equal(t, product.Locator, stored.Locator)
	require.True(t, stored.CurrentPrice.Equal(product.CurrentPrice))
	require.Len(t, stored.PriceHistory, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRequiresLocator(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)

	_, err = store.UpsertByLocator(context.Background(), tracker.TrackedProduct{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAllDecodesDocuments(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "tracked_products")
	require.NoError(t, err)

	first := sampleProduct()
	second := sampleProduct()
	second.Locator = "https://shop.example/item/2"

	firstDoc, err := json.Marshal(first)
	require.NoError(t, err)
	secondDoc, err := json.Marshal(second)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT doc FROM tracked_products").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}).AddRow(firstDoc).AddRow(secondDoc))

	products, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, first.Locator, products[0].Locator)
	require.Equal(t, second.Locator, products[1].Locator)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingProduct(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "tracked_products")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT doc FROM tracked_products").
		WithArgs("https://shop.example/nope").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}))

	_, err = store.Get(context.Background(), "https://shop.example/nope")
	require.ErrorIs(t, err, tracker.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidTableNameRejected(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "tracked; DROP TABLE")
	require.Error(t, err)
}

// Package refresher brings a single tracked product up to date.
package refresher

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/classify"
	"github.com/pricewatch/pricewatch/internal/metrics"
	"github.com/pricewatch/pricewatch/internal/notify"
	"github.com/pricewatch/pricewatch/internal/stats"
	"github.com/pricewatch/pricewatch/internal/tracker"
)

// Config controls Refresher behavior.
type Config struct {
	ArchivePrefix      string
	ArchiveContentType string
}

// Refresher executes the fetch → history → stats → persist → notify
// pipeline for one product at a time.
type Refresher struct {
	fetcher    tracker.Fetcher
	store      tracker.ProductStore
	dispatcher tracker.Dispatcher
	archive    tracker.Archive
	clock      tracker.Clock
	policy     classify.Policy
	cfg        Config
	logger     *zap.Logger
}

// New constructs a Refresher. The archive is optional; pass nil to skip
// page archiving.
func New(
	fetcher tracker.Fetcher,
	store tracker.ProductStore,
	dispatcher tracker.Dispatcher,
	archive tracker.Archive,
	clock tracker.Clock,
	policy classify.Policy,
	cfg Config,
	logger *zap.Logger,
) *Refresher {
	if cfg.ArchiveContentType == "" {
		cfg.ArchiveContentType = "text/html; charset=utf-8"
	}
	return &Refresher{
		fetcher:    fetcher,
		store:      store,
		dispatcher: dispatcher,
		archive:    archive,
		clock:      clock,
		policy:     policy,
		cfg:        cfg,
		logger:     logger,
	}
}

// Refresh fetches a fresh snapshot for the product, extends its price
// history, recomputes statistics, persists the updated document, and
// notifies subscribers when the classifier produces a kind. A failed fetch
// or persist leaves the stored document untouched and is reported to the
// caller; a failed dispatch is logged but never fails the refresh.
func (r *Refresher) Refresh(ctx context.Context, product tracker.TrackedProduct) (tracker.TrackedProduct, error) {
	start := time.Now()
	fresh, err := r.fetcher.Fetch(ctx, product.Locator)
	metrics.ObserveFetch(time.Since(start))
	if err != nil {
		return tracker.TrackedProduct{}, tracker.NewRefreshError(tracker.FetchFailed, product.Locator, err)
	}

	updated, err := r.buildUpdated(product, fresh)
	if err != nil {
		return tracker.TrackedProduct{}, tracker.NewRefreshError(tracker.PersistFailed, product.Locator, err)
	}

	persisted, err := r.store.UpsertByLocator(ctx, updated)
	if err != nil {
		return tracker.TrackedProduct{}, tracker.NewRefreshError(tracker.PersistFailed, product.Locator, err)
	}

	r.archivePage(ctx, product.Locator, fresh.Body)

	// Classification compares the pre-update state against the snapshot,
	// so a price drop is judged against what subscribers last saw.
	kind := classify.Classify(r.policy, product, fresh)
	if kind != tracker.KindNone && len(persisted.Subscribers) > 0 {
		r.dispatch(ctx, kind, persisted)
	}

	return persisted, nil
}

func (r *Refresher) buildUpdated(product tracker.TrackedProduct, fresh tracker.Snapshot) (tracker.TrackedProduct, error) {
	now := r.clock.Now()
	history := product.PriceHistory.Append(tracker.PriceSample{
		Price:      fresh.CurrentPrice,
		ObservedAt: now,
	})

	lowest, err := stats.Lowest(history)
	if err != nil {
		return tracker.TrackedProduct{}, fmt.Errorf("compute lowest: %w", err)
	}
	highest, err := stats.Highest(history)
	if err != nil {
		return tracker.TrackedProduct{}, fmt.Errorf("compute highest: %w", err)
	}
	average, err := stats.Average(history)
	if err != nil {
		return tracker.TrackedProduct{}, fmt.Errorf("compute average: %w", err)
	}

	updated := product
	updated.Title = fresh.Title
	updated.Currency = fresh.Currency
	updated.ImageURL = fresh.ImageURL
	updated.Available = fresh.Available
	updated.CurrentPrice = fresh.CurrentPrice
	updated.PriceHistory = history
	updated.LowestPrice = lowest
	updated.HighestPrice = highest
	updated.AveragePrice = average
	updated.UpdatedAt = now
	return updated, nil
}

func (r *Refresher) dispatch(ctx context.Context, kind tracker.NotificationKind, product tracker.TrackedProduct) {
	subject, body := notify.Render(kind, product.Title, product.Locator)
	if err := r.dispatcher.Send(ctx, subject, body, product.Subscribers); err != nil {
		// The persisted price update stands; delivery is best effort.
		metrics.ObserveDispatchFailure()
		r.logger.Warn("notification dispatch failed",
			zap.String("locator", product.Locator),
			zap.String("kind", string(kind)),
			zap.Int("recipients", len(product.Subscribers)),
			zap.Error(err),
		)
		return
	}
	metrics.ObserveNotification(string(kind))
	r.logger.Info("notification dispatched",
		zap.String("locator", product.Locator),
		zap.String("kind", string(kind)),
		zap.Int("recipients", len(product.Subscribers)),
	)
}

func (r *Refresher) archivePage(ctx context.Context, locator string, body []byte) {
	if r.archive == nil || len(body) == 0 {
		return
	}
	path := r.buildArchivePath(locator, body)
	if _, err := r.archive.PutObject(ctx, path, r.cfg.ArchiveContentType, bytes.NewReader(body)); err != nil {
		r.logger.Warn("page archive failed", zap.String("locator", locator), zap.Error(err))
	}
}

func (r *Refresher) buildArchivePath(locator string, body []byte) string {
	locatorHash := sha256.Sum256([]byte(locator))
	contentHash := sha256.Sum256(body)
	name := fmt.Sprintf("%s/%s.html",
		hex.EncodeToString(locatorHash[:8]),
		hex.EncodeToString(contentHash[:16]),
	)
	prefix := strings.Trim(r.cfg.ArchivePrefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Package batch runs the refresh pipeline over every tracked product.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/metrics"
	"github.com/pricewatch/pricewatch/internal/refresher"
	"github.com/pricewatch/pricewatch/internal/tracker"
)

// Config controls Coordinator behavior.
type Config struct {
	// Concurrency bounds the number of refreshes in flight at once.
	Concurrency int
	// Budget is the wall-clock limit for a whole run. Zero means no limit.
	Budget time.Duration
}

// Coordinator fans one refresh per tracked product out over a bounded set
// of goroutines and joins them into a BatchResult. A product's failure is
// captured at this boundary and can never abort a sibling refresh.
type Coordinator struct {
	store     tracker.ProductStore
	refresher *refresher.Refresher
	clock     tracker.Clock
	cfg       Config
	logger    *zap.Logger

	// locks serializes refreshes per locator so overlapping runs cannot
	// race the same document.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs a Coordinator.
func New(
	store tracker.ProductStore,
	r *refresher.Refresher,
	clock tracker.Clock,
	cfg Config,
	logger *zap.Logger,
) *Coordinator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Coordinator{
		store:     store,
		refresher: r,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Run loads all tracked products and refreshes them concurrently. It
// returns tracker.ErrNoProductsTracked when the store is empty and
// tracker.ErrStoreUnreachable when the initial load fails; per-product
// failures are reported inside the result, never as an error.
func (c *Coordinator) Run(ctx context.Context) (tracker.BatchResult, error) {
	started := c.clock.Now()
	runID := uuid.NewString()

	products, err := c.store.ListAll(ctx)
	if err != nil {
		metrics.ObserveBatch("store_unreachable", time.Since(started))
		return tracker.BatchResult{}, fmt.Errorf("%w: %w", tracker.ErrStoreUnreachable, err)
	}
	if len(products) == 0 {
		metrics.ObserveBatch("no_products", time.Since(started))
		return tracker.BatchResult{}, tracker.ErrNoProductsTracked
	}

	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if c.cfg.Budget > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.cfg.Budget)
	}
	defer cancel()

	c.logger.Info("batch started",
		zap.String("run_id", runID),
		zap.Int("products", len(products)),
		zap.Int("concurrency", c.cfg.Concurrency),
	)

	outcomes := make([]outcome, len(products))
	sem := make(chan struct{}, c.cfg.Concurrency)
	var wg sync.WaitGroup
	for i, product := range products {
		wg.Add(1)
		go func(idx int, p tracker.TrackedProduct) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[idx] = c.refreshOne(runCtx, p)
		}(i, product)
	}
	wg.Wait()

	result := tracker.BatchResult{
		RunID:   runID,
		Started: started,
	}
	for _, o := range outcomes {
		if o.err != nil {
			result.Failed = append(result.Failed, tracker.FailedRefresh{
				Locator: o.locator,
				Reason:  o.err.Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, o.product)
	}
	result.Finished = c.clock.Now()

	metrics.ObserveBatch("completed", result.Finished.Sub(started))
	c.logger.Info("batch finished",
		zap.String("run_id", runID),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
		zap.Duration("elapsed", result.Finished.Sub(started)),
	)
	return result, nil
}

type outcome struct {
	locator string
	product tracker.TrackedProduct
	err     error
}

func (c *Coordinator) refreshOne(ctx context.Context, product tracker.TrackedProduct) outcome {
	// Refreshes not yet started when the budget expires are skipped; work
	// already persisted by then stays in the succeeded set.
	if err := ctx.Err(); err != nil {
		return outcome{locator: product.Locator, err: fmt.Errorf("refresh skipped: %w", err)}
	}

	lock := c.lockFor(product.Locator)
	lock.Lock()
	defer lock.Unlock()

	metrics.IncActiveRefreshes()
	defer metrics.DecActiveRefreshes()

	updated, err := c.refresher.Refresh(ctx, product)
	if err != nil {
		metrics.ObserveRefresh("failed")
		c.logger.Warn("product refresh failed",
			zap.String("locator", product.Locator),
			zap.Error(err),
		)
		return outcome{locator: product.Locator, err: err}
	}

	metrics.ObserveRefresh("succeeded")
	return outcome{locator: product.Locator, product: updated}
}

func (c *Coordinator) lockFor(locator string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[locator]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[locator] = lock
	}
	return lock
}

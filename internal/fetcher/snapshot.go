package fetcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/tracker"
)

// Snapshotter implements tracker.Fetcher. It retrieves the page with the
// probe fetcher, optionally promotes to a headless rendering pass when the
// body looks JavaScript-rendered, and parses the winning body into a
// snapshot.
type Snapshotter struct {
	probe    PageFetcher
	headless PageFetcher
	detector PromotionDetector
	parser   *Parser
	clock    tracker.Clock
	logger   *zap.Logger
}

// NewSnapshotter constructs a Snapshotter. headless and detector may be
// nil to disable promotion.
func NewSnapshotter(
	probe PageFetcher,
	headless PageFetcher,
	detector PromotionDetector,
	parser *Parser,
	clock tracker.Clock,
	logger *zap.Logger,
) *Snapshotter {
	return &Snapshotter{
		probe:    probe,
		headless: headless,
		detector: detector,
		parser:   parser,
		clock:    clock,
		logger:   logger,
	}
}

// Fetch retrieves and parses the current snapshot for a locator. One call
// is a single attempt per fetcher; there is no internal retry.
func (s *Snapshotter) Fetch(ctx context.Context, locator string) (tracker.Snapshot, error) {
	resp, err := s.probe.Fetch(ctx, PageRequest{Locator: locator})
	if err != nil {
		return tracker.Snapshot{}, fmt.Errorf("probe fetch: %w", err)
	}
	if resp.StatusCode >= 400 {
		return tracker.Snapshot{}, fmt.Errorf("probe fetch: status %d", resp.StatusCode)
	}

	if promoted, ok := s.maybePromote(ctx, locator, resp); ok {
		resp = promoted
	}

	snapshot, err := s.parser.ParseSnapshot(locator, resp.Body, s.clock.Now())
	if err != nil {
		return tracker.Snapshot{}, err
	}
	return snapshot, nil
}

func (s *Snapshotter) maybePromote(ctx context.Context, locator string, resp PageResponse) (PageResponse, bool) {
	if s.headless == nil || s.detector == nil || !s.detector.ShouldPromote(resp) {
		return resp, false
	}
	rendered, err := s.headless.Fetch(ctx, PageRequest{Locator: locator, UseHeadless: true})
	if err != nil {
		// Fall back to the probe body rather than failing the refresh.
		s.logger.Warn("headless promotion failed", zap.String("locator", locator), zap.Error(err))
		return resp, false
	}
	rendered.UsedHeadless = true
	return rendered, true
}

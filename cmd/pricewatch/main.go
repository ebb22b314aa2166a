// Package main wires together the price tracker service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/api"
	"github.com/pricewatch/pricewatch/internal/archive"
	gcsarchive "github.com/pricewatch/pricewatch/internal/archive/gcs"
	localarchive "github.com/pricewatch/pricewatch/internal/archive/local"
	"github.com/pricewatch/pricewatch/internal/batch"
	"github.com/pricewatch/pricewatch/internal/classify"
	"github.com/pricewatch/pricewatch/internal/clock/system"
	"github.com/pricewatch/pricewatch/internal/config"
	"github.com/pricewatch/pricewatch/internal/fetcher"
	collyfetcher "github.com/pricewatch/pricewatch/internal/fetcher/colly"
	headlessfetcher "github.com/pricewatch/pricewatch/internal/fetcher/headless"
	"github.com/pricewatch/pricewatch/internal/headless/detector"
	"github.com/pricewatch/pricewatch/internal/logging"
	"github.com/pricewatch/pricewatch/internal/metrics"
	"github.com/pricewatch/pricewatch/internal/notify"
	"github.com/pricewatch/pricewatch/internal/refresher"
	"github.com/pricewatch/pricewatch/internal/scheduler"
	memorystore "github.com/pricewatch/pricewatch/internal/storage/memory"
	pgstore "github.com/pricewatch/pricewatch/internal/storage/postgres"
	"github.com/pricewatch/pricewatch/internal/tracker"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, stop); err != nil {
		logger.Error("service failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, stop context.CancelFunc) error {
	store, storeCleanup, err := setupStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer storeCleanup()

	dispatcher, dispatcherCleanup, err := setupDispatcher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer dispatcherCleanup()

	pageArchive, archiveCleanup, err := setupArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer archiveCleanup()

	snapshotter, headlessCleanup, err := setupFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer headlessCleanup()

	policy := classify.Policy{Drop: classify.DropPolicy(cfg.Notify.DropPolicy)}

	clock := system.New()
	r := refresher.New(
		snapshotter,
		store,
		dispatcher,
		pageArchive,
		clock,
		policy,
		refresher.Config{
			ArchivePrefix:      cfg.Archive.Prefix,
			ArchiveContentType: cfg.Archive.ContentType,
		},
		logger.Named("refresher"),
	)
	coordinator := batch.New(store, r, clock, batch.Config{
		Concurrency: cfg.Batch.Concurrency,
		Budget:      cfg.BatchBudget(),
	}, logger.Named("batch"))

	apiServer := api.NewServer(coordinator, store, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(coordinator, cfg.SchedulerInterval(), logger.Named("scheduler"))
		go sched.Run(ctx)
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

type apiStore interface {
	tracker.ProductStore
	Get(ctx context.Context, locator string) (tracker.TrackedProduct, error)
}

func setupStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (apiStore, func(), error) {
	switch cfg.DB.Provider {
	case "postgres":
		store, err := pgstore.New(ctx, pgstore.Config{
			DSN:             cfg.DB.DSN,
			Table:           cfg.DB.Table,
			MaxConns:        cfg.DB.MaxConns,
			MinConns:        cfg.DB.MinConns,
			MaxConnLifetime: time.Duration(cfg.DB.ConnLifetimeSecond) * time.Second,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres store init failed: %w", err)
		}
		logger.Info("using postgres product store", zap.String("table", cfg.DB.Table))
		return store, store.Close, nil
	default:
		logger.Info("using in-memory product store")
		return memorystore.NewProductStore(), func() {}, nil
	}
}

func setupDispatcher(ctx context.Context, cfg config.Config, logger *zap.Logger) (tracker.Dispatcher, func(), error) {
	switch cfg.Notify.Provider {
	case "pubsub":
		dispatcher, err := notify.NewPubSubDispatcher(
			ctx,
			cfg.Notify.ProjectID,
			cfg.Notify.TopicName,
			logger.Named("notify"),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("pubsub dispatcher init failed: %w", err)
		}
		logger.Info("using pubsub dispatcher",
			zap.String("project", cfg.Notify.ProjectID),
			zap.String("topic", cfg.Notify.TopicName),
		)
		cleanup := func() {
			if err := dispatcher.Close(); err != nil {
				logger.Warn("pubsub dispatcher close failed", zap.Error(err))
			}
		}
		return dispatcher, cleanup, nil
	case "memory":
		logger.Info("using in-memory dispatcher")
		return notify.NewMemoryDispatcher(), func() {}, nil
	default:
		logger.Info("using noop dispatcher")
		return notify.NewNoopDispatcher(), func() {}, nil
	}
}

func setupArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) (tracker.Archive, func(), error) {
	switch cfg.Archive.Provider {
	case "gcs":
		store, err := gcsarchive.New(ctx, cfg.Archive.GCSBucket, logger.Named("archive"))
		if err != nil {
			return nil, nil, fmt.Errorf("gcs archive init failed: %w", err)
		}
		logger.Info("using gcs page archive", zap.String("bucket", cfg.Archive.GCSBucket))
		cleanup := func() {
			if err := store.Close(); err != nil {
				logger.Warn("gcs archive close failed", zap.Error(err))
			}
		}
		return store, cleanup, nil
	case "local":
		store, err := localarchive.New(localarchive.Config{BaseDir: cfg.Archive.BaseDir})
		if err != nil {
			return nil, nil, fmt.Errorf("local archive init failed: %w", err)
		}
		logger.Info("using local page archive", zap.String("base_dir", cfg.Archive.BaseDir))
		return store, func() {}, nil
	default:
		logger.Info("page archiving disabled")
		return archive.NewNoop(), func() {}, nil
	}
}

func setupFetcher(cfg config.Config, logger *zap.Logger) (*fetcher.Snapshotter, func(), error) {
	probe := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.Fetch.UserAgent,
		RespectRobots: cfg.Fetch.RespectRobots,
		Timeout:       cfg.FetchTimeout(),
	})
	logger.Info("using colly probe fetcher", zap.String("user_agent", cfg.Fetch.UserAgent))

	// With headless disabled, promotion falls through the noop fetcher
	// back to the probe body.
	var headless fetcher.PageFetcher = headlessfetcher.NewNoop()
	detect := detector.NewHeuristic(0)
	cleanup := func() {}
	if cfg.Headless.Enabled {
		chrome, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Fetch.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("headless fetcher init failed: %w", err)
		}
		headless = chrome
		cleanup = chrome.Close
		logger.Info("using headless fetcher", zap.Int("max_parallel", cfg.Headless.MaxParallel))
	}

	snapshotter := fetcher.NewSnapshotter(
		probe,
		headless,
		detect,
		fetcher.NewParser(cfg.Parser),
		system.New(),
		logger.Named("fetcher"),
	)
	return snapshotter, cleanup, nil
}

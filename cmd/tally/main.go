package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aevon-lab/tally/internal/aggregation"
	corecfg "github.com/aevon-lab/tally/internal/core/config"
	"github.com/aevon-lab/tally/internal/core/storage"
	"github.com/aevon-lab/tally/internal/core/storage/memory"
	"github.com/aevon-lab/tally/internal/core/storage/postgres"
	"github.com/aevon-lab/tally/internal/ingestion"
	"github.com/aevon-lab/tally/internal/migrations"
	"github.com/aevon-lab/tally/internal/queue"
	"github.com/aevon-lab/tally/internal/registry"
	"github.com/aevon-lab/tally/internal/server"
	"github.com/aevon-lab/tally/internal/sources"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "tally.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log))
	slog.Info("Loaded config",
		"store", cfg.Store.Type,
		"registry", cfg.Registry.Path,
		"sources", len(cfg.Sources.Sources),
		"groups", len(cfg.Sources.Groups),
		"timezone", cfg.Engine.Timezone,
	)

	loc, err := cfg.Engine.Location()
	if err != nil {
		slog.Error("Invalid engine timezone", "value", cfg.Engine.Timezone, "error", err)
		os.Exit(1)
	}

	// 2. Initialize Storage
	backing, closeStore, err := openStore(cfg.Store)
	if err != nil {
		slog.Error("Failed to initialize store", "type", cfg.Store.Type, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var store storage.Store = backing
	if cfg.Store.CacheSize > 0 {
		cached, err := storage.NewCachedStore(backing, cfg.Store.CacheSize)
		if err != nil {
			slog.Error("Failed to initialize slot cache", "error", err)
			os.Exit(1)
		}
		store = cached
	}

	// 3. Initialize Registry
	reg, err := registry.New(cfg.Sources)
	if err != nil {
		slog.Error("Failed to build source registry", "error", err)
		os.Exit(1)
	}

	// 4. Initialize Engine (queue, accumulators, rollups)
	metricsReg := prometheus.NewRegistry()
	metricsReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine := aggregation.NewEngine(store, reg, queue.New(queue.NewMetrics(metricsReg)), aggregation.Options{
		Location:     loc,
		AvgPrecision: int32(cfg.Engine.AvgPrecision),
		Metrics:      aggregation.NewMetrics(metricsReg),
	})
	engine.Bootstrap()

	scheduler, err := aggregation.NewScheduler(engine)
	if err != nil {
		slog.Error("Failed to initialize scheduler", "error", err)
		os.Exit(1)
	}

	// 5. Initialize HTTP services
	ingestionSvc := ingestion.NewService(engine, cfg.Server.MaxBodySizeMB, cfg.Server.MaxBatchSize)
	sourcesSvc := sources.NewService(reg, engine)

	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), store, metricsReg, cfg.Server.Mode)
	ingestionSvc.RegisterRoutes(srv.Engine)
	sourcesSvc.RegisterRoutes(srv.Engine)

	// 6. Start Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Engine.Enabled {
		g.Go(func() error { return scheduler.Start(gctx) })
	} else {
		slog.Info("Boundary scheduler disabled by config; rollups will not run")
	}
	// HTTP server blocks until ctx is cancelled.
	g.Go(func() error { return srv.Run(gctx) })

	runErr := g.Wait()

	// 7. Drain queued event tasks before the store closes, scheduler or not.
	if err := engine.Drain(aggregation.ShutdownDrainTimeout); err != nil {
		slog.Warn("Task queue not drained before shutdown", "error", err)
	}
	if runErr != nil {
		slog.Error("Stopped with error", "error", runErr)
		closeStore()
		os.Exit(1)
	}

	slog.Info("Shutdown complete")
}

// openStore builds the configured backing store. The returned close func is
// safe to call more than once.
func openStore(cfg corecfg.StoreConfig) (storage.Store, func(), error) {
	if cfg.Type == "memory" {
		slog.Warn("Using the in-memory store; accumulator state is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	db, err := postgres.Open(cfg.DSN, cfg.MaxOpenConns, cfg.MaxIdleConns)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunMigrations(db, cfg.AutoMigrate); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	pg, err := postgres.NewStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	closed := false
	return pg, func() {
		if closed {
			return
		}
		closed = true
		if err := pg.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}, nil
}

func newLogger(cfg corecfg.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"HemoPulse/internal/handler/api"
	"HemoPulse/internal/handler/ws"
	mid "HemoPulse/internal/middleware"
	"HemoPulse/internal/usecase"
	"HemoPulse/pkg/cache"
	"HemoPulse/pkg/config"
	xhttp "HemoPulse/pkg/http"
	pkgkafka "HemoPulse/pkg/kafka"
	applogger "HemoPulse/pkg/logger"
	pkgqueue "HemoPulse/pkg/queue"

	"github.com/labstack/echo/v4"
)

// rolloverInterval is how often the app checks whether the calendar day
// has advanced past the latest snapshot.
const rolloverInterval = time.Minute

// routes fans RegisterRoutes out to every handler the app exposes.
type routes []xhttp.Handler

func (rs routes) RegisterRoutes(e *echo.Echo) {
	for _, r := range rs {
		r.RegisterRoutes(e)
	}
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	snapshots  *usecase.SnapshotUseCase
	hub        *mid.EventHub
	store      cache.Service
	jobs       *pkgqueue.RedisQueue
	producer   *pkgkafka.Producer
	apiHandler *api.DemandEchoHandler
	wsHandler  *ws.LiveHandler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	snapshots *usecase.SnapshotUseCase,
	hub *mid.EventHub,
	store cache.Service,
	jobs *pkgqueue.RedisQueue,
	producer *pkgkafka.Producer,
	apiHandler *api.DemandEchoHandler,
	wsHandler *ws.LiveHandler,
) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		snapshots:  snapshots,
		hub:        hub,
		store:      store,
		jobs:       jobs,
		producer:   producer,
		apiHandler: apiHandler,
		wsHandler:  wsHandler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.cfg.LogShipping.Enabled {
		if a.producer != nil {
			a.logger.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   a.cfg.LogShipping.FlushInterval,
				CountThreshold: a.cfg.LogShipping.CountThreshold,
				Topic:          a.cfg.LogShipping.Topic,
				Publisher:      a.producer,
			})
			a.logger.Info("log shipping enabled", applogger.String("topic", a.cfg.LogShipping.Topic))
		} else {
			a.logger.Warn("log shipping enabled but no kafka producer is configured")
		}
	}

	if a.jobs != nil {
		if err := a.jobs.Start(); err != nil {
			return fmt.Errorf("start queue: %w", err)
		}
		a.logger.Info("queue workers started", applogger.Int("workers", a.cfg.Queue.Workers))
	}

	a.httpServer = xhttp.NewServer(routes{a.apiHandler, a.wsHandler},
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(a.cfg.Metrics.Enabled, a.cfg.Metrics.Path),
		xhttp.WithLogger(a.logger),
	)

	// Warm the first snapshot so the API never serves an empty dashboard.
	go a.warmSnapshot(ctx)
	go a.watchRollover(ctx)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started",
		applogger.String("host", a.cfg.Server.Host),
		applogger.Int("port", a.cfg.Server.Port),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) warmSnapshot(ctx context.Context) {
	snap, err := a.snapshots.Rebuild(ctx, usecase.TriggerStartup)
	if err != nil {
		a.logger.Error("startup snapshot failed", applogger.Error(err))
		return
	}
	a.logger.Info("startup snapshot ready",
		applogger.String("run_id", snap.RunID),
		applogger.Float64("training_loss", snap.TrainingLoss),
	)
}

// watchRollover rebuilds the snapshot once the day served as "today"
// is no longer the current day.
func (a *App) watchRollover(ctx context.Context) {
	ticker := time.NewTicker(rolloverInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.snapshots.Stale(ctx) {
				continue
			}
			snap, err := a.snapshots.Rebuild(ctx, usecase.TriggerRollover)
			if err != nil {
				a.logger.Error("rollover rebuild failed", applogger.Error(err))
				continue
			}
			a.logger.Info("rolled snapshot to new day", applogger.String("run_id", snap.RunID))
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	// Ends every live websocket stream.
	a.hub.Close()

	if a.jobs != nil {
		if err := a.jobs.Stop(shutdownCtx); err != nil {
			a.logger.Warn("queue stop error", applogger.Error(err))
		}
	}

	// Flush buffered log batches while the producer is still open.
	if a.cfg.LogShipping.Enabled {
		a.logger.RemoveCollector()
	}

	a.snapshots.Close()

	// The kafka snapshot publisher owns the producer and closes it above.
	// A producer created for log shipping alone is closed here.
	if a.producer != nil && a.cfg.Publisher.Type != "kafka" {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warn("cache close error", applogger.Error(err))
	}

	a.logger.Info("shutdown complete")
	return nil
}

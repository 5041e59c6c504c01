package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"HemoPulse/internal/domain/models"
	"HemoPulse/internal/service/metrics"
	"HemoPulse/internal/service/ratelimit"
	"HemoPulse/internal/usecase"
	"HemoPulse/pkg/cache"
	xhttp "HemoPulse/pkg/http"
	xlogger "HemoPulse/pkg/logger"
	"HemoPulse/pkg/queue"
)

const backgroundRebuildTimeout = 30 * time.Second

// DemandEchoHandler serves the demand chart and dashboard endpoints.
type DemandEchoHandler struct {
	logger    *xlogger.Logger
	snapshots *usecase.SnapshotUseCase
	cache     cache.Service
	jobs      queue.QueueService
	rl        *ratelimit.Limiter
	rlCap     float64
	rlRefill  float64
	cacheTTL  time.Duration
}

func NewDemandEchoHandler(
	logger *xlogger.Logger,
	snapshots *usecase.SnapshotUseCase,
	store cache.Service,
	jobs queue.QueueService,
	rlCapacity, rlRefillPerSec float64,
	cacheTTL time.Duration,
) *DemandEchoHandler {
	metrics.Register()
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &DemandEchoHandler{
		logger:    logger,
		snapshots: snapshots,
		cache:     store,
		jobs:      jobs,
		rl:        ratelimit.New(),
		rlCap:     rlCapacity,
		rlRefill:  rlRefillPerSec,
		cacheTTL:  cacheTTL,
	}
}

func (h *DemandEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api/demand")
	g.GET("/history", h.History)
	g.GET("/forecast", h.Forecast)
	g.GET("/dashboard", h.Dashboard)
	g.POST("/refresh", h.Refresh)
}

func (h *DemandEchoHandler) Health(c echo.Context) error {
	snapshot := "pending"
	if h.snapshots.Ready(c.Request().Context()) {
		snapshot = "ready"
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "snapshot": snapshot})
}

// History returns the 31 day synthetic actuals as chart rows.
func (h *DemandEchoHandler) History(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues("history").Observe(time.Since(start).Seconds()) }()

	snap, err := h.snapshots.Current(c.Request().Context())
	if err != nil {
		metrics.EndpointErrors.WithLabelValues("history").Inc()
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	rows := models.PointDTOs(snap.History)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Forecast returns the 7 day projection as chart rows.
func (h *DemandEchoHandler) Forecast(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues("forecast").Observe(time.Since(start).Seconds()) }()

	snap, err := h.snapshots.Current(c.Request().Context())
	if err != nil {
		metrics.EndpointErrors.WithLabelValues("forecast").Inc()
		h.logger.Error("forecast usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	rows := models.PointDTOs(snap.Forecast)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Dashboard returns the combined series plus summary cards, cached per run.
func (h *DemandEchoHandler) Dashboard(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues("dashboard").Observe(time.Since(start).Seconds()) }()

	ctx := c.Request().Context()
	snap, err := h.snapshots.Current(ctx)
	if err != nil {
		metrics.EndpointErrors.WithLabelValues("dashboard").Inc()
		h.logger.Error("dashboard usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	key := cache.GenerateKey("dashboard", snap.RunID)
	if h.cache != nil {
		var cached models.DashboardResponse
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			metrics.DashboardCache.WithLabelValues("hit").Inc()
			return xhttp.SuccessResponse(c, cached)
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("dashboard cache read failed", xlogger.Error(err))
		}
		metrics.DashboardCache.WithLabelValues("miss").Inc()
	}

	resp := dashboardOf(snap)
	if h.cache != nil {
		if err := h.cache.Set(ctx, key, resp, h.cacheTTL); err != nil {
			h.logger.Warn("dashboard cache write failed", xlogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, resp)
}

// Refresh reruns the pipeline. With wait=true the response carries the new
// run; otherwise the rebuild continues in the background and 202 is
// returned immediately.
func (h *DemandEchoHandler) Refresh(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues("refresh").Observe(time.Since(start).Seconds()) }()

	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":refresh", h.rlCap, h.rlRefill) {
		h.logger.Warn("refresh rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("refresh requests are throttled, retry shortly"))
	}
	if req.Note != "" {
		h.logger.Info("refresh requested", xlogger.String("note", req.Note))
	}

	if req.Wait {
		snap, err := h.snapshots.Rebuild(c.Request().Context(), usecase.TriggerRefresh)
		if err != nil {
			metrics.EndpointErrors.WithLabelValues("refresh").Inc()
			h.logger.Error("refresh rebuild error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		h.invalidateDashboard(c.Request().Context())
		return xhttp.SuccessResponse(c, models.RefreshResponse{
			RunID:       snap.RunID,
			GeneratedAt: snap.GeneratedAt,
			Started:     true,
		})
	}

	h.startBackgroundRebuild(c.Request().Context(), req.Note)
	return xhttp.AcceptedResponse(c, models.RefreshResponse{Started: true})
}

// startBackgroundRebuild hands the rebuild to the work queue when one is
// configured, or to a detached goroutine otherwise.
func (h *DemandEchoHandler) startBackgroundRebuild(ctx context.Context, note string) {
	if h.jobs != nil {
		payload := usecase.RebuildPayload{Trigger: usecase.TriggerRefresh, Note: note}
		err := h.jobs.PublishMessage(ctx, usecase.JobTypeRebuild, payload)
		if err == nil {
			return
		}
		h.logger.Warn("rebuild enqueue failed, running inline", xlogger.Error(err))
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundRebuildTimeout)
		defer cancel()
		if _, err := h.snapshots.Rebuild(ctx, usecase.TriggerRefresh); err != nil {
			h.logger.Error("background refresh failed", xlogger.Error(err))
			return
		}
		h.invalidateDashboard(ctx)
	}()
}

func (h *DemandEchoHandler) invalidateDashboard(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.DeleteByPattern(ctx, cache.BuildPattern("dashboard")); err != nil {
		h.logger.Warn("dashboard cache invalidation failed", xlogger.Error(err))
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"HemoPulse/internal/domain/models"
	domrepo "HemoPulse/internal/domain/repository"
	domsvc "HemoPulse/internal/domain/service"
	mid "HemoPulse/internal/middleware"
	"HemoPulse/internal/services/demand"
	"HemoPulse/pkg/util"
)

// Rebuild triggers, recorded on the snapshot and on run metrics.
const (
	TriggerStartup  = "startup"
	TriggerRefresh  = "refresh"
	TriggerRollover = "rollover"
	TriggerOnDemand = "on_demand"
)

// SnapshotUseCase runs the forecasting pipeline end to end and keeps the
// resulting snapshot available for the read endpoints.
type SnapshotUseCase struct {
	source  domsvc.HistorySource
	fc      domsvc.Forecaster
	store   domrepo.SnapshotStore
	pub     domrepo.SnapshotPublisher
	metrics domrepo.Metrics
	hub     *mid.EventHub
	now     func() time.Time

	rebuildMu sync.Mutex
}

// NewSnapshotUseCase creates a new SnapshotUseCase instance.
func NewSnapshotUseCase(
	source domsvc.HistorySource,
	fc domsvc.Forecaster,
	store domrepo.SnapshotStore,
	pub domrepo.SnapshotPublisher,
	metrics domrepo.Metrics,
	hub *mid.EventHub,
) *SnapshotUseCase {
	return &SnapshotUseCase{
		source:  source,
		fc:      fc,
		store:   store,
		pub:     pub,
		metrics: metrics,
		hub:     hub,
		now:     time.Now,
	}
}

// Current returns the latest snapshot, building one on first use.
func (u *SnapshotUseCase) Current(ctx context.Context) (*models.Snapshot, error) {
	snap, err := u.store.Latest(ctx)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, domrepo.ErrNoSnapshot) {
		return nil, err
	}
	return u.Rebuild(ctx, TriggerOnDemand)
}

// Ready reports whether a snapshot is available to serve. Unlike Current it
// never triggers a build, so probes stay cheap.
func (u *SnapshotUseCase) Ready(ctx context.Context) bool {
	_, err := u.store.Latest(ctx)
	return err == nil
}

// Stale reports whether the stored snapshot no longer ends on the current
// day. True before the first run and after midnight rolls the day over.
func (u *SnapshotUseCase) Stale(ctx context.Context) bool {
	snap, err := u.store.Latest(ctx)
	if err != nil || len(snap.History) == 0 {
		return true
	}
	return !util.SameDay(snap.History.Last().Day, u.now())
}

// Rebuild runs the full pipeline: synthesize history, fit the model, roll
// it forward, and store the snapshot. Runs are serialized; a concurrent
// caller blocks until the active run finishes, then rebuilds again.
func (u *SnapshotUseCase) Rebuild(ctx context.Context, trigger string) (*models.Snapshot, error) {
	u.rebuildMu.Lock()
	defer u.rebuildMu.Unlock()

	start := time.Now()
	runID := uuid.NewString()
	u.emit(models.RunEvent{RunID: runID, Stage: models.StageRunStarted, Detail: map[string]string{
		"trigger": trigger,
	}})

	history := u.source.Generate()
	u.emit(models.RunEvent{RunID: runID, Stage: models.StageHistoryReady, Detail: map[string]string{
		"points": strconv.Itoa(len(history)),
	}})

	res, err := u.fc.Forecast(ctx, history)
	if err != nil {
		u.metrics.RecordError("forecast")
		u.emit(models.RunEvent{RunID: runID, Stage: models.StageRunFailed, Detail: map[string]string{
			"error": err.Error(),
		}})
		return nil, fmt.Errorf("rebuild snapshot: %w", err)
	}
	u.metrics.RecordTrainingLoss(res.TrainingLoss)
	u.emit(models.RunEvent{RunID: runID, Stage: models.StageModelTrained, Detail: map[string]string{
		"loss": strconv.FormatFloat(res.TrainingLoss, 'f', 4, 64),
	}})

	snap := &models.Snapshot{
		RunID:        runID,
		Trigger:      trigger,
		GeneratedAt:  u.now(),
		History:      history,
		Forecast:     res.Points,
		Summary:      demand.Summarize(history, res.Points),
		TrainingLoss: res.TrainingLoss,
	}

	if err := u.store.Save(ctx, snap); err != nil {
		u.metrics.RecordError("store")
		u.emit(models.RunEvent{RunID: runID, Stage: models.StageRunFailed, Detail: map[string]string{
			"error": err.Error(),
		}})
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	// Egress is best effort; a failed publish never fails the run.
	if err := u.pub.PublishSnapshot(ctx, snap); err != nil {
		u.metrics.RecordError("publish")
	} else {
		u.metrics.RecordPublished(u.pub.Backend())
	}

	u.metrics.RecordRun(trigger)
	u.metrics.RecordLatency("rebuild", time.Since(start).Seconds())
	u.emit(models.RunEvent{RunID: runID, Stage: models.StageSnapshotReady, Detail: map[string]string{
		"trigger": trigger,
	}})

	return snap, nil
}

func (u *SnapshotUseCase) emit(ev models.RunEvent) {
	if u.hub != nil {
		u.hub.Broadcast(ev)
	}
}

// Close closes underlying resources if available.
func (u *SnapshotUseCase) Close() {
	if u.pub != nil {
		_ = u.pub.Close()
	}
}

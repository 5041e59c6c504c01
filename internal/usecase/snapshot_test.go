package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"HemoPulse/internal/domain/models"
	domrepo "HemoPulse/internal/domain/repository"
	mid "HemoPulse/internal/middleware"
	"HemoPulse/internal/services/demand"
)

type sourceStub struct {
	series models.Series
}

func (s sourceStub) Generate() models.Series { return s.series }

type storeStub struct {
	saved   *models.Snapshot
	saveErr error
}

func (s *storeStub) Save(_ context.Context, snap *models.Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = snap
	return nil
}

func (s *storeStub) Latest(context.Context) (*models.Snapshot, error) {
	if s.saved == nil {
		return nil, domrepo.ErrNoSnapshot
	}
	return s.saved, nil
}

type publisherStub struct {
	calls int
	err   error
}

func (p *publisherStub) PublishSnapshot(context.Context, *models.Snapshot) error {
	p.calls++
	return p.err
}

func (p *publisherStub) Backend() string { return "stub" }

func (p *publisherStub) Close() error { return nil }

type metricsStub struct {
	runs      map[string]int
	errors    map[string]int
	published map[string]int
	losses    []float64
}

func newMetricsStub() *metricsStub {
	return &metricsStub{
		runs:      make(map[string]int),
		errors:    make(map[string]int),
		published: make(map[string]int),
	}
}

func (m *metricsStub) RecordRun(trigger string) { m.runs[trigger]++ }

func (m *metricsStub) RecordError(kind string) { m.errors[kind]++ }

func (m *metricsStub) RecordTrainingLoss(loss float64) { m.losses = append(m.losses, loss) }

func (m *metricsStub) RecordLatency(string, float64) {}

func (m *metricsStub) RecordPublished(backend string) { m.published[backend]++ }

func testClock() time.Time {
	return time.Date(2026, time.March, 14, 15, 9, 2, 0, time.UTC)
}

func newTestUseCase(store *storeStub, pub *publisherStub, metrics *metricsStub, hub *mid.EventHub) *SnapshotUseCase {
	gen := demand.NewGenerator(demand.WithSeed(7), demand.WithClock(testClock))
	uc := NewSnapshotUseCase(gen, demand.NewForecaster(), store, pub, metrics, hub)
	uc.now = testClock
	return uc
}

func TestRebuildProducesCompleteSnapshot(t *testing.T) {
	store := &storeStub{}
	pub := &publisherStub{}
	metrics := newMetricsStub()
	hub := mid.NewEventHub(metrics)
	defer hub.Close()
	events, cancel := hub.Subscribe(0)
	defer cancel()

	uc := newTestUseCase(store, pub, metrics, hub)

	snap, err := uc.Rebuild(context.Background(), TriggerRefresh)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if snap.RunID == "" {
		t.Fatalf("expected a run id")
	}
	if snap.Trigger != TriggerRefresh {
		t.Fatalf("trigger = %q, want %q", snap.Trigger, TriggerRefresh)
	}
	if len(snap.History) != 31 || len(snap.Forecast) != 7 {
		t.Fatalf("series sizes = %d history, %d forecast", len(snap.History), len(snap.Forecast))
	}
	if snap.Summary == nil {
		t.Fatalf("expected a summary")
	}
	if snap.Summary.LatestActual != snap.History.Last().Actual {
		t.Fatalf("summary latest = %d, history last = %d", snap.Summary.LatestActual, snap.History.Last().Actual)
	}
	if !snap.GeneratedAt.Equal(testClock()) {
		t.Fatalf("generated at = %v", snap.GeneratedAt)
	}
	if store.saved != snap {
		t.Fatalf("snapshot was not stored")
	}
	if pub.calls != 1 {
		t.Fatalf("publisher called %d times, want 1", pub.calls)
	}
	if metrics.runs[TriggerRefresh] != 1 || metrics.published["stub"] != 1 {
		t.Fatalf("metrics runs=%v published=%v", metrics.runs, metrics.published)
	}
	if len(metrics.losses) != 1 || metrics.losses[0] < 0 {
		t.Fatalf("training loss not recorded: %v", metrics.losses)
	}

	wantStages := []string{
		models.StageRunStarted,
		models.StageHistoryReady,
		models.StageModelTrained,
		models.StageSnapshotReady,
	}
	for _, want := range wantStages {
		select {
		case ev := <-events:
			if ev.Stage != want {
				t.Fatalf("got stage %q, want %q", ev.Stage, want)
			}
			if ev.RunID != snap.RunID {
				t.Fatalf("event run id = %q, want %q", ev.RunID, snap.RunID)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing stage %q", want)
		}
	}
}

func TestRebuildFailsFastOnShortHistory(t *testing.T) {
	short := demand.NewGenerator(demand.WithDays(5), demand.WithSeed(1)).Generate()

	store := &storeStub{}
	pub := &publisherStub{}
	metrics := newMetricsStub()
	hub := mid.NewEventHub(metrics)
	defer hub.Close()
	events, cancel := hub.Subscribe(0)
	defer cancel()

	uc := NewSnapshotUseCase(sourceStub{series: short}, demand.NewForecaster(), store, pub, metrics, hub)

	_, err := uc.Rebuild(context.Background(), TriggerStartup)
	if !errors.Is(err, demand.ErrInsufficientHistory) {
		t.Fatalf("err = %v, want insufficient history", err)
	}
	if store.saved != nil {
		t.Fatalf("failed run must not store a snapshot")
	}
	if pub.calls != 0 {
		t.Fatalf("failed run must not publish")
	}
	if metrics.errors["forecast"] != 1 {
		t.Fatalf("errors = %v, want one forecast error", metrics.errors)
	}

	var sawFailure bool
	for !sawFailure {
		select {
		case ev := <-events:
			if ev.Stage == models.StageRunFailed {
				sawFailure = true
			}
		case <-time.After(time.Second):
			t.Fatalf("no run_failed event emitted")
		}
	}
}

func TestRebuildSurvivesPublishFailure(t *testing.T) {
	store := &storeStub{}
	pub := &publisherStub{err: errors.New("endpoint down")}
	metrics := newMetricsStub()

	uc := newTestUseCase(store, pub, metrics, nil)

	snap, err := uc.Rebuild(context.Background(), TriggerRollover)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if store.saved != snap {
		t.Fatalf("snapshot must be stored even when publishing fails")
	}
	if metrics.errors["publish"] != 1 {
		t.Fatalf("errors = %v, want one publish error", metrics.errors)
	}
	if len(metrics.published) != 0 {
		t.Fatalf("published = %v, want none", metrics.published)
	}
	if metrics.runs[TriggerRollover] != 1 {
		t.Fatalf("runs = %v, want one rollover run", metrics.runs)
	}
}

func TestCurrentBuildsOnceThenReuses(t *testing.T) {
	store := &storeStub{}
	metrics := newMetricsStub()

	uc := newTestUseCase(store, &publisherStub{}, metrics, nil)

	first, err := uc.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if first.Trigger != TriggerOnDemand {
		t.Fatalf("trigger = %q, want %q", first.Trigger, TriggerOnDemand)
	}

	second, err := uc.Current(context.Background())
	if err != nil {
		t.Fatalf("Current again: %v", err)
	}
	if second.RunID != first.RunID {
		t.Fatalf("second call rebuilt: %q vs %q", second.RunID, first.RunID)
	}
	total := 0
	for _, n := range metrics.runs {
		total += n
	}
	if total != 1 {
		t.Fatalf("runs = %v, want exactly one", metrics.runs)
	}
}

func TestStale(t *testing.T) {
	store := &storeStub{}
	uc := newTestUseCase(store, &publisherStub{}, newMetricsStub(), nil)

	if !uc.Stale(context.Background()) {
		t.Fatalf("empty store must be stale")
	}

	if _, err := uc.Rebuild(context.Background(), TriggerStartup); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if uc.Stale(context.Background()) {
		t.Fatalf("fresh snapshot must not be stale")
	}

	uc.now = func() time.Time { return testClock().AddDate(0, 0, 1) }
	if !uc.Stale(context.Background()) {
		t.Fatalf("snapshot from yesterday must be stale")
	}
}

package repository

import (
	"context"
	"errors"

	"HemoPulse/internal/domain/models"
)

// ErrNoSnapshot is returned by SnapshotStore.Latest before the first run.
var ErrNoSnapshot = errors.New("no snapshot available")

// SnapshotStore holds the current run artifact. Implementations are
// in-memory; the series never outlive the process.
type SnapshotStore interface {
	Save(ctx context.Context, s *models.Snapshot) error
	Latest(ctx context.Context) (*models.Snapshot, error)
}

// SnapshotPublisher hands a finished snapshot to an egress backend.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, s *models.Snapshot) error
	Backend() string
	Close() error
}

// Metrics records operational telemetry.
type Metrics interface {
	RecordRun(trigger string)
	RecordError(kind string)
	RecordTrainingLoss(loss float64)
	RecordLatency(op string, seconds float64)
	RecordPublished(backend string)
}

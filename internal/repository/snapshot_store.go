package repository

import (
	"context"
	"sync"

	"HemoPulse/internal/domain/models"
	domrepo "HemoPulse/internal/domain/repository"
)

// MemorySnapshotStore keeps the latest snapshot in process memory. Each run
// replaces the previous one wholesale; nothing survives a restart.
type MemorySnapshotStore struct {
	mu     sync.RWMutex
	latest *models.Snapshot
}

// NewMemorySnapshotStore creates an empty store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (s *MemorySnapshotStore) Save(_ context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = snap
	return nil
}

func (s *MemorySnapshotStore) Latest(_ context.Context) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return nil, domrepo.ErrNoSnapshot
	}
	return s.latest, nil
}

var _ domrepo.SnapshotStore = (*MemorySnapshotStore)(nil)

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"HemoPulse/internal/domain/models"
	domrepo "HemoPulse/internal/domain/repository"
)

func TestMemorySnapshotStoreEmpty(t *testing.T) {
	store := NewMemorySnapshotStore()

	if _, err := store.Latest(context.Background()); !errors.Is(err, domrepo.ErrNoSnapshot) {
		t.Fatalf("want ErrNoSnapshot, got %v", err)
	}
}

func TestMemorySnapshotStoreReplaces(t *testing.T) {
	store := NewMemorySnapshotStore()
	ctx := context.Background()

	first := &models.Snapshot{RunID: "run-1", GeneratedAt: time.Now()}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if got.RunID != "run-1" {
		t.Fatalf("latest = %s, want run-1", got.RunID)
	}

	second := &models.Snapshot{RunID: "run-2", GeneratedAt: time.Now()}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err = store.Latest(ctx)
	if err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if got.RunID != "run-2" {
		t.Fatalf("save did not replace: latest = %s", got.RunID)
	}
}

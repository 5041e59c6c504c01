package usecase

import (
	"context"
	"encoding/json"
	"testing"
)

func TestRebuildJobHandle(t *testing.T) {
	store := &storeStub{}
	metrics := newMetricsStub()
	uc := newTestUseCase(store, &publisherStub{}, metrics, nil)
	job := NewRebuildJob(uc)

	if job.Type() != JobTypeRebuild {
		t.Fatalf("type = %q", job.Type())
	}

	payload := map[string]interface{}{"trigger": TriggerRefresh, "note": "drill"}
	if err := job.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if store.saved == nil || store.saved.Trigger != TriggerRefresh {
		t.Fatalf("saved = %+v", store.saved)
	}
	if metrics.runs[TriggerRefresh] != 1 {
		t.Fatalf("runs = %v", metrics.runs)
	}
}

func TestRebuildJobDefaultsTrigger(t *testing.T) {
	store := &storeStub{}
	uc := newTestUseCase(store, &publisherStub{}, newMetricsStub(), nil)
	job := NewRebuildJob(uc)

	raw := json.RawMessage(`{}`)
	if err := job.Handle(context.Background(), raw); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if store.saved == nil || store.saved.Trigger != TriggerRefresh {
		t.Fatalf("saved = %+v", store.saved)
	}
}

func TestRebuildJobRejectsBadPayload(t *testing.T) {
	job := NewRebuildJob(newTestUseCase(&storeStub{}, &publisherStub{}, newMetricsStub(), nil))
	if err := job.Handle(context.Background(), 7); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

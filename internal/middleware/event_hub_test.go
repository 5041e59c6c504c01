package middleware

import (
	"testing"
	"time"

	"HemoPulse/internal/domain/models"
)

type countingMetrics struct {
	errors map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{errors: make(map[string]int)}
}

func (m *countingMetrics) RecordRun(string) {}

func (m *countingMetrics) RecordError(kind string) { m.errors[kind]++ }

func (m *countingMetrics) RecordTrainingLoss(float64) {}

func (m *countingMetrics) RecordLatency(string, float64) {}

func (m *countingMetrics) RecordPublished(string) {}

func recvEvent(t *testing.T, ch <-chan models.RunEvent) models.RunEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed before event arrived")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return models.RunEvent{}
}

func TestHubBroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewEventHub(newCountingMetrics())
	defer hub.Close()

	ch1, cancel1 := hub.Subscribe(0)
	defer cancel1()
	ch2, cancel2 := hub.Subscribe(0)
	defer cancel2()

	hub.Broadcast(models.RunEvent{RunID: "run-1", Stage: models.StageRunStarted})

	for _, ch := range []<-chan models.RunEvent{ch1, ch2} {
		ev := recvEvent(t, ch)
		if ev.RunID != "run-1" || ev.Stage != models.StageRunStarted {
			t.Fatalf("unexpected event %+v", ev)
		}
		if ev.At.IsZero() {
			t.Fatalf("expected broadcast to stamp event time")
		}
	}
}

func TestHubReplaysRecentEvents(t *testing.T) {
	hub := NewEventHub(newCountingMetrics(), WithReplayDepth(2))
	defer hub.Close()

	hub.Broadcast(models.RunEvent{RunID: "run-1", Stage: models.StageRunStarted})
	hub.Broadcast(models.RunEvent{RunID: "run-1", Stage: models.StageModelTrained})
	hub.Broadcast(models.RunEvent{RunID: "run-1", Stage: models.StageSnapshotReady})

	ch, cancel := hub.Subscribe(8)
	defer cancel()

	first := recvEvent(t, ch)
	second := recvEvent(t, ch)
	if first.Stage != models.StageModelTrained || second.Stage != models.StageSnapshotReady {
		t.Fatalf("replay returned %q then %q, want trained then ready", first.Stage, second.Stage)
	}
	select {
	case ev := <-ch:
		t.Fatalf("got extra replayed event %+v beyond retained depth", ev)
	default:
	}
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	metrics := newCountingMetrics()
	hub := NewEventHub(metrics, WithSubscriberBuffer(1))
	defer hub.Close()

	ch, cancel := hub.Subscribe(0)
	defer cancel()

	hub.Broadcast(models.RunEvent{RunID: "run-1", Stage: models.StageRunStarted})
	hub.Broadcast(models.RunEvent{RunID: "run-1", Stage: models.StageHistoryReady})
	hub.Broadcast(models.RunEvent{RunID: "run-1", Stage: models.StageSnapshotReady})

	if got := metrics.errors["event_subscriber_full"]; got != 2 {
		t.Fatalf("dropped %d events, want 2", got)
	}
	ev := recvEvent(t, ch)
	if ev.Stage != models.StageRunStarted {
		t.Fatalf("kept event stage = %q, want the first broadcast", ev.Stage)
	}
}

func TestHubCancelDetachesSubscriber(t *testing.T) {
	hub := NewEventHub(newCountingMetrics())
	defer hub.Close()

	ch, cancel := hub.Subscribe(0)
	if got := hub.SubscriberCount(); got != 1 {
		t.Fatalf("subscriber count = %d, want 1", got)
	}

	cancel()
	if got := hub.SubscriberCount(); got != 0 {
		t.Fatalf("subscriber count after cancel = %d, want 0", got)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed after cancel")
	}
	cancel() // second cancel is a no-op
}

func TestHubCloseEndsSubscriptions(t *testing.T) {
	hub := NewEventHub(newCountingMetrics())

	ch, cancel := hub.Subscribe(0)
	defer cancel()

	hub.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed after hub close")
	}

	hub.Broadcast(models.RunEvent{RunID: "run-1", Stage: models.StageRunStarted})

	late, lateCancel := hub.Subscribe(4)
	defer lateCancel()
	if _, ok := <-late; ok {
		t.Fatalf("expected closed-hub subscription to return a closed channel")
	}
}

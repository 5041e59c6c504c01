package middleware

import (
	"sync"
	"time"

	"HemoPulse/internal/domain/models"
	domrepo "HemoPulse/internal/domain/repository"
)

// EventHub fans run progress events out to live subscribers. Sends never
// block a run: a subscriber whose buffer is full loses the event and the
// drop is counted. A short replay ring lets late subscribers catch up on
// the stages that already happened.
type EventHub struct {
	mu      sync.Mutex
	subs    map[int]chan models.RunEvent
	nextID  int
	bufSize int
	replay  []models.RunEvent
	depth   int
	closed  bool
	metrics domrepo.Metrics
}

// HubOption configures an EventHub.
type HubOption func(*EventHub)

// WithSubscriberBuffer sets the channel capacity given to each subscriber.
func WithSubscriberBuffer(n int) HubOption {
	return func(h *EventHub) {
		if n > 0 {
			h.bufSize = n
		}
	}
}

// WithReplayDepth sets how many recent events the hub retains for replay.
func WithReplayDepth(n int) HubOption {
	return func(h *EventHub) {
		if n >= 0 {
			h.depth = n
		}
	}
}

// NewEventHub creates a hub with default buffering.
func NewEventHub(metrics domrepo.Metrics, opts ...HubOption) *EventHub {
	h := &EventHub{
		subs:    make(map[int]chan models.RunEvent),
		bufSize: 16,
		depth:   64,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a consumer and preloads up to replay retained events
// into its channel. The returned cancel func detaches the subscriber; the
// channel is closed on cancel or hub shutdown.
func (h *EventHub) Subscribe(replay int) (<-chan models.RunEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan models.RunEvent, h.bufSize)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	if replay > 0 {
		events := h.replay
		if replay < len(events) {
			events = events[len(events)-replay:]
		}
		for _, ev := range events {
			select {
			case ch <- ev:
			default: // replay larger than the subscriber buffer
			}
		}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Broadcast delivers an event to every subscriber without blocking.
func (h *EventHub) Broadcast(ev models.RunEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	h.replay = append(h.replay, ev)
	if len(h.replay) > h.depth {
		h.replay = h.replay[len(h.replay)-h.depth:]
	}

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			if h.metrics != nil {
				h.metrics.RecordError("event_subscriber_full")
			}
		}
	}
}

// SubscriberCount reports how many consumers are attached.
func (h *EventHub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close detaches and closes every subscriber. Further broadcasts are no-ops.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.replay = nil
}

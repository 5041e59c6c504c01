package repository

import (
	"context"
	"fmt"
	"time"

	"HemoPulse/internal/domain/models"
	domrepo "HemoPulse/internal/domain/repository"
	xhttp "HemoPulse/pkg/http"
	pkgkafka "HemoPulse/pkg/kafka"
)

// snapshotEnvelope is the wire shape snapshots leave the process in,
// shared by the kafka and webhook backends.
type snapshotEnvelope struct {
	RunID        string                  `json:"run_id"`
	Trigger      string                  `json:"trigger"`
	GeneratedAt  time.Time               `json:"generated_at"`
	History      []models.DemandPointDTO `json:"history"`
	Forecast     []models.DemandPointDTO `json:"forecast"`
	Summary      *models.SummaryDTO      `json:"summary,omitempty"`
	TrainingLoss float64                 `json:"training_loss"`
}

func envelopeOf(s *models.Snapshot) snapshotEnvelope {
	return snapshotEnvelope{
		RunID:        s.RunID,
		Trigger:      s.Trigger,
		GeneratedAt:  s.GeneratedAt,
		History:      models.PointDTOs(s.History),
		Forecast:     models.PointDTOs(s.Forecast),
		Summary:      models.SummaryDTOOf(s.Summary),
		TrainingLoss: s.TrainingLoss,
	}
}

// NoopPublisher discards snapshots. Used when no egress is configured.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (*NoopPublisher) PublishSnapshot(context.Context, *models.Snapshot) error { return nil }
func (*NoopPublisher) Backend() string                                         { return "none" }
func (*NoopPublisher) Close() error                                            { return nil }

// KafkaSnapshotPublisher emits each finished snapshot to a topic, keyed by
// run so replays keep per-run ordering.
type KafkaSnapshotPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSnapshotPublisher wraps an existing producer.
func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer, topic string) *KafkaSnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: producer, topic: topic}
}

func (p *KafkaSnapshotPublisher) PublishSnapshot(ctx context.Context, s *models.Snapshot) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.RunID), envelopeOf(s))
}

func (p *KafkaSnapshotPublisher) Backend() string { return "kafka" }

func (p *KafkaSnapshotPublisher) Close() error {
	return p.producer.Close()
}

// WebhookSnapshotPublisher POSTs each snapshot to a configured URL with
// bounded retries and exponential backoff.
type WebhookSnapshotPublisher struct {
	client   *xhttp.Client
	url      string
	retryMax int
}

// NewWebhookSnapshotPublisher builds a webhook publisher.
func NewWebhookSnapshotPublisher(url string, timeout time.Duration, retryMax int) *WebhookSnapshotPublisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if retryMax < 0 {
		retryMax = 0
	}
	return &WebhookSnapshotPublisher{
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		url:      url,
		retryMax: retryMax,
	}
}

func (p *WebhookSnapshotPublisher) PublishSnapshot(ctx context.Context, s *models.Snapshot) error {
	payload := envelopeOf(s)

	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt <= p.retryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    p.url,
			Body:   payload,
		}, nil)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("webhook publish after %d attempts: %w", p.retryMax+1, lastErr)
}

func (p *WebhookSnapshotPublisher) Backend() string { return "webhook" }

func (p *WebhookSnapshotPublisher) Close() error { return nil }

var (
	_ domrepo.SnapshotPublisher = (*NoopPublisher)(nil)
	_ domrepo.SnapshotPublisher = (*KafkaSnapshotPublisher)(nil)
	_ domrepo.SnapshotPublisher = (*WebhookSnapshotPublisher)(nil)
)

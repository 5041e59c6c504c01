package usecase

import (
	"context"
	"fmt"

	"HemoPulse/pkg/queue"
)

// JobTypeRebuild is the queue message type for background rebuilds.
const JobTypeRebuild = "demand.rebuild"

// RebuildPayload is the queued request for a background rebuild.
type RebuildPayload struct {
	Trigger string `json:"trigger"`
	Note    string `json:"note,omitempty"`
}

// RebuildJob reruns the forecasting pipeline for queued refresh requests.
type RebuildJob struct {
	snapshots *SnapshotUseCase
}

func NewRebuildJob(snapshots *SnapshotUseCase) *RebuildJob {
	return &RebuildJob{snapshots: snapshots}
}

func (j *RebuildJob) Name() string { return "demand-rebuild" }

func (j *RebuildJob) Type() string { return JobTypeRebuild }

func (j *RebuildJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RebuildPayload](payload)
	if err != nil {
		return fmt.Errorf("rebuild payload: %w", err)
	}
	trigger := p.Trigger
	if trigger == "" {
		trigger = TriggerRefresh
	}
	_, err = j.snapshots.Rebuild(ctx, trigger)
	return err
}

var _ queue.Job = (*RebuildJob)(nil)

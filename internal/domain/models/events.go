package models

import "time"

// Run lifecycle stages, in emission order.
const (
	StageRunStarted    = "run_started"
	StageHistoryReady  = "history_ready"
	StageModelTrained  = "model_trained"
	StageSnapshotReady = "snapshot_ready"
	StageRunFailed     = "run_failed"
)

// RunEvent is one lifecycle notification of a forecasting run, streamed to
// live dashboard clients.
type RunEvent struct {
	RunID  string            `json:"run_id"`
	Stage  string            `json:"stage"`
	At     time.Time         `json:"at"`
	Detail map[string]string `json:"detail,omitempty"`
}

package models

import "time"

// DemandPoint is one calendar day of blood demand. A point carries an
// observed value, a forecast value, or both; zero is the sentinel for the
// unused side.
type DemandPoint struct {
	Day       time.Time
	Actual    int
	Predicted int
}

// Series is an ordered run of day-consecutive demand points, oldest first.
// A series is written once per run and treated as immutable afterwards.
type Series []DemandPoint

// Values returns the actual values in chronological order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = float64(p.Actual)
	}
	return out
}

// Last returns the final point of the series.
func (s Series) Last() DemandPoint {
	if len(s) == 0 {
		return DemandPoint{}
	}
	return s[len(s)-1]
}

// Clone returns an independent copy of the series.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// TrainingExample is one (window, target) pair derived from the history.
// Ephemeral; consumed only during the model fit.
type TrainingExample struct {
	Window []float64
	Target float64
}

// ForecastResult carries the rolled-out points plus the fit telemetry that
// outlives the discarded model.
type ForecastResult struct {
	Points       Series
	TrainingLoss float64
}

// Summary holds the figures the dashboard cards derive from one run:
// the latest observed value, the forecast peak, and the difference between
// tomorrow's prediction and today's actual (the recommended collection
// increase). Undefined when the forecast is empty.
type Summary struct {
	LatestActual        int
	PeakForecast        int
	RecommendedIncrease int
}

// Snapshot is the artifact of one forecasting run. It lives in memory for
// the lifetime of the run and is replaced wholesale by the next one.
// Note: no transport (json/http) concerns here.
type Snapshot struct {
	RunID        string
	Trigger      string
	GeneratedAt  time.Time
	History      Series
	Forecast     Series
	Summary      *Summary
	TrainingLoss float64
}

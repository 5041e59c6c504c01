package models

import (
	"time"

	"HemoPulse/pkg/util"
)

// Requests and wire shapes for the demand HTTP endpoints. Defined in domain
// for consistency and reuse.

type RefreshRequest struct {
	Wait bool   `json:"wait" default:"false"`
	Note string `json:"note" validate:"omitempty,max=80"`
}

type LiveRequest struct {
	Replay int `query:"replay" json:"replay" default:"8" validate:"gte=0,lte=64"`
}

// DemandPointDTO is the chart row shape: {date, actual, predicted}.
type DemandPointDTO struct {
	Date      string `json:"date"`
	Actual    int    `json:"actual"`
	Predicted int    `json:"predicted"`
}

// SummaryDTO mirrors Summary for the dashboard cards.
type SummaryDTO struct {
	LatestActual        int `json:"latest_actual"`
	PeakForecast        int `json:"peak_forecast"`
	RecommendedIncrease int `json:"recommended_increase"`
}

// DashboardResponse is the full payload the dashboard renders from.
type DashboardResponse struct {
	RunID           string           `json:"run_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Series          []DemandPointDTO `json:"series"`
	Summary         *SummaryDTO      `json:"summary,omitempty"`
	Recommendations []string         `json:"recommendations"`
}

// RefreshResponse acknowledges a rebuild request.
type RefreshResponse struct {
	RunID       string    `json:"run_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
	Started     bool      `json:"started"`
}

// PointDTOs converts a series to its wire rows, labelling each day.
func PointDTOs(s Series) []DemandPointDTO {
	out := make([]DemandPointDTO, len(s))
	for i, p := range s {
		out[i] = DemandPointDTO{
			Date:      util.ShortDate(p.Day),
			Actual:    p.Actual,
			Predicted: p.Predicted,
		}
	}
	return out
}

// SummaryDTOOf converts a Summary, passing nil through.
func SummaryDTOOf(sum *Summary) *SummaryDTO {
	if sum == nil {
		return nil
	}
	return &SummaryDTO{
		LatestActual:        sum.LatestActual,
		PeakForecast:        sum.PeakForecast,
		RecommendedIncrease: sum.RecommendedIncrease,
	}
}

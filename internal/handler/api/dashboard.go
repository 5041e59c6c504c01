package api

import (
	"fmt"

	"HemoPulse/internal/domain/models"
	"HemoPulse/internal/services/demand"
)

// dashboardOf shapes a snapshot into the dashboard payload.
func dashboardOf(snap *models.Snapshot) models.DashboardResponse {
	return models.DashboardResponse{
		RunID:           snap.RunID,
		GeneratedAt:     snap.GeneratedAt,
		Series:          models.PointDTOs(demand.CombinedView(snap.History, snap.Forecast)),
		Summary:         models.SummaryDTOOf(snap.Summary),
		Recommendations: recommendationsFor(snap.Summary),
	}
}

// recommendationsFor renders the summary as short operator guidance.
func recommendationsFor(sum *models.Summary) []string {
	if sum == nil {
		return nil
	}
	recs := make([]string, 0, 2)
	switch {
	case sum.RecommendedIncrease > 0:
		recs = append(recs, fmt.Sprintf("Demand rises by %d units tomorrow; schedule additional collection.", sum.RecommendedIncrease))
	case sum.RecommendedIncrease < 0:
		recs = append(recs, fmt.Sprintf("Demand eases by %d units tomorrow; current stock should hold.", -sum.RecommendedIncrease))
	default:
		recs = append(recs, "Demand holds steady tomorrow.")
	}
	if sum.PeakForecast > sum.LatestActual {
		recs = append(recs, fmt.Sprintf("Peak of %d units expected this week; confirm donor availability.", sum.PeakForecast))
	}
	return recs
}

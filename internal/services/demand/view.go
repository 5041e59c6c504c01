package demand

import (
	"HemoPulse/internal/domain/models"
)

// CombinedView concatenates history and forecast chronologically, the shape
// charts consume. Inputs are not mutated.
func CombinedView(history, forecast models.Series) models.Series {
	out := make(models.Series, 0, len(history)+len(forecast))
	out = append(out, history...)
	out = append(out, forecast...)
	return out
}

// Summarize derives the dashboard card figures: the latest actual demand,
// the peak predicted demand, and the recommended stock increase (tomorrow's
// prediction minus today's actual, negative when demand is expected to drop).
// Returns nil when either series is empty; the figures are undefined then.
func Summarize(history, forecast models.Series) *models.Summary {
	if len(history) == 0 || len(forecast) == 0 {
		return nil
	}

	peak := forecast[0].Predicted
	for _, p := range forecast[1:] {
		if p.Predicted > peak {
			peak = p.Predicted
		}
	}

	latest := history[len(history)-1].Actual
	return &models.Summary{
		LatestActual:        latest,
		PeakForecast:        peak,
		RecommendedIncrease: forecast[0].Predicted - latest,
	}
}

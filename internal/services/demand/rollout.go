package demand

import (
	"math"
	"time"

	"HemoPulse/internal/domain/models"
	"HemoPulse/pkg/util"
)

// Predictor maps a lookback window to the next raw value.
type Predictor interface {
	Predict(window []float64) float64
}

// Rollout extends a series autoregressively: each step predicts from the
// current window, rounds to the nearest whole unit, emits the point for the
// next calendar day and slides the window with the rounded value, so later
// steps compound earlier rounding. Predictions are not clamped; a poor fit
// may legitimately emit negative demand.
func Rollout(model Predictor, lastWindow []float64, lastDay time.Time, horizon int) models.Series {
	window := make([]float64, len(lastWindow))
	copy(window, lastWindow)

	out := make(models.Series, 0, horizon)
	for step := 1; step <= horizon; step++ {
		predicted := int(math.Round(model.Predict(window)))
		out = append(out, models.DemandPoint{
			Day:       util.NextDay(lastDay, step),
			Predicted: predicted,
		})
		window = append(window[1:], float64(predicted))
	}
	return out
}

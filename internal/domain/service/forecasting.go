package service

import (
	"context"

	"HemoPulse/internal/domain/models"
)

// HistorySource produces the synthetic demand history for one run.
type HistorySource interface {
	Generate() models.Series
}

// Forecaster fits a model over a history and rolls it forward. The fit is
// the long step; ctx is honored between stages.
type Forecaster interface {
	Forecast(ctx context.Context, history models.Series) (models.ForecastResult, error)
}

package demand

import (
	"context"
	"fmt"

	"HemoPulse/internal/domain/models"
	domsvc "HemoPulse/internal/domain/service"
)

// Forecaster produces the short-range demand outlook. Each call derives a
// training set from the history, fits a fresh linear model and rolls it
// forward; only the points and the final loss survive the call.
type Forecaster struct {
	lookback int
	horizon  int
	fit      FitConfig
}

// ForecasterOption configures a Forecaster.
type ForecasterOption func(*Forecaster)

// WithLookback sets the window size the model conditions on.
func WithLookback(n int) ForecasterOption {
	return func(f *Forecaster) {
		f.lookback = n
	}
}

// WithHorizon sets how many days ahead the rollout extends.
func WithHorizon(n int) ForecasterOption {
	return func(f *Forecaster) {
		f.horizon = n
	}
}

// WithFitConfig overrides the training bounds.
func WithFitConfig(cfg FitConfig) ForecasterOption {
	return func(f *Forecaster) {
		f.fit = cfg
	}
}

// NewForecaster builds a Forecaster with the default week-over-week setup.
func NewForecaster(opts ...ForecasterOption) *Forecaster {
	f := &Forecaster{
		lookback: 7,
		horizon:  7,
		fit:      DefaultFitConfig(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forecast fits a model over the history and extends it horizon days past
// the final point. The history must be strictly longer than the lookback;
// otherwise it fails before fitting and produces no partial output.
func (f *Forecaster) Forecast(ctx context.Context, history models.Series) (models.ForecastResult, error) {
	values := history.Values()

	examples, err := BuildTrainingSet(values, f.lookback)
	if err != nil {
		return models.ForecastResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.ForecastResult{}, err
	}

	model, err := Fit(examples, f.fit)
	if err != nil {
		return models.ForecastResult{}, fmt.Errorf("fit model: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return models.ForecastResult{}, err
	}

	window := values[len(values)-f.lookback:]
	points := Rollout(model, window, history.Last().Day, f.horizon)

	return models.ForecastResult{
		Points:       points,
		TrainingLoss: model.Loss(),
	}, nil
}

var _ domsvc.Forecaster = (*Forecaster)(nil)

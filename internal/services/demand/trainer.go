package demand

import (
	"errors"
	"fmt"
	"math"

	"HemoPulse/internal/domain/models"
)

// ErrInsufficientHistory is returned when a series cannot yield a single
// training example for the configured lookback.
var ErrInsufficientHistory = errors.New("history shorter than lookback window")

// BuildTrainingSet slides a lookback window over the values: one example per
// index i in [window, len), pairing values[i-window:i] with target values[i].
// A series of length L yields L-window examples.
func BuildTrainingSet(values []float64, window int) ([]models.TrainingExample, error) {
	if window < 1 {
		return nil, fmt.Errorf("lookback must be positive, got %d", window)
	}
	if len(values) <= window {
		return nil, fmt.Errorf("%w: %d values for lookback %d", ErrInsufficientHistory, len(values), window)
	}
	examples := make([]models.TrainingExample, 0, len(values)-window)
	for i := window; i < len(values); i++ {
		w := make([]float64, window)
		copy(w, values[i-window:i])
		examples = append(examples, models.TrainingExample{Window: w, Target: values[i]})
	}
	return examples, nil
}

// FitConfig bounds the gradient fit.
type FitConfig struct {
	Epochs       int
	LearningRate float64
}

// DefaultFitConfig is enough for the one-month series to converge.
func DefaultFitConfig() FitConfig {
	return FitConfig{Epochs: 100, LearningRate: 0.1}
}

// Model is a linear map from a lookback window to the next value. Fitting
// standardizes inputs and targets with the pooled mean and deviation of the
// training set; Predict works on the original scale.
type Model struct {
	weights []float64
	bias    float64
	mean    float64
	std     float64
	loss    float64
}

const (
	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-8
)

// Fit minimizes mean squared error over the examples with full-batch Adam
// steps. Parameters start at zero, so the fit is deterministic for a given
// training set.
func Fit(examples []models.TrainingExample, cfg FitConfig) (*Model, error) {
	if len(examples) == 0 {
		return nil, errors.New("empty training set")
	}
	if cfg.Epochs <= 0 || cfg.LearningRate <= 0 {
		return nil, fmt.Errorf("invalid fit config: epochs=%d lr=%g", cfg.Epochs, cfg.LearningRate)
	}

	window := len(examples[0].Window)
	mean, std := pooledMoments(examples)

	xs := make([][]float64, len(examples))
	ys := make([]float64, len(examples))
	for i, ex := range examples {
		row := make([]float64, window)
		for j, v := range ex.Window {
			row[j] = (v - mean) / std
		}
		xs[i] = row
		ys[i] = (ex.Target - mean) / std
	}

	m := &Model{
		weights: make([]float64, window),
		mean:    mean,
		std:     std,
	}

	n := float64(len(xs))
	grads := make([]float64, window+1) // bias gradient last
	moment1 := make([]float64, window+1)
	moment2 := make([]float64, window+1)

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		for k := range grads {
			grads[k] = 0
		}
		for i, row := range xs {
			pred := m.bias
			for j, x := range row {
				pred += m.weights[j] * x
			}
			resid := pred - ys[i]
			for j, x := range row {
				grads[j] += 2 * resid * x / n
			}
			grads[window] += 2 * resid / n
		}

		c1 := 1 - math.Pow(adamBeta1, float64(epoch))
		c2 := 1 - math.Pow(adamBeta2, float64(epoch))
		for k := 0; k <= window; k++ {
			moment1[k] = adamBeta1*moment1[k] + (1-adamBeta1)*grads[k]
			moment2[k] = adamBeta2*moment2[k] + (1-adamBeta2)*grads[k]*grads[k]
			step := cfg.LearningRate * (moment1[k] / c1) / (math.Sqrt(moment2[k]/c2) + adamEps)
			if k == window {
				m.bias -= step
			} else {
				m.weights[k] -= step
			}
		}
	}

	// Final loss on the original scale.
	sse := 0.0
	for i, row := range xs {
		pred := m.bias
		for j, x := range row {
			pred += m.weights[j] * x
		}
		resid := pred - ys[i]
		sse += resid * resid
	}
	m.loss = sse / n * std * std

	return m, nil
}

// pooledMoments returns the mean and standard deviation over every window
// value and target in the set. A flat series would make the deviation zero,
// so it falls back to 1 and the fit degenerates to predicting the mean.
func pooledMoments(examples []models.TrainingExample) (mean, std float64) {
	count := 0
	sum := 0.0
	for _, ex := range examples {
		for _, v := range ex.Window {
			sum += v
			count++
		}
		sum += ex.Target
		count++
	}
	mean = sum / float64(count)

	ss := 0.0
	for _, ex := range examples {
		for _, v := range ex.Window {
			d := v - mean
			ss += d * d
		}
		d := ex.Target - mean
		ss += d * d
	}
	std = math.Sqrt(ss / float64(count))
	if std < 1e-9 {
		std = 1
	}
	return mean, std
}

// Predict maps one lookback window to the next raw value. The window length
// must equal the lookback the model was fitted with.
func (m *Model) Predict(window []float64) float64 {
	out := m.bias
	for j := range m.weights {
		out += m.weights[j] * (window[j] - m.mean) / m.std
	}
	return m.mean + m.std*out
}

// Loss returns the final training MSE on the original scale.
func (m *Model) Loss() float64 {
	return m.loss
}

// Lookback returns the window size the model was fitted with.
func (m *Model) Lookback() int {
	return len(m.weights)
}

// Weights returns a copy of the fitted weights.
func (m *Model) Weights() []float64 {
	out := make([]float64, len(m.weights))
	copy(out, m.weights)
	return out
}

// Bias returns the fitted intercept on the standardized scale.
func (m *Model) Bias() float64 {
	return m.bias
}

package demand

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestForecastShape(t *testing.T) {
	history := NewGenerator(WithSeed(11), WithClock(fixedClock())).Generate()
	f := NewForecaster()

	res, err := f.Forecast(context.Background(), history)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if len(res.Points) != 7 {
		t.Fatalf("expected 7 forecast points, got %d", len(res.Points))
	}
	if res.TrainingLoss < 0 {
		t.Fatalf("training loss is negative: %g", res.TrainingLoss)
	}

	lastDay := history.Last().Day
	for i, p := range res.Points {
		want := lastDay.AddDate(0, 0, i+1)
		if !p.Day.Equal(want) {
			t.Fatalf("forecast day %d = %v, want %v", i, p.Day, want)
		}
		if p.Actual != 0 {
			t.Fatalf("forecast point %d carries an actual: %d", i, p.Actual)
		}
	}
}

func TestForecastRejectsShortHistory(t *testing.T) {
	f := NewForecaster()

	for _, n := range []int{0, 1, 7} {
		history := NewGenerator(WithDays(n), WithSeed(3), WithClock(fixedClock())).Generate()
		res, err := f.Forecast(context.Background(), history)
		if !errors.Is(err, ErrInsufficientHistory) {
			t.Fatalf("history of %d: want ErrInsufficientHistory, got %v", n, err)
		}
		if len(res.Points) != 0 {
			t.Fatalf("history of %d: got partial output of %d points", n, len(res.Points))
		}
	}
}

func TestForecastDeterministic(t *testing.T) {
	history := NewGenerator(WithSeed(21), WithClock(fixedClock())).Generate()
	f := NewForecaster()

	a, err := f.Forecast(context.Background(), history)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	b, err := f.Forecast(context.Background(), history)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}

	if !reflect.DeepEqual(a.Points, b.Points) || a.TrainingLoss != b.TrainingLoss {
		t.Fatalf("re-deriving the forecast from the same history changed the result")
	}
}

func TestForecastConstantHistory(t *testing.T) {
	history := NewGenerator(WithShape(100, 0, 0, 0), WithSeed(5), WithClock(fixedClock())).Generate()
	f := NewForecaster()

	res, err := f.Forecast(context.Background(), history)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	for i, p := range res.Points {
		if p.Predicted != 100 {
			t.Fatalf("constant history: point %d predicted %d, want 100", i, p.Predicted)
		}
	}
}

func TestForecastZeroNoiseStaysPlausible(t *testing.T) {
	history := NewGenerator(WithShape(100, 20, 0.5, 0), WithSeed(5), WithClock(fixedClock())).Generate()
	f := NewForecaster()

	res, err := f.Forecast(context.Background(), history)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}

	// Without noise the history stays inside [80, 136]; a converged fit must
	// not fly off that band when rolled forward a week.
	for i, p := range res.Points {
		if p.Predicted < 50 || p.Predicted > 160 {
			t.Fatalf("zero-noise forecast point %d = %d, outside plausible band", i, p.Predicted)
		}
	}
}

func TestForecastHonorsContext(t *testing.T) {
	history := NewGenerator(WithSeed(11), WithClock(fixedClock())).Generate()
	f := NewForecaster()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Forecast(ctx, history); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestForecastCustomHorizon(t *testing.T) {
	history := NewGenerator(WithSeed(11), WithClock(fixedClock())).Generate()
	f := NewForecaster(WithHorizon(3), WithLookback(5))

	res, err := f.Forecast(context.Background(), history)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if len(res.Points) != 3 {
		t.Fatalf("expected 3 points for horizon 3, got %d", len(res.Points))
	}
}

package demand

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func rampValues(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(100 + i)
	}
	return out
}

func constantValues(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestBuildTrainingSetShape(t *testing.T) {
	examples, err := BuildTrainingSet(rampValues(31), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(examples) != 24 {
		t.Fatalf("31 values with lookback 7 should yield 24 examples, got %d", len(examples))
	}

	wantFirst := []float64{100, 101, 102, 103, 104, 105, 106}
	if !reflect.DeepEqual(examples[0].Window, wantFirst) {
		t.Fatalf("first window = %v, want %v", examples[0].Window, wantFirst)
	}
	if examples[0].Target != 107 {
		t.Fatalf("first target = %v, want 107", examples[0].Target)
	}

	last := examples[len(examples)-1]
	if last.Target != 130 {
		t.Fatalf("last target = %v, want 130", last.Target)
	}
	if last.Window[0] != 123 || last.Window[6] != 129 {
		t.Fatalf("last window = %v, want 123..129", last.Window)
	}
}

func TestBuildTrainingSetRejectsShortSeries(t *testing.T) {
	for _, n := range []int{0, 3, 7} {
		_, err := BuildTrainingSet(rampValues(n), 7)
		if !errors.Is(err, ErrInsufficientHistory) {
			t.Fatalf("length %d: want ErrInsufficientHistory, got %v", n, err)
		}
	}
}

func TestBuildTrainingSetCopiesWindows(t *testing.T) {
	values := rampValues(10)
	examples, err := BuildTrainingSet(values, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	values[0] = -999
	if examples[0].Window[0] == -999 {
		t.Fatalf("training window aliases the input slice")
	}
}

func TestFitConstantSeries(t *testing.T) {
	examples, err := BuildTrainingSet(constantValues(31, 100), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	model, err := Fit(examples, DefaultFitConfig())
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	got := model.Predict(constantValues(7, 100))
	if math.Abs(got-100) > 1e-9 {
		t.Fatalf("constant series should predict its level, got %g", got)
	}
	if model.Loss() > 1e-9 {
		t.Fatalf("constant series should fit exactly, loss %g", model.Loss())
	}
}

func TestFitRampConverges(t *testing.T) {
	examples, err := BuildTrainingSet(rampValues(31), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	model, err := Fit(examples, DefaultFitConfig())
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	// The continuation of 100..130 is 131.
	got := model.Predict([]float64{124, 125, 126, 127, 128, 129, 130})
	if math.Abs(got-131) > 6 {
		t.Fatalf("ramp continuation = %.2f, want within 131±6", got)
	}
	if model.Loss() > 50 {
		t.Fatalf("ramp fit did not converge, loss %g", model.Loss())
	}
}

func TestFitDeterministic(t *testing.T) {
	examples, err := BuildTrainingSet(rampValues(31), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := Fit(examples, DefaultFitConfig())
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	b, err := Fit(examples, DefaultFitConfig())
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	if !reflect.DeepEqual(a.Weights(), b.Weights()) || a.Bias() != b.Bias() || a.Loss() != b.Loss() {
		t.Fatalf("fit is not deterministic for identical input")
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	if _, err := Fit(nil, DefaultFitConfig()); err == nil {
		t.Fatalf("expected error for empty training set")
	}

	examples, err := BuildTrainingSet(rampValues(31), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Fit(examples, FitConfig{Epochs: 0, LearningRate: 0.1}); err == nil {
		t.Fatalf("expected error for zero epochs")
	}
	if _, err := Fit(examples, FitConfig{Epochs: 100, LearningRate: 0}); err == nil {
		t.Fatalf("expected error for zero learning rate")
	}
}

func TestModelLookback(t *testing.T) {
	examples, err := BuildTrainingSet(rampValues(31), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	model, err := Fit(examples, DefaultFitConfig())
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if model.Lookback() != 7 {
		t.Fatalf("lookback = %d, want 7", model.Lookback())
	}
}

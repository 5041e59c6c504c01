package demand

import (
	"math"
	"math/rand"
	"time"

	"HemoPulse/internal/domain/models"
	domsvc "HemoPulse/internal/domain/service"
	"HemoPulse/pkg/util"
)

// Generator produces the synthetic demand history: a baseline with weekly
// sinusoidal seasonality, a mild linear trend and uniform noise, rounded and
// clamped to non-negative integers.
type Generator struct {
	days        int
	baseline    float64
	seasonalAmp float64
	trendSlope  float64
	noiseAmp    float64
	rng         *rand.Rand
	now         func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithDays sets how many calendar days the history covers.
func WithDays(n int) GeneratorOption {
	return func(g *Generator) {
		g.days = n
	}
}

// WithShape sets the baseline level, seasonal amplitude, per-day trend slope
// and noise amplitude of the generated curve.
func WithShape(baseline, seasonalAmp, trendSlope, noiseAmp float64) GeneratorOption {
	return func(g *Generator) {
		g.baseline = baseline
		g.seasonalAmp = seasonalAmp
		g.trendSlope = trendSlope
		g.noiseAmp = noiseAmp
	}
}

// WithSeed makes the noise reproducible. Seed 0 keeps the time-seeded source.
func WithSeed(seed int64) GeneratorOption {
	return func(g *Generator) {
		if seed != 0 {
			g.rng = rand.New(rand.NewSource(seed))
		}
	}
}

// WithRand injects the random source directly.
func WithRand(rng *rand.Rand) GeneratorOption {
	return func(g *Generator) {
		g.rng = rng
	}
}

// WithClock injects the time source used to anchor the series end.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator builds a Generator with the default one-month shape.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		days:        31,
		baseline:    100,
		seasonalAmp: 20,
		trendSlope:  0.5,
		noiseAmp:    5,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns one fresh history: consecutive calendar days ending today,
// oldest first. Offset i counts days back from today, so the seasonal phase
// and trend are anchored to the calendar, not to the series index.
func (g *Generator) Generate() models.Series {
	today := util.Day(g.now())
	series := make(models.Series, 0, g.days)
	for i := g.days - 1; i >= 0; i-- {
		seasonal := math.Sin(float64(i)/7*math.Pi) * g.seasonalAmp
		trend := float64(i) * g.trendSlope
		noise := (g.rng.Float64()*2 - 1) * g.noiseAmp
		v := math.Round(g.baseline + seasonal + trend + noise)
		if v < 0 {
			v = 0
		}
		series = append(series, models.DemandPoint{
			Day:    today.AddDate(0, 0, -i),
			Actual: int(v),
		})
	}
	return series
}

var _ domsvc.HistorySource = (*Generator)(nil)

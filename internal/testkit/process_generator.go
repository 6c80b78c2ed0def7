package testkit

import (
	"fmt"
	"math/rand"

	"gosigma/domain/spc"
)

// ProcessConfig configures a synthetic measurement stream: normal noise around Mean,
// optionally disturbed by a step shift, a linear drift and isolated outliers
type ProcessConfig struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Sigma float64 `json:"sigma"`
	Seed  int64   `json:"seed"`

	ShiftAt   int     `json:"shift_at"`   // index where the step begins; 0 disables
	ShiftSize float64 `json:"shift_size"` // in sigma units

	DriftAt    int     `json:"drift_at"`    // index where the drift begins; 0 disables
	DriftSlope float64 `json:"drift_slope"` // sigma units per sample

	Outliers    []int   `json:"outliers"`     // indices replaced by Mean + OutlierSize*Sigma
	OutlierSize float64 `json:"outlier_size"` // in sigma units
}

// DefaultProcessConfig is a stable 100-point process around 10 with sigma 0.5
func DefaultProcessConfig() ProcessConfig {
	return ProcessConfig{
		Count:       100,
		Mean:        10,
		Sigma:       0.5,
		Seed:        42,
		OutlierSize: 6,
	}
}

// ProcessGenerator produces deterministic synthetic series for tests and demos
type ProcessGenerator struct {
	config ProcessConfig
	rng    *rand.Rand
}

// NewProcessGenerator creates a generator seeded from config
func NewProcessGenerator(config ProcessConfig) *ProcessGenerator {
	return &ProcessGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns the next series
func (g *ProcessGenerator) Generate() []float64 {
	c := g.config
	out := make([]float64, c.Count)
	for i := range out {
		x := c.Mean + g.rng.NormFloat64()*c.Sigma
		if c.ShiftAt > 0 && i >= c.ShiftAt {
			x += c.ShiftSize * c.Sigma
		}
		if c.DriftAt > 0 && i >= c.DriftAt {
			x += float64(i-c.DriftAt+1) * c.DriftSlope * c.Sigma
		}
		out[i] = x
	}
	for _, idx := range c.Outliers {
		if idx >= 0 && idx < len(out) {
			out[idx] = c.Mean + c.OutlierSize*c.Sigma
		}
	}
	return out
}

// GenerateSeries returns n named series, "<prefix>_1" and so on
func (g *ProcessGenerator) GenerateSeries(prefix string, n int) []spc.Series {
	series := make([]spc.Series, n)
	for i := range series {
		series[i] = spc.Series{Name: fmt.Sprintf("%s_%d", prefix, i+1), Values: g.Generate()}
	}
	return series
}

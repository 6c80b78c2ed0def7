package control

import (
	"math"
	"testing"

	"gosigma/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateControlLimits_KnownMeanAndSigma(t *testing.T) {
	series := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	sigma := math.Sqrt(32.0 / 7.0) // sum of squared deviations 32, n-1 = 7

	limits, err := CalculateControlLimits(series, DefaultOptions())
	require.NoError(t, err)

	assert.InEpsilon(t, 5.0, limits.Mean, 1e-9)
	assert.InEpsilon(t, sigma, limits.Sigma, 1e-9)
	assert.InEpsilon(t, 5.0+3*sigma, limits.UCL, 1e-9)
	assert.InEpsilon(t, 5.0-3*sigma, limits.LCL, 1e-9)
	assert.Equal(t, 3.0, limits.SigmaLevel)
	assert.Equal(t, len(series), limits.SampleSize)
	assert.Empty(t, limits.Violations)
}

func TestCalculateControlLimits_CustomSigmaLevel(t *testing.T) {
	series := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	limits, err := CalculateControlLimits(series, Options{SigmaLevel: 1.5})
	require.NoError(t, err)

	assert.InEpsilon(t, limits.Mean+1.5*limits.Sigma, limits.UCL, 1e-9)
	assert.InEpsilon(t, limits.Mean-1.5*limits.Sigma, limits.LCL, 1e-9)
	// 9 lies 1.87 sigma above the mean
	assert.Equal(t, []int{7}, limits.Violations)
	assert.Empty(t, limits.RuleViolations, "rules are off when CheckRules is false")
}

func TestCalculateControlLimits_ZeroSigmaLevelMeansDefault(t *testing.T) {
	limits, err := CalculateControlLimits([]float64{1, 2, 3}, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultSigmaLevel, limits.SigmaLevel)
}

func TestCalculateControlLimits_Errors(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		opts   Options
		check  func(error) bool
	}{
		{"empty", nil, DefaultOptions(), core.IsInsufficientData},
		{"single point", []float64{4.2}, DefaultOptions(), core.IsInsufficientData},
		{"all equal", []float64{3, 3, 3, 3, 3}, DefaultOptions(), core.IsNumericDegenerate},
		{"negative sigma level", []float64{1, 2, 3}, Options{SigmaLevel: -1}, core.IsInvalidSpecification},
		{"nan sample", []float64{1, math.NaN(), 3}, DefaultOptions(), core.IsInvalidSpecification},
		{"inf sample", []float64{1, math.Inf(1), 3}, DefaultOptions(), core.IsInvalidSpecification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limits, err := CalculateControlLimits(tt.series, tt.opts)
			require.Error(t, err)
			assert.Nil(t, limits)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
		})
	}
}

func TestCalculateControlLimits_ViolationsAscending(t *testing.T) {
	series := []float64{0.1, -0.1, 0.2, -0.2, 0.0, 0.1, -0.1, 0.15, -0.15, 0.05, -0.05, 0.1, -0.1, 0.2, -0.2, 0.0, 0.1, -0.1, 0.15, -0.15, 6.0, 0.05, -0.05}

	limits, err := CalculateControlLimits(series, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []int{20}, limits.Violations)

	var beyond int
	for _, v := range limits.RuleViolations {
		if v.Rule == "beyond_limits" {
			beyond++
			assert.Equal(t, []int{20}, v.Indices)
		}
	}
	assert.Equal(t, 1, beyond)
	assert.False(t, limits.InControl())
}

func TestCalculateControlLimits_Idempotent(t *testing.T) {
	series := []float64{0.3, -0.8, 0.6, -0.2, 0.9, -0.7, -1.0, -0.5, 0.0, 0.4, 0.9, 1.3, -0.4, 0.7}
	snapshot := append([]float64(nil), series...)

	first, err := CalculateControlLimits(series, DefaultOptions())
	require.NoError(t, err)
	second, err := CalculateControlLimits(series, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, series, "input series must not be mutated")
}

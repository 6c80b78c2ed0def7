package testkit

import (
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessGeneratorDeterministic(t *testing.T) {
	a := NewProcessGenerator(DefaultProcessConfig()).Generate()
	b := NewProcessGenerator(DefaultProcessConfig()).Generate()
	assert.Equal(t, a, b)
	assert.Len(t, a, 100)

	mean, err := stats.Mean(a)
	require.NoError(t, err)
	assert.InDelta(t, 10, mean, 0.25)
}

func TestProcessGeneratorDisturbances(t *testing.T) {
	cfg := DefaultProcessConfig()
	cfg.ShiftAt = 50
	cfg.ShiftSize = 4
	cfg.Outliers = []int{10, 500}

	series := NewProcessGenerator(cfg).Generate()
	assert.Equal(t, 10+6*0.5, series[10])

	before, err := stats.Mean(series[11:50])
	require.NoError(t, err)
	after, err := stats.Mean(series[50:])
	require.NoError(t, err)
	assert.InDelta(t, 2, after-before, 0.5)
}

func TestGenerateSeriesNames(t *testing.T) {
	series := NewProcessGenerator(DefaultProcessConfig()).GenerateSeries("line", 3)
	require.Len(t, series, 3)
	assert.Equal(t, "line_3", series[2].Name)
	assert.NotEqual(t, series[0].Values, series[1].Values)
}

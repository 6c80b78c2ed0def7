package doe

import (
	"math"
	"testing"

	"gosigma/domain/core"
	"gosigma/domain/doe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// y = 3*X1 - 2*X2 over the 2^2 design in standard order
var (
	linearRuns     = [][]float64{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	linearResponse = []float64{-1, 5, -5, 1}
	linearNames    = []string{"X1", "X2"}
)

// y = 10 + 2*X1 + X1*X2*X3 over the 2^3 design; the three-way term lands in error
func noisyDesign(t *testing.T) ([][]float64, []float64, []string) {
	t.Helper()
	d, err := TwoLevel(3)
	require.NoError(t, err)
	response := make([]float64, d.RunCount())
	for r, run := range d.Runs {
		response[r] = 10 + 2*run[0] + run[0]*run[1]*run[2]
	}
	return d.Runs, response, d.Factors
}

func TestMainEffectsLinear(t *testing.T) {
	effects, err := MainEffects(linearRuns, linearResponse, linearNames)
	require.NoError(t, err)
	require.Len(t, effects, 2)

	assert.Equal(t, "X1", effects[0].Factor)
	assert.InDelta(t, 6, effects[0].Effect, 1e-12)
	assert.InDelta(t, -4, effects[1].Effect, 1e-12)
	assert.InDelta(t, 60, effects[0].PercentContribution, 1e-9)
	assert.InDelta(t, 40, effects[1].PercentContribution, 1e-9)
	assert.True(t, effects[0].IsSignificant)
	assert.True(t, effects[1].IsSignificant)
}

func TestInteractionsLinear(t *testing.T) {
	inters, err := Interactions(linearRuns, linearResponse, linearNames)
	require.NoError(t, err)
	require.Len(t, inters, 1)
	assert.Equal(t, "X1×X2", inters[0].Name())
	assert.InDelta(t, 0, inters[0].Effect, 1e-12)
	assert.False(t, inters[0].IsSignificant)
	assert.Zero(t, inters[0].PercentContribution)
}

func TestInteractionDetected(t *testing.T) {
	response := []float64{1, -1, -1, 1} // y = X1*X2
	inters, err := Interactions(linearRuns, response, linearNames)
	require.NoError(t, err)
	assert.InDelta(t, 2, inters[0].Effect, 1e-12)
	assert.InDelta(t, 100, inters[0].PercentContribution, 1e-9)

	effects, err := MainEffects(linearRuns, response, linearNames)
	require.NoError(t, err)
	assert.InDelta(t, 0, effects[0].Effect, 1e-12)
	assert.InDelta(t, 0, effects[1].Effect, 1e-12)
}

func TestCenterPointsExcluded(t *testing.T) {
	runs := append(append([][]float64{}, linearRuns...), []float64{0, 0})
	response := append(append([]float64{}, linearResponse...), 100)
	effects, err := MainEffects(runs, response, linearNames)
	require.NoError(t, err)
	assert.InDelta(t, 6, effects[0].Effect, 1e-12)
	assert.InDelta(t, -4, effects[1].Effect, 1e-12)
}

func TestANOVALinear(t *testing.T) {
	table, err := ANOVA(linearRuns, linearResponse, linearNames, doe.PValueLegacy)
	require.NoError(t, err)

	require.Len(t, table.Rows, 5)
	assert.Equal(t, []string{"X1", "X2", "X1×X2", "Error", "Total"}, sources(table))
	assert.InDelta(t, 36, table.Rows[0].SumOfSquares, 1e-9)
	assert.InDelta(t, 16, table.Rows[1].SumOfSquares, 1e-9)
	assert.InDelta(t, 0, table.Rows[2].SumOfSquares, 1e-9)
	assert.InDelta(t, 52, table.TotalSumSquares, 1e-9)
	assert.InDelta(t, 0, table.ErrorSumSquares, 1e-9)
	assert.Equal(t, 0, table.Rows[3].DegreesOfFreedom)
	assert.Equal(t, 3, table.Rows[4].DegreesOfFreedom)
	assert.InDelta(t, 1, table.RSquared, 1e-12)
	assert.InDelta(t, 1, table.AdjustedRSquared, 1e-12)

	// F = 36 / (52/3) stays below the legacy threshold of 4
	assert.InDelta(t, 36/(52.0/3), table.Rows[0].FValue, 1e-9)
	assert.Equal(t, 0.1, table.Rows[0].PValue)
	assert.False(t, table.Rows[0].IsSignificant)
}

func TestANOVAPValueModes(t *testing.T) {
	runs, response, names := noisyDesign(t)

	legacy, err := ANOVA(runs, response, names, doe.PValueLegacy)
	require.NoError(t, err)
	assert.InDelta(t, 40, legacy.TotalSumSquares, 1e-9)
	assert.InDelta(t, 32, legacy.ModelSumSquares, 1e-9)
	assert.InDelta(t, 8, legacy.ErrorSumSquares, 1e-9)
	assert.InDelta(t, 0.8, legacy.RSquared, 1e-12)
	assert.InDelta(t, -0.4, legacy.AdjustedRSquared, 1e-12)
	// F = 32 / (40/7) = 5.6
	assert.InDelta(t, 5.6, legacy.Rows[0].FValue, 1e-9)
	assert.Equal(t, 0.05, legacy.Rows[0].PValue)
	assert.True(t, legacy.Rows[0].IsSignificant)

	exact, err := ANOVA(runs, response, names, doe.PValueExact)
	require.NoError(t, err)
	assert.Equal(t, doe.PValueExact, exact.Mode)
	// F = 32 / (8/1); F(1,1) upper tail at 4 is 1 - 2/pi*atan(2)
	assert.InDelta(t, 4, exact.Rows[0].FValue, 1e-9)
	assert.InDelta(t, 1-2/math.Pi*math.Atan(2), exact.Rows[0].PValue, 1e-6)
	assert.False(t, exact.Rows[0].IsSignificant)
	assert.Equal(t, 1, exact.Rows[6].DegreesOfFreedom)
	assert.InDelta(t, 8, exact.Rows[6].MeanSquare, 1e-9)
}

func TestANOVAErrors(t *testing.T) {
	_, err := ANOVA(linearRuns, []float64{2, 2, 2, 2}, linearNames, doe.PValueLegacy)
	assert.True(t, core.IsNumericDegenerate(err))

	_, err = ANOVA(linearRuns, linearResponse[:3], linearNames, doe.PValueLegacy)
	assert.True(t, core.IsDesignMismatch(err))

	_, err = ANOVA(linearRuns, linearResponse, linearNames, doe.PValueMode("bayes"))
	assert.True(t, core.IsInvalidSpecification(err))
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name     string
		runs     [][]float64
		response []float64
		names    []string
		check    func(error) bool
	}{
		{"response length", linearRuns, []float64{1, 2}, linearNames, core.IsDesignMismatch},
		{"row width", [][]float64{{1}, {-1}}, []float64{1, 2}, linearNames, core.IsDesignMismatch},
		{"no names", linearRuns, linearResponse, nil, core.IsDesignMismatch},
		{"single run", [][]float64{{1, 1}}, []float64{1}, linearNames, core.IsInsufficientData},
		{"nan response", linearRuns, []float64{1, math.NaN(), 2, 3}, linearNames, core.IsInvalidSpecification},
		{"nan level", [][]float64{{-1, -1}, {1, -1}, {-1, math.NaN()}, {1, 1}}, linearResponse, linearNames, core.IsInvalidSpecification},
		{"inf level", [][]float64{{-1, -1}, {math.Inf(1), -1}, {-1, 1}, {1, 1}}, linearResponse, linearNames, core.IsInvalidSpecification},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MainEffects(tt.runs, tt.response, tt.names)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestModelPredictAndResiduals(t *testing.T) {
	effects, err := MainEffects(linearRuns, linearResponse, linearNames)
	require.NoError(t, err)
	inters, err := Interactions(linearRuns, linearResponse, linearNames)
	require.NoError(t, err)
	model, err := NewModel(0, effects, inters)
	require.NoError(t, err)

	pred, err := model.PredictAll(linearRuns)
	require.NoError(t, err)
	for i := range pred {
		assert.InDelta(t, linearResponse[i], pred[i], 1e-12)
	}

	res, err := model.Residuals(linearRuns, linearResponse)
	require.NoError(t, err)
	for _, r := range res {
		assert.InDelta(t, 0, r, 1e-12)
	}

	_, err = model.Predict([]float64{1})
	assert.True(t, core.IsDesignMismatch(err))

	_, err = NewModel(0, effects, []doe.Interaction{{FactorA: "X1", FactorB: "Q"}})
	assert.True(t, core.IsDesignMismatch(err))
}

func TestOptimize(t *testing.T) {
	effects, err := MainEffects(linearRuns, linearResponse, linearNames)
	require.NoError(t, err)
	inters, err := Interactions(linearRuns, linearResponse, linearNames)
	require.NoError(t, err)
	model, err := NewModel(0, effects, inters)
	require.NoError(t, err)

	target := func(v float64) *float64 { return &v }
	tests := []struct {
		name   string
		resp   doe.Response
		levels []float64
		want   float64
	}{
		{"maximize", doe.Response{Direction: doe.Maximize}, []float64{1, -1}, 5},
		{"minimize", doe.Response{Direction: doe.Minimize}, []float64{-1, 1}, -5},
		{"target hit", doe.Response{Direction: doe.Target, Target: target(1)}, []float64{1, 1}, 1},
		{"target tie keeps first corner", doe.Response{Direction: doe.Target, Target: target(0)}, []float64{-1, -1}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, optimum, err := model.Optimize(tt.resp)
			require.NoError(t, err)
			require.Len(t, settings, 2)
			assert.Equal(t, "X1", settings[0].Factor)
			assert.Equal(t, tt.levels, []float64{settings[0].Level, settings[1].Level})
			assert.InDelta(t, tt.want, optimum, 1e-12)
		})
	}

	_, _, err = model.Optimize(doe.Response{Direction: doe.Target})
	assert.True(t, core.IsInvalidSpecification(err))

	_, _, err = model.Optimize(doe.Response{Direction: "sideways"})
	assert.True(t, core.IsInvalidSpecification(err))
}

func TestAnalyzePipeline(t *testing.T) {
	resp := doe.Response{Name: "yield", Direction: doe.Maximize}
	a, err := Analyze(linearRuns, linearResponse, linearNames, resp, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, resp, a.Response)
	assert.Equal(t, 4, a.RunCount)
	assert.InDelta(t, 0, a.GrandMean, 1e-12)
	assert.Len(t, a.MainEffects, 2)
	assert.Len(t, a.Interactions, 1)
	assert.Equal(t, doe.PValueLegacy, a.ANOVA.Mode)
	assert.Equal(t, []doe.Setting{{Factor: "X1", Level: 1}, {Factor: "X2", Level: -1}}, a.OptimalSettings)
	assert.InDelta(t, 5, a.PredictedOptimum, 1e-12)
	for i := range a.Residuals {
		assert.InDelta(t, 0, a.Residuals[i], 1e-12)
		assert.InDelta(t, linearResponse[i], a.Predicted[i], 1e-12)
	}

	again, err := Analyze(linearRuns, linearResponse, linearNames, resp, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestAnalyzeDesignUncoded(t *testing.T) {
	design, err := FullFactorial([]doe.Factor{
		{Name: "Temp", Levels: 2, Low: 150, High: 200},
		{Name: "Time", Levels: 2, Low: 10, High: 30},
	})
	require.NoError(t, err)

	a, err := AnalyzeDesign(design, linearResponse, doe.Response{Name: "y", Direction: doe.Minimize}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Temp", a.MainEffects[0].Factor)
	assert.InDelta(t, 6, a.MainEffects[0].Effect, 1e-12)
	assert.InDelta(t, -4, a.MainEffects[1].Effect, 1e-12)
	assert.InDelta(t, -5, a.PredictedOptimum, 1e-12)

	_, err = AnalyzeDesign(nil, linearResponse, doe.Response{}, DefaultOptions())
	assert.True(t, core.IsDesignMismatch(err))
}

func sources(table *doe.ANOVATable) []string {
	out := make([]string, len(table.Rows))
	for i, r := range table.Rows {
		out[i] = r.Source
	}
	return out
}

func TestAnalyzeRejectsNonFiniteLevels(t *testing.T) {
	runs := [][]float64{{-1, -1}, {1, -1}, {-1, math.NaN()}, {1, 1}}
	response := []float64{1, 2, 3, 5}

	a, err := Analyze(runs, response, linearNames, doe.Response{Name: "y"}, DefaultOptions())
	assert.Nil(t, a)
	assert.True(t, core.IsInvalidSpecification(err), "unexpected error: %v", err)

	design := &doe.DesignMatrix{
		Factors: []string{"Temp", "Time"},
		Runs:    [][]float64{{150, 10}, {200, 10}, {150, math.Inf(1)}, {200, 30}},
	}
	a, err = AnalyzeDesign(design, response, doe.Response{Name: "y"}, DefaultOptions())
	assert.Nil(t, a)
	assert.True(t, core.IsInvalidSpecification(err), "unexpected error: %v", err)
}

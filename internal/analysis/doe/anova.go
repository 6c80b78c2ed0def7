package doe

import (
	"math"

	"gosigma/domain/core"
	"gosigma/domain/doe"

	"gonum.org/v1/gonum/stat/distuv"
)

// Legacy p-value proxy: F above legacyFThreshold reads as p = 0.05, anything else as 0.1.
const (
	legacyFThreshold     = 4.0
	legacySignificant    = 0.05
	legacyNotSignificant = 0.1
	alpha                = 0.05
)

// ANOVA decomposes the response variability of a balanced two-level design into one
// degree-of-freedom terms for every main effect and two-factor interaction.
func ANOVA(runs [][]float64, response []float64, names []string, mode doe.PValueMode) (*doe.ANOVATable, error) {
	if err := validate(runs, response, names); err != nil {
		return nil, err
	}
	return buildANOVA(response, mainEffects(runs, response, names), interactions(runs, response, names), mode)
}

func buildANOVA(response []float64, effects []doe.Effect, inters []doe.Interaction, mode doe.PValueMode) (*doe.ANOVATable, error) {
	if mode == "" {
		mode = doe.PValueLegacy
	}
	if mode != doe.PValueLegacy && mode != doe.PValueExact {
		return nil, core.NewInvalidSpecificationError("unknown p-value mode " + string(mode))
	}

	n := len(response)
	grand := mean(response)
	total := 0.0
	for _, y := range response {
		total += (y - grand) * (y - grand)
	}
	if total == 0 {
		return nil, core.NewDegenerateError("response has zero variance")
	}

	type term struct {
		source string
		ss     float64
	}
	terms := make([]term, 0, len(effects)+len(inters))
	for _, e := range effects {
		terms = append(terms, term{e.Factor, termSumSquares(e.Effect, n)})
	}
	for _, in := range inters {
		terms = append(terms, term{in.Name(), termSumSquares(in.Effect, n)})
	}

	model := 0.0
	for _, t := range terms {
		model += t.ss
	}
	errSS := math.Max(0, total-model)
	errDF := n - 1 - len(terms)
	if errDF < 0 {
		errDF = 0
	}

	// Legacy F divides by the total mean square; exact mode prefers the error mean square.
	denom, df2 := total/float64(n-1), float64(n-1)
	if mode == doe.PValueExact && errDF > 0 && errSS > 0 {
		denom, df2 = errSS/float64(errDF), float64(errDF)
	}

	table := &doe.ANOVATable{
		Mode:            mode,
		Rows:            make([]doe.ANOVARow, 0, len(terms)+2),
		TotalSumSquares: total,
		ModelSumSquares: model,
		ErrorSumSquares: errSS,
	}
	for _, t := range terms {
		f := t.ss / denom
		p := pValue(mode, f, df2)
		table.Rows = append(table.Rows, doe.ANOVARow{
			Source:           t.source,
			DegreesOfFreedom: 1,
			SumOfSquares:     t.ss,
			MeanSquare:       t.ss,
			FValue:           f,
			PValue:           p,
			IsSignificant:    p <= alpha,
		})
	}

	errMS := 0.0
	if errDF > 0 {
		errMS = errSS / float64(errDF)
	}
	table.Rows = append(table.Rows,
		doe.ANOVARow{Source: "Error", DegreesOfFreedom: errDF, SumOfSquares: errSS, MeanSquare: errMS},
		doe.ANOVARow{Source: "Total", DegreesOfFreedom: n - 1, SumOfSquares: total},
	)

	table.RSquared = math.Min(1, model/total)
	table.AdjustedRSquared = table.RSquared
	if resid := n - len(terms) - 1; resid > 0 {
		table.AdjustedRSquared = 1 - (1-table.RSquared)*float64(n-1)/float64(resid)
	}
	return table, nil
}

// termSumSquares is the one degree-of-freedom sum of squares effect^2 * n / 4
func termSumSquares(effect float64, n int) float64 {
	return effect * effect * float64(n) / 4
}

func pValue(mode doe.PValueMode, f, df2 float64) float64 {
	if mode == doe.PValueExact {
		return fTestPValue(f, 1, df2)
	}
	if f > legacyFThreshold {
		return legacySignificant
	}
	return legacyNotSignificant
}

// fTestPValue computes the upper-tail probability of the F-distribution
func fTestPValue(fStatistic, df1, df2 float64) float64 {
	if df1 <= 0 || df2 <= 0 || math.IsNaN(fStatistic) {
		return 1.0
	}
	if math.IsInf(fStatistic, 1) {
		return 0
	}
	fDist := distuv.F{D1: df1, D2: df2}
	return 1 - fDist.CDF(fStatistic)
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

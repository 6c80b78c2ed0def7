// Package doe generates factorial experiment designs and analyzes their responses:
// main effects, two-factor interactions, an ANOVA decomposition, optimal settings,
// predictions and residuals.
package doe

import (
	"fmt"

	"gosigma/domain/core"
	"gosigma/domain/doe"
)

const (
	// MaxTwoLevelFactors bounds 2^k designs to 65536 runs
	MaxTwoLevelFactors = 16
	// MaxFullFactorialRuns bounds mixed-level designs
	MaxFullFactorialRuns = 1 << 16
)

// plackettBurman8 is the 8-run screening table for seven factors, generated by cycling
// + + + - + - - and closing with an all-minus run.
var plackettBurman8 = [][]float64{
	{+1, +1, +1, -1, +1, -1, -1},
	{-1, +1, +1, +1, -1, +1, -1},
	{-1, -1, +1, +1, +1, -1, +1},
	{+1, -1, -1, +1, +1, +1, -1},
	{-1, +1, -1, -1, +1, +1, +1},
	{+1, -1, +1, -1, -1, +1, +1},
	{+1, +1, -1, +1, -1, -1, +1},
	{-1, -1, -1, -1, -1, -1, -1},
}

// FullFactorial enumerates every level combination of factors in engineering units.
// The first factor varies fastest. Level index i of a factor with L levels maps to
// low + i*(high-low)/(L-1); a single-level factor stays at low.
func FullFactorial(factors []doe.Factor) (*doe.DesignMatrix, error) {
	if len(factors) == 0 {
		return nil, core.NewInvalidSpecificationError("at least one factor is required")
	}

	runs := 1
	for _, f := range factors {
		if f.Levels < 1 {
			return nil, core.NewInvalidSpecificationError(fmt.Sprintf("factor %q must have at least one level", f.Name))
		}
		if f.Levels > MaxFullFactorialRuns/runs {
			return nil, core.NewInvalidSpecificationError(fmt.Sprintf("design exceeds %d runs", MaxFullFactorialRuns))
		}
		runs *= f.Levels
	}

	matrix := make([][]float64, runs)
	for r := range matrix {
		row := make([]float64, len(factors))
		rem := r
		for j, f := range factors {
			idx := rem % f.Levels
			rem /= f.Levels
			row[j] = levelValue(f, idx)
		}
		matrix[r] = row
	}

	return &doe.DesignMatrix{
		Type:       doe.DesignFullFactorial,
		Factors:    factorNames(factors),
		Runs:       matrix,
		Coded:      false,
		Resolution: Resolution(runs, len(factors)),
	}, nil
}

// TwoLevel builds the coded 2^k design; bit i of the run number selects +1 for factor i.
func TwoLevel(k int) (*doe.DesignMatrix, error) {
	if k < 1 || k > MaxTwoLevelFactors {
		return nil, core.NewInvalidSpecificationError(fmt.Sprintf("two-level designs support 1 to %d factors, got %d", MaxTwoLevelFactors, k))
	}
	runs := 1 << k
	matrix := make([][]float64, runs)
	for r := range matrix {
		row := make([]float64, k)
		for i := 0; i < k; i++ {
			if r&(1<<i) != 0 {
				row[i] = 1
			} else {
				row[i] = -1
			}
		}
		matrix[r] = row
	}
	return &doe.DesignMatrix{
		Type:       doe.DesignTwoLevel,
		Factors:    defaultNames(k),
		Runs:       matrix,
		Coded:      true,
		Resolution: Resolution(runs, k),
	}, nil
}

// HalfFraction builds the 2^(k-1) design: a full two-level design over k-1 factors plus a
// k-th column equal to the product of all others (generator K = AB...).
func HalfFraction(k int) (*doe.DesignMatrix, error) {
	if k < 2 || k > MaxTwoLevelFactors+1 {
		return nil, core.NewInvalidSpecificationError(fmt.Sprintf("half fractions support 2 to %d factors, got %d", MaxTwoLevelFactors+1, k))
	}
	base, err := TwoLevel(k - 1)
	if err != nil {
		return nil, err
	}
	for r, row := range base.Runs {
		product := 1.0
		for _, v := range row {
			product *= v
		}
		base.Runs[r] = append(row, product)
	}
	base.Type = doe.DesignHalfFraction
	base.Factors = defaultNames(k)
	base.Resolution = Resolution(len(base.Runs), k)
	return base, nil
}

// PlackettBurman returns the 8-run screening table for seven factors. Any other factor
// count falls back to the full two-level design.
func PlackettBurman(k int) (*doe.DesignMatrix, error) {
	if k != 7 {
		return TwoLevel(k)
	}
	matrix := make([][]float64, len(plackettBurman8))
	for r, row := range plackettBurman8 {
		matrix[r] = append([]float64(nil), row...)
	}
	return &doe.DesignMatrix{
		Type:       doe.DesignPlackettBurman,
		Factors:    defaultNames(k),
		Runs:       matrix,
		Coded:      true,
		Resolution: "III",
	}, nil
}

// Resolution is a run-count heuristic: V when the design has at least 2^k runs, IV with
// at least 2^(k-1), otherwise III.
func Resolution(runs, k int) string {
	switch {
	case k < 1:
		return ""
	case k >= 62:
		return "III"
	case runs >= 1<<k:
		return "V"
	case runs >= 1<<(k-1):
		return "IV"
	default:
		return "III"
	}
}

// Code converts an engineering-unit design to -1/+1 units using each factor's low/high.
func Code(design *doe.DesignMatrix, factors []doe.Factor) (*doe.DesignMatrix, error) {
	if design == nil {
		return nil, core.NewDesignMismatchError("design is nil")
	}
	if design.Coded {
		return design, nil
	}
	if len(factors) != len(design.Factors) {
		return nil, core.NewDesignMismatchError("%d factors for a %d-column design", len(factors), len(design.Factors))
	}
	for _, f := range factors {
		if f.High == f.Low {
			return nil, core.NewInvalidSpecificationError(fmt.Sprintf("factor %q has equal low and high values", f.Name))
		}
	}

	coded := make([][]float64, len(design.Runs))
	for r, row := range design.Runs {
		if len(row) != len(factors) {
			return nil, core.NewDesignMismatchError("run %d has %d values, expected %d", r+1, len(row), len(factors))
		}
		out := make([]float64, len(row))
		for j, v := range row {
			f := factors[j]
			out[j] = (2*v - (f.High + f.Low)) / (f.High - f.Low)
		}
		coded[r] = out
	}

	return &doe.DesignMatrix{
		Type:       design.Type,
		Factors:    append([]string(nil), design.Factors...),
		Runs:       coded,
		Coded:      true,
		Resolution: design.Resolution,
	}, nil
}

func levelValue(f doe.Factor, idx int) float64 {
	if f.Levels == 1 {
		return f.Low
	}
	return f.Low + float64(idx)*(f.High-f.Low)/float64(f.Levels-1)
}

func factorNames(factors []doe.Factor) []string {
	names := make([]string, len(factors))
	for i, f := range factors {
		names[i] = f.Name
	}
	return names
}

// defaultNames labels coded columns X1..Xk
func defaultNames(k int) []string {
	names := make([]string, k)
	for i := range names {
		names[i] = fmt.Sprintf("X%d", i+1)
	}
	return names
}

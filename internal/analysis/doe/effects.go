package doe

import (
	"fmt"
	"math"

	"gosigma/domain/core"
	"gosigma/domain/doe"
)

// SignificanceThreshold is the absolute effect size above which a term is flagged
const SignificanceThreshold = 0.1

// MainEffects computes, per column, mean(response | x > 0) - mean(response | x < 0).
// Runs at a zero (center) level are excluded from both groups.
func MainEffects(runs [][]float64, response []float64, names []string) ([]doe.Effect, error) {
	if err := validate(runs, response, names); err != nil {
		return nil, err
	}
	return mainEffects(runs, response, names), nil
}

// Interactions computes every two-factor interaction for columns i < j as
// ((m++ - m+-) - (m-+ - m--)) / 2 where the signs refer to columns i and j.
func Interactions(runs [][]float64, response []float64, names []string) ([]doe.Interaction, error) {
	if err := validate(runs, response, names); err != nil {
		return nil, err
	}
	return interactions(runs, response, names), nil
}

func mainEffects(runs [][]float64, response []float64, names []string) []doe.Effect {
	effects := make([]doe.Effect, len(names))
	magnitudes := make([]float64, len(names))
	for j, name := range names {
		var high, low meanAcc
		for r, row := range runs {
			switch {
			case row[j] > 0:
				high.add(response[r])
			case row[j] < 0:
				low.add(response[r])
			}
		}
		e := 0.0
		if high.n > 0 && low.n > 0 {
			e = high.mean() - low.mean()
		}
		effects[j] = doe.Effect{Factor: name, Effect: e, IsSignificant: math.Abs(e) > SignificanceThreshold}
		magnitudes[j] = e
	}
	for j, pct := range contributions(magnitudes) {
		effects[j].PercentContribution = pct
	}
	return effects
}

func interactions(runs [][]float64, response []float64, names []string) []doe.Interaction {
	var out []doe.Interaction
	var magnitudes []float64
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			// cells indexed [sign i][sign j] with 0 = low, 1 = high
			var cells [2][2]meanAcc
			for r, row := range runs {
				a, okA := signIndex(row[i])
				b, okB := signIndex(row[j])
				if okA && okB {
					cells[a][b].add(response[r])
				}
			}
			e := ((cells[1][1].mean() - cells[1][0].mean()) - (cells[0][1].mean() - cells[0][0].mean())) / 2
			out = append(out, doe.Interaction{
				FactorA:       names[i],
				FactorB:       names[j],
				Effect:        e,
				IsSignificant: math.Abs(e) > SignificanceThreshold,
			})
			magnitudes = append(magnitudes, e)
		}
	}
	for k, pct := range contributions(magnitudes) {
		out[k].PercentContribution = pct
	}
	if out == nil {
		out = []doe.Interaction{}
	}
	return out
}

// contributions expresses each |effect| as a percentage of the summed magnitudes
func contributions(effects []float64) []float64 {
	total := 0.0
	for _, e := range effects {
		total += math.Abs(e)
	}
	pct := make([]float64, len(effects))
	if total == 0 {
		return pct
	}
	for i, e := range effects {
		pct[i] = math.Abs(e) / total * 100
	}
	return pct
}

func signIndex(v float64) (int, bool) {
	switch {
	case v > 0:
		return 1, true
	case v < 0:
		return 0, true
	}
	return 0, false
}

// meanAcc is a running sum; the mean of an empty cell is 0
type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(v float64) {
	m.sum += v
	m.n++
}

func (m meanAcc) mean() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

// validate checks the design, response and names agree in shape and are finite
func validate(runs [][]float64, response []float64, names []string) error {
	if len(runs) != len(response) {
		return core.NewDesignMismatchError("design has %d runs but %d responses were supplied", len(runs), len(response))
	}
	if len(names) == 0 {
		return core.NewDesignMismatchError("no factor names supplied")
	}
	for r, row := range runs {
		if len(row) != len(names) {
			return core.NewDesignMismatchError("run %d has %d values for %d factors", r+1, len(row), len(names))
		}
		if err := finiteRun(r, row, names); err != nil {
			return err
		}
	}
	if len(response) < 2 {
		return core.NewInsufficientDataError(2, len(response))
	}
	for r, y := range response {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return core.NewInvalidSpecificationError(fmt.Sprintf("response for run %d is not a finite number", r+1))
		}
	}
	return nil
}

func finiteRun(r int, row []float64, names []string) error {
	for j, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.NewInvalidSpecificationError(fmt.Sprintf("run %d: %s is not a finite number", r+1, names[j]))
		}
	}
	return nil
}

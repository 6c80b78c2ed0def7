package doe

import (
	"fmt"
	"math"

	"gosigma/domain/core"
	"gosigma/domain/doe"
)

// MaxCornerSearchFactors bounds the exhaustive target search at 2^16 corners
const MaxCornerSearchFactors = 16

// Model is the first-order model with two-factor interactions implied by a set of effects:
//
//	y = grand + sum(effect_i/2 * x_i) + sum(effect_ij/2 * x_i * x_j)
type Model struct {
	Factors      []string
	GrandMean    float64
	Main         []float64
	Interactions []doe.Interaction
	pairs        [][2]int
}

// NewModel builds a Model from main effects and interactions computed over the same factors
func NewModel(grandMean float64, effects []doe.Effect, inters []doe.Interaction) (*Model, error) {
	m := &Model{
		GrandMean:    grandMean,
		Factors:      make([]string, len(effects)),
		Main:         make([]float64, len(effects)),
		Interactions: inters,
		pairs:        make([][2]int, len(inters)),
	}
	index := make(map[string]int, len(effects))
	for i, e := range effects {
		m.Factors[i] = e.Factor
		m.Main[i] = e.Effect
		index[e.Factor] = i
	}
	for k, in := range inters {
		a, okA := index[in.FactorA]
		b, okB := index[in.FactorB]
		if !okA || !okB {
			return nil, core.NewDesignMismatchError("interaction %s references an unknown factor", in.Name())
		}
		m.pairs[k] = [2]int{a, b}
	}
	return m, nil
}

// Predict evaluates the model at one run of coded levels
func (m *Model) Predict(run []float64) (float64, error) {
	if len(run) != len(m.Main) {
		return 0, core.NewDesignMismatchError("run has %d values for %d factors", len(run), len(m.Main))
	}
	return m.predict(run), nil
}

func (m *Model) predict(run []float64) float64 {
	y := m.GrandMean
	for i, e := range m.Main {
		y += e / 2 * run[i]
	}
	for k, in := range m.Interactions {
		p := m.pairs[k]
		y += in.Effect / 2 * run[p[0]] * run[p[1]]
	}
	return y
}

// PredictAll evaluates the model for every run of a design
func (m *Model) PredictAll(runs [][]float64) ([]float64, error) {
	out := make([]float64, len(runs))
	for r, run := range runs {
		y, err := m.Predict(run)
		if err != nil {
			return nil, err
		}
		out[r] = y
	}
	return out, nil
}

// Residuals returns observed minus predicted for every run
func (m *Model) Residuals(runs [][]float64, response []float64) ([]float64, error) {
	if len(runs) != len(response) {
		return nil, core.NewDesignMismatchError("design has %d runs but %d responses were supplied", len(runs), len(response))
	}
	pred, err := m.PredictAll(runs)
	if err != nil {
		return nil, err
	}
	res := make([]float64, len(pred))
	for i := range pred {
		res[i] = response[i] - pred[i]
	}
	return res, nil
}

// Optimize picks coded ±1 settings for every factor according to the response direction.
// Maximize and minimize follow the sign of each main effect. Target searches every corner
// of the design space for the prediction closest to the target; ties keep the earliest
// corner in standard order.
func (m *Model) Optimize(resp doe.Response) ([]doe.Setting, float64, error) {
	levels := make([]float64, len(m.Main))
	switch resp.Direction {
	case doe.Maximize, "":
		for i, e := range m.Main {
			levels[i] = signedLevel(e > 0)
		}
	case doe.Minimize:
		for i, e := range m.Main {
			levels[i] = signedLevel(e <= 0)
		}
	case doe.Target:
		if resp.Target == nil {
			return nil, 0, core.NewInvalidSpecificationError("target direction requires a target value")
		}
		best, err := m.closestCorner(*resp.Target)
		if err != nil {
			return nil, 0, err
		}
		levels = best
	default:
		return nil, 0, core.NewInvalidSpecificationError(fmt.Sprintf("unknown optimization direction %q", resp.Direction))
	}

	settings := make([]doe.Setting, len(levels))
	for i, lv := range levels {
		settings[i] = doe.Setting{Factor: m.Factors[i], Level: lv}
	}
	return settings, m.predict(levels), nil
}

func (m *Model) closestCorner(target float64) ([]float64, error) {
	k := len(m.Main)
	if k > MaxCornerSearchFactors {
		return nil, core.NewInvalidSpecificationError(fmt.Sprintf("target search supports at most %d factors, got %d", MaxCornerSearchFactors, k))
	}
	run := make([]float64, k)
	best := make([]float64, k)
	bestDist := math.Inf(1)
	for r := 0; r < 1<<k; r++ {
		for i := range run {
			run[i] = signedLevel(r&(1<<i) != 0)
		}
		if d := math.Abs(m.predict(run) - target); d < bestDist {
			bestDist = d
			copy(best, run)
		}
	}
	return best, nil
}

func signedLevel(high bool) float64 {
	if high {
		return 1
	}
	return -1
}

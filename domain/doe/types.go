package doe

// Factor is one controllable input of an experiment
type Factor struct {
	Name   string  `json:"name"`
	Symbol string  `json:"symbol,omitempty"`
	Levels int     `json:"levels"`
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
}

// Direction states how a response should be optimized
type Direction string

const (
	Maximize Direction = "maximize"
	Minimize Direction = "minimize"
	Target   Direction = "target"
)

// Response describes the measured outcome
type Response struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Target    *float64  `json:"target,omitempty"`
}

// DesignType names the generator that produced a matrix
type DesignType string

const (
	DesignFullFactorial  DesignType = "full_factorial"
	DesignTwoLevel       DesignType = "two_level"
	DesignHalfFraction   DesignType = "half_fraction"
	DesignPlackettBurman DesignType = "plackett_burman"
)

// DesignMatrix is an ordered run list; each run holds one value per factor.
// Coded is true when values are in -1/+1 units.
type DesignMatrix struct {
	Type       DesignType  `json:"type"`
	Factors    []string    `json:"factors"`
	Runs       [][]float64 `json:"runs"`
	Coded      bool        `json:"coded"`
	Resolution string      `json:"resolution,omitempty"`
}

// RunCount returns the number of runs
func (d DesignMatrix) RunCount() int {
	return len(d.Runs)
}

// Column copies out the values of factor j across all runs
func (d DesignMatrix) Column(j int) []float64 {
	col := make([]float64, len(d.Runs))
	for i, run := range d.Runs {
		col[i] = run[j]
	}
	return col
}

// Effect is a signed main effect
type Effect struct {
	Factor              string  `json:"factor"`
	Effect              float64 `json:"effect"`
	PercentContribution float64 `json:"percent_contribution"`
	IsSignificant       bool    `json:"is_significant"`
}

// Interaction is a two-factor interaction effect
type Interaction struct {
	FactorA             string  `json:"factor_a"`
	FactorB             string  `json:"factor_b"`
	Effect              float64 `json:"effect"`
	PercentContribution float64 `json:"percent_contribution"`
	IsSignificant       bool    `json:"is_significant"`
}

// Name renders the pair as "A×B"
func (i Interaction) Name() string {
	return i.FactorA + "×" + i.FactorB
}

// PValueMode selects how ANOVA p-values are produced
type PValueMode string

const (
	// PValueLegacy maps F > 4 to 0.05 and everything else to 0.1.
	PValueLegacy PValueMode = "legacy"
	// PValueExact uses the F-distribution survival function.
	PValueExact PValueMode = "exact"
)

// ANOVARow is one source line of the table
type ANOVARow struct {
	Source           string  `json:"source"`
	DegreesOfFreedom int     `json:"df"`
	SumOfSquares     float64 `json:"sum_of_squares"`
	MeanSquare       float64 `json:"mean_square"`
	FValue           float64 `json:"f_value"`
	PValue           float64 `json:"p_value"`
	IsSignificant    bool    `json:"is_significant"`
}

// ANOVATable decomposes response variability into model terms and error
type ANOVATable struct {
	Mode             PValueMode `json:"mode"`
	Rows             []ANOVARow `json:"rows"`
	TotalSumSquares  float64    `json:"total_sum_of_squares"`
	ModelSumSquares  float64    `json:"model_sum_of_squares"`
	ErrorSumSquares  float64    `json:"error_sum_of_squares"`
	RSquared         float64    `json:"r_squared"`
	AdjustedRSquared float64    `json:"adjusted_r_squared"`
}

// Setting is a coded level chosen for one factor
type Setting struct {
	Factor string  `json:"factor"`
	Level  float64 `json:"level"`
}

// Analysis is the aggregate result of the full effects/ANOVA/prediction pipeline
type Analysis struct {
	Response         Response      `json:"response"`
	RunCount         int           `json:"run_count"`
	GrandMean        float64       `json:"grand_mean"`
	MainEffects      []Effect      `json:"main_effects"`
	Interactions     []Interaction `json:"interactions"`
	ANOVA            ANOVATable    `json:"anova"`
	OptimalSettings  []Setting     `json:"optimal_settings"`
	PredictedOptimum float64       `json:"predicted_optimum"`
	Predicted        []float64     `json:"predicted"`
	Residuals        []float64     `json:"residuals"`
}

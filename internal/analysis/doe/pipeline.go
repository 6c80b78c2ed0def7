package doe

import (
	"gosigma/domain/core"
	"gosigma/domain/doe"
)

// Options tune the composed analysis
type Options struct {
	PValueMode doe.PValueMode
}

// DefaultOptions uses the legacy p-value proxy
func DefaultOptions() Options {
	return Options{PValueMode: doe.PValueLegacy}
}

// Analyze runs the full pipeline over a coded design: main effects, interactions, ANOVA,
// optimal settings for the response direction, per-run predictions and residuals.
func Analyze(runs [][]float64, response []float64, names []string, resp doe.Response, opts Options) (*doe.Analysis, error) {
	if err := validate(runs, response, names); err != nil {
		return nil, err
	}

	effects := mainEffects(runs, response, names)
	inters := interactions(runs, response, names)
	table, err := buildANOVA(response, effects, inters, opts.PValueMode)
	if err != nil {
		return nil, err
	}

	grand := mean(response)
	model, err := NewModel(grand, effects, inters)
	if err != nil {
		return nil, err
	}
	settings, optimum, err := model.Optimize(resp)
	if err != nil {
		return nil, err
	}
	predicted := make([]float64, len(runs))
	residuals := make([]float64, len(runs))
	for r, run := range runs {
		predicted[r] = model.predict(run)
		residuals[r] = response[r] - predicted[r]
	}

	return &doe.Analysis{
		Response:         resp,
		RunCount:         len(runs),
		GrandMean:        grand,
		MainEffects:      effects,
		Interactions:     inters,
		ANOVA:            *table,
		OptimalSettings:  settings,
		PredictedOptimum: optimum,
		Predicted:        predicted,
		Residuals:        residuals,
	}, nil
}

// AnalyzeDesign analyzes a generated design matrix. Uncoded designs are first scaled to
// -1/+1 using each column's observed minimum and maximum.
func AnalyzeDesign(design *doe.DesignMatrix, response []float64, resp doe.Response, opts Options) (*doe.Analysis, error) {
	if design == nil {
		return nil, core.NewDesignMismatchError("design is nil")
	}
	runs := design.Runs
	if !design.Coded {
		factors, err := observedRanges(design)
		if err != nil {
			return nil, err
		}
		coded, err := Code(design, factors)
		if err != nil {
			return nil, err
		}
		runs = coded.Runs
	}
	names := design.Factors
	if len(names) == 0 && len(runs) > 0 {
		names = defaultNames(len(runs[0]))
	}
	return Analyze(runs, response, names, resp, opts)
}

func observedRanges(design *doe.DesignMatrix) ([]doe.Factor, error) {
	if len(design.Runs) == 0 {
		return nil, core.NewInsufficientDataError(2, 0)
	}
	for r, run := range design.Runs {
		if len(run) != len(design.Factors) {
			return nil, core.NewDesignMismatchError("run %d has %d values for %d factors", r+1, len(run), len(design.Factors))
		}
		if err := finiteRun(r, run, design.Factors); err != nil {
			return nil, err
		}
	}
	factors := make([]doe.Factor, len(design.Factors))
	for j, name := range design.Factors {
		lo, hi := design.Runs[0][j], design.Runs[0][j]
		for _, run := range design.Runs {
			lo = min(lo, run[j])
			hi = max(hi, run[j])
		}
		factors[j] = doe.Factor{Name: name, Low: lo, High: hi}
	}
	return factors, nil
}

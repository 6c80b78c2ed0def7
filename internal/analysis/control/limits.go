// Package control computes Shewhart control limits for an ordered sample series and scans
// the series for the eight Nelson-style special-cause patterns.
package control

import (
	"fmt"
	"math"

	"gosigma/domain/core"
	"gosigma/domain/spc"

	"github.com/montanaflynn/stats"
)

// DefaultSigmaLevel is the conventional 3-sigma multiplier
const DefaultSigmaLevel = 3.0

// Options controls a limit computation
type Options struct {
	SigmaLevel float64 `json:"sigma_level"`
	CheckRules bool    `json:"check_rules"`
}

// DefaultOptions returns 3-sigma limits with all pattern rules enabled
func DefaultOptions() Options {
	return Options{SigmaLevel: DefaultSigmaLevel, CheckRules: true}
}

// CalculateControlLimits computes mean, sample sigma (n-1), control limits, the basic
// violation set and, when enabled, the special-cause rule violations.
func CalculateControlLimits(series []float64, opts Options) (*spc.ControlLimits, error) {
	level := opts.SigmaLevel
	if level == 0 {
		level = DefaultSigmaLevel
	}
	if level < 0 || math.IsNaN(level) || math.IsInf(level, 0) {
		return nil, core.NewInvalidSpecificationError("sigma level must be a positive number")
	}

	mean, sigma, err := meanAndSigma(series)
	if err != nil {
		return nil, err
	}

	limits := &spc.ControlLimits{
		Mean:           mean,
		Sigma:          sigma,
		SigmaLevel:     level,
		UCL:            mean + level*sigma,
		LCL:            mean - level*sigma,
		SampleSize:     len(series),
		Violations:     outsideLimits(series, mean+level*sigma, mean-level*sigma),
		RuleViolations: []spc.RuleViolation{},
	}

	if opts.CheckRules {
		bounds := Bounds{Mean: mean, Sigma: sigma, UCL: limits.UCL, LCL: limits.LCL}
		for _, rule := range Rules() {
			limits.RuleViolations = append(limits.RuleViolations, rule.Detect(series, bounds)...)
		}
	}

	return limits, nil
}

// meanAndSigma validates the series and returns its mean and Bessel-corrected sigma
func meanAndSigma(series []float64) (float64, float64, error) {
	if len(series) < 2 {
		return 0, 0, core.NewInsufficientDataError(2, len(series))
	}
	for i, x := range series {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, 0, core.NewInvalidSpecificationError(fmt.Sprintf("sample %d is not a finite number", i+1))
		}
	}

	mean, err := stats.Mean(series)
	if err != nil {
		return 0, 0, core.NewInsufficientDataError(2, len(series))
	}
	sigma, err := stats.StandardDeviationSample(series)
	if err != nil {
		return 0, 0, core.NewInsufficientDataError(2, len(series))
	}
	if sigma == 0 || math.IsNaN(sigma) {
		return 0, 0, core.NewDegenerateError("all samples are identical, sigma is zero")
	}
	return mean, sigma, nil
}

// outsideLimits returns the indices strictly beyond either limit. A single forward pass
// yields them unique and ascending.
func outsideLimits(series []float64, ucl, lcl float64) []int {
	indices := []int{}
	for i, x := range series {
		if x > ucl || x < lcl {
			indices = append(indices, i)
		}
	}
	return indices
}

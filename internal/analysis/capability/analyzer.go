// Package capability computes process capability and performance indices, a normal-tail
// defect estimate and histogram bins for a sample series against specification limits.
package capability

import (
	"fmt"
	"math"

	"gosigma/domain/capability"
	"gosigma/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Capability thresholds on Cpk
const (
	CapableCpk    = 1.33
	WorldClassCpk = 2.0
	ExcellentCpk  = 1.67
	MarginalCpk   = 1.0
	PoorCpk       = 0.67
)

// CalculateCapability computes the full capability record for in
func CalculateCapability(in capability.Input) (*capability.Result, error) {
	if err := validateSpec(in.USL, in.LSL); err != nil {
		return nil, err
	}
	summary, err := summarize(in.Series)
	if err != nil {
		return nil, err
	}

	within := summary.stdDev
	if in.SubgroupSize > 1 {
		within, err = pooledWithinSigma(in.Series, in.SubgroupSize)
		if err != nil {
			return nil, err
		}
	}

	target := (in.USL + in.LSL) / 2
	if in.Target != nil {
		target = *in.Target
	}

	r := &capability.Result{
		SampleSize:     len(in.Series),
		Mean:           summary.mean,
		Median:         summary.median,
		StdDev:         summary.stdDev,
		Variance:       summary.variance,
		Range:          summary.max - summary.min,
		Min:            summary.min,
		Max:            summary.max,
		WithinSigma:    within,
		USL:            in.USL,
		LSL:            in.LSL,
		Target:         target,
		TargetDistance: math.Abs(summary.mean - target),
		SpecWidth:      in.USL - in.LSL,
		ProcessWidth:   6 * summary.stdDev,
	}

	r.Cp, r.Cpu, r.Cpl, r.Cpk = indices(summary.mean, within, in.USL, in.LSL)
	r.Pp, r.Ppu, r.Ppl, r.Ppk = indices(summary.mean, summary.stdDev, in.USL, in.LSL)

	r.SigmaLevel = r.Cpk * 3
	r.DPMO = dpmoFromSigmaLevel(r.SigmaLevel)

	for _, x := range in.Series {
		switch {
		case x > in.USL:
			r.AboveUSLCount++
		case x < in.LSL:
			r.BelowLSLCount++
		}
	}
	r.OutOfSpecCount = r.AboveUSLCount + r.BelowLSLCount
	r.OutOfSpecPercent = float64(r.OutOfSpecCount) / float64(len(in.Series)) * 100

	r.IsCapable = r.Cpk >= CapableCpk
	r.Level = Classify(r.Cpk)
	r.Recommendations = Recommendations(r)

	return r, nil
}

// Classify maps Cpk to its capability label
func Classify(cpk float64) capability.Level {
	switch {
	case cpk >= WorldClassCpk:
		return capability.LevelWorldClass
	case cpk >= ExcellentCpk:
		return capability.LevelExcellent
	case cpk >= CapableCpk:
		return capability.LevelCapable
	case cpk >= MarginalCpk:
		return capability.LevelMarginal
	case cpk >= PoorCpk:
		return capability.LevelPoor
	default:
		return capability.LevelInadequate
	}
}

// CalculateDefectProbability estimates the fraction beyond each limit from z-scores,
// independently of the Cpk-derived sigma level.
func CalculateDefectProbability(mean, sigma, usl, lsl float64) (capability.DefectProbability, error) {
	if err := validateSpec(usl, lsl); err != nil {
		return capability.DefectProbability{}, err
	}
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return capability.DefectProbability{}, core.NewInvalidSpecificationError("sigma must be positive")
	}

	zUpper := (usl - mean) / sigma
	zLower := (mean - lsl) / sigma
	above := upperTail(zUpper) * 100
	below := upperTail(zLower) * 100

	return capability.DefectProbability{
		ZUpper:       zUpper,
		ZLower:       zLower,
		AbovePercent: above,
		BelowPercent: below,
		TotalPercent: above + below,
		PPM:          (above + below) * 1e4,
	}, nil
}

// indices returns the potential index and the upper, lower and minimum one-sided indices
func indices(mean, sigma, usl, lsl float64) (potential, upper, lower, actual float64) {
	potential = (usl - lsl) / (6 * sigma)
	upper = (usl - mean) / (3 * sigma)
	lower = (mean - lsl) / (3 * sigma)
	actual = math.Min(upper, lower)
	return
}

type summaryStats struct {
	mean, median, stdDev, variance, min, max float64
}

// summarize validates the series and computes descriptive statistics with an n-1 variance
func summarize(series []float64) (summaryStats, error) {
	if len(series) < 2 {
		return summaryStats{}, core.NewInsufficientDataError(2, len(series))
	}
	for i, x := range series {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return summaryStats{}, core.NewInvalidSpecificationError(fmt.Sprintf("sample %d is not a finite number", i+1))
		}
	}

	var s summaryStats
	var err error
	if s.mean, err = stats.Mean(series); err != nil {
		return summaryStats{}, core.NewInsufficientDataError(2, len(series))
	}
	// Median sorts a copy; the caller's series is left untouched
	if s.median, err = stats.Median(series); err != nil {
		return summaryStats{}, core.NewInsufficientDataError(2, len(series))
	}
	if s.stdDev, err = stats.StandardDeviationSample(series); err != nil {
		return summaryStats{}, core.NewInsufficientDataError(2, len(series))
	}
	if s.variance, err = stats.SampleVariance(series); err != nil {
		return summaryStats{}, core.NewInsufficientDataError(2, len(series))
	}
	s.min, _ = stats.Min(series)
	s.max, _ = stats.Max(series)

	if s.stdDev == 0 {
		return summaryStats{}, core.NewDegenerateError("all samples are identical, capability indices are undefined")
	}
	return s, nil
}

// pooledWithinSigma is the square root of the mean sample variance over consecutive
// complete subgroups. A trailing partial subgroup is ignored.
func pooledWithinSigma(series []float64, size int) (float64, error) {
	groups := len(series) / size
	if groups < 1 {
		return 0, core.NewInsufficientDataError(size, len(series))
	}
	var sum float64
	for g := 0; g < groups; g++ {
		sum += stat.Variance(series[g*size:(g+1)*size], nil)
	}
	sigma := math.Sqrt(sum / float64(groups))
	if sigma == 0 {
		return 0, core.NewDegenerateError("every subgroup has zero spread")
	}
	return sigma, nil
}

func validateSpec(usl, lsl float64) error {
	if math.IsNaN(usl) || math.IsNaN(lsl) || math.IsInf(usl, 0) || math.IsInf(lsl, 0) {
		return core.NewInvalidSpecificationError("specification limits must be finite")
	}
	if usl <= lsl {
		return core.NewInvalidSpecificationError(fmt.Sprintf("usl (%g) must be greater than lsl (%g)", usl, lsl))
	}
	return nil
}

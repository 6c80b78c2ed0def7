package control

import (
	"fmt"
	"math"

	"gosigma/domain/spc"
)

// Bounds is the shared reference every rule scans against
type Bounds struct {
	Mean  float64
	Sigma float64
	UCL   float64
	LCL   float64
}

// Rule is one independent special-cause detector. Detect must be a pure forward scan over
// series; rules never see each other's output.
type Rule interface {
	Name() spc.RuleName
	Description() string
	Detect(series []float64, b Bounds) []spc.RuleViolation
}

// Rules returns the eight detectors in reporting order.
//
// Beyond-limit and the two zone rules report every match. Trend, alternation and the two
// 1-sigma stratification rules stop at the first qualifying window.
func Rules() []Rule {
	return []Rule{
		BeyondLimitsRule{},
		RunOfNineRule{},
		TrendOfSixRule{},
		AlternatingRule{},
		TwoOfThreeRule{},
		FourOfFiveRule{},
		FifteenWithinRule{},
		EightBeyondRule{},
	}
}

// RuleByName looks up a detector
func RuleByName(name spc.RuleName) (Rule, bool) {
	for _, r := range Rules() {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}

// DetectRule runs a single named detector against a series using freshly computed limits.
func DetectRule(name spc.RuleName, series []float64, sigmaLevel float64) ([]spc.RuleViolation, error) {
	rule, ok := RuleByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown rule %q", name)
	}
	limits, err := CalculateControlLimits(series, Options{SigmaLevel: sigmaLevel})
	if err != nil {
		return nil, err
	}
	return rule.Detect(series, Bounds{Mean: limits.Mean, Sigma: limits.Sigma, UCL: limits.UCL, LCL: limits.LCL}), nil
}

// BeyondLimitsRule flags every point outside [LCL, UCL]
type BeyondLimitsRule struct{}

func (BeyondLimitsRule) Name() spc.RuleName { return spc.RuleBeyondLimits }

func (BeyondLimitsRule) Description() string {
	return "One point beyond the control limits"
}

func (r BeyondLimitsRule) Detect(series []float64, b Bounds) []spc.RuleViolation {
	var out []spc.RuleViolation
	for i, x := range series {
		switch {
		case x > b.UCL:
			out = append(out, violation(r.Name(), spc.SeverityCritical, []int{i},
				fmt.Sprintf("Sample %d (%.4g) is above the UCL (%.4g)", i+1, x, b.UCL)))
		case x < b.LCL:
			out = append(out, violation(r.Name(), spc.SeverityCritical, []int{i},
				fmt.Sprintf("Sample %d (%.4g) is below the LCL (%.4g)", i+1, x, b.LCL)))
		}
	}
	return out
}

// RunOfNineRule flags nine or more consecutive points on the same side of the mean.
// Every index that extends a run past eight is reported with the trailing nine points.
type RunOfNineRule struct{}

const runLength = 9

func (RunOfNineRule) Name() spc.RuleName { return spc.RuleRunOfNine }

func (RunOfNineRule) Description() string {
	return "Nine or more consecutive points on the same side of the mean"
}

func (r RunOfNineRule) Detect(series []float64, b Bounds) []spc.RuleViolation {
	var out []spc.RuleViolation
	side, run := 0, 0
	for i, x := range series {
		s := sideOf(x, b.Mean)
		switch {
		case s == 0:
			side, run = 0, 0
		case s == side:
			run++
		default:
			side, run = s, 1
		}
		if run >= runLength {
			where := "above"
			if side < 0 {
				where = "below"
			}
			out = append(out, violation(r.Name(), spc.SeverityWarning, window(i-runLength+1, runLength),
				fmt.Sprintf("%d consecutive points %s the mean ending at sample %d", run, where, i+1)))
		}
	}
	return out
}

// TrendOfSixRule flags six consecutive points strictly increasing or decreasing.
type TrendOfSixRule struct{}

const trendLength = 6

func (TrendOfSixRule) Name() spc.RuleName { return spc.RuleTrendOfSix }

func (TrendOfSixRule) Description() string {
	return "Six consecutive points steadily increasing or decreasing"
}

func (r TrendOfSixRule) Detect(series []float64, _ Bounds) []spc.RuleViolation {
	for end := trendLength - 1; end < len(series); end++ {
		start := end - trendLength + 1
		rising, falling := true, true
		for j := start + 1; j <= end; j++ {
			if !(series[j] > series[j-1]) {
				rising = false
			}
			if !(series[j] < series[j-1]) {
				falling = false
			}
		}
		if rising || falling {
			dir := "increasing"
			if falling {
				dir = "decreasing"
			}
			return []spc.RuleViolation{violation(r.Name(), spc.SeverityWarning, window(start, trendLength),
				fmt.Sprintf("Samples %d-%d are steadily %s", start+1, end+1, dir))}
		}
	}
	return nil
}

// AlternatingRule flags fourteen consecutive points alternating up and down.
type AlternatingRule struct{}

const alternatingLength = 14

func (AlternatingRule) Name() spc.RuleName { return spc.RuleAlternatingFourteen }

func (AlternatingRule) Description() string {
	return "Fourteen consecutive points alternating up and down"
}

func (r AlternatingRule) Detect(series []float64, _ Bounds) []spc.RuleViolation {
	for end := alternatingLength - 1; end < len(series); end++ {
		start := end - alternatingLength + 1
		ok := true
		prev := 0
		for j := start + 1; j <= end; j++ {
			d := sideOf(series[j], series[j-1])
			if d == 0 || d == prev {
				ok = false
				break
			}
			prev = d
		}
		if ok {
			return []spc.RuleViolation{violation(r.Name(), spc.SeverityWarning, window(start, alternatingLength),
				fmt.Sprintf("Samples %d-%d alternate up and down", start+1, end+1))}
		}
	}
	return nil
}

// TwoOfThreeRule flags any three-point window with two points beyond 2 sigma on one side.
type TwoOfThreeRule struct{}

func (TwoOfThreeRule) Name() spc.RuleName { return spc.RuleTwoOfThreeBeyond2Sigma }

func (TwoOfThreeRule) Description() string {
	return "Two out of three consecutive points beyond 2 sigma on the same side"
}

func (r TwoOfThreeRule) Detect(series []float64, b Bounds) []spc.RuleViolation {
	return zoneScan(r.Name(), spc.SeverityCritical, series, b, 3, 2, 2)
}

// FourOfFiveRule flags any five-point window with four points beyond 1 sigma on one side.
type FourOfFiveRule struct{}

func (FourOfFiveRule) Name() spc.RuleName { return spc.RuleFourOfFiveBeyond1Sigma }

func (FourOfFiveRule) Description() string {
	return "Four out of five consecutive points beyond 1 sigma on the same side"
}

func (r FourOfFiveRule) Detect(series []float64, b Bounds) []spc.RuleViolation {
	return zoneScan(r.Name(), spc.SeverityWarning, series, b, 5, 4, 1)
}

// FifteenWithinRule flags fifteen consecutive points hugging the mean (within 1 sigma).
type FifteenWithinRule struct{}

const hugLength = 15

func (FifteenWithinRule) Name() spc.RuleName { return spc.RuleFifteenWithin1Sigma }

func (FifteenWithinRule) Description() string {
	return "Fifteen consecutive points within 1 sigma of the mean"
}

func (r FifteenWithinRule) Detect(series []float64, b Bounds) []spc.RuleViolation {
	start, ok := firstStreak(series, hugLength, func(x float64) bool {
		return math.Abs(x-b.Mean) < b.Sigma
	})
	if !ok {
		return nil
	}
	return []spc.RuleViolation{violation(r.Name(), spc.SeverityWarning, window(start, hugLength),
		fmt.Sprintf("Samples %d-%d all lie within 1 sigma of the mean (reduced variation)", start+1, start+hugLength))}
}

// EightBeyondRule flags eight consecutive points more than 1 sigma away on either side.
type EightBeyondRule struct{}

const mixtureLength = 8

func (EightBeyondRule) Name() spc.RuleName { return spc.RuleEightBeyond1Sigma }

func (EightBeyondRule) Description() string {
	return "Eight consecutive points beyond 1 sigma on either side of the mean"
}

func (r EightBeyondRule) Detect(series []float64, b Bounds) []spc.RuleViolation {
	start, ok := firstStreak(series, mixtureLength, func(x float64) bool {
		return math.Abs(x-b.Mean) > b.Sigma
	})
	if !ok {
		return nil
	}
	return []spc.RuleViolation{violation(r.Name(), spc.SeverityWarning, window(start, mixtureLength),
		fmt.Sprintf("Samples %d-%d all lie more than 1 sigma from the mean (possible mixture)", start+1, start+mixtureLength))}
}

// zoneScan reports every window of size w holding at least need points beyond k sigma on
// the same side of the mean.
func zoneScan(name spc.RuleName, sev spc.Severity, series []float64, b Bounds, w, need int, k float64) []spc.RuleViolation {
	var out []spc.RuleViolation
	upper := b.Mean + k*b.Sigma
	lower := b.Mean - k*b.Sigma
	for start := 0; start+w <= len(series); start++ {
		high, low := 0, 0
		for _, x := range series[start : start+w] {
			if x > upper {
				high++
			} else if x < lower {
				low++
			}
		}
		if high < need && low < need {
			continue
		}
		where := "above"
		if low >= need {
			where = "below"
		}
		out = append(out, violation(name, sev, window(start, w),
			fmt.Sprintf("%d of %d points in samples %d-%d are %s %g sigma", max(high, low), w, start+1, start+w, where, k)))
	}
	return out
}

// firstStreak returns the start of the first run of n consecutive points satisfying pred
func firstStreak(series []float64, n int, pred func(float64) bool) (int, bool) {
	streak := 0
	for i, x := range series {
		if pred(x) {
			streak++
		} else {
			streak = 0
		}
		if streak == n {
			return i - n + 1, true
		}
	}
	return 0, false
}

func violation(name spc.RuleName, sev spc.Severity, indices []int, desc string) spc.RuleViolation {
	return spc.RuleViolation{Rule: name, Description: desc, Indices: indices, Severity: sev}
}

func window(start, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = start + i
	}
	return idx
}

// sideOf returns +1, -1 or 0 for x above, below or equal to ref
func sideOf(x, ref float64) int {
	switch {
	case x > ref:
		return 1
	case x < ref:
		return -1
	}
	return 0
}

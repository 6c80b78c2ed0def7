package spc

// Severity grades a special-cause signal
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// RuleName identifies one of the eight pattern detectors
type RuleName string

const (
	RuleBeyondLimits           RuleName = "beyond_limits"
	RuleRunOfNine              RuleName = "run_of_nine"
	RuleTrendOfSix             RuleName = "trend_of_six"
	RuleAlternatingFourteen    RuleName = "alternating_fourteen"
	RuleTwoOfThreeBeyond2Sigma RuleName = "two_of_three_beyond_2sigma"
	RuleFourOfFiveBeyond1Sigma RuleName = "four_of_five_beyond_1sigma"
	RuleFifteenWithin1Sigma    RuleName = "fifteen_within_1sigma"
	RuleEightBeyond1Sigma      RuleName = "eight_beyond_1sigma"
)

// RuleViolation is one special-cause finding. Indices are 0-based positions in the series.
type RuleViolation struct {
	Rule        RuleName `json:"rule"`
	Description string   `json:"description"`
	Indices     []int    `json:"indices"`
	Severity    Severity `json:"severity"`
}

// ControlLimits is the snapshot produced for one sample series.
// UCL = Mean + SigmaLevel*Sigma and LCL = Mean - SigmaLevel*Sigma.
type ControlLimits struct {
	Mean           float64         `json:"mean"`
	Sigma          float64         `json:"sigma"`
	SigmaLevel     float64         `json:"sigma_level"`
	UCL            float64         `json:"ucl"`
	LCL            float64         `json:"lcl"`
	SampleSize     int             `json:"sample_size"`
	Violations     []int           `json:"violations"`
	RuleViolations []RuleViolation `json:"rule_violations"`
}

// InControl reports whether no limit breach and no rule signal was found
func (c ControlLimits) InControl() bool {
	return len(c.Violations) == 0 && len(c.RuleViolations) == 0
}

// CountBySeverity tallies rule violations by severity
func (c ControlLimits) CountBySeverity() map[Severity]int {
	counts := map[Severity]int{SeverityWarning: 0, SeverityCritical: 0}
	for _, v := range c.RuleViolations {
		counts[v.Severity]++
	}
	return counts
}

// Series is a named measurement sequence, e.g. one column of an uploaded sheet
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

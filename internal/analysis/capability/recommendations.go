package capability

import (
	"fmt"
	"math"

	"gosigma/domain/capability"
)

// MaxOutOfSpecPercent is the defect share a centered 3-sigma process produces
const MaxOutOfSpecPercent = 0.27

// offCenterRatio is the Cp/Cpk ratio above which the process is treated as off-center
const offCenterRatio = 1.2

// Recommendations assembles advisory text from a computed result. Messages appear in a
// fixed check order and several may apply at once.
func Recommendations(r *capability.Result) []string {
	recs := []string{}

	switch {
	case r.Cpk < MarginalCpk:
		recs = append(recs, fmt.Sprintf(
			"Critical: process is not capable (Cpk = %.2f < 1.00). Reduce variation and re-center the process before release.", r.Cpk))
	case r.Cpk < CapableCpk:
		recs = append(recs, fmt.Sprintf(
			"Marginal: process capability is below the 1.33 minimum (Cpk = %.2f). Plan improvement actions.", r.Cpk))
	}

	if r.Cpk > 0 && r.Cp/r.Cpk > offCenterRatio {
		recs = append(recs, fmt.Sprintf(
			"Process is off-center (Cp/Cpk = %.2f). Shift the mean toward the specification midpoint.", r.Cp/r.Cpk))
	}

	if r.Cp < CapableCpk && r.Cpk < CapableCpk {
		recs = append(recs, fmt.Sprintf(
			"Process spread is too wide for the specification (Cp = %.2f). Reduce common-cause variation.", r.Cp))
	}

	if r.OutOfSpecPercent > MaxOutOfSpecPercent {
		recs = append(recs, fmt.Sprintf(
			"%.2f%% of samples are out of specification (%d above USL, %d below LSL), above the 0.27%% expected at 3 sigma.",
			r.OutOfSpecPercent, r.AboveUSLCount, r.BelowLSLCount))
	}

	if math.Abs(r.Mean-r.Target) > r.StdDev {
		recs = append(recs, fmt.Sprintf(
			"Process mean (%.4g) is more than one standard deviation from target (%.4g). Check for systematic bias.", r.Mean, r.Target))
	}

	if r.Cpk >= ExcellentCpk {
		recs = append(recs, fmt.Sprintf(
			"Excellent capability (Cpk = %.2f). Maintain current controls and monitor for drift.", r.Cpk))
	}

	return recs
}

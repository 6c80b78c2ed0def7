package capability

import "math"

// Abramowitz & Stegun 7.1.26 rational approximation coefficients
const (
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
	erfP  = 0.3275911
)

// Erf approximates the error function (max absolute error 1.5e-7)
func Erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}
	t := 1.0 / (1.0 + erfP*x)
	y := 1.0 - (((((erfA5*t+erfA4)*t)+erfA3)*t+erfA2)*t+erfA1)*t*math.Exp(-x*x)
	return sign * y
}

// NormalCDF is the standard normal cumulative distribution built on Erf
func NormalCDF(z float64) float64 {
	return 0.5 * (1.0 + Erf(z/math.Sqrt2))
}

// upperTail is P(Z > z)
func upperTail(z float64) float64 {
	return 1.0 - NormalCDF(z)
}

// dpmoFromSigmaLevel combines both tails at +/- z and scales to parts per million
func dpmoFromSigmaLevel(z float64) float64 {
	dpmo := math.Round(2 * upperTail(z) * 1e6)
	return math.Min(math.Max(dpmo, 0), 1e6)
}

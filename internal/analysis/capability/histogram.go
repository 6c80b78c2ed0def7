package capability

import (
	"math"

	"gosigma/domain/capability"
	"gosigma/domain/core"
)

// DefaultBins is used when the caller asks for zero or fewer bins
const DefaultBins = 20

// Histogram partitions [min(series, lsl), max(series, usl)] into equal-width bins. The last
// bin is closed on the right. A bin is out of spec when it lies entirely at or beyond a limit.
func Histogram(series []float64, usl, lsl float64, bins int) ([]capability.HistogramBin, error) {
	if err := validateSpec(usl, lsl); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, core.NewInsufficientDataError(1, 0)
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	lo, hi := lsl, usl
	for _, x := range series {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, core.NewInvalidSpecificationError("series contains a non-finite sample")
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	width := (hi - lo) / float64(bins)

	out := make([]capability.HistogramBin, bins)
	for i := range out {
		start := lo + float64(i)*width
		end := lo + float64(i+1)*width
		if i == bins-1 {
			end = hi
		}
		out[i] = capability.HistogramBin{
			Start:     start,
			End:       end,
			OutOfSpec: end <= lsl || start >= usl,
		}
	}

	for _, x := range series {
		idx := int((x - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		out[idx].Count++
	}
	return out, nil
}

package capability

import (
	"math"
	"testing"

	"gosigma/domain/capability"
	"gosigma/domain/core"
)

func TestHistogram_BinsAndSpecFlags(t *testing.T) {
	series := []float64{0.5, 1.5, 2.5, 3.5, 4.5, 5.5}

	bins, err := Histogram(series, 4.5, 1.5, 5)
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	if len(bins) != 5 {
		t.Fatalf("expected 5 bins, got %d", len(bins))
	}

	wantCounts := []int{1, 1, 1, 1, 2}
	wantOut := []bool{true, false, false, false, true}
	total := 0
	for i, b := range bins {
		if b.Count != wantCounts[i] {
			t.Errorf("bin %d: expected count %d, got %d", i, wantCounts[i], b.Count)
		}
		if b.OutOfSpec != wantOut[i] {
			t.Errorf("bin %d [%g,%g]: expected out-of-spec %v", i, b.Start, b.End, wantOut[i])
		}
		total += b.Count
	}
	if total != len(series) {
		t.Errorf("bins hold %d samples, want %d", total, len(series))
	}
	if bins[0].Start != 0.5 || bins[4].End != 5.5 {
		t.Errorf("expected range [0.5, 5.5], got [%g, %g]", bins[0].Start, bins[4].End)
	}
}

func TestHistogram_RangeIncludesSpecLimits(t *testing.T) {
	bins, err := Histogram([]float64{4, 5, 6}, 10, 0, 0)
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	if len(bins) != DefaultBins {
		t.Fatalf("expected default %d bins, got %d", DefaultBins, len(bins))
	}
	if bins[0].Start != 0 || bins[len(bins)-1].End != 10 {
		t.Errorf("expected range to span the limits, got [%g, %g]", bins[0].Start, bins[len(bins)-1].End)
	}
	for _, b := range bins {
		if b.OutOfSpec {
			t.Errorf("no bin lies beyond the limits, but [%g,%g] flagged", b.Start, b.End)
		}
	}
}

func TestHistogram_Errors(t *testing.T) {
	if _, err := Histogram(nil, 2, 1, 5); !core.IsInsufficientData(err) {
		t.Errorf("expected insufficient data, got %v", err)
	}
	if _, err := Histogram([]float64{1}, 1, 2, 5); !core.IsInvalidSpecification(err) {
		t.Errorf("expected invalid specification, got %v", err)
	}
}

func TestCalculateDefectProbability(t *testing.T) {
	dp, err := CalculateDefectProbability(0, 1, 3, -3)
	if err != nil {
		t.Fatalf("CalculateDefectProbability: %v", err)
	}
	if math.Abs(dp.AbovePercent-dp.BelowPercent) > 1e-12 {
		t.Errorf("centered process must have symmetric tails: %v vs %v", dp.AbovePercent, dp.BelowPercent)
	}
	if math.Abs(dp.TotalPercent-0.27) > 0.001 {
		t.Errorf("expected about 0.27%% total, got %v", dp.TotalPercent)
	}

	// the direct estimate agrees with the sigma-level DPMO for a centered process
	sigma := math.Sqrt(2.5)
	r, err := CalculateCapability(capability.Input{Series: centered, USL: 3 * sigma, LSL: -3 * sigma})
	if err != nil {
		t.Fatalf("CalculateCapability: %v", err)
	}
	if math.Round(dp.PPM) != r.DPMO {
		t.Errorf("expected PPM %v to round to DPMO %v", dp.PPM, r.DPMO)
	}
}

func TestCalculateDefectProbability_OffCenter(t *testing.T) {
	dp, err := CalculateDefectProbability(1, 1, 3, -3)
	if err != nil {
		t.Fatalf("CalculateDefectProbability: %v", err)
	}
	if dp.ZUpper != 2 || dp.ZLower != 4 {
		t.Errorf("unexpected z-scores %v / %v", dp.ZUpper, dp.ZLower)
	}
	if dp.AbovePercent <= dp.BelowPercent {
		t.Errorf("mean shifted up should raise the upper tail: %v <= %v", dp.AbovePercent, dp.BelowPercent)
	}
}

func TestCalculateDefectProbability_RejectsBadSigma(t *testing.T) {
	for _, sigma := range []float64{0, -1, math.NaN()} {
		if _, err := CalculateDefectProbability(0, sigma, 1, -1); !core.IsInvalidSpecification(err) {
			t.Errorf("sigma %v: expected invalid specification, got %v", sigma, err)
		}
	}
}

func TestNormalCDF(t *testing.T) {
	tests := []struct {
		z, want float64
	}{
		{0, 0.5},
		{1.96, 0.975},
		{-1.96, 0.025},
		{3, 0.99865},
	}
	for _, tt := range tests {
		if got := NormalCDF(tt.z); math.Abs(got-tt.want) > 1e-4 {
			t.Errorf("NormalCDF(%v) = %v, want %v", tt.z, got, tt.want)
		}
	}
	if Erf(-0.5) != -Erf(0.5) {
		t.Error("Erf must be odd")
	}
}

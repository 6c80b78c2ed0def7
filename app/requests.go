package app

import (
	"gosigma/domain/capability"
	"gosigma/domain/core"
	"gosigma/domain/doe"
	"gosigma/domain/spc"
)

// ControlRequest asks for control limits over one series. A zero SigmaLevel uses the
// configured default; CheckRules defaults to true.
type ControlRequest struct {
	Label      string    `json:"label,omitempty"`
	Series     []float64 `json:"series"`
	SigmaLevel float64   `json:"sigma_level,omitempty"`
	CheckRules *bool     `json:"check_rules,omitempty"`
}

// ControlResponse carries the limits and, when persisted, the record ID
type ControlResponse struct {
	ID     core.ID            `json:"id,omitempty"`
	Limits *spc.ControlLimits `json:"limits"`
}

// CapabilityRequest asks for a capability study. Bins > 0 or Histogram adds a histogram.
type CapabilityRequest struct {
	Label        string    `json:"label,omitempty"`
	Series       []float64 `json:"series"`
	USL          float64   `json:"usl"`
	LSL          float64   `json:"lsl"`
	Target       *float64  `json:"target,omitempty"`
	SubgroupSize int       `json:"subgroup_size,omitempty"`
	Histogram    bool      `json:"histogram,omitempty"`
	Bins         int       `json:"bins,omitempty"`
}

func (r CapabilityRequest) input() capability.Input {
	return capability.Input{
		Series:       r.Series,
		USL:          r.USL,
		LSL:          r.LSL,
		Target:       r.Target,
		SubgroupSize: r.SubgroupSize,
	}
}

// CapabilityResponse carries the study and optional histogram
type CapabilityResponse struct {
	ID        core.ID                   `json:"id,omitempty"`
	Result    *capability.Result        `json:"result"`
	Histogram []capability.HistogramBin `json:"histogram,omitempty"`
}

// HistogramRequest asks for a binned distribution against specification limits
type HistogramRequest struct {
	Series []float64 `json:"series"`
	USL    float64   `json:"usl"`
	LSL    float64   `json:"lsl"`
	Bins   int       `json:"bins,omitempty"`
}

// DesignRequest asks for a generated experiment. Full factorial designs take Factors;
// the two-level generators take either Factors (names only) or a factor count K.
type DesignRequest struct {
	Label   string         `json:"label,omitempty"`
	Type    doe.DesignType `json:"type"`
	Factors []doe.Factor   `json:"factors,omitempty"`
	K       int            `json:"k,omitempty"`
	Coded   bool           `json:"coded,omitempty"`
}

// DesignResponse carries the generated matrix
type DesignResponse struct {
	ID     core.ID           `json:"id,omitempty"`
	Design *doe.DesignMatrix `json:"design"`
}

// DOERequest asks for the full effects/ANOVA/optimization pipeline. Runs are in coded
// -1/+1 units unless Uncoded is set, in which case each column is scaled by its observed range.
type DOERequest struct {
	Label      string         `json:"label,omitempty"`
	Runs       [][]float64    `json:"runs"`
	Factors    []string       `json:"factors"`
	Response   []float64      `json:"response"`
	Spec       doe.Response   `json:"response_spec"`
	PValueMode doe.PValueMode `json:"pvalue_mode,omitempty"`
	Uncoded    bool           `json:"uncoded,omitempty"`
}

// DOEResponse carries the analysis
type DOEResponse struct {
	ID       core.ID       `json:"id,omitempty"`
	Analysis *doe.Analysis `json:"analysis"`
}

// BatchControlRequest computes limits for many named series at once
type BatchControlRequest struct {
	Series     []spc.Series `json:"series"`
	SigmaLevel float64      `json:"sigma_level,omitempty"`
	CheckRules *bool        `json:"check_rules,omitempty"`
}

// BatchItem is the outcome for one series; failures do not abort the batch
type BatchItem struct {
	Name      string             `json:"name"`
	Limits    *spc.ControlLimits `json:"limits,omitempty"`
	Error     string             `json:"error,omitempty"`
	ErrorCode string             `json:"error_code,omitempty"`
}

// BatchControlResponse lists items in request order
type BatchControlResponse struct {
	Items        []BatchItem `json:"items"`
	Failed       int         `json:"failed"`
	OutOfControl int         `json:"out_of_control"`
}

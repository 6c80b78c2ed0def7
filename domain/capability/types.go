package capability

// Input carries a sample series and its specification limits.
// Target defaults to the midpoint of the limits when nil. SubgroupSize > 1 makes the
// Cp family use the pooled within-subgroup sigma instead of the overall sample sigma.
type Input struct {
	Series       []float64 `json:"series"`
	USL          float64   `json:"usl"`
	LSL          float64   `json:"lsl"`
	Target       *float64  `json:"target,omitempty"`
	SubgroupSize int       `json:"subgroup_size,omitempty"`
}

// Level is the Cpk classification label
type Level string

const (
	LevelWorldClass Level = "World Class"
	LevelExcellent  Level = "Excellent"
	LevelCapable    Level = "Capable"
	LevelMarginal   Level = "Marginal"
	LevelPoor       Level = "Poor"
	LevelInadequate Level = "Inadequate"
)

// Result holds capability and performance indices for one series.
// Cpk = min(Cpu, Cpl), IsCapable is Cpk >= 1.33 and SigmaLevel is 3*Cpk.
type Result struct {
	SampleSize int     `json:"sample_size"`
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	StdDev     float64 `json:"std_dev"`
	Variance   float64 `json:"variance"`
	Range      float64 `json:"range"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`

	// WithinSigma drives the Cp family; equals StdDev unless subgroups were supplied.
	WithinSigma float64 `json:"within_sigma"`

	Cp  float64 `json:"cp"`
	Cpk float64 `json:"cpk"`
	Cpl float64 `json:"cpl"`
	Cpu float64 `json:"cpu"`
	Pp  float64 `json:"pp"`
	Ppk float64 `json:"ppk"`
	Ppl float64 `json:"ppl"`
	Ppu float64 `json:"ppu"`

	SigmaLevel float64 `json:"sigma_level"`
	DPMO       float64 `json:"dpmo"`

	USL            float64 `json:"usl"`
	LSL            float64 `json:"lsl"`
	Target         float64 `json:"target"`
	TargetDistance float64 `json:"target_distance"`
	SpecWidth      float64 `json:"spec_width"`
	ProcessWidth   float64 `json:"process_width"`

	IsCapable       bool     `json:"is_capable"`
	Level           Level    `json:"capability_level"`
	Recommendations []string `json:"recommendations"`

	OutOfSpecCount   int     `json:"out_of_spec_count"`
	OutOfSpecPercent float64 `json:"out_of_spec_percent"`
	AboveUSLCount    int     `json:"above_usl_count"`
	BelowLSLCount    int     `json:"below_lsl_count"`
}

// DefectProbability is the normal-tail defect estimate computed directly from z-scores
// against the specification limits.
type DefectProbability struct {
	ZUpper       float64 `json:"z_upper"`
	ZLower       float64 `json:"z_lower"`
	AbovePercent float64 `json:"above_usl_percent"`
	BelowPercent float64 `json:"below_lsl_percent"`
	TotalPercent float64 `json:"total_percent"`
	PPM          float64 `json:"ppm"`
}

// HistogramBin is one equal-width bucket prepared for external rendering
type HistogramBin struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Count     int     `json:"count"`
	OutOfSpec bool    `json:"out_of_spec"`
}

package excel

// ReaderConfig controls how sheets are turned into series
type ReaderConfig struct {
	// Sheet to read from workbooks; empty means the first sheet
	Sheet string `json:"sheet"`
	// Columns restricts the result to these headers, in this order; empty keeps every numeric column
	Columns []string `json:"columns"`
}

// DefaultReaderConfig reads every numeric column of the first sheet
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{}
}

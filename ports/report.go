package ports

import (
	"gosigma/domain/capability"
	"gosigma/domain/spc"
)

// ReportRenderer turns analysis results into human-readable documents
type ReportRenderer interface {
	CapabilityMarkdown(title string, result *capability.Result, bins []capability.HistogramBin) []byte
	ControlMarkdown(title string, limits *spc.ControlLimits) []byte
	ToHTML(markdown []byte) []byte
}

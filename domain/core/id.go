package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// ParseID validates a textual identifier
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("analysis ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("analysis ID %q is not a UUID: %w", s, err)
	}
	return ID(s), nil
}

// AnalysisKind names which engine produced a record
type AnalysisKind string

const (
	AnalysisControlLimits AnalysisKind = "control_limits"
	AnalysisCapability    AnalysisKind = "capability"
	AnalysisDOEDesign     AnalysisKind = "doe_design"
	AnalysisDOE           AnalysisKind = "doe_analysis"
)

// AnalysisRecord is a persisted snapshot of one computation. Input and Result hold the
// JSON encoding of the engine's input and output records.
type AnalysisRecord struct {
	ID        ID              `json:"id"`
	Kind      AnalysisKind    `json:"kind"`
	Label     string          `json:"label,omitempty"`
	InputHash Hash            `json:"input_hash"`
	Input     json.RawMessage `json:"input"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

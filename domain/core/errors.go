package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrInsufficientData means the series is shorter than the statistic requires.
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// ErrInvalidSpecification covers usl <= lsl, non-positive sigma and non-finite input.
	ErrInvalidSpecification = errors.New("invalid specification")

	// ErrDesignMismatch means response or factor name lengths disagree with the design matrix.
	ErrDesignMismatch = errors.New("design mismatch")

	// ErrNumericDegenerate means zero variance made limits or indices undefined.
	ErrNumericDegenerate = errors.New("numerically degenerate input")
)

// Error constructors with context
func NewInsufficientDataError(required, got int) error {
	return fmt.Errorf("%w: need at least %d points, got %d", ErrInsufficientData, required, got)
}

func NewInvalidSpecificationError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidSpecification, reason)
}

func NewDesignMismatchError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDesignMismatch, fmt.Sprintf(format, args...))
}

func NewDegenerateError(what string) error {
	return fmt.Errorf("%w: %s", ErrNumericDegenerate, what)
}

// Error checking helpers
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsInvalidSpecification(err error) bool {
	return errors.Is(err, ErrInvalidSpecification)
}

func IsDesignMismatch(err error) bool {
	return errors.Is(err, ErrDesignMismatch)
}

func IsNumericDegenerate(err error) bool {
	return errors.Is(err, ErrNumericDegenerate)
}

// IsAnalysisError reports whether err belongs to the input-validation taxonomy.
func IsAnalysisError(err error) bool {
	return IsInsufficientData(err) ||
		IsInvalidSpecification(err) ||
		IsDesignMismatch(err) ||
		IsNumericDegenerate(err)
}

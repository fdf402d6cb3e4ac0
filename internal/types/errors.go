package types

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the only failure that reaches callers of AnalyzeRequest.
var ErrInvalidInput = errors.New("invalid input")

// ErrModuleUnavailable marks a pluggable component that failed to load.
// It is recorded in ModuleHealth and never returned from a request.
var ErrModuleUnavailable = errors.New("module unavailable")

// AnalysisFailure wraps an error raised by one component during one request.
type AnalysisFailure struct {
	Component string
	Err       error
}

func (e *AnalysisFailure) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Component, e.Err)
}

func (e *AnalysisFailure) Unwrap() error {
	return e.Err
}

// InvalidInput builds a descriptive validation error wrapping ErrInvalidInput.
func InvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

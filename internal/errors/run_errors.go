package errors

import (
	"fmt"
)

// Category classifies the failures a rolling evaluation can produce.
type Category string

const (
	// Fatal for the whole run: no partial results are returned.
	CategoryInsufficientHistory Category = "INSUFFICIENT_HISTORY"
	CategoryConfig              Category = "CONFIG"
	CategoryData                Category = "DATA"

	// Scoped to a single window: the run continues unless fail-fast is
	// requested.
	CategoryDegenerateFold  Category = "DEGENERATE_FOLD"
	CategoryLeakage         Category = "LEAKAGE"
	CategoryUnresolvedLabel Category = "UNRESOLVED_LABEL"
	CategoryFit             Category = "FIT"
	CategoryPredict         Category = "PREDICT"
)

// RunError is a categorized evaluation error with enough context to audit
// which window degraded and why.
type RunError struct {
	Category   Category
	Component  string
	Operation  string
	Window     int // window ordinal, -1 when not window-scoped
	Message    string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface.
func (e *RunError) Error() string {
	scope := ""
	if e.Window >= 0 {
		scope = fmt.Sprintf(" window=%d", e.Window)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s%s: %s: %v", e.Category, e.Component, e.Operation, scope, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s%s: %s", e.Category, e.Component, e.Operation, scope, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *RunError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether the error must abort the whole run regardless of
// the fail-fast flag.
func (e *RunError) IsFatal() bool {
	switch e.Category {
	case CategoryInsufficientHistory, CategoryConfig, CategoryData:
		return true
	}
	return false
}

// New creates a categorized run error.
func New(category Category, component, operation, message string) *RunError {
	return &RunError{
		Category:  category,
		Component: component,
		Operation: operation,
		Window:    -1,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// Wrap attaches category and context to an existing error.
func Wrap(err error, category Category, component, operation string) *RunError {
	if err == nil {
		return nil
	}
	return &RunError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Window:     -1,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
	}
}

// WithWindow marks the error as scoped to one window ordinal.
func (e *RunError) WithWindow(window int) *RunError {
	e.Window = window
	return e
}

// WithContext adds a context value to the error.
func (e *RunError) WithContext(key string, value interface{}) *RunError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

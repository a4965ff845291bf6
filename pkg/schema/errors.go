package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a single problem found in a class table or a value.
type ValidationError struct {
	Class  string // Class name, empty for document level problems
	Key    string // Field name, empty for class level problems
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	var where string
	switch {
	case e.Class != "" && e.Key != "":
		where = fmt.Sprintf("%s.%s", e.Class, e.Key)
	case e.Class != "":
		where = e.Class
	default:
		where = e.Key
	}
	if e.Value == nil {
		return fmt.Sprintf("%q: %s", where, e.Reason)
	}
	return fmt.Sprintf("%q: %s (got %T)", where, e.Reason, e.Value)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors returns all validation errors if err is, or wraps, an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

func aggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: errs}
}

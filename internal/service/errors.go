package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStrategy is returned when a profiling strategy name is not
	// registered.
	ErrUnknownStrategy = errors.New("unknown profiling strategy")

	// ErrUnknownChart is returned when a chart kind is not registered.
	ErrUnknownChart = errors.New("unknown chart kind")
)

// InvalidPredicateError reports a filter predicate that cannot be applied:
// the operator does not fit the column's kind, or the comparison value does
// not parse for it.
type InvalidPredicateError struct {
	Column   string
	Operator string
	Value    string
	Reason   string
}

func (e *InvalidPredicateError) Error() string {
	return fmt.Sprintf("invalid predicate %s %s %q: %s", e.Column, e.Operator, e.Value, e.Reason)
}

// InvalidOptionError reports a bad configuration value for an operation.
type InvalidOptionError struct {
	Option string
	Value  string
	Reason string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid option %s=%q: %s", e.Option, e.Value, e.Reason)
}

// InsufficientDataError reports that the view lacks the rows or column
// kinds an operation requires.
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return "insufficient data: " + e.Reason
}

package edifact

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned (wrapped) by builders and setters.
// Callers test for them with errors.Is.
var (
	// ErrDisallowedCode is returned when a code is outside its allow-list.
	ErrDisallowedCode = errors.New("disallowed code")

	// ErrInvalidNumericInput is returned when a value cannot be read as a number.
	ErrInvalidNumericInput = errors.New("invalid numeric input")

	// ErrInvalidDate is returned when a date value has no known layout.
	ErrInvalidDate = errors.New("invalid date")
)

// CodeError reports a code rejected by an allow-list.
type CodeError struct {
	Code    string
	Allowed []string
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("%s: %q (allowed: %s)", ErrDisallowedCode, e.Code, strings.Join(e.Allowed, ", "))
}

func (e *CodeError) Unwrap() error {
	return ErrDisallowedCode
}

// NumericError reports a value the numeric formatter could not handle.
type NumericError struct {
	Value  any
	Reason string
}

func (e *NumericError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v (%T)", ErrInvalidNumericInput, e.Value, e.Value)
	}
	return fmt.Sprintf("%s: %v (%T): %s", ErrInvalidNumericInput, e.Value, e.Value, e.Reason)
}

func (e *NumericError) Unwrap() error {
	return ErrInvalidNumericInput
}

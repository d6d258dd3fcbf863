package config

import (
	"errors"
	"fmt"
)

// ErrNotConfigured indicates missing or invalid configuration values
var ErrNotConfigured = errors.New("grist api not configured")

// NotConfiguredError carries the redacted configuration that failed validation
type NotConfiguredError struct {
	Dump     string
	Problems error
}

// Error implements the error interface
func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("%s: %v\nconfiguration: %s", ErrNotConfigured, e.Problems, e.Dump)
}

// Is makes errors.Is(err, ErrNotConfigured) match
func (e *NotConfiguredError) Is(target error) bool {
	return target == ErrNotConfigured
}

// Unwrap returns the aggregated validation problems
func (e *NotConfiguredError) Unwrap() error {
	return e.Problems
}

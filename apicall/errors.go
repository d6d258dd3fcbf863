package apicall

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrConflictingModes is returned for a call that sets both download and upload fields
	ErrConflictingModes = errors.New("download and upload mode are mutually exclusive")
	// ErrInSafeMode indicates a mutating call was blocked by safe mode
	ErrInSafeMode = errors.New("grist api is in safe mode: you cannot write to the db")

	errDryRun = errors.New("dry run")
)

// HTTPError is returned for an error status when raise-on-error is active
type HTTPError struct {
	Status int
	Reason string
	Method string
	URL    string
	Body   Body
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return fmt.Sprintf("grist API error: %s %s: status %d %s: %s", e.Method, e.URL, e.Status, e.Reason, e.Body)
}

// IsNotFound checks if the error indicates a not found response
func (e *HTTPError) IsNotFound() bool {
	return e.Status == 404
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *HTTPError) IsUnauthorized() bool {
	return e.Status == 401 || e.Status == 403
}

// TransportKind classifies transport failures
type TransportKind int

const (
	TransportOther TransportKind = iota
	TransportTimeout
	TransportConnection
)

// String returns the kind name
func (k TransportKind) String() string {
	switch k {
	case TransportTimeout:
		return "timeout"
	case TransportConnection:
		return "connection failed"
	default:
		return "transport error"
	}
}

// TransportError is a call that never received a response
type TransportError struct {
	Kind   TransportKind
	Method string
	URL    string
	Err    error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Kind, e.Err)
}

// Unwrap returns the underlying transport error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Status returns the sentinel status reported for this failure
func (e *TransportError) Status() int {
	switch e.Kind {
	case TransportTimeout:
		return StatusTimeout
	case TransportConnection:
		return StatusConnectionFailed
	default:
		return StatusTransportError
	}
}

// SafeModeError carries the configuration active when a call was blocked
type SafeModeError struct {
	Dump string
}

// Error implements the error interface
func (e *SafeModeError) Error() string {
	return fmt.Sprintf("%s. Configuration:\n%s", ErrInSafeMode, e.Dump)
}

// Is makes errors.Is(err, ErrInSafeMode) match
func (e *SafeModeError) Is(target error) bool {
	return target == ErrInSafeMode
}

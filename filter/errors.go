package filter

import "fmt"

type (
	// CompilationError indicates an expression could not be compiled
	CompilationError struct {
		Expression string
		Reason     string
		Err        error
	}

	// EvaluationError indicates an expression failed on one record
	EvaluationError struct {
		Expression string
		RecordID   int64
		Err        error
	}
)

func (e *CompilationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compilation error in '%s': %s: %v", e.Expression, e.Reason, e.Err)
	}
	return fmt.Sprintf("compilation error in '%s': %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error for '%s' on record %d: %v", e.Expression, e.RecordID, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

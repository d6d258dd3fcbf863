package grist

import "errors"

// ErrMissingTarget is returned when a destructive operation is called without
// an explicit target id
var ErrMissingTarget = errors.New("an explicit target id is required")

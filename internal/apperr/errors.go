// Package apperr defines the error kinds every operation maps its failures to.
// Anything that does not match a sentinel is treated as an internal error at
// the transport boundary.
package apperr

import "errors"

var (
	// ErrInvalid marks malformed or unsafe request input.
	ErrInvalid = errors.New("invalid input")
	// ErrNotFound marks a referenced draft file that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks exhausted versioned names, missing placeholders,
	// and missing slot markers in strict mode.
	ErrConflict = errors.New("conflict")
)

package models

import "errors"

// Custom errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateKey       = errors.New("duplicate key violation")
	ErrMalformedInput     = errors.New("malformed input")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrUnknownRule        = errors.New("unknown rule")
)

package core

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")

	// ErrLinkConflict means an external identity is already mapped to a
	// different account. This is a data-integrity violation: it is never
	// auto-resolved and never overwritten.
	ErrLinkConflict = errors.New("identity link points to a different account")
)

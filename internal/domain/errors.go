package domain

import "errors"

// Common errors
var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a resource already exists
	// (e.g., a duplicate (source, target, paragraph) link).
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidPlacement is returned when a link violates a placement
	// invariant (excluded zone, paragraph gap, per-paragraph cap).
	ErrInvalidPlacement = errors.New("link violates placement constraints")
)

// pkg/core/errors.go
package core

import "errors"

var (
	// ErrNotFound is returned when an operation references a point id that is not live.
	ErrNotFound = errors.New("point not found")

	// ErrStorage wraps failures of the persistence backend.
	ErrStorage = errors.New("storage failure")

	// ErrInvariantViolation signals that the order set is no longer dense and unique,
	// or that markers and points have drifted apart. It indicates a logic defect.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrReadOnlyField is returned when an update tries to set a store-managed field.
	ErrReadOnlyField = errors.New("field is managed by the store")

	// ErrNotHeader is returned when header fields are set on a point other than order 1.
	ErrNotHeader = errors.New("header fields belong to the first point")

	// ErrUnknownMode is returned for unrecognised mode selector values.
	ErrUnknownMode = errors.New("unknown mode")
)

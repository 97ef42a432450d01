package domain

import "errors"

var (
	// ErrInvalidInput marks requests rejected before any work is done.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCoordinates marks NaN, infinite or out-of-range coordinates.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrNotFound is returned when a city or route does not exist.
	ErrNotFound = errors.New("not found")
)

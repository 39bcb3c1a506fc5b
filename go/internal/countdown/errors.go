package countdown

import "errors"

var (
	// ErrInvalidTarget is returned when the target instant is missing or cannot be parsed
	ErrInvalidTarget = errors.New("invalid countdown target")

	// ErrClockUnavailable is returned when the wall clock cannot be read
	ErrClockUnavailable = errors.New("wall clock unavailable")
)

package errors

import "errors"

var (
	ErrNotFound = errors.New("absence not found")

	ErrInvalidID = errors.New("invalid absence ID format")

	// ErrInvalidTransition means the absence was not in a state the
	// requested decision can leave from.
	ErrInvalidTransition = errors.New("invalid absence status transition")

	ErrBookingNotAffected = errors.New("booking is not affected by this absence")
)

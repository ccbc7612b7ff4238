package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStateChanged means a conditional write found the booking no longer
	// active or no longer assigned to the expected barber.
	ErrStateChanged = errors.New("booking changed concurrently")
)

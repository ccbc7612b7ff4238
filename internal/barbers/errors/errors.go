package errors

import "errors"

var (
	ErrBarberNotFound = errors.New("barber not found")

	ErrServiceNotFound = errors.New("service not found")

	ErrInvalidID = errors.New("invalid ID format")
)

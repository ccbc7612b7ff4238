package errors

import "errors"

var (
	// ErrLockHeld means another process holds an unexpired lock.
	ErrLockHeld = errors.New("lock is held by another owner")
)

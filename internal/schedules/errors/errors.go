package errors

import "errors"

var (
	ErrNotFound = errors.New("schedule not found")

	// ErrSlotUnavailable means a conditional slot write matched nothing:
	// the slot is taken, blocked, missing or the day is off.
	ErrSlotUnavailable = errors.New("slot no longer available")

	ErrSlotNotFound = errors.New("slot does not exist on this schedule")

	// ErrOffDayClaimed means the day is already off under another owner.
	ErrOffDayClaimed = errors.New("day already claimed by another absence")
)

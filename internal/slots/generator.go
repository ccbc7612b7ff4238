package slots

import (
	"errors"
	"fmt"

	"barbersched/pkg/calendar"
)

const DefaultSlotDurationMin = 30

var (
	ErrInvalidDuration     = errors.New("slot duration must be positive")
	ErrInvalidWorkingHours = errors.New("working hours must end after they start")
)

// Generate returns the ordered slot start times of one working day. A slot
// is emitted when it fits entirely before hours.End and its start is not
// inside any break window.
func Generate(hours calendar.TimeRange, slotDurationMin int, breaks []calendar.TimeRange) ([]calendar.TimeOfDay, error) {
	if slotDurationMin <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDuration, slotDurationMin)
	}
	if !hours.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWorkingHours, hours)
	}

	var times []calendar.TimeOfDay
	for t := hours.Start; t.Add(slotDurationMin) <= hours.End; t = t.Add(slotDurationMin) {
		if inBreak(t, breaks) {
			continue
		}
		times = append(times, t)
	}
	return times, nil
}

func inBreak(t calendar.TimeOfDay, breaks []calendar.TimeRange) bool {
	for _, b := range breaks {
		if b.Contains(t) {
			return true
		}
	}
	return false
}

// Cover returns the contiguous slot times needed to hold an appointment of
// durationMin starting at start. The last slot may extend past the end of
// the appointment when durationMin is not a multiple of slotDurationMin.
func Cover(start calendar.TimeOfDay, durationMin, slotDurationMin int) ([]calendar.TimeOfDay, error) {
	if slotDurationMin <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDuration, slotDurationMin)
	}
	if durationMin <= 0 {
		return nil, fmt.Errorf("%w: appointment duration %d", ErrInvalidDuration, durationMin)
	}

	end := start.Add(durationMin)
	var times []calendar.TimeOfDay
	for t := start; t < end; t = t.Add(slotDurationMin) {
		times = append(times, t)
	}
	return times, nil
}

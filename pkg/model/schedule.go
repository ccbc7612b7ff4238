package model

import (
	"time"

	"barbersched/pkg/calendar"
)

const (
	OffReasonNonWorkingDay = "non_working_day"
)

// Slot is one bookable unit of a barber's day.
type Slot struct {
	Time        calendar.TimeOfDay `json:"time" bson:"time"`
	IsBooked    bool               `json:"is_booked" bson:"is_booked"`
	BookingRef  string             `json:"booking_ref,omitempty" bson:"booking_ref,omitempty"`
	IsBlocked   bool               `json:"is_blocked" bson:"is_blocked"`
	BlockReason string             `json:"block_reason,omitempty" bson:"block_reason,omitempty"`
}

func (s Slot) Free() bool {
	return !s.IsBooked && !s.IsBlocked
}

// Schedule is a barber's calendar for a single day. There is at most one
// per (BarberID, Date).
type Schedule struct {
	ID              string               `json:"id,omitempty" bson:"_id,omitempty"`
	BarberID        string               `json:"barber_id" bson:"barber_id"`
	Date            calendar.Day         `json:"date" bson:"date"`
	WorkingHours    calendar.TimeRange   `json:"working_hours" bson:"working_hours"`
	SlotDurationMin int                  `json:"slot_duration_min" bson:"slot_duration_min"`
	BreakTimes      []calendar.TimeRange `json:"break_times" bson:"break_times"`
	AvailableSlots  []Slot               `json:"available_slots" bson:"available_slots"`
	IsOffDay        bool                 `json:"is_off_day" bson:"is_off_day"`
	OffReason       string               `json:"off_reason,omitempty" bson:"off_reason,omitempty"`
	AbsenceRef      string               `json:"absence_ref,omitempty" bson:"absence_ref,omitempty"`
	Version         int64                `json:"version" bson:"version"`
	CreatedAt       time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at" bson:"updated_at"`
}

// SlotIndex returns the position of the slot starting at t, or -1.
func (s *Schedule) SlotIndex(t calendar.TimeOfDay) int {
	for i, slot := range s.AvailableSlots {
		if slot.Time == t {
			return i
		}
	}
	return -1
}

// BookedBy returns the indexes of the slots held by bookingRef.
func (s *Schedule) BookedBy(bookingRef string) []int {
	var idx []int
	for i, slot := range s.AvailableSlots {
		if slot.IsBooked && slot.BookingRef == bookingRef {
			idx = append(idx, i)
		}
	}
	return idx
}

func (s *Schedule) FreeSlots() []calendar.TimeOfDay {
	var free []calendar.TimeOfDay
	for _, slot := range s.AvailableSlots {
		if slot.Free() {
			free = append(free, slot.Time)
		}
	}
	return free
}

type OffDayStatus struct {
	BarberID   string       `json:"barber_id"`
	Date       calendar.Day `json:"date"`
	IsOffDay   bool         `json:"is_off_day"`
	OffReason  string       `json:"off_reason,omitempty"`
	AbsenceRef string       `json:"absence_ref,omitempty"`
}

// Availability answers whether a barber can take bookings on a day.
type Availability struct {
	BarberID        string               `json:"barber_id"`
	Date            calendar.Day         `json:"date"`
	Available       bool                 `json:"available"`
	Reason          string               `json:"reason,omitempty"`
	SlotDurationMin int                  `json:"slot_duration_min"`
	Slots           []calendar.TimeOfDay `json:"slots"`
}

type BlockSlotRequest struct {
	Date    string `json:"date" validate:"required,calendar_day"`
	Time    string `json:"time" validate:"required,time_of_day"`
	Reason  string `json:"reason" validate:"omitempty,max=200"`
	Blocked *bool  `json:"blocked" validate:"required"`
}

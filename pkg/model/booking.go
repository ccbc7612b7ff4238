package model

import (
	"time"

	"barbersched/pkg/calendar"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
	BookingNoShow    BookingStatus = "no_show"
	BookingRejected  BookingStatus = "rejected"
)

// ActiveBookingStatuses hold slots on a schedule.
var ActiveBookingStatuses = []BookingStatus{BookingPending, BookingConfirmed}

func (s BookingStatus) IsActive() bool {
	return s == BookingPending || s == BookingConfirmed
}

// Booking is owned by the booking service. Only the fields the scheduling
// engine reads or writes are mapped.
type Booking struct {
	ID              string        `json:"id,omitempty" bson:"_id,omitempty"`
	CustomerID      string        `json:"customer_id" bson:"customer_id"`
	BarberID        string        `json:"barber_id" bson:"barber_id"`
	ServiceID       string        `json:"service_id" bson:"service_id"`
	BookingDate     time.Time     `json:"booking_date" bson:"booking_date"`
	DurationMinutes int           `json:"duration_minutes" bson:"duration_minutes"`
	Status          BookingStatus `json:"status" bson:"status"`
	AutoAssigned    bool          `json:"auto_assigned,omitempty" bson:"auto_assigned,omitempty"`
	ReassignedFrom  string        `json:"reassigned_from,omitempty" bson:"reassigned_from,omitempty"`
	ReassignedAt    *time.Time    `json:"reassigned_at,omitempty" bson:"reassigned_at,omitempty"`
	ReassignedBy    string        `json:"reassigned_by,omitempty" bson:"reassigned_by,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

func (b *Booking) EndTime() time.Time {
	return b.BookingDate.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

type CompleteBookingRequest struct {
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// SyncResult reports what a synchronisation did to a barber's slots.
type SyncResult struct {
	BookingID    string               `json:"booking_id"`
	BarberID     string               `json:"barber_id"`
	Date         calendar.Day         `json:"date"`
	Booked       []calendar.TimeOfDay `json:"booked,omitempty"`
	Released     []calendar.TimeOfDay `json:"released,omitempty"`
	ReleasedDays int64                `json:"released_days,omitempty"`
	AutoAssigned bool                 `json:"auto_assigned,omitempty"`
	Assignment   *Assignment          `json:"assignment,omitempty"`
	NoOp         bool                 `json:"no_op,omitempty"`
	Note         string               `json:"note,omitempty"`
}

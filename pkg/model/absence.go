package model

import (
	"time"

	"barbersched/pkg/calendar"
)

type AbsenceStatus string

const (
	AbsencePending  AbsenceStatus = "pending"
	AbsenceApproved AbsenceStatus = "approved"
	AbsenceRejected AbsenceStatus = "rejected"
)

type AbsenceReason string

const (
	ReasonVacation        AbsenceReason = "vacation"
	ReasonSickLeave       AbsenceReason = "sick_leave"
	ReasonPersonal        AbsenceReason = "personal"
	ReasonTraining        AbsenceReason = "training"
	ReasonFamilyEmergency AbsenceReason = "family_emergency"
	ReasonOther           AbsenceReason = "other"
)

var AbsenceReasons = []AbsenceReason{
	ReasonVacation, ReasonSickLeave, ReasonPersonal, ReasonTraining, ReasonFamilyEmergency, ReasonOther,
}

type ResolutionStatus string

const (
	ResolutionPendingReschedule ResolutionStatus = "pending_reschedule"
	ResolutionReassigned        ResolutionStatus = "reassigned"
	ResolutionRejected          ResolutionStatus = "rejected"
	ResolutionRescheduled       ResolutionStatus = "rescheduled"
	ResolutionFailed            ResolutionStatus = "failed"
)

// AffectedBooking is a snapshot, taken when the absence is created, of a
// booking that falls inside the absence.
type AffectedBooking struct {
	BookingRef       string             `json:"booking_ref" bson:"booking_ref"`
	OriginalDate     calendar.Day       `json:"original_date" bson:"original_date"`
	OriginalTime     calendar.TimeOfDay `json:"original_time" bson:"original_time"`
	DurationMinutes  int                `json:"duration_minutes" bson:"duration_minutes"`
	ResolutionStatus ResolutionStatus   `json:"resolution_status" bson:"resolution_status"`
	ResolutionNote   string             `json:"resolution_note,omitempty" bson:"resolution_note,omitempty"`
	ResolvedAt       *time.Time         `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
}

type Absence struct {
	ID               string            `json:"id,omitempty" bson:"_id,omitempty"`
	BarberID         string            `json:"barber_id" bson:"barber_id"`
	StartDate        calendar.Day      `json:"start_date" bson:"start_date"`
	EndDate          calendar.Day      `json:"end_date" bson:"end_date"`
	Reason           AbsenceReason     `json:"reason" bson:"reason"`
	Description      string            `json:"description,omitempty" bson:"description,omitempty"`
	Status           AbsenceStatus     `json:"status" bson:"status"`
	ApprovedBy       string            `json:"approved_by,omitempty" bson:"approved_by,omitempty"`
	ApprovedAt       *time.Time        `json:"approved_at,omitempty" bson:"approved_at,omitempty"`
	RejectedBy       string            `json:"rejected_by,omitempty" bson:"rejected_by,omitempty"`
	RejectedAt       *time.Time        `json:"rejected_at,omitempty" bson:"rejected_at,omitempty"`
	RejectionReason  string            `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	AffectedBookings []AffectedBooking `json:"affected_bookings" bson:"affected_bookings"`
	CreatedBy        string            `json:"created_by" bson:"created_by"`
	CreatedAt        time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" bson:"updated_at"`
}

func (a *Absence) Covers(d calendar.Day) bool {
	return d.Within(a.StartDate, a.EndDate)
}

func (a *Absence) Days() []calendar.Day {
	return calendar.Range(a.StartDate, a.EndDate)
}

// AbsenceRequest is the wire form of a new absence. Dates stay strings here
// and are parsed once by the service.
type AbsenceRequest struct {
	BarberID    string `json:"barber_id" validate:"required,max=64"`
	StartDate   string `json:"start_date" validate:"required,calendar_day"`
	EndDate     string `json:"end_date" validate:"required,calendar_day"`
	Reason      string `json:"reason" validate:"required,absence_reason"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

type AbsenceFilter struct {
	BarberID string
	Status   AbsenceStatus
	Limit    int
	Offset   int64
}

type BookingActionType string

const (
	ActionReassign BookingActionType = "reassign"
	ActionReject   BookingActionType = "reject"
)

type BookingAction struct {
	BookingID   string            `json:"booking_id" validate:"required,max=64"`
	Action      BookingActionType `json:"action" validate:"required,booking_action"`
	NewBarberID string            `json:"new_barber_id,omitempty" validate:"required_if=Action reassign,max=64"`
	Reason      string            `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type ProcessApprovalRequest struct {
	Actions []BookingAction `json:"actions" validate:"omitempty,max=500,dive"`
}

type RejectAbsenceRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type RescheduleRequest struct {
	BookingID   string `json:"booking_id" validate:"required,max=64"`
	NewBarberID string `json:"new_barber_id,omitempty" validate:"omitempty,max=64"`
	NewDate     string `json:"new_date" validate:"required,calendar_day"`
	NewTime     string `json:"new_time" validate:"required,time_of_day"`
}

type BookingActionResult struct {
	BookingID   string            `json:"booking_id"`
	Action      BookingActionType `json:"action"`
	Success     bool              `json:"success"`
	NewBarberID string            `json:"new_barber_id,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// ApprovalResult reports the outcome of approving or rejecting an absence.
// Warnings carry schedule writes that failed after the decision was stored.
type ApprovalResult struct {
	Absence      *Absence `json:"absence"`
	DaysUpdated  int      `json:"days_updated"`
	DaysSkipped  int      `json:"days_skipped"`
	DaysHandedOn int      `json:"days_handed_on,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

type ProcessApprovalResult struct {
	ApprovalResult
	Results   []BookingActionResult `json:"results"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

func (r AbsenceReason) Valid() bool {
	for _, known := range AbsenceReasons {
		if r == known {
			return true
		}
	}
	return false
}

func AbsenceReasonNames() []string {
	names := make([]string, len(AbsenceReasons))
	for i, r := range AbsenceReasons {
		names[i] = string(r)
	}
	return names
}

func (a BookingActionType) Valid() bool {
	return a == ActionReassign || a == ActionReject
}

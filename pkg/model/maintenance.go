package model

import (
	"time"

	"barbersched/pkg/calendar"
)

type InitResult struct {
	From             calendar.Day `json:"from"`
	To               calendar.Day `json:"to"`
	Barbers          int          `json:"barbers"`
	SchedulesEnsured int          `json:"schedules_ensured"`
	Warnings         []string     `json:"warnings,omitempty"`
}

type MaintenanceReport struct {
	StartedAt        time.Time    `json:"started_at"`
	FinishedAt       time.Time    `json:"finished_at"`
	DeletedBefore    calendar.Day `json:"deleted_before"`
	SchedulesDeleted int64        `json:"schedules_deleted"`
	Init             *InitResult  `json:"init"`
}

// IssueKind names a schedule inconsistency:
//   - orphan_slot: a slot held by a booking that is not active on that barber
//     and day
//   - missing_slots: an active booking that does not hold every slot it covers
//   - absence_day_not_off: a working day of an approved absence that is not off
//   - stale_off_day: an off day owned by an absence that is no longer approved
type IssueKind string

const (
	IssueOrphanSlot    IssueKind = "orphan_slot"
	IssueMissingSlots  IssueKind = "missing_slots"
	IssueAbsenceNotOff IssueKind = "absence_day_not_off"
	IssueStaleOffDay   IssueKind = "stale_off_day"
)

type ConsistencyQuery struct {
	BarberID string
	From     calendar.Day
	To       calendar.Day
	Fix      bool
}

type ConsistencyIssue struct {
	Kind       IssueKind            `json:"kind"`
	BarberID   string               `json:"barber_id"`
	Date       calendar.Day         `json:"date"`
	Times      []calendar.TimeOfDay `json:"times,omitempty"`
	BookingRef string               `json:"booking_ref,omitempty"`
	AbsenceRef string               `json:"absence_ref,omitempty"`
	Detail     string               `json:"detail"`
	Fixed      bool                 `json:"fixed"`
	FixError   string               `json:"fix_error,omitempty"`
}

type ConsistencyReport struct {
	From             calendar.Day       `json:"from"`
	To               calendar.Day       `json:"to"`
	BarberID         string             `json:"barber_id,omitempty"`
	SchedulesChecked int                `json:"schedules_checked"`
	Issues           []ConsistencyIssue `json:"issues"`
	Fixed            int                `json:"fixed"`
}

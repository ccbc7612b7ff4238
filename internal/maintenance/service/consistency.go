package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	bookingsrepo "barbersched/internal/bookings/repository"
	schedulesrepo "barbersched/internal/schedules/repository"
	schedules "barbersched/internal/schedules/service"
	"barbersched/internal/slots"
	"barbersched/pkg/actor"
	"barbersched/pkg/calendar"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/model"
)

type dayKey struct {
	barberID string
	day      calendar.Day
}

// consistencyScan holds what one ValidateScheduleConsistency call loaded.
type consistencyScan struct {
	query     model.ConsistencyQuery
	schedules map[dayKey]*model.Schedule
	// expected lists, per day, the slot times each known booking may hold.
	expected map[dayKey]map[string]map[calendar.TimeOfDay]bool
	bookings []*model.Booking
	absences []*model.Absence
	approved map[string]*model.Absence
}

func (s *maintenanceService) ValidateScheduleConsistency(ctx context.Context, query model.ConsistencyQuery) (*model.ConsistencyReport, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAdmin(caller); err != nil {
		return nil, err
	}

	if query.From.IsZero() {
		query.From = s.today()
	}
	if query.To.IsZero() {
		query.To = query.From.AddDays(s.cfg.ScheduleHorizonDays)
	}
	if query.To.Before(query.From) {
		return nil, apperrors.InvalidInput("to must not be before from")
	}
	if len(calendar.Range(query.From, query.To)) > MaxConsistencyDays {
		return nil, apperrors.InvalidInput(fmt.Sprintf("range must not exceed %d days", MaxConsistencyDays))
	}

	scan, err := s.loadScan(ctx, query)
	if err != nil {
		return nil, err
	}

	report := &model.ConsistencyReport{
		From:             query.From,
		To:               query.To,
		BarberID:         query.BarberID,
		SchedulesChecked: len(scan.schedules),
		Issues:           []model.ConsistencyIssue{},
	}
	report.Issues = append(report.Issues, s.checkOrphanSlots(ctx, scan)...)
	report.Issues = append(report.Issues, s.checkMissingSlots(ctx, scan)...)
	report.Issues = append(report.Issues, s.checkAbsenceDays(ctx, scan)...)
	report.Issues = append(report.Issues, s.checkStaleOffDays(ctx, scan)...)

	sort.Slice(report.Issues, func(i, j int) bool {
		a, b := report.Issues[i], report.Issues[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.BarberID != b.BarberID {
			return a.BarberID < b.BarberID
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.BookingRef < b.BookingRef
	})
	for _, issue := range report.Issues {
		if issue.Fixed {
			report.Fixed++
		}
	}

	level := s.cfg.Log.Info
	if len(report.Issues) > report.Fixed {
		level = s.cfg.Log.Warn
	}
	level("Schedule consistency checked",
		"from", query.From,
		"to", query.To,
		"barber_id", query.BarberID,
		"schedules", report.SchedulesChecked,
		"issues", len(report.Issues),
		"fixed", report.Fixed,
		"fix", query.Fix,
	)
	return report, nil
}

func (s *maintenanceService) loadScan(ctx context.Context, query model.ConsistencyQuery) (*consistencyScan, error) {
	found, err := s.store.Find(ctx, schedulesrepo.Filter{BarberID: query.BarberID, From: query.From, To: query.To})
	if err != nil {
		return nil, apperrors.Internal("Failed to load schedules", err)
	}

	loc := s.cfg.Location
	bookings, err := s.bookings.FindActive(ctx, bookingsrepo.Filter{
		BarberID:         query.BarberID,
		From:             query.From.Start(loc),
		To:               query.To.AddDays(1).Start(loc),
		IncludeCompleted: true,
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to load bookings", err)
	}

	absences, err := s.absences.FindApproved(ctx, query.BarberID, query.From, query.To)
	if err != nil {
		return nil, apperrors.Internal("Failed to load absences", err)
	}

	scan := &consistencyScan{
		query:     query,
		schedules: make(map[dayKey]*model.Schedule, len(found)),
		expected:  make(map[dayKey]map[string]map[calendar.TimeOfDay]bool),
		absences:  absences,
		approved:  make(map[string]*model.Absence, len(absences)),
	}
	for _, sc := range found {
		scan.schedules[dayKey{sc.BarberID, sc.Date}] = sc
	}
	for _, a := range absences {
		scan.approved[a.ID] = a
	}
	for _, b := range bookings {
		if b.BarberID == "" {
			continue
		}
		day, start := calendar.Split(b.BookingDate, loc)
		key := dayKey{b.BarberID, day}
		times, err := slots.Cover(start, b.DurationMinutes, s.slotDuration(scan.schedules[key]))
		if err != nil {
			continue
		}
		if scan.expected[key] == nil {
			scan.expected[key] = make(map[string]map[calendar.TimeOfDay]bool)
		}
		set := make(map[calendar.TimeOfDay]bool, len(times))
		for _, t := range times {
			set[t] = true
		}
		scan.expected[key][b.ID] = set
		if b.Status.IsActive() {
			scan.bookings = append(scan.bookings, b)
		}
	}
	return scan, nil
}

func (s *maintenanceService) slotDuration(sc *model.Schedule) int {
	if sc != nil && sc.SlotDurationMin > 0 {
		return sc.SlotDurationMin
	}
	return s.cfg.DefaultSlotDurationMin
}

// checkOrphanSlots reports booked slots no known booking accounts for.
func (s *maintenanceService) checkOrphanSlots(ctx context.Context, scan *consistencyScan) []model.ConsistencyIssue {
	var issues []model.ConsistencyIssue
	for key, sc := range scan.schedules {
		held := make(map[string][]calendar.TimeOfDay)
		var refs []string
		for _, slot := range sc.AvailableSlots {
			if !slot.IsBooked || scan.expected[key][slot.BookingRef][slot.Time] {
				continue
			}
			if _, seen := held[slot.BookingRef]; !seen {
				refs = append(refs, slot.BookingRef)
			}
			held[slot.BookingRef] = append(held[slot.BookingRef], slot.Time)
		}

		for _, ref := range refs {
			issue := model.ConsistencyIssue{
				Kind:       model.IssueOrphanSlot,
				BarberID:   key.barberID,
				Date:       key.day,
				Times:      held[ref],
				BookingRef: ref,
				Detail:     "slots held by a booking that is not active here",
			}
			if scan.query.Fix {
				_, err := s.store.ReleaseTimes(ctx, key.barberID, key.day, ref, held[ref])
				s.applyFix(&issue, err)
			}
			issues = append(issues, issue)
		}
	}
	return issues
}

// checkMissingSlots reports active bookings that do not hold every slot they
// cover.
func (s *maintenanceService) checkMissingSlots(ctx context.Context, scan *consistencyScan) []model.ConsistencyIssue {
	var issues []model.ConsistencyIssue
	loc := s.cfg.Location
	for _, b := range scan.bookings {
		day, start := calendar.Split(b.BookingDate, loc)
		key := dayKey{b.BarberID, day}
		sc := scan.schedules[key]

		var missing []calendar.TimeOfDay
		for t := range scan.expected[key][b.ID] {
			if sc == nil {
				missing = append(missing, t)
				continue
			}
			i := sc.SlotIndex(t)
			if i < 0 || !sc.AvailableSlots[i].IsBooked || sc.AvailableSlots[i].BookingRef != b.ID {
				missing = append(missing, t)
			}
		}
		if len(missing) == 0 {
			continue
		}
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })

		issue := model.ConsistencyIssue{
			Kind:       model.IssueMissingSlots,
			BarberID:   b.BarberID,
			Date:       day,
			Times:      missing,
			BookingRef: b.ID,
			Detail:     "active booking does not hold all of its slots",
		}
		if scan.query.Fix {
			_, err := s.store.BookSlots(ctx, b.BarberID, day, start, b.DurationMinutes, b.ID)
			s.applyFix(&issue, err)
		}
		issues = append(issues, issue)
	}
	return issues
}

// checkAbsenceDays reports working days of approved absences that are not
// off.
func (s *maintenanceService) checkAbsenceDays(ctx context.Context, scan *consistencyScan) []model.ConsistencyIssue {
	var issues []model.ConsistencyIssue
	reported := make(map[dayKey]bool)
	for _, a := range scan.absences {
		for _, day := range a.Days() {
			if !day.Within(scan.query.From, scan.query.To) || !s.cfg.IsWorkingDay(day.Weekday()) {
				continue
			}
			key := dayKey{a.BarberID, day}
			if reported[key] {
				continue
			}
			if sc := scan.schedules[key]; sc != nil && sc.IsOffDay {
				continue
			}
			reported[key] = true

			issue := model.ConsistencyIssue{
				Kind:       model.IssueAbsenceNotOff,
				BarberID:   a.BarberID,
				Date:       day,
				AbsenceRef: a.ID,
				Detail:     "approved absence day is not off",
			}
			if scan.query.Fix {
				outcome, err := s.store.MarkOffDay(ctx, a.BarberID, day, a.ID, string(a.Reason))
				if err == nil && outcome != schedules.OffDayMarked {
					err = errors.New("day is off under another absence")
				}
				s.applyFix(&issue, err)
			}
			issues = append(issues, issue)
		}
	}
	return issues
}

// checkStaleOffDays reports off days owned by an absence that is not
// approved. A fix hands the day to another approved absence covering it, or
// clears it.
func (s *maintenanceService) checkStaleOffDays(ctx context.Context, scan *consistencyScan) []model.ConsistencyIssue {
	var issues []model.ConsistencyIssue
	for key, sc := range scan.schedules {
		if !sc.IsOffDay || sc.AbsenceRef == "" {
			continue
		}
		if a, ok := scan.approved[sc.AbsenceRef]; ok && a.BarberID == sc.BarberID && a.Covers(sc.Date) {
			continue
		}

		issue := model.ConsistencyIssue{
			Kind:       model.IssueStaleOffDay,
			BarberID:   key.barberID,
			Date:       key.day,
			AbsenceRef: sc.AbsenceRef,
			Detail:     "off day owned by an absence that is not approved",
		}
		if scan.query.Fix {
			var (
				changed bool
				err     error
			)
			if heir := scan.heir(key); heir != nil {
				changed, err = s.store.TransferOffDay(ctx, key.barberID, key.day, sc.AbsenceRef, heir.ID, string(heir.Reason))
			} else {
				changed, err = s.store.ClearOffDay(ctx, key.barberID, key.day, sc.AbsenceRef)
			}
			if err == nil && !changed {
				err = errors.New("day changed owner during the scan")
			}
			s.applyFix(&issue, err)
		}
		issues = append(issues, issue)
	}
	return issues
}

// heir returns the earliest approved absence of the barber covering the day.
func (scan *consistencyScan) heir(key dayKey) *model.Absence {
	for _, a := range scan.absences {
		if a.BarberID == key.barberID && a.Covers(key.day) {
			return a
		}
	}
	return nil
}

func (s *maintenanceService) applyFix(issue *model.ConsistencyIssue, err error) {
	if err != nil {
		issue.FixError = err.Error()
		s.cfg.Log.Warn("Failed to repair schedule",
			"kind", issue.Kind,
			"barber_id", issue.BarberID,
			"date", issue.Date,
			"error", err,
		)
		return
	}
	issue.Fixed = true
}

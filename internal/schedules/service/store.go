package service

import (
	"context"
	"errors"
	"fmt"

	scheduleserrors "barbersched/internal/schedules/errors"
	"barbersched/internal/schedules/repository"
	"barbersched/internal/slots"
	"barbersched/pkg/calendar"
	"barbersched/pkg/config"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/metrics"
	"barbersched/pkg/model"
)

type OffDayOutcome int

const (
	OffDayMarked OffDayOutcome = iota
	// OffDaySkipped means the day was left alone: it is a non-working day or
	// another absence already owns it.
	OffDaySkipped
)

// Store is the single writer of schedule documents. Every slot or off-day
// change goes through a conditional repository update.
type Store struct {
	repo repository.ScheduleRepository
	cfg  *config.Config
}

func NewStore(repo repository.ScheduleRepository, cfg *config.Config) *Store {
	return &Store{repo: repo, cfg: cfg}
}

// Seed builds the default schedule of a barber's day without storing it.
func (s *Store) Seed(barberID string, day calendar.Day) (*model.Schedule, error) {
	times, err := slots.Generate(s.cfg.WorkingHours, s.cfg.DefaultSlotDurationMin, s.cfg.BreakTimes)
	if err != nil {
		return nil, fmt.Errorf("generating slots for %s: %w", day, err)
	}

	sc := &model.Schedule{
		BarberID:        barberID,
		Date:            day,
		WorkingHours:    s.cfg.WorkingHours,
		SlotDurationMin: s.cfg.DefaultSlotDurationMin,
		BreakTimes:      append([]calendar.TimeRange(nil), s.cfg.BreakTimes...),
		AvailableSlots:  make([]model.Slot, 0, len(times)),
	}
	for _, t := range times {
		sc.AvailableSlots = append(sc.AvailableSlots, model.Slot{Time: t})
	}
	if !s.cfg.IsWorkingDay(day.Weekday()) {
		sc.IsOffDay = true
		sc.OffReason = model.OffReasonNonWorkingDay
	}
	return sc, nil
}

// GetOrCreate returns the barber's schedule for day, creating the default
// one on first access.
func (s *Store) GetOrCreate(ctx context.Context, barberID string, day calendar.Day) (*model.Schedule, error) {
	sc, err := s.repo.FindByBarberAndDate(ctx, barberID, day)
	if err == nil {
		return sc, nil
	}
	if !errors.Is(err, scheduleserrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to load schedule",
			"barber_id", barberID,
			"date", day,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load schedule", err)
	}

	seed, err := s.Seed(barberID, day)
	if err != nil {
		return nil, apperrors.Internal("Failed to build default schedule", err)
	}
	sc, err = s.repo.Insert(ctx, seed)
	if err != nil {
		s.cfg.Log.Error("Failed to create schedule",
			"barber_id", barberID,
			"date", day,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create schedule", err)
	}

	s.cfg.Log.Debug("Schedule created",
		"barber_id", barberID,
		"date", day,
		"slots", len(sc.AvailableSlots),
		"is_off_day", sc.IsOffDay,
	)
	return sc, nil
}

// BookSlots marks the slots covering [start, start+durationMin) as held by
// bookingRef in one conditional write. Slots bookingRef already holds are
// kept, so booking the same ref twice is a no-op. A lost race returns a
// SLOT_UNAVAILABLE AppError wrapping ErrSlotUnavailable.
func (s *Store) BookSlots(ctx context.Context, barberID string, day calendar.Day, start calendar.TimeOfDay, durationMin int, bookingRef string) ([]calendar.TimeOfDay, error) {
	sc, err := s.GetOrCreate(ctx, barberID, day)
	if err != nil {
		return nil, err
	}

	times, err := slots.Cover(start, durationMin, sc.SlotDurationMin)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	if sc.IsOffDay {
		return nil, slotUnavailable(barberID, day, start, scheduleserrors.ErrSlotUnavailable)
	}

	idx := make([]int, 0, len(times))
	pending := make([]calendar.TimeOfDay, 0, len(times))
	for _, t := range times {
		i := sc.SlotIndex(t)
		if i < 0 {
			return nil, slotUnavailable(barberID, day, t, scheduleserrors.ErrSlotNotFound)
		}
		slot := sc.AvailableSlots[i]
		if slot.IsBooked && slot.BookingRef == bookingRef {
			continue
		}
		idx = append(idx, i)
		pending = append(pending, t)
	}
	if len(idx) == 0 {
		return times, nil
	}

	if err := s.repo.BookSlots(ctx, barberID, day, idx, pending, bookingRef); err != nil {
		if errors.Is(err, scheduleserrors.ErrSlotUnavailable) {
			metrics.IncSlotConflict()
			s.cfg.Log.Warn("Slot booking lost to a concurrent write",
				"barber_id", barberID,
				"date", day,
				"time", start,
				"booking_ref", bookingRef,
			)
			return nil, slotUnavailable(barberID, day, start, err)
		}
		s.cfg.Log.Error("Failed to book slots",
			"barber_id", barberID,
			"date", day,
			"booking_ref", bookingRef,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to book slots", err)
	}
	return times, nil
}

func slotUnavailable(barberID string, day calendar.Day, t calendar.TimeOfDay, cause error) *apperrors.AppError {
	appErr := apperrors.SlotUnavailable(barberID, day.String(), t.String())
	appErr.Err = cause
	return appErr
}

// ReleaseBooking frees every slot of barberID held by bookingRef, on any day.
func (s *Store) ReleaseBooking(ctx context.Context, barberID, bookingRef string) (int64, error) {
	n, err := s.repo.ReleaseSlots(ctx, repository.Release{BarberID: barberID, BookingRef: bookingRef})
	if err != nil {
		s.cfg.Log.Error("Failed to release booking slots",
			"barber_id", barberID,
			"booking_ref", bookingRef,
			"error", err,
		)
		return 0, apperrors.Internal("Failed to release slots", err)
	}
	return n, nil
}

// HeldTimes lists the slot times bookingRef holds on day.
func (s *Store) HeldTimes(ctx context.Context, barberID string, day calendar.Day, bookingRef string) ([]calendar.TimeOfDay, error) {
	sc, err := s.repo.FindByBarberAndDate(ctx, barberID, day)
	if err != nil {
		if errors.Is(err, scheduleserrors.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal("Failed to load schedule", err)
	}
	var held []calendar.TimeOfDay
	for _, i := range sc.BookedBy(bookingRef) {
		held = append(held, sc.AvailableSlots[i].Time)
	}
	return held, nil
}

// ReleaseTimes frees the listed slots of bookingRef on one day.
func (s *Store) ReleaseTimes(ctx context.Context, barberID string, day calendar.Day, bookingRef string, times []calendar.TimeOfDay) (int64, error) {
	if len(times) == 0 {
		return 0, nil
	}
	n, err := s.repo.ReleaseSlots(ctx, repository.Release{
		BarberID:   barberID,
		Day:        day,
		BookingRef: bookingRef,
		Times:      times,
	})
	if err != nil {
		return 0, apperrors.Internal("Failed to release slots", err)
	}
	return n, nil
}

// ReleaseAll frees the slots held by bookingRef on every barber's schedule.
func (s *Store) ReleaseAll(ctx context.Context, bookingRef string) (int64, error) {
	return s.ReleaseBooking(ctx, "", bookingRef)
}

// ReleaseFrom frees the slots of bookingRef on day whose time is at or after
// from, and returns the times it freed.
func (s *Store) ReleaseFrom(ctx context.Context, barberID string, day calendar.Day, bookingRef string, from calendar.TimeOfDay) ([]calendar.TimeOfDay, error) {
	sc, err := s.repo.FindByBarberAndDate(ctx, barberID, day)
	if err != nil {
		if errors.Is(err, scheduleserrors.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal("Failed to load schedule", err)
	}

	var freed []calendar.TimeOfDay
	for _, i := range sc.BookedBy(bookingRef) {
		if t := sc.AvailableSlots[i].Time; t >= from {
			freed = append(freed, t)
		}
	}
	if len(freed) == 0 {
		return nil, nil
	}

	if _, err := s.repo.ReleaseSlots(ctx, repository.Release{
		BarberID:   barberID,
		Day:        day,
		BookingRef: bookingRef,
		From:       &from,
	}); err != nil {
		s.cfg.Log.Error("Failed to release remaining slots",
			"barber_id", barberID,
			"date", day,
			"booking_ref", bookingRef,
			"from", from,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to release slots", err)
	}
	return freed, nil
}

// SetBlocked blocks or unblocks one slot. Booked slots cannot be blocked.
func (s *Store) SetBlocked(ctx context.Context, barberID string, day calendar.Day, t calendar.TimeOfDay, blocked bool, reason string) error {
	sc, err := s.GetOrCreate(ctx, barberID, day)
	if err != nil {
		return err
	}
	i := sc.SlotIndex(t)
	if i < 0 {
		return apperrors.NotFoundWithID("Slot", day.String()+" "+t.String())
	}
	if err := s.repo.SetSlotBlocked(ctx, barberID, day, i, t, blocked, reason); err != nil {
		if errors.Is(err, scheduleserrors.ErrSlotUnavailable) {
			return apperrors.Conflict("Slot is booked and cannot be blocked")
		}
		return apperrors.Internal("Failed to update slot", err)
	}
	return nil
}

// MarkOffDay sets day off under absenceRef. Days on non-working weekdays and
// days owned by another absence are skipped.
func (s *Store) MarkOffDay(ctx context.Context, barberID string, day calendar.Day, absenceRef, reason string) (OffDayOutcome, error) {
	seed, err := s.Seed(barberID, day)
	if err != nil {
		return OffDaySkipped, err
	}
	if seed.IsOffDay {
		return OffDaySkipped, nil
	}

	if err := s.repo.MarkOffDay(ctx, seed, absenceRef, reason); err != nil {
		if errors.Is(err, scheduleserrors.ErrOffDayClaimed) {
			return OffDaySkipped, nil
		}
		return OffDaySkipped, err
	}
	return OffDayMarked, nil
}

func (s *Store) ClearOffDay(ctx context.Context, barberID string, day calendar.Day, absenceRef string) (bool, error) {
	return s.repo.ClearOffDay(ctx, barberID, day, absenceRef)
}

// TransferOffDay hands a day owned by fromRef over to toRef.
func (s *Store) TransferOffDay(ctx context.Context, barberID string, day calendar.Day, fromRef, toRef, reason string) (bool, error) {
	return s.repo.TransferOffDay(ctx, barberID, day, fromRef, toRef, reason)
}

func (s *Store) Find(ctx context.Context, filter repository.Filter) ([]*model.Schedule, error) {
	return s.repo.Find(ctx, filter)
}

func (s *Store) DeleteBefore(ctx context.Context, day calendar.Day) (int64, error) {
	return s.repo.DeleteBefore(ctx, day)
}

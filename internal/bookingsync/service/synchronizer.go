package service

import (
	"context"
	"fmt"
	"time"

	"barbersched/pkg/calendar"
	"barbersched/pkg/clock"
	"barbersched/pkg/config"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/events"
	"barbersched/pkg/metrics"
	"barbersched/pkg/model"
)

const (
	NoteCompletedOnTime = "completed at or after the scheduled end, nothing to release"

	maxRankRounds = 3
)

// SlotStore is the part of the schedule store the synchronizer writes to.
// Slots are held under the booking id.
type SlotStore interface {
	BookSlots(ctx context.Context, barberID string, day calendar.Day, start calendar.TimeOfDay, durationMin int, bookingRef string) ([]calendar.TimeOfDay, error)
	HeldTimes(ctx context.Context, barberID string, day calendar.Day, bookingRef string) ([]calendar.TimeOfDay, error)
	ReleaseTimes(ctx context.Context, barberID string, day calendar.Day, bookingRef string, times []calendar.TimeOfDay) (int64, error)
	ReleaseFrom(ctx context.Context, barberID string, day calendar.Day, bookingRef string, from calendar.TimeOfDay) ([]calendar.TimeOfDay, error)
	ReleaseAll(ctx context.Context, bookingRef string) (int64, error)
}

type Ranker interface {
	Rank(ctx context.Context, query model.AssignmentQuery) (*model.Assignment, error)
}

type AssignmentRecorder interface {
	MarkAutoAssigned(ctx context.Context, id, barberID string) error
}

// Synchronizer keeps schedule slots in step with the booking lifecycle.
type Synchronizer struct {
	slots     SlotStore
	recorder  AssignmentRecorder
	ranker    Ranker
	publisher events.Publisher
	clock     clock.Clock
	cfg       *config.Config
}

func NewSynchronizer(
	slots SlotStore,
	recorder AssignmentRecorder,
	ranker Ranker,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
) *Synchronizer {
	return &Synchronizer{
		slots:     slots,
		recorder:  recorder,
		ranker:    ranker,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *Synchronizer) split(t time.Time) (calendar.Day, calendar.TimeOfDay) {
	return calendar.Split(t, s.cfg.Location)
}

// Book holds the slots covering the booking. A booking without a barber is
// auto-assigned first.
func (s *Synchronizer) Book(ctx context.Context, b *model.Booking) (*model.SyncResult, error) {
	if b.BarberID == "" {
		return s.autoAssign(ctx, b)
	}

	day, start := s.split(b.BookingDate)
	times, err := s.slots.BookSlots(ctx, b.BarberID, day, start, b.DurationMinutes, b.ID)
	if err != nil {
		metrics.IncSlotSync("book", "failed")
		return nil, err
	}
	metrics.IncSlotSync("book", "ok")

	result := &model.SyncResult{BookingID: b.ID, BarberID: b.BarberID, Date: day, Booked: times}
	s.publishBooked(ctx, result)
	return result, nil
}

// autoAssign books the slot with the best ranked barber that can still take
// it. When every ranked barber lost the slot to a concurrent write, the
// ranking is asked again: the losers now show the slot as taken, so
// barbers from a busier load tier get their turn.
func (s *Synchronizer) autoAssign(ctx context.Context, b *model.Booking) (*model.SyncResult, error) {
	day, start := s.split(b.BookingDate)
	query := model.AssignmentQuery{
		ServiceID:       b.ServiceID,
		Date:            day,
		TimeSlot:        &start,
		DurationMinutes: b.DurationMinutes,
	}

	tried := make(map[string]bool)
	for round := 0; round < maxRankRounds; round++ {
		assignment, err := s.ranker.Rank(ctx, query)
		if err != nil {
			if round > 0 && apperrors.HasCode(err, apperrors.CodeConflict) {
				break
			}
			metrics.IncAutoAssignment("no_candidate")
			return nil, err
		}

		var fresh []model.CandidateScore
		for _, c := range append([]model.CandidateScore{assignment.Selected}, assignment.Alternatives...) {
			if !tried[c.BarberID] {
				fresh = append(fresh, c)
			}
		}
		if len(fresh) == 0 {
			break
		}

		for _, candidate := range fresh {
			tried[candidate.BarberID] = true
			times, err := s.slots.BookSlots(ctx, candidate.BarberID, day, start, b.DurationMinutes, b.ID)
			if apperrors.HasCode(err, apperrors.CodeSlotUnavailable) {
				s.cfg.Log.Info("Ranked barber lost the slot, trying next",
					"booking_id", b.ID,
					"barber_id", candidate.BarberID,
					"round", round,
				)
				continue
			}
			if err != nil {
				return nil, err
			}
			return s.commitAssignment(ctx, b, assignment, candidate, day, start, times)
		}
	}

	metrics.IncAutoAssignment("exhausted")
	return nil, apperrors.SlotUnavailable("", day.String(), start.String()).
		WithDetails(map[string]any{
			"booking_id": b.ID,
			"date":       day.String(),
			"time":       start.String(),
			"tried":      len(tried),
		})
}

func (s *Synchronizer) commitAssignment(
	ctx context.Context,
	b *model.Booking,
	assignment *model.Assignment,
	candidate model.CandidateScore,
	day calendar.Day,
	start calendar.TimeOfDay,
	times []calendar.TimeOfDay,
) (*model.SyncResult, error) {
	if err := s.recorder.MarkAutoAssigned(ctx, b.ID, candidate.BarberID); err != nil {
		if _, rerr := s.slots.ReleaseTimes(ctx, candidate.BarberID, day, b.ID, times); rerr != nil {
			s.cfg.Log.Error("Failed to roll back auto-assigned slots",
				"booking_id", b.ID,
				"barber_id", candidate.BarberID,
				"error", rerr,
			)
		}
		metrics.IncAutoAssignment("failed")
		return nil, apperrors.Conflict("Booking changed while it was being assigned").
			WithDetails(map[string]any{"booking_id": b.ID})
	}

	assignment.Selected = candidate
	b.BarberID = candidate.BarberID
	b.AutoAssigned = true
	metrics.IncAutoAssignment("assigned")
	metrics.IncSlotSync("book", "ok")

	s.cfg.Log.Info("Booking auto-assigned",
		"booking_id", b.ID,
		"barber_id", candidate.BarberID,
		"score", candidate.FinalScore,
		"date", day,
		"time", start,
	)
	result := &model.SyncResult{
		BookingID:    b.ID,
		BarberID:     candidate.BarberID,
		Date:         day,
		Booked:       times,
		AutoAssigned: true,
		Assignment:   assignment,
	}
	s.publish(ctx, events.Event{Type: events.BookingAssigned, Key: candidate.BarberID, Payload: result})
	s.publishBooked(ctx, result)
	return result, nil
}

// Release frees every slot the booking holds on any schedule.
func (s *Synchronizer) Release(ctx context.Context, b *model.Booking) (*model.SyncResult, error) {
	n, err := s.slots.ReleaseAll(ctx, b.ID)
	if err != nil {
		metrics.IncSlotSync("release", "failed")
		return nil, err
	}
	metrics.IncSlotSync("release", "ok")

	day, _ := s.split(b.BookingDate)
	result := &model.SyncResult{BookingID: b.ID, BarberID: b.BarberID, Date: day, ReleasedDays: n}
	if n == 0 {
		result.NoOp = true
		result.Note = "booking held no slots"
		return result, nil
	}
	s.publish(ctx, events.Event{Type: events.SlotsReleased, Key: b.BarberID, Payload: result})
	return result, nil
}

// Move puts the booking on toBarberID at newStart. The new slots are booked
// before commit runs and before the old slots are freed, so the booking holds
// a slot at every point. A failed commit releases what was just booked.
func (s *Synchronizer) Move(ctx context.Context, b *model.Booking, toBarberID string, newStart time.Time, commit func(ctx context.Context) error) (*model.SyncResult, error) {
	if toBarberID == "" {
		toBarberID = b.BarberID
	}
	if newStart.IsZero() {
		newStart = b.BookingDate
	}

	oldDay, _ := s.split(b.BookingDate)
	newDay, start := s.split(newStart)
	sameDay := toBarberID == b.BarberID && oldDay.Equal(newDay)

	var held []calendar.TimeOfDay
	if sameDay {
		var err error
		if held, err = s.slots.HeldTimes(ctx, b.BarberID, oldDay, b.ID); err != nil {
			return nil, err
		}
	}

	booked, err := s.slots.BookSlots(ctx, toBarberID, newDay, start, b.DurationMinutes, b.ID)
	if err != nil {
		metrics.IncSlotSync("move", "failed")
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			fresh := subtract(booked, held)
			if _, rerr := s.slots.ReleaseTimes(ctx, toBarberID, newDay, b.ID, fresh); rerr != nil {
				s.cfg.Log.Error("Failed to roll back moved slots",
					"booking_id", b.ID,
					"barber_id", toBarberID,
					"date", newDay,
					"error", rerr,
				)
			}
			metrics.IncSlotSync("move", "failed")
			return nil, err
		}
	}

	result := &model.SyncResult{BookingID: b.ID, BarberID: toBarberID, Date: newDay, Booked: booked}

	var stale []calendar.TimeOfDay
	if sameDay {
		stale = subtract(held, booked)
		if _, err := s.slots.ReleaseTimes(ctx, b.BarberID, oldDay, b.ID, stale); err != nil {
			s.warnRelease(b, oldDay, err)
		}
	} else if b.BarberID != "" {
		stale, err = s.slots.ReleaseFrom(ctx, b.BarberID, oldDay, b.ID, 0)
		if err != nil {
			s.warnRelease(b, oldDay, err)
		}
	}
	result.Released = stale

	metrics.IncSlotSync("move", "ok")
	s.publishBooked(ctx, result)
	if len(stale) > 0 {
		s.publish(ctx, events.Event{
			Type: events.SlotsReleased,
			Key:  b.BarberID,
			Payload: &model.SyncResult{
				BookingID: b.ID,
				BarberID:  b.BarberID,
				Date:      oldDay,
				Released:  stale,
			},
		})
	}
	return result, nil
}

// CompleteEarly frees the booking's slots that start at or after
// completedAt. Completing at or after the scheduled end frees nothing.
func (s *Synchronizer) CompleteEarly(ctx context.Context, b *model.Booking, completedAt time.Time) (*model.SyncResult, error) {
	day, _ := s.split(b.BookingDate)
	result := &model.SyncResult{BookingID: b.ID, BarberID: b.BarberID, Date: day}

	if !completedAt.Before(b.EndTime()) {
		result.NoOp = true
		result.Note = NoteCompletedOnTime
		metrics.IncSlotSync("complete", "noop")
		return result, nil
	}

	var from calendar.TimeOfDay
	if completedAt.After(b.BookingDate) {
		_, from = s.split(completedAt)
	} else {
		_, from = s.split(b.BookingDate)
	}

	freed, err := s.slots.ReleaseFrom(ctx, b.BarberID, day, b.ID, from)
	if err != nil {
		metrics.IncSlotSync("complete", "failed")
		return nil, err
	}
	result.Released = freed
	if len(freed) == 0 {
		result.NoOp = true
		result.Note = fmt.Sprintf("no slot at or after %s", from)
	}

	metrics.IncSlotSync("complete", "ok")
	s.cfg.Log.Info("Early completion released slots",
		"booking_id", b.ID,
		"barber_id", b.BarberID,
		"date", day,
		"from", from,
		"released", len(freed),
	)
	if len(freed) > 0 {
		s.publish(ctx, events.Event{Type: events.SlotsReleased, Key: b.BarberID, Payload: result})
	}
	return result, nil
}

func (s *Synchronizer) warnRelease(b *model.Booking, day calendar.Day, err error) {
	s.cfg.Log.Warn("Failed to release previous slots",
		"booking_id", b.ID,
		"barber_id", b.BarberID,
		"date", day,
		"error", err,
	)
}

func (s *Synchronizer) publishBooked(ctx context.Context, result *model.SyncResult) {
	s.publish(ctx, events.Event{Type: events.SlotsBooked, Key: result.BarberID, Payload: result})
}

func (s *Synchronizer) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = s.clock.Now()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish event",
			"type", event.Type,
			"key", event.Key,
			"error", err,
		)
	}
}

// subtract returns the times in a that are not in b.
func subtract(a, b []calendar.TimeOfDay) []calendar.TimeOfDay {
	drop := make(map[calendar.TimeOfDay]bool, len(b))
	for _, t := range b {
		drop[t] = true
	}
	var out []calendar.TimeOfDay
	for _, t := range a {
		if !drop[t] {
			out = append(out, t)
		}
	}
	return out
}

package service

import (
	"context"
	"time"

	"barbersched/internal/slots"
	"barbersched/pkg/actor"
	"barbersched/pkg/calendar"
	"barbersched/pkg/clock"
	"barbersched/pkg/config"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/events"
	"barbersched/pkg/model"
	"barbersched/pkg/validation"
)

const (
	ReasonPastDate       = "date is in the past"
	ReasonNoFreeSlots    = "no free slots"
	ReasonSlotMissing    = "slot is outside working hours"
	ReasonSlotTaken      = "slot is booked or blocked"
	ReasonTooShortNotice = "slot starts too soon"
)

type ScheduleService interface {
	GetAvailableSlots(ctx context.Context, barberID string, day calendar.Day) (*model.Availability, error)
	GetRealTimeAvailability(ctx context.Context, barberID string, day calendar.Day, from calendar.TimeOfDay) (*model.Availability, error)
	GetOffDayStatus(ctx context.Context, barberID string, day calendar.Day) (*model.OffDayStatus, error)
	// IsWorking reports whether the barber works on day, and if not, why.
	IsWorking(ctx context.Context, barberID string, day calendar.Day) (bool, string, error)
	// IsSlotFree reports whether durationMin minutes starting at start can be
	// booked, and if not, why.
	IsSlotFree(ctx context.Context, barberID string, day calendar.Day, start calendar.TimeOfDay, durationMin int) (bool, string, error)
	BlockSlot(ctx context.Context, barberID string, req *model.BlockSlotRequest) (*model.Schedule, error)
}

type scheduleService struct {
	store     *Store
	validator *validation.Validator
	publisher events.Publisher
	clock     clock.Clock
	cfg       *config.Config
}

func NewScheduleService(
	store *Store,
	validator *validation.Validator,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
) ScheduleService {
	return &scheduleService{
		store:     store,
		validator: validator,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *scheduleService) today() calendar.Day {
	return calendar.DayOf(s.clock.Now(), s.cfg.Location)
}

// earliest returns the first bookable time on day. Slots need
// MinBookingNotice of lead time, which only bites on the current day.
// A cutoff inside a minute rounds up so a slot is never offered short of
// the full notice.
func (s *scheduleService) earliest(day calendar.Day) calendar.TimeOfDay {
	cutoff := s.clock.Now().Add(s.cfg.MinBookingNotice)
	if whole := cutoff.Truncate(time.Minute); !whole.Equal(cutoff) {
		cutoff = whole.Add(time.Minute)
	}
	noticeDay, noticeTime := calendar.Split(cutoff, s.cfg.Location)
	switch {
	case noticeDay.Before(day):
		return 0
	case noticeDay.After(day):
		return calendar.NewTimeOfDay(24, 0)
	default:
		return noticeTime
	}
}

func (s *scheduleService) GetAvailableSlots(ctx context.Context, barberID string, day calendar.Day) (*model.Availability, error) {
	return s.availability(ctx, barberID, day, 0)
}

func (s *scheduleService) GetRealTimeAvailability(ctx context.Context, barberID string, day calendar.Day, from calendar.TimeOfDay) (*model.Availability, error) {
	return s.availability(ctx, barberID, day, from)
}

func (s *scheduleService) availability(ctx context.Context, barberID string, day calendar.Day, from calendar.TimeOfDay) (*model.Availability, error) {
	if err := s.requireCaller(ctx); err != nil {
		return nil, err
	}
	if barberID == "" {
		return nil, apperrors.InvalidInput("Barber ID cannot be empty")
	}

	result := &model.Availability{
		BarberID: barberID,
		Date:     day,
		Slots:    []calendar.TimeOfDay{},
	}

	if day.Before(s.today()) {
		result.Reason = ReasonPastDate
		return result, nil
	}

	sc, err := s.store.GetOrCreate(ctx, barberID, day)
	if err != nil {
		return nil, err
	}
	result.SlotDurationMin = sc.SlotDurationMin

	if sc.IsOffDay {
		result.Reason = sc.OffReason
		return result, nil
	}

	notBefore := s.earliest(day)
	if from > notBefore {
		notBefore = from
	}
	for _, t := range sc.FreeSlots() {
		if t >= notBefore {
			result.Slots = append(result.Slots, t)
		}
	}

	result.Available = len(result.Slots) > 0
	if !result.Available {
		result.Reason = ReasonNoFreeSlots
	}
	return result, nil
}

func (s *scheduleService) GetOffDayStatus(ctx context.Context, barberID string, day calendar.Day) (*model.OffDayStatus, error) {
	if err := s.requireCaller(ctx); err != nil {
		return nil, err
	}
	if barberID == "" {
		return nil, apperrors.InvalidInput("Barber ID cannot be empty")
	}

	sc, err := s.store.GetOrCreate(ctx, barberID, day)
	if err != nil {
		return nil, err
	}
	return &model.OffDayStatus{
		BarberID:   barberID,
		Date:       day,
		IsOffDay:   sc.IsOffDay,
		OffReason:  sc.OffReason,
		AbsenceRef: sc.AbsenceRef,
	}, nil
}

func (s *scheduleService) IsWorking(ctx context.Context, barberID string, day calendar.Day) (bool, string, error) {
	sc, err := s.store.GetOrCreate(ctx, barberID, day)
	if err != nil {
		return false, "", err
	}
	if sc.IsOffDay {
		return false, sc.OffReason, nil
	}
	return true, "", nil
}

func (s *scheduleService) IsSlotFree(ctx context.Context, barberID string, day calendar.Day, start calendar.TimeOfDay, durationMin int) (bool, string, error) {
	if day.Before(s.today()) {
		return false, ReasonPastDate, nil
	}

	sc, err := s.store.GetOrCreate(ctx, barberID, day)
	if err != nil {
		return false, "", err
	}
	if sc.IsOffDay {
		return false, sc.OffReason, nil
	}
	if start < s.earliest(day) {
		return false, ReasonTooShortNotice, nil
	}

	times, err := slots.Cover(start, durationMin, sc.SlotDurationMin)
	if err != nil {
		return false, "", apperrors.InvalidInput(err.Error())
	}
	for _, t := range times {
		i := sc.SlotIndex(t)
		if i < 0 {
			return false, ReasonSlotMissing, nil
		}
		if !sc.AvailableSlots[i].Free() {
			return false, ReasonSlotTaken, nil
		}
	}
	return true, "", nil
}

func (s *scheduleService) BlockSlot(ctx context.Context, barberID string, req *model.BlockSlotRequest) (*model.Schedule, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if barberID == "" {
		return nil, apperrors.InvalidInput("Barber ID cannot be empty")
	}

	if err := s.validator.Struct(req); err != nil {
		s.cfg.Log.Warn("Slot block validation failed",
			"barber_id", barberID,
			"error", err,
		)
		return nil, validation.AsAppError(err, "Slot block validation failed")
	}

	day, _ := calendar.ParseDay(req.Date)
	t, _ := calendar.ParseTimeOfDay(req.Time)
	blocked := *req.Blocked

	if err := s.store.SetBlocked(ctx, barberID, day, t, blocked, req.Reason); err != nil {
		s.cfg.Log.Warn("Failed to change slot block",
			"barber_id", barberID,
			"date", day,
			"time", t,
			"blocked", blocked,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Slot block changed",
		"barber_id", barberID,
		"date", day,
		"time", t,
		"blocked", blocked,
		"by", caller.ID,
	)
	s.publish(ctx, events.Event{
		Type: events.SlotBlocked,
		Key:  barberID,
		Payload: map[string]any{
			"barber_id": barberID,
			"date":      day,
			"time":      t,
			"blocked":   blocked,
			"reason":    req.Reason,
		},
	})

	return s.store.GetOrCreate(ctx, barberID, day)
}

func (s *scheduleService) requireCaller(ctx context.Context) error {
	caller, _ := actor.FromContext(ctx)
	return actor.RequireAny(caller)
}

func (s *scheduleService) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = s.clock.Now()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish event",
			"type", event.Type,
			"key", event.Key,
			"error", err,
		)
	}
}

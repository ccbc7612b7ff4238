package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	absenceserrors "barbersched/internal/absences/errors"
	"barbersched/internal/absences/repository"
	"barbersched/internal/absences/validator"
	bookingserrors "barbersched/internal/bookings/errors"
	bookingsrepo "barbersched/internal/bookings/repository"
	schedules "barbersched/internal/schedules/service"
	"barbersched/pkg/actor"
	"barbersched/pkg/calendar"
	"barbersched/pkg/clock"
	"barbersched/pkg/config"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/events"
	"barbersched/pkg/metrics"
	"barbersched/pkg/model"
	"barbersched/pkg/sanitizer"
	"barbersched/pkg/validation"
)

type ScheduleStore interface {
	MarkOffDay(ctx context.Context, barberID string, day calendar.Day, absenceRef, reason string) (schedules.OffDayOutcome, error)
	ClearOffDay(ctx context.Context, barberID string, day calendar.Day, absenceRef string) (bool, error)
	TransferOffDay(ctx context.Context, barberID string, day calendar.Day, fromRef, toRef, reason string) (bool, error)
}

type BookingReader interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindActive(ctx context.Context, filter bookingsrepo.Filter) ([]*model.Booking, error)
}

type BookingWriter interface {
	Reassign(ctx context.Context, id string, change bookingsrepo.Reassignment) error
	Reject(ctx context.Context, id, reason string, at time.Time) error
}

type SlotSynchronizer interface {
	Move(ctx context.Context, b *model.Booking, toBarberID string, newStart time.Time, commit func(ctx context.Context) error) (*model.SyncResult, error)
	Release(ctx context.Context, b *model.Booking) (*model.SyncResult, error)
}

type AbsenceService interface {
	Create(ctx context.Context, req *model.AbsenceRequest) (*model.Absence, error)
	GetByID(ctx context.Context, id string) (*model.Absence, error)
	List(ctx context.Context, filter model.AbsenceFilter) ([]*model.Absence, int64, error)
	AffectedBookings(ctx context.Context, id string) ([]model.AffectedBooking, error)
	Approve(ctx context.Context, id string) (*model.ApprovalResult, error)
	ProcessApproval(ctx context.Context, id string, req *model.ProcessApprovalRequest) (*model.ProcessApprovalResult, error)
	Reject(ctx context.Context, id string, req *model.RejectAbsenceRequest) (*model.ApprovalResult, error)
	RescheduleAffectedBooking(ctx context.Context, id string, req *model.RescheduleRequest) (*model.SyncResult, error)
}

type absenceService struct {
	repo      repository.AbsenceRepository
	schedules ScheduleStore
	bookings  BookingReader
	writer    BookingWriter
	sync      SlotSynchronizer
	validator *validator.AbsenceValidator
	publisher events.Publisher
	clock     clock.Clock
	cfg       *config.Config
}

func NewAbsenceService(
	repo repository.AbsenceRepository,
	schedules ScheduleStore,
	bookings BookingReader,
	writer BookingWriter,
	sync SlotSynchronizer,
	validator *validator.AbsenceValidator,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
) AbsenceService {
	return &absenceService{
		repo:      repo,
		schedules: schedules,
		bookings:  bookings,
		writer:    writer,
		sync:      sync,
		validator: validator,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *absenceService) today() calendar.Day {
	return calendar.DayOf(s.clock.Now(), s.cfg.Location)
}

func (s *absenceService) Create(ctx context.Context, req *model.AbsenceRequest) (*model.Absence, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAny(caller); err != nil {
		return nil, err
	}

	req.Description = sanitizer.NormalizeText(req.Description)
	start, end, err := s.validator.Validate(req, s.today())
	if err != nil {
		s.cfg.Log.Warn("Absence validation failed",
			"barber_id", req.BarberID,
			"error", err,
		)
		return nil, validation.AsAppError(err, "Absence validation failed")
	}
	if err := actor.RequireBarberOrAdmin(caller, req.BarberID); err != nil {
		return nil, err
	}

	absence := &model.Absence{
		BarberID:    req.BarberID,
		StartDate:   start,
		EndDate:     end,
		Reason:      model.AbsenceReason(req.Reason),
		Description: req.Description,
		Status:      model.AbsencePending,
		CreatedBy:   caller.ID,
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		affected, err := s.snapshotBookings(txCtx, absence)
		if err != nil {
			return apperrors.Internal("Failed to load affected bookings", err)
		}
		absence.AffectedBookings = affected
		if err := s.repo.Create(txCtx, absence); err != nil {
			return apperrors.Internal("Failed to create absence", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create absence",
			"barber_id", req.BarberID,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Absence created",
		"id", absence.ID,
		"barber_id", absence.BarberID,
		"start_date", absence.StartDate,
		"end_date", absence.EndDate,
		"affected_bookings", len(absence.AffectedBookings),
	)
	s.publish(ctx, events.AbsenceCreated, absence.BarberID, absence)
	return absence, nil
}

// snapshotBookings lists the barber's active bookings inside the absence.
func (s *absenceService) snapshotBookings(ctx context.Context, absence *model.Absence) ([]model.AffectedBooking, error) {
	loc := s.cfg.Location
	bookings, err := s.bookings.FindActive(ctx, bookingsrepo.Filter{
		BarberID: absence.BarberID,
		From:     absence.StartDate.Start(loc),
		To:       absence.EndDate.AddDays(1).Start(loc),
	})
	if err != nil {
		return nil, err
	}

	affected := make([]model.AffectedBooking, 0, len(bookings))
	for _, b := range bookings {
		day, t := calendar.Split(b.BookingDate, loc)
		affected = append(affected, model.AffectedBooking{
			BookingRef:       b.ID,
			OriginalDate:     day,
			OriginalTime:     t,
			DurationMinutes:  b.DurationMinutes,
			ResolutionStatus: model.ResolutionPendingReschedule,
		})
	}
	return affected, nil
}

// load fetches an absence and checks the caller may see it.
func (s *absenceService) load(ctx context.Context, id string) (*model.Absence, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAny(caller); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Absence ID cannot be empty")
	}

	absence, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapError(err, id)
	}
	if err := actor.RequireBarberOrAdmin(caller, absence.BarberID); err != nil {
		return nil, err
	}
	return absence, nil
}

func (s *absenceService) GetByID(ctx context.Context, id string) (*model.Absence, error) {
	return s.load(ctx, id)
}

func (s *absenceService) AffectedBookings(ctx context.Context, id string) ([]model.AffectedBooking, error) {
	absence, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return absence.AffectedBookings, nil
}

func (s *absenceService) List(ctx context.Context, filter model.AbsenceFilter) ([]*model.Absence, int64, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAny(caller); err != nil {
		return nil, 0, err
	}
	if !caller.IsAdmin() {
		if filter.BarberID == "" && caller.Role == actor.RoleBarber {
			filter.BarberID = caller.ID
		}
		if err := actor.RequireBarberOrAdmin(caller, filter.BarberID); err != nil {
			return nil, 0, err
		}
	}
	if filter.Status != "" && filter.Status != model.AbsencePending &&
		filter.Status != model.AbsenceApproved && filter.Status != model.AbsenceRejected {
		return nil, 0, apperrors.InvalidInput("invalid status filter: " + string(filter.Status))
	}

	filter.Limit = config.NormalizePaginationLimit(filter.Limit)
	filter.Offset = config.NormalizeOffset(filter.Offset)

	var (
		absences []*model.Absence
		count    int64
		errFind  error
		errCount error
		wg       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		absences, errFind = s.repo.Find(ctx, filter)
	}()
	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
	}()
	wg.Wait()

	if errFind != nil {
		return nil, 0, apperrors.Internal("Failed to list absences", errFind)
	}
	if errCount != nil {
		return nil, 0, apperrors.Internal("Failed to count absences", errCount)
	}
	return absences, count, nil
}

func (s *absenceService) Approve(ctx context.Context, id string) (*model.ApprovalResult, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAdmin(caller); err != nil {
		return nil, err
	}
	return s.approve(ctx, caller, id)
}

// approve moves a pending absence to approved and marks its days off.
// Approving an approved absence re-applies the marking.
func (s *absenceService) approve(ctx context.Context, caller actor.Actor, id string) (*model.ApprovalResult, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Absence ID cannot be empty")
	}

	absence, err := s.repo.Transition(ctx, id, []model.AbsenceStatus{model.AbsencePending}, repository.Decision{
		To: model.AbsenceApproved,
		By: caller.ID,
		At: s.clock.Now(),
	})
	transitioned := err == nil
	if errors.Is(err, absenceserrors.ErrInvalidTransition) {
		current, findErr := s.repo.FindByID(ctx, id)
		if findErr != nil {
			return nil, mapError(findErr, id)
		}
		if current.Status != model.AbsenceApproved {
			return nil, apperrors.Conflict("Absence is " + string(current.Status) + " and cannot be approved").
				WithDetails(map[string]any{"id": id, "status": current.Status})
		}
		absence, err = current, nil
	}
	if err != nil {
		return nil, mapError(err, id)
	}

	result := s.markDays(ctx, absence)

	if transitioned {
		metrics.IncAbsenceDecision("approved")
		s.publish(ctx, events.AbsenceApproved, absence.BarberID, result)
	}
	s.cfg.Log.Info("Absence approved",
		"id", absence.ID,
		"barber_id", absence.BarberID,
		"approved_by", caller.ID,
		"days_updated", result.DaysUpdated,
		"days_skipped", result.DaysSkipped,
		"warnings", len(result.Warnings),
	)
	return result, nil
}

func (s *absenceService) markDays(ctx context.Context, absence *model.Absence) *model.ApprovalResult {
	result := &model.ApprovalResult{Absence: absence}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ApprovalConcurrency)
	for _, day := range absence.Days() {
		g.Go(func() error {
			outcome, err := s.schedules.MarkOffDay(gctx, absence.BarberID, day, absence.ID, string(absence.Reason))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				s.cfg.Log.Warn("Failed to mark day off",
					"absence_id", absence.ID,
					"barber_id", absence.BarberID,
					"date", day,
					"error", err,
				)
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", day, err))
			case outcome == schedules.OffDayMarked:
				result.DaysUpdated++
			default:
				result.DaysSkipped++
			}
			return nil
		})
	}
	_ = g.Wait()
	return result
}

func (s *absenceService) ProcessApproval(ctx context.Context, id string, req *model.ProcessApprovalRequest) (*model.ProcessApprovalResult, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if req == nil {
		req = &model.ProcessApprovalRequest{}
	}
	if err := s.validator.ValidateActions(req); err != nil {
		return nil, validation.AsAppError(err, "Booking actions validation failed")
	}

	approval, err := s.approve(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	absence := approval.Absence

	result := &model.ProcessApprovalResult{
		ApprovalResult: *approval,
		Results:        make([]model.BookingActionResult, len(req.Actions)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ApprovalConcurrency)
	for i, action := range req.Actions {
		g.Go(func() error {
			result.Results[i] = s.applyAction(gctx, caller, absence, action)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range result.Results {
		if r.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	s.cfg.Log.Info("Absence booking actions processed",
		"id", absence.ID,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, nil
}

// applyAction runs one booking decision and records its resolution. Errors
// are reported in the result.
func (s *absenceService) applyAction(ctx context.Context, caller actor.Actor, absence *model.Absence, action model.BookingAction) model.BookingActionResult {
	result := model.BookingActionResult{BookingID: action.BookingID, Action: action.Action}

	resolution, note, err := s.runAction(ctx, caller, absence, action)
	if err != nil {
		result.Error = apperrors.AsAppError(err).Message
		resolution, note = model.ResolutionFailed, result.Error
		s.cfg.Log.Warn("Booking action failed",
			"absence_id", absence.ID,
			"booking_id", action.BookingID,
			"action", action.Action,
			"error", err,
		)
	} else {
		result.Success = true
		result.NewBarberID = action.NewBarberID
	}

	if resolution != "" {
		if err := s.repo.UpdateResolution(ctx, absence.ID, action.BookingID, resolution, note, s.clock.Now()); err != nil && !errors.Is(err, absenceserrors.ErrBookingNotAffected) {
			s.cfg.Log.Warn("Failed to record booking resolution",
				"absence_id", absence.ID,
				"booking_id", action.BookingID,
				"error", err,
			)
		}
	}
	return result
}

func (s *absenceService) runAction(ctx context.Context, caller actor.Actor, absence *model.Absence, action model.BookingAction) (model.ResolutionStatus, string, error) {
	if affected(absence, action.BookingID) == nil {
		return "", "", apperrors.InvalidInput("Booking is not affected by this absence")
	}

	b, err := s.loadBooking(ctx, action.BookingID)
	if err != nil {
		return "", "", err
	}

	switch action.Action {
	case model.ActionReassign:
		if action.NewBarberID == absence.BarberID {
			return "", "", apperrors.InvalidInput("Booking cannot be reassigned to the absent barber")
		}
		fromBarber := b.BarberID
		if _, err := s.sync.Move(ctx, b, action.NewBarberID, time.Time{}, func(ctx context.Context) error {
			return s.commitReassign(ctx, b.ID, bookingsrepo.Reassignment{
				FromBarberID: fromBarber,
				ToBarberID:   action.NewBarberID,
				By:           caller.ID,
				At:           s.clock.Now(),
			})
		}); err != nil {
			return "", "", err
		}
		s.publish(ctx, events.BookingReassigned, action.NewBarberID, map[string]any{
			"booking_id":     b.ID,
			"absence_id":     absence.ID,
			"from_barber_id": fromBarber,
			"to_barber_id":   action.NewBarberID,
		})
		return model.ResolutionReassigned, "reassigned to " + action.NewBarberID, nil

	case model.ActionReject:
		reason := action.Reason
		if reason == "" {
			reason = "barber unavailable: " + string(absence.Reason)
		}
		if err := s.writer.Reject(ctx, b.ID, reason, s.clock.Now()); err != nil {
			if errors.Is(err, bookingserrors.ErrStateChanged) {
				return "", "", apperrors.Conflict("Booking is no longer active")
			}
			return "", "", apperrors.Internal("Failed to reject booking", err)
		}
		if _, err := s.sync.Release(ctx, b); err != nil {
			s.cfg.Log.Warn("Rejected booking kept its slots",
				"booking_id", b.ID,
				"error", err,
			)
		}
		s.publish(ctx, events.BookingRejected, b.BarberID, map[string]any{
			"booking_id": b.ID,
			"absence_id": absence.ID,
			"reason":     reason,
		})
		return model.ResolutionRejected, reason, nil
	}
	return "", "", apperrors.InvalidInput("unsupported action: " + string(action.Action))
}

func (s *absenceService) commitReassign(ctx context.Context, id string, change bookingsrepo.Reassignment) error {
	if err := s.writer.Reassign(ctx, id, change); err != nil {
		if errors.Is(err, bookingserrors.ErrStateChanged) {
			return apperrors.Conflict("Booking changed while it was being moved")
		}
		return apperrors.Internal("Failed to update booking", err)
	}
	return nil
}

func (s *absenceService) loadBooking(ctx context.Context, id string) (*model.Booking, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	if !b.Status.IsActive() {
		return nil, apperrors.Conflict("Booking is no longer active").
			WithDetails(map[string]any{"booking_id": id, "status": b.Status})
	}
	return b, nil
}

func (s *absenceService) Reject(ctx context.Context, id string, req *model.RejectAbsenceRequest) (*model.ApprovalResult, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Absence ID cannot be empty")
	}
	if req == nil {
		req = &model.RejectAbsenceRequest{}
	}
	req.Reason = sanitizer.NormalizeText(req.Reason)
	if err := s.validator.ValidateReject(req); err != nil {
		return nil, validation.AsAppError(err, "Absence rejection validation failed")
	}

	absence, err := s.repo.Transition(ctx, id, []model.AbsenceStatus{model.AbsencePending, model.AbsenceApproved}, repository.Decision{
		To:     model.AbsenceRejected,
		By:     caller.ID,
		At:     s.clock.Now(),
		Reason: req.Reason,
	})
	if err != nil {
		return nil, mapError(err, id)
	}

	result, err := s.restoreDays(ctx, absence)
	if err != nil {
		return nil, err
	}

	metrics.IncAbsenceDecision("rejected")
	s.cfg.Log.Info("Absence rejected",
		"id", absence.ID,
		"barber_id", absence.BarberID,
		"rejected_by", caller.ID,
		"days_restored", result.DaysUpdated,
		"days_handed_on", result.DaysHandedOn,
		"warnings", len(result.Warnings),
	)
	s.publish(ctx, events.AbsenceRejected, absence.BarberID, result)
	return result, nil
}

// restoreDays undoes the off days owned by a rejected absence. A day that
// another approved absence also covers is handed to the earliest approved
// one and stays off.
func (s *absenceService) restoreDays(ctx context.Context, absence *model.Absence) (*model.ApprovalResult, error) {
	others, err := s.repo.FindApproved(ctx, absence.BarberID, absence.StartDate, absence.EndDate)
	if err != nil {
		return nil, apperrors.Internal("Failed to load overlapping absences", err)
	}

	result := &model.ApprovalResult{Absence: absence}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ApprovalConcurrency)
	for _, day := range absence.Days() {
		heir := heirFor(others, absence.ID, day)
		g.Go(func() error {
			var (
				changed bool
				err     error
			)
			if heir != nil {
				changed, err = s.schedules.TransferOffDay(gctx, absence.BarberID, day, absence.ID, heir.ID, string(heir.Reason))
			} else {
				changed, err = s.schedules.ClearOffDay(gctx, absence.BarberID, day, absence.ID)
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				s.cfg.Log.Warn("Failed to restore day",
					"absence_id", absence.ID,
					"barber_id", absence.BarberID,
					"date", day,
					"error", err,
				)
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", day, err))
			case !changed:
				result.DaysSkipped++
			case heir != nil:
				result.DaysHandedOn++
			default:
				result.DaysUpdated++
			}
			return nil
		})
	}
	_ = g.Wait()
	return result, nil
}

// heirFor returns the earliest approved absence other than id covering day.
// others is ordered by approval time.
func heirFor(others []*model.Absence, id string, day calendar.Day) *model.Absence {
	for _, a := range others {
		if a.ID != id && a.Status == model.AbsenceApproved && a.Covers(day) {
			return a
		}
	}
	return nil
}

func (s *absenceService) RescheduleAffectedBooking(ctx context.Context, id string, req *model.RescheduleRequest) (*model.SyncResult, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAdmin(caller); err != nil {
		return nil, err
	}
	day, t, err := s.validator.ValidateReschedule(req, s.today())
	if err != nil {
		return nil, validation.AsAppError(err, "Reschedule validation failed")
	}

	absence, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if absence.Status == model.AbsenceRejected {
		return nil, apperrors.Conflict("Absence was rejected, its bookings need no rescheduling")
	}
	if affected(absence, req.BookingID) == nil {
		return nil, apperrors.InvalidInput("Booking is not affected by this absence")
	}

	b, err := s.loadBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	toBarber := req.NewBarberID
	if toBarber == "" {
		toBarber = b.BarberID
	}
	if toBarber == absence.BarberID && absence.Covers(day) {
		return nil, apperrors.InvalidInput("New slot falls inside the absence")
	}

	newStart := day.At(t, s.cfg.Location)
	fromBarber := b.BarberID
	result, err := s.sync.Move(ctx, b, toBarber, newStart, func(ctx context.Context) error {
		return s.commitReassign(ctx, b.ID, bookingsrepo.Reassignment{
			FromBarberID: fromBarber,
			ToBarberID:   toBarber,
			BookingDate:  &newStart,
			By:           caller.ID,
			At:           s.clock.Now(),
		})
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to reschedule booking",
			"absence_id", absence.ID,
			"booking_id", b.ID,
			"to_barber_id", toBarber,
			"date", day,
			"time", t,
			"error", err,
		)
		return nil, err
	}

	note := fmt.Sprintf("moved to %s on %s at %s", toBarber, day, t)
	if err := s.repo.UpdateResolution(ctx, absence.ID, b.ID, model.ResolutionRescheduled, note, s.clock.Now()); err != nil {
		s.cfg.Log.Warn("Failed to record booking resolution",
			"absence_id", absence.ID,
			"booking_id", b.ID,
			"error", err,
		)
	}

	s.cfg.Log.Info("Affected booking rescheduled",
		"absence_id", absence.ID,
		"booking_id", b.ID,
		"from_barber_id", fromBarber,
		"to_barber_id", toBarber,
		"date", day,
		"time", t,
	)
	s.publish(ctx, events.BookingRescheduled, toBarber, map[string]any{
		"booking_id":     b.ID,
		"absence_id":     absence.ID,
		"from_barber_id": fromBarber,
		"to_barber_id":   toBarber,
		"date":           day,
		"time":           t,
	})
	return result, nil
}

func affected(absence *model.Absence, bookingID string) *model.AffectedBooking {
	for i := range absence.AffectedBookings {
		if absence.AffectedBookings[i].BookingRef == bookingID {
			return &absence.AffectedBookings[i]
		}
	}
	return nil
}

func mapError(err error, id string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, absenceserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Absence", id)
	case errors.Is(err, absenceserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid absence ID format")
	case errors.Is(err, absenceserrors.ErrInvalidTransition):
		return apperrors.Conflict("Absence cannot change to the requested status").
			WithDetails(map[string]any{"id": id})
	default:
		return apperrors.Internal("Failed to update absence", err)
	}
}

func (s *absenceService) publish(ctx context.Context, eventType, key string, payload any) {
	event := events.Event{Type: eventType, Key: key, Payload: payload, OccurredAt: s.clock.Now()}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish event",
			"type", eventType,
			"key", key,
			"error", err,
		)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"barbersched/internal/assignment"
	barberserrors "barbersched/internal/barbers/errors"
	bookingsrepo "barbersched/internal/bookings/repository"
	"barbersched/pkg/actor"
	"barbersched/pkg/calendar"
	"barbersched/pkg/config"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/metrics"
	"barbersched/pkg/model"
	"barbersched/pkg/sanitizer"
	"barbersched/pkg/validation"
)

const (
	ExcludedAbsent     = "absent"
	ExcludedNotWorking = "not working"
	ExcludedSlotTaken  = "slot not free"
	ExcludedOverlap    = "overlapping booking"
	ExcludedDailyLimit = "daily booking limit reached"
)

type BarberReader interface {
	FindByID(ctx context.Context, id string) (*model.Barber, error)
	FindEligible(ctx context.Context, expertise []string) ([]*model.Barber, error)
}

type ServiceReader interface {
	FindByID(ctx context.Context, id string) (*model.Service, error)
}

type BookingCounter interface {
	FindActive(ctx context.Context, filter bookingsrepo.Filter) ([]*model.Booking, error)
	CountActive(ctx context.Context, filter bookingsrepo.Filter) (int64, error)
}

type AbsenceChecker interface {
	FindApproved(ctx context.Context, barberID string, from, to calendar.Day) ([]*model.Absence, error)
}

type AvailabilityChecker interface {
	IsWorking(ctx context.Context, barberID string, day calendar.Day) (bool, string, error)
	IsSlotFree(ctx context.Context, barberID string, day calendar.Day, start calendar.TimeOfDay, durationMin int) (bool, string, error)
}

type AssignmentService interface {
	AutoAssign(ctx context.Context, req *model.AutoAssignRequest) (*model.Assignment, error)
	// AvailableBarbers returns the full ranking to admins and a plain list of
	// free barbers to everyone else.
	AvailableBarbers(ctx context.Context, serviceID string, day calendar.Day, at *calendar.TimeOfDay) (any, error)
	// Rank runs the selection without a caller check. Internal callers use it
	// to place bookings that arrive without a barber.
	Rank(ctx context.Context, query model.AssignmentQuery) (*model.Assignment, error)
}

type assignmentService struct {
	barbers      BarberReader
	services     ServiceReader
	bookings     BookingCounter
	absences     AbsenceChecker
	availability AvailabilityChecker
	validator    *validation.Validator
	cfg          *config.Config
}

func NewAssignmentService(
	barbers BarberReader,
	services ServiceReader,
	bookings BookingCounter,
	absences AbsenceChecker,
	availability AvailabilityChecker,
	validator *validation.Validator,
	cfg *config.Config,
) AssignmentService {
	return &assignmentService{
		barbers:      barbers,
		services:     services,
		bookings:     bookings,
		absences:     absences,
		availability: availability,
		validator:    validator,
		cfg:          cfg,
	}
}

func (s *assignmentService) AutoAssign(ctx context.Context, req *model.AutoAssignRequest) (*model.Assignment, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAdmin(caller); err != nil {
		return nil, err
	}

	if err := s.validator.Struct(req); err != nil {
		s.cfg.Log.Warn("Auto-assign validation failed",
			"service_id", req.ServiceID,
			"error", err,
		)
		return nil, validation.AsAppError(err, "Auto-assign validation failed")
	}

	query := model.AssignmentQuery{
		ServiceID:   req.ServiceID,
		Preferences: req.Preferences,
	}
	query.Date, _ = calendar.ParseDay(req.Date)
	if req.TimeSlot != "" {
		t, _ := calendar.ParseTimeOfDay(req.TimeSlot)
		query.TimeSlot = &t
	}

	return s.Rank(ctx, query)
}

func (s *assignmentService) AvailableBarbers(ctx context.Context, serviceID string, day calendar.Day, at *calendar.TimeOfDay) (any, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAny(caller); err != nil {
		return nil, err
	}
	if serviceID == "" {
		return nil, apperrors.InvalidInput("service_id is required")
	}

	result, err := s.Rank(ctx, model.AssignmentQuery{ServiceID: serviceID, Date: day, TimeSlot: at})
	if err != nil {
		return nil, err
	}
	if caller.IsAdmin() {
		return result, nil
	}

	ranked := append([]model.CandidateScore{result.Selected}, result.Alternatives...)
	barbers := make([]model.AvailableBarber, 0, len(ranked))
	for _, c := range ranked {
		b, err := s.barbers.FindByID(ctx, c.BarberID)
		if err != nil {
			s.cfg.Log.Warn("Ranked barber disappeared", "barber_id", c.BarberID, "error", err)
			continue
		}
		barbers = append(barbers, model.AvailableBarber{BarberID: b.ID, Name: b.Name, Rating: b.Rating})
	}
	return barbers, nil
}

func (s *assignmentService) Rank(ctx context.Context, query model.AssignmentQuery) (*model.Assignment, error) {
	svc, err := s.services.FindByID(ctx, query.ServiceID)
	if err != nil {
		if errors.Is(err, barberserrors.ErrServiceNotFound) || errors.Is(err, barberserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Service", query.ServiceID)
		}
		return nil, apperrors.Internal("Failed to load service", err)
	}

	duration := query.DurationMinutes
	if duration <= 0 {
		duration = svc.DurationMinutes
	}
	if duration <= 0 {
		duration = s.cfg.DefaultSlotDurationMin
	}

	result := &model.Assignment{
		ServiceID:       query.ServiceID,
		Date:            query.Date,
		TimeSlot:        query.TimeSlot,
		DurationMinutes: duration,
		Alternatives:    []model.CandidateScore{},
		Excluded:        map[string]string{},
	}

	tags := requiredTags(svc, query.Preferences)
	pool, err := s.barbers.FindEligible(ctx, tags)
	if err != nil {
		return nil, apperrors.Internal("Failed to load barbers", err)
	}

	candidates, err := s.evaluate(ctx, pool, query, duration, result)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 && len(tags) > 0 {
		everyone, err := s.barbers.FindEligible(ctx, nil)
		if err != nil {
			return nil, apperrors.Internal("Failed to load barbers", err)
		}
		rest := without(everyone, pool)
		if len(rest) > 0 {
			result.UsedFallback = true
			more, err := s.evaluate(ctx, rest, query, duration, result)
			if err != nil {
				return nil, err
			}
			candidates = more
		}
	}

	ranked, loadBalanced := assignment.Rank(candidates)
	winner, alternatives, ok := assignment.Select(ranked, s.cfg.MaxAlternatives)
	if !ok {
		metrics.IncAutoAssignment("no_candidate")
		s.cfg.Log.Info("No barber available for assignment",
			"service_id", query.ServiceID,
			"date", query.Date,
			"excluded", len(result.Excluded),
		)
		return nil, apperrors.Conflict("No barber is available for the requested slot").
			WithDetails(map[string]any{"excluded": result.Excluded})
	}

	result.Selected = winner
	result.Alternatives = alternatives
	result.LoadBalanced = loadBalanced

	metrics.IncAutoAssignment("ranked")
	s.cfg.Log.Debug("Barbers ranked",
		"service_id", query.ServiceID,
		"date", query.Date,
		"selected", winner.BarberID,
		"score", winner.FinalScore,
		"candidates", result.CandidatesSeen,
		"load_balanced", loadBalanced,
		"fallback", result.UsedFallback,
	)
	return result, nil
}

// evaluate loads the booking counts of every barber in pool and drops the
// ones that cannot take the booking. Exclusions are recorded on result.
func (s *assignmentService) evaluate(ctx context.Context, pool []*model.Barber, query model.AssignmentQuery, duration int, result *model.Assignment) ([]assignment.Candidate, error) {
	result.CandidatesSeen += len(pool)

	var (
		mu         sync.Mutex
		candidates = make([]assignment.Candidate, 0, len(pool))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ApprovalConcurrency)
	for _, b := range pool {
		g.Go(func() error {
			c, reason, err := s.candidate(gctx, b, query, duration)
			if err != nil {
				return fmt.Errorf("evaluating barber %s: %w", b.ID, err)
			}
			mu.Lock()
			defer mu.Unlock()
			if reason != "" {
				result.Excluded[b.ID] = reason
				return nil
			}
			candidates = append(candidates, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to evaluate candidates",
			"service_id", query.ServiceID,
			"date", query.Date,
			"error", err,
		)
		return nil, apperrors.AsAppError(err)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Barber.ID < candidates[j].Barber.ID })
	return candidates, nil
}

// candidate returns the barber's booking counts, or the reason it is
// excluded.
func (s *assignmentService) candidate(ctx context.Context, b *model.Barber, query model.AssignmentQuery, duration int) (assignment.Candidate, string, error) {
	absences, err := s.absences.FindApproved(ctx, b.ID, query.Date, query.Date)
	if err != nil {
		return assignment.Candidate{}, "", err
	}
	if len(absences) > 0 {
		return assignment.Candidate{}, ExcludedAbsent, nil
	}

	if query.TimeSlot != nil {
		free, reason, err := s.availability.IsSlotFree(ctx, b.ID, query.Date, *query.TimeSlot, duration)
		if err != nil {
			return assignment.Candidate{}, "", err
		}
		if !free {
			return assignment.Candidate{}, ExcludedSlotTaken + ": " + reason, nil
		}
	} else {
		working, reason, err := s.availability.IsWorking(ctx, b.ID, query.Date)
		if err != nil {
			return assignment.Candidate{}, "", err
		}
		if !working {
			return assignment.Candidate{}, ExcludedNotWorking + ": " + reason, nil
		}
	}

	loc := s.cfg.Location
	daily, err := s.bookings.FindActive(ctx, bookingsrepo.Filter{
		BarberID: b.ID,
		From:     query.Date.Start(loc),
		To:       query.Date.AddDays(1).Start(loc),
	})
	if err != nil {
		return assignment.Candidate{}, "", err
	}

	if query.TimeSlot != nil {
		start := query.Date.At(*query.TimeSlot, loc)
		end := query.Date.At(query.TimeSlot.Add(duration), loc)
		for _, bk := range daily {
			if bk.BookingDate.Before(end) && start.Before(bk.EndTime()) {
				return assignment.Candidate{}, ExcludedOverlap, nil
			}
		}
	}

	if b.MaxDailyBookings > 0 && len(daily) >= b.MaxDailyBookings {
		return assignment.Candidate{}, ExcludedDailyLimit, nil
	}

	first, last := query.Date.MonthBounds()
	monthly, err := s.bookings.CountActive(ctx, bookingsrepo.Filter{
		BarberID:         b.ID,
		From:             first.Start(loc),
		To:               last.AddDays(1).Start(loc),
		IncludeCompleted: true,
	})
	if err != nil {
		return assignment.Candidate{}, "", err
	}

	return assignment.Candidate{
		Barber:          b,
		DailyBookings:   len(daily),
		MonthlyBookings: int(monthly),
	}, "", nil
}

// requiredTags merges the service's required expertise with the customer's
// preferences.
func requiredTags(svc *model.Service, prefs model.CustomerPreferences) []string {
	tags := append(append([]string{}, svc.RequiredExpertise...), prefs.HairType, prefs.Style)
	return sanitizer.NormalizeTags(tags)
}

func without(all, drop []*model.Barber) []*model.Barber {
	dropped := make(map[string]bool, len(drop))
	for _, b := range drop {
		dropped[b.ID] = true
	}
	var out []*model.Barber
	for _, b := range all {
		if !dropped[b.ID] {
			out = append(out, b)
		}
	}
	return out
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	bookingsrepo "barbersched/internal/bookings/repository"
	maintenanceerrors "barbersched/internal/maintenance/errors"
	"barbersched/internal/maintenance/repository"
	schedulesrepo "barbersched/internal/schedules/repository"
	schedules "barbersched/internal/schedules/service"
	"barbersched/pkg/actor"
	"barbersched/pkg/calendar"
	"barbersched/pkg/clock"
	"barbersched/pkg/config"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/events"
	"barbersched/pkg/metrics"
	"barbersched/pkg/model"
)

const (
	LockID = "schedule_maintenance"

	MaxInitDays = 90
	// MaxConsistencyDays bounds one consistency scan.
	MaxConsistencyDays = 92
)

type ScheduleStore interface {
	GetOrCreate(ctx context.Context, barberID string, day calendar.Day) (*model.Schedule, error)
	Find(ctx context.Context, filter schedulesrepo.Filter) ([]*model.Schedule, error)
	DeleteBefore(ctx context.Context, day calendar.Day) (int64, error)
	BookSlots(ctx context.Context, barberID string, day calendar.Day, start calendar.TimeOfDay, durationMin int, bookingRef string) ([]calendar.TimeOfDay, error)
	ReleaseTimes(ctx context.Context, barberID string, day calendar.Day, bookingRef string, times []calendar.TimeOfDay) (int64, error)
	ReleaseAll(ctx context.Context, bookingRef string) (int64, error)
	MarkOffDay(ctx context.Context, barberID string, day calendar.Day, absenceRef, reason string) (schedules.OffDayOutcome, error)
	ClearOffDay(ctx context.Context, barberID string, day calendar.Day, absenceRef string) (bool, error)
	TransferOffDay(ctx context.Context, barberID string, day calendar.Day, fromRef, toRef, reason string) (bool, error)
}

type BarberLister interface {
	FindAvailable(ctx context.Context) ([]*model.Barber, error)
}

type BookingReader interface {
	FindActive(ctx context.Context, filter bookingsrepo.Filter) ([]*model.Booking, error)
}

type AbsenceReader interface {
	FindApproved(ctx context.Context, barberID string, from, to calendar.Day) ([]*model.Absence, error)
}

type MaintenanceService interface {
	// InitializeSchedules creates the default schedule of every available
	// barber for the next days days, starting today.
	InitializeSchedules(ctx context.Context, days int) (*model.InitResult, error)
	RunMaintenance(ctx context.Context) (*model.MaintenanceReport, error)
	// ForceRelease frees every slot held by bookingID, whatever the booking
	// state.
	ForceRelease(ctx context.Context, bookingID string) (*model.SyncResult, error)
	ValidateScheduleConsistency(ctx context.Context, query model.ConsistencyQuery) (*model.ConsistencyReport, error)
}

type maintenanceService struct {
	store     ScheduleStore
	barbers   BarberLister
	bookings  BookingReader
	absences  AbsenceReader
	locks     repository.LockRepository
	publisher events.Publisher
	clock     clock.Clock
	cfg       *config.Config
	owner     string
}

func NewMaintenanceService(
	store ScheduleStore,
	barbers BarberLister,
	bookings BookingReader,
	absences AbsenceReader,
	locks repository.LockRepository,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
) MaintenanceService {
	return &maintenanceService{
		store:     store,
		barbers:   barbers,
		bookings:  bookings,
		absences:  absences,
		locks:     locks,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
		owner:     uuid.NewString(),
	}
}

func (s *maintenanceService) today() calendar.Day {
	return calendar.DayOf(s.clock.Now(), s.cfg.Location)
}

func (s *maintenanceService) InitializeSchedules(ctx context.Context, days int) (*model.InitResult, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if days == 0 {
		days = s.cfg.ScheduleHorizonDays
	}
	if days < 1 || days > MaxInitDays {
		return nil, apperrors.InvalidInput(fmt.Sprintf("days must be between 1 and %d", MaxInitDays))
	}
	return s.initialize(ctx, days)
}

func (s *maintenanceService) initialize(ctx context.Context, days int) (*model.InitResult, error) {
	barbers, err := s.barbers.FindAvailable(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to list barbers", err)
	}

	from := s.today()
	result := &model.InitResult{
		From:    from,
		To:      from.AddDays(days - 1),
		Barbers: len(barbers),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ApprovalConcurrency)
	for _, barber := range barbers {
		for _, day := range calendar.Range(result.From, result.To) {
			g.Go(func() error {
				_, err := s.store.GetOrCreate(gctx, barber.ID, day)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Warnings = append(result.Warnings, fmt.Sprintf("%s %s: %v", barber.ID, day, err))
					return nil
				}
				result.SchedulesEnsured++
				return nil
			})
		}
	}
	_ = g.Wait()

	s.cfg.Log.Info("Schedules initialized",
		"from", result.From,
		"to", result.To,
		"barbers", result.Barbers,
		"ensured", result.SchedulesEnsured,
		"warnings", len(result.Warnings),
	)
	return result, nil
}

// RunMaintenance deletes schedules past retention and pre-creates the
// horizon. Only one run proceeds at a time across processes.
func (s *maintenanceService) RunMaintenance(ctx context.Context) (*model.MaintenanceReport, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAdmin(caller); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	lock := &model.Lock{ID: LockID, Owner: s.owner, ExpiresAt: now.Add(s.cfg.MaintenanceLockTTL)}
	if err := s.locks.Acquire(ctx, lock); err != nil {
		if errors.Is(err, maintenanceerrors.ErrLockHeld) {
			metrics.IncMaintenanceRun("skipped")
			return nil, apperrors.Conflict("Maintenance is already running")
		}
		metrics.IncMaintenanceRun("failed")
		return nil, apperrors.Internal("Failed to acquire maintenance lock", err)
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), LockID, s.owner); err != nil {
			s.cfg.Log.Warn("Failed to release maintenance lock", "lock_id", LockID, "error", err)
		}
	}()

	report := &model.MaintenanceReport{
		StartedAt:     now,
		DeletedBefore: s.today().AddDays(-s.cfg.ScheduleRetentionDays),
	}

	deleted, err := s.store.DeleteBefore(ctx, report.DeletedBefore)
	if err != nil {
		metrics.IncMaintenanceRun("failed")
		s.cfg.Log.Error("Failed to delete old schedules",
			"before", report.DeletedBefore,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to delete old schedules", err)
	}
	report.SchedulesDeleted = deleted

	if report.Init, err = s.initialize(ctx, s.cfg.ScheduleHorizonDays); err != nil {
		metrics.IncMaintenanceRun("failed")
		return nil, err
	}
	report.FinishedAt = s.clock.Now()

	metrics.IncMaintenanceRun("ok")
	s.cfg.Log.Info("Maintenance completed",
		"deleted_before", report.DeletedBefore,
		"deleted", report.SchedulesDeleted,
		"ensured", report.Init.SchedulesEnsured,
		"by", caller.ID,
	)
	s.publish(ctx, events.Event{Type: events.MaintenanceCompleted, Key: LockID, Payload: report})
	return report, nil
}

func (s *maintenanceService) ForceRelease(ctx context.Context, bookingID string) (*model.SyncResult, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	n, err := s.store.ReleaseAll(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	result := &model.SyncResult{BookingID: bookingID, ReleasedDays: n}
	if n == 0 {
		result.NoOp = true
		result.Note = "booking holds no slots"
		return result, nil
	}

	s.cfg.Log.Warn("Slots force-released",
		"booking_id", bookingID,
		"days", n,
		"by", caller.ID,
	)
	metrics.IncSlotSync("force_release", "ok")
	s.publish(ctx, events.Event{Type: events.SlotsReleased, Key: bookingID, Payload: result})
	return result, nil
}

func (s *maintenanceService) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = s.clock.Now()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish event",
			"type", event.Type,
			"key", event.Key,
			"error", err,
		)
	}
}

// Ticker runs maintenance every interval until its context ends.
type Ticker struct {
	service  MaintenanceService
	interval time.Duration
	cfg      *config.Config
}

func NewTicker(service MaintenanceService, cfg *config.Config) *Ticker {
	return &Ticker{service: service, interval: cfg.MaintenanceInterval, cfg: cfg}
}

// Run blocks until ctx is done. A zero interval disables the ticker.
func (t *Ticker) Run(ctx context.Context) {
	if t.interval <= 0 {
		return
	}
	ctx = actor.WithActor(ctx, actor.System("maintenance-ticker"))

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.cfg.Log.Info("Maintenance ticker started", "interval", t.interval)
	for {
		select {
		case <-ctx.Done():
			t.cfg.Log.Info("Maintenance ticker stopped")
			return
		case <-ticker.C:
			if _, err := t.service.RunMaintenance(ctx); err != nil {
				if apperrors.HasCode(err, apperrors.CodeConflict) {
					t.cfg.Log.Debug("Maintenance skipped, another run holds the lock")
					continue
				}
				t.cfg.Log.Error("Scheduled maintenance failed", "error", err)
			}
		}
	}
}

package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	absencesmem "barbersched/internal/absences/repository/memtest"
	barbersmem "barbersched/internal/barbers/repository/memtest"
	bookingsmem "barbersched/internal/bookings/repository/memtest"
	locksmem "barbersched/internal/maintenance/repository/memtest"
	schedulesrepo "barbersched/internal/schedules/repository"
	schedulesmem "barbersched/internal/schedules/repository/memtest"
	schedules "barbersched/internal/schedules/service"
	"barbersched/pkg/calendar"
	"barbersched/pkg/config"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/events"
	"barbersched/pkg/model"
	"barbersched/test/testutil"
)

var (
	monday    = calendar.NewDay(2025, 6, 2)
	tuesday   = calendar.NewDay(2025, 6, 3)
	wednesday = calendar.NewDay(2025, 6, 4)
	thursday  = calendar.NewDay(2025, 6, 5)
	friday    = calendar.NewDay(2025, 6, 6)
)

func tod(s string) calendar.TimeOfDay {
	t, err := calendar.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

type fixture struct {
	svc       MaintenanceService
	store     *schedules.Store
	schedules *schedulesmem.MemoryScheduleRepository
	bookings  *bookingsmem.MemoryBookingRepository
	absences  *absencesmem.MemoryAbsenceRepository
	locks     *locksmem.MemoryLockRepository
	publisher *testutil.RecordingPublisher
	clock     *testutil.FakeClock
	cfg       *config.Config
}

func newFixture() *fixture {
	cfg := testutil.Config()
	f := &fixture{
		schedules: schedulesmem.NewMemoryScheduleRepository(),
		bookings:  bookingsmem.NewMemoryBookingRepository(),
		absences:  absencesmem.NewMemoryAbsenceRepository(),
		publisher: &testutil.RecordingPublisher{},
		clock:     testutil.NewFakeClock(testutil.Monday),
		cfg:       cfg,
	}
	f.locks = locksmem.NewMemoryLockRepository(f.clock.Now)
	f.store = schedules.NewStore(f.schedules, cfg)
	barbers := barbersmem.NewMemoryBarberRepository(
		&model.Barber{ID: "barber-1", IsAvailable: true},
		&model.Barber{ID: "barber-2", IsAvailable: true},
		&model.Barber{ID: "barber-3"},
	)
	f.svc = NewMaintenanceService(f.store, barbers, f.bookings, f.absences, f.locks, f.publisher, f.clock, cfg)
	return f
}

func (f *fixture) put(id, barberID string, day calendar.Day, hhmm string, minutes int, status model.BookingStatus) {
	f.bookings.Put(&model.Booking{
		ID:              id,
		BarberID:        barberID,
		BookingDate:     day.At(tod(hhmm), time.UTC),
		DurationMinutes: minutes,
		Status:          status,
	})
}

func TestInitializeSchedules(t *testing.T) {
	tests := []struct {
		name        string
		ctx         context.Context
		days        int
		wantEnsured int
		wantCode    string
	}{
		{name: "explicit days", ctx: testutil.AdminCtx(), days: 3, wantEnsured: 6},
		{name: "defaults to the horizon", ctx: testutil.AdminCtx(), wantEnsured: 14},
		{name: "negative days", ctx: testutil.AdminCtx(), days: -1, wantCode: apperrors.CodeInvalidInput},
		{name: "too many days", ctx: testutil.AdminCtx(), days: MaxInitDays + 1, wantCode: apperrors.CodeInvalidInput},
		{name: "barber is forbidden", ctx: testutil.BarberCtx("barber-1"), days: 3, wantCode: apperrors.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			result, err := f.svc.InitializeSchedules(tt.ctx, tt.days)
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Barbers != 2 || result.SchedulesEnsured != tt.wantEnsured || len(result.Warnings) != 0 {
				t.Errorf("unexpected result %+v", result)
			}

			found, _ := f.schedules.Find(context.Background(), schedulesrepo.Filter{})
			if len(found) != tt.wantEnsured {
				t.Errorf("expected %d stored schedules, got %d", tt.wantEnsured, len(found))
			}
			if _, err := f.schedules.FindByBarberAndDate(context.Background(), "barber-3", monday); err == nil {
				t.Error("unavailable barbers must be skipped")
			}
		})
	}
}

func TestRunMaintenance(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	old := monday.AddDays(-f.cfg.ScheduleRetentionDays - 5)
	if _, err := f.store.GetOrCreate(ctx, "barber-1", old); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if _, err := f.store.GetOrCreate(ctx, "barber-1", monday.AddDays(-1)); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	report, err := f.svc.RunMaintenance(testutil.AdminCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.SchedulesDeleted != 1 {
		t.Errorf("expected 1 schedule deleted, got %d", report.SchedulesDeleted)
	}
	if report.Init.SchedulesEnsured != 2*f.cfg.ScheduleHorizonDays {
		t.Errorf("expected the horizon to be ensured, got %+v", report.Init)
	}
	if _, err := f.schedules.FindByBarberAndDate(ctx, "barber-1", monday.AddDays(-1)); err != nil {
		t.Error("schedules inside retention must be kept")
	}
	if f.locks.Held(LockID) {
		t.Error("lock must be released after the run")
	}
	if f.publisher.Count(events.MaintenanceCompleted) != 1 {
		t.Errorf("expected one %s event, got %v", events.MaintenanceCompleted, f.publisher.Types())
	}
}

func TestRunMaintenance_Lock(t *testing.T) {
	f := newFixture()
	other := &model.Lock{ID: LockID, Owner: "other-process", ExpiresAt: testutil.Monday.Add(time.Minute)}
	if err := f.locks.Acquire(context.Background(), other); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	if _, err := f.svc.RunMaintenance(testutil.AdminCtx()); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict while the lock is held, got %v", err)
	}

	f.clock.Advance(2 * time.Minute)
	if _, err := f.svc.RunMaintenance(testutil.AdminCtx()); err != nil {
		t.Fatalf("expected the expired lock to be taken over, got %v", err)
	}
}

func TestForceRelease(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.store.BookSlots(ctx, "barber-1", monday, tod("10:00"), 60, "booking-1"); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if _, err := f.store.BookSlots(ctx, "barber-2", tuesday, tod("10:00"), 30, "booking-1"); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	result, err := f.svc.ForceRelease(testutil.AdminCtx(), "booking-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ReleasedDays != 2 || result.NoOp {
		t.Errorf("expected 2 days released, got %+v", result)
	}

	result, err = f.svc.ForceRelease(testutil.AdminCtx(), "booking-1")
	if err != nil || !result.NoOp {
		t.Errorf("expected a no-op the second time, got %+v, %v", result, err)
	}

	if _, err := f.svc.ForceRelease(testutil.CustomerCtx(), "booking-1"); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

// seedInconsistencies produces one issue of every kind, two for the absence.
func seedInconsistencies(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()

	if _, err := f.store.BookSlots(ctx, "barber-1", tuesday, tod("09:00"), 30, "ghost"); err != nil {
		t.Fatalf("orphan: %v", err)
	}

	f.put("booking-missing", "barber-1", tuesday, "10:00", 60, model.BookingConfirmed)

	f.put("booking-ok", "barber-1", tuesday, "14:00", 30, model.BookingConfirmed)
	if _, err := f.store.BookSlots(ctx, "barber-1", tuesday, tod("14:00"), 30, "booking-ok"); err != nil {
		t.Fatalf("healthy booking: %v", err)
	}
	f.put("booking-done", "barber-1", tuesday, "15:00", 60, model.BookingCompleted)
	if _, err := f.store.BookSlots(ctx, "barber-1", tuesday, tod("15:00"), 30, "booking-done"); err != nil {
		t.Fatalf("completed booking: %v", err)
	}

	approvedAt := testutil.Monday
	f.absences.Put(&model.Absence{
		ID:         "absence-1",
		BarberID:   "barber-2",
		StartDate:  wednesday,
		EndDate:    thursday,
		Reason:     model.ReasonVacation,
		Status:     model.AbsenceApproved,
		ApprovedAt: &approvedAt,
	})

	if _, err := f.store.MarkOffDay(ctx, "barber-1", friday, "absence-gone", "vacation"); err != nil {
		t.Fatalf("stale off day: %v", err)
	}
}

func TestValidateScheduleConsistency(t *testing.T) {
	f := newFixture()
	seedInconsistencies(t, f)

	report, err := f.svc.ValidateScheduleConsistency(testutil.AdminCtx(), model.ConsistencyQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts := make(map[model.IssueKind]int)
	for _, issue := range report.Issues {
		counts[issue.Kind]++
		if issue.Fixed {
			t.Errorf("nothing should be fixed without fix, got %+v", issue)
		}
	}
	want := map[model.IssueKind]int{
		model.IssueOrphanSlot:    1,
		model.IssueMissingSlots:  1,
		model.IssueAbsenceNotOff: 2,
		model.IssueStaleOffDay:   1,
	}
	for kind, n := range want {
		if counts[kind] != n {
			t.Errorf("%s: expected %d, got %d (%+v)", kind, n, counts[kind], report.Issues)
		}
	}
	if !report.From.Equal(monday) || !report.To.Equal(monday.AddDays(f.cfg.ScheduleHorizonDays)) {
		t.Errorf("expected the default range, got %s..%s", report.From, report.To)
	}
	for _, issue := range report.Issues {
		if issue.Kind == model.IssueMissingSlots && len(issue.Times) != 2 {
			t.Errorf("expected 2 missing slots, got %v", issue.Times)
		}
	}
}

func TestValidateScheduleConsistency_Fix(t *testing.T) {
	f := newFixture()
	seedInconsistencies(t, f)
	ctx := testutil.AdminCtx()

	report, err := f.svc.ValidateScheduleConsistency(ctx, model.ConsistencyQuery{Fix: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Fixed != 5 || len(report.Issues) != 5 {
		t.Fatalf("expected 5 issues fixed, got %+v", report.Issues)
	}

	sc, _ := f.schedules.FindByBarberAndDate(context.Background(), "barber-1", tuesday)
	if len(sc.BookedBy("ghost")) != 0 || len(sc.BookedBy("booking-missing")) != 2 {
		t.Errorf("unexpected tuesday slots %+v", sc.AvailableSlots)
	}
	if sc, _ := f.schedules.FindByBarberAndDate(context.Background(), "barber-2", wednesday); !sc.IsOffDay || sc.AbsenceRef != "absence-1" {
		t.Errorf("expected wednesday off for absence-1, got %+v", sc)
	}
	if sc, _ := f.schedules.FindByBarberAndDate(context.Background(), "barber-1", friday); sc.IsOffDay {
		t.Errorf("expected friday restored, got %+v", sc)
	}

	again, err := f.svc.ValidateScheduleConsistency(ctx, model.ConsistencyQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(again.Issues) != 0 {
		t.Errorf("expected a clean report after the fix, got %+v", again.Issues)
	}
}

func TestValidateScheduleConsistency_Query(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		query    model.ConsistencyQuery
		wantCode string
	}{
		{name: "to before from", ctx: testutil.AdminCtx(), query: model.ConsistencyQuery{From: friday, To: monday}, wantCode: apperrors.CodeInvalidInput},
		{name: "range too long", ctx: testutil.AdminCtx(), query: model.ConsistencyQuery{From: monday, To: monday.AddDays(MaxConsistencyDays)}, wantCode: apperrors.CodeInvalidInput},
		{name: "barber is forbidden", ctx: testutil.BarberCtx("barber-1"), wantCode: apperrors.CodeForbidden},
		{name: "single barber", ctx: testutil.AdminCtx(), query: model.ConsistencyQuery{BarberID: "barber-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			seedInconsistencies(t, f)

			report, err := f.svc.ValidateScheduleConsistency(tt.ctx, tt.query)
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, issue := range report.Issues {
				if issue.BarberID != "barber-2" {
					t.Errorf("expected only barber-2 issues, got %+v", issue)
				}
			}
			if len(report.Issues) != 2 {
				t.Errorf("expected 2 issues, got %d", len(report.Issues))
			}
		})
	}
}

type countingService struct {
	MaintenanceService
	runs atomic.Int32
	done chan struct{}
}

func (c *countingService) RunMaintenance(ctx context.Context) (*model.MaintenanceReport, error) {
	if c.runs.Add(1) == 1 {
		close(c.done)
	}
	return &model.MaintenanceReport{}, nil
}

func TestTicker(t *testing.T) {
	cfg := testutil.Config()

	cfg.MaintenanceInterval = 0
	stopped := make(chan struct{})
	go func() {
		NewTicker(&countingService{done: make(chan struct{})}, cfg).Run(context.Background())
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("a zero interval should disable the ticker")
	}

	cfg.MaintenanceInterval = 5 * time.Millisecond
	svc := &countingService{done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewTicker(svc, cfg).Run(ctx)

	select {
	case <-svc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the ticker to run maintenance")
	}
}

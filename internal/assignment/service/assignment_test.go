package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	absencesmem "barbersched/internal/absences/repository/memtest"
	barbersmem "barbersched/internal/barbers/repository/memtest"
	bookingsmem "barbersched/internal/bookings/repository/memtest"
	schedulesmem "barbersched/internal/schedules/repository/memtest"
	schedules "barbersched/internal/schedules/service"
	"barbersched/pkg/calendar"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/model"
	"barbersched/pkg/validation"
	"barbersched/test/testutil"
)

var monday = calendar.NewDay(2025, 6, 2)

func at(day calendar.Day, hhmm string) time.Time {
	t, err := calendar.ParseTimeOfDay(hhmm)
	if err != nil {
		panic(err)
	}
	return day.At(t, time.UTC)
}

func tod(s string) *calendar.TimeOfDay {
	t, err := calendar.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return &t
}

type fixture struct {
	svc      AssignmentService
	bookings *bookingsmem.MemoryBookingRepository
	absences *absencesmem.MemoryAbsenceRepository
	store    *schedules.Store
}

func newFixture(barbers ...*model.Barber) *fixture {
	cfg := testutil.Config()
	store := schedules.NewStore(schedulesmem.NewMemoryScheduleRepository(), cfg)
	scheduleSvc := schedules.NewScheduleService(store, validation.New(), &testutil.RecordingPublisher{}, testutil.NewFakeClock(testutil.Monday), cfg)

	f := &fixture{
		bookings: bookingsmem.NewMemoryBookingRepository(),
		absences: absencesmem.NewMemoryAbsenceRepository(),
		store:    store,
	}
	f.svc = NewAssignmentService(
		barbersmem.NewMemoryBarberRepository(barbers...),
		barbersmem.NewMemoryServiceRepository(
			&model.Service{ID: "haircut", Name: "Haircut", DurationMinutes: 30},
			&model.Service{ID: "fade", Name: "Skin fade", DurationMinutes: 60, RequiredExpertise: []string{"fade"}},
		),
		f.bookings,
		f.absences,
		scheduleSvc,
		validation.New(),
		cfg,
	)
	return f
}

// history adds n completed bookings earlier in June.
func (f *fixture) history(barberID string, n int) {
	for i := 0; i < n; i++ {
		f.bookings.Put(&model.Booking{
			ID:              fmt.Sprintf("%s-past-%d", barberID, i),
			BarberID:        barberID,
			BookingDate:     at(calendar.NewDay(2025, 6, 1), "10:00").Add(time.Duration(i) * time.Minute),
			DurationMinutes: 30,
			Status:          model.BookingCompleted,
		})
	}
}

func barber(id string, rating float64, expertise ...string) *model.Barber {
	return &model.Barber{
		ID:                     id,
		Name:                   "Barber " + id,
		Rating:                 rating,
		ExperienceYears:        5,
		TotalBookings:          300,
		MaxDailyBookings:       8,
		AutoAssignmentEligible: true,
		IsAvailable:            true,
		Expertise:              expertise,
	}
}

func TestRank_LoadBalanceBeforeQuality(t *testing.T) {
	f := newFixture(barber("A", 4.0), barber("B", 4.9))
	f.history("A", 5)
	f.history("B", 8)

	got, err := f.svc.Rank(context.Background(), model.AssignmentQuery{ServiceID: "haircut", Date: monday, TimeSlot: tod("10:00")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Selected.BarberID != "A" {
		t.Errorf("expected A to be selected, got %s", got.Selected.BarberID)
	}
	if !got.LoadBalanced {
		t.Error("expected load balancing to apply")
	}
	if got.Selected.MonthlyBookings != 5 {
		t.Errorf("expected 5 monthly bookings, got %d", got.Selected.MonthlyBookings)
	}
}

func TestRank_QualityWhenBalanced(t *testing.T) {
	f := newFixture(barber("A", 4.0), barber("B", 4.9))
	f.history("A", 6)
	f.history("B", 6)

	got, err := f.svc.Rank(context.Background(), model.AssignmentQuery{ServiceID: "haircut", Date: monday, TimeSlot: tod("10:00")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Selected.BarberID != "B" {
		t.Errorf("expected B to be selected, got %s", got.Selected.BarberID)
	}
	if len(got.Alternatives) != 1 || got.Alternatives[0].BarberID != "A" {
		t.Errorf("expected A as the alternative, got %v", got.Alternatives)
	}
}

func TestRank_Exclusions(t *testing.T) {
	f := newFixture(
		barber("absent", 5),
		barber("booked", 5),
		barber("overlap", 5),
		barber("busy", 5),
		barber("free", 3),
	)
	ctx := context.Background()

	approvedAt := testutil.Monday
	f.absences.Put(&model.Absence{
		ID:         "absence-1",
		BarberID:   "absent",
		StartDate:  monday,
		EndDate:    monday,
		Status:     model.AbsenceApproved,
		ApprovedAt: &approvedAt,
	})

	if _, err := f.store.BookSlots(ctx, "booked", monday, *tod("10:00"), 30, "booking-x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.bookings.Put(&model.Booking{
		ID:              "unsynced",
		BarberID:        "overlap",
		BookingDate:     at(monday, "09:45"),
		DurationMinutes: 30,
		Status:          model.BookingConfirmed,
	})

	for i := 0; i < 8; i++ {
		f.bookings.Put(&model.Booking{
			ID:              fmt.Sprintf("busy-%d", i),
			BarberID:        "busy",
			BookingDate:     at(monday, "14:00").Add(time.Duration(i) * time.Minute),
			DurationMinutes: 5,
			Status:          model.BookingPending,
		})
	}

	got, err := f.svc.Rank(ctx, model.AssignmentQuery{ServiceID: "haircut", Date: monday, TimeSlot: tod("10:00")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Selected.BarberID != "free" {
		t.Errorf("expected the only free barber, got %s", got.Selected.BarberID)
	}

	want := map[string]string{
		"absent":  ExcludedAbsent,
		"booked":  ExcludedSlotTaken + ": " + schedules.ReasonSlotTaken,
		"overlap": ExcludedOverlap,
		"busy":    ExcludedDailyLimit,
	}
	for id, reason := range want {
		if got.Excluded[id] != reason {
			t.Errorf("%s: expected %q, got %q", id, reason, got.Excluded[id])
		}
	}
	if got.CandidatesSeen != 5 {
		t.Errorf("expected 5 candidates seen, got %d", got.CandidatesSeen)
	}
}

func TestRank_ExpertiseFallback(t *testing.T) {
	tests := []struct {
		name         string
		barbers      []*model.Barber
		offDay       string
		wantSelected string
		wantFallback bool
	}{
		{
			name:         "specialist preferred",
			barbers:      []*model.Barber{barber("generalist", 5), barber("specialist", 3, "Fade")},
			wantSelected: "specialist",
		},
		{
			name:         "no specialist",
			barbers:      []*model.Barber{barber("generalist", 5)},
			wantSelected: "generalist",
			wantFallback: true,
		},
		{
			name:         "specialist is off",
			barbers:      []*model.Barber{barber("generalist", 5), barber("specialist", 3, "fade")},
			offDay:       "specialist",
			wantSelected: "generalist",
			wantFallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.barbers...)
			if tt.offDay != "" {
				if _, err := f.store.MarkOffDay(context.Background(), tt.offDay, monday, "absence-9", "training"); err != nil {
					t.Fatalf("prepare: %v", err)
				}
			}

			got, err := f.svc.Rank(context.Background(), model.AssignmentQuery{ServiceID: "fade", Date: monday})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Selected.BarberID != tt.wantSelected {
				t.Errorf("expected %s, got %s", tt.wantSelected, got.Selected.BarberID)
			}
			if got.UsedFallback != tt.wantFallback {
				t.Errorf("expected fallback=%v, got %v", tt.wantFallback, got.UsedFallback)
			}
			if got.DurationMinutes != 60 {
				t.Errorf("expected the service duration, got %d", got.DurationMinutes)
			}
		})
	}
}

func TestRank_NoCandidate(t *testing.T) {
	f := newFixture(barber("A", 4))

	_, err := f.svc.Rank(context.Background(), model.AssignmentQuery{ServiceID: "haircut", Date: calendar.NewDay(2025, 6, 8)})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Errorf("expected conflict on a closed day, got %v", err)
	}
}

func TestRank_UnknownService(t *testing.T) {
	f := newFixture(barber("A", 4))

	_, err := f.svc.Rank(context.Background(), model.AssignmentQuery{ServiceID: "perm", Date: monday})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestAutoAssign(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		req      *model.AutoAssignRequest
		wantCode string
	}{
		{
			name: "admin",
			ctx:  testutil.AdminCtx(),
			req:  &model.AutoAssignRequest{ServiceID: "haircut", Date: "2025-06-02", TimeSlot: "11:00"},
		},
		{
			name:     "customer is forbidden",
			ctx:      testutil.CustomerCtx(),
			req:      &model.AutoAssignRequest{ServiceID: "haircut", Date: "2025-06-02"},
			wantCode: apperrors.CodeForbidden,
		},
		{
			name:     "anonymous",
			ctx:      context.Background(),
			req:      &model.AutoAssignRequest{ServiceID: "haircut", Date: "2025-06-02"},
			wantCode: apperrors.CodeUnauthorized,
		},
		{
			name:     "bad time",
			ctx:      testutil.AdminCtx(),
			req:      &model.AutoAssignRequest{ServiceID: "haircut", Date: "2025-06-02", TimeSlot: "25:00"},
			wantCode: apperrors.CodeValidation,
		},
		{
			name:     "missing service",
			ctx:      testutil.AdminCtx(),
			req:      &model.AutoAssignRequest{Date: "2025-06-02"},
			wantCode: apperrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(barber("A", 4))

			got, err := f.svc.AutoAssign(tt.ctx, tt.req)
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Selected.BarberID != "A" || got.TimeSlot == nil || got.TimeSlot.String() != "11:00" {
				t.Errorf("unexpected assignment %+v", got)
			}
		})
	}
}

func TestAvailableBarbers_CustomerView(t *testing.T) {
	f := newFixture(barber("A", 4), barber("B", 4.5))

	got, err := f.svc.AvailableBarbers(testutil.CustomerCtx(), "haircut", monday, tod("15:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, ok := got.([]model.AvailableBarber)
	if !ok {
		t.Fatalf("expected a plain barber list, got %T", got)
	}
	if len(list) != 2 || list[0].BarberID != "B" {
		t.Errorf("unexpected list %+v", list)
	}

	admin, err := f.svc.AvailableBarbers(testutil.AdminCtx(), "haircut", monday, tod("15:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := admin.(*model.Assignment); !ok {
		t.Errorf("expected admins to see the ranking, got %T", admin)
	}
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	scheduleserrors "barbersched/internal/schedules/errors"
	schedulesmem "barbersched/internal/schedules/repository/memtest"
	"barbersched/pkg/calendar"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/model"
	"barbersched/test/testutil"
)

var (
	monday = calendar.NewDay(2025, 6, 2)
	sunday = calendar.NewDay(2025, 6, 8)
)

func tod(s string) calendar.TimeOfDay {
	t, err := calendar.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func newStore() (*Store, *schedulesmem.MemoryScheduleRepository) {
	repo := schedulesmem.NewMemoryScheduleRepository()
	return NewStore(repo, testutil.Config()), repo
}

func TestSeed_DefaultDay(t *testing.T) {
	store, _ := newStore()

	sc, err := store.Seed("barber-1", monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc.IsOffDay {
		t.Error("monday should be a working day")
	}
	if sc.SlotIndex(tod("11:30")) < 0 || sc.SlotIndex(tod("13:00")) < 0 {
		t.Error("expected 11:30 and 13:00 to be present")
	}
	if sc.SlotIndex(tod("12:00")) >= 0 || sc.SlotIndex(tod("12:30")) >= 0 {
		t.Error("expected the break to be excluded")
	}
}

func TestSeed_NonWorkingDay(t *testing.T) {
	store, _ := newStore()

	sc, err := store.Seed("barber-1", sunday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sc.IsOffDay || sc.OffReason != model.OffReasonNonWorkingDay {
		t.Errorf("expected sunday to be a non-working off day, got %+v", sc)
	}
}

func TestGetOrCreate_IsStable(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "barber-1", monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := store.GetOrCreate(ctx, "barber-1", monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected one schedule per day, got %s and %s", first.ID, second.ID)
	}
}

func TestBookSlots(t *testing.T) {
	tests := []struct {
		name      string
		prepare   func(t *testing.T, s *Store)
		start     string
		duration  int
		wantTimes []string
		wantCode  string
	}{
		{
			name:      "single slot",
			start:     "10:00",
			duration:  30,
			wantTimes: []string{"10:00"},
		},
		{
			name:      "multi slot",
			start:     "10:00",
			duration:  90,
			wantTimes: []string{"10:00", "10:30", "11:00"},
		},
		{
			name:     "runs into the break",
			start:    "11:00",
			duration: 90,
			wantCode: apperrors.CodeSlotUnavailable,
		},
		{
			name:      "rounds up to slot granularity",
			start:     "14:00",
			duration:  45,
			wantTimes: []string{"14:00", "14:30"},
		},
		{
			name: "taken by another booking",
			prepare: func(t *testing.T, s *Store) {
				if _, err := s.BookSlots(context.Background(), "barber-1", monday, tod("10:30"), 30, "other"); err != nil {
					t.Fatalf("prepare: %v", err)
				}
			},
			start:    "10:00",
			duration: 60,
			wantCode: apperrors.CodeSlotUnavailable,
		},
		{
			name: "same booking twice is a no-op",
			prepare: func(t *testing.T, s *Store) {
				if _, err := s.BookSlots(context.Background(), "barber-1", monday, tod("15:00"), 60, "booking-1"); err != nil {
					t.Fatalf("prepare: %v", err)
				}
			},
			start:     "15:00",
			duration:  60,
			wantTimes: []string{"15:00", "15:30"},
		},
		{
			name:     "outside working hours",
			start:    "17:30",
			duration: 60,
			wantCode: apperrors.CodeSlotUnavailable,
		},
		{
			name:     "invalid duration",
			start:    "10:00",
			duration: 0,
			wantCode: apperrors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newStore()
			if tt.prepare != nil {
				tt.prepare(t, store)
			}

			times, err := store.BookSlots(context.Background(), "barber-1", monday, tod(tt.start), tt.duration, "booking-1")
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(times) != len(tt.wantTimes) {
				t.Fatalf("expected %v, got %v", tt.wantTimes, times)
			}
			for i, want := range tt.wantTimes {
				if times[i].String() != want {
					t.Errorf("slot %d: expected %s, got %s", i, want, times[i])
				}
			}
		})
	}
}

func TestBookSlots_OffDay(t *testing.T) {
	store, _ := newStore()

	_, err := store.BookSlots(context.Background(), "barber-1", sunday, tod("10:00"), 30, "booking-1")
	if !errors.Is(err, scheduleserrors.ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestBookSlots_ConcurrentSameSlotSucceedsOnce(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	if _, err := store.GetOrCreate(ctx, "barber-1", monday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ref := "booking-" + string(rune('a'+n))
			_, err := store.BookSlots(ctx, "barber-1", monday, tod("10:00"), 60, ref)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, scheduleserrors.ErrSlotUnavailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("expected exactly one winner, got %d", succeeded)
	}
	if conflicts != attempts-1 {
		t.Errorf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
}

func TestReleaseFrom_EarlyCompletion(t *testing.T) {
	store, repo := newStore()
	ctx := context.Background()

	if _, err := store.BookSlots(ctx, "barber-1", monday, tod("10:00"), 90, "booking-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	freed, err := store.ReleaseFrom(ctx, "barber-1", monday, "booking-1", tod("11:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(freed) != 1 || freed[0].String() != "11:00" {
		t.Fatalf("expected only 11:00 to be freed, got %v", freed)
	}

	sc, _ := repo.FindByBarberAndDate(ctx, "barber-1", monday)
	if got := len(sc.BookedBy("booking-1")); got != 2 {
		t.Errorf("expected 2 slots still booked, got %d", got)
	}
}

func TestReleaseFrom_NothingToRelease(t *testing.T) {
	store, _ := newStore()

	freed, err := store.ReleaseFrom(context.Background(), "barber-1", monday, "missing", tod("10:00"))
	if err != nil || freed != nil {
		t.Errorf("expected a silent no-op, got %v, %v", freed, err)
	}
}

func TestSetBlocked(t *testing.T) {
	store, repo := newStore()
	ctx := context.Background()

	if err := store.SetBlocked(ctx, "barber-1", monday, tod("09:30"), true, "training"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.BookSlots(ctx, "barber-1", monday, tod("09:30"), 30, "booking-1"); !apperrors.HasCode(err, apperrors.CodeSlotUnavailable) {
		t.Errorf("expected blocked slot to be unbookable, got %v", err)
	}

	if _, err := store.BookSlots(ctx, "barber-1", monday, tod("10:00"), 30, "booking-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SetBlocked(ctx, "barber-1", monday, tod("10:00"), true, ""); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Errorf("expected conflict blocking a booked slot, got %v", err)
	}
	if err := store.SetBlocked(ctx, "barber-1", monday, tod("12:00"), true, ""); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected not found for a break slot, got %v", err)
	}

	if err := store.SetBlocked(ctx, "barber-1", monday, tod("09:30"), false, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sc, _ := repo.FindByBarberAndDate(ctx, "barber-1", monday)
	if !sc.AvailableSlots[sc.SlotIndex(tod("09:30"))].Free() {
		t.Error("expected 09:30 to be free after unblocking")
	}
}

func TestMarkOffDay_FirstApprovedWins(t *testing.T) {
	store, repo := newStore()
	ctx := context.Background()

	outcome, err := store.MarkOffDay(ctx, "barber-1", monday, "absence-a", "vacation")
	if err != nil || outcome != OffDayMarked {
		t.Fatalf("expected marked, got %v, %v", outcome, err)
	}
	outcome, err = store.MarkOffDay(ctx, "barber-1", monday, "absence-b", "sick_leave")
	if err != nil || outcome != OffDaySkipped {
		t.Fatalf("expected skipped, got %v, %v", outcome, err)
	}
	outcome, err = store.MarkOffDay(ctx, "barber-1", monday, "absence-a", "vacation")
	if err != nil || outcome != OffDayMarked {
		t.Fatalf("expected re-marking by the owner to succeed, got %v, %v", outcome, err)
	}

	sc, _ := repo.FindByBarberAndDate(ctx, "barber-1", monday)
	if sc.AbsenceRef != "absence-a" || sc.OffReason != "vacation" {
		t.Errorf("expected absence-a to keep the day, got %s/%s", sc.AbsenceRef, sc.OffReason)
	}

	outcome, err = store.MarkOffDay(ctx, "barber-1", sunday, "absence-a", "vacation")
	if err != nil || outcome != OffDaySkipped {
		t.Errorf("expected non-working day to be skipped, got %v, %v", outcome, err)
	}
}

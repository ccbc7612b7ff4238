// Package memtest holds in-memory repositories for service tests.
package memtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	scheduleserrors "barbersched/internal/schedules/errors"
	"barbersched/internal/schedules/repository"
	"barbersched/pkg/calendar"
	"barbersched/pkg/model"
)

var _ repository.ScheduleRepository = (*MemoryScheduleRepository)(nil)

// MemoryScheduleRepository keeps schedules in a map and applies every write
// under one mutex with the same match conditions as the Mongo filters. It
// backs service tests, including the concurrent booking ones.
type MemoryScheduleRepository struct {
	mu        sync.Mutex
	schedules map[string]*model.Schedule
	seq       int
}

func NewMemoryScheduleRepository() *MemoryScheduleRepository {
	return &MemoryScheduleRepository{schedules: make(map[string]*model.Schedule)}
}

func memKey(barberID string, day calendar.Day) string {
	return barberID + "|" + day.String()
}

func cloneSchedule(sc *model.Schedule) *model.Schedule {
	out := *sc
	out.AvailableSlots = append([]model.Slot(nil), sc.AvailableSlots...)
	out.BreakTimes = append([]calendar.TimeRange(nil), sc.BreakTimes...)
	return &out
}

func (m *MemoryScheduleRepository) insertLocked(seed *model.Schedule) *model.Schedule {
	m.seq++
	sc := cloneSchedule(seed)
	sc.ID = fmt.Sprintf("mem-%d", m.seq)
	sc.Version = 1
	sc.CreatedAt = time.Now().UTC()
	sc.UpdatedAt = sc.CreatedAt
	m.schedules[memKey(sc.BarberID, sc.Date)] = sc
	return sc
}

func (m *MemoryScheduleRepository) Insert(_ context.Context, seed *model.Schedule) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sc, ok := m.schedules[memKey(seed.BarberID, seed.Date)]; ok {
		return cloneSchedule(sc), nil
	}
	return cloneSchedule(m.insertLocked(seed)), nil
}

// Put stores sc as is, replacing any existing schedule for the same day.
func (m *MemoryScheduleRepository) Put(sc *model.Schedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[memKey(sc.BarberID, sc.Date)] = cloneSchedule(sc)
}

func (m *MemoryScheduleRepository) FindByBarberAndDate(_ context.Context, barberID string, day calendar.Day) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc, ok := m.schedules[memKey(barberID, day)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", scheduleserrors.ErrNotFound, barberID, day)
	}
	return cloneSchedule(sc), nil
}

func (m *MemoryScheduleRepository) Find(_ context.Context, filter repository.Filter) ([]*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Schedule
	for _, sc := range m.schedules {
		if filter.BarberID != "" && sc.BarberID != filter.BarberID {
			continue
		}
		if !filter.From.IsZero() && sc.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && sc.Date.After(filter.To) {
			continue
		}
		if filter.AbsenceRef != "" && sc.AbsenceRef != filter.AbsenceRef {
			continue
		}
		if filter.BookingRef != "" && len(sc.BookedBy(filter.BookingRef)) == 0 {
			continue
		}
		if filter.OffOnly && !sc.IsOffDay {
			continue
		}
		out = append(out, cloneSchedule(sc))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BarberID != out[j].BarberID {
			return out[i].BarberID < out[j].BarberID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (m *MemoryScheduleRepository) BookSlots(_ context.Context, barberID string, day calendar.Day, idx []int, times []calendar.TimeOfDay, bookingRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc, ok := m.schedules[memKey(barberID, day)]
	if !ok || sc.IsOffDay || len(idx) == 0 || len(idx) != len(times) {
		return fmt.Errorf("%w: %s/%s", scheduleserrors.ErrSlotUnavailable, barberID, day)
	}
	for n, i := range idx {
		if i < 0 || i >= len(sc.AvailableSlots) {
			return fmt.Errorf("%w: %s/%s", scheduleserrors.ErrSlotUnavailable, barberID, day)
		}
		slot := sc.AvailableSlots[i]
		if slot.Time != times[n] || !slot.Free() {
			return fmt.Errorf("%w: %s/%s", scheduleserrors.ErrSlotUnavailable, barberID, day)
		}
	}
	for _, i := range idx {
		sc.AvailableSlots[i].IsBooked = true
		sc.AvailableSlots[i].BookingRef = bookingRef
	}
	sc.Version++
	return nil
}

func (m *MemoryScheduleRepository) ReleaseSlots(_ context.Context, release repository.Release) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var modified int64
	for _, sc := range m.schedules {
		if release.BarberID != "" && sc.BarberID != release.BarberID {
			continue
		}
		if !release.Day.IsZero() && !sc.Date.Equal(release.Day) {
			continue
		}
		changed := false
		for i, slot := range sc.AvailableSlots {
			if slot.BookingRef != release.BookingRef {
				continue
			}
			if release.From != nil && slot.Time < *release.From {
				continue
			}
			if len(release.Times) > 0 && !containsTime(release.Times, slot.Time) {
				continue
			}
			sc.AvailableSlots[i].IsBooked = false
			sc.AvailableSlots[i].BookingRef = ""
			changed = true
		}
		if changed {
			sc.Version++
			modified++
		}
	}
	return modified, nil
}

func (m *MemoryScheduleRepository) SetSlotBlocked(_ context.Context, barberID string, day calendar.Day, idx int, t calendar.TimeOfDay, blocked bool, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc, ok := m.schedules[memKey(barberID, day)]
	if !ok || idx < 0 || idx >= len(sc.AvailableSlots) || sc.AvailableSlots[idx].Time != t {
		return fmt.Errorf("%w: %s/%s %s", scheduleserrors.ErrSlotUnavailable, barberID, day, t)
	}
	if blocked && sc.AvailableSlots[idx].IsBooked {
		return fmt.Errorf("%w: %s/%s %s", scheduleserrors.ErrSlotUnavailable, barberID, day, t)
	}
	sc.AvailableSlots[idx].IsBlocked = blocked
	sc.AvailableSlots[idx].BlockReason = ""
	if blocked {
		sc.AvailableSlots[idx].BlockReason = reason
	}
	sc.Version++
	return nil
}

func (m *MemoryScheduleRepository) MarkOffDay(_ context.Context, seed *model.Schedule, absenceRef, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc, ok := m.schedules[memKey(seed.BarberID, seed.Date)]
	if !ok {
		sc = m.insertLocked(seed)
	} else if sc.IsOffDay && sc.AbsenceRef != absenceRef {
		return fmt.Errorf("%w: %s/%s", scheduleserrors.ErrOffDayClaimed, seed.BarberID, seed.Date)
	}
	sc.IsOffDay = true
	sc.OffReason = reason
	sc.AbsenceRef = absenceRef
	sc.Version++
	return nil
}

func (m *MemoryScheduleRepository) ClearOffDay(_ context.Context, barberID string, day calendar.Day, absenceRef string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc, ok := m.schedules[memKey(barberID, day)]
	if !ok || sc.AbsenceRef != absenceRef {
		return false, nil
	}
	sc.IsOffDay = false
	sc.OffReason = ""
	sc.AbsenceRef = ""
	sc.Version++
	return true, nil
}

func (m *MemoryScheduleRepository) TransferOffDay(_ context.Context, barberID string, day calendar.Day, fromRef, toRef, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc, ok := m.schedules[memKey(barberID, day)]
	if !ok || sc.AbsenceRef != fromRef {
		return false, nil
	}
	sc.IsOffDay = true
	sc.AbsenceRef = toRef
	sc.OffReason = reason
	sc.Version++
	return true, nil
}

func (m *MemoryScheduleRepository) DeleteBefore(_ context.Context, day calendar.Day) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for key, sc := range m.schedules {
		if sc.Date.Before(day) {
			delete(m.schedules, key)
			deleted++
		}
	}
	return deleted, nil
}

func containsTime(times []calendar.TimeOfDay, t calendar.TimeOfDay) bool {
	for _, candidate := range times {
		if candidate == t {
			return true
		}
	}
	return false
}

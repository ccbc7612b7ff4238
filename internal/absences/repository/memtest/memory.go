// Package memtest holds in-memory repositories for service tests.
package memtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	absenceserrors "barbersched/internal/absences/errors"
	"barbersched/internal/absences/repository"
	"barbersched/pkg/calendar"
	mongotx "barbersched/pkg/db/mongo"
	"barbersched/pkg/model"
)

var _ repository.AbsenceRepository = (*MemoryAbsenceRepository)(nil)

// MemoryAbsenceRepository mirrors the Mongo repository's conditions in
// memory. Transactions run the function directly.
type MemoryAbsenceRepository struct {
	mu       sync.Mutex
	absences map[string]*model.Absence
	seq      int
}

func NewMemoryAbsenceRepository() *MemoryAbsenceRepository {
	return &MemoryAbsenceRepository{absences: make(map[string]*model.Absence)}
}

func cloneAbsence(a *model.Absence) *model.Absence {
	out := *a
	out.AffectedBookings = append([]model.AffectedBooking(nil), a.AffectedBookings...)
	return &out
}

func (m *MemoryAbsenceRepository) Create(_ context.Context, absence *model.Absence) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	absence.ID = fmt.Sprintf("absence-%d", m.seq)
	absence.CreatedAt = time.Now().UTC()
	absence.UpdatedAt = absence.CreatedAt
	m.absences[absence.ID] = cloneAbsence(absence)
	return nil
}

// Put stores a copy of absence as is.
func (m *MemoryAbsenceRepository) Put(absence *model.Absence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.absences[absence.ID] = cloneAbsence(absence)
}

func (m *MemoryAbsenceRepository) FindByID(_ context.Context, id string) (*model.Absence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.absences[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", absenceserrors.ErrNotFound, id)
	}
	return cloneAbsence(a), nil
}

func (m *MemoryAbsenceRepository) Find(_ context.Context, filter model.AbsenceFilter) ([]*model.Absence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Absence
	for _, a := range m.absences {
		if filter.BarberID != "" && a.BarberID != filter.BarberID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, cloneAbsence(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})

	if filter.Offset >= int64(len(out)) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryAbsenceRepository) Count(ctx context.Context, filter model.AbsenceFilter) (int64, error) {
	filter.Limit, filter.Offset = 0, 0
	found, err := m.Find(ctx, filter)
	return int64(len(found)), err
}

func (m *MemoryAbsenceRepository) Transition(_ context.Context, id string, from []model.AbsenceStatus, decision repository.Decision) (*model.Absence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.absences[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", absenceserrors.ErrNotFound, id)
	}
	allowed := false
	for _, status := range from {
		if a.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s to %s", absenceserrors.ErrInvalidTransition, id, decision.To)
	}

	at := decision.At
	a.Status = decision.To
	a.UpdatedAt = at
	switch decision.To {
	case model.AbsenceApproved:
		a.ApprovedBy = decision.By
		a.ApprovedAt = &at
	case model.AbsenceRejected:
		a.RejectedBy = decision.By
		a.RejectedAt = &at
		a.RejectionReason = decision.Reason
	}
	return cloneAbsence(a), nil
}

func (m *MemoryAbsenceRepository) UpdateResolution(_ context.Context, id, bookingRef string, status model.ResolutionStatus, note string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.absences[id]
	if !ok {
		return fmt.Errorf("%w: %s", absenceserrors.ErrNotFound, id)
	}
	for i := range a.AffectedBookings {
		if a.AffectedBookings[i].BookingRef == bookingRef {
			resolvedAt := at
			a.AffectedBookings[i].ResolutionStatus = status
			a.AffectedBookings[i].ResolutionNote = note
			a.AffectedBookings[i].ResolvedAt = &resolvedAt
			return nil
		}
	}
	return fmt.Errorf("%w: %s", absenceserrors.ErrBookingNotAffected, bookingRef)
}

func (m *MemoryAbsenceRepository) FindApproved(_ context.Context, barberID string, from, to calendar.Day) ([]*model.Absence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Absence
	for _, a := range m.absences {
		if a.Status != model.AbsenceApproved {
			continue
		}
		if barberID != "" && a.BarberID != barberID {
			continue
		}
		if a.StartDate.After(to) || a.EndDate.Before(from) {
			continue
		}
		out = append(out, cloneAbsence(a))
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].ApprovedAt, out[j].ApprovedAt
		if ai != nil && aj != nil && !ai.Equal(*aj) {
			return ai.Before(*aj)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryAbsenceRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

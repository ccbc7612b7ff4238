// Package memtest holds in-memory repositories for service tests.
package memtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	bookingserrors "barbersched/internal/bookings/errors"
	"barbersched/internal/bookings/repository"
	"barbersched/pkg/model"
)

var _ repository.BookingRepository = (*MemoryBookingRepository)(nil)

// MemoryBookingRepository applies the same conditions as the Mongo
// repository to an in-process map.
type MemoryBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
}

func NewMemoryBookingRepository(bookings ...*model.Booking) *MemoryBookingRepository {
	m := &MemoryBookingRepository{bookings: make(map[string]*model.Booking)}
	for _, b := range bookings {
		m.Put(b)
	}
	return m
}

func (m *MemoryBookingRepository) Put(b *model.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.bookings[b.ID] = &cp
}

// Get returns a copy of the stored booking for assertions.
func (m *MemoryBookingRepository) Get(id string) *model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

func (m *MemoryBookingRepository) FindByID(_ context.Context, id string) (*model.Booking, error) {
	if b := m.Get(id); b != nil {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
}

func matches(b *model.Booking, filter repository.Filter) bool {
	if !b.Status.IsActive() && !(filter.IncludeCompleted && b.Status == model.BookingCompleted) {
		return false
	}
	if filter.BarberID != "" && b.BarberID != filter.BarberID {
		return false
	}
	if !filter.From.IsZero() && b.BookingDate.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && !b.BookingDate.Before(filter.To) {
		return false
	}
	return true
}

func (m *MemoryBookingRepository) FindActive(_ context.Context, filter repository.Filter) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Booking
	for _, b := range m.bookings {
		if matches(b, filter) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingDate.Before(out[j].BookingDate) })
	return out, nil
}

func (m *MemoryBookingRepository) CountActive(ctx context.Context, filter repository.Filter) (int64, error) {
	found, err := m.FindActive(ctx, filter)
	return int64(len(found)), err
}

func (m *MemoryBookingRepository) update(id, barberID string, apply func(b *model.Booking)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok || !b.Status.IsActive() || (barberID != "" && b.BarberID != barberID) {
		return fmt.Errorf("%w: %s", bookingserrors.ErrStateChanged, id)
	}
	apply(b)
	return nil
}

func (m *MemoryBookingRepository) Reassign(_ context.Context, id string, change repository.Reassignment) error {
	return m.update(id, change.FromBarberID, func(b *model.Booking) {
		at := change.At
		b.BarberID = change.ToBarberID
		b.ReassignedFrom = change.FromBarberID
		b.ReassignedAt = &at
		b.ReassignedBy = change.By
		if change.BookingDate != nil {
			b.BookingDate = *change.BookingDate
		}
	})
}

func (m *MemoryBookingRepository) Reject(_ context.Context, id, reason string, at time.Time) error {
	return m.update(id, "", func(b *model.Booking) {
		b.Status = model.BookingRejected
		b.RejectionReason = reason
		b.UpdatedAt = at
	})
}

func (m *MemoryBookingRepository) Complete(_ context.Context, id string, at time.Time) error {
	return m.update(id, "", func(b *model.Booking) {
		b.Status = model.BookingCompleted
		b.CompletedAt = &at
	})
}

func (m *MemoryBookingRepository) MarkAutoAssigned(_ context.Context, id, barberID string) error {
	return m.update(id, "", func(b *model.Booking) {
		b.BarberID = barberID
		b.AutoAssigned = true
	})
}

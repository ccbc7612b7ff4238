// Package memtest holds in-memory repositories for service tests.
package memtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	barberserrors "barbersched/internal/barbers/errors"
	"barbersched/internal/barbers/repository"
	"barbersched/pkg/model"
)

var (
	_ repository.BarberRepository = (*MemoryBarberRepository)(nil)
	_ repository.ServiceRepository = (*MemoryServiceRepository)(nil)
)

type MemoryBarberRepository struct {
	mu      sync.RWMutex
	barbers map[string]*model.Barber
}

func NewMemoryBarberRepository(barbers ...*model.Barber) *MemoryBarberRepository {
	m := &MemoryBarberRepository{barbers: make(map[string]*model.Barber)}
	for _, b := range barbers {
		cp := *b
		m.barbers[b.ID] = &cp
	}
	return m
}

func (m *MemoryBarberRepository) FindByID(_ context.Context, id string) (*model.Barber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.barbers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", barberserrors.ErrBarberNotFound, id)
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryBarberRepository) FindEligible(_ context.Context, expertise []string) ([]*model.Barber, error) {
	return m.filter(func(b *model.Barber) bool {
		return b.IsAvailable && b.AutoAssignmentEligible && b.HasExpertise(expertise...)
	}), nil
}

func (m *MemoryBarberRepository) FindAvailable(_ context.Context) ([]*model.Barber, error) {
	return m.filter(func(b *model.Barber) bool { return b.IsAvailable }), nil
}

func (m *MemoryBarberRepository) filter(keep func(b *model.Barber) bool) []*model.Barber {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.Barber
	for _, b := range m.barbers {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type MemoryServiceRepository struct {
	services map[string]*model.Service
}

func NewMemoryServiceRepository(services ...*model.Service) *MemoryServiceRepository {
	m := &MemoryServiceRepository{services: make(map[string]*model.Service)}
	for _, s := range services {
		cp := *s
		m.services[s.ID] = &cp
	}
	return m
}

func (m *MemoryServiceRepository) FindByID(_ context.Context, id string) (*model.Service, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", barberserrors.ErrServiceNotFound, id)
	}
	cp := *s
	return &cp, nil
}

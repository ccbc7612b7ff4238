// Package memtest holds in-memory repositories for service tests.
package memtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	maintenanceerrors "barbersched/internal/maintenance/errors"
	"barbersched/internal/maintenance/repository"
	"barbersched/pkg/model"
)

var _ repository.LockRepository = (*MemoryLockRepository)(nil)

type MemoryLockRepository struct {
	mu    sync.Mutex
	locks map[string]model.Lock
	now   func() time.Time
}

func NewMemoryLockRepository(now func() time.Time) *MemoryLockRepository {
	return &MemoryLockRepository{locks: make(map[string]model.Lock), now: now}
}

func (m *MemoryLockRepository) Acquire(_ context.Context, lock *model.Lock) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock.CreatedAt = m.now()
	if held, ok := m.locks[lock.ID]; ok && held.ExpiresAt.After(lock.CreatedAt) {
		return fmt.Errorf("%w: %s", maintenanceerrors.ErrLockHeld, lock.ID)
	}
	m.locks[lock.ID] = *lock
	return nil
}

func (m *MemoryLockRepository) Release(_ context.Context, id, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if held, ok := m.locks[id]; ok && held.Owner == owner {
		delete(m.locks, id)
	}
	return nil
}

// Held reports whether id is currently locked.
func (m *MemoryLockRepository) Held(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	held, ok := m.locks[id]
	return ok && held.ExpiresAt.After(m.now())
}

package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/comatrix-1/interviewready/internal/domain"
)

// MemoryRepo keeps runs in process memory. Stored and returned runs are
// copies, so callers may keep mutating their own value.
type MemoryRepo struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*domain.OptimizationRun
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{runs: map[uuid.UUID]*domain.OptimizationRun{}}
}

func (m *MemoryRepo) Save(_ context.Context, run *domain.OptimizationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run.Clone()
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, id uuid.UUID) (*domain.OptimizationRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return run.Clone(), nil
}

func (m *MemoryRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]*domain.OptimizationRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OptimizationRun
	for _, run := range m.runs {
		if run.UserID == userID {
			out = append(out, run.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

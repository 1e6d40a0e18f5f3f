package repo

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/shaiso/Maidono/internal/domain"
)

// MemoryRunStore хранит runs в памяти процесса.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*domain.Run
}

var _ RunStore = (*MemoryRunStore)(nil)

// NewMemoryRunStore создаёт пустое хранилище.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: make(map[uuid.UUID]*domain.Run)}
}

// Create сохраняет новый run.
func (s *MemoryRunStore) Create(_ context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("run %s: %w", run.ID, ErrAlreadyExists)
	}
	s.runs[run.ID] = cloneRun(run)
	return nil
}

// Update заменяет сохранённый run.
func (s *MemoryRunStore) Update(_ context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; !exists {
		return ErrNotFound
	}
	s.runs[run.ID] = cloneRun(run)
	return nil
}

// GetByID возвращает run по ID.
func (s *MemoryRunStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRun(run), nil
}

// List возвращает runs от новых к старым.
func (s *MemoryRunStore) List(_ context.Context, filter RunFilter) ([]domain.Run, error) {
	filter = filter.Normalize()

	s.mu.RLock()
	var runs []domain.Run
	for _, run := range s.runs {
		if matches(run, filter) {
			runs = append(runs, *cloneRun(run))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(runs, func(a, b domain.Run) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	if filter.Offset >= len(runs) {
		return nil, nil
	}
	runs = runs[filter.Offset:]
	if len(runs) > filter.Limit {
		runs = runs[:filter.Limit]
	}
	return runs, nil
}

// Close ничего не делает.
func (s *MemoryRunStore) Close() error {
	return nil
}

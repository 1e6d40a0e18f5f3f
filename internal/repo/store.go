package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Maidono/internal/domain"
)

// Драйверы хранилища.
const (
	DriverNone     = "none"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Значения фильтра по умолчанию.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// RunStore — хранилище истории выполнений.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	Update(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, filter RunFilter) ([]domain.Run, error)
	Close() error
}

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	// Action — путь "group/action". Пустая строка — любая.
	Action string

	// Status — статус. Пустая строка — любой.
	Status domain.RunStatus

	Limit  int
	Offset int
}

// Normalize подставляет значения по умолчанию.
func (f RunFilter) Normalize() RunFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Open открывает хранилище по драйверу.
// Для DriverNone возвращает nil без ошибки: история не ведётся.
func Open(ctx context.Context, driver, dsn string) (RunStore, error) {
	switch driver {
	case "", DriverNone:
		return nil, nil
	case DriverMemory:
		return NewMemoryRunStore(), nil
	case DriverSQLite:
		return NewSQLiteRunStore(ctx, dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

// cloneRun возвращает копию run, не разделяющую срезы и указатели.
func cloneRun(run *domain.Run) *domain.Run {
	c := *run
	c.Steps = append([]domain.StepResult(nil), run.Steps...)
	if run.FinishedAt != nil {
		t := *run.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}

func matches(run *domain.Run, filter RunFilter) bool {
	if filter.Action != "" && run.Action.String() != filter.Action {
		return false
	}
	if filter.Status != "" && run.Status != filter.Status {
		return false
	}
	return true
}

package engine

import (
	"fmt"
	"slices"

	"github.com/shaiso/Maidono/internal/domain"
)

// Entry — одна action каталога с её путём.
type Entry struct {
	Path   domain.ActionPath
	Action *domain.Action
}

// EnabledSet сообщает, включена ли action.
type EnabledSet interface {
	IsEnabled(path domain.ActionPath) bool
}

// Registry — неизменяемый индекс actions по пути.
//
// После NewRegistry ни одно поле не меняется, поэтому Registry
// безопасно разделять между горутинами.
type Registry struct {
	actions      map[domain.ActionPath]*domain.Action
	paths        []domain.ActionPath // по возрастанию
	enabled      EnabledSet
	detectCycles bool
}

// Option настраивает Registry.
type Option func(*Registry)

// WithEnabled ограничивает поиск по trigger включёнными actions.
// Разрешение зависимостей фильтр не учитывает.
func WithEnabled(set EnabledSet) Option {
	return func(r *Registry) {
		r.enabled = set
	}
}

// WithCycleDetection включает проверку циклов при разрешении плана.
func WithCycleDetection(enabled bool) Option {
	return func(r *Registry) {
		r.detectCycles = enabled
	}
}

// NewRegistry строит реестр. Возвращает ErrDuplicateAction,
// если две записи имеют одинаковый путь.
func NewRegistry(entries []Entry, opts ...Option) (*Registry, error) {
	r := &Registry{
		actions: make(map[domain.ActionPath]*domain.Action, len(entries)),
		paths:   make([]domain.ActionPath, 0, len(entries)),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, e := range entries {
		if _, exists := r.actions[e.Path]; exists {
			return nil, fmt.Errorf("%w: '%s'", ErrDuplicateAction, e.Path)
		}
		r.actions[e.Path] = e.Action
		r.paths = append(r.paths, e.Path)
	}

	slices.SortFunc(r.paths, domain.ActionPath.Compare)
	return r, nil
}

// Len возвращает количество actions.
func (r *Registry) Len() int {
	return len(r.paths)
}

// Get возвращает action по пути.
func (r *Registry) Get(path domain.ActionPath) (*domain.Action, bool) {
	action, ok := r.actions[path]
	return action, ok
}

// Paths возвращает пути всех actions по возрастанию.
func (r *Registry) Paths() []domain.ActionPath {
	return slices.Clone(r.paths)
}

// IsEnabled возвращает true, если action доступна для поиска по trigger.
// Без фильтра включены все actions.
func (r *Registry) IsEnabled(path domain.ActionPath) bool {
	return r.enabled == nil || r.enabled.IsEnabled(path)
}

// LookupByTrigger ищет action, trigger которой равен "METHOD path".
//
// Обходит пути по возрастанию, при нескольких совпадениях побеждает
// меньший путь. Сравнение точное, с учётом регистра метода.
func (r *Registry) LookupByTrigger(method, path string) (domain.ActionPath, *domain.Action, bool) {
	trigger := method + " " + path
	for _, p := range r.paths {
		action := r.actions[p]
		if action.Trigger != trigger || !r.IsEnabled(p) {
			continue
		}
		return p, action, true
	}
	return domain.ActionPath{}, nil, false
}

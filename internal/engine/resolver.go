package engine

import (
	"fmt"
	"slices"

	"github.com/shaiso/Maidono/internal/domain"
	"github.com/shaiso/Maidono/internal/problem"
)

// Resolve разворачивает action в план выполнения:
// планы before по порядку, затем сама action, затем планы after.
//
// План не дедуплицируется. Любая ошибка прерывает разрешение целиком.
// Без WithCycleDetection циклическая ссылка приводит к бесконечной рекурсии.
func (r *Registry) Resolve(path domain.ActionPath) (domain.ExecutionPlan, error) {
	action, ok := r.actions[path]
	if !ok {
		return nil, notFound(path.String())
	}

	var stack []domain.ActionPath
	if r.detectCycles {
		stack = []domain.ActionPath{}
	}

	plan, err := r.resolve(path, action, stack)
	if err != nil {
		return nil, problem.Newf("unable to resolve action '%s'", path).Because(err)
	}
	return plan, nil
}

// resolve — рекурсивный шаг. stack равен nil, если проверка циклов выключена.
func (r *Registry) resolve(path domain.ActionPath, action *domain.Action, stack []domain.ActionPath) (domain.ExecutionPlan, error) {
	if stack != nil {
		if slices.Contains(stack, path) {
			return nil, fmt.Errorf("%w: '%s'", ErrCyclicDependency, path)
		}
		stack = append(stack, path)
	}

	var plan domain.ExecutionPlan

	for _, ref := range action.Before {
		sub, err := r.resolveRef(ref, stack)
		if err != nil {
			return nil, err
		}
		plan = append(plan, sub...)
	}

	plan = append(plan, domain.PlanEntry{Path: path, Pipeline: action.Pipeline})

	for _, ref := range action.After {
		sub, err := r.resolveRef(ref, stack)
		if err != nil {
			return nil, err
		}
		plan = append(plan, sub...)
	}

	return plan, nil
}

// resolveRef разбирает ссылку before/after и разрешает её план.
func (r *Registry) resolveRef(ref string, stack []domain.ActionPath) (domain.ExecutionPlan, error) {
	path, err := domain.ParseActionPath(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %w", ErrActionNotFound, ref, err)
	}
	action, ok := r.actions[path]
	if !ok {
		return nil, notFound(ref)
	}
	return r.resolve(path, action, slices.Clip(stack))
}

func notFound(ref string) error {
	return fmt.Errorf("%w: '%s'", ErrActionNotFound, ref)
}

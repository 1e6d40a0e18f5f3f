package orchestrator

import "errors"

// Ошибки диспетчера.
var (
	// ErrNoRunner — Dispatcher создан без PlanRunner.
	ErrNoRunner = errors.New("dispatcher has no plan runner")

	// ErrNoRegistry — Dispatcher создан без реестра.
	ErrNoRegistry = errors.New("dispatcher has no registry")
)

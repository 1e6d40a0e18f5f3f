package engine

import "errors"

// Ошибки реестра.
var (
	// ErrDuplicateAction — две записи с одинаковым путём.
	ErrDuplicateAction = errors.New("duplicate action")

	// ErrActionNotFound — ссылка на несуществующую action или строка,
	// не являющаяся путём "group/action".
	ErrActionNotFound = errors.New("action not found")

	// ErrCyclicDependency — обнаружен цикл в before/after.
	ErrCyclicDependency = errors.New("cyclic dependency detected")
)

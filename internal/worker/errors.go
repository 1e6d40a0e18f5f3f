package worker

import "errors"

// Ошибки выполнения.
var (
	// ErrCommandFailed — команда завершилась с ненулевым кодом.
	ErrCommandFailed = errors.New("command failed")

	// ErrCommandNotStarted — команду не удалось запустить.
	ErrCommandNotStarted = errors.New("could not run command")

	// ErrEmptyPipeline — у action нет команд.
	ErrEmptyPipeline = errors.New("action has no commands")
)

package domain

// RunStatus — статус выполнения плана.
//
// Жизненный цикл:
//
//	RUNNING → FAILED     (при первой упавшей action; назад не возвращается)
//	RUNNING → SUCCEEDED  (все шаги плана выполнены)
type RunStatus string

const (
	// RunStatusRunning — план выполняется.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusFailed — одна из actions упала, остальные пропускаются.
	RunStatusFailed RunStatus = "FAILED"

	// RunStatusSucceeded — план выполнен полностью.
	RunStatusSucceeded RunStatus = "SUCCEEDED"
)

// IsTerminal возвращает true, если статус финальный.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusFailed, RunStatusSucceeded:
		return true
	default:
		return false
	}
}

// ParseRunStatus парсит строку в RunStatus.
func ParseRunStatus(s string) (RunStatus, bool) {
	switch RunStatus(s) {
	case RunStatusRunning, RunStatusFailed, RunStatusSucceeded:
		return RunStatus(s), true
	default:
		return "", false
	}
}

// StepStatus — результат одного шага плана.
type StepStatus string

const (
	// StepStatusSucceeded — все команды action завершились с кодом 0.
	StepStatusSucceeded StepStatus = "SUCCEEDED"

	// StepStatusFailed — команда завершилась ошибкой или не запустилась.
	StepStatusFailed StepStatus = "FAILED"

	// StepStatusSkipped — шаг пропущен после падения предыдущего.
	StepStatusSkipped StepStatus = "SKIPPED"
)

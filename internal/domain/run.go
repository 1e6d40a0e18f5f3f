package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — запись об одном выполнении плана.
//
// Run создаётся диспетчером при принятии webhook и обновляется
// воркером по мере выполнения шагов.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// Action — action, сработавшая по trigger.
	Action ActionPath `json:"action"`

	// Trigger — строка "METHOD /path" запроса.
	Trigger string `json:"trigger"`

	// Status — текущий статус.
	Status RunStatus `json:"status"`

	// Steps — результаты шагов плана в порядке выполнения.
	Steps []StepResult `json:"steps"`

	// DeliveryID — X-Github-Delivery (только для GitHub).
	DeliveryID string `json:"delivery_id,omitempty"`

	// Event — X-Github-Event (только для GitHub).
	Event string `json:"event,omitempty"`

	// Error — текст ошибки, если run завершился с FAILED.
	Error string `json:"error,omitempty"`

	// StartedAt — время принятия webhook.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время завершения. Nil, пока run выполняется.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// StepResult — результат одного шага плана.
type StepResult struct {
	Action ActionPath `json:"action"`
	Status StepStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// NewRun создаёт run в статусе RUNNING со всеми шагами плана.
// До выполнения шаги помечены как SKIPPED.
func NewRun(path ActionPath, trigger string, plan ExecutionPlan) *Run {
	steps := make([]StepResult, len(plan))
	for i, entry := range plan {
		steps[i] = StepResult{Action: entry.Path, Status: StepStatusSkipped}
	}
	return &Run{
		ID:        uuid.New(),
		Action:    path,
		Trigger:   trigger,
		Status:    RunStatusRunning,
		Steps:     steps,
		StartedAt: time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// IsFinished возвращает true, если run завершён.
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkFailed переводит run в статус FAILED. Финальное время
// выставляется в Finish.
func (r *Run) MarkFailed(err string) {
	r.Status = RunStatusFailed
	r.Error = err
}

// Finish завершает run: RUNNING становится SUCCEEDED, FAILED остаётся.
func (r *Run) Finish() {
	now := time.Now()
	if r.Status == RunStatusRunning {
		r.Status = RunStatusSucceeded
	}
	r.FinishedAt = &now
}

// Package domain содержит доменные модели Maidono.
//
// Модели:
//   - ActionPath, ActionPathPattern — идентификаторы actions
//   - Action, Origin — описание action из каталога
//   - ExecutionPlan — развёрнутый план выполнения
//   - Run, RunStatus, StepStatus — история выполнений
//
// Пакет не зависит от остальных internal-пакетов.
package domain

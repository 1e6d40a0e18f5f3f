package domain

// PlanEntry — один шаг плана выполнения.
type PlanEntry struct {
	Path     ActionPath
	Pipeline []string
}

// ExecutionPlan — развёрнутая упорядоченная последовательность actions
// для одного срабатывания webhook.
//
// Не дедуплицируется: action, достижимая двумя путями, выполняется дважды.
type ExecutionPlan []PlanEntry

// Paths возвращает пути шагов плана в порядке выполнения.
func (p ExecutionPlan) Paths() []ActionPath {
	paths := make([]ActionPath, len(p))
	for i, entry := range p {
		paths[i] = entry.Path
	}
	return paths
}

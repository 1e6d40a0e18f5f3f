package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Maidono/internal/domain"
)

// Action DTOs

// ActionResponse — action реестра.
type ActionResponse struct {
	Path      string   `json:"path"`
	Trigger   string   `json:"trigger"`
	Origin    string   `json:"origin"`
	Enabled   bool     `json:"enabled"`
	HasSecret bool     `json:"has_secret"`
	Before    []string `json:"before,omitempty"`
	After     []string `json:"after,omitempty"`
	Commands  int      `json:"commands"`
}

// ActionFromDomain конвертирует domain.Action в ActionResponse.
// Секрет не попадает в ответ.
func ActionFromDomain(path domain.ActionPath, a *domain.Action, enabled bool) ActionResponse {
	return ActionResponse{
		Path:      path.String(),
		Trigger:   a.Trigger,
		Origin:    a.Origin.String(),
		Enabled:   enabled,
		HasSecret: a.HasSecret(),
		Before:    a.Before,
		After:     a.After,
		Commands:  len(a.Pipeline),
	}
}

// Run DTOs

// StepResponse — шаг плана.
type StepResponse struct {
	Action string `json:"action"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RunResponse — ответ с run.
type RunResponse struct {
	ID         uuid.UUID      `json:"id"`
	Action     string         `json:"action"`
	Trigger    string         `json:"trigger"`
	Status     string         `json:"status"`
	Steps      []StepResponse `json:"steps"`
	DeliveryID string         `json:"delivery_id,omitempty"`
	Event      string         `json:"event,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	steps := make([]StepResponse, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = StepResponse{
			Action: s.Action.String(),
			Status: string(s.Status),
			Error:  s.Error,
		}
	}

	return RunResponse{
		ID:         r.ID,
		Action:     r.Action.String(),
		Trigger:    r.Trigger,
		Status:     string(r.Status),
		Steps:      steps,
		DeliveryID: r.DeliveryID,
		Event:      r.Event,
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DurationMs: r.Duration().Milliseconds(),
	}
}

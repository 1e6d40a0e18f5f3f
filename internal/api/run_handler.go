package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shaiso/Maidono/internal/domain"
	"github.com/shaiso/Maidono/internal/repo"
)

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?action=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, r, h.logger, http.StatusNotFound, ErrCodeDisabled, "run history is disabled")
		return
	}

	query := r.URL.Query()
	filter := repo.RunFilter{Action: query.Get("action")}

	if status := query.Get("status"); status != "" {
		parsed, ok := domain.ParseRunStatus(status)
		if !ok {
			badRequest(w, r, h.logger, "invalid status")
			return
		}
		filter.Status = parsed
	}

	var err error
	if filter.Limit, err = intParam(query.Get("limit"), repo.DefaultLimit); err != nil {
		badRequest(w, r, h.logger, "invalid limit")
		return
	}
	if filter.Offset, err = intParam(query.Get("offset"), 0); err != nil {
		badRequest(w, r, h.logger, "invalid offset")
		return
	}

	runs, err := h.runs.List(r.Context(), filter)
	if storeError(w, r, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	respondList(w, r, h.logger, result, len(result))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, r, h.logger, http.StatusNotFound, ErrCodeDisabled, "run history is disabled")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, r, h.logger, "invalid run id")
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if storeError(w, r, h.logger, err, "run not found") {
		return
	}

	respondData(w, r, h.logger, RunFromDomain(*run))
}

// intParam разбирает неотрицательное целое query параметра.
func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

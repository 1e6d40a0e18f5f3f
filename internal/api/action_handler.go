package api

import (
	"net/http"
)

// ListActions возвращает actions реестра.
// GET /api/v1/actions
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	paths := h.registry.Paths()

	result := make([]ActionResponse, 0, len(paths))
	for _, p := range paths {
		action, _ := h.registry.Get(p)
		result = append(result, ActionFromDomain(p, action, h.registry.IsEnabled(p)))
	}

	respondList(w, r, h.logger, result, len(result))
}

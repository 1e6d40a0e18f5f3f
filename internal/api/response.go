package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Maidono/internal/problem"
	"github.com/shaiso/Maidono/internal/repo"
	"github.com/shaiso/Maidono/internal/telemetry"
)

// ErrorCode — машинно-читаемый код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeDisabled      ErrorCode = "DISABLED"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// envelope — общая обёртка ответов /api/v1: либо data (и total для
// списков), либо error.
type envelope struct {
	Data  any        `json:"data,omitempty"`
	Total *int       `json:"total,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// writeJSON пишет v со статусом. Ошибку кодирования можно только залогировать:
// заголовок уже отправлен.
func writeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		telemetry.FromContext(r.Context(), logger).Warn("failed to write response", "error", err)
	}
}

// respondData отвечает 200 с одним объектом.
func respondData(w http.ResponseWriter, r *http.Request, logger *slog.Logger, data any) {
	writeJSON(w, r, logger, http.StatusOK, envelope{Data: data})
}

// respondList отвечает 200 со списком. total выводится и при пустом списке.
func respondList(w http.ResponseWriter, r *http.Request, logger *slog.Logger, items any, total int) {
	writeJSON(w, r, logger, http.StatusOK, envelope{Data: items, Total: &total})
}

// respondError отвечает ошибкой с кодом и сообщением.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, code ErrorCode, message string) {
	writeJSON(w, r, logger, status, envelope{Error: &errorBody{Code: code, Message: message}})
}

func badRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string) {
	respondError(w, r, logger, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func notFound(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string) {
	respondError(w, r, logger, http.StatusNotFound, ErrCodeNotFound, message)
}

// internalError логирует err целиком и отвечает 500 без подробностей.
func internalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	log := telemetry.FromContext(r.Context(), logger)
	if err != nil {
		log.Error("internal error", "error", err, "detail", problem.Detailed(err))
	}
	respondError(w, r, logger, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// storeError переводит ошибку хранилища runs в ответ.
// Возвращает false, если err == nil и ответ ещё не отправлен.
func storeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFoundMsg string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, repo.ErrNotFound):
		notFound(w, r, logger, notFoundMsg)
	default:
		internalError(w, r, logger, err)
	}
	return true
}

// Package telemetry обеспечивает наблюдаемость сервера.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//   - tracing.go — OpenTelemetry трассировка
//
// Метрики экспортируются на /metrics. Трассы пишутся через stdouttrace
// в переданный writer (сервер отдаёт stderr, stdout занят логами).
package telemetry

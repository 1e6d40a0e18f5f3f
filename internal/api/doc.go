// Package api содержит HTTP сервер Maidono.
//
// Структура:
//   - handler.go  — Handler с DI (dispatcher, история runs, logger)
//   - routes.go   — маршруты chi
//   - middleware.go — request id, logging, recovery
//   - response.go — JSON-ответы и обработка ошибок
//   - dto.go      — Data Transfer Objects
//   - webhook.go  — POST /* и статическое веб-приложение
//   - action_handler.go, run_handler.go — read-only API
//
// Webhook отвечает только статусом: 200, 400, 404 или 500.
package api

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Router собирает все маршруты сервера.
//
// Служебные маршруты (/healthz, /metrics, /api/v1/*) отвечают только на GET.
// POST на любой путь, включая служебные, уходит в Webhook.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(
		RequestLogger(h.logger),
		Logging(h.logger),
		Recovery(h.logger),
		middleware.RealIP,
	)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "maidono")
	})

	metrics := h.metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	r.NotFound(h.static.ServeHTTP)
	r.MethodNotAllowed(h.static.ServeHTTP)

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/actions", h.ListActions)
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{id}", h.GetRun)
		r.Post("/*", h.Webhook)
	})

	r.Post("/*", h.Webhook)

	return r
}

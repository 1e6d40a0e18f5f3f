package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shaiso/Maidono/internal/engine"
	"github.com/shaiso/Maidono/internal/orchestrator"
	"github.com/shaiso/Maidono/internal/repo"
)

// Handler — главный обработчик HTTP сервера с зависимостями.
type Handler struct {
	dispatcher *orchestrator.Dispatcher
	registry   *engine.Registry
	runs       repo.RunStore
	static     http.Handler
	metrics    http.Handler
	startedAt  time.Time
	logger     *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Dispatcher *orchestrator.Dispatcher

	// Runs — история выполнений. nil — история отключена,
	// /api/v1/runs отвечает 404.
	Runs repo.RunStore

	// WebIndex и WebAssets — файлы веб-приложения.
	// Пустые значения отключают соответствующую часть.
	WebIndex  string
	WebAssets string

	// Metrics обслуживает /metrics. По умолчанию promhttp.Handler().
	Metrics http.Handler

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		dispatcher: cfg.Dispatcher,
		registry:   cfg.Dispatcher.Registry(),
		runs:       cfg.Runs,
		static:     NewStaticHandler(cfg.WebIndex, cfg.WebAssets),
		metrics:    cfg.Metrics,
		startedAt:  time.Now(),
		logger:     logger,
	}
}

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — метрики сервера.
type Metrics struct {
	// WebhookRequests — входящие webhook по исходу (accepted, not_found, ...).
	WebhookRequests *prometheus.CounterVec

	// RunsStarted — запущенные планы.
	RunsStarted prometheus.Counter

	// RunsFinished — завершённые планы по статусу.
	RunsFinished *prometheus.CounterVec

	// RunsInFlight — выполняющиеся планы.
	RunsInFlight prometheus.Gauge

	// ActionDuration — время выполнения одной action.
	ActionDuration *prometheus.HistogramVec
}

// NewMetrics регистрирует метрики в reg.
// nil означает prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		WebhookRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "maidono_webhook_requests_total",
			Help: "Webhook requests handled by maidono, by outcome",
		}, []string{"outcome"}),
		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "maidono_runs_started_total",
			Help: "Execution plans started",
		}),
		RunsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "maidono_runs_finished_total",
			Help: "Execution plans finished, by status",
		}, []string{"status"}),
		RunsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "maidono_runs_in_flight",
			Help: "Execution plans currently running",
		}),
		ActionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "maidono_action_duration_seconds",
			Help:    "Duration of a single action pipeline",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"status"}),
	}
}

package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/shaiso/Maidono/internal/domain"
	"github.com/shaiso/Maidono/internal/engine"
	"github.com/shaiso/Maidono/internal/problem"
	"github.com/shaiso/Maidono/internal/security"
	"github.com/shaiso/Maidono/internal/telemetry"
)

// Outcome — результат обработки webhook.
type Outcome int

const (
	// OutcomeAccepted — план запущен.
	OutcomeAccepted Outcome = iota

	// OutcomeNotFound — ни одна action не слушает этот запрос.
	OutcomeNotFound

	// OutcomeBadRequest — заголовки или подпись не прошли проверку.
	OutcomeBadRequest

	// OutcomeServerError — план не удалось разрешить.
	OutcomeServerError
)

// String возвращает имя исхода для логов и метрик.
func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeBadRequest:
		return "bad_request"
	case OutcomeServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// StatusCode возвращает HTTP статус исхода.
func (o Outcome) StatusCode() int {
	switch o {
	case OutcomeAccepted:
		return http.StatusOK
	case OutcomeNotFound:
		return http.StatusNotFound
	case OutcomeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Request — входящий webhook.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   io.Reader
}

// NewRequest берёт поля из http.Request.
func NewRequest(r *http.Request) Request {
	return Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header,
		Body:   r.Body,
	}
}

// PlanRunner выполняет разрешённый план. Реализуется worker.Runner.
type PlanRunner interface {
	Run(ctx context.Context, run *domain.Run, plan domain.ExecutionPlan)
}

// Dispatcher обрабатывает webhook.
//
// Реестр неизменяем, поэтому Dispatcher безопасен для одновременных
// вызовов Dispatch из горутин HTTP сервера.
type Dispatcher struct {
	registry  *engine.Registry
	runner    PlanRunner
	sem       *semaphore.Weighted
	bodyLimit int64
	metrics   *telemetry.Metrics
	tracer    trace.Tracer
	logger    *slog.Logger

	wg sync.WaitGroup
}

// Config — конфигурация Dispatcher.
type Config struct {
	Registry *engine.Registry
	Runner   PlanRunner

	// MaxConcurrent ограничивает число одновременно выполняемых планов.
	// 0 — без ограничения.
	MaxConcurrent int64

	// BodyLimit — сколько байт тела участвует в проверке подписи.
	// 0 — security.DefaultBodyLimit.
	BodyLimit int64

	// Metrics — Prometheus метрики (опционально).
	Metrics *telemetry.Metrics

	Logger *slog.Logger
}

// New создаёт Dispatcher.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Registry == nil {
		return nil, ErrNoRegistry
	}
	if cfg.Runner == nil {
		return nil, ErrNoRunner
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bodyLimit := cfg.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = security.DefaultBodyLimit
	}

	d := &Dispatcher{
		registry:  cfg.Registry,
		runner:    cfg.Runner,
		bodyLimit: bodyLimit,
		metrics:   cfg.Metrics,
		tracer:    telemetry.Tracer(),
		logger:    logger,
	}
	if cfg.MaxConcurrent > 0 {
		d.sem = semaphore.NewWeighted(cfg.MaxConcurrent)
	}
	return d, nil
}

// Registry возвращает реестр диспетчера.
func (d *Dispatcher) Registry() *engine.Registry {
	return d.registry
}

// Dispatch обрабатывает webhook и при успехе запускает план.
//
// Ошибка возвращается только вместе с OutcomeServerError; её текст
// не предназначен для клиента.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (outcome Outcome, err error) {
	ctx, span := d.tracer.Start(ctx, "maidono.dispatch",
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
		),
	)
	defer func() {
		span.SetAttributes(attribute.String("maidono.outcome", outcome.String()))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if d.metrics != nil {
			d.metrics.WebhookRequests.WithLabelValues(outcome.String()).Inc()
		}
	}()

	logger := telemetry.FromContext(ctx, d.logger)

	path, action, ok := d.registry.LookupByTrigger(req.Method, req.Path)
	if !ok {
		return OutcomeNotFound, nil
	}
	logger = telemetry.WithAction(logger, path.String())
	span.SetAttributes(attribute.String("maidono.action", path.String()))

	if !security.HostInformationChecksOut(action.Origin, req.Header) {
		logger.Debug("webhook trigger blocked because of invalid or missing headers")
		return OutcomeBadRequest, nil
	}

	if action.HasSecret() {
		signature, ok := security.ExtractSignature(action.Origin, req.Header)
		if !ok || !signature.Matches(action.Secret, bodyOrEmpty(req.Body), d.bodyLimit) {
			logger.Debug("webhook trigger blocked because of invalid or missing signature")
			return OutcomeBadRequest, nil
		}
	}

	plan, err := d.registry.Resolve(path)
	if err != nil {
		logger.Error("unable to resolve execution plan", "detail", problem.Detailed(err))
		return OutcomeServerError, err
	}

	info := security.ExtractEventInfo(action.Origin, req.Header)
	run := domain.NewRun(path, action.Trigger, plan)
	run.DeliveryID = info.DeliveryID
	run.Event = info.Event

	logger.Info("action triggered by webhook",
		"run_id", run.ID.String(),
		"delivery_id", info.DeliveryID,
		"event", info.Event,
	)

	d.spawn(context.WithoutCancel(ctx), run, plan)
	return OutcomeAccepted, nil
}

// spawn запускает план в отдельной горутине. Запрос её не ждёт.
func (d *Dispatcher) spawn(ctx context.Context, run *domain.Run, plan domain.ExecutionPlan) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if d.sem != nil {
			// Контекст без отмены: Acquire не вернёт ошибку.
			if err := d.sem.Acquire(ctx, 1); err != nil {
				d.logger.Error("unable to acquire run slot", "run_id", run.ID.String(), "error", err)
				return
			}
			defer d.sem.Release(1)
		}
		d.runner.Run(ctx, run, plan)
	}()
}

// Wait ждёт завершения запущенных планов или отмены ctx.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func bodyOrEmpty(body io.Reader) io.Reader {
	if body == nil {
		return strings.NewReader("")
	}
	return body
}

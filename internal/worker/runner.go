package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaiso/Maidono/internal/domain"
	"github.com/shaiso/Maidono/internal/telemetry"
)

// RunRecorder сохраняет историю выполнений.
type RunRecorder interface {
	Create(ctx context.Context, run *domain.Run) error
	Update(ctx context.Context, run *domain.Run) error
}

// EventPublisher публикует события жизненного цикла run.
type EventPublisher interface {
	PublishRunStarted(ctx context.Context, run *domain.Run) error
	PublishRunFinished(ctx context.Context, run *domain.Run) error
}

// Runner выполняет планы с семантикой fail-fast.
//
// Runner не хранит состояние между вызовами Run и безопасен
// для одновременного использования из нескольких горутин.
type Runner struct {
	executor  CommandExecutor
	recorder  RunRecorder
	publisher EventPublisher
	metrics   *telemetry.Metrics
	tracer    trace.Tracer
	workDir   string
	logger    *slog.Logger
}

// Config — конфигурация Runner.
type Config struct {
	// Executor — запуск командных строк. По умолчанию ShellExecutor с DefaultShell.
	Executor CommandExecutor

	// Recorder — история выполнений (опционально).
	Recorder RunRecorder

	// Publisher — события run.started / run.finished (опционально).
	Publisher EventPublisher

	// Metrics — Prometheus метрики (опционально).
	Metrics *telemetry.Metrics

	// WorkDir — рабочая директория команд.
	// Пустая строка — текущая директория процесса на момент запуска run.
	WorkDir string

	Logger *slog.Logger
}

// New создаёт Runner.
func New(cfg Config) *Runner {
	executor := cfg.Executor
	if executor == nil {
		executor = NewShellExecutor(DefaultShell)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		executor:  executor,
		recorder:  cfg.Recorder,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		tracer:    telemetry.Tracer(),
		workDir:   cfg.WorkDir,
		logger:    logger,
	}
}

// Run выполняет план и обновляет run.
//
// Возвращается после обработки всех шагов. Итоговый статус run:
// SUCCEEDED, если ни одна action не упала, иначе FAILED.
func (r *Runner) Run(ctx context.Context, run *domain.Run, plan domain.ExecutionPlan) {
	logger := telemetry.WithRunID(r.logger, run.ID.String())
	workDir := r.resolveWorkDir()

	ctx, span := r.tracer.Start(ctx, "maidono.run",
		trace.WithAttributes(
			attribute.String("maidono.run_id", run.ID.String()),
			attribute.String("maidono.action", run.Action.String()),
			attribute.Int("maidono.plan_size", len(plan)),
		),
	)
	defer span.End()

	if len(run.Steps) != len(plan) {
		run.Steps = make([]domain.StepResult, len(plan))
		for i, entry := range plan {
			run.Steps[i] = domain.StepResult{Action: entry.Path, Status: domain.StepStatusSkipped}
		}
	}

	r.started(ctx, logger, run)

	for i, entry := range plan {
		step := &run.Steps[i]
		actionLogger := telemetry.WithAction(logger, entry.Path.String())

		if run.Status == domain.RunStatusFailed {
			actionLogger.Info("skipping action")
			step.Status = domain.StepStatusSkipped
			continue
		}

		actionLogger.Info("running action")
		if err := r.runAction(ctx, actionLogger, workDir, entry); err != nil {
			actionLogger.Error("failed to run action due to the error above")
			step.Status = domain.StepStatusFailed
			step.Error = err.Error()
			run.MarkFailed(fmt.Sprintf("action '%s' failed: %v", entry.Path, err))
		} else {
			actionLogger.Info("action succeeded")
			step.Status = domain.StepStatusSucceeded
		}
		r.record(ctx, logger, run, false)
	}

	run.Finish()
	if run.Status == domain.RunStatusFailed {
		span.SetStatus(codes.Error, run.Error)
	}
	r.finished(ctx, logger, run)
}

// runAction выполняет pipeline одной action, останавливаясь на первой ошибке.
func (r *Runner) runAction(ctx context.Context, logger *slog.Logger, workDir string, entry domain.PlanEntry) (err error) {
	ctx, span := r.tracer.Start(ctx, "maidono.action",
		trace.WithAttributes(attribute.String("maidono.action", entry.Path.String())),
	)
	start := time.Now()
	defer func() {
		status := domain.StepStatusSucceeded
		if err != nil {
			status = domain.StepStatusFailed
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if r.metrics != nil {
			r.metrics.ActionDuration.WithLabelValues(string(status)).Observe(time.Since(start).Seconds())
		}
		span.End()
	}()

	if len(entry.Pipeline) == 0 {
		return ErrEmptyPipeline
	}

	for _, command := range entry.Pipeline {
		logger.Info("executing command", "dir", workDir, "command", command)
		if err := r.executor.Execute(ctx, workDir, command); err != nil {
			logger.Error("command failed", "command", command, "error", err)
			return err
		}
	}
	return nil
}

func (r *Runner) resolveWorkDir() string {
	if r.workDir != "" {
		return r.workDir
	}
	if dir, err := os.Getwd(); err == nil {
		return dir
	}
	return "."
}

func (r *Runner) started(ctx context.Context, logger *slog.Logger, run *domain.Run) {
	if r.metrics != nil {
		r.metrics.RunsStarted.Inc()
		r.metrics.RunsInFlight.Inc()
	}
	r.record(ctx, logger, run, true)
	if r.publisher != nil {
		if err := r.publisher.PublishRunStarted(ctx, run); err != nil {
			logger.Warn("failed to publish run.started", "error", err)
		}
	}
}

func (r *Runner) finished(ctx context.Context, logger *slog.Logger, run *domain.Run) {
	if r.metrics != nil {
		r.metrics.RunsInFlight.Dec()
		r.metrics.RunsFinished.WithLabelValues(string(run.Status)).Inc()
	}
	r.record(ctx, logger, run, false)
	if r.publisher != nil {
		if err := r.publisher.PublishRunFinished(ctx, run); err != nil {
			logger.Warn("failed to publish run.finished", "error", err)
		}
	}
	logger.Info("run finished", "status", run.Status, "duration", run.Duration())
}

// record сохраняет run. create=true — первая запись.
func (r *Runner) record(ctx context.Context, logger *slog.Logger, run *domain.Run, create bool) {
	if r.recorder == nil {
		return
	}

	var err error
	if create {
		err = r.recorder.Create(ctx, run)
	} else {
		err = r.recorder.Update(ctx, run)
	}
	if err != nil {
		logger.Warn("failed to record run", "error", err)
	}
}

// maidono — webhook-сервер: принимает HTTP-запросы, находит action
// по trigger, проверяет источник и подпись и выполняет план action
// в фоне.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shaiso/Maidono/internal/api"
	"github.com/shaiso/Maidono/internal/catalog"
	"github.com/shaiso/Maidono/internal/config"
	"github.com/shaiso/Maidono/internal/engine"
	"github.com/shaiso/Maidono/internal/mq"
	"github.com/shaiso/Maidono/internal/orchestrator"
	"github.com/shaiso/Maidono/internal/problem"
	"github.com/shaiso/Maidono/internal/repo"
	"github.com/shaiso/Maidono/internal/telemetry"
	"github.com/shaiso/Maidono/internal/worker"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	_ = godotenv.Load()

	var configPath string
	cmd := &cobra.Command{
		Use:           "maidono",
		Short:         "maidono — run shell actions on incoming webhooks",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default $MAIDONO_CONFIG or "+config.DefaultPath+")")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", problem.Detailed(err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := telemetry.SetupLogger(telemetry.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	logger.Info("starting maidono", "version", version)

	if cfg.Tracing.Enabled {
		shutdown, err := telemetry.InitTracer("maidono", os.Stderr, logger)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown(context.Background())
	}

	registry, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}

	// Хранилище истории
	store, err := repo.Open(context.Background(), cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	if store != nil {
		defer store.Close()
		logger.Info("run history enabled", "driver", cfg.Storage.Driver)
	}

	metrics := telemetry.NewMetrics(nil)

	runnerCfg := worker.Config{
		Executor: &worker.ShellExecutor{
			Shell:  cfg.Runs.Shell,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		},
		Metrics: metrics,
		Logger:  logger,
	}
	if store != nil {
		runnerCfg.Recorder = store
	}

	// События выполнения
	if cfg.Events.AMQPURL != "" {
		conn, err := mq.Dial(cfg.Events.AMQPURL, logger)
		if err != nil {
			return fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		defer conn.Close()

		if err := mq.SetupTopology(context.Background(), conn); err != nil {
			return fmt.Errorf("setup RabbitMQ topology: %w", err)
		}
		runnerCfg.Publisher = mq.NewPublisher(conn, logger)
		logger.Info("run events enabled")
	}

	dispatcher, err := orchestrator.New(orchestrator.Config{
		Registry:      registry,
		Runner:        worker.New(runnerCfg),
		MaxConcurrent: cfg.Runs.MaxConcurrent,
		BodyLimit:     cfg.Server.BodyLimit,
		Metrics:       metrics,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	handler := api.NewHandler(api.Config{
		Dispatcher: dispatcher,
		Runs:       store,
		WebIndex:   cfg.Web.Index,
		WebAssets:  cfg.Web.Assets,
		Logger:     logger,
	})

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: handler.Router(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		logger.Warn("runs still in progress", "error", err)
	}

	logger.Info("stopped")
	return nil
}

// loadRegistry загружает каталог и список включённых actions.
func loadRegistry(cfg *config.Config, logger *slog.Logger) (*engine.Registry, error) {
	groups, err := catalog.LoadGroups(cfg.Actions.Dir)
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{engine.WithCycleDetection(cfg.Runs.DetectCycles)}
	if cfg.Actions.RequireEnabled {
		enabled, err := catalog.LoadEnabled(cfg.Actions.EnabledFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithEnabled(enabled))
		logger.Info("enabled actions", "count", enabled.Len())
	}

	registry, err := engine.NewRegistry(catalog.Entries(groups), opts...)
	if err != nil {
		return nil, err
	}
	logger.Info("actions loaded", "groups", len(groups), "actions", registry.Len(), "dir", cfg.Actions.Dir)
	return registry, nil
}

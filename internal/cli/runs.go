package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Maidono/internal/domain"
	"github.com/shaiso/Maidono/internal/mq"
	"github.com/shaiso/Maidono/internal/telemetry"
)

// NewRunsCmd создаёт группу команд для истории выполнений.
func NewRunsCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect plan executions",
	}

	cmd.AddCommand(
		newRunsListCmd(opts),
		newRunsShowCmd(opts),
		newRunsWatchCmd(opts),
	)

	return cmd
}

func newRunsListCmd(opts *Options) *cobra.Command {
	var listOpts ListRunsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.Client()
			if err != nil {
				return err
			}
			out := opts.Output(cmd)

			runs, err := client.ListRuns(listOpts)
			if err != nil {
				return err
			}

			headers := []string{"ID", "ACTION", "STATUS", "STEPS", "STARTED", "DURATION"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{r.ID, r.Action, r.Status, strconv.Itoa(len(r.Steps)), r.StartedAt, formatDuration(r.DurationMs)}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&listOpts.Action, "action", "", "Filter by action (group/action)")
	cmd.Flags().StringVar(&listOpts.Status, "status", "", "Filter by status (RUNNING, SUCCEEDED, FAILED)")
	cmd.Flags().IntVar(&listOpts.Limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&listOpts.Offset, "offset", 0, "Number of results to skip")

	return cmd
}

func newRunsShowCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.Client()
			if err != nil {
				return err
			}
			out := opts.Output(cmd)

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			if out.JSONMode() {
				out.JSON(run)
				return nil
			}

			out.Line(0, "run %s", run.ID)
			out.Line(1, "action: %s", run.Action)
			out.Line(1, "trigger: %s", run.Trigger)
			out.Line(1, "status: %s", run.Status)
			if run.Event != "" {
				out.Line(1, "event: %s (delivery %s)", run.Event, run.DeliveryID)
			}
			out.Line(1, "started: %s", run.StartedAt)
			if run.FinishedAt != "" {
				out.Line(1, "finished: %s (%s)", run.FinishedAt, formatDuration(run.DurationMs))
			}
			if run.Error != "" {
				out.Line(1, "error: %s", run.Error)
			}

			rows := make([][]string, len(run.Steps))
			for i, s := range run.Steps {
				rows[i] = []string{strconv.Itoa(i + 1), s.Action, s.Status, s.Error}
			}
			out.Line(0, "")
			out.Table([]string{"#", "ACTION", "STATUS", "ERROR"}, rows)
			return nil
		},
	}
}

func newRunsWatchCmd(opts *Options) *cobra.Command {
	var amqpURL string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow run events published by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Config()
			if err != nil {
				return err
			}
			out := opts.Output(cmd)

			if amqpURL == "" {
				amqpURL = cfg.Events.AMQPURL
			}
			if amqpURL == "" {
				return errors.New("events are disabled: set events.amqp_url or --amqp-url")
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger := telemetry.NewLogger(telemetry.LogConfig{
				Level:  cfg.Log.Level,
				Format: "text",
				Output: cmd.ErrOrStderr(),
			})

			conn, err := mq.Dial(amqpURL, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			consumer := mq.NewConsumer(conn, mq.DeclareWatchQueue, watchHandler(out), logger)
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&amqpURL, "amqp-url", "", "RabbitMQ URL (overrides events.amqp_url)")

	return cmd
}

// watchHandler выводит событие одной строкой или JSON.
func watchHandler(out *Output) mq.Handler {
	return func(_ context.Context, msg *mq.Message) error {
		if out.JSONMode() {
			out.JSON(msg)
			return nil
		}

		run, err := mq.ParsePayload[domain.Run](msg)
		if err != nil {
			return err
		}

		line := fmt.Sprintf("%s  %-12s  %s  %s", msg.Timestamp.Format(time.RFC3339), msg.Type, run.ID, run.Action)
		if msg.Type == mq.MessageTypeRunFinished {
			line += fmt.Sprintf("  %s  %s", run.Status, run.Duration().Round(time.Millisecond))
			if run.Error != "" {
				line += "  " + run.Error
			}
		}
		out.Line(0, "%s", line)
		return nil
	}
}

func formatDuration(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return (time.Duration(ms) * time.Millisecond).String()
}


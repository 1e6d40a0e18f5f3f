package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/Maidono/internal/domain"
	"github.com/shaiso/Maidono/internal/telemetry"
)

// fakeExecutor запоминает команды и падает на заданных.
type fakeExecutor struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeExecutor) Execute(_ context.Context, _, command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, command)
	if f.fail[command] {
		return ErrCommandFailed
	}
	return nil
}

type fakeRecorder struct {
	created  int
	updates  int
	statuses []domain.RunStatus
}

func (f *fakeRecorder) Create(_ context.Context, run *domain.Run) error {
	f.created++
	f.statuses = append(f.statuses, run.Status)
	return nil
}

func (f *fakeRecorder) Update(_ context.Context, run *domain.Run) error {
	f.updates++
	f.statuses = append(f.statuses, run.Status)
	return nil
}

type fakePublisher struct {
	started, finished int
}

func (f *fakePublisher) PublishRunStarted(context.Context, *domain.Run) error {
	f.started++
	return nil
}

func (f *fakePublisher) PublishRunFinished(context.Context, *domain.Run) error {
	f.finished++
	return errors.New("broker unavailable")
}

func makePlan(entries ...[]string) domain.ExecutionPlan {
	plan := make(domain.ExecutionPlan, len(entries))
	for i, pipeline := range entries {
		plan[i] = domain.PlanEntry{
			Path:     domain.NewActionPath("g", string(rune('a'+i))),
			Pipeline: pipeline,
		}
	}
	return plan
}

func TestRunner_AllSucceed(t *testing.T) {
	exec := &fakeExecutor{}
	rec := &fakeRecorder{}
	runner := New(Config{Executor: exec, Recorder: rec, Logger: telemetry.Discard()})

	plan := makePlan([]string{"a1", "a2"}, []string{"b1"})
	run := domain.NewRun(plan[1].Path, "POST /b", plan)
	runner.Run(context.Background(), run, plan)

	if got := strings.Join(exec.calls, ","); got != "a1,a2,b1" {
		t.Errorf("unexpected calls %s", got)
	}
	if run.Status != domain.RunStatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", run.Status)
	}
	for i, s := range run.Steps {
		if s.Status != domain.StepStatusSucceeded {
			t.Errorf("step %d: expected SUCCEEDED, got %s", i, s.Status)
		}
	}
	if run.FinishedAt == nil {
		t.Error("expected finished_at")
	}
	if rec.created != 1 {
		t.Errorf("expected 1 create, got %d", rec.created)
	}
	// Одно обновление на шаг и одно финальное.
	if rec.updates != 3 {
		t.Errorf("expected 3 updates, got %d", rec.updates)
	}
	if rec.statuses[len(rec.statuses)-1] != domain.RunStatusSucceeded {
		t.Errorf("last recorded status must be SUCCEEDED, got %s", rec.statuses[len(rec.statuses)-1])
	}
}

func TestRunner_FailFast(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]bool{"b1": true}}
	runner := New(Config{Executor: exec, Logger: telemetry.Discard()})

	plan := makePlan([]string{"a1"}, []string{"b1", "b2"}, []string{"c1"})
	run := domain.NewRun(plan[0].Path, "POST /a", plan)
	runner.Run(context.Background(), run, plan)

	// A выполнена, B упала на первой строке, C не запускалась.
	if got := strings.Join(exec.calls, ","); got != "a1,b1" {
		t.Errorf("unexpected calls %s", got)
	}
	if run.Status != domain.RunStatusFailed {
		t.Errorf("expected FAILED, got %s", run.Status)
	}

	want := []domain.StepStatus{domain.StepStatusSucceeded, domain.StepStatusFailed, domain.StepStatusSkipped}
	for i, s := range run.Steps {
		if s.Status != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], s.Status)
		}
	}
	if !strings.Contains(run.Error, "g/b") {
		t.Errorf("error should name the failed action: %q", run.Error)
	}
}

func TestRunner_EmptyPipelineFails(t *testing.T) {
	exec := &fakeExecutor{}
	runner := New(Config{Executor: exec, Logger: telemetry.Discard()})

	plan := makePlan(nil, []string{"b1"})
	run := domain.NewRun(plan[0].Path, "POST /a", plan)
	runner.Run(context.Background(), run, plan)

	if len(exec.calls) != 0 {
		t.Errorf("expected no calls, got %v", exec.calls)
	}
	if run.Steps[0].Status != domain.StepStatusFailed {
		t.Errorf("expected FAILED, got %s", run.Steps[0].Status)
	}
}

func TestRunner_PublisherAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	pub := &fakePublisher{}
	runner := New(Config{
		Executor:  &fakeExecutor{fail: map[string]bool{"a1": true}},
		Publisher: pub,
		Metrics:   metrics,
		Logger:    telemetry.Discard(),
	})

	plan := makePlan([]string{"a1"})
	run := domain.NewRun(plan[0].Path, "POST /a", plan)
	runner.Run(context.Background(), run, plan)

	if pub.started != 1 || pub.finished != 1 {
		t.Errorf("expected one started and one finished event, got %d/%d", pub.started, pub.finished)
	}
	if got := testutil.ToFloat64(metrics.RunsStarted); got != 1 {
		t.Errorf("expected 1 started run, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.RunsInFlight); got != 0 {
		t.Errorf("expected 0 runs in flight, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.RunsFinished.WithLabelValues("FAILED")); got != 1 {
		t.Errorf("expected 1 failed run, got %v", got)
	}
}

func TestShellExecutor(t *testing.T) {
	dir := t.TempDir()
	exec := &ShellExecutor{Shell: "/bin/sh"}
	ctx := context.Background()

	if err := exec.Execute(ctx, dir, "true"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := exec.Execute(ctx, dir, "exit 3")
	if !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "3") {
		t.Errorf("error should contain exit status: %v", err)
	}

	// Команда выполняется в рабочей директории.
	if err := exec.Execute(ctx, dir, "touch marker"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "marker")); err != nil {
		t.Errorf("expected marker in work dir: %v", err)
	}
}

func TestShellExecutor_NotStarted(t *testing.T) {
	exec := &ShellExecutor{Shell: "/nonexistent/shell"}
	err := exec.Execute(context.Background(), t.TempDir(), "true")
	if !errors.Is(err, ErrCommandNotStarted) {
		t.Fatalf("expected ErrCommandNotStarted, got %v", err)
	}
}

func TestRunner_ShellFailFast(t *testing.T) {
	dir := t.TempDir()
	runner := New(Config{
		Executor: &ShellExecutor{Shell: "/bin/sh"},
		WorkDir:  dir,
		Logger:   telemetry.Discard(),
	})

	plan := makePlan(
		[]string{"touch a"},
		[]string{"false", "touch b"},
		[]string{"touch c"},
	)
	run := domain.NewRun(plan[0].Path, "POST /a", plan)
	runner.Run(context.Background(), run, plan)

	if _, err := os.Stat(filepath.Join(dir, "a")); err != nil {
		t.Error("first action must run")
	}
	for _, name := range []string{"b", "c"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s must not be created after failure", name)
		}
	}
	if run.Status != domain.RunStatusFailed {
		t.Errorf("expected FAILED, got %s", run.Status)
	}
}

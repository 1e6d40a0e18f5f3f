package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/Maidono/internal/domain"
	"github.com/shaiso/Maidono/internal/engine"
	"github.com/shaiso/Maidono/internal/security"
	"github.com/shaiso/Maidono/internal/telemetry"
)

// recordingRunner запоминает запущенные планы.
type recordingRunner struct {
	mu    sync.Mutex
	runs  []*domain.Run
	plans []domain.ExecutionPlan
}

func (r *recordingRunner) Run(_ context.Context, run *domain.Run, plan domain.ExecutionPlan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	r.plans = append(r.plans, plan)
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func mustPath(s string) domain.ActionPath {
	p, err := domain.ParseActionPath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func testRegistry(t *testing.T) *engine.Registry {
	t.Helper()
	registry, err := engine.NewRegistry([]engine.Entry{
		{Path: mustPath("deploy/build"), Action: &domain.Action{
			Trigger:  "POST /build",
			Origin:   domain.AnyOrigin,
			Pipeline: []string{"make"},
		}},
		{Path: mustPath("deploy/site"), Action: &domain.Action{
			Trigger:  "POST /site",
			Origin:   domain.GitHubOrigin,
			Secret:   "It's a Secret to Everybody",
			Before:   []string{"deploy/build"},
			Pipeline: []string{"make install"},
		}},
		{Path: mustPath("deploy/broken"), Action: &domain.Action{
			Trigger:  "POST /broken",
			Origin:   domain.AnyOrigin,
			After:    []string{"deploy/missing"},
			Pipeline: []string{"true"},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return registry
}

func newDispatcher(t *testing.T, runner PlanRunner, metrics *telemetry.Metrics) *Dispatcher {
	t.Helper()
	d, err := New(Config{
		Registry: testRegistry(t),
		Runner:   runner,
		Metrics:  metrics,
		Logger:   telemetry.Discard(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func githubRequest(body, signature string) Request {
	h := http.Header{}
	h.Set(security.HeaderUserAgent, "GitHub-Hookshot/044aadd")
	h.Set(security.HeaderGitHubDelivery, "72d3162e-cc78-11e3-81ab-4c9367dc0958")
	h.Set(security.HeaderGitHubEvent, "push")
	if signature != "" {
		h.Set(security.HeaderGitHubSignature, signature)
	}
	return Request{Method: http.MethodPost, Path: "/site", Header: h, Body: strings.NewReader(body)}
}

func waitRuns(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Runner: &recordingRunner{}}); !errors.Is(err, ErrNoRegistry) {
		t.Errorf("expected ErrNoRegistry, got %v", err)
	}
	if _, err := New(Config{Registry: testRegistry(t)}); !errors.Is(err, ErrNoRunner) {
		t.Errorf("expected ErrNoRunner, got %v", err)
	}
}

func TestDispatch_Accepted(t *testing.T) {
	runner := &recordingRunner{}
	d := newDispatcher(t, runner, nil)

	body := "Hello, World!"
	outcome, err := d.Dispatch(context.Background(), githubRequest(body, security.Sign("It's a Secret to Everybody", []byte(body), 0)))
	if err != nil || outcome != OutcomeAccepted {
		t.Fatalf("Dispatch() = %v, %v; want accepted", outcome, err)
	}
	waitRuns(t, d)

	if runner.count() != 1 {
		t.Fatalf("runner called %d times, want 1", runner.count())
	}
	run, plan := runner.runs[0], runner.plans[0]
	if run.Action != mustPath("deploy/site") || run.Status != domain.RunStatusRunning {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.DeliveryID != "72d3162e-cc78-11e3-81ab-4c9367dc0958" || run.Event != "push" {
		t.Errorf("event info not stored: %q %q", run.DeliveryID, run.Event)
	}
	want := []domain.ActionPath{mustPath("deploy/build"), mustPath("deploy/site")}
	got := plan.Paths()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("plan = %v, want %v", got, want)
	}
}

func TestDispatch_Outcomes(t *testing.T) {
	body := "Hello, World!"
	good := security.Sign("It's a Secret to Everybody", []byte(body), 0)

	noEvent := githubRequest(body, good)
	noEvent.Header.Del(security.HeaderGitHubEvent)

	wrongUA := githubRequest(body, good)
	wrongUA.Header.Set(security.HeaderUserAgent, "curl/8.0")

	tests := []struct {
		name    string
		req     Request
		want    Outcome
		wantErr bool
	}{
		{"unknown path", Request{Method: http.MethodPost, Path: "/nothing"}, OutcomeNotFound, false},
		{"wrong method", Request{Method: http.MethodGet, Path: "/build"}, OutcomeNotFound, false},
		{"any origin without secret", Request{Method: http.MethodPost, Path: "/build"}, OutcomeAccepted, false},
		{"missing event header", noEvent, OutcomeBadRequest, false},
		{"wrong user agent", wrongUA, OutcomeBadRequest, false},
		{"missing signature", githubRequest(body, ""), OutcomeBadRequest, false},
		{"wrong signature", githubRequest(body, security.Sign("other", []byte(body), 0)), OutcomeBadRequest, false},
		{"unresolvable plan", Request{Method: http.MethodPost, Path: "/broken"}, OutcomeServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &recordingRunner{}
			d := newDispatcher(t, runner, nil)

			outcome, err := d.Dispatch(context.Background(), tt.req)
			if outcome != tt.want {
				t.Errorf("outcome = %v, want %v", outcome, tt.want)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			waitRuns(t, d)

			wantRuns := 0
			if tt.want == OutcomeAccepted {
				wantRuns = 1
			}
			if runner.count() != wantRuns {
				t.Errorf("runner called %d times, want %d", runner.count(), wantRuns)
			}
		})
	}
}

func TestDispatch_ResolutionErrorNamesPath(t *testing.T) {
	d := newDispatcher(t, &recordingRunner{}, nil)
	_, err := d.Dispatch(context.Background(), Request{Method: http.MethodPost, Path: "/broken"})
	if !errors.Is(err, engine.ErrActionNotFound) {
		t.Errorf("expected ErrActionNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "deploy/missing") {
		t.Errorf("error should name the missing path: %v", err)
	}
}

func TestDispatch_Metrics(t *testing.T) {
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())
	d := newDispatcher(t, &recordingRunner{}, metrics)

	d.Dispatch(context.Background(), Request{Method: http.MethodPost, Path: "/build"})
	d.Dispatch(context.Background(), Request{Method: http.MethodPost, Path: "/build"})
	d.Dispatch(context.Background(), Request{Method: http.MethodPost, Path: "/nothing"})
	waitRuns(t, d)

	if got := testutil.ToFloat64(metrics.WebhookRequests.WithLabelValues("accepted")); got != 2 {
		t.Errorf("accepted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.WebhookRequests.WithLabelValues("not_found")); got != 1 {
		t.Errorf("not_found = %v, want 1", got)
	}
}

// blockingRunner держит план до закрытия release и считает
// одновременно выполняемые планы.
type blockingRunner struct {
	release chan struct{}
	current atomic.Int64
	peak    atomic.Int64
	started chan struct{}
}

func (b *blockingRunner) Run(context.Context, *domain.Run, domain.ExecutionPlan) {
	n := b.current.Add(1)
	for {
		peak := b.peak.Load()
		if n <= peak || b.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	b.started <- struct{}{}
	<-b.release
	b.current.Add(-1)
}

func TestDispatch_MaxConcurrent(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{}), started: make(chan struct{}, 3)}
	d, err := New(Config{
		Registry:      testRegistry(t),
		Runner:        runner,
		MaxConcurrent: 1,
		Logger:        telemetry.Discard(),
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		outcome, _ := d.Dispatch(context.Background(), Request{Method: http.MethodPost, Path: "/build"})
		if outcome != OutcomeAccepted {
			t.Fatalf("outcome = %v, want accepted", outcome)
		}
	}

	// Запросы возвращаются сразу, планы выполняются по одному.
	for i := 0; i < 3; i++ {
		select {
		case <-runner.started:
		case <-time.After(5 * time.Second):
			t.Fatal("plan did not start")
		}
		runner.release <- struct{}{}
	}
	waitRuns(t, d)

	if peak := runner.peak.Load(); peak != 1 {
		t.Errorf("peak concurrency = %d, want 1", peak)
	}
}

func TestDispatch_DetachedFromRequestContext(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{}), started: make(chan struct{}, 1)}
	d, err := New(Config{Registry: testRegistry(t), Runner: runner, Logger: telemetry.Discard()})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	outcome, _ := d.Dispatch(ctx, Request{Method: http.MethodPost, Path: "/build"})
	cancel()
	if outcome != OutcomeAccepted {
		t.Fatalf("outcome = %v", outcome)
	}

	select {
	case <-runner.started:
	case <-time.After(5 * time.Second):
		t.Fatal("plan did not start after the request context was cancelled")
	}
	close(runner.release)
	waitRuns(t, d)
}

func TestOutcome_StatusCode(t *testing.T) {
	tests := map[Outcome]int{
		OutcomeAccepted:    http.StatusOK,
		OutcomeNotFound:    http.StatusNotFound,
		OutcomeBadRequest:  http.StatusBadRequest,
		OutcomeServerError: http.StatusInternalServerError,
	}
	for outcome, want := range tests {
		if got := outcome.StatusCode(); got != want {
			t.Errorf("%v.StatusCode() = %d, want %d", outcome, got, want)
		}
	}
}

func TestNewRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/site?x=1", strings.NewReader("body"))
	r.Header.Set(security.HeaderGitHubEvent, "push")

	req := NewRequest(r)
	if req.Method != http.MethodPost || req.Path != "/site" {
		t.Errorf("unexpected request: %+v", req)
	}
	if req.Header.Get(security.HeaderGitHubEvent) != "push" {
		t.Error("headers should be preserved")
	}
}

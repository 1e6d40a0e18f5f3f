package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Maidono/internal/catalog"
	"github.com/shaiso/Maidono/internal/domain"
	"github.com/shaiso/Maidono/internal/mq"
	"github.com/shaiso/Maidono/internal/security"
)

const deployGroup = `
- name: site
  on: POST /hooks/site
  from: github
  secret: s3cr3t
  before: deploy/build
  run: |
    git pull
    make install
- name: build
  on: POST /hooks/build
  run: make
`

const notifyGroup = `
- name: chat
  on: POST /hooks/chat
  run: echo done
`

type env struct {
	dir     string
	actions string
	enabled string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{
		dir:     dir,
		actions: filepath.Join(dir, "actions"),
		enabled: filepath.Join(dir, "enabled"),
	}
	if err := os.Mkdir(e.actions, 0o755); err != nil {
		t.Fatal(err)
	}
	e.write(t, "deploy.yaml", deployGroup)
	e.write(t, "notify.yaml", notifyGroup)
	return e
}

func (e *env) write(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(e.actions, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// run выполняет maidonoctl с путями окружения и возвращает stdout и stderr.
func (e *env) run(t *testing.T, apiURL string, args ...string) (string, string, error) {
	t.Helper()
	base := []string{
		"--config", filepath.Join(e.dir, "missing.yaml"),
		"--actions-dir", e.actions,
		"--enabled-file", e.enabled,
	}
	if apiURL != "" {
		base = append(base, "--api-url", apiURL)
	}

	cmd := NewRootCmd("test")
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append(base, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestActionsList(t *testing.T) {
	e := newEnv(t)

	if _, _, err := e.run(t, "", "actions", "enable", "deploy/site"); err != nil {
		t.Fatalf("enable error = %v", err)
	}

	out, _, err := e.run(t, "", "actions", "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	want := "deploy\n" +
		"  ○ build\n" +
		"  ● site\n" +
		"notify\n" +
		"  ○ chat\n"
	if out != want {
		t.Errorf("list output:\n%s\nwant:\n%s", out, want)
	}

	out, _, err = e.run(t, "", "actions", "list", "--enabled")
	if err != nil {
		t.Fatalf("list --enabled error = %v", err)
	}
	if out != "deploy\n  ● site\n" {
		t.Errorf("list --enabled output:\n%s", out)
	}
}

func TestActionsList_Invalid(t *testing.T) {
	e := newEnv(t)
	e.write(t, "broken.yaml", "- name: x\n")

	out, _, err := e.run(t, "", "actions", "list", "--invalid")
	if err != nil {
		t.Fatalf("list --invalid error = %v", err)
	}
	if !strings.HasPrefix(out, "broken ") || strings.Contains(out, "deploy") {
		t.Errorf("list --invalid output:\n%s", out)
	}
}

func TestActionsList_JSON(t *testing.T) {
	e := newEnv(t)

	out, _, err := e.run(t, "", "--json", "actions", "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}

	var entries []actionListEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Group != "deploy" || entries[0].Action != "build" || entries[0].Trigger != "POST /hooks/build" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[0].Enabled == nil || *entries[0].Enabled {
		t.Errorf("entries[0].Enabled = %v, want false", entries[0].Enabled)
	}
}

func TestActionsShow(t *testing.T) {
	e := newEnv(t)

	out, _, err := e.run(t, "", "actions", "show", "deploy")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}

	for _, want := range []string{
		"deploy\n",
		"  ○ site (disabled)\n",
		"    trigger: POST /hooks/site\n",
		"    origin: GitHub\n",
		"    secret: ******\n",
		"    before: deploy/build\n",
		"    command:\n      git pull\n      make install\n",
		"    command: make\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("show output misses %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "s3cr3t") {
		t.Error("secret leaked into output")
	}
}

func TestActionsShow_UnknownGroup(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.run(t, "", "actions", "show", "missing")
	if err == nil || !strings.Contains(err.Error(), "group 'missing' not found") {
		t.Errorf("error = %v", err)
	}
}

func TestActionsEnableDisable(t *testing.T) {
	e := newEnv(t)

	out, _, err := e.run(t, "", "actions", "enable", "deploy")
	if err != nil {
		t.Fatalf("enable error = %v", err)
	}
	want := "● deploy/build is now enabled\n● deploy/site is now enabled\n"
	if out != want {
		t.Errorf("enable output:\n%s\nwant:\n%s", out, want)
	}

	out, _, _ = e.run(t, "", "actions", "enable", "deploy/site")
	if out != "~ deploy/site is already enabled\n" {
		t.Errorf("second enable output: %q", out)
	}

	out, _, _ = e.run(t, "", "actions", "disable", "deploy/build", "notify/chat")
	want = "○ deploy/build is now disabled\n~ notify/chat is already disabled\n"
	if out != want {
		t.Errorf("disable output:\n%s\nwant:\n%s", out, want)
	}

	out, _, _ = e.run(t, "", "actions", "enable", "nothing")
	if out != "pattern nothing did not match any actions\n" {
		t.Errorf("unmatched output: %q", out)
	}

	_, errOut, _ := e.run(t, "", "actions", "enable", "")
	if !strings.Contains(errOut, "'' is not a valid action path pattern") {
		t.Errorf("invalid pattern stderr: %q", errOut)
	}

	list, err := catalog.LoadEnabled(e.enabled)
	if err != nil {
		t.Fatalf("LoadEnabled() error = %v", err)
	}
	if list.Len() != 1 || !list.IsEnabled(domain.NewActionPath("deploy", "site")) {
		t.Errorf("enabled list = %v", list.Paths())
	}
}

func TestActionsPlan(t *testing.T) {
	e := newEnv(t)

	out, _, err := e.run(t, "", "actions", "plan", "deploy/site")
	if err != nil {
		t.Fatalf("plan error = %v", err)
	}
	want := "1. deploy/build\n" +
		"    make\n" +
		"2. deploy/site\n" +
		"    git pull\n" +
		"    make install\n"
	if out != want {
		t.Errorf("plan output:\n%s\nwant:\n%s", out, want)
	}

	if _, _, err := e.run(t, "", "actions", "plan", "deploy/nope"); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestRunsList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/runs" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("status"); got != "FAILED" {
			t.Errorf("status query = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":[{"id":"r1","action":"deploy/site","trigger":"POST /hooks/site","status":"FAILED","steps":[{"action":"deploy/build","status":"FAILED"}],"started_at":"2026-01-02T03:04:05Z","duration_ms":1500}],"total":1}`)
	}))
	defer srv.Close()

	e := newEnv(t)
	out, _, err := e.run(t, srv.URL, "runs", "list", "--status", "FAILED")
	if err != nil {
		t.Fatalf("runs list error = %v", err)
	}
	for _, want := range []string{"ID", "r1", "deploy/site", "FAILED", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
}

func TestRunsShow_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"code":"NOT_FOUND","message":"run not found"}}`)
	}))
	defer srv.Close()

	e := newEnv(t)
	_, _, err := e.run(t, srv.URL, "runs", "show", "missing")
	if err == nil || !strings.Contains(err.Error(), "run not found") {
		t.Errorf("error = %v", err)
	}
}

func TestTestCmd_SignsGitHubAction(t *testing.T) {
	var (
		gotPath   string
		gotHeader http.Header
		gotBody   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	e := newEnv(t)
	out, _, err := e.run(t, srv.URL, "test", "deploy/site", "-P", `{"ref":"main"}`, "--event", "push")
	if err != nil {
		t.Fatalf("test error = %v", err)
	}
	if !strings.Contains(out, "POST /hooks/site -> 200 OK") {
		t.Errorf("output = %q", out)
	}

	if gotPath != "POST /hooks/site" {
		t.Errorf("request = %s", gotPath)
	}
	if string(gotBody) != `{"ref":"main"}` {
		t.Errorf("body = %s", gotBody)
	}
	if gotHeader.Get(security.HeaderGitHubEvent) != "push" {
		t.Errorf("event = %q", gotHeader.Get(security.HeaderGitHubEvent))
	}
	if gotHeader.Get(security.HeaderGitHubDelivery) == "" {
		t.Error("missing delivery header")
	}

	action := &domain.Action{Origin: domain.GitHubOrigin}
	if !security.HostInformationChecksOut(action.Origin, gotHeader) {
		t.Error("host information does not check out")
	}
	sig, ok := security.ExtractSignature(action.Origin, gotHeader)
	if !ok || !sig.Matches("s3cr3t", bytes.NewReader(gotBody), security.DefaultBodyLimit) {
		t.Errorf("signature %q does not match", gotHeader.Get(security.HeaderGitHubSignature))
	}
}

func TestTestCmd_PlainAction(t *testing.T) {
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e := newEnv(t)
	_, _, err := e.run(t, srv.URL, "test", "notify/chat")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want 404 error", err)
	}
	if gotHeader.Get(security.HeaderGitHubEvent) != "" || gotHeader.Get(security.HeaderGitHubSignature) != "" {
		t.Errorf("unexpected GitHub headers: %v", gotHeader)
	}
}

func TestTestCmd_Errors(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no group", []string{"test", "missing/x"}, "group 'missing' not found"},
		{"no action", []string{"test", "deploy/x"}, "action 'deploy/x' not found"},
		{"bad path", []string{"test", "deploy"}, "missing action part"},
		{"both payloads", []string{"test", "deploy/site", "-P", "{}", "-F", "x"}, "mutually exclusive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := e.run(t, "http://127.0.0.1:1", tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestWatchHandler(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	finished := started.Add(2 * time.Second)
	run := domain.Run{
		ID:         uuid.MustParse("6f1c2a9e-3b4d-4c5e-8f70-112233445566"),
		Action:     domain.NewActionPath("deploy", "site"),
		Status:     domain.RunStatusFailed,
		Error:      "exit status 1",
		StartedAt:  started,
		FinishedAt: &finished,
	}
	payload, err := json.Marshal(run)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	handler := watchHandler(NewOutputTo(&buf, io.Discard, false))
	msg := &mq.Message{ID: "m1", Type: mq.MessageTypeRunFinished, Payload: payload, Timestamp: started}
	if err := handler(t.Context(), msg); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	got := buf.String()
	for _, want := range []string{"2026-01-02T03:04:05Z", "6f1c2a9e-3b4d-4c5e-8f70-112233445566", "deploy/site", "FAILED", "2s", "exit status 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("line misses %q: %q", want, got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int64]string{0: "-", -1: "-", 1500: "1.5s", 250: "250ms"}
	for ms, want := range tests {
		if got := formatDuration(ms); got != want {
			t.Errorf("formatDuration(%d) = %q, want %q", ms, got, want)
		}
	}
}

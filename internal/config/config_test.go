package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 4471 {
		t.Errorf("Server.Port = %d, want 4471", cfg.Server.Port)
	}
	if cfg.Server.BodyLimit != 1024 {
		t.Errorf("Server.BodyLimit = %d, want 1024", cfg.Server.BodyLimit)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Actions.Dir != "/etc/maidono/actions" {
		t.Errorf("Actions.Dir = %q", cfg.Actions.Dir)
	}
	if cfg.Runs.Shell != "/bin/bash" {
		t.Errorf("Runs.Shell = %q", cfg.Runs.Shell)
	}
	if cfg.Storage.Driver != "none" {
		t.Errorf("Storage.Driver = %q", cfg.Storage.Driver)
	}
	if cfg.Addr() != ":4471" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.Join([]string{
		"server:",
		"  port: 9000",
		"  body_limit: 4096",
		"actions:",
		"  dir: /srv/actions",
		"runs:",
		"  max_concurrent: 4",
		"storage:",
		"  driver: sqlite",
		"  dsn: /tmp/runs.db",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MAIDONO_SERVER_PORT", "9100")
	t.Setenv("MAIDONO_RUNS_DETECT_CYCLES", "true")
	t.Setenv("MAIDONO_ACTIONS_REQUIRE_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("env must override file: Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Server.BodyLimit != 4096 {
		t.Errorf("Server.BodyLimit = %d, want 4096", cfg.Server.BodyLimit)
	}
	if cfg.Actions.Dir != "/srv/actions" {
		t.Errorf("Actions.Dir = %q", cfg.Actions.Dir)
	}
	if cfg.Runs.MaxConcurrent != 4 {
		t.Errorf("Runs.MaxConcurrent = %d, want 4", cfg.Runs.MaxConcurrent)
	}
	if !cfg.Runs.DetectCycles || !cfg.Actions.RequireEnabled {
		t.Error("boolean env overrides were not applied")
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.DSN != "/tmp/runs.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Web.Index == "" {
		t.Error("defaults must survive a partial file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("MAIDONO_STORAGE_DRIVER", "mysql")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for unknown storage driver")
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"MAIDONO_SERVER_PORT":       "server.port",
		"MAIDONO_SERVER_BODY_LIMIT": "server.body_limit",
		"MAIDONO_EVENTS_AMQP_URL":   "events.amqp_url",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

// Package config загружает конфигурацию сервера и CLI.
//
// Порядок источников: значения по умолчанию, YAML-файл, переменные
// окружения MAIDONO_* (MAIDONO_SERVER_PORT → server.port).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix — префикс переменных окружения.
const EnvPrefix = "MAIDONO_"

// DefaultPath — файл конфигурации по умолчанию.
const DefaultPath = "/etc/maidono/config.yaml"

// Config — конфигурация Maidono.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Web     WebConfig     `koanf:"web"`
	Actions ActionsConfig `koanf:"actions"`
	Runs    RunsConfig    `koanf:"runs"`
	Log     LogConfig     `koanf:"log"`
	Storage StorageConfig `koanf:"storage"`
	Events  EventsConfig  `koanf:"events"`
	Tracing TracingConfig `koanf:"tracing"`
	API     APIConfig     `koanf:"api"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	BodyLimit       int64         `koanf:"body_limit"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// WebConfig — статическое веб-приложение. Пустые пути отключают его.
type WebConfig struct {
	Index  string `koanf:"index"`
	Assets string `koanf:"assets"`
}

type ActionsConfig struct {
	Dir            string `koanf:"dir"`
	EnabledFile    string `koanf:"enabled_file"`
	RequireEnabled bool   `koanf:"require_enabled"`
}

type RunsConfig struct {
	Shell         string `koanf:"shell"`
	MaxConcurrent int64  `koanf:"max_concurrent"`
	DetectCycles  bool   `koanf:"detect_cycles"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type StorageConfig struct {
	Driver string `koanf:"driver"` // none, memory, sqlite, postgres
	DSN    string `koanf:"dsn"`
}

type EventsConfig struct {
	AMQPURL string `koanf:"amqp_url"`
}

type TracingConfig struct {
	Enabled bool `koanf:"enabled"`
}

// APIConfig — адрес HTTP API сервера для maidonoctl.
type APIConfig struct {
	URL string `koanf:"url"`
}

var defaults = map[string]any{
	"server.port":             4471,
	"server.body_limit":       1024,
	"server.shutdown_timeout": "10s",
	"web.index":               "/usr/share/maidono/web/index.html",
	"web.assets":              "/usr/share/maidono/web/assets",
	"actions.dir":             "/etc/maidono/actions",
	"actions.enabled_file":    "/etc/maidono/enabled",
	"actions.require_enabled": false,
	"runs.shell":              "/bin/bash",
	"runs.max_concurrent":     0,
	"runs.detect_cycles":      false,
	"log.level":               "INFO",
	"log.format":              "json",
	"storage.driver":          "none",
	"storage.dsn":             "",
	"events.amqp_url":         "",
	"tracing.enabled":         false,
	"api.url":                 "http://localhost:4471",
}

// Load читает конфигурацию. path — YAML-файл; пустая строка означает
// MAIDONO_CONFIG или DefaultPath. Отсутствующий файл не ошибка.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey переводит MAIDONO_SERVER_BODY_LIMIT в server.body_limit:
// первый '_' разделяет секцию и ключ.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// Validate проверяет значения, которые нельзя исправить по умолчанию.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: invalid port %d", c.Server.Port))
	}
	if c.Server.BodyLimit <= 0 {
		errs = append(errs, fmt.Errorf("server.body_limit: must be positive, got %d", c.Server.BodyLimit))
	}
	if c.Runs.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("runs.max_concurrent: must not be negative, got %d", c.Runs.MaxConcurrent))
	}
	switch c.Storage.Driver {
	case "none", "memory", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

// Addr возвращает адрес HTTP сервера.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

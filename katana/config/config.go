// Package config loads the example embedder's runtime settings: a
// YAML file plus KATANA_-prefixed environment variable overrides. The
// framework core itself never touches this package — katana/reactor
// and katana/server both take a plain Go struct (§6.5); this exists
// only so cmd/katana-serve has somewhere to load one from.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level configuration for cmd/katana-serve.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Reactor ReactorConfig `koanf:"reactor"`
	Log     LogConfig     `koanf:"log"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Host               string `koanf:"host"`
	Port               int    `koanf:"port"`
	ReusePort          bool   `koanf:"reuse_port"`
	Backlog            int    `koanf:"backlog"`
	MaxRequestsPerConn int    `koanf:"max_requests_per_conn"`
}

// ReactorConfig holds katana/reactor.Config's settings (§6.5: worker
// count default = logical cores, backlog, timeouts, shutdown deadline).
type ReactorConfig struct {
	Workers           int           `koanf:"workers"`
	Policy            string        `koanf:"policy"` // "round_robin" or "least_loaded"
	QueueSize         int           `koanf:"queue_size"`
	ReadIdleTimeout   time.Duration `koanf:"read_idle_timeout"`
	WriteIdleTimeout  time.Duration `koanf:"write_idle_timeout"`
	TotalLifetime     time.Duration `koanf:"total_lifetime"`
	ShutdownDeadline  time.Duration `koanf:"shutdown_deadline"`
}

// LogConfig selects slog output shape, mirroring nova/serve.go's
// log_format/log_level flags.
type LogConfig struct {
	Format string `koanf:"format"` // "json" or "text"
	Level  string `koanf:"level"`  // "debug", "info", "warn", "error"
}

// Default returns the configuration cmd/katana-serve runs with when no
// file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:               "localhost",
			Port:               8080,
			Backlog:            128,
			MaxRequestsPerConn: 0,
		},
		Reactor: ReactorConfig{
			Policy:           "least_loaded",
			QueueSize:        1024,
			ReadIdleTimeout:  30 * time.Second,
			WriteIdleTimeout: 30 * time.Second,
			ShutdownDeadline: 5 * time.Second,
		},
		Log: LogConfig{Format: "text", Level: "info"},
	}
}

// Load reads path (if non-empty) as a YAML config file, applies
// KATANA_-prefixed environment variable overrides (e.g.
// KATANA_SERVER_PORT=9000 -> server.port) on top, and decodes the
// result into a copy of Default() — mapstructure only touches fields
// present in the loaded data, so anything the file/env don't mention
// keeps its default — the way internal/config.Load in the llmrouter
// gateway layers its env provider over a YAML file.
func Load(path string) (Config, error) {
	cfg := Default()

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("KATANA_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "KATANA_")),
			"_", ".",
		)
	}), nil); err != nil {
		return cfg, fmt.Errorf("loading env vars: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

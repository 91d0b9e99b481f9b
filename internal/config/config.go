package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lazypower/reprise/internal/fsrs"
	"github.com/lazypower/reprise/internal/leech"
)

// Config holds all reprise configuration.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Scheduler   SchedulerConfig   `toml:"scheduler"`
	Leech       leech.Config      `toml:"leech"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
	Log         LogConfig         `toml:"log"`
}

type ServerConfig struct {
	Bind        string   `toml:"bind"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// SchedulerConfig overrides a subset of the scheduling constants. Zero values
// keep the defaults.
type SchedulerConfig struct {
	Jitter          bool    `toml:"jitter"`
	TargetRetention float64 `toml:"target_retention"`
	MaxInterval     int     `toml:"max_interval"`
}

type MaintenanceConfig struct {
	Enabled  bool   `toml:"enabled"`
	Interval string `toml:"interval"` // Go duration, e.g. "24h"
}

type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37778,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Scheduler: SchedulerConfig{
			Jitter: true,
		},
		Leech: leech.DefaultConfig(),
		Maintenance: MaintenanceConfig{
			Enabled:  true,
			Interval: "24h",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the effective config: defaults, then the TOML file at path
// (a missing file is not an error), then REPRISE_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat config: %w", err)
	}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays REPRISE_* variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("REPRISE_BIND"); ok && v != "" {
		c.Server.Bind = v
	}
	if v, ok := lookup("REPRISE_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REPRISE_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("REPRISE_DB_PATH"); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup("REPRISE_CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("REPRISE_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("REPRISE_MAINTENANCE_INTERVAL"); ok && v != "" {
		c.Maintenance.Interval = v
	}
	return nil
}

// Validate checks every section that can be wrong in ways the engine would
// only discover later.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if err := c.Leech.Validate(); err != nil {
		return err
	}
	if _, err := c.MaintenanceInterval(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return c.Parameters().Validate()
}

// Parameters returns the scheduling constants with file overrides applied.
func (c *Config) Parameters() fsrs.Parameters {
	p := fsrs.DefaultParameters()
	if c.Scheduler.TargetRetention != 0 {
		p.TargetRetention = c.Scheduler.TargetRetention
	}
	if c.Scheduler.MaxInterval != 0 {
		p.MaxInterval = c.Scheduler.MaxInterval
	}
	return p
}

// MaintenanceInterval parses maintenance.interval.
func (c *Config) MaintenanceInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Maintenance.Interval)
	if err != nil {
		return 0, fmt.Errorf("maintenance.interval: %w", err)
	}
	if d < time.Minute {
		return 0, fmt.Errorf("maintenance.interval must be at least 1m, got %s", d)
	}
	return d, nil
}

// LogLevel maps log.level onto a slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/aevon-lab/tally/internal/registry"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config plus the loaded source registry.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Registry RegistryConfig `koanf:"registry"`
	Engine   EngineConfig   `koanf:"engine"`
	Log      LogConfig      `koanf:"log"`

	// Sources is populated by Load after parsing the registry file.
	Sources *registry.File `koanf:"-"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	MaxBatchSize  int    `koanf:"max_batch_size"`
	Mode          string `koanf:"mode"` // debug | release
}

type StoreConfig struct {
	Type         string `koanf:"type"` // memory | postgres
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
	CacheSize    int    `koanf:"cache_size"` // 0 disables the read cache
}

type RegistryConfig struct {
	Path           string `koanf:"path"`
	RequireSources bool   `koanf:"require_sources"`
}

type EngineConfig struct {
	Enabled      bool   `koanf:"enabled"` // run the boundary scheduler
	Timezone     string `koanf:"timezone"`
	AvgPrecision int    `koanf:"avg_precision"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug | info | warn | error
	Format string `koanf:"format"` // text | json
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel resolves the configured slog level.
func (c LogConfig) SlogLevel() slog.Level {
	return logLevels[strings.ToLower(c.Level)]
}

// Location resolves the configured time zone; period boundaries are computed in it.
func (c EngineConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.MaxBatchSize <= 0 {
		return fmt.Errorf("server.max_batch_size must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	switch c.Store.Type {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("store.dsn is required for the postgres store")
		}
		if c.Store.MaxOpenConns <= 0 {
			return fmt.Errorf("store.max_open_conns must be > 0")
		}
		if c.Store.MaxIdleConns <= 0 {
			return fmt.Errorf("store.max_idle_conns must be > 0")
		}
	default:
		return fmt.Errorf("unsupported store.type %q (must be memory or postgres)", c.Store.Type)
	}
	if c.Store.CacheSize < 0 {
		return fmt.Errorf("store.cache_size must be >= 0")
	}

	if strings.TrimSpace(c.Registry.Path) == "" {
		return fmt.Errorf("registry.path is required")
	}

	if _, err := c.Engine.Location(); err != nil {
		return fmt.Errorf("invalid engine.timezone %q: %w", c.Engine.Timezone, err)
	}
	if c.Engine.AvgPrecision < 0 || c.Engine.AvgPrecision > 10 {
		return fmt.Errorf("engine.avg_precision must be between 0 and 10")
	}

	if _, ok := logLevels[strings.ToLower(c.Log.Level)]; !ok {
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format %q (must be text or json)", c.Log.Format)
	}

	return nil
}

// Load parses config from file + env, validates it, then loads and validates the source registry.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":              8080,
		"server.host":              "0.0.0.0",
		"server.max_body_size_mb":  1,
		"server.max_batch_size":    1000,
		"server.mode":              "release",
		"store.type":               "memory",
		"store.dsn":                "",
		"store.max_open_conns":     10,
		"store.max_idle_conns":     10,
		"store.auto_migrate":       true,
		"store.cache_size":         4096,
		"registry.path":            "./config/sources.yaml",
		"registry.require_sources": false,
		"engine.enabled":           true,
		"engine.timezone":          "UTC",
		"engine.avg_precision":     0,
		"log.level":                "info",
		"log.format":               "text",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("TALLY_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "TALLY_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f, err := registry.LoadFile(cfg.Registry.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load source registry: %w", err)
	}
	if _, err := registry.New(f); err != nil {
		return nil, fmt.Errorf("invalid source registry %q: %w", cfg.Registry.Path, err)
	}
	if cfg.Registry.RequireSources && len(f.Sources) == 0 {
		return nil, fmt.Errorf("no sources found in %q", cfg.Registry.Path)
	}
	cfg.Sources = f

	return &cfg, nil
}

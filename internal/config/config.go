package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/xtding233/reroll-odds/internal/logger"
)

// ServerConfig holds server-wide configuration settings.
type ServerConfig struct {
	HTTP        HTTPConfig        `yaml:"http"`
	GRPC        GRPCConfig        `yaml:"grpc"`
	Tables      TablesConfig      `yaml:"tables"`
	Redis       RedisConfig       `yaml:"redis"`
	MemoryCache MemoryCacheConfig `yaml:"memory_cache"`
	Simulation  SimulationConfig  `yaml:"simulation"`
	Logging     logger.Config     `yaml:"logging"`
}

// HTTPConfig holds the JSON/websocket listener settings.
type HTTPConfig struct {
	Addr string `yaml:"addr" env:"REROLL_ODDS_HTTP_ADDR"`

	// AllowedOrigins feeds CORS and the websocket origin check.
	// "*" allows every origin; empty means same-origin only.
	AllowedOrigins []string `yaml:"allowed_origins" env:"REROLL_ODDS_ALLOWED_ORIGINS" envSeparator:","`
}

// GRPCConfig holds the gRPC listener settings.
type GRPCConfig struct {
	Enabled bool   `yaml:"enabled" env:"REROLL_ODDS_GRPC_ENABLED"`
	Addr    string `yaml:"addr" env:"REROLL_ODDS_GRPC_ADDR"`
}

// TablesConfig locates the reference table files.
type TablesConfig struct {
	// Dir holds default.yaml and sets/*.yaml. Empty serves the built-in tables.
	Dir string `yaml:"dir" env:"REROLL_ODDS_TABLES_DIR"`

	// DefaultSet is used when a request names no set.
	DefaultSet string `yaml:"default_set" env:"REROLL_ODDS_DEFAULT_SET"`

	// WatchInterval is how often table files are polled; 0 disables polling.
	WatchInterval time.Duration `yaml:"watch_interval" env:"REROLL_ODDS_TABLES_WATCH_INTERVAL"`
}

// RedisConfig configures the optional distribution cache.
type RedisConfig struct {
	// Addr empty disables the cache.
	Addr     string        `yaml:"addr" env:"REROLL_ODDS_REDIS_ADDR"`
	Password string        `yaml:"password" env:"REROLL_ODDS_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REROLL_ODDS_REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"REROLL_ODDS_REDIS_TTL"`
}

// MemoryCacheConfig sizes the in-process cache used when Redis is not set.
type MemoryCacheConfig struct {
	// Entries caps the number of cached distributions; 0 disables the cache.
	Entries int `yaml:"entries" env:"REROLL_ODDS_MEMORY_CACHE_ENTRIES"`
}

// SimulationConfig bounds the Monte Carlo cross-check.
type SimulationConfig struct {
	MaxTrials int `yaml:"max_trials" env:"REROLL_ODDS_MAX_TRIALS"`

	// MaxDraws caps trials * slots for one request; 0 means no cap.
	MaxDraws int64 `yaml:"max_draws" env:"REROLL_ODDS_MAX_DRAWS"`
}

// DefaultConfig returns a ServerConfig that serves the built-in tables.
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{},
		},
		GRPC: GRPCConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Tables: TablesConfig{
			DefaultSet:    "default",
			WatchInterval: 5 * time.Second,
		},
		Redis: RedisConfig{
			TTL: time.Hour,
		},
		MemoryCache: MemoryCacheConfig{
			Entries: 256,
		},
		Simulation: SimulationConfig{
			MaxTrials: 100000,
			MaxDraws:  50_000_000,
		},
		Logging: logger.DefaultConfig(),
	}
}

// LoadConfig loads server configuration from a YAML file, then applies
// environment overrides. A missing file leaves the defaults in place.
func LoadConfig(path string) (*ServerConfig, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks semantic constraints of the loaded config.
func (c *ServerConfig) Validate() error {
	var errs []string

	if c.HTTP.Addr == "" {
		errs = append(errs, "http.addr must be set")
	}
	if c.GRPC.Enabled && c.GRPC.Addr == "" {
		errs = append(errs, "grpc.addr must be set when grpc is enabled")
	}
	if c.Tables.WatchInterval < 0 {
		errs = append(errs, "tables.watch_interval must be >= 0")
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, "redis.ttl must be >= 0")
	}
	if c.Redis.DB < 0 {
		errs = append(errs, "redis.db must be >= 0")
	}
	if c.MemoryCache.Entries < 0 {
		errs = append(errs, "memory_cache.entries must be >= 0")
	}
	if c.Simulation.MaxTrials < 0 {
		errs = append(errs, "simulation.max_trials must be >= 0")
	}
	if c.Simulation.MaxDraws < 0 {
		errs = append(errs, "simulation.max_draws must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsOriginAllowed reports whether origin may call the HTTP API.
// Same-origin requests (no Origin header) are always allowed.
func (c HTTPConfig) IsOriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// Package config defines all configuration structures for the MolVista
// service. No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// Version is the service version, overridable at build time via ldflags.
var Version = "0.1.0"

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SourceConfig describes one external structure data source. Sources are
// tried strictly in the order they appear in StructureConfig.Sources.
type SourceConfig struct {
	// Name selects the source implementation: "pubchem" | "cactus".
	Name string `mapstructure:"name"`

	// BaseURL overrides the source's default endpoint. Empty means the
	// built-in public endpoint.
	BaseURL string `mapstructure:"base_url"`
}

// StructureConfig holds the retrieval-pipeline tunables.
type StructureConfig struct {
	// Sources is the ordered list of data sources. The order is the fallback
	// order; the first source that returns a valid payload wins.
	Sources []SourceConfig `mapstructure:"sources"`

	// SourceTimeout bounds every individual source request.
	SourceTimeout time.Duration `mapstructure:"source_timeout"`

	// ResolverBaseURL overrides the name-lookup endpoint. Empty means the
	// built-in public endpoint.
	ResolverBaseURL string `mapstructure:"resolver_base_url"`

	// ResolverTimeout bounds the best-effort name lookup.
	ResolverTimeout time.Duration `mapstructure:"resolver_timeout"`

	// CacheTTL is how long validated payloads stay in the read-through cache.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// RenderConfig holds the render-workflow tunables.
type RenderConfig struct {
	// Deadline bounds the entire load sequence, from waiting for the render
	// capability through a successful first frame.
	Deadline time.Duration `mapstructure:"deadline"`

	// PollInterval is the fixed interval between render-capability polls.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// MaxPollAttempts bounds the capability poll; exhaustion forces fallback.
	MaxPollAttempts int `mapstructure:"max_poll_attempts"`

	// RotationStepDegrees is the angular advance applied on every tick.
	RotationStepDegrees float64 `mapstructure:"rotation_step_degrees"`

	// RotationTick is the interval between rotation steps.
	RotationTick time.Duration `mapstructure:"rotation_tick"`
}

// RedisConfig holds Redis connection parameters for the structure cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// PredictionConfig holds parameters for the remote property-inference service.
type PredictionConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ChatConfig holds parameters for the hosted chat model. The chat feature is
// disabled when APIKey is empty; the rest of the service is unaffected.
type ChatConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxHistory int           `mapstructure:"max_history"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// Config is the root configuration structure for the entire service.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Structure  StructureConfig  `mapstructure:"structure"`
	Render     RenderConfig     `mapstructure:"render"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Prediction PredictionConfig `mapstructure:"prediction"`
	Chat       ChatConfig       `mapstructure:"chat"`
	Log        LogConfig        `mapstructure:"log"`
}

// knownSources lists the source implementations the pipeline can construct.
var knownSources = map[string]bool{
	"pubchem": true,
	"cactus":  true,
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if len(c.Structure.Sources) == 0 {
		return fmt.Errorf("config: structure.sources must list at least one source")
	}
	for i, src := range c.Structure.Sources {
		if !knownSources[src.Name] {
			return fmt.Errorf("config: structure.sources[%d].name %q is unknown; expected pubchem|cactus", i, src.Name)
		}
	}
	if c.Structure.SourceTimeout <= 0 {
		return fmt.Errorf("config: structure.source_timeout must be positive, got %v", c.Structure.SourceTimeout)
	}
	if c.Structure.ResolverTimeout <= 0 {
		return fmt.Errorf("config: structure.resolver_timeout must be positive, got %v", c.Structure.ResolverTimeout)
	}

	if c.Render.Deadline <= 0 {
		return fmt.Errorf("config: render.deadline must be positive, got %v", c.Render.Deadline)
	}
	if c.Render.PollInterval <= 0 {
		return fmt.Errorf("config: render.poll_interval must be positive, got %v", c.Render.PollInterval)
	}
	if c.Render.MaxPollAttempts < 1 {
		return fmt.Errorf("config: render.max_poll_attempts must be ≥ 1, got %d", c.Render.MaxPollAttempts)
	}
	if c.Render.RotationStepDegrees <= 0 || c.Render.RotationStepDegrees > 360 {
		return fmt.Errorf("config: render.rotation_step_degrees %v is out of range (0, 360]", c.Render.RotationStepDegrees)
	}
	if c.Render.RotationTick <= 0 {
		return fmt.Errorf("config: render.rotation_tick must be positive, got %v", c.Render.RotationTick)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when redis.enabled is true")
	}

	if c.Chat.MaxHistory < 0 {
		return fmt.Errorf("config: chat.max_history must be ≥ 0, got %d", c.Chat.MaxHistory)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

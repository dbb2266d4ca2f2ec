package config

import "time"

// Default values applied to any unset field. The retrieval and render
// tunables default to the representative design: two sources in
// PubChem-then-Cactus order, an 8s per-source bound, and a 7s overall
// deadline for the render workflow.
const (
	DefaultServerPort      = 8080
	DefaultServerMode      = "release"
	DefaultSourceTimeout   = 8 * time.Second
	DefaultResolverTimeout = 5 * time.Second
	DefaultCacheTTL        = 24 * time.Hour
	DefaultDeadline        = 7 * time.Second
	DefaultPollInterval    = 100 * time.Millisecond
	DefaultMaxPollAttempts = 30
	DefaultRotationStep    = 1.0
	DefaultRotationTick    = 50 * time.Millisecond
	DefaultChatModel       = "gemini-2.5-flash"
	DefaultChatMaxHistory  = 10
)

// ApplyDefaults fills every zero-valued field of cfg with its default.
// It never overwrites an explicitly configured value.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if len(cfg.Structure.Sources) == 0 {
		cfg.Structure.Sources = []SourceConfig{
			{Name: "pubchem"},
			{Name: "cactus"},
		}
	}
	if cfg.Structure.SourceTimeout == 0 {
		cfg.Structure.SourceTimeout = DefaultSourceTimeout
	}
	if cfg.Structure.ResolverTimeout == 0 {
		cfg.Structure.ResolverTimeout = DefaultResolverTimeout
	}
	if cfg.Structure.CacheTTL == 0 {
		cfg.Structure.CacheTTL = DefaultCacheTTL
	}

	if cfg.Render.Deadline == 0 {
		cfg.Render.Deadline = DefaultDeadline
	}
	if cfg.Render.PollInterval == 0 {
		cfg.Render.PollInterval = DefaultPollInterval
	}
	if cfg.Render.MaxPollAttempts == 0 {
		cfg.Render.MaxPollAttempts = DefaultMaxPollAttempts
	}
	if cfg.Render.RotationStepDegrees == 0 {
		cfg.Render.RotationStepDegrees = DefaultRotationStep
	}
	if cfg.Render.RotationTick == 0 {
		cfg.Render.RotationTick = DefaultRotationTick
	}

	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "molvista"
	}

	if cfg.Prediction.Timeout == 0 {
		cfg.Prediction.Timeout = 30 * time.Second
	}

	if cfg.Chat.Model == "" {
		cfg.Chat.Model = DefaultChatModel
	}
	if cfg.Chat.Timeout == 0 {
		cfg.Chat.Timeout = 60 * time.Second
	}
	if cfg.Chat.MaxHistory == 0 {
		cfg.Chat.MaxHistory = DefaultChatMaxHistory
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
}

// NewDefaultConfig returns a Config populated entirely from defaults.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

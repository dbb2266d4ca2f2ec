package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all service settings.
const envPrefix = "MOLVISTA"

// newViper builds a pre-configured Viper instance with the service's standard
// settings: YAML file type, MOLVISTA_ env prefix, automatic env binding, and a
// key replacer that maps "." → "_" so that nested keys like "render.deadline"
// resolve to "MOLVISTA_RENDER_DEADLINE".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindDefaults(v)
	return v
}

// bindDefaults registers every known key with viper. Without this, automatic
// env binding is invisible to Unmarshal for keys absent from the config file.
func bindDefaults(v *viper.Viper) {
	def := NewDefaultConfig()

	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.mode", def.Server.Mode)
	v.SetDefault("server.read_timeout", def.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", def.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)

	v.SetDefault("structure.source_timeout", def.Structure.SourceTimeout)
	v.SetDefault("structure.resolver_base_url", def.Structure.ResolverBaseURL)
	v.SetDefault("structure.resolver_timeout", def.Structure.ResolverTimeout)
	v.SetDefault("structure.cache_ttl", def.Structure.CacheTTL)

	v.SetDefault("render.deadline", def.Render.Deadline)
	v.SetDefault("render.poll_interval", def.Render.PollInterval)
	v.SetDefault("render.max_poll_attempts", def.Render.MaxPollAttempts)
	v.SetDefault("render.rotation_step_degrees", def.Render.RotationStepDegrees)
	v.SetDefault("render.rotation_tick", def.Render.RotationTick)

	v.SetDefault("redis.enabled", def.Redis.Enabled)
	v.SetDefault("redis.addr", def.Redis.Addr)
	v.SetDefault("redis.password", def.Redis.Password)
	v.SetDefault("redis.db", def.Redis.DB)
	v.SetDefault("redis.key_prefix", def.Redis.KeyPrefix)

	v.SetDefault("prediction.base_url", def.Prediction.BaseURL)
	v.SetDefault("prediction.timeout", def.Prediction.Timeout)

	v.SetDefault("chat.api_key", def.Chat.APIKey)
	v.SetDefault("chat.model", def.Chat.Model)
	v.SetDefault("chat.base_url", def.Chat.BaseURL)
	v.SetDefault("chat.timeout", def.Chat.Timeout)
	v.SetDefault("chat.max_history", def.Chat.MaxHistory)

	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.output", def.Log.Output)
}

// Load reads the YAML file at configPath, merges any MOLVISTA_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result. It returns a fully-populated *Config or a descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from MOLVISTA_* environment variables,
// with no config file required. This is the preferred loading strategy for
// containerised deployments.
//
// Environment variable naming convention:
//
//	MOLVISTA_<SECTION>_<FIELD>   e.g.  MOLVISTA_SERVER_PORT, MOLVISTA_CHAT_API_KEY
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk. It is intended for
// hot-reloading non-critical settings such as log level and the render
// tunables; callers are responsible for applying only the safe subset of
// changes at runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// If the changed file fails to parse or validate, onChange is NOT called.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read — errors are ignored here; callers should call Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			// An invalid change is skipped to prevent the application from
			// entering a broken state.
			return
		}
		onChange(cfg)
	})
}

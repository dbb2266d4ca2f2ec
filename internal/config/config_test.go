package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	// The representative design: two sources, PubChem first.
	require.Len(t, cfg.Structure.Sources, 2)
	assert.Equal(t, "pubchem", cfg.Structure.Sources[0].Name)
	assert.Equal(t, "cactus", cfg.Structure.Sources[1].Name)

	assert.Equal(t, 7*time.Second, cfg.Render.Deadline)
	assert.Equal(t, 100*time.Millisecond, cfg.Render.PollInterval)
	assert.Equal(t, 30, cfg.Render.MaxPollAttempts)
	assert.Equal(t, 1.0, cfg.Render.RotationStepDegrees)
	assert.Equal(t, 50*time.Millisecond, cfg.Render.RotationTick)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"bad server mode", func(c *Config) { c.Server.Mode = "production" }},
		{"no sources", func(c *Config) { c.Structure.Sources = nil }},
		{"unknown source", func(c *Config) { c.Structure.Sources = []SourceConfig{{Name: "chemspider"}} }},
		{"zero source timeout", func(c *Config) { c.Structure.SourceTimeout = 0 }},
		{"zero deadline", func(c *Config) { c.Render.Deadline = 0 }},
		{"zero poll attempts", func(c *Config) { c.Render.MaxPollAttempts = 0 }},
		{"rotation step too large", func(c *Config) { c.Render.RotationStepDegrees = 540 }},
		{"redis enabled without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }},
		{"negative chat history", func(c *Config) { c.Chat.MaxHistory = -1 }},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Log.Format = "text" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Render.Deadline = 3 * time.Second
	cfg.Structure.Sources = []SourceConfig{{Name: "cactus"}}

	ApplyDefaults(cfg)

	assert.Equal(t, 3*time.Second, cfg.Render.Deadline)
	require.Len(t, cfg.Structure.Sources, 1)
	assert.Equal(t, "cactus", cfg.Structure.Sources[0].Name)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
  mode: debug
structure:
  source_timeout: 4s
  sources:
    - name: cactus
    - name: pubchem
render:
  deadline: 6s
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 4*time.Second, cfg.Structure.SourceTimeout)
	require.Len(t, cfg.Structure.Sources, 2)
	assert.Equal(t, "cactus", cfg.Structure.Sources[0].Name)
	assert.Equal(t, 6*time.Second, cfg.Render.Deadline)
	// Defaults still fill the rest.
	assert.Equal(t, DefaultChatModel, cfg.Chat.Model)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  mode: nonsense\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWatchDeliversValidChangesOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600))

	ch := make(chan *Config, 8)
	Watch(path, func(c *Config) { ch <- c })

	// Let the watcher register before mutating the file.
	time.Sleep(100 * time.Millisecond)

	// "trace" fails validation; the change must be swallowed.
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: trace\n"), 0o600))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-ch:
			assert.NotEqual(t, "trace", cfg.Log.Level, "invalid change must not be delivered")
			if cfg.Log.Level == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MOLVISTA_SERVER_PORT", "8181")
	t.Setenv("MOLVISTA_LOG_LEVEL", "warn")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

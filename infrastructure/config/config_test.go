package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreDynamoDB, cfg.StoreBackend)
	assert.Equal(t, 10, cfg.RetryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryInterval)
	assert.True(t, cfg.UseRITree)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: staging
store_backend: memory
retry_attempts: 3
use_ri_tree: false
log_level: debug
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RETRY_ATTEMPTS", "4")
	t.Setenv("RETRY_INTERVAL_MS", "20")
	t.Setenv("TABLE_NAME", "timelines-staging")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, 4, cfg.RetryAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.RetryInterval)
	assert.Equal(t, "timelines-staging", cfg.DynamoDBTable)
	assert.False(t, cfg.UseRITree)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_BadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.StoreBackend = "postgres" }},
		{"missing table", func(c *Config) { c.DynamoDBTable = "" }},
		{"memory in production", func(c *Config) { c.StoreBackend = StoreMemory; c.Environment = "production" }},
		{"zero timeout", func(c *Config) { c.StoreTimeout = 0 }},
		{"no attempts", func(c *Config) { c.RetryAttempts = 0 }},
		{"tracing without endpoint", func(c *Config) { c.EnableTracing = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, defaultConfig().Validate())
}

func TestRuntimeFlags(t *testing.T) {
	flags := NewRuntimeFlags(&Config{UseRITree: true})
	assert.True(t, flags.UseRITree())

	flags.Apply(&RuntimeFile{})
	assert.True(t, flags.UseRITree())

	off := false
	flags.Apply(&RuntimeFile{UseRITree: &off})
	assert.False(t, flags.UseRITree())
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime.yaml")
	require.NoError(t, os.WriteFile(path, []byte("use_ri_tree: false\n"), 0o600))

	flags := NewRuntimeFlags(&Config{UseRITree: true})
	watcher, err := NewWatcher(path, flags, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, flags.UseRITree(), "initial file is applied")

	watcher.Start()
	defer watcher.Stop()

	require.NoError(t, os.WriteFile(path, []byte("use_ri_tree: true\n"), 0o600))
	assert.Eventually(t, flags.UseRITree, 2*time.Second, 20*time.Millisecond)

	// a broken file keeps the current value
	require.NoError(t, os.WriteFile(path, []byte("use_ri_tree: [\n"), 0o600))
	time.Sleep(300 * time.Millisecond)
	assert.True(t, flags.UseRITree())
}

func TestNewWatcher_MissingFile(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "absent.yaml"), NewRuntimeFlags(&Config{}), zap.NewNop())
	assert.Error(t, err)
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "howhite" {
		t.Errorf("expected Name=howhite, got %s", cfg.Name)
	}
	if cfg.List.Overscan != 3 {
		t.Errorf("expected Overscan=3, got %d", cfg.List.Overscan)
	}
	if cfg.Loading.InitialItems != 5 || cfg.Loading.Increment != 5 {
		t.Errorf("expected 5/5 loading defaults, got %d/%d", cfg.Loading.InitialItems, cfg.Loading.Increment)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("HOWHITE_API_URL", "")
	t.Setenv("HOWHITE_TOKEN", "")

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://blog.example.com/api"
	cfg.List.ItemHeight = 4
	cfg.UI.Theme = ThemeDark

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://blog.example.com/api", loaded.API.BaseURL)
	assert.Equal(t, 4, loaded.List.ItemHeight)
	assert.Equal(t, ThemeDark, loaded.UI.Theme)
}

func TestConfig_LoadMissingReturnsDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().List, loaded.List)
}

func TestConfig_LoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("list: [unterminated"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HOWHITE_API_URL", "http://api:9000")
	t.Setenv("HOWHITE_TOKEN", "tok")
	t.Setenv("HOWHITE_CACHE", "/tmp/x.db")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "http://api:9000", cfg.API.BaseURL)
	assert.Equal(t, "tok", cfg.API.Token)
	assert.Equal(t, "/tmp/x.db", cfg.Cache.Path)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero item height", func(c *Config) { c.List.ItemHeight = 0 }},
		{"negative overscan", func(c *Config) { c.List.Overscan = -1 }},
		{"zero initial", func(c *Config) { c.Loading.InitialItems = 0 }},
		{"zero increment", func(c *Config) { c.Loading.Increment = 0 }},
		{"negative threshold", func(c *Config) { c.Loading.Threshold = -5 }},
		{"unknown theme", func(c *Config) { c.UI.Theme = "neon" }},
		{"missing api url", func(c *Config) { c.API.BaseURL = "" }},
		{"cache without path", func(c *Config) { c.Cache.Path = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_DurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Timeout = "bogus"
	cfg.List.ScrollingDelay = "-1s"
	cfg.Loading.Latency = ""
	cfg.UI.ReloadDebounce = "0s"
	assert.Equal(t, 168*time.Hour, cfg.GetCacheMaxAge())
	cfg.Cache.MaxAge = "forever"

	assert.Equal(t, 10*time.Second, cfg.GetAPITimeout())
	assert.Equal(t, 150*time.Millisecond, cfg.GetScrollingDelay())
	assert.Equal(t, 500*time.Millisecond, cfg.GetLoadingLatency())
	assert.Equal(t, 300*time.Millisecond, cfg.GetReloadDebounce())
	assert.Zero(t, cfg.GetCacheMaxAge())
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	c := LoggingConfig{}
	assert.False(t, c.IsCategoryEnabled("api"))

	c.DebugMode = true
	assert.True(t, c.IsCategoryEnabled("api"))

	c.Categories = map[string]bool{"api": false}
	assert.False(t, c.IsCategoryEnabled("api"))
	assert.True(t, c.IsCategoryEnabled("store"))
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, DefaultConfig().Save(path))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, 30*time.Millisecond, func(c *Config) { reloaded <- c })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	cfg := DefaultConfig()
	cfg.List.Overscan = 7
	require.NoError(t, cfg.Save(path))

	select {
	case c := <-reloaded:
		assert.Equal(t, 7, c.List.Overscan)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcher_IgnoresInvalidConfig(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, DefaultConfig().Save(path))

	var calls int32
	w, err := NewWatcher(path, 20*time.Millisecond, func(*Config) { atomic.AddInt32(&calls, 1) })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(path, []byte("list:\n  item_height: 0\n"), 0644))
	require.Eventually(t, func() bool { return w.Stats().Errors > 0 }, 3*time.Second, 10*time.Millisecond)
	w.Stop()

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := NewWatcher(filepath.Join(t.TempDir(), "config.yaml"), 0, nil)
	require.NoError(t, err)
	w.Stop()
	w.Stop()
}

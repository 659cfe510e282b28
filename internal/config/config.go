package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all howhite configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Blog backend
	API APIConfig `yaml:"api"`

	// Virtual scroll list (article list page)
	List ListConfig `yaml:"list"`

	// Incremental loading (tag page)
	Loading LoadingConfig `yaml:"loading"`

	// Offline article cache
	Cache CacheConfig `yaml:"cache"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the REST backend.
type APIConfig struct {
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
	Token    string `yaml:"token,omitempty"`
	PageSize int    `yaml:"page_size"`
}

// ListConfig configures the fixed-height virtual scroll list.
type ListConfig struct {
	ItemHeight     int    `yaml:"item_height"` // terminal lines per article row
	Overscan       int    `yaml:"overscan"`
	ScrollingDelay string `yaml:"scrolling_delay"`
}

// LoadingConfig configures incremental loading.
type LoadingConfig struct {
	InitialItems int    `yaml:"initial_items"`
	Increment    int    `yaml:"increment"`
	Threshold    int    `yaml:"threshold"` // trailing margin in lines
	Latency      string `yaml:"latency"`
}

// CacheConfig configures the SQLite article cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	MaxAge  string `yaml:"max_age"` // rows older than this are pruned on open
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "howhite",
		Version: "0.3.0",

		API: APIConfig{
			BaseURL:  "http://localhost:3000/api",
			Timeout:  "10s",
			PageSize: 50,
		},

		List: ListConfig{
			ItemHeight:     3,
			Overscan:       3,
			ScrollingDelay: "150ms",
		},

		Loading: LoadingConfig{
			InitialItems: 5,
			Increment:    5,
			Threshold:    2,
			Latency:      "500ms",
		},

		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(".howhite", "cache.db"),
			MaxAge:  "168h",
		},

		UI: *DefaultUIConfig(),

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultConfigPath returns the default path to .howhite/config.yaml.
func DefaultConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".howhite", "config.yaml")
	}
	return filepath.Join(cwd, ".howhite", "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("HOWHITE_API_URL"); url != "" {
		c.API.BaseURL = url
	}
	if token := os.Getenv("HOWHITE_TOKEN"); token != "" {
		c.API.Token = token
	}
	if path := os.Getenv("HOWHITE_CACHE"); path != "" {
		c.Cache.Path = path
	}
	if theme := os.Getenv("HOWHITE_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// GetAPITimeout returns the API timeout as a duration.
func (c *Config) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetScrollingDelay returns the scroll settle delay as a duration.
func (c *Config) GetScrollingDelay() time.Duration {
	d, err := time.ParseDuration(c.List.ScrollingDelay)
	if err != nil || d < 0 {
		return 150 * time.Millisecond
	}
	return d
}

// GetLoadingLatency returns the incremental loading latency as a duration.
func (c *Config) GetLoadingLatency() time.Duration {
	d, err := time.ParseDuration(c.Loading.Latency)
	if err != nil || d < 0 {
		return 500 * time.Millisecond
	}
	return d
}

// GetCacheMaxAge returns the cache retention. Zero disables pruning.
func (c *Config) GetCacheMaxAge() time.Duration {
	d, err := time.ParseDuration(c.Cache.MaxAge)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url not configured (set HOWHITE_API_URL)")
	}
	if c.List.ItemHeight <= 0 {
		return fmt.Errorf("list.item_height must be positive, got %d", c.List.ItemHeight)
	}
	if c.List.Overscan < 0 {
		return fmt.Errorf("list.overscan must not be negative, got %d", c.List.Overscan)
	}
	if c.Loading.InitialItems <= 0 {
		return fmt.Errorf("loading.initial_items must be positive, got %d", c.Loading.InitialItems)
	}
	if c.Loading.Increment <= 0 {
		return fmt.Errorf("loading.increment must be positive, got %d", c.Loading.Increment)
	}
	if c.Loading.Threshold < 0 {
		return fmt.Errorf("loading.threshold must not be negative, got %d", c.Loading.Threshold)
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("cache.path required when cache is enabled")
	}

	validTheme := false
	for _, t := range ValidThemes {
		if c.UI.Theme == t {
			validTheme = true
			break
		}
	}
	if !validTheme {
		return fmt.Errorf("invalid ui.theme: %s (valid: %v)", c.UI.Theme, ValidThemes)
	}

	return nil
}

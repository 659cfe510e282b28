package config

import "howhite/internal/logging"

// LoggingConfig is the `logging:` section. Nothing is written unless
// DebugMode is set.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode,omitempty"`
	Level      string          `yaml:"level" json:"level,omitempty"`   // debug|info|warn|error
	Format     string          `yaml:"format" json:"format,omitempty"` // text|json
	Categories map[string]bool `yaml:"categories,omitempty" json:"categories,omitempty"`
}

// IsCategoryEnabled reports whether category would produce a log file.
// Categories missing from the map are on.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	on, listed := c.Categories[category]
	return !listed || on
}

// Options converts the section for logging.Initialize.
func (c *LoggingConfig) Options() logging.Options {
	return logging.Options{
		DebugMode:  c.DebugMode,
		Level:      c.Level,
		Format:     c.Format,
		Categories: c.Categories,
	}
}

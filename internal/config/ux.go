package config

// Theme names accepted by ui.theme.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// ValidThemes lists all supported theme modes.
var ValidThemes = []string{ThemeLight, ThemeDark, ThemeSystem}

// UIConfig holds user interface configuration.
type UIConfig struct {
	// Theme is light, dark or system (follows the terminal background)
	Theme string `json:"theme" yaml:"theme"`

	// MouseWheel enables mouse wheel scrolling in list pages
	MouseWheel bool `json:"mouse_wheel" yaml:"mouse_wheel"`

	// WordWrap is the reader page wrap width (0 = terminal width)
	WordWrap int `json:"word_wrap,omitempty" yaml:"word_wrap,omitempty"`

	// ReloadDebounce is how long the config watcher waits for writes to settle
	ReloadDebounce string `json:"reload_debounce,omitempty" yaml:"reload_debounce,omitempty"`
}

// DefaultUIConfig returns sensible UI defaults.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Theme:          ThemeSystem,
		MouseWheel:     true,
		WordWrap:       0,
		ReloadDebounce: "300ms",
	}
}

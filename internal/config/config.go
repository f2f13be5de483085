// Package config handles preference loading, validation, and persistence for
// pressviz.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"pressviz/internal/keys"
	"pressviz/internal/logging"
	"pressviz/internal/screen"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete pressviz configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Preferences are the user-facing settings.
	Preferences Preferences `toml:"preferences" json:"preferences" yaml:"preferences"`

	// Overlay timing.
	Overlay OverlayConfig `toml:"overlay" json:"overlay" yaml:"overlay"`

	// Displays is a static topology used when the platform cannot report one.
	Displays []DisplayConfig `toml:"displays" json:"displays" yaml:"displays"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// Preferences are what the settings UI and the hotkey change.
type Preferences struct {
	// Enabled turns visualization on or off.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Mode selects which key events are shown.
	Mode keys.Mode `toml:"mode" json:"mode" yaml:"mode"`

	// Position is the key-text zone.
	Position keys.Position `toml:"position" json:"position" yaml:"position"`

	// ClickEffects enables click and drag markers.
	ClickEffects bool `toml:"click_effects" json:"click_effects" yaml:"click_effects"`

	// Hotkey toggles Enabled, e.g. "ctrl+option+k". Empty disables it.
	Hotkey string `toml:"hotkey" json:"hotkey" yaml:"hotkey"`
}

// OverlayConfig holds aging and refresh timing.
type OverlayConfig struct {
	// TickIntervalMs is the aging tick period (16 to 1000).
	TickIntervalMs int `toml:"tick_interval_ms" json:"tick_interval_ms" yaml:"tick_interval_ms"`

	// KeyDwellMs is how long key text stays after the last press.
	KeyDwellMs int `toml:"key_dwell_ms" json:"key_dwell_ms" yaml:"key_dwell_ms"`

	// ClickExpiryMs is how long a released click marker stays.
	ClickExpiryMs int `toml:"click_expiry_ms" json:"click_expiry_ms" yaml:"click_expiry_ms"`
}

// DisplayConfig is one statically configured display, in top-left-origin
// desktop coordinates like a display settings panel shows them.
type DisplayConfig struct {
	ID      string  `toml:"id" json:"id" yaml:"id"`
	Name    string  `toml:"name" json:"name" yaml:"name"`
	X       float64 `toml:"x" json:"x" yaml:"x"`
	Y       float64 `toml:"y" json:"y" yaml:"y"`
	Width   float64 `toml:"width" json:"width" yaml:"width"`
	Height  float64 `toml:"height" json:"height" yaml:"height"`
	Primary bool    `toml:"primary" json:"primary" yaml:"primary"`
	Scale   float64 `toml:"scale" json:"scale" yaml:"scale"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stdout", "stderr", "file", "both" or "discard".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file when Output includes a file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the size at which the log file rotates.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// ShowKeyText logs displayed key text instead of redacting it.
	ShowKeyText bool `toml:"show_key_text" json:"show_key_text" yaml:"show_key_text"`
}

// DefaultPreferences returns the first-launch preferences.
func DefaultPreferences() Preferences {
	return Preferences{
		Enabled:      true,
		Mode:         keys.ModeModifierPlusKey,
		Position:     keys.BottomCenter,
		ClickEffects: true,
		Hotkey:       "ctrl+option+k",
	}
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:     Version,
		Preferences: DefaultPreferences(),
		Overlay: OverlayConfig{
			TickIntervalMs: 100,
			KeyDwellMs:     1000,
			ClickExpiryMs:  500,
		},
		Displays: []DisplayConfig{},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(PlatformLogDir(), "pressviz.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// ConfigPath returns the default configuration file path. PRESSVIZ_CONFIG
// overrides it.
func ConfigPath() string {
	if v := os.Getenv("PRESSVIZ_CONFIG"); v != "" {
		return v
	}
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from path, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFromFile reads and parses a config file based on its extension.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data in the format named by ext (".toml", ".json", ".yaml",
// ".yml") over the defaults. Unknown extensions are tried as TOML, then JSON,
// then YAML.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := DefaultConfig()

	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if err := autoDetectAndParse(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	return cfg, nil
}

// autoDetectAndParse attempts to parse the config in multiple formats.
func autoDetectAndParse(data []byte, cfg *Config) error {
	if _, err := toml.Decode(string(data), cfg); err == nil {
		return nil
	}
	*cfg = *DefaultConfig()
	if err := json.Unmarshal(data, cfg); err == nil {
		return nil
	}
	*cfg = *DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err == nil {
		return nil
	}
	return fmt.Errorf("unable to parse config file (tried TOML, JSON, YAML)")
}

// ApplyEnvOverrides applies PRESSVIZ_* environment variables. Unparseable
// booleans and integers are ignored; unknown mode or position names are left
// for validation to report.
func (c *Config) ApplyEnvOverrides() {
	if v, ok := envBool("PRESSVIZ_ENABLED"); ok {
		c.Preferences.Enabled = v
	}
	if v := os.Getenv("PRESSVIZ_MODE"); v != "" {
		c.Preferences.Mode = keys.Mode(v)
	}
	if v := os.Getenv("PRESSVIZ_POSITION"); v != "" {
		c.Preferences.Position = keys.Position(v)
	}
	if v, ok := envBool("PRESSVIZ_CLICK_EFFECTS"); ok {
		c.Preferences.ClickEffects = v
	}
	if v, ok := os.LookupEnv("PRESSVIZ_HOTKEY"); ok {
		c.Preferences.Hotkey = v
	}
	if v, ok := envInt("PRESSVIZ_TICK_INTERVAL_MS"); ok {
		c.Overlay.TickIntervalMs = v
	}

	if v := os.Getenv("PRESSVIZ_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PRESSVIZ_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("PRESSVIZ_LOG_OUTPUT"); v != "" {
		c.Logging.Output = v
	}
	if v := os.Getenv("PRESSVIZ_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

func envBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Displays != nil {
		clone.Displays = append([]DisplayConfig{}, c.Displays...)
	}
	return &clone
}

// TickInterval returns the aging tick period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Overlay.TickIntervalMs) * time.Millisecond
}

// KeyDwell returns how long key text stays after the last press.
func (c *Config) KeyDwell() time.Duration {
	return time.Duration(c.Overlay.KeyDwellMs) * time.Millisecond
}

// ClickExpiry returns how long a released click marker stays.
func (c *Config) ClickExpiry() time.Duration {
	return time.Duration(c.Overlay.ClickExpiryMs) * time.Millisecond
}

// Topology converts the static displays into topology space. Configured
// coordinates have a top-left origin with Y down, so each frame is flipped
// about the primary display's height.
func (c *Config) Topology() screen.Topology {
	if len(c.Displays) == 0 {
		return nil
	}
	primaryH := c.Displays[0].Height
	for _, d := range c.Displays {
		if d.Primary {
			primaryH = d.Height
			break
		}
	}

	topo := make(screen.Topology, 0, len(c.Displays))
	for i, d := range c.Displays {
		id := d.ID
		if id == "" {
			id = fmt.Sprintf("display-%d", i+1)
		}
		scale := d.Scale
		if scale == 0 {
			scale = 1
		}
		topo = append(topo, screen.Display{
			ID:      id,
			Name:    d.Name,
			Frame:   screen.Rect{X: d.X, Y: primaryH - (d.Y + d.Height), W: d.Width, H: d.Height},
			Primary: d.Primary,
			Scale:   scale,
		})
	}
	return topo
}

// LoggerConfig converts the logging section for logging.New.
func (c *Config) LoggerConfig() (*logging.Config, error) {
	lc := logging.DefaultConfig()

	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.Logging.Format)
	if err != nil {
		return nil, err
	}
	lc.Level = level
	lc.Format = format
	lc.Output = c.Logging.Output
	if c.Logging.FilePath != "" {
		lc.FilePath = c.Logging.FilePath
	}
	lc.MaxSize = int64(c.Logging.MaxSizeMB)
	lc.MaxBackups = c.Logging.MaxBackups
	lc.ShowKeyText = c.Logging.ShowKeyText
	return lc, nil
}

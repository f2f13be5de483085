package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressviz/internal/keys"
	"pressviz/internal/logging"
)

// =============================================================================
// Tests for defaults and loading
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.True(t, cfg.Preferences.Enabled)
	assert.Equal(t, keys.ModeModifierPlusKey, cfg.Preferences.Mode)
	assert.Equal(t, keys.BottomCenter, cfg.Preferences.Position)
	assert.True(t, cfg.Preferences.ClickEffects)
	assert.Equal(t, "ctrl+option+k", cfg.Preferences.Hotkey)

	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, time.Second, cfg.KeyDwell())
	assert.Equal(t, 500*time.Millisecond, cfg.ClickExpiry())
	assert.NoError(t, cfg.Validate())
}

func TestConfigPath(t *testing.T) {
	t.Setenv("PRESSVIZ_CONFIG", "")
	path := ConfigPath()
	assert.True(t, strings.HasSuffix(path, "config.toml"), path)
	assert.Contains(t, path, "pressviz")

	t.Setenv("PRESSVIZ_CONFIG", "/custom/pv.yaml")
	assert.Equal(t, "/custom/pv.yaml", ConfigPath())
}

func TestDataDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PRESSVIZ_DATA_DIR", dir)
	assert.Equal(t, dir, PlatformConfigDir())
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Preferences, cfg.Preferences)
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "config.toml", `
version = 1
[preferences]
enabled = false
mode = "allKeys"
position = "topRight"
click_effects = false
hotkey = "ctrl+shift+k"
[overlay]
tick_interval_ms = 50
`},
		{"json", "config.json", `{
  "version": 1,
  "preferences": {"enabled": false, "mode": "allKeys", "position": "topRight", "click_effects": false, "hotkey": "ctrl+shift+k"},
  "overlay": {"tick_interval_ms": 50}
}`},
		{"yaml", "config.yaml", `
version: 1
preferences:
  enabled: false
  mode: allKeys
  position: topRight
  click_effects: false
  hotkey: ctrl+shift+k
overlay:
  tick_interval_ms: 50
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.False(t, cfg.Preferences.Enabled)
			assert.Equal(t, keys.ModeAllKeys, cfg.Preferences.Mode)
			assert.Equal(t, keys.TopRight, cfg.Preferences.Position)
			assert.False(t, cfg.Preferences.ClickEffects)
			assert.Equal(t, "ctrl+shift+k", cfg.Preferences.Hotkey)
			assert.Equal(t, 50*time.Millisecond, cfg.TickInterval())
			assert.Equal(t, time.Second, cfg.KeyDwell(), "unset fields keep defaults")
		})
	}
}

func TestParseAutoDetect(t *testing.T) {
	cfg, err := Parse([]byte(`{"preferences": {"mode": "modifierOnly"}}`), ".conf")
	require.NoError(t, err)
	assert.Equal(t, keys.ModeModifierOnly, cfg.Preferences.Mode)
	assert.True(t, cfg.Preferences.Enabled, "defaults survive a failed TOML attempt")
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[preferences\nmode = "), 0600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PRESSVIZ_ENABLED", "false")
	t.Setenv("PRESSVIZ_MODE", "allKeys")
	t.Setenv("PRESSVIZ_POSITION", "center")
	t.Setenv("PRESSVIZ_CLICK_EFFECTS", "0")
	t.Setenv("PRESSVIZ_HOTKEY", "")
	t.Setenv("PRESSVIZ_TICK_INTERVAL_MS", "not-a-number")
	t.Setenv("PRESSVIZ_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()
	assert.False(t, cfg.Preferences.Enabled)
	assert.Equal(t, keys.ModeAllKeys, cfg.Preferences.Mode)
	assert.Equal(t, keys.Center, cfg.Preferences.Position)
	assert.False(t, cfg.Preferences.ClickEffects)
	assert.Empty(t, cfg.Preferences.Hotkey, "set but empty disables the hotkey")
	assert.Equal(t, 100, cfg.Overlay.TickIntervalMs)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

// =============================================================================
// Tests for validation
// =============================================================================

func TestValidateFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad mode", func(c *Config) { c.Preferences.Mode = "everything" }, "preferences.mode"},
		{"bad position", func(c *Config) { c.Preferences.Position = "left" }, "preferences.position"},
		{"tick too fast", func(c *Config) { c.Overlay.TickIntervalMs = 5 }, "overlay.tick_interval_ms"},
		{"tick too slow", func(c *Config) { c.Overlay.TickIntervalMs = 5000 }, "overlay.tick_interval_ms"},
		{"zero dwell", func(c *Config) { c.Overlay.KeyDwellMs = 0 }, "overlay.key_dwell_ms"},
		{"zero expiry", func(c *Config) { c.Overlay.ClickExpiryMs = 0 }, "overlay.click_expiry_ms"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad output", func(c *Config) { c.Logging.Output = "syslog" }, "logging.output"},
		{"file without path", func(c *Config) {
			c.Logging.Output = "file"
			c.Logging.FilePath = ""
		}, "logging.file_path"},
		{"empty display", func(c *Config) { c.Displays = []DisplayConfig{{ID: "a"}} }, "displays[0]"},
		{"two primaries", func(c *Config) {
			c.Displays = []DisplayConfig{
				{ID: "a", Width: 1, Height: 1, Primary: true},
				{ID: "b", Width: 1, Height: 1, Primary: true},
			}
		}, "displays"},
		{"version", func(c *Config) { c.Version = 99 }, "version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Contains(t, verrs.Fields(), tt.field)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestSchemaRejectsBadHotkey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Preferences.Hotkey = "ctrl+ +k"
	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"schema"}, verrs.Fields())
}

func TestValidateJSON(t *testing.T) {
	data, err := Encode(DefaultConfig(), ".json")
	require.NoError(t, err)
	assert.NoError(t, ValidateJSON(data))

	assert.Error(t, ValidateJSON([]byte(`{"version": 1, "preferences": {"mode": "x"}}`)))
}

// =============================================================================
// Tests for conversion helpers
// =============================================================================

func TestTopologyFlipsToBottomLeft(t *testing.T) {
	cfg := DefaultConfig()
	assert.Nil(t, cfg.Topology())

	cfg.Displays = []DisplayConfig{
		{ID: "main", X: 0, Y: 0, Width: 1440, Height: 900, Primary: true, Scale: 2},
		{ID: "above", X: 0, Y: -800, Width: 1280, Height: 800},
		{X: 1440, Y: 0, Width: 1920, Height: 1080},
	}
	topo := cfg.Topology()
	require.Len(t, topo, 3)

	assert.Equal(t, 0.0, topo[0].Frame.Y)
	assert.Equal(t, 900.0, topo[1].Frame.Y)
	assert.Equal(t, -180.0, topo[2].Frame.Y)
	assert.Equal(t, "display-3", topo[2].ID)
	assert.Equal(t, 1.0, topo[2].Scale)
	assert.Equal(t, "main", topo.Primary().ID)
}

func TestLoggerConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"
	cfg.Logging.ShowKeyText = true

	lc, err := cfg.LoggerConfig()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)
	assert.True(t, lc.ShowKeyText)
	assert.Equal(t, int64(10), lc.MaxSize)
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Displays = []DisplayConfig{{ID: "a", Width: 1, Height: 1}}
	clone := cfg.Clone()
	clone.Displays[0].ID = "b"
	clone.Preferences.Enabled = false
	assert.Equal(t, "a", cfg.Displays[0].ID)
	assert.True(t, cfg.Preferences.Enabled)
}

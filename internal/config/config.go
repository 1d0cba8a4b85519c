// Package config handles toastd configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/toastd/internal/model"
)

// Config is the configuration for toastd.
// Loaded from $XDG_CONFIG_HOME/toastd/toastd.toml.
type Config struct {
	Defaults  DefaultsConfig  `toml:"defaults"`
	Behavior  BehaviorConfig  `toml:"behavior"`
	Layout    LayoutConfig    `toml:"layout"`
	Audio     AudioConfig     `toml:"audio"`
	DBus      DBusConfig      `toml:"dbus"`
	Clipboard ClipboardConfig `toml:"clipboard"`
}

// DefaultsConfig holds the per-toast defaults a Show call falls back to.
type DefaultsConfig struct {
	Position     string   `toml:"position"`  // "top-right", "top-left", "bottom-right", "bottom-left", "center"
	Animation    string   `toml:"animation"` // Opaque tag passed to the renderer
	Theme        string   `toml:"theme"`     // "light", "dark" or a user theme name
	Duration     Duration `toml:"duration"`  // "3s", 3000, or 0 for persistent
	ShowProgress bool     `toml:"show_progress"`
	Template     string   `toml:"template"` // text/template, e.g. "{{.Title}}: {{.Content}}"
}

// BehaviorConfig holds dismissal and stacking behavior.
type BehaviorConfig struct {
	CloseOnEsc          bool `toml:"close_on_esc"`
	CloseOnClickOutside bool `toml:"close_on_click_outside"`
	MaxPerPosition      int  `toml:"max_per_position"`
}

// LayoutConfig holds placement hints for renderers.
type LayoutConfig struct {
	Spacing int `toml:"spacing"` // Cells from the screen edge
	Width   int `toml:"width"`   // Toast width in cells
	ZIndex  int `toml:"z_index"`
}

// AudioConfig contains audio settings.
type AudioConfig struct {
	Enabled bool        `toml:"enabled"`
	Volume  int         `toml:"volume"` // 0-100
	Sounds  SoundConfig `toml:"sounds"`
}

// SoundConfig contains per-type sound file paths.
type SoundConfig struct {
	Info    string `toml:"info"`
	Success string `toml:"success"`
	Warning string `toml:"warning"`
	Error   string `toml:"error"`
}

// DBusConfig controls the org.freedesktop.Notifications server.
type DBusConfig struct {
	Enabled         bool `toml:"enabled"`
	ReplaceExisting bool `toml:"replace_existing"` // Take the bus name from a running daemon
}

// ClipboardConfig holds clipboard settings (terminal board only).
type ClipboardConfig struct {
	Command string `toml:"command"` // Auto-detected if empty
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	opts := model.DefaultOptions()
	return &Config{
		Defaults: DefaultsConfig{
			Position:     string(opts.Position),
			Animation:    opts.Animation,
			Theme:        opts.Theme,
			Duration:     Duration(opts.Duration),
			ShowProgress: opts.ShowProgress,
		},
		Behavior: BehaviorConfig{
			CloseOnEsc:          opts.CloseOnEsc,
			CloseOnClickOutside: opts.CloseOnClickOutside,
			MaxPerPosition:      opts.MaxPerPosition,
		},
		Layout: LayoutConfig{
			Spacing: opts.Layout.Spacing,
			Width:   opts.Layout.Width,
			ZIndex:  opts.Layout.ZIndex,
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  80,
		},
		DBus: DBusConfig{
			Enabled: true,
		},
	}
}

// ConfigDir returns the toastd configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "toastd")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "toastd.toml")
}

// ThemesDir returns the directory user theme files are loaded from.
func ThemesDir() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "themes")
}

// Load loads configuration from path, overlaying it on the defaults.
// If path is empty the default path is used. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path atomically.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := model.ParsePosition(c.Defaults.Position); err != nil {
		return fmt.Errorf("invalid position %q, must be one of: %v", c.Defaults.Position, model.ValidPositions())
	}
	if c.Defaults.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %s", c.Defaults.Duration.Duration())
	}
	if _, err := model.ParseTemplate(c.Defaults.Template); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	if c.Behavior.MaxPerPosition < 1 || c.Behavior.MaxPerPosition > 50 {
		return fmt.Errorf("max_per_position must be between 1 and 50, got %d", c.Behavior.MaxPerPosition)
	}

	if c.Layout.Width < 10 || c.Layout.Width > 200 {
		return fmt.Errorf("width must be between 10 and 200, got %d", c.Layout.Width)
	}
	if c.Layout.Spacing < 0 {
		return fmt.Errorf("spacing must not be negative, got %d", c.Layout.Spacing)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	return nil
}

// Options converts the configuration into controller defaults.
// Hooks are left unset for the caller to wire.
func (c *Config) Options() (model.Options, error) {
	pos, err := model.ParsePosition(c.Defaults.Position)
	if err != nil {
		return model.Options{}, err
	}
	tmpl, err := model.ParseTemplate(c.Defaults.Template)
	if err != nil {
		return model.Options{}, err
	}

	return model.Options{
		Position:            pos,
		Animation:           c.Defaults.Animation,
		Theme:               c.Defaults.Theme,
		Duration:            max(c.Defaults.Duration.Duration(), time.Duration(0)),
		ShowProgress:        c.Defaults.ShowProgress,
		CloseOnEsc:          c.Behavior.CloseOnEsc,
		CloseOnClickOutside: c.Behavior.CloseOnClickOutside,
		MaxPerPosition:      c.Behavior.MaxPerPosition,
		Layout: model.Layout{
			Spacing: c.Layout.Spacing,
			Width:   c.Layout.Width,
			ZIndex:  c.Layout.ZIndex,
		},
		Template: tmpl,
	}, nil
}

// SoundFor returns the sound file path for the given toast type.
// Expands ~ to the home directory.
func (c *Config) SoundFor(typ model.Type) string {
	var path string
	switch typ {
	case model.TypeSuccess:
		path = c.Audio.Sounds.Success
	case model.TypeWarning:
		path = c.Audio.Sounds.Warning
	case model.TypeError:
		path = c.Audio.Sounds.Error
	default:
		path = c.Audio.Sounds.Info
	}
	return ExpandPath(path)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

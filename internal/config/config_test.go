package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "top-right", cfg.Defaults.Position)
	assert.Equal(t, "scale-up", cfg.Defaults.Animation)
	assert.Equal(t, "light", cfg.Defaults.Theme)
	assert.Equal(t, 3*time.Second, cfg.Defaults.Duration.Duration())
	assert.True(t, cfg.Defaults.ShowProgress)
	assert.True(t, cfg.Behavior.CloseOnEsc)
	assert.True(t, cfg.Behavior.CloseOnClickOutside)
	assert.Equal(t, 5, cfg.Behavior.MaxPerPosition)
	assert.True(t, cfg.DBus.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/toastd.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toastd.toml")

	content := `
[defaults]
position = "bottom-left"
theme = "dark"
duration = "5s"
show_progress = false
template = "{{.Title}}: {{.Content}}"

[behavior]
close_on_esc = false
max_per_position = 2

[layout]
spacing = 2
width = 60

[audio]
enabled = false
volume = 30

[audio.sounds]
error = "/usr/share/sounds/error.ogg"

[dbus]
replace_existing = true

[clipboard]
command = "wl-copy --primary"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bottom-left", cfg.Defaults.Position)
	assert.Equal(t, "dark", cfg.Defaults.Theme)
	assert.Equal(t, 5*time.Second, cfg.Defaults.Duration.Duration())
	assert.False(t, cfg.Defaults.ShowProgress)
	assert.False(t, cfg.Behavior.CloseOnEsc)
	assert.True(t, cfg.Behavior.CloseOnClickOutside)
	assert.Equal(t, 2, cfg.Behavior.MaxPerPosition)
	assert.Equal(t, 2, cfg.Layout.Spacing)
	assert.Equal(t, 60, cfg.Layout.Width)
	assert.False(t, cfg.Audio.Enabled)
	assert.Equal(t, 30, cfg.Audio.Volume)
	assert.Equal(t, "/usr/share/sounds/error.ogg", cfg.SoundFor(model.TypeError))
	assert.Equal(t, "", cfg.SoundFor(model.TypeInfo))
	assert.True(t, cfg.DBus.Enabled)
	assert.True(t, cfg.DBus.ReplaceExisting)
	assert.Equal(t, "wl-copy --primary", cfg.Clipboard.Command)
}

func TestDuration_Milliseconds(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1500")))
	assert.Equal(t, 1500*time.Millisecond, d.Duration())

	require.NoError(t, d.UnmarshalText([]byte("0")))
	assert.Equal(t, time.Duration(0), d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("soon")))

	out, err := Duration(2 * time.Second).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2s", string(out))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", `this is not valid toml [`},
		{"bad position", "[defaults]\nposition = \"middle\"\n"},
		{"bad duration", "[defaults]\nduration = \"forever\"\n"},
		{"negative duration", "[defaults]\nduration = \"-1s\"\n"},
		{"bad template", "[defaults]\ntemplate = \"{{.Title\"\n"},
		{"zero capacity", "[behavior]\nmax_per_position = 0\n"},
		{"loud", "[audio]\nvolume = 150\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "toastd.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "toastd.toml")

	cfg := DefaultConfig()
	cfg.Defaults.Position = "center"
	cfg.Defaults.Duration = Duration(0)
	cfg.Behavior.MaxPerPosition = 7

	require.NoError(t, cfg.Save(path))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Defaults.Position = "bottom-right"
	cfg.Defaults.Duration = Duration(0)
	cfg.Defaults.Template = "{{.Content | upper}}"
	cfg.Behavior.MaxPerPosition = 3
	cfg.Layout.Width = 50

	opts, err := cfg.Options()
	require.NoError(t, err)

	assert.Equal(t, model.PositionBottomRight, opts.Position)
	assert.Equal(t, time.Duration(0), opts.Duration)
	assert.Equal(t, 3, opts.MaxPerPosition)
	assert.Equal(t, 50, opts.Layout.Width)
	require.NotNil(t, opts.Template)

	out, err := opts.Template.Execute(model.TemplateData{Content: "disk full"})
	require.NoError(t, err)
	assert.Equal(t, "DISK FULL", out)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/toastd/toastd.toml", ConfigPath())
	assert.Equal(t, "/custom/config/toastd/themes", ThemesDir())
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, "/home/tester/sounds/ping.wav", ExpandPath("~/sounds/ping.wav"))
	assert.Equal(t, "/abs/ping.wav", ExpandPath("/abs/ping.wav"))
}

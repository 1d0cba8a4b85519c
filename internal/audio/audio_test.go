package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/model"
)

type fakeSink struct {
	played    []string
	preloaded []string
	volume    float64
	cleared   int
	closed    bool
}

func (f *fakeSink) Play(path string) error    { f.played = append(f.played, path); return nil }
func (f *fakeSink) Preload(path string) error { f.preloaded = append(f.preloaded, path); return nil }
func (f *fakeSink) SetVolume(v float64)       { f.volume = v }
func (f *fakeSink) ClearCache()               { f.cleared++ }
func (f *fakeSink) Close()                    { f.closed = true }

func TestManager_PlayFor(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audio.Volume = 50
	cfg.Audio.Sounds.Error = "/sounds/error.ogg"

	sink := &fakeSink{}
	m := newManager(cfg, sink, nil)

	assert.InDelta(t, 0.5, sink.volume, 0.001)

	require.NoError(t, m.PlayFor(model.TypeError))
	require.NoError(t, m.PlayFor(model.TypeInfo))
	assert.Equal(t, []string{"/sounds/error.ogg"}, sink.played)

	m.Preload()
	assert.Equal(t, []string{"/sounds/error.ogg"}, sink.preloaded)
}

func TestManager_Disabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = false
	cfg.Audio.Sounds.Info = "/sounds/info.wav"

	sink := &fakeSink{}
	m := newManager(cfg, sink, nil)

	require.NoError(t, m.PlayFor(model.TypeInfo))
	require.NoError(t, m.PlayFile("/sounds/other.wav"))
	m.Preload()
	assert.Empty(t, sink.played)
	assert.Empty(t, sink.preloaded)
}

func TestManager_UpdateConfig(t *testing.T) {
	sink := &fakeSink{}
	m := newManager(nil, sink, nil)

	require.NoError(t, m.PlayFor(model.TypeWarning))
	assert.Empty(t, sink.played)

	cfg := config.DefaultConfig()
	cfg.Audio.Sounds.Warning = "/sounds/warn.mp3"
	m.UpdateConfig(cfg)

	require.NoError(t, m.PlayFor(model.TypeWarning))
	assert.Equal(t, []string{"/sounds/warn.mp3"}, sink.played)
	assert.Equal(t, 1, sink.cleared)

	m.Stop()
	assert.True(t, sink.closed)
}

func TestPlayer_Errors(t *testing.T) {
	p := NewPlayer(nil)

	assert.NoError(t, p.Play(""))

	err := p.Play("/tmp/sound.flac")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported audio format")

	err = p.Play(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("not a wav"), 0644))
	assert.Error(t, p.Preload(garbage))
	assert.False(t, p.Cached(garbage))
}

func TestPlayer_Volume(t *testing.T) {
	p := NewPlayer(nil)

	p.SetVolume(2)
	assert.Equal(t, 1.0, p.Volume())
	p.SetVolume(-1)
	assert.Equal(t, 0.0, p.Volume())

	assert.Equal(t, -100.0, volumeToDecibels(0))
	assert.InDelta(t, -6.02, volumeToDecibels(0.5), 0.01)
	assert.InDelta(t, 0, volumeToDecibels(1), 0.0001)
}

func TestSupportedFormat(t *testing.T) {
	assert.True(t, SupportedFormat(".WAV"))
	assert.True(t, SupportedFormat(".ogg"))
	assert.True(t, SupportedFormat(".mp3"))
	assert.False(t, SupportedFormat(".flac"))
}

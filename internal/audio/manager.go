package audio

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/model"
)

// sink is the playback side of a Player.
type sink interface {
	Play(path string) error
	Preload(path string) error
	SetVolume(volume float64)
	ClearCache()
	Close()
}

// Manager plays toast sounds according to the [audio] configuration.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  sink
	enabled bool
	sounds  map[model.Type]string
}

// NewManager creates a manager backed by a speaker Player.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return newManager(cfg, NewPlayer(logger), logger)
}

func newManager(cfg *config.Config, player sink, logger *slog.Logger) *Manager {
	m := &Manager{
		logger: logger,
		player: player,
		sounds: make(map[model.Type]string),
	}
	m.apply(cfg)
	return m
}

func (m *Manager) apply(cfg *config.Config) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	sounds := make(map[model.Type]string)
	for _, typ := range []model.Type{model.TypeInfo, model.TypeSuccess, model.TypeWarning, model.TypeError} {
		if path := cfg.SoundFor(typ); path != "" {
			sounds[typ] = path
		}
	}

	m.mu.Lock()
	m.enabled = cfg.Audio.Enabled
	m.sounds = sounds
	m.mu.Unlock()

	m.player.SetVolume(float64(cfg.Audio.Volume) / 100.0)
}

// Preload decodes every configured sound so the first toast plays promptly.
func (m *Manager) Preload() {
	m.mu.RLock()
	paths := make([]string, 0, len(m.sounds))
	for _, p := range m.sounds {
		paths = append(paths, p)
	}
	enabled := m.enabled
	m.mu.RUnlock()

	if !enabled {
		return
	}
	for _, path := range paths {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound", "path", path, "error", err)
		}
	}
	m.logger.Debug("audio sounds preloaded", "sounds", len(paths))
}

// PlayFor plays the sound configured for a toast type, if any.
func (m *Manager) PlayFor(typ model.Type) error {
	m.mu.RLock()
	enabled := m.enabled
	path, ok := m.sounds[typ]
	m.mu.RUnlock()

	if !enabled || !ok {
		return nil
	}
	return m.player.Play(path)
}

// PlayFile plays a specific sound file, such as the source of audio content.
func (m *Manager) PlayFile(path string) error {
	m.mu.RLock()
	enabled := m.enabled
	m.mu.RUnlock()

	if !enabled {
		return nil
	}
	return m.player.Play(config.ExpandPath(path))
}

// UpdateConfig applies a reloaded configuration and drops cached sounds.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.player.ClearCache()
	m.apply(cfg)
	m.logger.Debug("audio manager config updated")
}

// Stop releases the speaker.
func (m *Manager) Stop() {
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}

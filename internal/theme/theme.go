package theme

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/toastd/internal/model"
)

// Accents holds the per-type highlight colours.
type Accents struct {
	Info    string `toml:"info"`
	Success string `toml:"success"`
	Warning string `toml:"warning"`
	Error   string `toml:"error"`
}

// Palette is the colour set a theme file defines. Colours are anything
// lipgloss.Color accepts: "#rrggbb" or an ANSI index like "12".
type Palette struct {
	Foreground string  `toml:"foreground"`
	Background string  `toml:"background"`
	Muted      string  `toml:"muted"`
	Border     string  `toml:"border"`
	Accents    Accents `toml:"accents"`
}

// Theme is a named palette.
type Theme struct {
	Name    string
	Path    string // Empty for bundled themes
	Palette Palette
	Bundled bool
}

// Parse decodes a theme file.
func Parse(name string, data []byte) (*Theme, error) {
	var p Palette
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse theme %q: %w", name, err)
	}
	if p.Foreground == "" || p.Accents.Info == "" {
		return nil, fmt.Errorf("theme %q must set foreground and accents.info", name)
	}
	return &Theme{Name: name, Palette: p}, nil
}

// Accent returns the highlight colour for a toast type.
func (t *Theme) Accent(typ model.Type) lipgloss.Color {
	a := t.Palette.Accents
	var c string
	switch typ {
	case model.TypeSuccess:
		c = a.Success
	case model.TypeWarning:
		c = a.Warning
	case model.TypeError:
		c = a.Error
	}
	if c == "" {
		c = a.Info
	}
	return lipgloss.Color(c)
}

// Box returns the style for a toast body of the given type and width.
func (t *Theme) Box(typ model.Type, width int) lipgloss.Style {
	s := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Accent(typ)).
		Foreground(lipgloss.Color(t.Palette.Foreground)).
		Padding(0, 1)
	if t.Palette.Background != "" {
		s = s.Background(lipgloss.Color(t.Palette.Background))
	}
	if width > 0 {
		s = s.Width(width)
	}
	return s
}

// Closing returns the style for a toast that is on its way out.
func (t *Theme) Closing(width int) lipgloss.Style {
	return t.Box(model.TypeInfo, width).
		BorderForeground(lipgloss.Color(t.Palette.Border)).
		Foreground(lipgloss.Color(t.Palette.Muted)).
		Faint(true)
}

// Title returns the style for a toast title.
func (t *Theme) Title(typ model.Type) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Accent(typ))
}

// Muted returns the style for secondary text.
func (t *Theme) Muted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Palette.Muted))
}

// Set resolves theme names to themes. User themes override bundled ones of
// the same name.
type Set struct {
	mu     sync.RWMutex
	logger *slog.Logger
	dir    string
	themes map[string]*Theme
}

// NewSet loads the bundled themes and any user themes found in dir.
// dir may be empty.
func NewSet(dir string, logger *slog.Logger) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Set{logger: logger, dir: dir}
	s.Reload()
	return s
}

// Reload re-reads every theme. A user theme that fails to parse is logged
// and skipped.
func (s *Set) Reload() {
	themes := make(map[string]*Theme)

	for _, name := range ListEmbeddedThemes() {
		data, _ := GetEmbeddedTheme(name)
		t, err := Parse(name, data)
		if err != nil {
			s.logger.Error("bundled theme is invalid", "theme", name, "error", err)
			continue
		}
		t.Bundled = true
		themes[name] = t
	}

	if s.dir != "" {
		entries, err := os.ReadDir(s.dir)
		if err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to read themes directory", "path", s.dir, "error", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ".toml")
			path := filepath.Join(s.dir, entry.Name())

			data, err := os.ReadFile(path)
			if err != nil {
				s.logger.Warn("failed to read theme", "path", path, "error", err)
				continue
			}
			t, err := Parse(name, data)
			if err != nil {
				s.logger.Warn("failed to load user theme", "path", path, "error", err)
				continue
			}
			t.Path = path
			themes[name] = t
			s.logger.Debug("loaded user theme", "name", name, "path", path)
		}
	}

	s.mu.Lock()
	s.themes = themes
	s.mu.Unlock()
}

// Get returns the named theme, falling back to the default theme.
func (s *Set) Get(name string) *Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.themes[name]; ok {
		return t
	}
	return s.themes[DefaultThemeName]
}

// Names returns every known theme name, sorted.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.themes))
	for name := range s.themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

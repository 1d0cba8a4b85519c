package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/toastd/internal/input"
)

type redrawMsg struct{}

type copyResultMsg struct {
	err error
}

// Model is the BubbleTea model driving a Board.
type Model struct {
	board *Board
	keys  KeyMap
	help  help.Model

	width  int
	height int
	status string
}

// NewModel creates the program model for b.
func NewModel(b *Board) Model {
	return Model{
		board: b,
		keys:  DefaultKeyMap(),
		help:  help.New(),
	}
}

// Init starts listening for redraw requests.
func (m Model) Init() tea.Cmd {
	return m.board.waitForRedraw
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case redrawMsg:
		return m, m.board.waitForRedraw

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && !msg.IsWheel() {
			m.board.press(msg.X, msg.Y, msg.Button.String())
		}
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = "Copied to clipboard"
		}
		return m, nil
	}

	return m, nil
}

// handleKey handles key presses. Escape and enter go to the input hub;
// the controller decides what they mean.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		text := m.board.newestBody()
		if text == "" {
			return m, nil
		}
		command := m.board.clipboardCommand()
		return m, func() tea.Msg {
			return copyResultMsg{err: copyText(text, command)}
		}
	}

	if m.board.hub != nil {
		m.board.hub.PublishKey(input.Key(msg.String()))
	}
	return m, nil
}

// View renders the board above the help line.
func (m Model) View() string {
	footer := m.help.View(m.keys)
	if m.status != "" {
		footer += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.status)
	}

	height := m.height
	if height > 0 {
		height = max(height-lipgloss.Height(footer), 1)
	}
	return m.board.View(m.width, height) + "\n" + footer
}

// Run runs the board full screen until ctx is cancelled or the user quits.
func (b *Board) Run(ctx context.Context) error {
	defer b.Close()

	p := tea.NewProgram(NewModel(b),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	b.logger.Debug("terminal board started")
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/clock"
	"github.com/jmylchreest/toastd/internal/input"
	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/toast"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type boardHarness struct {
	clock *clock.Fake
	hub   *input.Hub
	board *Board
	ctrl  *toast.Controller
}

func newBoardHarness(t *testing.T, modify func(*model.Options)) *boardHarness {
	t.Helper()

	opts := model.DefaultOptions()
	if modify != nil {
		modify(&opts)
	}

	h := &boardHarness{
		clock: clock.NewFake(testStart),
		hub:   input.NewHub(nil),
	}
	h.board = NewBoard(h.hub, nil, WithNow(h.clock.Now))
	h.ctrl = toast.New(h.board, opts,
		toast.WithClock(h.clock),
		toast.WithKeySource(h.hub),
		toast.WithPointerSource(h.hub),
	)
	t.Cleanup(h.board.Close)
	return h
}

func (h *boardHarness) state(handle toast.Handle) string {
	a, ok := h.ctrl.Lookup(handle)
	if !ok {
		return "removed"
	}
	return a.State
}

func (h *boardHarness) hitFor(t *testing.T, handle toast.Handle) hitBox {
	t.Helper()
	h.board.mu.Lock()
	defer h.board.mu.Unlock()
	for _, hb := range h.board.hits {
		if hb.widget.id == handle.ID() {
			return hb
		}
	}
	t.Fatalf("no hit box for %s", handle.ID())
	return hitBox{}
}

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}
}

func TestBoard_DrawsStacksAtAnchors(t *testing.T) {
	h := newBoardHarness(t, nil)

	_, err := h.ctrl.Show(model.Spec{Title: "Build", Content: "passed", Position: model.PositionTopLeft}.WithDuration(0))
	require.NoError(t, err)
	_, err = h.ctrl.Show(model.Spec{Title: "Deploy", Content: "done", Position: model.PositionBottomRight}.WithDuration(0))
	require.NoError(t, err)
	_, err = h.ctrl.Show(model.Spec{Title: "Center", Content: "middle", Position: model.PositionCenter}.WithDuration(0))
	require.NoError(t, err)

	out := h.board.View(120, 40)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 40)

	var buildLine, deployLine, centerLine int
	for i, line := range lines {
		switch {
		case strings.Contains(line, "Build"):
			buildLine = i
		case strings.Contains(line, "Deploy"):
			deployLine = i
		case strings.Contains(line, "Center"):
			centerLine = i
		}
	}
	assert.Less(t, buildLine, centerLine)
	assert.Less(t, centerLine, deployLine)
	assert.Less(t, strings.Index(lines[buildLine], "Build"), 10)
	assert.Greater(t, strings.Index(lines[deployLine], "Deploy"), 60)
	assert.Contains(t, out, "×")
	assert.Equal(t, 3, h.board.Len())
}

func TestBoard_ContainerLifecycle(t *testing.T) {
	h := newBoardHarness(t, nil)

	handle, err := h.ctrl.Show(model.Spec{Content: "x"}.WithDuration(0))
	require.NoError(t, err)

	h.board.mu.Lock()
	_, ok := h.board.stacks[model.PositionTopRight]
	h.board.mu.Unlock()
	require.True(t, ok)

	h.ctrl.Close(handle)
	assert.Equal(t, 1, h.board.Len())

	h.clock.Advance(toast.DefaultGrace)
	assert.Equal(t, 0, h.board.Len())

	h.board.mu.Lock()
	_, ok = h.board.stacks[model.PositionTopRight]
	h.board.mu.Unlock()
	assert.False(t, ok)
}

func TestBoard_CloseButtonDismisses(t *testing.T) {
	var reasons []string
	h := newBoardHarness(t, func(o *model.Options) {
		o.OnClose = func(a model.Active) { reasons = append(reasons, a.CloseReason) }
	})

	keep, err := h.ctrl.Show(model.Spec{Title: "keep", Content: "x"}.WithDuration(0))
	require.NoError(t, err)
	target, err := h.ctrl.Show(model.Spec{Title: "target", Content: "y"}.WithDuration(0))
	require.NoError(t, err)

	m := NewModel(h.board)
	_ = m.View()

	hb := h.hitFor(t, target)
	_, _ = m.Update(press(hb.x+hb.w-3, hb.y+1))

	assert.Equal(t, "closing", h.state(target))
	assert.Equal(t, "active", h.state(keep))
	assert.Equal(t, []string{"dismissed"}, reasons)
}

func TestBoard_ClickOnToastRunsHook(t *testing.T) {
	var clicks []model.ClickEvent
	h := newBoardHarness(t, nil)

	spec := model.Spec{Title: "click me", Content: "body"}.WithDuration(0)
	spec.OnClick = func(ev model.ClickEvent, _ model.Active) { clicks = append(clicks, ev) }
	handle, err := h.ctrl.Show(spec)
	require.NoError(t, err)

	m := NewModel(h.board)
	_ = m.View()

	hb := h.hitFor(t, handle)
	_, _ = m.Update(press(hb.x+2, hb.y+2))

	require.Len(t, clicks, 1)
	assert.Equal(t, model.ClickEvent{X: 2, Y: 2, Button: "left"}, clicks[0])
	assert.Equal(t, "active", h.state(handle))
}

func TestBoard_ClickOutsideClosesAll(t *testing.T) {
	h := newBoardHarness(t, nil)

	a, err := h.ctrl.Show(model.Spec{Content: "a"}.WithDuration(0))
	require.NoError(t, err)
	b, err := h.ctrl.Show(model.Spec{Content: "b", Position: model.PositionBottomLeft}.WithDuration(0))
	require.NoError(t, err)

	m := NewModel(h.board)
	_ = m.View()
	_, _ = m.Update(press(40, 12))

	assert.Equal(t, "closing", h.state(a))
	assert.Equal(t, "closing", h.state(b))
}

func TestBoard_EscapePublishesToHub(t *testing.T) {
	h := newBoardHarness(t, nil)

	handle, err := h.ctrl.Show(model.Spec{Content: "a"}.WithDuration(0))
	require.NoError(t, err)

	m := NewModel(h.board)
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "active", h.state(handle))

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "closing", h.state(handle))
}

func TestBoard_QuitAndHelp(t *testing.T) {
	h := newBoardHarness(t, nil)
	m := NewModel(h.board)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.Nil(t, cmd)
	assert.True(t, next.(Model).help.ShowAll)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestBoard_ProgressAndRedrawNeverBlock(t *testing.T) {
	h := newBoardHarness(t, func(o *model.Options) {
		o.Duration = time.Second
	})

	handle, err := h.ctrl.Show(model.Spec{Content: "counting"})
	require.NoError(t, err)

	// Many frames with nobody draining the redraw channel.
	h.clock.Advance(500 * time.Millisecond)
	assert.LessOrEqual(t, len(h.board.redraw), 1)

	h.board.mu.Lock()
	var remaining float64
	for _, s := range h.board.stacks {
		for _, w := range s.widgets {
			if w.id == handle.ID() {
				remaining = w.remaining
			}
		}
	}
	h.board.mu.Unlock()
	assert.InDelta(t, 0.5, remaining, 0.001)

	msg := h.board.waitForRedraw()
	assert.Equal(t, redrawMsg{}, msg)

	h.board.Close()
	assert.Nil(t, h.board.waitForRedraw())
}

func TestBoard_RenderFailure(t *testing.T) {
	h := newBoardHarness(t, nil)

	_, err := h.ctrl.Show(model.Spec{ContentType: model.ContentCustom, Custom: 3.14})
	assert.ErrorIs(t, err, toast.ErrRenderFailure)
	assert.Equal(t, 0, h.board.Len())
}

func TestBoard_NewestBody(t *testing.T) {
	h := newBoardHarness(t, nil)
	assert.Equal(t, "", h.board.newestBody())

	_, err := h.ctrl.Show(model.Spec{Content: "first"}.WithDuration(0))
	require.NoError(t, err)
	last, err := h.ctrl.Show(model.Spec{Content: "second", Position: model.PositionCenter}.WithDuration(0))
	require.NoError(t, err)
	assert.Equal(t, "second", h.board.newestBody())

	h.ctrl.Close(last)
	assert.Equal(t, "first", h.board.newestBody())
}

func TestBoard_CopyUsesConfiguredCommand(t *testing.T) {
	h := newBoardHarness(t, nil)
	_, err := h.ctrl.Show(model.Spec{Content: "copy me"}.WithDuration(0))
	require.NoError(t, err)

	h.board.SetClipboardCommand("true")
	assert.Equal(t, "true", h.board.clipboardCommand())

	m := NewModel(h.board)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	require.NotNil(t, cmd)
	msg, ok := cmd().(copyResultMsg)
	require.True(t, ok)
	assert.NoError(t, msg.err)

	h.board.SetClipboardCommand("toastd-no-such-clipboard-tool")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	require.NotNil(t, cmd)
	msg, ok = cmd().(copyResultMsg)
	require.True(t, ok)
	assert.Error(t, msg.err)
}

func TestWithClipboardCommand(t *testing.T) {
	b := NewBoard(nil, nil, WithClipboardCommand("xclip -selection clipboard"))
	assert.Equal(t, "xclip -selection clipboard", b.clipboardCommand())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "he...", truncate("hello world", 5))
	assert.Equal(t, "hel", truncate("hello", 3))
	assert.Equal(t, "", truncate("hello", 0))
}

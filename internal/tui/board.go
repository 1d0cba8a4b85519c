package tui

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toastd/internal/input"
	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/render"
	"github.com/jmylchreest/toastd/internal/theme"
	"github.com/jmylchreest/toastd/internal/toast"
)

// Default terminal size used before the first WindowSizeMsg.
const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Board is a terminal toast.Renderer. It only records state and asks for
// a redraw; drawing happens on the BubbleTea goroutine, so widget calls
// never block the controller.
type Board struct {
	mu     sync.Mutex
	logger *slog.Logger
	themes *theme.Set
	hub    *input.Hub
	now    func() time.Time

	redraw    chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	stacks    map[model.Position]*stack
	seq       uint64
	hits      []hitBox
	clipboard string
}

// stack is the board's view of one toast.Container.
type stack struct {
	serial    uint64
	placement toast.Placement
	widgets   []*widget
}

// hitBox is where a toast was last drawn, in cells.
type hitBox struct {
	x, y, w, h int
	widget     *widget
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithThemes sets the theme set toasts are styled from.
func WithThemes(s *theme.Set) BoardOption {
	return func(b *Board) {
		b.themes = s
	}
}

// WithNow sets the time source used for relative timestamps.
func WithNow(now func() time.Time) BoardOption {
	return func(b *Board) {
		b.now = now
	}
}

// WithClipboardCommand sets the command the copy key pipes text into.
// Empty means auto-detect.
func WithClipboardCommand(command string) BoardOption {
	return func(b *Board) {
		b.clipboard = command
	}
}

// NewBoard creates a board publishing input to hub.
func NewBoard(hub *input.Hub, logger *slog.Logger, opts ...BoardOption) *Board {
	if logger == nil {
		logger = slog.Default()
	}

	b := &Board{
		logger: logger,
		hub:    hub,
		now:    time.Now,
		redraw: make(chan struct{}, 1),
		done:   make(chan struct{}),
		stacks: make(map[model.Position]*stack),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.themes == nil {
		b.themes = theme.NewSet("", logger)
	}
	return b
}

// SetClipboardCommand replaces the clipboard command, e.g. after a config
// reload.
func (b *Board) SetClipboardCommand(command string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clipboard = command
}

func (b *Board) clipboardCommand() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clipboard
}

// Render implements toast.Renderer.
func (b *Board) Render(req toast.RenderRequest) (toast.Widget, error) {
	body, err := render.Body(req)
	if err != nil {
		return nil, err
	}

	th := b.themes.Get(req.Theme)
	width := req.Layout.Width
	if width <= 0 {
		width = model.DefaultOptions().Layout.Width
	}

	return &widget{
		board:      b,
		id:         req.ID,
		typ:        req.Type,
		title:      req.Title,
		body:       body,
		theme:      th,
		width:      width,
		persistent: req.Duration == 0,
		createdAt:  b.now(),
		bar: progress.New(
			progress.WithSolidFill(string(th.Accent(req.Type))),
			progress.WithoutPercentage(),
			progress.WithWidth(max(width-2, 1)),
		),
	}, nil
}

// ContainerCreated implements toast.ContainerObserver.
func (b *Board) ContainerCreated(c *toast.Container) {
	b.mu.Lock()
	b.stacks[c.Position()] = &stack{serial: c.Serial(), placement: c.Placement()}
	b.mu.Unlock()

	b.requestRedraw()
}

// ContainerReleased implements toast.ContainerObserver.
func (b *Board) ContainerReleased(c *toast.Container) {
	b.mu.Lock()
	if s, ok := b.stacks[c.Position()]; ok && s.serial == c.Serial() {
		delete(b.stacks, c.Position())
	}
	b.mu.Unlock()

	b.requestRedraw()
}

// requestRedraw asks the program to redraw without ever blocking.
func (b *Board) requestRedraw() {
	select {
	case b.redraw <- struct{}{}:
	default:
	}
}

// waitForRedraw is a tea.Cmd that returns once a redraw is requested.
func (b *Board) waitForRedraw() tea.Msg {
	select {
	case <-b.redraw:
		return redrawMsg{}
	case <-b.done:
		return nil
	}
}

// Close stops the redraw loop.
func (b *Board) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// Len returns the number of toasts on the board, closing ones included.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, s := range b.stacks {
		n += len(s.widgets)
	}
	return n
}

// newestBody returns the body of the most recently attached live toast.
func (b *Board) newestBody() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var newest *widget
	for _, s := range b.stacks {
		for _, w := range s.widgets {
			if !w.closing && (newest == nil || w.seq > newest.seq) {
				newest = w
			}
		}
	}
	if newest == nil {
		return ""
	}
	return newest.body
}

// press handles a mouse press at (x, y). It runs the handlers outside the
// board lock because they call back into the controller.
func (b *Board) press(x, y int, button string) {
	b.mu.Lock()
	var hit *hitBox
	for i := len(b.hits) - 1; i >= 0; i-- {
		h := b.hits[i]
		if x >= h.x && x < h.x+h.w && y >= h.y && y < h.y+h.h {
			hit = &h
			break
		}
	}

	var fn func()
	if hit != nil {
		w := hit.widget
		if closeButtonHit(*hit, x, y) && w.onDismiss != nil {
			fn = w.onDismiss
		} else if w.onClick != nil {
			onClick := w.onClick
			ev := model.ClickEvent{X: x - hit.x, Y: y - hit.y, Button: button}
			fn = func() { onClick(ev) }
		}
	}
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
	if b.hub != nil {
		b.hub.PublishPointer(input.Pointer{X: x, Y: y, Button: button, OnWidget: hit != nil})
	}
}

// closeButtonHit reports whether (x, y) is on the × drawn at the right of
// a toast's first content row.
func closeButtonHit(h hitBox, x, y int) bool {
	return y == h.y+1 && x >= h.x+h.w-4 && x <= h.x+h.w-2
}

// View lays out every stack in a width×height area and remembers where
// each toast landed for mouse hit-testing.
func (b *Board) View(width, height int) string {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	blocks := make(map[model.Position]*stackBlock, len(b.stacks))
	for pos, s := range b.stacks {
		if blk := s.render(now); blk != nil {
			blocks[pos] = blk
		}
	}

	leftW := width / 2
	rightW := width - leftW
	var hits []hitBox

	topH := max(blocks[model.PositionTopLeft].height(), blocks[model.PositionTopRight].height())
	bottomH := max(blocks[model.PositionBottomLeft].height(), blocks[model.PositionBottomRight].height())
	midH := max(height-topH-bottomH, 0)

	var rows []string

	if topH > 0 {
		tl, tr := blocks[model.PositionTopLeft], blocks[model.PositionTopRight]
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.PlaceHorizontal(leftW, lipgloss.Left, tl.content()),
			lipgloss.PlaceHorizontal(rightW, lipgloss.Right, tr.content()),
		))
		hits = append(hits, tl.hits(0, 0)...)
		hits = append(hits, tr.hits(leftW+max(rightW-tr.width(), 0), 0)...)
	}

	if midH > 0 {
		c := blocks[model.PositionCenter]
		rows = append(rows, lipgloss.Place(width, midH, lipgloss.Center, lipgloss.Center, c.content()))
		hits = append(hits, c.hits(max(width-c.width(), 0)/2, topH+max(midH-c.height(), 0)/2)...)
	}

	if bottomH > 0 {
		bl, br := blocks[model.PositionBottomLeft], blocks[model.PositionBottomRight]
		y := topH + midH
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Bottom,
			lipgloss.PlaceHorizontal(leftW, lipgloss.Left, bl.content()),
			lipgloss.PlaceHorizontal(rightW, lipgloss.Right, br.content()),
		))
		hits = append(hits, bl.hits(0, y+bottomH-bl.height())...)
		hits = append(hits, br.hits(leftW+max(rightW-br.width(), 0), y+bottomH-br.height())...)
	}

	b.hits = hits
	return strings.Join(rows, "\n")
}

// stackBlock is one rendered stack and the offsets of its toasts inside it.
type stackBlock struct {
	str    string
	w, h   int
	left   int
	top    int
	boxes  []*widget
	sizes  [][2]int
	starts []int
}

func (s *stack) render(now time.Time) *stackBlock {
	if len(s.widgets) == 0 {
		return nil
	}

	blk := &stackBlock{}
	parts := make([]string, 0, len(s.widgets))
	y := 0
	for _, w := range s.widgets {
		out := w.view(now)
		parts = append(parts, out)
		blk.boxes = append(blk.boxes, w)
		blk.sizes = append(blk.sizes, [2]int{lipgloss.Width(out), lipgloss.Height(out)})
		blk.starts = append(blk.starts, y)
		y += lipgloss.Height(out)
	}

	p := s.placement
	style := lipgloss.NewStyle()
	if p.Top > 0 {
		style = style.MarginTop(p.Top)
		blk.top = p.Top
	}
	if p.Bottom > 0 {
		style = style.MarginBottom(p.Bottom)
	}
	if p.Left > 0 {
		style = style.MarginLeft(p.Left)
		blk.left = p.Left
	}
	if p.Right > 0 {
		style = style.MarginRight(p.Right)
	}

	blk.str = style.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	blk.w = lipgloss.Width(blk.str)
	blk.h = lipgloss.Height(blk.str)
	return blk
}

func (blk *stackBlock) content() string {
	if blk == nil {
		return ""
	}
	return blk.str
}

func (blk *stackBlock) width() int {
	if blk == nil {
		return 0
	}
	return blk.w
}

func (blk *stackBlock) height() int {
	if blk == nil {
		return 0
	}
	return blk.h
}

// hits returns the toast boxes of a block drawn with its corner at (x, y).
func (blk *stackBlock) hits(x, y int) []hitBox {
	if blk == nil {
		return nil
	}
	out := make([]hitBox, 0, len(blk.boxes))
	for i, w := range blk.boxes {
		out = append(out, hitBox{
			x:      x + blk.left,
			y:      y + blk.top + blk.starts[i],
			w:      blk.sizes[i][0],
			h:      blk.sizes[i][1],
			widget: w,
		})
	}
	return out
}

// widget is one toast on the board. Its fields are guarded by board.mu.
type widget struct {
	board      *Board
	id         string
	typ        model.Type
	title      string
	body       string
	theme      *theme.Theme
	width      int
	persistent bool
	createdAt  time.Time
	bar        progress.Model

	seq         uint64
	position    model.Position
	attached    bool
	closing     bool
	hasProgress bool
	remaining   float64
	onClick     func(model.ClickEvent)
	onDismiss   func()
}

func (w *widget) AttachTo(c *toast.Container) {
	b := w.board
	b.mu.Lock()
	s, ok := b.stacks[c.Position()]
	if !ok {
		s = &stack{serial: c.Serial(), placement: c.Placement()}
		b.stacks[c.Position()] = s
	}
	b.seq++
	w.seq = b.seq
	w.position = c.Position()
	w.attached = true
	s.widgets = append(s.widgets, w)
	b.mu.Unlock()

	b.requestRedraw()
}

func (w *widget) Detach() {
	b := w.board
	b.mu.Lock()
	if s, ok := b.stacks[w.position]; ok {
		for i, other := range s.widgets {
			if other == w {
				s.widgets = append(s.widgets[:i], s.widgets[i+1:]...)
				break
			}
		}
	}
	w.attached = false
	b.mu.Unlock()

	b.requestRedraw()
}

func (w *widget) MarkClosing() {
	w.board.mu.Lock()
	w.closing = true
	w.board.mu.Unlock()

	w.board.requestRedraw()
}

func (w *widget) SetClickHandler(fn func(model.ClickEvent)) {
	w.board.mu.Lock()
	defer w.board.mu.Unlock()
	w.onClick = fn
}

func (w *widget) SetDismissHandler(fn func()) {
	w.board.mu.Lock()
	defer w.board.mu.Unlock()
	w.onDismiss = fn
}

func (w *widget) SetProgress(remaining float64) {
	w.board.mu.Lock()
	w.hasProgress = true
	w.remaining = remaining
	w.board.mu.Unlock()

	w.board.requestRedraw()
}

// view draws the toast box. Caller holds board.mu.
func (w *widget) view(now time.Time) string {
	inner := max(w.width-2, 1)

	title := w.title
	if title == "" {
		title = string(w.typ)
	}
	if lipgloss.Width(title) > inner-2 {
		title = truncate(title, inner-2)
	}
	titleStr := w.theme.Title(w.typ).Render(title)
	gap := max(inner-lipgloss.Width(titleStr)-1, 1)
	lines := []string{titleStr + strings.Repeat(" ", gap) + "×"}

	if w.body != "" {
		lines = append(lines, w.body)
	}
	if w.hasProgress && !w.closing {
		lines = append(lines, w.bar.ViewAs(w.remaining))
	}
	if w.persistent {
		lines = append(lines, w.theme.Muted().Render(humanize.RelTime(w.createdAt, now, "ago", "from now")))
	}

	style := w.theme.Box(w.typ, w.width)
	if w.closing {
		style = w.theme.Closing(w.width)
	}
	return style.Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

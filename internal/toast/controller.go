package toast

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/toastd/internal/clock"
	"github.com/jmylchreest/toastd/internal/input"
	"github.com/jmylchreest/toastd/internal/model"
)

// DefaultGrace is how long a closing toast stays attached for its exit
// visuals before it is removed.
const DefaultGrace = 300 * time.Millisecond

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for dismiss, grace and progress timers.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) {
		c.clock = clk
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithKeySource sets where escape presses come from.
func WithKeySource(src input.KeySource) Option {
	return func(c *Controller) {
		c.keys = src
	}
}

// WithPointerSource sets where click-outside presses come from.
func WithPointerSource(src input.PointerSource) Option {
	return func(c *Controller) {
		c.pointers = src
	}
}

// WithGrace overrides the teardown grace interval.
func WithGrace(d time.Duration) Option {
	return func(c *Controller) {
		c.grace = d
	}
}

// WithFrameInterval overrides the progress redraw interval.
func WithFrameInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.frame = d
	}
}

// event is a hook invocation deferred until the controller lock is released.
type event struct {
	hook string
	fn   func()
}

// Controller owns every live toast. All state changes happen under one
// mutex; hooks run after it is released, in the order the state machine
// produced them.
type Controller struct {
	mu       sync.Mutex
	clock    clock.Clock
	logger   *slog.Logger
	renderer Renderer
	registry *Registry
	animator *ProgressAnimator
	grace    time.Duration
	frame    time.Duration

	defaults model.Options

	// Insertion-ordered; a record leaves both when it is Removed.
	records map[string]*Record
	order   []*Record

	keys          input.KeySource
	pointers      input.PointerSource
	unsubKeys     func()
	unsubPointers func()

	disposed    bool
	disposeOnce sync.Once
}

// New creates a controller rendering through renderer with the given
// process defaults. If the renderer implements ContainerObserver it is told
// about container creation and release.
func New(renderer Renderer, defaults model.Options, opts ...Option) *Controller {
	c := &Controller{
		renderer: renderer,
		defaults: defaults,
		grace:    DefaultGrace,
		records:  make(map[string]*Record),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}

	var observer ContainerObserver
	if o, ok := renderer.(ContainerObserver); ok {
		observer = o
	}
	c.registry = NewRegistry(observer, c.logger)
	c.animator = NewProgressAnimator(c.clock, c.frame)

	c.mu.Lock()
	c.listenLocked()
	c.mu.Unlock()

	return c
}

// listenLocked registers the escape and click-outside listeners. Each is
// registered at most once for the controller's lifetime.
func (c *Controller) listenLocked() {
	if c.disposed {
		return
	}
	if c.keys != nil && c.unsubKeys == nil && c.defaults.CloseOnEsc {
		c.unsubKeys = c.keys.SubscribeKeys(c.handleKey)
		c.logger.Debug("escape listener registered")
	}
	if c.pointers != nil && c.unsubPointers == nil && c.defaults.CloseOnClickOutside {
		c.unsubPointers = c.pointers.SubscribePointer(c.handlePointer)
		c.logger.Debug("click-outside listener registered")
	}
}

func (c *Controller) handleKey(k input.Key) {
	if k != input.KeyEscape {
		return
	}
	c.mu.Lock()
	enabled := c.defaults.CloseOnEsc && !c.disposed
	c.mu.Unlock()

	if enabled {
		c.closeAll(CloseReasonDismissed)
	}
}

func (c *Controller) handlePointer(p input.Pointer) {
	if p.OnWidget {
		return
	}
	c.mu.Lock()
	enabled := c.defaults.CloseOnClickOutside && !c.disposed
	c.mu.Unlock()

	if enabled {
		c.closeAll(CloseReasonDismissed)
	}
}

// Registry returns the position registry.
func (c *Controller) Registry() *Registry {
	return c.registry
}

// Defaults returns a copy of the process defaults.
func (c *Controller) Defaults() model.Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defaults
}

// SetDefaults replaces the process defaults. Toasts already shown keep the
// options they were resolved with.
func (c *Controller) SetDefaults(opts model.Options) {
	c.mu.Lock()
	c.defaults = opts
	c.listenLocked()
	c.mu.Unlock()

	c.logger.Debug("notification defaults updated",
		"position", opts.Position,
		"duration", opts.Duration,
		"max_per_position", opts.MaxPerPosition,
	)
}

// SetTemplate replaces the default template.
func (c *Controller) SetTemplate(t model.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaults.Template = t
}

// Show creates a toast. It fails with a model.SpecError for a malformed
// spec and a RenderError if the renderer cannot draw it; in both cases no
// state is created and no hooks run.
func (c *Controller) Show(spec model.Spec) (Handle, error) {
	c.mu.Lock()

	if c.disposed {
		c.mu.Unlock()
		return Handle{}, ErrDisposed
	}

	resolved, err := model.Resolve(c.defaults, spec)
	if err != nil {
		c.mu.Unlock()
		return Handle{}, err
	}

	now := c.clock.Now()
	id := spec.ID
	if id == "" {
		if id, err = model.NewID(now); err != nil {
			c.mu.Unlock()
			return Handle{}, err
		}
	} else if _, taken := c.records[id]; taken {
		c.mu.Unlock()
		return Handle{}, &model.SpecError{Field: "id", Reason: fmt.Sprintf("%q is already in use", id)}
	}

	widget, err := c.renderer.Render(RenderRequest{ID: id, Resolved: resolved})
	if err != nil {
		c.mu.Unlock()
		var renderErr *RenderError
		if !errors.As(err, &renderErr) {
			err = &RenderError{ContentType: resolved.ContentType, Message: "failed to render notification", Cause: err}
		}
		c.logger.Warn("failed to render notification", "content_type", resolved.ContentType, "error", err)
		return Handle{}, err
	}

	container := c.registry.GetOrCreate(resolved.Position, resolved.Layout)

	// Make room before inserting. Evicted records leave the container
	// synchronously so it never holds more than MaxPerPosition records,
	// closing ones included, once Show returns.
	var events []event
	limit := max(c.defaults.MaxPerPosition, 1)
	for container.Len() >= limit {
		oldest := container.oldest()
		if oldest == nil {
			break
		}
		c.logger.Debug("evicting oldest notification",
			"id", oldest.id,
			"position", resolved.Position,
			"limit", limit,
		)
		events = append(events, c.closeLocked(oldest, CloseReasonEvicted)...)
		c.removeLocked(oldest)
	}

	rec := &Record{
		id:        id,
		state:     StateActive,
		createdAt: now,
		opts:      resolved,
		widget:    widget,
		container: container,
	}
	container.append(rec)
	c.records[id] = rec
	c.order = append(c.order, rec)

	widget.AttachTo(container)
	widget.SetClickHandler(func(ev model.ClickEvent) {
		c.handleClick(id, ev)
	})
	if d, ok := widget.(Dismissable); ok {
		d.SetDismissHandler(func() {
			c.CloseWithReason(Handle{id: id}, CloseReasonDismissed)
		})
	}

	if resolved.ShowProgress && resolved.Duration > 0 {
		rec.progress = c.animator.Start(widget, resolved.Duration)
	}
	if resolved.Duration > 0 {
		c.scheduleDismissLocked(rec)
	}

	snap := rec.snapshot()
	if onShow := c.defaults.OnShow; onShow != nil {
		events = append(events, event{hook: "onShow", fn: func() { onShow(snap) }})
	}
	active := len(c.order)
	c.mu.Unlock()

	c.emit(events)

	c.logger.Debug("showed notification",
		"id", id,
		"type", resolved.Type,
		"position", resolved.Position,
		"duration", resolved.Duration,
		"active", active,
	)

	return Handle{id: id}, nil
}

// Info shows an info toast.
func (c *Controller) Info(message, title string) (Handle, error) {
	return c.Show(model.Spec{Type: model.TypeInfo, Title: title, Content: message})
}

// Success shows a success toast.
func (c *Controller) Success(message, title string) (Handle, error) {
	return c.Show(model.Spec{Type: model.TypeSuccess, Title: title, Content: message})
}

// Warning shows a warning toast.
func (c *Controller) Warning(message, title string) (Handle, error) {
	return c.Show(model.Spec{Type: model.TypeWarning, Title: title, Content: message})
}

// Error shows an error toast.
func (c *Controller) Error(message, title string) (Handle, error) {
	return c.Show(model.Spec{Type: model.TypeError, Title: title, Content: message})
}

// scheduleDismissLocked arms the auto-dismiss timer. Caller must hold the lock.
func (c *Controller) scheduleDismissLocked(rec *Record) {
	rec.dismissGen++
	gen := rec.dismissGen
	id := rec.id
	rec.dismissTimer = c.clock.AfterFunc(rec.opts.Duration, func() {
		c.expire(id, gen)
	})
}

// expire is the auto-dismiss timer callback.
func (c *Controller) expire(id string, gen uint64) {
	c.mu.Lock()
	rec, ok := c.records[id]
	if !ok || rec.state != StateActive || rec.dismissGen != gen {
		c.mu.Unlock()
		return
	}
	rec.dismissTimer = nil
	events := c.closeLocked(rec, CloseReasonExpired)
	c.mu.Unlock()

	c.emit(events)
}

// Close dismisses the toast programmatically. Closing an unknown, closing
// or removed toast is a no-op.
func (c *Controller) Close(h Handle) {
	c.CloseWithReason(h, CloseReasonClosed)
}

// CloseWithReason is Close with an explicit reason reported to hooks.
func (c *Controller) CloseWithReason(h Handle, reason CloseReason) {
	c.mu.Lock()
	rec, ok := c.records[h.id]
	if !ok {
		c.mu.Unlock()
		return
	}
	events := c.closeLocked(rec, reason)
	c.mu.Unlock()

	c.emit(events)
}

// CloseAll closes every tracked toast.
func (c *Controller) CloseAll() {
	c.closeAll(CloseReasonClosed)
}

func (c *Controller) closeAll(reason CloseReason) {
	c.mu.Lock()
	var events []event
	closed := 0
	for _, rec := range c.order {
		if rec.state == StateActive {
			closed++
		}
		events = append(events, c.closeLocked(rec, reason)...)
	}
	c.mu.Unlock()

	c.emit(events)

	if closed > 0 {
		c.logger.Debug("closed all notifications", "count", closed, "reason", reason.String())
	}
}

// closeLocked moves rec from Active to Closing. It returns the hook
// events to emit once the lock is released. Caller must hold the lock.
func (c *Controller) closeLocked(rec *Record, reason CloseReason) []event {
	if rec.state != StateActive {
		return nil
	}

	rec.state = StateClosing
	rec.reason = reason

	if rec.dismissTimer != nil {
		rec.dismissTimer.Stop()
		rec.dismissTimer = nil
	}
	rec.dismissGen++

	rec.widget.MarkClosing()

	id := rec.id
	rec.removeTimer = c.clock.AfterFunc(c.grace, func() {
		c.finalize(id)
	})

	c.logger.Debug("closing notification", "id", id, "reason", reason.String())

	onClose := rec.opts.OnClose
	if onClose == nil {
		return nil
	}
	snap := rec.snapshot()
	return []event{{hook: "onClose", fn: func() { onClose(snap) }}}
}

// finalize removes a closing toast once its grace interval has elapsed.
func (c *Controller) finalize(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[id]
	if !ok || rec.state != StateClosing {
		return
	}

	c.removeLocked(rec)
	c.registry.ReleaseIfEmpty(rec.container)
}

// removeLocked moves a closing record to Removed and takes it out of its
// container. It does not release the container. Caller must hold the lock.
func (c *Controller) removeLocked(rec *Record) {
	if rec.state != StateClosing {
		return
	}

	rec.state = StateRemoved
	if rec.removeTimer != nil {
		rec.removeTimer.Stop()
		rec.removeTimer = nil
	}
	rec.progress.Stop()
	rec.widget.Detach()

	rec.container.remove(rec)
	delete(c.records, rec.id)
	for i, other := range c.order {
		if other == rec {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	c.logger.Debug("removed notification", "id", rec.id, "remaining", len(c.order))
}

func (c *Controller) handleClick(id string, ev model.ClickEvent) {
	c.mu.Lock()
	rec, ok := c.records[id]
	if !ok || rec.opts.OnClick == nil {
		c.mu.Unlock()
		return
	}
	onClick := rec.opts.OnClick
	snap := rec.snapshot()
	c.mu.Unlock()

	c.runHook("onClick", func() { onClick(ev, snap) })
}

// emit runs hook events in order, each isolated from the others.
func (c *Controller) emit(events []event) {
	for _, ev := range events {
		c.runHook(ev.hook, ev.fn)
	}
}

// runHook calls fn, recovering from a panic so that a failing hook cannot
// disturb the lifecycle.
func (c *Controller) runHook(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("notification hook panicked", "hook", name, "panic", r)
		}
	}()
	fn()
}

// Active returns handles for every toast not yet removed, oldest first.
func (c *Controller) Active() []Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	handles := make([]Handle, 0, len(c.order))
	for _, rec := range c.order {
		handles = append(handles, Handle{id: rec.id})
	}
	return handles
}

// Snapshot returns a snapshot of every toast not yet removed, oldest first.
func (c *Controller) Snapshot() []model.Active {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Active, 0, len(c.order))
	for _, rec := range c.order {
		out = append(out, rec.snapshot())
	}
	return out
}

// Lookup returns the snapshot for h.
func (c *Controller) Lookup(h Handle) (model.Active, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[h.id]
	if !ok {
		return model.Active{}, false
	}
	return rec.snapshot(), true
}

// Dispose unregisters the input listeners and closes every toast. Show
// fails with ErrDisposed afterwards. Safe to call more than once.
func (c *Controller) Dispose() {
	c.disposeOnce.Do(func() {
		c.mu.Lock()
		c.disposed = true
		unsubKeys, unsubPointers := c.unsubKeys, c.unsubPointers
		c.unsubKeys, c.unsubPointers = nil, nil
		c.mu.Unlock()

		if unsubKeys != nil {
			unsubKeys()
		}
		if unsubPointers != nil {
			unsubPointers()
		}

		c.closeAll(CloseReasonClosed)
		c.logger.Debug("notification controller disposed")
	})
}

package toast

import (
	"errors"
	"sync"
	"time"

	"github.com/jmylchreest/toastd/internal/clock"
	"github.com/jmylchreest/toastd/internal/input"
	"github.com/jmylchreest/toastd/internal/model"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeWidget records what the controller asked of it.
type fakeWidget struct {
	mu        sync.Mutex
	id        string
	container *Container
	attached  bool
	closing   bool
	detached  bool
	progress  []float64
	onClick   func(model.ClickEvent)
	onDismiss func()
}

func (w *fakeWidget) AttachTo(c *Container) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.container = c
	w.attached = true
}

func (w *fakeWidget) Detach() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attached = false
	w.detached = true
}

func (w *fakeWidget) MarkClosing() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closing = true
}

func (w *fakeWidget) SetClickHandler(fn func(model.ClickEvent)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onClick = fn
}

func (w *fakeWidget) SetDismissHandler(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onDismiss = fn
}

func (w *fakeWidget) SetProgress(remaining float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.progress = append(w.progress, remaining)
}

// fakeRenderer hands out fakeWidgets and records container events.
type fakeRenderer struct {
	mu       sync.Mutex
	widgets  map[string]*fakeWidget
	created  []*Container
	released []*Container
	fail     bool
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{widgets: make(map[string]*fakeWidget)}
}

func (r *fakeRenderer) Render(req RenderRequest) (Widget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail || req.ContentType == model.ContentCustom {
		return nil, errors.New("unsupported content")
	}
	w := &fakeWidget{id: req.ID}
	r.widgets[req.ID] = w
	return w, nil
}

func (r *fakeRenderer) ContainerCreated(c *Container) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, c)
}

func (r *fakeRenderer) ContainerReleased(c *Container) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, c)
}

func (r *fakeRenderer) widget(h Handle) *fakeWidget {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.widgets[h.ID()]
}

type harness struct {
	clock    *clock.Fake
	renderer *fakeRenderer
	hub      *input.Hub
	ctrl     *Controller
}

func newHarness(modify func(*model.Options)) *harness {
	opts := model.DefaultOptions()
	if modify != nil {
		modify(&opts)
	}

	h := &harness{
		clock:    clock.NewFake(testStart),
		renderer: newFakeRenderer(),
		hub:      input.NewHub(nil),
	}
	h.ctrl = New(h.renderer, opts,
		WithClock(h.clock),
		WithKeySource(h.hub),
		WithPointerSource(h.hub),
	)
	return h
}

func persistent(content string) model.Spec {
	return model.Spec{Content: content}.WithDuration(0)
}

func (h *harness) state(handle Handle) string {
	a, ok := h.ctrl.Lookup(handle)
	if !ok {
		return StateRemoved.String()
	}
	return a.State
}

package render

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/toast"
)

// Sounds plays toast audio. *audio.Manager implements it.
type Sounds interface {
	PlayFor(typ model.Type) error
	PlayFile(path string) error
}

// Headless is a renderer without a screen. Each toast is written as one
// line to an optional writer and its lifecycle is logged.
type Headless struct {
	logger *slog.Logger
	sounds Sounds

	mu  sync.Mutex
	out io.Writer
	wg  sync.WaitGroup
}

// NewHeadless creates a headless renderer. out and sounds may be nil.
func NewHeadless(out io.Writer, sounds Sounds, logger *slog.Logger) *Headless {
	if logger == nil {
		logger = slog.Default()
	}
	return &Headless{logger: logger, sounds: sounds, out: out}
}

// Render implements toast.Renderer.
func (h *Headless) Render(req toast.RenderRequest) (toast.Widget, error) {
	body, err := Body(req)
	if err != nil {
		return nil, err
	}
	return &headlessWidget{
		renderer: h,
		id:       req.ID,
		typ:      req.Type,
		title:    req.Title,
		body:     body,
		media:    req.ContentType,
		src:      req.Content,
	}, nil
}

// ContainerCreated implements toast.ContainerObserver.
func (h *Headless) ContainerCreated(c *toast.Container) {
	h.logger.Debug("container created", "position", c.Position(), "serial", c.Serial())
}

// ContainerReleased implements toast.ContainerObserver.
func (h *Headless) ContainerReleased(c *toast.Container) {
	h.logger.Debug("container released", "position", c.Position(), "serial", c.Serial())
}

// Wait blocks until queued sound playback has been handed to the player.
func (h *Headless) Wait() {
	h.wg.Wait()
}

func (h *Headless) print(format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.out != nil {
		_, _ = fmt.Fprintf(h.out, format, args...)
	}
}

// playAsync hands playback to a goroutine so a slow decode never holds up
// the controller.
func (h *Headless) playAsync(typ model.Type, ct model.ContentType, src string) {
	if h.sounds == nil {
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		var err error
		if ct == model.ContentAudio {
			err = h.sounds.PlayFile(src)
		} else {
			err = h.sounds.PlayFor(typ)
		}
		if err != nil {
			h.logger.Debug("failed to play toast sound", "type", typ, "error", err)
		}
	}()
}

type headlessWidget struct {
	renderer *Headless
	id       string
	typ      model.Type
	title    string
	body     string
	media    model.ContentType
	src      string
	position model.Position
}

func (w *headlessWidget) AttachTo(c *toast.Container) {
	w.position = c.Position()
	w.renderer.logger.Info("toast shown",
		"id", w.id,
		"type", w.typ,
		"position", w.position,
		"title", w.title,
	)

	if w.title != "" {
		w.renderer.print("[%s] %s: %s\n", w.typ, w.title, w.body)
	} else {
		w.renderer.print("[%s] %s\n", w.typ, w.body)
	}

	w.renderer.playAsync(w.typ, w.media, w.src)
}

func (w *headlessWidget) Detach() {
	w.renderer.logger.Debug("toast removed", "id", w.id, "position", w.position)
}

func (w *headlessWidget) MarkClosing() {
	w.renderer.logger.Debug("toast closing", "id", w.id)
}

// SetClickHandler is a no-op: there is nothing to click.
func (w *headlessWidget) SetClickHandler(func(model.ClickEvent)) {}

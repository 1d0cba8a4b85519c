package toast

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/toastd/internal/model"
)

// Placement anchors a container on screen. Edge offsets are -1 when the
// container is not anchored to that edge.
type Placement struct {
	Top      int
	Right    int
	Bottom   int
	Left     int
	Centered bool
	Width    int
	ZIndex   int
}

// PlacementFor maps a position to its anchor offsets.
func PlacementFor(pos model.Position, layout model.Layout) Placement {
	p := Placement{
		Top:    -1,
		Right:  -1,
		Bottom: -1,
		Left:   -1,
		Width:  layout.Width,
		ZIndex: layout.ZIndex,
	}

	switch pos {
	case model.PositionTopRight:
		p.Top, p.Right = layout.Spacing, layout.Spacing
	case model.PositionTopLeft:
		p.Top, p.Left = layout.Spacing, layout.Spacing
	case model.PositionBottomRight:
		p.Bottom, p.Right = layout.Spacing, layout.Spacing
	case model.PositionBottomLeft:
		p.Bottom, p.Left = layout.Spacing, layout.Spacing
	case model.PositionCenter:
		p.Centered = true
	}

	return p
}

// Container is the shared stack of toasts at one position.
// Records are kept oldest first.
type Container struct {
	position  model.Position
	serial    uint64
	placement Placement

	mu       sync.Mutex
	records  []*Record
	released bool
}

// Position returns the container's anchor.
func (c *Container) Position() model.Position {
	return c.position
}

// Serial distinguishes a recreated container from a released one.
func (c *Container) Serial() uint64 {
	return c.serial
}

// Placement returns the anchor offsets computed at creation.
func (c *Container) Placement() Placement {
	return c.placement
}

// Len returns the number of records attached, including closing ones.
func (c *Container) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// IDs returns the attached record ids, oldest first.
func (c *Container) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.records))
	for _, r := range c.records {
		ids = append(ids, r.id)
	}
	return ids
}

// Released reports whether the registry has let go of this container.
func (c *Container) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

func (c *Container) oldest() *Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.records) == 0 {
		return nil
	}
	return c.records[0]
}

func (c *Container) append(r *Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
}

func (c *Container) remove(r *Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, other := range c.records {
		if other == r {
			c.records = append(c.records[:i], c.records[i+1:]...)
			return
		}
	}
}

// Registry tracks exactly one container per position.
type Registry struct {
	mu         sync.Mutex
	logger     *slog.Logger
	observer   ContainerObserver
	containers map[model.Position]*Container
	serial     uint64
}

// NewRegistry creates an empty registry. observer may be nil.
func NewRegistry(observer ContainerObserver, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:     logger,
		observer:   observer,
		containers: make(map[model.Position]*Container),
	}
}

// GetOrCreate returns the container for pos, creating it on first use.
func (r *Registry) GetOrCreate(pos model.Position, layout model.Layout) *Container {
	r.mu.Lock()
	if c, ok := r.containers[pos]; ok {
		r.mu.Unlock()
		return c
	}

	r.serial++
	c := &Container{
		position:  pos,
		serial:    r.serial,
		placement: PlacementFor(pos, layout),
	}
	r.containers[pos] = c
	r.mu.Unlock()

	r.logger.Debug("created container", "position", pos, "serial", c.serial)

	if r.observer != nil {
		r.observer.ContainerCreated(c)
	}
	return c
}

// ReleaseIfEmpty removes c if it holds no records at call time and is still
// the registered container for its position. It returns true if c was
// released.
func (r *Registry) ReleaseIfEmpty(c *Container) bool {
	r.mu.Lock()
	current, ok := r.containers[c.position]
	if !ok || current != c {
		r.mu.Unlock()
		return false
	}

	c.mu.Lock()
	if len(c.records) > 0 {
		c.mu.Unlock()
		r.mu.Unlock()
		return false
	}
	c.released = true
	c.mu.Unlock()

	delete(r.containers, c.position)
	r.mu.Unlock()

	r.logger.Debug("released container", "position", c.position, "serial", c.serial)

	if r.observer != nil {
		r.observer.ContainerReleased(c)
	}
	return true
}

// Lookup returns the current container for pos, if any.
func (r *Registry) Lookup(pos model.Position) (*Container, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.containers[pos]
	return c, ok
}

// Len returns the number of live containers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.containers)
}

package toast

import (
	"github.com/jmylchreest/toastd/internal/model"
)

// RenderRequest is everything a renderer needs to build one toast.
type RenderRequest struct {
	ID string
	model.Resolved
}

// Renderer turns a toast description into a displayable widget.
// Content-type interpretation is entirely the renderer's concern.
// Renderer and Widget methods are called with the controller locked and
// must not call back into the controller synchronously.
type Renderer interface {
	Render(req RenderRequest) (Widget, error)
}

// Widget is a rendered toast. The controller owns its lifecycle but never
// touches its internals.
type Widget interface {
	// AttachTo makes the widget visible inside c.
	AttachTo(c *Container)
	// Detach removes the widget from its container.
	Detach()
	// MarkClosing starts the exit visuals.
	MarkClosing()
	// SetClickHandler wires the widget's click target.
	SetClickHandler(fn func(model.ClickEvent))
}

// Dismissable is implemented by widgets with their own close affordance
// (a close button). The controller dismisses the toast when fn is called.
type Dismissable interface {
	SetDismissHandler(fn func())
}

// ProgressSetter is implemented by widgets that can draw a countdown.
// remaining goes from 1 (just shown) to 0 (expired).
type ProgressSetter interface {
	SetProgress(remaining float64)
}

// ContainerObserver is implemented by renderers that draw containers.
type ContainerObserver interface {
	ContainerCreated(c *Container)
	ContainerReleased(c *Container)
}

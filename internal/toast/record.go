package toast

import (
	"time"

	"github.com/jmylchreest/toastd/internal/clock"
	"github.com/jmylchreest/toastd/internal/model"
)

// State is the lifecycle state of a toast.
// Transitions are Active -> Closing -> Removed and never go back.
type State int

const (
	// StateActive means the toast is shown and may still auto-dismiss.
	StateActive State = iota
	// StateClosing means the exit visuals are running.
	StateClosing
	// StateRemoved means the widget has been detached. Terminal.
	StateRemoved
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// CloseReason records why a toast left the Active state.
// The numeric values match the freedesktop NotificationClosed reasons.
type CloseReason uint32

const (
	// CloseReasonExpired means the auto-dismiss timer fired.
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed means the user dismissed it (close button, escape, click outside).
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed means it was closed programmatically.
	CloseReasonClosed CloseReason = 3
	// CloseReasonEvicted means a newer toast needed its slot.
	CloseReasonEvicted CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// Handle identifies a toast returned by Show. The zero Handle refers to
// nothing and is safe to close.
type Handle struct {
	id string
}

// HandleFor returns the handle of a toast shown with Spec.ID set to id.
// Callers use it to link the toast elsewhere before Show returns.
func HandleFor(id string) Handle {
	return Handle{id: id}
}

// ID returns the toast's id.
func (h Handle) ID() string {
	return h.id
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.id == ""
}

// Record is one live toast. All fields are guarded by the owning
// controller's mutex.
type Record struct {
	id        string
	state     State
	createdAt time.Time
	opts      model.Resolved
	widget    Widget
	container *Container
	reason    CloseReason

	// At most one pending auto-dismiss timer. dismissGen invalidates a
	// callback that was already running when the timer was stopped.
	dismissTimer clock.Timer
	dismissGen   uint64

	removeTimer clock.Timer
	progress    *ProgressRun
}

// ID returns the record's ULID.
func (r *Record) ID() string {
	return r.id
}

// State returns the record's lifecycle state.
func (r *Record) State() State {
	return r.state
}

// Position returns the anchor the record is stacked at.
func (r *Record) Position() model.Position {
	return r.opts.Position
}

func (r *Record) snapshot() model.Active {
	a := model.Active{
		ID:          r.id,
		Position:    r.opts.Position,
		Type:        r.opts.Type,
		Title:       r.opts.Title,
		Content:     r.opts.Content,
		ContentType: r.opts.ContentType,
		State:       r.state.String(),
		CreatedAt:   r.createdAt,
		Duration:    r.opts.Duration,
	}
	if r.state != StateActive {
		a.CloseReason = r.reason.String()
	}
	return a
}

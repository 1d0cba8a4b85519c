package dbus

import (
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastd/internal/model"
)

// CloseReason is the freedesktop.org NotificationClosed reason code.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is used for capacity eviction.
	CloseReasonUndefined CloseReason = 4
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
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// Urgency levels carried by the "urgency" hint.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// Hint keys understood in addition to the standard ones.
const (
	HintType        = "x-toast-type"
	HintPosition    = "x-toast-position"
	HintContentType = "x-toast-content-type"
	HintTheme       = "x-toast-theme"
	HintProgress    = "x-toast-progress"
)

// DBusNotification represents an incoming D-Bus Notify call.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Action represents a notification action with key and label.
type Action struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ParsedActions converts the D-Bus action array to structured form.
func (n *DBusNotification) ParsedActions() []Action {
	actions := make([]Action, 0, len(n.Actions)/2)
	for i := 0; i+1 < len(n.Actions); i += 2 {
		actions = append(actions, Action{
			Key:   n.Actions[i],
			Label: n.Actions[i+1],
		})
	}
	return actions
}

func (n *DBusNotification) stringHint(key string) string {
	if v, ok := n.Hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// Urgency extracts the urgency hint. Returns UrgencyNormal if not specified.
func (n *DBusNotification) Urgency() byte {
	if v, ok := n.Hints["urgency"]; ok {
		switch u := v.Value().(type) {
		case byte:
			return u
		case int32:
			return byte(u)
		case uint32:
			return byte(u)
		}
	}
	return UrgencyNormal
}

// ImagePath extracts the image-path hint, falling back to the app icon when
// it is a file path.
func (n *DBusNotification) ImagePath() string {
	if p := n.stringHint("image-path"); p != "" {
		return p
	}
	if strings.HasPrefix(n.AppIcon, "/") || strings.HasPrefix(n.AppIcon, "file://") {
		return n.AppIcon
	}
	return ""
}

// ToastType returns the x-toast-type hint, or a type derived from urgency.
func (n *DBusNotification) ToastType() string {
	if t := n.stringHint(HintType); t != "" {
		return t
	}
	if n.Urgency() == UrgencyCritical {
		return string(model.TypeError)
	}
	return string(model.TypeInfo)
}

// Position returns the x-toast-position hint.
func (n *DBusNotification) Position() string {
	return n.stringHint(HintPosition)
}

// ContentType returns the x-toast-content-type hint. Bodies default to html
// since body-markup is advertised.
func (n *DBusNotification) ContentType() string {
	if ct := n.stringHint(HintContentType); ct != "" {
		return ct
	}
	return string(model.ContentHTML)
}

// Theme returns the x-toast-theme hint.
func (n *DBusNotification) Theme() string {
	return n.stringHint(HintTheme)
}

// Progress returns the x-toast-progress hint and whether it was set.
func (n *DBusNotification) Progress() (bool, bool) {
	if v, ok := n.Hints[HintProgress]; ok {
		if b, ok := v.Value().(bool); ok {
			return b, true
		}
	}
	return false, false
}

// ToSpec converts the call into a toast spec. Parsing of the enum-valued
// hints is left to model.Resolve so invalid values surface as SpecErrors.
func (n *DBusNotification) ToSpec() model.Spec {
	spec := model.Spec{
		Type:        model.Type(n.ToastType()),
		Title:       n.Summary,
		Content:     n.Body,
		ContentType: model.ContentType(n.ContentType()),
		Position:    model.Position(n.Position()),
		Theme:       n.Theme(),
	}

	if spec.Content == "" {
		if img := n.ImagePath(); img != "" {
			spec.Content = strings.TrimPrefix(img, "file://")
			spec.ContentType = model.ContentImage
		}
	}
	// An empty body with a summary still makes a useful toast.
	if spec.Content == "" && spec.Title != "" {
		spec.Content = spec.Title
		spec.Title = ""
		spec.ContentType = model.ContentText
	}

	switch {
	case n.ExpireTimeout == 0:
		spec = spec.WithDuration(0)
	case n.ExpireTimeout > 0:
		spec = spec.WithDuration(time.Duration(n.ExpireTimeout) * time.Millisecond)
	}

	if show, ok := n.Progress(); ok {
		spec = spec.WithProgress(show)
	}

	return spec
}

// ServerCapabilities lists the capabilities advertised by toastd.
var ServerCapabilities = []string{
	"actions",     // A click invokes the "default" action
	"body",        // Support body text
	"body-markup", // Bodies are rendered as markup
	"icon-static", // image-path is shown as an image reference
	"sound",       // Audio content and per-type sounds
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "toastd",
		Vendor:      "toastd",
		Version:     "dev",
		SpecVersion: "1.2",
	}
}

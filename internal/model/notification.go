// Package model defines the core data structures for toastd.
package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Position is a named screen anchor where toasts stack.
type Position string

const (
	PositionTopRight    Position = "top-right"
	PositionTopLeft     Position = "top-left"
	PositionBottomRight Position = "bottom-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionCenter      Position = "center"
)

// ValidPositions returns all valid position values.
func ValidPositions() []Position {
	return []Position{
		PositionTopRight,
		PositionTopLeft,
		PositionBottomRight,
		PositionBottomLeft,
		PositionCenter,
	}
}

// ParsePosition converts a string to a Position.
func ParsePosition(s string) (Position, error) {
	for _, p := range ValidPositions() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", &SpecError{Field: "position", Reason: fmt.Sprintf("unrecognized position %q", s)}
}

// IsBottom returns true if toasts at this position grow upwards.
func (p Position) IsBottom() bool {
	return p == PositionBottomLeft || p == PositionBottomRight
}

// Type is the severity of a toast.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// ParseType converts a string to a Type. Empty means info.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case "":
		return TypeInfo, nil
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return Type(s), nil
	}
	return "", &SpecError{Field: "type", Reason: fmt.Sprintf("unrecognized type %q", s)}
}

// ContentType tells the renderer how to interpret toast content.
type ContentType string

const (
	ContentText   ContentType = "text"
	ContentHTML   ContentType = "html"
	ContentImage  ContentType = "image"
	ContentVideo  ContentType = "video"
	ContentAudio  ContentType = "audio"
	ContentCustom ContentType = "custom"
)

// ParseContentType converts a string to a ContentType. Empty means text.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case "":
		return ContentText, nil
	case ContentText, ContentHTML, ContentImage, ContentVideo, ContentAudio, ContentCustom:
		return ContentType(s), nil
	}
	return "", &SpecError{Field: "content_type", Reason: fmt.Sprintf("unrecognized content type %q", s)}
}

// ErrInvalidSpec is returned (wrapped in a SpecError) when a show request is malformed.
var ErrInvalidSpec = errors.New("invalid notification spec")

// SpecError describes which field of a spec is invalid.
type SpecError struct {
	Field  string
	Reason string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidSpec, e.Field, e.Reason)
}

func (e *SpecError) Unwrap() error {
	return ErrInvalidSpec
}

// ClickEvent describes a pointer press on a toast.
type ClickEvent struct {
	X      int
	Y      int
	Button string
}

// Hook receives a snapshot of a toast at a lifecycle point.
type Hook func(Active)

// ClickHook receives clicks on a toast.
type ClickHook func(ClickEvent, Active)

// Layout holds placement hints passed through to renderers.
type Layout struct {
	Spacing int // Cells between the screen edge and the container
	Width   int // Maximum container width in cells
	ZIndex  int
}

// Options are the process-wide defaults applied to every Show call.
type Options struct {
	Position            Position
	Animation           string
	Theme               string
	Duration            time.Duration // 0 = persistent
	ShowProgress        bool
	CloseOnEsc          bool
	CloseOnClickOutside bool
	MaxPerPosition      int
	Layout              Layout
	Template            Template

	OnShow  Hook
	OnClose Hook
	OnClick ClickHook
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		Position:            PositionTopRight,
		Animation:           "scale-up",
		Theme:               "light",
		Duration:            3 * time.Second,
		ShowProgress:        true,
		CloseOnEsc:          true,
		CloseOnClickOutside: true,
		MaxPerPosition:      5,
		Layout: Layout{
			Spacing: 1,
			Width:   40,
			ZIndex:  1000,
		},
	}
}

// Spec describes a single toast. Zero-valued override fields fall back to
// the process defaults.
type Spec struct {
	ID          string // Optional caller-chosen toast id, empty generates one
	Type        Type
	Title       string
	Content     string
	Custom      any // Used when ContentType is custom
	ContentType ContentType
	CustomClass string

	Position     Position
	Animation    string
	Theme        string
	Duration     *time.Duration // nil = default, 0 = persistent
	ShowProgress *bool
	Template     Template
	OnClick      ClickHook
	OnClose      Hook
}

// WithDuration returns a copy of the spec with an explicit duration.
func (s Spec) WithDuration(d time.Duration) Spec {
	s.Duration = &d
	return s
}

// WithProgress returns a copy of the spec with an explicit progress flag.
func (s Spec) WithProgress(show bool) Spec {
	s.ShowProgress = &show
	return s
}

// Resolved is a spec merged over the defaults. It is what the lifecycle and
// the renderer actually work with.
type Resolved struct {
	Type         Type
	Title        string
	Content      string
	Custom       any
	ContentType  ContentType
	CustomClass  string
	Position     Position
	Animation    string
	Theme        string
	Duration     time.Duration
	ShowProgress bool
	Template     Template
	Layout       Layout
	OnClick      ClickHook
	OnClose      Hook
}

// Resolve validates spec and merges it over defaults. Spec fields win.
// defaults is never modified.
func Resolve(defaults Options, spec Spec) (Resolved, error) {
	typ, err := ParseType(string(spec.Type))
	if err != nil {
		return Resolved{}, err
	}
	contentType, err := ParseContentType(string(spec.ContentType))
	if err != nil {
		return Resolved{}, err
	}

	switch contentType {
	case ContentCustom:
		if spec.Custom == nil && spec.Content == "" {
			return Resolved{}, &SpecError{Field: "content", Reason: "custom content is required"}
		}
	default:
		if spec.Content == "" {
			return Resolved{}, &SpecError{Field: "content", Reason: "content is required"}
		}
	}

	r := Resolved{
		Type:         typ,
		Title:        spec.Title,
		Content:      spec.Content,
		Custom:       spec.Custom,
		ContentType:  contentType,
		CustomClass:  spec.CustomClass,
		Position:     defaults.Position,
		Animation:    defaults.Animation,
		Theme:        defaults.Theme,
		Duration:     defaults.Duration,
		ShowProgress: defaults.ShowProgress,
		Template:     defaults.Template,
		Layout:       defaults.Layout,
		OnClick:      defaults.OnClick,
		OnClose:      defaults.OnClose,
	}

	if spec.Position != "" {
		r.Position = spec.Position
	}
	if _, err := ParsePosition(string(r.Position)); err != nil {
		return Resolved{}, err
	}
	if spec.Animation != "" {
		r.Animation = spec.Animation
	}
	if spec.Theme != "" {
		r.Theme = spec.Theme
	}
	if spec.Duration != nil {
		r.Duration = *spec.Duration
	}
	if r.Duration < 0 {
		return Resolved{}, &SpecError{Field: "duration", Reason: fmt.Sprintf("must not be negative, got %s", r.Duration)}
	}
	if spec.ShowProgress != nil {
		r.ShowProgress = *spec.ShowProgress
	}
	if spec.Template != nil {
		r.Template = spec.Template
	}
	if spec.OnClick != nil {
		r.OnClick = spec.OnClick
	}
	if spec.OnClose != nil {
		r.OnClose = spec.OnClose
	}

	return r, nil
}

// Active is an immutable snapshot of a live toast.
type Active struct {
	ID          string        `json:"id" yaml:"id"`
	Position    Position      `json:"position" yaml:"position"`
	Type        Type          `json:"type" yaml:"type"`
	Title       string        `json:"title,omitempty" yaml:"title,omitempty"`
	Content     string        `json:"content" yaml:"content"`
	ContentType ContentType   `json:"content_type" yaml:"content_type"`
	State       string        `json:"state" yaml:"state"`
	CreatedAt   time.Time     `json:"created_at" yaml:"created_at"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	CloseReason string        `json:"close_reason,omitempty" yaml:"close_reason,omitempty"`
}

// ContentTruncated returns the content collapsed to one line and cut to maxLen.
func (a Active) ContentTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	content := []rune(strings.Join(strings.Fields(a.Content), " "))

	if len(content) <= maxLen {
		return string(content)
	}
	if maxLen <= 3 {
		return string(content[:maxLen])
	}
	return string(content[:maxLen-3]) + "..."
}

// NewID generates a ULID for a toast created at t.
func NewID(t time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(t), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/jmylchreest/toastd/internal/dbus"
)

// PlainFormatter formats toasts as plain text, two lines each.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	return &PlainFormatter{opts: opts, template: parseTemplate("plain", opts.Template)}
}

// Format writes toasts as plain text.
func (f *PlainFormatter) Format(w io.Writer, entries []dbus.ActiveEntry) error {
	now := f.opts.now()
	for i, e := range entries {
		if err := f.formatEntry(w, i+1, e, now); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) formatEntry(w io.Writer, index int, e dbus.ActiveEntry, now time.Time) error {
	if f.template != nil {
		data := templateData{
			Index:        index,
			Toast:        e,
			RelativeTime: relativeTime(e.CreatedAt, now),
		}
		if err := f.template.Execute(w, data); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder

	if f.opts.ShowIndex {
		fmt.Fprintf(&sb, "[%d] ", index)
	}
	if e.DBusID != 0 {
		fmt.Fprintf(&sb, "#%d ", e.DBusID)
	}
	fmt.Fprintf(&sb, "%s %s %s", typeIcon(e.Type), e.Position, e.State)
	if e.Title != "" {
		fmt.Fprintf(&sb, " %q", e.Title)
	}
	if f.opts.ShowTime {
		fmt.Fprintf(&sb, " (%s, %s)", relativeTime(e.CreatedAt, now), remaining(e.Active, now))
	}
	sb.WriteString("\n")

	if body := sanitizeBody(e.Active, f.opts.BodyMaxLen); body != "" {
		sb.WriteString("    " + body + "\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

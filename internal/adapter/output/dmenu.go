package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/jmylchreest/toastd/internal/dbus"
)

// DmenuFormatter formats one toast per line for dmenu, rofi or fuzzel.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	return &DmenuFormatter{opts: opts, template: parseTemplate("dmenu", opts.Template)}
}

// Format writes toasts in dmenu format.
func (f *DmenuFormatter) Format(w io.Writer, entries []dbus.ActiveEntry) error {
	now := f.opts.now()
	for i, e := range entries {
		if _, err := fmt.Fprintln(w, f.formatLine(i+1, e, now)); err != nil {
			return err
		}
	}
	return nil
}

// formatLine renders "[id] | [time] | type | title: content".
func (f *DmenuFormatter) formatLine(index int, e dbus.ActiveEntry, now time.Time) string {
	if f.template != nil {
		var buf strings.Builder
		data := templateData{
			Index:        index,
			Toast:        e,
			RelativeTime: relativeTime(e.CreatedAt, now),
		}
		if err := f.template.Execute(&buf, data); err == nil {
			return buf.String()
		}
	}

	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	var parts []string
	if f.opts.ShowIndex {
		// The D-Bus id is what `toast close` takes; fall back to the index
		// for the daemon's own toasts.
		if e.DBusID != 0 {
			parts = append(parts, fmt.Sprintf("%d", e.DBusID))
		} else {
			parts = append(parts, fmt.Sprintf("-%d", index))
		}
	}
	if f.opts.ShowTime {
		parts = append(parts, relativeTime(e.CreatedAt, now))
	}
	parts = append(parts, string(e.Type))

	content := sanitizeBody(e.Active, f.opts.BodyMaxLen)
	if e.Title != "" {
		content = e.Title + ": " + content
	}
	parts = append(parts, content)

	return strings.Join(parts, sep)
}

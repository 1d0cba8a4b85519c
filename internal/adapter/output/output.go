// Package output formats the toasts reported by a running daemon.
package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toastd/internal/dbus"
	"github.com/jmylchreest/toastd/internal/model"
)

// Formatter formats toasts for output.
type Formatter interface {
	// Format writes formatted toasts to the writer.
	Format(w io.Writer, entries []dbus.ActiveEntry) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatDmenu FormatType = "dmenu"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatIDs   FormatType = "ids"
)

// ParseFormat converts a flag value to a FormatType.
func ParseFormat(s string) (FormatType, error) {
	switch f := FormatType(strings.ToLower(s)); f {
	case FormatPlain, FormatDmenu, FormatJSON, FormatYAML, FormatIDs:
		return f, nil
	case "":
		return FormatPlain, nil
	default:
		return "", fmt.Errorf("unknown format %q (want plain, dmenu, json, yaml or ids)", s)
	}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter()
	case FormatYAML:
		return NewYAMLFormatter()
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatIDs:
		return NewIDsFormatter()
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template   string           // Custom template for dmenu/plain format
	ShowIndex  bool             // Show 1-based index prefix
	ShowTime   bool             // Show relative creation time
	BodyMaxLen int              // Maximum content length (0 = unlimited)
	Separator  string           // Field separator for dmenu format
	Now        func() time.Time // Reference time for relative times
}

// DefaultFormatterOptions returns sensible defaults.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:  true,
		ShowTime:   true,
		BodyMaxLen: 80,
		Separator:  " | ",
	}
}

func (o FormatterOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// templateData provides data for custom templates.
type templateData struct {
	Index        int
	Toast        dbus.ActiveEntry
	RelativeTime string
}

func parseTemplate(name, text string) *template.Template {
	if text == "" {
		return nil
	}
	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil
	}
	return tmpl
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			return truncate(s, maxLen)
		},
		"typeIcon": typeIcon,
	}
}

func typeIcon(typ model.Type) string {
	switch typ {
	case model.TypeSuccess:
		return "+"
	case model.TypeWarning:
		return "!"
	case model.TypeError:
		return "x"
	default:
		return "i"
	}
}

// relativeTime describes t relative to now, e.g. "3 seconds ago".
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// remaining describes how long a toast has left, or "persistent".
func remaining(a model.Active, now time.Time) string {
	if a.Duration <= 0 {
		return "persistent"
	}
	left := a.CreatedAt.Add(a.Duration).Sub(now)
	if left <= 0 {
		return "expiring"
	}
	return left.Round(100*time.Millisecond).String() + " left"
}

// sanitizeBody collapses a toast's content onto one line. maxLen <= 0
// means no limit.
func sanitizeBody(a model.Active, maxLen int) string {
	if maxLen <= 0 {
		return strings.Join(strings.Fields(a.Content), " ")
	}
	return a.ContentTruncated(maxLen)
}

// truncate cuts s to maxLen runes.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/toastd/internal/dbus"
)

// IDsFormatter outputs just the D-Bus ids, one per line, for piping into
// `toast close`. Toasts without an id are skipped.
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes D-Bus ids to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, entries []dbus.ActiveEntry) error {
	for _, e := range entries {
		if e.DBusID == 0 {
			continue
		}
		if _, err := fmt.Fprintln(w, e.DBusID); err != nil {
			return err
		}
	}
	return nil
}

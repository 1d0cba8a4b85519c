package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toastd/internal/dbus"
)

// JSONFormatter formats toasts as a JSON array.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes toasts as a JSON array.
func (f *JSONFormatter) Format(w io.Writer, entries []dbus.ActiveEntry) error {
	if entries == nil {
		entries = []dbus.ActiveEntry{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

// YAMLFormatter formats toasts as a YAML sequence.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format writes toasts as YAML.
func (f *YAMLFormatter) Format(w io.Writer, entries []dbus.ActiveEntry) error {
	if entries == nil {
		entries = []dbus.ActiveEntry{}
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(entries); err != nil {
		return err
	}
	return encoder.Close()
}

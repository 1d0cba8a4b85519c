package model

import (
	"fmt"
	"strings"
	"text/template"
)

// TemplateData is what a toast template is rendered against.
type TemplateData struct {
	Type    Type
	Title   string
	Content string
}

// Template replaces the default toast body layout.
type Template interface {
	Execute(data TemplateData) (string, error)
}

// StaticTemplate is markup used as-is for every toast.
type StaticTemplate string

// Execute returns the static markup.
func (s StaticTemplate) Execute(TemplateData) (string, error) {
	return string(s), nil
}

// TemplateFunc adapts a function to the Template interface.
type TemplateFunc func(data TemplateData) (string, error)

// Execute calls f.
func (f TemplateFunc) Execute(data TemplateData) (string, error) {
	return f(data)
}

// textTemplate is a Go text/template, the form used in configuration files.
type textTemplate struct {
	tmpl *template.Template
}

func (t *textTemplate) Execute(data TemplateData) (string, error) {
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return sb.String(), nil
}

// ParseTemplate parses a text/template string such as
// "{{.Title}}: {{.Content}}". An empty string yields a nil Template.
func ParseTemplate(text string) (Template, error) {
	if text == "" {
		return nil, nil
	}
	tmpl, err := template.New("toast").Funcs(template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &textTemplate{tmpl: tmpl}, nil
}

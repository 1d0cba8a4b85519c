package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePosition(t *testing.T) {
	for _, p := range ValidPositions() {
		got, err := ParsePosition(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := ParsePosition("middle-earth")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestParseTypeDefaults(t *testing.T) {
	typ, err := ParseType("")
	require.NoError(t, err)
	assert.Equal(t, TypeInfo, typ)

	ct, err := ParseContentType("")
	require.NoError(t, err)
	assert.Equal(t, ContentText, ct)

	_, err = ParseType("fatal")
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = ParseContentType("pdf")
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestResolve_Validation(t *testing.T) {
	tests := []struct {
		name  string
		spec  Spec
		field string
	}{
		{
			name:  "missing content",
			spec:  Spec{Title: "hi"},
			field: "content",
		},
		{
			name:  "missing custom content",
			spec:  Spec{ContentType: ContentCustom},
			field: "content",
		},
		{
			name:  "negative duration",
			spec:  Spec{Content: "x"}.WithDuration(-time.Second),
			field: "duration",
		},
		{
			name:  "unknown position",
			spec:  Spec{Content: "x", Position: "left"},
			field: "position",
		},
		{
			name:  "unknown type",
			spec:  Spec{Content: "x", Type: "debug"},
			field: "type",
		},
		{
			name:  "unknown content type",
			spec:  Spec{Content: "x", ContentType: "pdf"},
			field: "content_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(DefaultOptions(), tt.spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSpec)

			var specErr *SpecError
			require.True(t, errors.As(err, &specErr))
			assert.Equal(t, tt.field, specErr.Field)
		})
	}
}

func TestResolve_SpecWins(t *testing.T) {
	defaults := DefaultOptions()

	r, err := Resolve(defaults, Spec{
		Content:  "saved",
		Type:     TypeSuccess,
		Position: PositionBottomLeft,
		Theme:    "dark",
	}.WithDuration(0).WithProgress(false))
	require.NoError(t, err)

	assert.Equal(t, TypeSuccess, r.Type)
	assert.Equal(t, PositionBottomLeft, r.Position)
	assert.Equal(t, "dark", r.Theme)
	assert.Equal(t, time.Duration(0), r.Duration)
	assert.False(t, r.ShowProgress)
	assert.Equal(t, defaults.Animation, r.Animation)
}

func TestResolve_DefaultsUntouched(t *testing.T) {
	defaults := DefaultOptions()

	_, err := Resolve(defaults, Spec{Content: "a", Position: PositionCenter})
	require.NoError(t, err)

	r, err := Resolve(defaults, Spec{Content: "b"})
	require.NoError(t, err)
	assert.Equal(t, PositionTopRight, r.Position)
	assert.Equal(t, PositionTopRight, defaults.Position)
}

func TestResolve_Defaults(t *testing.T) {
	r, err := Resolve(DefaultOptions(), Spec{Content: "hello"})
	require.NoError(t, err)

	assert.Equal(t, TypeInfo, r.Type)
	assert.Equal(t, ContentText, r.ContentType)
	assert.Equal(t, 3*time.Second, r.Duration)
	assert.True(t, r.ShowProgress)
}

func TestActive_ContentTruncated(t *testing.T) {
	a := Active{Content: "line one\nline   two"}

	assert.Equal(t, "line one line two", a.ContentTruncated(100))
	assert.Equal(t, "line o...", a.ContentTruncated(9))
	assert.Equal(t, "lin", a.ContentTruncated(3))
	assert.Equal(t, "", a.ContentTruncated(0))

	// Cuts on runes, never inside a multi-byte character.
	wide := Active{Content: "ünïcödé ✓ done"}
	assert.Equal(t, "ünïcö...", wide.ContentTruncated(8))
	assert.Equal(t, "ün", wide.ContentTruncated(2))
	assert.Equal(t, "ünïcödé ✓ done", wide.ContentTruncated(14))
}

func TestNewID(t *testing.T) {
	a, err := NewID(time.Now())
	require.NoError(t, err)
	b, err := NewID(time.Now())
	require.NoError(t, err)

	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}

func TestTemplates(t *testing.T) {
	data := TemplateData{Type: TypeWarning, Title: "Disk", Content: "90% full"}

	out, err := StaticTemplate("<b>static</b>").Execute(data)
	require.NoError(t, err)
	assert.Equal(t, "<b>static</b>", out)

	fn := TemplateFunc(func(d TemplateData) (string, error) {
		return string(d.Type) + ":" + d.Title, nil
	})
	out, err = fn.Execute(data)
	require.NoError(t, err)
	assert.Equal(t, "warning:Disk", out)

	tmpl, err := ParseTemplate("{{.Title | upper}} - {{.Content}}")
	require.NoError(t, err)
	out, err = tmpl.Execute(data)
	require.NoError(t, err)
	assert.Equal(t, "DISK - 90% full", out)

	tmpl, err = ParseTemplate("")
	require.NoError(t, err)
	assert.Nil(t, tmpl)

	_, err = ParseTemplate("{{.Title")
	assert.Error(t, err)
}

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toastd/internal/dbus"
	"github.com/jmylchreest/toastd/internal/model"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testEntries() []dbus.ActiveEntry {
	return []dbus.ActiveEntry{
		{
			DBusID: 7,
			Active: model.Active{
				ID:          "01JXA",
				Position:    model.PositionTopRight,
				Type:        model.TypeSuccess,
				Title:       "Build",
				Content:     "all tests\npassed",
				ContentType: model.ContentText,
				State:       "active",
				CreatedAt:   testNow.Add(-5 * time.Minute),
				Duration:    0,
			},
		},
		{
			Active: model.Active{
				ID:          "01JXB",
				Position:    model.PositionBottomLeft,
				Type:        model.TypeWarning,
				Content:     "disk almost full",
				ContentType: model.ContentText,
				State:       "active",
				CreatedAt:   testNow.Add(-time.Second),
				Duration:    3 * time.Second,
			},
		},
	}
}

func testOptions() FormatterOptions {
	opts := DefaultFormatterOptions()
	opts.Now = func() time.Time { return testNow }
	return opts
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(testOptions()).Format(&buf, testEntries()))

	out := buf.String()
	assert.Contains(t, out, "[1] #7 + top-right active \"Build\" (5 minutes ago, persistent)")
	assert.Contains(t, out, "    all tests passed")
	assert.Contains(t, out, "[2] ! bottom-left active")
	assert.Contains(t, out, "2s left")
}

func TestPlainFormatter_CustomTemplate(t *testing.T) {
	opts := testOptions()
	opts.Template = "{{.Index}} {{typeIcon .Toast.Type}} {{truncate .Toast.Content 8}}"

	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(opts).Format(&buf, testEntries()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1 + all t...", lines[0])
	assert.Equal(t, "2 ! disk ...", lines[1])
}

func TestDmenuFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewDmenuFormatter(testOptions()).Format(&buf, testEntries()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "7 | 5 minutes ago | success | Build: all tests passed", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "-2 | "))
}

func TestDmenuFormatter_TruncateBody(t *testing.T) {
	opts := testOptions()
	opts.BodyMaxLen = 10
	opts.ShowIndex = false
	opts.ShowTime = false

	var buf bytes.Buffer
	require.NoError(t, NewDmenuFormatter(opts).Format(&buf, testEntries()[1:]))
	assert.Equal(t, "warning | disk al...\n", buf.String())
}

func TestIDsFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewIDsFormatter().Format(&buf, testEntries()))
	assert.Equal(t, "7\n", buf.String())
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, testEntries()))

	var result []dbus.ActiveEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	require.Len(t, result, 2)
	assert.Equal(t, uint32(7), result[0].DBusID)
	assert.Equal(t, "Build", result[0].Title)

	buf.Reset()
	require.NoError(t, NewJSONFormatter().Format(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter().Format(&buf, testEntries()))

	out := buf.String()
	assert.Contains(t, out, "dbus_id: 7")
	assert.Contains(t, out, "title: Build")

	var result []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &result))
	require.Len(t, result, 2)
	assert.Equal(t, "disk almost full", result[1]["content"])
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"plain", "dmenu", "json", "yaml", "ids", "JSON"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}

	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPlain, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestNewFormatter(t *testing.T) {
	opts := testOptions()

	_, ok := NewFormatter(FormatPlain, opts).(*PlainFormatter)
	assert.True(t, ok)
	_, ok = NewFormatter(FormatDmenu, opts).(*DmenuFormatter)
	assert.True(t, ok)
	_, ok = NewFormatter(FormatJSON, opts).(*JSONFormatter)
	assert.True(t, ok)
	_, ok = NewFormatter(FormatYAML, opts).(*YAMLFormatter)
	assert.True(t, ok)
	_, ok = NewFormatter(FormatIDs, opts).(*IDsFormatter)
	assert.True(t, ok)
	_, ok = NewFormatter("unknown", opts).(*PlainFormatter)
	assert.True(t, ok, "unknown formats fall back to plain")
}

func TestRemaining(t *testing.T) {
	a := model.Active{CreatedAt: testNow, Duration: 3 * time.Second}
	assert.Equal(t, "3s left", remaining(a, testNow))
	assert.Equal(t, "expiring", remaining(a, testNow.Add(4*time.Second)))
	assert.Equal(t, "persistent", remaining(model.Active{}, testNow))
}

func TestSanitizeBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		maxLen   int
		expected string
	}{
		{"simple", "hello world", 0, "hello world"},
		{"with newlines", "hello\nworld", 0, "hello world"},
		{"truncate", "hello world", 8, "hello..."},
		{"multiple spaces", "hello   world", 0, "hello world"},
		{"tiny limit", "hello", 2, "he"},
		{"multibyte", "héllo wörld", 8, "héllo..."},
		{"multibyte tiny limit", "日本語テキスト", 2, "日本"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeBody(model.Active{Content: tt.body}, tt.maxLen)
			assert.Equal(t, tt.expected, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "ünï...", truncate("ünïcödé text", 6))
	assert.Equal(t, "ü", truncate("ünï", 1))
	assert.Equal(t, "short", truncate("short", 0))
}

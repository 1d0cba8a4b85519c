package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/toast"
)

type stringer struct{ v string }

func (s stringer) String() string { return s.v }

func request(ct model.ContentType, content string) toast.RenderRequest {
	return toast.RenderRequest{
		ID: "01J00000000000000000000000",
		Resolved: model.Resolved{
			Type:        model.TypeInfo,
			Title:       "Title",
			Content:     content,
			ContentType: ct,
		},
	}
}

func TestBody(t *testing.T) {
	tests := []struct {
		name    string
		req     toast.RenderRequest
		want    string
		wantErr bool
	}{
		{
			name: "text",
			req:  request(model.ContentText, "plain <b>not html</b>"),
			want: "plain <b>not html</b>",
		},
		{
			name: "html",
			req:  request(model.ContentHTML, "<p>Build <b>passed</b> &amp; deployed</p><p>second</p>"),
			want: "Build passed & deployed\nsecond",
		},
		{
			name: "image",
			req:  request(model.ContentImage, "/tmp/screens/shot.png"),
			want: "[image] shot.png",
		},
		{
			name: "audio",
			req:  request(model.ContentAudio, "https://example.com/ping.ogg"),
			want: "[audio] ping.ogg",
		},
		{
			name: "video",
			req:  request(model.ContentVideo, "clip.mp4"),
			want: "[video] clip.mp4",
		},
		{
			name: "custom stringer",
			req: func() toast.RenderRequest {
				r := request(model.ContentCustom, "")
				r.Custom = stringer{"from widget"}
				return r
			}(),
			want: "from widget",
		},
		{
			name: "custom falls back to content",
			req:  request(model.ContentCustom, "fallback"),
			want: "fallback",
		},
		{
			name: "custom unsupported",
			req: func() toast.RenderRequest {
				r := request(model.ContentCustom, "")
				r.Custom = 42
				return r
			}(),
			wantErr: true,
		},
		{
			name:    "unknown content type",
			req:     request("pdf", "x"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Body(tt.req)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, toast.ErrRenderFailure)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBody_Template(t *testing.T) {
	req := request(model.ContentText, "90% full")
	req.Title = "Disk"
	req.Template = model.TemplateFunc(func(d model.TemplateData) (string, error) {
		return "<b>" + d.Title + "</b><br>" + d.Content, nil
	})

	got, err := Body(req)
	require.NoError(t, err)
	assert.Equal(t, "Disk\n90% full", got)

	req.Template = model.TemplateFunc(func(model.TemplateData) (string, error) {
		return "", errors.New("boom")
	})
	_, err = Body(req)
	assert.ErrorIs(t, err, toast.ErrRenderFailure)
}

func TestHTMLToText(t *testing.T) {
	got, err := HTMLToText(`<ul><li>one</li><li>two</li></ul><script>alert(1)</script><img alt="logo" src="x.png">`)
	require.NoError(t, err)
	assert.Equal(t, "• one\n• two\n[logo]", got)
}

package render

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/toast"
)

// Body returns the text a renderer should draw for req. A template, when
// set, replaces the default layout and its output is read as markup.
func Body(req toast.RenderRequest) (string, error) {
	if req.Template != nil {
		out, err := req.Template.Execute(model.TemplateData{
			Type:    req.Type,
			Title:   req.Title,
			Content: req.Content,
		})
		if err != nil {
			return "", &toast.RenderError{ContentType: req.ContentType, Message: "failed to execute template", Cause: err}
		}
		return HTMLToText(out)
	}

	switch req.ContentType {
	case model.ContentText, "":
		return req.Content, nil
	case model.ContentHTML:
		return HTMLToText(req.Content)
	case model.ContentImage, model.ContentVideo, model.ContentAudio:
		return MediaLabel(req.ContentType, req.Content), nil
	case model.ContentCustom:
		return customBody(req)
	}

	return "", &toast.RenderError{ContentType: req.ContentType, Message: fmt.Sprintf("unsupported content type %q", req.ContentType)}
}

func customBody(req toast.RenderRequest) (string, error) {
	switch v := req.Custom.(type) {
	case nil:
		return req.Content, nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return "", &toast.RenderError{
		ContentType: model.ContentCustom,
		Message:     fmt.Sprintf("cannot draw custom content of type %T", req.Custom),
	}
}

// MediaLabel describes a media reference for renderers that cannot embed it.
func MediaLabel(ct model.ContentType, src string) string {
	name := path.Base(src)
	if name == "." || name == "/" {
		name = src
	}
	return "[" + string(ct) + "] " + name
}

// HTMLToText flattens an HTML fragment to plain text. Block elements and
// <br> become line breaks, list items get a bullet, and script and style
// are dropped.
func HTMLToText(fragment string) (string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return "", &toast.RenderError{ContentType: model.ContentHTML, Message: "failed to parse html", Cause: err}
	}

	var sb strings.Builder
	for _, n := range nodes {
		writeText(&sb, n)
	}

	lines := strings.Split(sb.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "head":
			return
		case "br":
			sb.WriteByte('\n')
			return
		case "li":
			sb.WriteString("\n• ")
		case "img":
			for _, a := range n.Attr {
				if a.Key == "alt" && a.Val != "" {
					sb.WriteString("[" + a.Val + "]")
				}
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}

	if n.Type == html.ElementNode && isBlock(n.Data) {
		sb.WriteByte('\n')
	}
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "ul", "ol", "li", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "blockquote", "tr", "table", "section":
		return true
	}
	return false
}

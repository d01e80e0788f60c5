package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer converts markdown into HTML with a fixed extension set:
// strikethrough, tables and task lists. Everything else stays at the
// goldmark default, so raw HTML in the source is omitted.
//
// A Renderer holds no per-call state and is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New returns a Renderer with strikethrough, table and task list support.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Strikethrough,
				extension.Table,
				extension.TaskList,
			),
		),
	}
}

// Render returns the HTML for src. It never fails: goldmark renders
// malformed input best-effort, and the only error source is the output
// writer, which is an in-memory buffer here.
func (r *Renderer) Render(src string) string {
	var buf bytes.Buffer
	_ = r.md.Convert([]byte(src), &buf)
	return buf.String()
}

var std = New()

// Markdown renders src with the default Renderer.
func Markdown(src string) string {
	return std.Render(src)
}

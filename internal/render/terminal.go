package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/yosssi/gohtml"
)

const (
	DefaultTermStyle = "dracula"
	DefaultWordWrap  = 80
)

// Terminal renders src for display in a terminal using glamour.
func Terminal(src, style string, width int) (string, error) {
	if style == "" {
		style = DefaultTermStyle
	}
	if width <= 0 {
		width = DefaultWordWrap
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(src)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// Pretty indents rendered HTML for reading.
func Pretty(html string) string {
	if html == "" {
		return ""
	}
	return gohtml.Format(html)
}

// Package present writes recent-file listings in the CLI output modes.
package present

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/mdreader/pkg/api"
)

type Mode int

const (
	ModePlain Mode = iota
	ModePretty
	ModeJSON
	ModeNDJSON
	ModeTUI
)

// Options controls how results are rendered.
type Options struct {
	Mode       Mode
	JSONIndent bool
	Headers    bool
	// Now anchors relative times in pretty mode.
	Now time.Time
}

// ParseMode parses a string like "plain", "pretty", "json", "ndjson", "tui".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "plain":
		return ModePlain, true
	case "pretty":
		return ModePretty, true
	case "json":
		return ModeJSON, true
	case "ndjson":
		return ModeNDJSON, true
	case "tui":
		return ModeTUI, true
	default:
		return ModePlain, false
	}
}

// RenderRecent writes files according to opts. ModeTUI is interactive and
// handled by the caller; here it falls back to pretty output.
func RenderRecent(w io.Writer, files []api.RecentFile, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		enc := json.NewEncoder(w)
		if opts.JSONIndent {
			enc.SetIndent("", "  ")
		}
		if files == nil {
			files = []api.RecentFile{}
		}
		return enc.Encode(files)
	case ModeNDJSON:
		enc := json.NewEncoder(w)
		for _, f := range files {
			if err := enc.Encode(f); err != nil {
				return err
			}
		}
		return nil
	case ModePretty, ModeTUI:
		return writePretty(w, files, opts.Now)
	default:
		return writePlain(w, files, opts.Headers)
	}
}

// TSV columns: path, opened_unix_ms, open_count
const headerLine = "path\topened_unix_ms\topen_count\n"

func esc(field string) string {
	field = strings.ReplaceAll(field, "\t", "\\t")
	field = strings.ReplaceAll(field, "\n", "\\n")
	return field
}

func writePlain(w io.Writer, files []api.RecentFile, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, headerLine)
	}
	for _, f := range files {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\n", esc(f.Path), f.OpenedAt.UnixMilli(), f.OpenCount)
	}
	return tw.Flush()
}

var (
	pathStyle  = lipgloss.NewStyle().Bold(true)
	metaStyle  = lipgloss.NewStyle().Faint(true)
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("57"))
)

func writePretty(w io.Writer, files []api.RecentFile, now time.Time) error {
	if len(files) == 0 {
		_, err := io.WriteString(w, metaStyle.Render("(no recent files)")+"\n")
		return err
	}
	if now.IsZero() {
		now = time.Now()
	}
	for _, f := range files {
		line := fmt.Sprintf("%s  %s  %s\n",
			pathStyle.Render(f.Path),
			metaStyle.Render(Ago(now, f.OpenedAt)),
			countStyle.Render(fmt.Sprintf("×%d", f.OpenCount)),
		)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Ago formats the time elapsed since t in a short human form.
func Ago(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}

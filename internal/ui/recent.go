// Package ui holds the interactive terminal views of the CLI.
package ui

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/mdreader/internal/present"
	"github.com/mithrel/mdreader/pkg/api"
)

// PickRecent opens a table of recent files and returns the chosen path, or
// "" when the user quits without choosing.
func PickRecent(ctx context.Context, in io.Reader, out io.Writer, files []api.RecentFile) (string, error) {
	m := newRecentModel(files, time.Now())
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	return final.(recentModel).chosen, nil
}

type recentModel struct {
	table  table.Model
	paths  []string
	chosen string
}

func newRecentModel(files []api.RecentFile, now time.Time) recentModel {
	cols := []table.Column{
		{Title: "File", Width: 60},
		{Title: "Opened", Width: 12},
		{Title: "Count", Width: 6},
	}
	rows := make([]table.Row, 0, len(files))
	paths := make([]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, table.Row{
			truncate(f.Path, 60),
			present.Ago(now, f.OpenedAt),
			strconv.FormatInt(f.OpenCount, 10),
		})
		paths = append(paths, f.Path)
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(12, max(3, len(rows)+3))),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return recentModel{table: t, paths: paths}
}

func (m recentModel) Init() tea.Cmd { return nil }

func (m recentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if i := m.table.Cursor(); i >= 0 && i < len(m.paths) {
				m.chosen = m.paths[i]
			}
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m recentModel) View() string {
	if len(m.paths) == 0 {
		return "(no recent files)\n"
	}
	return m.table.View() + "\n↑/↓ to navigate • enter to open • q to quit\n"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	// Keep the tail: the file name matters more than the leading directories.
	return "…" + string(r[len(r)-n+1:])
}

package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/mithrel/mdreader/pkg/api"
)

func TestRecentModelEnterChoosesRow(t *testing.T) {
	now := time.Now()
	m := newRecentModel([]api.RecentFile{
		{Path: "/a.md", OpenedAt: now, OpenCount: 1},
		{Path: "/b.md", OpenedAt: now, OpenCount: 2},
	}, now)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "/b.md", next.(recentModel).chosen)
	assert.NotNil(t, cmd)
}

func TestRecentModelQuitChoosesNothing(t *testing.T) {
	m := newRecentModel([]api.RecentFile{{Path: "/a.md"}}, time.Now())
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Empty(t, next.(recentModel).chosen)
}

func TestRecentModelEmpty(t *testing.T) {
	m := newRecentModel(nil, time.Now())
	assert.Contains(t, m.View(), "no recent files")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, next.(recentModel).chosen)
}

func TestTruncateKeepsTail(t *testing.T) {
	assert.Equal(t, "short.md", truncate("short.md", 10))
	got := truncate("/very/long/path/to/notes.md", 10)
	assert.Equal(t, 10, len([]rune(got)))
	assert.Equal(t, "…/notes.md", got)
}

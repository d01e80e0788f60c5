package present

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/mdreader/pkg/api"
)

var (
	now   = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	files = []api.RecentFile{
		{Path: "/docs/a.md", OpenedAt: now.Add(-5 * time.Minute), OpenCount: 3},
		{Path: "/docs/tab\tname.md", OpenedAt: now.Add(-50 * time.Hour), OpenCount: 1},
	}
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"plain": ModePlain, "pretty": ModePretty, "json": ModeJSON, "ndjson": ModeNDJSON, "tui": ModeTUI} {
		got, ok := ParseMode(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseMode("yaml")
	assert.False(t, ok)
}

func TestRenderPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderRecent(&buf, files, Options{Mode: ModePlain, Headers: true}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "path"))
	assert.Contains(t, lines[1], "/docs/a.md")
	assert.Contains(t, lines[2], `tab\tname.md`)
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderRecent(&buf, files, Options{Mode: ModeJSON, JSONIndent: true}))
	var got []api.RecentFile
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got, 2)

	buf.Reset()
	require.NoError(t, RenderRecent(&buf, nil, Options{Mode: ModeJSON}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestRenderNDJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderRecent(&buf, files, Options{Mode: ModeNDJSON}))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestRenderPretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderRecent(&buf, files, Options{Mode: ModePretty, Now: now}))
	out := buf.String()
	assert.Contains(t, out, "/docs/a.md")
	assert.Contains(t, out, "5m ago")
	assert.Contains(t, out, "2d ago")

	buf.Reset()
	require.NoError(t, RenderRecent(&buf, nil, Options{Mode: ModePretty}))
	assert.Contains(t, buf.String(), "no recent files")
}

func TestAgo(t *testing.T) {
	assert.Equal(t, "just now", Ago(now, now.Add(-10*time.Second)))
	assert.Equal(t, "3h ago", Ago(now, now.Add(-3*time.Hour)))
}

package watch

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := New(20*time.Millisecond, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func run(t *testing.T, w *Watcher) <-chan string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	changes := make(chan string, 16)
	go func() {
		_ = w.Run(ctx, func(p string) { changes <- p })
	}()
	return changes
}

func TestSyncTracksFiles(t *testing.T) {
	w := newTestWatcher(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	b := filepath.Join(dir, "sub", "..", "b.md")

	require.NoError(t, w.Sync([]string{a, b}))
	assert.True(t, w.Tracked(a))
	assert.True(t, w.Tracked(filepath.Join(dir, "b.md")))

	require.NoError(t, w.Sync([]string{a}))
	assert.True(t, w.Tracked(a))
	assert.False(t, w.Tracked(filepath.Join(dir, "b.md")))
}

func TestSyncMissingDirectory(t *testing.T) {
	w := newTestWatcher(t)
	missing := filepath.Join(t.TempDir(), "gone", "a.md")
	assert.Error(t, w.Sync([]string{missing}))
	assert.False(t, w.Tracked(missing))
}

func TestRunReportsWrites(t *testing.T) {
	w := newTestWatcher(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	other := filepath.Join(dir, "other.md")
	require.NoError(t, os.WriteFile(a, []byte("one"), 0o600))
	require.NoError(t, w.Sync([]string{a}))
	changes := run(t, w)

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o600))
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(a, []byte("two"), 0o600))
	}

	select {
	case got := <-changes:
		assert.Equal(t, a, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestRunSeesAtomicSave(t *testing.T) {
	w := newTestWatcher(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(a, []byte("one"), 0o600))
	require.NoError(t, w.Sync([]string{a}))
	changes := run(t, w)

	tmp := filepath.Join(dir, ".a.md.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("two"), 0o600))
	require.NoError(t, os.Rename(tmp, a))

	select {
	case got := <-changes:
		assert.Equal(t, a, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w := newTestWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(string) {}) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

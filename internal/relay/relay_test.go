package relay

import (
	"bytes"
	"context"
	"errors"
	"log"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/mdreader/pkg/api"
)

type emitted struct {
	event   string
	payload any
}

type fakeSurface struct {
	mu   sync.Mutex
	sent []emitted
	err  error
}

func (f *fakeSurface) Emit(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, emitted{event: event, payload: payload})
	return nil
}

func (f *fakeSurface) events() []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emitted(nil), f.sent...)
}

type fakeLocator map[string]*fakeSurface

func (l fakeLocator) Surface(label string) (Surface, bool) {
	s, ok := l[label]
	if !ok {
		return nil, false
	}
	return s, true
}

func quietLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(buf, "", 0)
}

func absRoot() string {
	if runtime.GOOS == "windows" {
		return `C:\`
	}
	return "/"
}

func TestResolve(t *testing.T) {
	cwd := filepath.Join(absRoot(), "home", "user")

	t.Run("relative joined with cwd", func(t *testing.T) {
		p := filepath.Join("docs", "readme.md")
		assert.Equal(t, filepath.Join(cwd, p), Resolve(p, cwd))
	})

	t.Run("dot segments cleaned by join", func(t *testing.T) {
		assert.Equal(t, filepath.Join(absRoot(), "home", "notes.md"), Resolve(filepath.Join("..", "notes.md"), cwd))
	})

	t.Run("absolute unchanged", func(t *testing.T) {
		abs := filepath.Join(absRoot(), "tmp", "a.md")
		assert.Equal(t, abs, Resolve(abs, cwd))
	})

	t.Run("idempotent", func(t *testing.T) {
		once := Resolve("a.md", cwd)
		assert.Equal(t, once, Resolve(once, filepath.Join(absRoot(), "elsewhere")))
	})
}

func TestRelayAbsentSendsNothing(t *testing.T) {
	s := &fakeSurface{}
	r := New(fakeLocator{MainSurface: s}, Options{Log: quietLogger(&bytes.Buffer{})})
	ready := make(chan struct{})
	close(ready)

	err, open := <-r.Relay(context.Background(), Argument{}, ready)
	assert.False(t, open)
	assert.NoError(t, err)
	assert.Empty(t, s.events())
}

func TestRelaySendsOnceAfterReady(t *testing.T) {
	s := &fakeSurface{}
	cwd := filepath.Join(absRoot(), "work")
	r := New(fakeLocator{MainSurface: s}, Options{
		WorkingDir: func() (string, error) { return cwd, nil },
		Log:        quietLogger(&bytes.Buffer{}),
	})
	ready := make(chan struct{})

	done := r.Relay(context.Background(), Arg("notes.md"), ready)

	// Nothing may be sent before readiness.
	select {
	case <-done:
		t.Fatal("relay finished before ready fired")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Empty(t, s.events())

	close(ready)
	require.NoError(t, <-done)

	got := s.events()
	require.Len(t, got, 1)
	assert.Equal(t, api.EventOpenFile, got[0].event)
	assert.Equal(t, filepath.Join(cwd, "notes.md"), got[0].payload)
}

func TestRelayAbsolutePathUntouched(t *testing.T) {
	s := &fakeSurface{}
	r := New(fakeLocator{MainSurface: s}, Options{
		WorkingDir: func() (string, error) {
			t.Fatal("working directory consulted for absolute path")
			return "", nil
		},
		Log: quietLogger(&bytes.Buffer{}),
	})
	ready := make(chan struct{})
	close(ready)
	abs := filepath.Join(absRoot(), "srv", "doc.md")

	require.NoError(t, <-r.Relay(context.Background(), Arg(abs), ready))
	require.Len(t, s.events(), 1)
	assert.Equal(t, abs, s.events()[0].payload)
}

func TestRelayWorkingDirFailureFallsBackToRaw(t *testing.T) {
	s := &fakeSurface{}
	var logs bytes.Buffer
	r := New(fakeLocator{MainSurface: s}, Options{
		WorkingDir: func() (string, error) { return "", errors.New("cwd removed") },
		Log:        quietLogger(&logs),
	})
	ready := make(chan struct{})
	close(ready)

	require.NoError(t, <-r.Relay(context.Background(), Arg("rel.md"), ready))
	require.Len(t, s.events(), 1)
	assert.Equal(t, "rel.md", s.events()[0].payload)
	assert.Contains(t, logs.String(), "cwd removed")
}

func TestRelayRejectsNonText(t *testing.T) {
	s := &fakeSurface{}
	var logs bytes.Buffer
	r := New(fakeLocator{MainSurface: s}, Options{Log: quietLogger(&logs)})
	ready := make(chan struct{})
	close(ready)

	err := <-r.Relay(context.Background(), Arg("bad\xff.md"), ready)
	assert.ErrorIs(t, err, ErrNotText)
	assert.Empty(t, s.events())
	assert.Contains(t, logs.String(), "ignoring launch argument")
}

func TestRelayMissingSurfaceIsNotFatal(t *testing.T) {
	var logs bytes.Buffer
	r := New(fakeLocator{}, Options{Log: quietLogger(&logs)})
	ready := make(chan struct{})
	close(ready)

	err := <-r.Relay(context.Background(), Arg("/x.md"), ready)
	assert.ErrorIs(t, err, ErrSurfaceNotFound)
	assert.Contains(t, logs.String(), "display surface not found")
}

func TestRelayReadyTimeout(t *testing.T) {
	s := &fakeSurface{}
	r := New(fakeLocator{MainSurface: s}, Options{
		ReadyTimeout: 20 * time.Millisecond,
		Log:          quietLogger(&bytes.Buffer{}),
	})

	err := <-r.Relay(context.Background(), Arg("/x.md"), make(chan struct{}))
	assert.ErrorIs(t, err, ErrReadyTimeout)
	assert.Empty(t, s.events())
}

func TestRelayContextCanceled(t *testing.T) {
	s := &fakeSurface{}
	r := New(fakeLocator{MainSurface: s}, Options{Log: quietLogger(&bytes.Buffer{})})
	ctx, cancel := context.WithCancel(context.Background())
	done := r.Relay(ctx, Arg("/x.md"), make(chan struct{}))
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, s.events())
}

func TestRelayEmitFailureReported(t *testing.T) {
	s := &fakeSurface{err: errors.New("window closed")}
	r := New(fakeLocator{MainSurface: s}, Options{Log: quietLogger(&bytes.Buffer{})})
	ready := make(chan struct{})
	close(ready)

	err := <-r.Relay(context.Background(), Arg("/x.md"), ready)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window closed")
}

package ipc

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("socket not ready: %s", path)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestMessageStructRoundTrip(t *testing.T) {
	original := Message{Name: CmdOpen, Path: "/docs/readme.md"}
	s, err := toStruct(original)
	require.NoError(t, err)
	assert.Equal(t, original, fromStruct(s))

	r := Response{OK: true, Msg: "opened"}
	rs, err := responseToStruct(r)
	require.NoError(t, err)
	assert.Equal(t, r, responseFromStruct(rs))
}

func TestServeAndForward(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "test.sock")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []Message
	go func() {
		_ = Serve(ctx, sock, func(_ context.Context, m Message) Response {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, m)
			switch m.Name {
			case CmdPing:
				return Response{OK: true}
			case CmdOpen:
				if m.Path == "" {
					return Response{OK: false, Msg: "missing path"}
				}
				return Response{OK: true}
			}
			return Response{OK: false, Msg: "unknown command"}
		})
	}()
	waitForSocket(t, sock)

	assert.True(t, Ping(ctx, sock))
	require.NoError(t, Forward(ctx, sock, "/docs/a.md"))
	err := Forward(ctx, sock, "")
	require.Error(t, err)
	assert.Equal(t, "missing path", err.Error())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 3)
	assert.Equal(t, Message{Name: CmdOpen, Path: "/docs/a.md"}, got[1])
}

func TestPingWithoutServer(t *testing.T) {
	assert.False(t, Ping(context.Background(), filepath.Join(t.TempDir(), "none.sock")))
}

func TestSocketPathUsesRuntimeDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)
	p, err := SocketPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mdreader.sock"), p)
}

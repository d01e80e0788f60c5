package launch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const url = "http://127.0.0.1:1234/?token=abc&window=main"

func TestCommandPlatforms(t *testing.T) {
	cmd, err := Command("", "darwin", url)
	require.NoError(t, err)
	assert.Equal(t, []string{"open", url}, cmd.Args)

	cmd, err = Command("", "windows", url)
	require.NoError(t, err)
	assert.Equal(t, []string{"rundll32", "url.dll,FileProtocolHandler", url}, cmd.Args)
}

func TestCommandLinuxWithoutOpener(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := Command("", "linux", url)
	assert.ErrorIs(t, err, ErrNoBrowser)
}

func TestCommandLinuxFindsOpener(t *testing.T) {
	bin := t.TempDir()
	opener := filepath.Join(bin, "xdg-open")
	require.NoError(t, os.WriteFile(opener, []byte("#!/bin/sh\n"), 0o755))
	t.Setenv("PATH", bin)

	cmd, err := Command("", "linux", url)
	require.NoError(t, err)
	assert.Equal(t, []string{opener, url}, cmd.Args)
}

func TestCommandCustom(t *testing.T) {
	cmd, err := Command("firefox --new-window", "linux", url)
	require.NoError(t, err)
	assert.Equal(t, "sh", cmd.Args[0])
	assert.Contains(t, cmd.Env, "BROWSERCMD=firefox --new-window")
	assert.Contains(t, cmd.Env, "TARGETURL="+url)
}

func TestOpenRunsCustomCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "url")
	script := filepath.Join(dir, "browser")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nprintf %s \"$1\" > \""+out+"\"\n"), 0o755))
	require.NoError(t, Open(script, url))

	require.Eventually(t, func() bool {
		b, err := os.ReadFile(out)
		return err == nil && strings.TrimSpace(string(b)) == url
	}, 2*time.Second, 10*time.Millisecond)
}

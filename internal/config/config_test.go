package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConfigValidityValid(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	v.Set("data_dir", "/tmp/mdreader")

	require.NoError(t, CheckConfigValidity(v))
}

func TestCheckConfigValidityInvalid(t *testing.T) {
	v := viper.New()
	v.Set("data_dir", "")
	v.Set("http_addr", "")
	v.Set("theme", "sepia")
	v.Set("relay.ready_timeout", "soon")
	v.Set("history.limit", 0)
	v.Set("render.word_wrap", -1)

	err := CheckConfigValidity(v)
	require.Error(t, err)

	msg := err.Error()
	expected := []string{
		"data_dir is required",
		"http_addr is required",
		`theme must be light or dark, got "sepia"`,
		"relay.ready_timeout must be a duration",
		"history.limit must be greater than 0",
		"render.word_wrap must not be negative",
	}
	for _, want := range expected {
		assert.Contains(t, msg, want)
	}
}

func TestCheckConfigValidityNonPositiveTimeout(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	v.Set("relay.ready_timeout", "0s")
	err := CheckConfigValidity(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay.ready_timeout must be greater than 0")
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.toml")
	content := "theme = \"dark\"\n[history]\nlimit = 7\n"
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o600))
	t.Setenv("MDREADER_HISTORY_LIMIT", "9")
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	v := viper.New()
	v.SetConfigFile(cfg)
	require.NoError(t, Load(context.Background(), v))

	assert.Equal(t, "dark", v.GetString("theme"))
	assert.Equal(t, 9, v.GetInt("history.limit"))
	assert.Equal(t, "127.0.0.1:0", v.GetString("http_addr"))
	assert.Equal(t, filepath.Join(dir, "data", "mdreader"), v.GetString("data_dir"))
	assert.Equal(t, 30*time.Second, ReadyTimeout(v))
	assert.Equal(t, filepath.Join(dir, "data", "mdreader", "mdreader.db"), ResolveDBPath(v))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, Load(context.Background(), v))
}

func TestRenderDefaultTOML(t *testing.T) {
	out := RenderDefaultTOML()
	for _, want := range []string{
		"http_addr = \"127.0.0.1:0\"",
		"[relay]\n# How long",
		"ready_timeout = \"30s\"",
		"[browser]",
		"open = true",
		"[history]",
		"limit = 50",
	} {
		assert.Contains(t, out, want)
	}

	// The rendered defaults must load back cleanly.
	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(out)))
	assert.Equal(t, "30s", v.GetString("relay.ready_timeout"))
	assert.True(t, v.GetBool("watch.enabled"))
}

func TestUpdateTOML(t *testing.T) {
	existing := "theme = \"dark\"\nlegacy = 1\n[history]\nlimit = 5\n"
	out, changed := UpdateTOML(existing)
	require.True(t, changed)

	assert.Contains(t, out, "theme = \"dark\"")
	assert.Contains(t, out, "# OUTDATED: option removed from config schema\n# legacy = 1")
	assert.Contains(t, out, "limit = 5")
	assert.Contains(t, out, "# Added by config update")
	assert.Contains(t, out, "ready_timeout = \"30s\"")
	assert.Equal(t, 1, strings.Count(out, "limit = "))

	again, changed := UpdateTOML(out)
	assert.False(t, changed)
	assert.Equal(t, out, again)
}

func TestUpdateTOMLKeepsTopLevelKeysOutOfSections(t *testing.T) {
	out, changed := UpdateTOML("[history]\nlimit = 5\n")
	require.True(t, changed)

	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(out)))
	assert.Equal(t, "127.0.0.1:0", v.GetString("http_addr"))
	assert.False(t, v.IsSet("history.http_addr"))
	assert.Equal(t, 5, v.GetInt("history.limit"))
}

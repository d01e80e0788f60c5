package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mithrel/mdreader/pkg/api"
)

const appName = "mdreader"

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
// The provided Viper instance is mutated with defaults, file contents, and env.
func Load(ctx context.Context, v *viper.Viper) error {
	// An explicit SetConfigFile upstream wins over the search paths.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, appName))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appName))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing file in the search paths is fine; a broken or missing
		// explicit file is not.
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	// Environment variables: MDREADER_* (highest among these sources)
	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		v.Set("data_dir", defaultDataDir())
	}
	if strings.TrimSpace(v.GetString("theme")) == "" {
		v.Set("theme", string(api.ThemeLight))
	}
	return nil
}

// defaultDataDir resolves default data dir: $XDG_DATA_HOME/mdreader or ~/.local/share/mdreader
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, appName, "config.toml")
}

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the default configuration options and their meanings.
// This is the single source of truth for default values and generator output.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; history DB is data_dir/mdreader.db"},
		{Key: "db_url", Default: "", Comment: "History store location; empty uses data_dir, \":memory:\" keeps history in memory"},
		{Key: "http_addr", Default: "127.0.0.1:0", Comment: "Listen address of the display surface; port 0 picks a free port"},
		{Key: "theme", Default: string(api.ThemeLight), Comment: "Initial theme when none was saved yet: light or dark"},

		{Key: "relay.ready_timeout", Default: "30s", Comment: "How long the launch path waits for the display surface to report ready"},
		{Key: "browser.open", Default: true, Comment: "Open the display surface in a browser on start"},
		{Key: "browser.command", Default: "", Comment: "Command used to open the surface URL; empty uses the OS default"},
		{Key: "history.limit", Default: 50, Comment: "Number of recent files kept in listings"},
		{Key: "watch.enabled", Default: true, Comment: "Reload open files when they change on disk"},
		{Key: "render.term_style", Default: "dracula", Comment: "glamour style used by `render --term`"},
		{Key: "render.word_wrap", Default: 80, Comment: "Word wrap width used by `render --term`"},
	}
}

// ResolveDBPath returns the sqlite history DB path under data_dir.
func ResolveDBPath(v *viper.Viper) string {
	dir := v.GetString("data_dir")
	if dir == "" {
		dir = defaultDataDir()
	}
	// Expand ~ for convenience
	if len(dir) > 0 && dir[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[1:])
		}
	}
	return filepath.Join(dir, appName+".db")
}

// CheckConfigValidity reports every invalid setting at once.
func CheckConfigValidity(v *viper.Viper) error {
	var errs []error
	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if strings.TrimSpace(v.GetString("http_addr")) == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if t := api.Theme(v.GetString("theme")); !t.Valid() {
		errs = append(errs, fmt.Errorf("theme must be light or dark, got %q", t))
	}
	if raw := v.GetString("relay.ready_timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("relay.ready_timeout must be a duration: %w", err))
		} else if d <= 0 {
			errs = append(errs, errors.New("relay.ready_timeout must be greater than 0"))
		}
	}
	if v.GetInt("history.limit") <= 0 {
		errs = append(errs, errors.New("history.limit must be greater than 0"))
	}
	if v.GetInt("render.word_wrap") < 0 {
		errs = append(errs, errors.New("render.word_wrap must not be negative"))
	}
	return errors.Join(errs...)
}

// ReadyTimeout returns relay.ready_timeout, or zero when unset or invalid.
func ReadyTimeout(v *viper.Viper) time.Duration {
	d, err := time.ParseDuration(v.GetString("relay.ready_timeout"))
	if err != nil {
		return 0
	}
	return d
}

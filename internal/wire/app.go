package wire

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"

	"github.com/mithrel/mdreader/internal/config"
	"github.com/mithrel/mdreader/internal/db"
	"github.com/mithrel/mdreader/internal/render"
)

// App aggregates the major services for easy injection.
type App struct {
	Cfg      *viper.Viper
	Log      *log.Logger
	Store    db.Store
	Renderer *render.Renderer
}

// BuildApp wires dependencies with the provided config. The config must
// already be loaded.
func BuildApp(ctx context.Context, cfg *viper.Viper) (*App, error) {
	if err := config.CheckConfigValidity(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := log.New(os.Stderr, "mdreader ", log.LstdFlags)
	dsn := cfg.GetString("db_url")
	if dsn == "" {
		dsn = config.ResolveDBPath(cfg)
	}
	store, err := db.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &App{
		Cfg:      cfg,
		Log:      logger,
		Store:    store,
		Renderer: render.New(),
	}, nil
}

// Close releases resources held by the app.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

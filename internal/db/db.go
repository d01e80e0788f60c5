package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mithrel/mdreader/pkg/api"
)

// Store persists viewer history and small settings.
type Store interface {
	TouchRecent(ctx context.Context, path string, at time.Time) error
	ListRecent(ctx context.Context, limit int) ([]api.RecentFile, error)
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
	// Tx runs fn in one transaction. Store calls made with the ctx passed to
	// fn join it; on sqlite an error from fn rolls everything back.
	Tx(ctx context.Context, fn func(ctx context.Context) error) error
	Close() error
}

// ErrNotFound is returned for a missing setting.
var ErrNotFound = errors.New("not found")

// MemDSN selects the in-memory store.
const MemDSN = ":memory:"

// Open returns a Store for dsn. An empty dsn, ":memory:" or "mem" yields an
// in-memory store; anything else is treated as a sqlite file path, with an
// optional sqlite:// prefix.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch strings.TrimSpace(dsn) {
	case "", MemDSN, "mem":
		return newMemStore(), nil
	}
	return openSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
}

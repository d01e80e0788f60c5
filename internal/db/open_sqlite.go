package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mithrel/mdreader/pkg/api"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type sqliteStore struct{ db *sqlx.DB }

// openSQLite connects to the sqlite file at path, creating its directory,
// and applies pending migrations.
func openSQLite(ctx context.Context, path string) (*sqliteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	conn, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("setting dialect for migrations: %w", err)
	}
	if err := goose.UpContext(ctx, conn.DB, "migrations"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}
	return &sqliteStore{db: conn}, nil
}

func (s *sqliteStore) TouchRecent(ctx context.Context, path string, at time.Time) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
INSERT INTO recent_files (path, opened_at, open_count) VALUES (?, ?, 1)
ON CONFLICT(path) DO UPDATE SET opened_at = excluded.opened_at, open_count = recent_files.open_count + 1`,
		path, at.UTC())
	if err != nil {
		return fmt.Errorf("touch recent %q: %w", path, err)
	}
	return nil
}

func (s *sqliteStore) ListRecent(ctx context.Context, limit int) ([]api.RecentFile, error) {
	q := `SELECT path, opened_at, open_count FROM recent_files ORDER BY opened_at DESC, path ASC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	var out []api.RecentFile
	if err := sqlx.SelectContext(ctx, s.conn(ctx), &out, q, args...); err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	for i := range out {
		out[i].OpenedAt = out[i].OpenedAt.UTC()
	}
	return out, nil
}

func (s *sqliteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := sqlx.GetContext(ctx, s.conn(ctx), &v, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return v, nil
}

func (s *sqliteStore) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("put setting %q: %w", key, err)
	}
	return nil
}

func (s *sqliteStore) Tx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing db: %w", err)
	}
	return nil
}

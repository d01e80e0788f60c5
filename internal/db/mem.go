package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mithrel/mdreader/pkg/api"
)

type memStore struct {
	mu       sync.RWMutex
	recent   map[string]api.RecentFile
	settings map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		recent:   make(map[string]api.RecentFile),
		settings: make(map[string]string),
	}
}

func (m *memStore) TouchRecent(ctx context.Context, path string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.recent[path]
	r.Path = path
	r.OpenedAt = at.UTC()
	r.OpenCount++
	m.recent[path] = r
	return nil
}

func (m *memStore) ListRecent(ctx context.Context, limit int) ([]api.RecentFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]api.RecentFile, 0, len(m.recent))
	for _, r := range m.recent {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].Path < out[j].Path
		}
		return out[i].OpenedAt.After(out[j].OpenedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *memStore) PutSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

// Tx runs fn directly. The mem store has no rollback.
func (m *memStore) Tx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memStore) Close() error { return nil }

// Package watch reports changes to the files shown in the viewer.
package watch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors produce on save.
const DefaultDebounce = 150 * time.Millisecond

// Watcher tracks a set of files. fsnotify watches their parent directories
// so that atomic saves (write to temp file, rename over target) are seen.
type Watcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration
	log      *log.Logger

	mu      sync.Mutex
	files   map[string]struct{}
	dirs    map[string]int
	pending map[string]*time.Timer
}

// New starts a Watcher that coalesces events within debounce.
func New(debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		fw:       fw,
		debounce: debounce,
		log:      logger,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]int),
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Sync replaces the tracked set with paths.
func (w *Watcher) Sync(paths []string) error {
	want := make(map[string]struct{}, len(paths))
	wantDirs := make(map[string]int)
	for _, p := range paths {
		p = filepath.Clean(p)
		if _, ok := want[p]; ok {
			continue
		}
		want[p] = struct{}{}
		wantDirs[filepath.Dir(p)]++
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for d := range wantDirs {
		if _, ok := w.dirs[d]; ok {
			continue
		}
		if err := w.fw.Add(d); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("watch %s: %w", d, err)
			}
			for p := range want {
				if filepath.Dir(p) == d {
					delete(want, p)
				}
			}
			delete(wantDirs, d)
		}
	}
	for d := range w.dirs {
		if _, ok := wantDirs[d]; !ok {
			_ = w.fw.Remove(d)
		}
	}
	w.files = want
	w.dirs = wantDirs
	return firstErr
}

// Tracked reports whether path is currently watched.
func (w *Watcher) Tracked(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[filepath.Clean(path)]
	return ok
}

// Run delivers debounced change notifications to onChange until ctx is done
// or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	defer w.stopPending()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			path := filepath.Clean(ev.Name)
			if !w.Tracked(path) {
				continue
			}
			w.schedule(ctx, path, onChange)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.Printf("watch: %v", err)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, path string, onChange func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		onChange(path)
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.pending {
		t.Stop()
		delete(w.pending, p)
	}
}

func (w *Watcher) Close() error {
	return w.fw.Close()
}

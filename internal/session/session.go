// Package session tracks the documents open in the display surface.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mithrel/mdreader/internal/db"
	"github.com/mithrel/mdreader/pkg/api"
)

// Errors returned by Session operations.
var (
	ErrNotMarkdown = errors.New("not a markdown or text file")
	ErrNoTab       = errors.New("no such tab")
)

const themeKey = "theme"

// Extensions accepted when files are dropped onto the surface.
var Extensions = []string{".md", ".markdown", ".txt"}

// IsMarkdownPath reports whether path has one of Extensions.
func IsMarkdownPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// isText reports whether data sniffs as some text/* type.
func isText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}

// Options configures a Session. Zero values fall back to the OS and wall clock.
type Options struct {
	ReadFile     func(string) ([]byte, error)
	Now          func() time.Time
	DefaultTheme api.Theme
	Log          *log.Logger
	// OnChange is called with the open paths after tabs are added or removed.
	OnChange func(paths []string)
}

// Session holds the ordered tab list and the active tab. It is safe for
// concurrent use by HTTP handlers, the IPC server and the file watcher.
type Session struct {
	mu     sync.Mutex
	tabs   []api.Tab
	active string

	store    db.Store
	readFile func(string) ([]byte, error)
	now      func() time.Time
	theme    api.Theme
	log      *log.Logger
	onChange func([]string)
}

// New returns an empty session backed by store, which may be nil.
func New(store db.Store, opts Options) *Session {
	s := &Session{
		store:    store,
		readFile: opts.ReadFile,
		now:      opts.Now,
		theme:    opts.DefaultTheme,
		log:      opts.Log,
		onChange: opts.OnChange,
	}
	if s.readFile == nil {
		s.readFile = os.ReadFile
	}
	if s.now == nil {
		s.now = time.Now
	}
	if !s.theme.Valid() {
		s.theme = api.ThemeLight
	}
	if s.log == nil {
		s.log = log.Default()
	}
	return s
}

func (s *Session) load(path string) (api.Tab, error) {
	data, err := s.readFile(path)
	if err != nil {
		return api.Tab{}, fmt.Errorf("read %s: %w", path, err)
	}
	if !isText(data) {
		return api.Tab{}, fmt.Errorf("%s: %w", path, ErrNotMarkdown)
	}
	t := api.Tab{
		Path:     path,
		Name:     filepath.Base(path),
		Content:  string(data),
		LoadedAt: s.now().UTC(),
	}
	t.Hash = t.Fingerprint()
	return t, nil
}

// Check reports whether path could be opened: it must be readable and
// sniff as text.
func (s *Session) Check(path string) error {
	_, err := s.load(filepath.Clean(path))
	return err
}

func (s *Session) indexOf(pred func(api.Tab) bool) int {
	for i, t := range s.tabs {
		if pred(t) {
			return i
		}
	}
	return -1
}

func byPath(path string) func(api.Tab) bool {
	return func(t api.Tab) bool { return t.Path == path }
}

func byID(id string) func(api.Tab) bool {
	return func(t api.Tab) bool { return t.ID == id }
}

// Open shows path in a tab. A path that is already open is activated
// without being read again.
func (s *Session) Open(ctx context.Context, path string) (api.Tab, error) {
	path = filepath.Clean(path)
	s.mu.Lock()
	if i := s.indexOf(byPath(path)); i >= 0 {
		s.active = s.tabs[i].ID
		t := s.tabs[i]
		s.mu.Unlock()
		return t, nil
	}
	s.mu.Unlock()

	t, err := s.load(path)
	if err != nil {
		return api.Tab{}, err
	}

	s.mu.Lock()
	if i := s.indexOf(byPath(path)); i >= 0 {
		// Opened concurrently while we were reading.
		s.active = s.tabs[i].ID
		t = s.tabs[i]
		s.mu.Unlock()
		return t, nil
	}
	t.ID = api.NewID()
	s.tabs = append(s.tabs, t)
	s.active = t.ID
	s.mu.Unlock()

	s.touch(ctx, path)
	s.changed()
	return t, nil
}

// OpenMany handles a drop of several paths. Only markdown and text files are
// considered; unreadable ones are skipped. The first newly opened tab becomes
// active, or, if every file was already open, the first of those.
func (s *Session) OpenMany(ctx context.Context, paths []string) api.TabList {
	candidates := make([]string, 0, len(paths))
	for _, p := range paths {
		if IsMarkdownPath(p) {
			candidates = append(candidates, filepath.Clean(p))
		}
	}
	if len(candidates) == 0 {
		return s.List()
	}

	var loaded []api.Tab
	for _, p := range candidates {
		s.mu.Lock()
		open := s.indexOf(byPath(p)) >= 0
		s.mu.Unlock()
		if open {
			loaded = append(loaded, api.Tab{Path: p})
			continue
		}
		t, err := s.load(p)
		if err != nil {
			s.log.Printf("session: skip dropped file: %v", err)
			continue
		}
		loaded = append(loaded, t)
	}

	s.mu.Lock()
	firstNew, firstExisting := "", ""
	var touched []string
	for _, t := range loaded {
		if i := s.indexOf(byPath(t.Path)); i >= 0 {
			if firstExisting == "" {
				firstExisting = s.tabs[i].ID
			}
			continue
		}
		t.ID = api.NewID()
		s.tabs = append(s.tabs, t)
		touched = append(touched, t.Path)
		if firstNew == "" {
			firstNew = t.ID
		}
	}
	switch {
	case firstNew != "":
		s.active = firstNew
	case firstExisting != "":
		s.active = firstExisting
	}
	s.mu.Unlock()

	if len(touched) > 0 {
		s.touchAll(ctx, touched)
		s.changed()
	}
	return s.List()
}

// touchAll records a whole drop in one history transaction.
func (s *Session) touchAll(ctx context.Context, paths []string) {
	if s.store == nil {
		return
	}
	at := s.now()
	err := s.store.Tx(ctx, func(ctx context.Context) error {
		for _, p := range paths {
			if err := s.store.TouchRecent(ctx, p, at); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Printf("session: record history: %v", err)
	}
}

func (s *Session) touch(ctx context.Context, path string) {
	if s.store == nil {
		return
	}
	if err := s.store.TouchRecent(ctx, path, s.now()); err != nil {
		s.log.Printf("session: record history: %v", err)
	}
}

// Close removes the tab. If it was active, the tab to its left (or the new
// first tab) becomes active; with no tabs left nothing is active.
func (s *Session) Close(id string) error {
	s.mu.Lock()
	i := s.indexOf(byID(id))
	if i < 0 {
		s.mu.Unlock()
		return ErrNoTab
	}
	s.tabs = append(s.tabs[:i], s.tabs[i+1:]...)
	if s.active == id {
		if len(s.tabs) == 0 {
			s.active = ""
		} else {
			s.active = s.tabs[max(0, i-1)].ID
		}
	}
	s.mu.Unlock()
	s.changed()
	return nil
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange(s.Paths())
	}
}

func (s *Session) Activate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(byID(id)) < 0 {
		return ErrNoTab
	}
	s.active = id
	return nil
}

// Next activates the tab to the right of the active one, wrapping around.
func (s *Session) Next() { s.step(1) }

// Previous activates the tab to the left of the active one, wrapping around.
func (s *Session) Previous() { s.step(-1) }

func (s *Session) step(d int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.tabs)
	if n == 0 {
		return
	}
	i := s.indexOf(byID(s.active))
	if i < 0 {
		s.active = s.tabs[0].ID
		return
	}
	s.active = s.tabs[((i+d)%n+n)%n].ID
}

// Reload re-reads the file behind the tab for path. It reports whether the
// content changed; an unknown path returns ErrNoTab.
func (s *Session) Reload(path string) (api.Tab, bool, error) {
	path = filepath.Clean(path)
	s.mu.Lock()
	i := s.indexOf(byPath(path))
	s.mu.Unlock()
	if i < 0 {
		return api.Tab{}, false, ErrNoTab
	}
	fresh, err := s.load(path)
	if err != nil {
		return api.Tab{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i = s.indexOf(byPath(path))
	if i < 0 {
		return api.Tab{}, false, ErrNoTab
	}
	cur := s.tabs[i]
	if cur.Hash == fresh.Hash {
		return cur, false, nil
	}
	fresh.ID = cur.ID
	s.tabs[i] = fresh
	return fresh, true, nil
}

// Tab returns the tab with id, including its content.
func (s *Session) Tab(id string) (api.Tab, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(byID(id))
	if i < 0 {
		return api.Tab{}, false
	}
	return s.tabs[i], true
}

// List returns the tabs without their content.
func (s *Session) List() api.TabList {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := api.TabList{Tabs: make([]api.Tab, 0, len(s.tabs)), Active: s.active}
	for _, t := range s.tabs {
		t.Content = ""
		out.Tabs = append(out.Tabs, t)
	}
	return out
}

// Paths returns the paths of all open tabs.
func (s *Session) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tabs))
	for _, t := range s.tabs {
		out = append(out, t.Path)
	}
	return out
}

// Theme returns the saved theme, or the configured default.
func (s *Session) Theme(ctx context.Context) api.Theme {
	if s.store != nil {
		v, err := s.store.GetSetting(ctx, themeKey)
		if err == nil && api.Theme(v).Valid() {
			return api.Theme(v)
		}
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			s.log.Printf("session: load theme: %v", err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

func (s *Session) SetTheme(ctx context.Context, t api.Theme) error {
	if !t.Valid() {
		return fmt.Errorf("unknown theme %q", t)
	}
	if s.store == nil {
		s.mu.Lock()
		s.theme = t
		s.mu.Unlock()
		return nil
	}
	return s.store.PutSetting(ctx, themeKey, string(t))
}

// ToggleTheme switches between light and dark and returns the new theme.
func (s *Session) ToggleTheme(ctx context.Context) (api.Theme, error) {
	next := s.Theme(ctx).Toggle()
	if err := s.SetTheme(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}

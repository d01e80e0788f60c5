// Package surface hosts the display surface: a page served over local HTTP
// that receives backend events through a server-sent event stream.
package surface

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mithrel/mdreader/internal/relay"
)

// ErrNotConnected is returned by Emit when no page is attached.
var ErrNotConnected = errors.New("surface has no connected page")

// Frame is one event queued for a connected page.
type Frame struct {
	Event string
	Data  []byte
}

// Host owns the labelled windows of the process.
type Host struct {
	mu      sync.RWMutex
	windows map[string]*Window
}

// NewHost returns a Host with no windows.
func NewHost() *Host {
	return &Host{windows: make(map[string]*Window)}
}

// Open returns the window labelled label, creating it if needed.
func (h *Host) Open(label string) *Window {
	h.mu.Lock()
	defer h.mu.Unlock()
	if w, ok := h.windows[label]; ok {
		return w
	}
	w := newWindow(label)
	h.windows[label] = w
	return w
}

// Window looks up an existing window.
func (h *Host) Window(label string) (*Window, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	w, ok := h.windows[label]
	return w, ok
}

// Surface implements relay.Locator.
func (h *Host) Surface(label string) (relay.Surface, bool) {
	w, ok := h.Window(label)
	if !ok {
		return nil, false
	}
	return w, true
}

// Window is one display surface. Pages attach to it by opening the event
// stream and report readiness once they can handle events.
type Window struct {
	Label string

	readyOnce sync.Once
	ready     chan struct{}

	mu     sync.Mutex
	subs   map[int]chan Frame
	nextID int
}

func newWindow(label string) *Window {
	return &Window{
		Label: label,
		ready: make(chan struct{}),
		subs:  make(map[int]chan Frame),
	}
}

// Ready is closed once a page has called MarkReady.
func (w *Window) Ready() <-chan struct{} { return w.ready }

// MarkReady records that a page can receive events. Repeated calls, for
// example after a reload, are no-ops.
func (w *Window) MarkReady() {
	w.readyOnce.Do(func() { close(w.ready) })
}

// IsReady reports whether MarkReady has been called.
func (w *Window) IsReady() bool {
	select {
	case <-w.ready:
		return true
	default:
		return false
	}
}

// Subscribe attaches a page. The returned cancel func detaches it.
func (w *Window) Subscribe(buffer int) (<-chan Frame, func()) {
	ch := make(chan Frame, buffer)
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = ch
	w.mu.Unlock()
	return ch, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if _, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(ch)
		}
	}
}

// Subscribers returns the number of attached pages.
func (w *Window) Subscribers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}

// Emit sends event with a JSON payload to every attached page. A page whose
// buffer is full misses the event rather than blocking the sender.
func (w *Window) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.subs) == 0 {
		return ErrNotConnected
	}
	delivered := 0
	for _, ch := range w.subs {
		select {
		case ch <- Frame{Event: event, Data: data}:
			delivered++
		default:
		}
	}
	if delivered == 0 {
		return fmt.Errorf("%s: every page buffer is full", event)
	}
	return nil
}

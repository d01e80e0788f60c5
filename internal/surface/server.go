package surface

import (
	"crypto/subtle"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/mithrel/mdreader/internal/db"
	"github.com/mithrel/mdreader/internal/render"
	"github.com/mithrel/mdreader/internal/session"
	"github.com/mithrel/mdreader/pkg/api"
)

//go:embed assets/index.html
var indexHTML []byte

const (
	maxBody        = 8 << 20
	eventBuffer    = 16
	heartbeatEvery = 15 * time.Second
)

// Server serves the display surface and the operations it calls.
type Server struct {
	host     *Host
	label    string
	token    string
	renderer *render.Renderer
	sess     *session.Session
	store    db.Store
	log      *log.Logger

	historyLimit int
}

// Options configures a Server.
type Options struct {
	Label        string
	Token        string
	Store        db.Store
	Log          *log.Logger
	HistoryLimit int
}

// New returns a Server for the windows in host.
func New(host *Host, r *render.Renderer, sess *session.Session, opts Options) *Server {
	s := &Server{
		host:         host,
		label:        opts.Label,
		token:        opts.Token,
		renderer:     r,
		sess:         sess,
		store:        opts.Store,
		log:          opts.Log,
		historyLimit: opts.HistoryLimit,
	}
	if s.log == nil {
		s.log = log.Default()
	}
	if s.historyLimit <= 0 {
		s.historyLimit = 50
	}
	return s
}

// Router returns an http.Handler with registered routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /{$}", s.auth(s.handleIndex))
	mux.HandleFunc("GET /events", s.auth(s.handleEvents))
	mux.HandleFunc("POST /api/ready", s.auth(s.handleReady))
	mux.HandleFunc("POST /api/parse_markdown", s.auth(s.handleParseMarkdown))

	mux.HandleFunc("GET /api/tabs", s.auth(s.handleListTabs))
	mux.HandleFunc("POST /api/tabs", s.auth(s.handleOpenTabs))
	mux.HandleFunc("POST /api/tabs/next", s.auth(s.handleStep(true)))
	mux.HandleFunc("POST /api/tabs/previous", s.auth(s.handleStep(false)))
	mux.HandleFunc("GET /api/tabs/{id}", s.auth(s.handleTab))
	mux.HandleFunc("POST /api/tabs/{id}/activate", s.auth(s.handleActivate))
	mux.HandleFunc("DELETE /api/tabs/{id}", s.auth(s.handleClose))

	mux.HandleFunc("GET /api/theme", s.auth(s.handleGetTheme))
	mux.HandleFunc("PUT /api/theme", s.auth(s.handlePutTheme))
	mux.HandleFunc("POST /api/theme/toggle", s.auth(s.handleToggleTheme))
	mux.HandleFunc("GET /api/recent", s.auth(s.handleRecent))
	return mux
}

// auth requires the per-process token either as a bearer header or, for
// EventSource and the initial page load, as a query parameter.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := r.URL.Query().Get("token")
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			got = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}
}

func (s *Server) window(r *http.Request) (*Window, bool) {
	label := r.URL.Query().Get("window")
	if label == "" {
		label = s.label
	}
	return s.host.Window(label)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	win, ok := s.window(r)
	if !ok {
		http.Error(w, "unknown window", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	frames, cancel := win.Subscribe(eventBuffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ": connected\n\n")
	flusher.Flush()

	tick := time.NewTicker(heartbeatEvery)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case f, ok := <-frames:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.Event, f.Data); err != nil {
				s.log.Printf("surface: write %s: %v", f.Event, err)
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	win, ok := s.window(r)
	if !ok {
		http.Error(w, "unknown window", http.StatusNotFound)
		return
	}
	if !win.IsReady() {
		s.log.Printf("surface: window %q ready", win.Label)
	}
	win.MarkReady()
	w.WriteHeader(http.StatusNoContent)
}

type parseRequest struct {
	Content string `json:"content"`
}

// handleParseMarkdown is the parse_markdown operation. JSON bodies carry
// {"content": "..."}; any other content type is taken as raw markdown.
func (s *Server) handleParseMarkdown(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	content := string(b)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		var req parseRequest
		if err := json.Unmarshal(b, &req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		content = req.Content
	}
	etag := `"` + api.Fingerprint(content) + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, s.renderer.Render(content))
}

func (s *Server) handleListTabs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.List())
}

type openRequest struct {
	Path  string   `json:"path"`
	Paths []string `json:"paths"`
}

func (s *Server) handleOpenTabs(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if len(req.Paths) > 0 {
		writeJSON(w, http.StatusOK, s.sess.OpenMany(r.Context(), req.Paths))
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		http.Error(w, "missing path", http.StatusBadRequest)
		return
	}
	if _, err := s.sess.Open(r.Context(), req.Path); err != nil {
		s.log.Printf("surface: open %q: %v", req.Path, err)
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrNotMarkdown) {
			status = http.StatusUnsupportedMediaType
		} else if errors.Is(err, fs.ErrNotExist) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.List())
}

func (s *Server) handleStep(next bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if next {
			s.sess.Next()
		} else {
			s.sess.Previous()
		}
		writeJSON(w, http.StatusOK, s.sess.List())
	}
}

func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	t, ok := s.sess.Tab(r.PathValue("id"))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Activate(r.PathValue("id")); err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.List())
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Close(r.PathValue("id")); err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.List())
}

type themeBody struct {
	Theme api.Theme `json:"theme"`
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themeBody{Theme: s.sess.Theme(r.Context())})
}

func (s *Server) handlePutTheme(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&body); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := s.sess.SetTheme(r.Context(), body.Theme); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	t, err := s.sess.ToggleTheme(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: t})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []api.RecentFile{})
		return
	}
	files, err := s.store.ListRecent(r.Context(), s.historyLimit)
	if err != nil {
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	if files == nil {
		files = []api.RecentFile{}
	}
	writeJSON(w, http.StatusOK, files)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

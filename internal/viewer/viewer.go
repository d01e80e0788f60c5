// Package viewer runs the display surface of a launched mdreader process.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mithrel/mdreader/internal/config"
	"github.com/mithrel/mdreader/internal/ipc"
	"github.com/mithrel/mdreader/internal/launch"
	"github.com/mithrel/mdreader/internal/relay"
	"github.com/mithrel/mdreader/internal/session"
	"github.com/mithrel/mdreader/internal/surface"
	"github.com/mithrel/mdreader/internal/watch"
	"github.com/mithrel/mdreader/internal/wire"
	"github.com/mithrel/mdreader/pkg/api"
)

const shutdownGrace = 2 * time.Second

// Options tune a Run. Zero values use the configured defaults.
type Options struct {
	// Arg is the path given on the command line, if any.
	Arg relay.Argument
	// SocketPath overrides the IPC socket location.
	SocketPath string
	// Listener serves the surface instead of listening on http_addr.
	Listener net.Listener
	// Open is called with the surface URL once it is listening. When nil the
	// browser is started according to browser.open and browser.command.
	Open func(url string) error
}

// Run starts the surface, the IPC endpoint for later launches and the file
// watcher, then relays the launch argument. It returns when ctx is done.
func Run(ctx context.Context, app *wire.App, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	logger := app.Log

	host := surface.NewHost()
	win := host.Open(relay.MainSurface)

	var w *watch.Watcher
	if app.Cfg.GetBool("watch.enabled") {
		var err error
		w, err = watch.New(watch.DefaultDebounce, logger)
		if err != nil {
			logger.Printf("viewer: file watching disabled: %v", err)
		} else {
			defer w.Close()
		}
	}

	sess := session.New(app.Store, session.Options{
		DefaultTheme: api.Theme(app.Cfg.GetString("theme")),
		Log:          logger,
		OnChange: func(paths []string) {
			if w == nil {
				return
			}
			if err := w.Sync(paths); err != nil {
				logger.Printf("viewer: %v", err)
			}
		},
	})

	token := api.NewID()
	srv := surface.New(host, app.Renderer, sess, surface.Options{
		Label:        relay.MainSurface,
		Token:        token,
		Store:        app.Store,
		Log:          logger,
		HistoryLimit: app.Cfg.GetInt("history.limit"),
	})

	ln := opts.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", app.Cfg.GetString("http_addr"))
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}
	httpSrv := &http.Server{
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with ctx so event streams let Shutdown finish.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	sock := opts.SocketPath
	if sock == "" {
		var err error
		if sock, err = ipc.SocketPath(); err != nil {
			_ = ln.Close()
			return err
		}
	}
	ipcDone := make(chan error, 1)
	go func() {
		ipcDone <- ipc.Serve(ctx, sock, func(ctx context.Context, m ipc.Message) ipc.Response {
			return handleIPC(ctx, win, sess, m)
		})
	}()

	if w != nil {
		go func() {
			_ = w.Run(ctx, func(path string) { reload(logger, win, sess, path) })
		}()
	}

	httpDone := make(chan error, 1)
	go func() { httpDone <- httpSrv.Serve(ln) }()

	target := surfaceURL(ln.Addr(), token)
	logger.Printf("viewer: serving %s", strings.SplitN(target, "?", 2)[0])
	if err := open(app, opts, target); err != nil {
		logger.Printf("viewer: open browser: %v (visit %s)", err, target)
	}

	relay.New(host, relay.Options{
		ReadyTimeout: config.ReadyTimeout(app.Cfg),
		Log:          logger,
	}).Relay(ctx, opts.Arg, win.Ready())

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-httpDone:
		runErr = fmt.Errorf("surface: %w", err)
	case err := <-ipcDone:
		if err != nil {
			runErr = fmt.Errorf("ipc: %w", err)
		}
	}
	cancel()
	sctx, scancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer scancel()
	if err := httpSrv.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("viewer: shutdown: %v", err)
	}
	return runErr
}

func open(app *wire.App, opts Options, target string) error {
	if opts.Open != nil {
		return opts.Open(target)
	}
	if !app.Cfg.GetBool("browser.open") {
		app.Log.Printf("viewer: open %s to view", target)
		return nil
	}
	return launch.Open(app.Cfg.GetString("browser.command"), target)
}

func surfaceURL(addr net.Addr, token string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("window", relay.MainSurface)
	u := url.URL{Scheme: "http", Host: addr.String(), Path: "/", RawQuery: q.Encode()}
	return u.String()
}

// handleIPC answers later launches. An open request goes to the page as a
// cli-open-file event; before the page is ready the tab is opened directly
// so it shows up when the page loads its tab list.
func handleIPC(ctx context.Context, win *surface.Window, sess *session.Session, m ipc.Message) ipc.Response {
	switch m.Name {
	case ipc.CmdPing:
		return ipc.Response{OK: true}
	case ipc.CmdOpen:
		if strings.TrimSpace(m.Path) == "" {
			return ipc.Response{OK: false, Msg: "missing path"}
		}
		if win.IsReady() {
			if err := sess.Check(m.Path); err != nil {
				return ipc.Response{OK: false, Msg: err.Error()}
			}
			if err := win.Emit(api.EventOpenFile, m.Path); err == nil {
				return ipc.Response{OK: true}
			}
		}
		if _, err := sess.Open(ctx, m.Path); err != nil {
			return ipc.Response{OK: false, Msg: err.Error()}
		}
		return ipc.Response{OK: true}
	default:
		return ipc.Response{OK: false, Msg: "unknown command"}
	}
}

func reload(logger *log.Logger, win *surface.Window, sess *session.Session, path string) {
	tab, changed, err := sess.Reload(path)
	if err != nil {
		if !errors.Is(err, session.ErrNoTab) {
			logger.Printf("viewer: reload %s: %v", path, err)
		}
		return
	}
	if !changed {
		return
	}
	if err := win.Emit(api.EventFileChanged, api.FileChanged{ID: tab.ID, Path: tab.Path, Hash: tab.Hash}); err != nil && !errors.Is(err, surface.ErrNotConnected) {
		logger.Printf("viewer: %v", err)
	}
}

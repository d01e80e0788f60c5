// Package relay delivers the path given on the command line to the display
// surface once that surface reports it is ready to receive events.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/mithrel/mdreader/pkg/api"
)

// MainSurface is the label of the single display surface.
const MainSurface = "main"

// DefaultReadyTimeout bounds how long a delivery waits for readiness.
const DefaultReadyTimeout = 30 * time.Second

// Errors returned by a Relayer.
var (
	ErrNotText         = errors.New("launch argument is not valid text")
	ErrSurfaceNotFound = errors.New("display surface not found")
	ErrReadyTimeout    = errors.New("display surface did not become ready")
)

// Surface receives named events.
type Surface interface {
	Emit(event string, payload any) error
}

// Locator looks up a display surface by label.
type Locator interface {
	Surface(label string) (Surface, bool)
}

// Argument is the optional path supplied at startup.
type Argument struct {
	Value   string
	Present bool
}

// Arg builds a present Argument.
func Arg(v string) Argument { return Argument{Value: v, Present: true} }

// Resolve makes path absolute against cwd. Absolute paths are returned
// unchanged.
func Resolve(path, cwd string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cwd, path)
}

// Options configures a Relayer. Zero values fall back to defaults.
type Options struct {
	Label        string
	ReadyTimeout time.Duration
	WorkingDir   func() (string, error)
	Log          *log.Logger
}

// Relayer performs the one-shot delivery of the launch argument.
type Relayer struct {
	loc     Locator
	label   string
	timeout time.Duration
	cwd     func() (string, error)
	log     *log.Logger
}

// New returns a Relayer that finds its surface through loc.
func New(loc Locator, opts Options) *Relayer {
	r := &Relayer{
		loc:     loc,
		label:   opts.Label,
		timeout: opts.ReadyTimeout,
		cwd:     opts.WorkingDir,
		log:     opts.Log,
	}
	if r.label == "" {
		r.label = MainSurface
	}
	if r.timeout <= 0 {
		r.timeout = DefaultReadyTimeout
	}
	if r.cwd == nil {
		r.cwd = os.Getwd
	}
	if r.log == nil {
		r.log = log.Default()
	}
	return r
}

// ResolveArgument returns the absolute form of arg.Value. When the working
// directory cannot be determined the raw value is returned.
func (r *Relayer) ResolveArgument(arg Argument) (string, error) {
	if !utf8.ValidString(arg.Value) {
		return "", ErrNotText
	}
	if filepath.IsAbs(arg.Value) {
		return arg.Value, nil
	}
	cwd, err := r.cwd()
	if err != nil {
		r.log.Printf("relay: working directory unavailable, using raw path: %v", err)
		return arg.Value, nil
	}
	return Resolve(arg.Value, cwd), nil
}

// Relay starts the delivery of arg on its own goroutine and returns at once.
// The returned channel yields at most one error and is closed when the
// delivery attempt is over. Callers that do not care may drop it.
//
// An absent argument sends nothing. Otherwise exactly one EventOpenFile
// notification is sent to the surface after ready is closed, unless the
// wait times out, ctx ends, or the surface does not exist.
func (r *Relayer) Relay(ctx context.Context, arg Argument, ready <-chan struct{}) <-chan error {
	done := make(chan error, 1)
	if !arg.Present {
		close(done)
		return done
	}
	path, err := r.ResolveArgument(arg)
	if err != nil {
		r.log.Printf("relay: ignoring launch argument: %v", err)
		done <- err
		close(done)
		return done
	}
	go func() {
		defer close(done)
		if err := r.deliver(ctx, path, ready); err != nil {
			r.log.Printf("relay: %v", err)
			done <- err
		}
	}()
	return done
}

func (r *Relayer) deliver(ctx context.Context, path string, ready <-chan struct{}) error {
	timer := time.NewTimer(r.timeout)
	defer timer.Stop()
	select {
	case <-ready:
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrReadyTimeout, r.timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
	s, ok := r.loc.Surface(r.label)
	if !ok {
		return fmt.Errorf("%w: %q", ErrSurfaceNotFound, r.label)
	}
	if err := s.Emit(api.EventOpenFile, path); err != nil {
		return fmt.Errorf("emit %s: %w", api.EventOpenFile, err)
	}
	r.log.Printf("relay: sent %s path=%q", api.EventOpenFile, path)
	return nil
}

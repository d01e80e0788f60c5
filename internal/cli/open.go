package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/mdreader/internal/ipc"
	"github.com/mithrel/mdreader/internal/relay"
	"github.com/mithrel/mdreader/internal/viewer"
	"github.com/mithrel/mdreader/internal/wire"
)

const pingTimeout = 500 * time.Millisecond

// runViewer is swapped in tests.
var runViewer = viewer.Run

// openViewer shows arg in the running viewer if there is one, otherwise it
// becomes the viewer and blocks until the context ends.
func openViewer(cmd *cobra.Command, app *wire.App, arg relay.Argument) error {
	ctx := cmd.Context()
	sock, err := ipc.SocketPath()
	if err != nil {
		return err
	}
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	alive := ipc.Ping(pctx, sock)
	cancel()
	if !alive {
		return runViewer(ctx, app, viewer.Options{Arg: arg, SocketPath: sock})
	}

	if !arg.Present {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "mdreader is already running")
		return nil
	}
	// Resolve here: the running viewer has its own working directory.
	path, err := relay.New(nil, relay.Options{Log: app.Log}).ResolveArgument(arg)
	if err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "mdreader: ignoring file argument: %v\n", err)
		return nil
	}
	if err := ipc.Forward(ctx, sock, path); err != nil {
		return fmt.Errorf("hand %s to running viewer: %w", path, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Opened %s in the running viewer\n", path)
	return nil
}

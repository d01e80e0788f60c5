package ipc

import (
	"context"

	"github.com/mithrel/mdreader/internal/ipc/transport"
)

// Serve answers Messages on the Unix socket at path until ctx is done.
func Serve(ctx context.Context, path string, handle func(context.Context, Message) Response) error {
	srv := transport.NewUnixServer(transport.UnixListener{Path: path})
	return srv.Serve(ctx, PBHandler(handle))
}

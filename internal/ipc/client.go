package ipc

import (
	"context"
	"errors"

	"github.com/mithrel/mdreader/internal/ipc/transport"
)

// Request sends a Message to the viewer listening on path and waits for a Response.
func Request(ctx context.Context, path string, m Message) (Response, error) {
	req, err := toStruct(m)
	if err != nil {
		return Response{}, err
	}
	resp, err := transport.NewUnixClient(path).Do(ctx, req)
	if err != nil {
		return Response{}, err
	}
	return responseFromStruct(resp), nil
}

// Ping reports whether a viewer answers on path.
func Ping(ctx context.Context, path string) bool {
	r, err := Request(ctx, path, Message{Name: CmdPing})
	return err == nil && r.OK
}

// Forward asks the running viewer on path to open an already resolved path.
func Forward(ctx context.Context, path, file string) error {
	r, err := Request(ctx, path, Message{Name: CmdOpen, Path: file})
	if err != nil {
		return err
	}
	if !r.OK {
		if r.Msg == "" {
			return errors.New("viewer rejected open request")
		}
		return errors.New(r.Msg)
	}
	return nil
}

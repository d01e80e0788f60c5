package transport

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultTimeout applies to a client round trip without a ctx deadline.
const DefaultTimeout = 5 * time.Second

// UnixListener listens on a Unix domain socket path.
type UnixListener struct{ Path string }

func (u UnixListener) Listen(ctx context.Context) (net.Listener, error) {
	// Remove stale socket
	_ = os.Remove(u.Path)
	l, err := net.Listen("unix", u.Path)
	if err != nil {
		return nil, err
	}
	_ = os.Chmod(u.Path, 0o600)
	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()
	return l, nil
}

// UnixServer implements Server over a Listener with length-prefixed protobuf.
type UnixServer struct{ L Listener }

func NewUnixServer(l Listener) *UnixServer { return &UnixServer{L: l} }

func (s *UnixServer) Serve(ctx context.Context, h Handler) error {
	l, err := s.L.Listen(ctx)
	if err != nil {
		return err
	}
	defer l.Close()
	errc := make(chan error, 1)
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				errc <- err
				return
			}
			go serveConn(ctx, c, h)
		}
	}()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		// If context canceled shortly after, suppress spurious errors
		if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
			return nil
		}
		return err
	}
}

func serveConn(ctx context.Context, conn net.Conn, h Handler) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(DefaultTimeout))
	req := &structpb.Struct{}
	if err := readProto(bufio.NewReader(conn), req); err != nil {
		return
	}
	resp, err := h.Handle(ctx, req)
	if err != nil {
		resp, _ = structpb.NewStruct(map[string]any{"ok": false, "msg": err.Error()})
	}
	if resp == nil {
		resp = &structpb.Struct{}
	}
	_ = writeProto(conn, resp)
}

// UnixClient implements Client for Unix sockets with length-prefixed protobuf.
type UnixClient struct{ Path string }

func NewUnixClient(path string) *UnixClient { return &UnixClient{Path: path} }

func (c *UnixClient) Do(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	d := &net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", c.Path)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	deadline := time.Now().Add(DefaultTimeout)
	if dl, ok := ctx.Deadline(); ok {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)
	if err := writeProto(conn, req); err != nil {
		return nil, err
	}
	resp := &structpb.Struct{}
	if err := readProto(bufio.NewReader(conn), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

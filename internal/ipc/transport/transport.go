package transport

import (
	"context"
	"net"

	"google.golang.org/protobuf/types/known/structpb"
)

// Handler processes one request frame and returns the reply frame.
// Frames are generic protobuf Structs so no generated code is needed.
type Handler interface {
	Handle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func (f HandlerFunc) Handle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return f(ctx, req)
}

// Server accepts connections and dispatches one request per connection.
type Server interface {
	// Serve blocks, handling requests until ctx is done or an error occurs.
	Serve(ctx context.Context, h Handler) error
}

// Client performs a single request/response round trip per call.
type Client interface {
	Do(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// Listener abstracts how a server obtains a net.Listener (unix, tcp, etc.).
type Listener interface {
	Listen(ctx context.Context) (net.Listener, error)
}

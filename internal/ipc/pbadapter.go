package ipc

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mithrel/mdreader/internal/ipc/transport"
)

func toStruct(m Message) (*structpb.Struct, error) {
	fields := map[string]any{"name": m.Name}
	if m.Path != "" {
		fields["path"] = m.Path
	}
	return structpb.NewStruct(fields)
}

func fromStruct(s *structpb.Struct) Message {
	f := s.GetFields()
	return Message{
		Name: f["name"].GetStringValue(),
		Path: f["path"].GetStringValue(),
	}
}

func responseToStruct(r Response) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"ok": r.OK, "msg": r.Msg})
}

func responseFromStruct(s *structpb.Struct) Response {
	f := s.GetFields()
	return Response{
		OK:  f["ok"].GetBoolValue(),
		Msg: f["msg"].GetStringValue(),
	}
}

// PBHandler builds a transport.Handler around a Message handler.
func PBHandler(fn func(context.Context, Message) Response) transport.Handler {
	return transport.HandlerFunc(func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
		m := fromStruct(req)
		if m.Name == "" {
			return responseToStruct(Response{OK: false, Msg: "bad request"})
		}
		out, err := responseToStruct(fn(ctx, m))
		if err != nil {
			return nil, fmt.Errorf("encode response: %w", err)
		}
		return out, nil
	})
}

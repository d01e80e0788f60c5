package transport

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
)

// MaxFrame bounds a single message on the wire.
const MaxFrame = 4 << 20

// writeProto writes a varint length-prefixed protobuf message to w.
func writeProto(w io.Writer, m proto.Message) error {
	b, err := proto.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if len(b) > MaxFrame {
		return fmt.Errorf("message too large: %d", len(b))
	}
	var lenbuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenbuf[:], uint64(len(b)))
	if _, err := w.Write(append(lenbuf[:n:n], b...)); err != nil {
		return err
	}
	return nil
}

// readProto reads a single length-prefixed protobuf message into dst.
func readProto(r *bufio.Reader, dst proto.Message) error {
	ln, err := binary.ReadUvarint(r)
	if err != nil {
		return err
	}
	if ln > MaxFrame {
		return fmt.Errorf("message too large: %d", ln)
	}
	buf := make([]byte, ln)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	return proto.Unmarshal(buf, dst)
}

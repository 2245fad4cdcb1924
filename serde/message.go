package serde

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/strata-db/strata/errs"
)

// Every message in a strata file — schema, batch, footer — is framed the
// same way: an 8-byte little-endian length prefix followed by that many
// body bytes. writeMessage and readMessage implement this framing once;
// schema.go, batch.go, and columnfile.go only produce and consume the
// body bytes.

func writeMessage(ctx context.Context, w ByteWriter, body []byte) (int64, error) {
	var prefix [8]byte
	binary.LittleEndian.PutUint64(prefix[:], uint64(len(body)))

	framed := make([]byte, 0, 8+len(body))
	framed = append(framed, prefix[:]...)
	framed = append(framed, body...)

	return w.WriteAll(ctx, framed)
}

// readMessage reads the message starting at pos and returns its body
// bytes and the total number of bytes the framed message occupies
// (8-byte prefix + body), so callers can compute where the next message
// begins.
func readMessage(ctx context.Context, r ByteReader, pos int64) ([]byte, int64, error) {
	prefix, err := r.ReadAt(ctx, pos, 8)
	if err != nil {
		return nil, 0, fmt.Errorf("serde: read message length at %d: %w", pos, err)
	}

	bodyLen := int64(binary.LittleEndian.Uint64(prefix))
	if bodyLen < 0 {
		return nil, 0, fmt.Errorf("%w: negative message length at %d", errs.ErrInvalidSerde, pos)
	}

	body, err := r.ReadAt(ctx, pos+8, bodyLen)
	if err != nil {
		return nil, 0, fmt.Errorf("serde: read message body at %d: %w", pos+8, err)
	}

	return body, 8 + bodyLen, nil
}

package serde

import (
	"context"

	"github.com/strata-db/strata/dtype"
)

// writeSchema writes a file's schema message — the top-level DType,
// encoded with the standalone dtype codec — and returns the message's
// starting byte offset for the trailer.
func writeSchema(ctx context.Context, w ByteWriter, dt dtype.DType) (int64, error) {
	return writeMessage(ctx, w, encodeDType(dt))
}

// readSchema reads and decodes the schema message at pos.
func readSchema(ctx context.Context, r ByteReader, pos int64) (dtype.DType, error) {
	body, _, err := readMessage(ctx, r, pos)
	if err != nil {
		return dtype.DType{}, err
	}

	dt, _, err := decodeDType(body)

	return dt, err
}

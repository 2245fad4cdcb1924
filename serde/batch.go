package serde

import (
	"encoding/binary"
	"fmt"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/compress"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/internal/pool"
)

// batchHeaderSize is the fixed 8-byte little-endian metadata-length
// prefix at the start of every batch message body, giving the heap
// region's start once rounded up to heapAlignment.
const batchHeaderSize = 8

// heapAlignment is the byte boundary every buffer in a batch's heap
// region, and the heap region itself, is padded to.
const heapAlignment = 64

func alignUp(n, align int) int {
	rem := n % align
	if rem == 0 {
		return n
	}

	return n + (align - rem)
}

// encodeBatch serializes arr (one top-level array, canonical or encoded,
// of arbitrary depth) into a self-contained batch message body: a
// length-prefixed flatbuffer metadata section followed by a 64-byte
// aligned buffer heap. Every raw buffer in the tree is compressed with
// algorithm before being placed in the heap.
func encodeBatch(arr *array.Array, algorithm compress.Algorithm) ([]byte, error) {
	codec, err := compress.GetCodec(algorithm)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]uint32)
	var rawBuffers [][]byte

	addBuffer := func(b []byte) uint32 {
		key := string(b)
		if idx, ok := seen[key]; ok {
			return idx
		}
		idx := uint32(len(rawBuffers))
		seen[key] = idx
		rawBuffers = append(rawBuffers, b)

		return idx
	}

	root := walkArray(arr, addBuffer)

	entries := make([]bufferEntry, len(rawBuffers))
	heapBuf := pool.GetBatchBuffer()
	defer pool.PutBatchBuffer(heapBuf)

	for i, raw := range rawBuffers {
		stored, err := codec.Compress(raw)
		if err != nil {
			return nil, fmt.Errorf("serde: compress buffer %d: %w", i, err)
		}

		for heapBuf.Len()%heapAlignment != 0 {
			heapBuf.MustWrite([]byte{0})
		}

		entries[i] = bufferEntry{
			offset:       uint64(heapBuf.Len()),
			length:       uint64(len(raw)),
			storedLength: uint64(len(stored)),
			codec:        uint8(algorithm),
		}
		heapBuf.MustWrite(stored)
	}

	metadata := buildBatchFB(root, entries, uint64(arr.Len()))

	bodyBuf := pool.GetBatchBuffer()
	defer pool.PutBatchBuffer(bodyBuf)

	bodyBuf.ExtendOrGrow(batchHeaderSize)
	binary.LittleEndian.PutUint64(bodyBuf.Bytes(), uint64(len(metadata)))
	bodyBuf.MustWrite(metadata)

	for bodyBuf.Len()%heapAlignment != 0 {
		bodyBuf.MustWrite([]byte{0})
	}

	bodyBuf.MustWrite(heapBuf.Bytes())

	body := make([]byte, bodyBuf.Len())
	copy(body, bodyBuf.Bytes())

	return body, nil
}

// decodeBatch is encodeBatch's inverse.
func decodeBatch(body []byte) (*array.Array, error) {
	if len(body) < batchHeaderSize {
		return nil, fmt.Errorf("%w: batch message shorter than header", errs.ErrInvalidSerde)
	}

	metaLen := int(binary.LittleEndian.Uint64(body))
	if batchHeaderSize+metaLen > len(body) {
		return nil, fmt.Errorf("%w: batch metadata length %d exceeds message size", errs.ErrInvalidSerde, metaLen)
	}
	metadata := body[batchHeaderSize : batchHeaderSize+metaLen]

	root, entries, rowCount, err := parseBatchFB(metadata)
	if err != nil {
		return nil, err
	}

	heapStart := alignUp(batchHeaderSize+metaLen, heapAlignment)

	getBuffer := func(idx uint32) ([]byte, error) {
		if int(idx) >= len(entries) {
			return nil, fmt.Errorf("%w: buffer index %d, have %d entries", errs.ErrInvalidSerde, idx, len(entries))
		}
		e := entries[idx]
		end := heapStart + int(e.offset) + int(e.storedLength)
		if end > len(body) {
			return nil, fmt.Errorf("%w: buffer %d extends past message end", errs.ErrBufferLengthMismatch, idx)
		}
		raw := body[heapStart+int(e.offset) : end]

		codec, err := compress.GetCodec(compress.Algorithm(e.codec))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrUnknownBufferCodec, err)
		}

		out, err := codec.Decompress(raw)
		if err != nil {
			return nil, fmt.Errorf("serde: decompress buffer %d: %w", idx, err)
		}
		if uint64(len(out)) != e.length {
			return nil, fmt.Errorf("%w: buffer %d decompressed to %d bytes, expected %d", errs.ErrBufferLengthMismatch, idx, len(out), e.length)
		}

		return out, nil
	}

	arr, err := buildArray(root, getBuffer)
	if err != nil {
		return nil, err
	}
	if uint64(arr.Len()) != rowCount {
		return nil, fmt.Errorf("%w: batch row count %d does not match decoded length %d", errs.ErrInvalidSerde, rowCount, arr.Len())
	}

	return arr, nil
}

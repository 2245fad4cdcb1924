// Package roaring implements a Roaring-style bitmap encoding for Bool
// arrays: the logical length is split into 65536-element chunks, and each
// chunk is stored as whichever of two containers is smaller — an "array"
// container listing the sparse set bit positions as uint16s, or a
// "bitmap" container packing all 65536 bits densely. This beats a flat
// bitmap for boolean columns that are heavily skewed toward one value.
//
// No third-party Roaring bitmap library appears anywhere in the example
// corpus (grounding sources only provide general-purpose bitmap/set code
// in other domains), so this container format is original but follows
// the well-known array/bitmap container split the canonical Roaring
// bitmap formats use.
package roaring

import (
	"encoding/binary"
	"fmt"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// ID is Roaring's encoding tag.
const ID = array.EncodingIDUserBase + 11

// ChunkSize is the number of logical positions per container.
const ChunkSize = 65536

const containerArray = 0
const containerBitmap = 1

// arrayContainerThreshold is the set-bit count above which a bitmap
// container is smaller than an array container (65536/16 = 4096 uint16
// entries equals the 8192-byte bitmap size).
const arrayContainerThreshold = ChunkSize / 16

type kernels struct{}

var _ array.Kernels = kernels{}
var _ array.ScalarAtKernel = kernels{}

func numChunks(n int) int { return (n + ChunkSize - 1) / ChunkSize }

func chunkOffsets(a *array.Array) []uint32 {
	md := a.Metadata()
	n := numChunks(a.Len())
	offs := make([]uint32, n+1)
	for i := range offs {
		offs[i] = binary.LittleEndian.Uint32(md[4*i:])
	}

	return offs
}

func chunkBytes(a *array.Array, chunkIdx int) []byte {
	offs := chunkOffsets(a)
	buf, _ := a.Buffer(0)

	return buf[offs[chunkIdx]:offs[chunkIdx+1]]
}

func isSet(a *array.Array, i int) bool {
	chunkIdx := i / ChunkSize
	within := uint16(i % ChunkSize)

	data := chunkBytes(a, chunkIdx)
	typ := data[0]
	count := int(binary.LittleEndian.Uint16(data[1:3]))
	body := data[3:]

	switch typ {
	case containerArray:
		for k := 0; k < count; k++ {
			v := binary.LittleEndian.Uint16(body[2*k:])
			if v == within {
				return true
			}
		}

		return false
	case containerBitmap:
		byteIdx := within / 8
		bitIdx := within % 8

		return body[byteIdx]&(1<<bitIdx) != 0
	default:
		return false
	}
}

func (kernels) Canonicalize(a *array.Array) (*array.Array, error) {
	n := a.Len()
	vals := make([]bool, n)
	for i := 0; i < n; i++ {
		vals[i] = isSet(a, i)
	}

	return array.NewBool(n, packBits(vals), a.Validity()), nil
}

func packBits(vals []bool) []byte {
	buf := make([]byte, (len(vals)+7)/8)
	for i, v := range vals {
		if v {
			buf[i/8] |= 1 << uint(i%8)
		}
	}

	return buf
}

func (kernels) ScalarAt(a *array.Array, i int) (scalar.Scalar, error) {
	if !a.Validity().IsValid(i) {
		return scalar.Null(a.DType()), nil
	}

	return scalar.Bool(isSet(a, i)), nil
}

// CanCompress reports whether arr is a non-empty Bool array in which the
// rarer of true and false covers less than a quarter of the positions.
// Encode stores set bits only, so a mostly-true array still gets bitmap
// containers.
func CanCompress(arr *array.Array) bool {
	if arr.DType().Kind() != dtype.KindBool {
		return false
	}
	if arr.Len() == 0 {
		return false
	}

	trueCount, ok := arr.ComputeStat(array.StatTrueCount)
	if !ok {
		return false
	}

	n := uint64(arr.Len())
	density := trueCount.AsUint()
	if density > n-density {
		density = n - density
	}

	return density < n/4
}

// Encode builds arr's Roaring encoding. arr must be a canonical Bool
// array.
func Encode(arr *array.Array) (*array.Array, error) {
	if arr.DType().Kind() != dtype.KindBool {
		return nil, fmt.Errorf("%w: roaring.Encode requires a Bool array", errs.ErrInvalidType)
	}
	if arr.Len() == 0 {
		return nil, fmt.Errorf("%w: roaring.Encode on empty array", errs.ErrEmptyInput)
	}

	n := arr.Len()
	nc := numChunks(n)
	offsets := make([]uint32, nc+1)

	var buf []byte
	for c := 0; c < nc; c++ {
		start := c * ChunkSize
		end := start + ChunkSize
		if end > n {
			end = n
		}

		var setPositions []uint16
		for i := start; i < end; i++ {
			v, err := arr.ScalarAt(i)
			if err != nil {
				return nil, err
			}
			if !v.IsNull() && v.AsBool() {
				setPositions = append(setPositions, uint16(i-start))
			}
		}

		var container []byte
		if len(setPositions) <= arrayContainerThreshold {
			body := make([]byte, 3+2*len(setPositions))
			body[0] = containerArray
			binary.LittleEndian.PutUint16(body[1:], uint16(len(setPositions)))
			for k, p := range setPositions {
				binary.LittleEndian.PutUint16(body[3+2*k:], p)
			}
			container = body
		} else {
			bitmap := make([]byte, 3+ChunkSize/8)
			bitmap[0] = containerBitmap
			binary.LittleEndian.PutUint16(bitmap[1:], uint16(len(setPositions)))
			for _, p := range setPositions {
				bitmap[3+p/8] |= 1 << uint(p%8)
			}
			container = bitmap
		}

		buf = append(buf, container...)
		offsets[c+1] = uint32(len(buf))
	}

	md := make([]byte, 4*len(offsets))
	for i, o := range offsets {
		binary.LittleEndian.PutUint32(md[4*i:], o)
	}

	v := arr.Validity()
	if v.Kind() == validity.KindNonNullable {
		v = validity.AllValid(n)
	}

	return array.NewEncoded(ID, arr.DType(), n, md, nil, [][]byte{buf}, v, kernels{}), nil
}

// FromParts reconstructs a previously-serialized Roaring array from its
// raw metadata and buffer, for use by package serde's deserializer.
func FromParts(dt dtype.DType, length int, metadata []byte, buffers [][]byte, v validity.Validity) *array.Array {
	return array.NewEncoded(ID, dt, length, metadata, nil, buffers, v, kernels{})
}

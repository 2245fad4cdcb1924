// Package delta implements Delta encoding: each block of up to 1024
// elements stores its first value verbatim (the block's base) and the
// remaining elements as successive differences from their predecessor,
// bit-packed and FastLanes-transposed the same way Bit-Packed does. A
// final block shorter than 1024 elements (the "scalar tail") is packed
// flat, without transposition, since FastLanes transpose requires a full
// block.
package delta

import (
	"fmt"
	"math/bits"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/internal/fastlanes"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// ID is Delta's encoding tag.
const ID = array.EncodingIDUserBase + 7

type kernels struct{}

var _ array.Kernels = kernels{}
var _ array.ScalarAtKernel = kernels{}

type header struct {
	bitWidth int
	signed   bool
}

func parseHeader(a *array.Array) header {
	md := a.Metadata()

	return header{bitWidth: int(md[0]), signed: md[1] != 0}
}

func bases(a *array.Array) *array.Array {
	c, _ := a.Child(0, dtype.DType{}, -1)

	return c
}

func zigzagEncode(v int64) uint64 { return uint64((v << 1) ^ (v >> 63)) }
func zigzagDecode(v uint64) int64 { return int64(v>>1) ^ -int64(v&1) }

func numBlocks(n int) int { return (n + fastlanes.BlockSize - 1) / fastlanes.BlockSize }

func tailLen(n int) int {
	r := n % fastlanes.BlockSize
	if r == 0 && n > 0 {
		return 0
	}

	return r
}

// deltaAt returns the raw (zigzag-if-signed) delta stored at slot
// (blockIdx, within) where within in [1, blockLen). Slot 0 of every block
// is unused padding since the base is stored separately.
func deltaAt(a *array.Array, h header, n, blockIdx, within int) uint64 {
	isTail := blockIdx == numBlocks(n)-1 && tailLen(n) != 0
	if isTail {
		tailBuf, _ := a.Buffer(1)

		return fastlanes.UnpackAt(tailBuf, h.bitWidth, within)
	}

	fullBuf, _ := a.Buffer(0)
	blockBytes := fastlanes.PackedByteLen(fastlanes.BlockSize, h.bitWidth)
	start := blockIdx * blockBytes
	block := fullBuf[start : start+blockBytes]

	t := within / fastlanes.NumLanes
	lane := within % fastlanes.NumLanes
	transposedPos := lane*fastlanes.LaneLen + t

	return fastlanes.UnpackAt(block, h.bitWidth, transposedPos)
}

func addDelta(p dtype.PType, cur scalar.Scalar, h header, raw uint64) scalar.Scalar {
	if h.signed {
		return scalar.Int(p, cur.AsInt()+zigzagDecode(raw))
	}

	return scalar.Uint(p, cur.AsUint()+raw)
}

func (kernels) Canonicalize(a *array.Array) (*array.Array, error) {
	h := parseHeader(a)
	base := bases(a)
	p := a.DType().PType()
	n := a.Len()

	vals := make([]scalar.Scalar, n)
	valid := make([]bool, n)

	var cur scalar.Scalar
	for i := 0; i < n; i++ {
		blockIdx := i / fastlanes.BlockSize
		within := i % fastlanes.BlockSize
		if within == 0 {
			bv, err := base.ScalarAt(blockIdx)
			if err != nil {
				return nil, err
			}
			cur = bv
		} else {
			raw := deltaAt(a, h, n, blockIdx, within)
			cur = addDelta(p, cur, h, raw)
		}
		vals[i] = cur
		valid[i] = true
	}

	return array.RebuildFromScalars(a.DType(), vals, valid)
}

func (kernels) ScalarAt(a *array.Array, i int) (scalar.Scalar, error) {
	h := parseHeader(a)
	base := bases(a)
	p := a.DType().PType()
	n := a.Len()

	blockIdx := i / fastlanes.BlockSize
	within := i % fastlanes.BlockSize

	cur, err := base.ScalarAt(blockIdx)
	if err != nil {
		return scalar.Scalar{}, err
	}
	for j := 1; j <= within; j++ {
		raw := deltaAt(a, h, n, blockIdx, j)
		cur = addDelta(p, cur, h, raw)
	}

	return cur, nil
}

// CanCompress reports whether arr is an integer Primitive array of at
// least two elements;
// Delta benefits sequences whose successive differences are small, most
// commonly near-monotonic counters and timestamps.
func CanCompress(arr *array.Array) bool {
	dt := arr.DType()

	return dt.Kind() == dtype.KindPrimitive && dt.PType().IsInt() && arr.Len() > 1
}

// Encode builds arr's Delta encoding.
func Encode(arr *array.Array) (*array.Array, error) {
	dt := arr.DType()
	if dt.Kind() != dtype.KindPrimitive || !dt.PType().IsInt() {
		return nil, fmt.Errorf("%w: delta.Encode requires an integer Primitive array", errs.ErrInvalidType)
	}
	n := arr.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: delta.Encode on empty array", errs.ErrEmptyInput)
	}

	p := dt.PType()
	signed := p.IsSigned()

	nb := numBlocks(n)
	baseVals := make([]scalar.Scalar, nb)
	baseValid := make([]bool, nb)

	rawDeltas := make([]uint64, n) // slot i holds delta for position i within its block; slot 0 of each block unused
	maxRaw := uint64(0)

	for b := 0; b < nb; b++ {
		blockStart := b * fastlanes.BlockSize
		blockLen := fastlanes.BlockSize
		if blockStart+blockLen > n {
			blockLen = n - blockStart
		}

		base, err := arr.ScalarAt(blockStart)
		if err != nil {
			return nil, err
		}
		baseVals[b] = base
		baseValid[b] = true

		prev := base
		for j := 1; j < blockLen; j++ {
			v, err := arr.ScalarAt(blockStart + j)
			if err != nil {
				return nil, err
			}

			var raw uint64
			if signed {
				raw = zigzagEncode(v.AsInt() - prev.AsInt())
			} else {
				raw = v.AsUint() - prev.AsUint()
			}
			rawDeltas[blockStart+j] = raw
			if raw > maxRaw {
				maxRaw = raw
			}
			prev = v
		}
	}

	bitWidth := 64 - bits.LeadingZeros64(maxRaw)
	if bitWidth == 0 {
		bitWidth = 1
	}

	fullBlocks := n / fastlanes.BlockSize
	fullBuf := make([]byte, 0)
	for b := 0; b < fullBlocks; b++ {
		block := make([]uint64, fastlanes.BlockSize)
		copy(block, rawDeltas[b*fastlanes.BlockSize:(b+1)*fastlanes.BlockSize])
		transposed := fastlanes.Transpose(block)
		fullBuf = append(fullBuf, fastlanes.Pack(transposed, bitWidth)...)
	}

	var tailBuf []byte
	tl := tailLen(n)
	if tl != 0 {
		tailBuf = fastlanes.Pack(rawDeltas[fullBlocks*fastlanes.BlockSize:n], bitWidth)
	}

	baseDt := dtype.Primitive(p, dtype.NonNullable)
	baseArr, err := array.RebuildFromScalars(baseDt, baseVals, baseValid)
	if err != nil {
		return nil, err
	}

	md := []byte{byte(bitWidth), 0}
	if signed {
		md[1] = 1
	}

	return array.NewEncoded(ID, dt, n, md, []*array.Array{baseArr}, [][]byte{fullBuf, tailBuf}, arr.Validity(), kernels{}), nil
}

// FromParts reconstructs a previously-serialized Delta array from its raw
// metadata, base-value child and buffers, for use by package serde's
// deserializer.
func FromParts(dt dtype.DType, length int, metadata []byte, children []*array.Array, buffers [][]byte, v validity.Validity) *array.Array {
	return array.NewEncoded(ID, dt, length, metadata, children, buffers, v, kernels{})
}

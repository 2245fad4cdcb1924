// Package bitpacked implements Bit-Packed encoding: integers packed to
// the minimum bit width that covers the bulk of the data, arranged in
// FastLanes-transposed 1024-element blocks for fast scalar decode, with
// rare out-of-range values carried as Sparse-encoded patches instead of
// widening every element's bit width.
package bitpacked

import (
	"fmt"
	"math/bits"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/encoding/sparse"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/internal/fastlanes"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// ID is Bit-Packed's encoding tag.
const ID = array.EncodingIDUserBase + 5

type kernels struct{}

var _ array.Kernels = kernels{}
var _ array.ScalarAtKernel = kernels{}

type header struct {
	bitWidth int
	signed   bool
	patched  bool
}

func parseHeader(a *array.Array) header {
	md := a.Metadata()

	return header{bitWidth: int(md[0]), signed: md[1] != 0, patched: md[2] != 0}
}

func patchesOf(a *array.Array, h header) *array.Array {
	if !h.patched {
		return nil
	}
	p, _ := a.Child(0, dtype.DType{}, -1)

	return p
}

func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigzagDecode(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

func blockOf(buf []byte, bitWidth, blockIdx int) []byte {
	blockBytes := fastlanes.PackedByteLen(fastlanes.BlockSize, bitWidth)
	start := blockIdx * blockBytes

	return buf[start : start+blockBytes]
}

func decodeRaw(a *array.Array, h header, i int) uint64 {
	buf, _ := a.Buffer(0)
	blockIdx := i / fastlanes.BlockSize
	k := i % fastlanes.BlockSize
	t := k / fastlanes.NumLanes
	lane := k % fastlanes.NumLanes
	transposedPos := lane*fastlanes.LaneLen + t

	block := blockOf(buf, h.bitWidth, blockIdx)

	return fastlanes.UnpackAt(block, h.bitWidth, transposedPos)
}

func scalarFromRaw(p dtype.PType, h header, raw uint64) scalar.Scalar {
	if h.signed {
		return scalar.Int(p, zigzagDecode(raw))
	}

	return scalar.Uint(p, raw)
}

func (kernels) Canonicalize(a *array.Array) (*array.Array, error) {
	h := parseHeader(a)
	patches := patchesOf(a, h)
	p := a.DType().PType()

	vals := make([]scalar.Scalar, a.Len())
	valid := make([]bool, a.Len())
	for i := range vals {
		if !a.Validity().IsValid(i) {
			vals[i] = scalar.Null(a.DType())
			valid[i] = false

			continue
		}
		if patches != nil {
			pv, err := patches.ScalarAt(i)
			if err != nil {
				return nil, err
			}
			if !pv.IsNull() {
				vals[i] = pv
				valid[i] = true

				continue
			}
		}

		raw := decodeRaw(a, h, i)
		vals[i] = scalarFromRaw(p, h, raw)
		valid[i] = true
	}

	return array.RebuildFromScalars(a.DType(), vals, valid)
}

func (kernels) ScalarAt(a *array.Array, i int) (scalar.Scalar, error) {
	if !a.Validity().IsValid(i) {
		return scalar.Null(a.DType()), nil
	}

	h := parseHeader(a)
	if patches := patchesOf(a, h); patches != nil {
		pv, err := patches.ScalarAt(i)
		if err != nil {
			return scalar.Scalar{}, err
		}
		if !pv.IsNull() {
			return pv, nil
		}
	}

	raw := decodeRaw(a, h, i)

	return scalarFromRaw(a.DType().PType(), h, raw), nil
}

// minBitWidth returns the fewest bits needed to represent the given
// zigzag/unsigned values directly (no patches), or the width needed to
// cover at least (1-maxPatchRatio) of them when patches are allowed.
func minBitWidth(raws []uint64, maxPatchRatio float64) (bitWidth int, patchPositions []int) {
	if len(raws) == 0 {
		return 0, nil
	}

	maxVal := uint64(0)
	for _, r := range raws {
		if r > maxVal {
			maxVal = r
		}
	}
	full := 64 - bits.LeadingZeros64(maxVal)
	if full == 0 {
		full = 1
	}
	if maxPatchRatio <= 0 {
		return full, nil
	}

	budget := int(maxPatchRatio * float64(len(raws)))

	for w := 1; w < full; w++ {
		limit := uint64(1)<<uint(w) - 1
		var patches []int
		for i, r := range raws {
			if r > limit {
				patches = append(patches, i)
				if len(patches) > budget {
					break
				}
			}
		}
		if len(patches) <= budget {
			return w, patches
		}
	}

	return full, nil
}

// CanCompress reports whether arr is a Primitive integer array whose
// minimum bit width (allowing up to maxPatchRatio of exceptions) saves at
// least one bit per element versus its native width.
func CanCompress(arr *array.Array, maxPatchRatio float64) bool {
	dt := arr.DType()
	if dt.Kind() != dtype.KindPrimitive || !dt.PType().IsInt() {
		return false
	}
	if arr.Len() == 0 {
		return false
	}

	raws, _, err := rawValues(arr)
	if err != nil {
		return false
	}

	bitWidth, _ := minBitWidth(raws, maxPatchRatio)

	return bitWidth < dt.PType().BitWidth()
}

func rawValues(arr *array.Array) (raws []uint64, valid []bool, err error) {
	p := arr.DType().PType()
	signed := p.IsSigned()

	raws = make([]uint64, arr.Len())
	valid = make([]bool, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		v, err := arr.ScalarAt(i)
		if err != nil {
			return nil, nil, err
		}
		if v.IsNull() {
			continue
		}
		valid[i] = true
		if signed {
			raws[i] = zigzagEncode(v.AsInt())
		} else {
			raws[i] = v.AsUint()
		}
	}

	return raws, valid, nil
}

// Encode builds arr's Bit-Packed encoding, carrying up to maxPatchRatio
// of out-of-width values as Sparse patches.
func Encode(arr *array.Array, maxPatchRatio float64) (*array.Array, error) {
	dt := arr.DType()
	if dt.Kind() != dtype.KindPrimitive || !dt.PType().IsInt() {
		return nil, fmt.Errorf("%w: bitpacked.Encode requires an integer Primitive array", errs.ErrInvalidType)
	}
	if arr.Len() == 0 {
		return nil, fmt.Errorf("%w: bitpacked.Encode on empty array", errs.ErrEmptyInput)
	}

	raws, valid, err := rawValues(arr)
	if err != nil {
		return nil, err
	}

	bitWidth, patchIdx := minBitWidth(raws, maxPatchRatio)
	patchSet := make(map[int]bool, len(patchIdx))
	for _, i := range patchIdx {
		patchSet[i] = true
	}

	limit := uint64(1)<<uint(bitWidth) - 1
	if bitWidth == 64 {
		limit = ^uint64(0)
	}

	packed := make([]byte, 0)
	n := arr.Len()
	numBlocks := (n + fastlanes.BlockSize - 1) / fastlanes.BlockSize
	for b := 0; b < numBlocks; b++ {
		block := make([]uint64, fastlanes.BlockSize)
		for k := 0; k < fastlanes.BlockSize; k++ {
			idx := b*fastlanes.BlockSize + k
			if idx >= n {
				continue
			}
			r := raws[idx]
			if patchSet[idx] || !valid[idx] {
				r = 0
			} else if r > limit {
				r = limit
				patchSet[idx] = true
			}
			block[k] = r
		}

		transposed := fastlanes.Transpose(block)
		packed = append(packed, fastlanes.Pack(transposed, bitWidth)...)
	}

	md := []byte{byte(bitWidth), 0, 0}
	if dt.PType().IsSigned() {
		md[1] = 1
	}

	var children []*array.Array
	if len(patchSet) > 0 {
		patchArr, err := buildPatches(arr, patchSet)
		if err != nil {
			return nil, err
		}
		children = []*array.Array{patchArr}
		md[2] = 1
	}

	return array.NewEncoded(ID, dt, n, md, children, [][]byte{packed}, arr.Validity(), kernels{}), nil
}

// FromParts reconstructs a previously-serialized Bit-Packed array from its
// raw metadata, children and buffer, for use by package serde's
// deserializer; it performs no validation beyond what array.NewEncoded
// itself does.
func FromParts(dt dtype.DType, length int, metadata []byte, children []*array.Array, buffers [][]byte, v validity.Validity) *array.Array {
	return array.NewEncoded(ID, dt, length, metadata, children, buffers, v, kernels{})
}

func buildPatches(arr *array.Array, patchSet map[int]bool) (*array.Array, error) {
	dt := arr.DType().WithNullability(dtype.Nullable)

	idxList := make([]int, 0, len(patchSet))
	for i := range patchSet {
		idxList = append(idxList, i)
	}
	for i := 0; i < len(idxList); i++ {
		for j := i + 1; j < len(idxList); j++ {
			if idxList[j] < idxList[i] {
				idxList[i], idxList[j] = idxList[j], idxList[i]
			}
		}
	}

	idxVals := make([]scalar.Scalar, len(idxList))
	valVals := make([]scalar.Scalar, len(idxList))
	valid := make([]bool, len(idxList))
	for k, i := range idxList {
		v, err := arr.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		idxVals[k] = scalar.Uint(dtype.U32, uint64(i))
		valVals[k] = v
		valid[k] = true
	}

	idt := dtype.Primitive(dtype.U32, dtype.NonNullable)
	indices, err := array.RebuildFromScalars(idt, idxVals, valid)
	if err != nil {
		return nil, err
	}
	values, err := array.RebuildFromScalars(dt, valVals, valid)
	if err != nil {
		return nil, err
	}

	return sparse.New(dt, indices, values, scalar.Null(dt), arr.Len()), nil
}

package alp

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/encoding/dict"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// IDRD is ALP-RD's encoding tag: the fallback for float columns with no
// decimal exponent that round-trips well enough for plain ALP (e.g.
// doubles carrying genuine binary fractions rather than serialized
// decimals). It splits each value's IEEE-754 bits into a left part (sign,
// exponent, and the top mantissa bits — usually low-cardinality and worth
// dictionary coding) and a right part (the remaining mantissa bits,
// stored raw).
type rdKernels struct{}

var _ array.Kernels = rdKernels{}
var _ array.ScalarAtKernel = rdKernels{}

const IDRD = array.EncodingIDUserBase + 9

// leftBits is the number of high bits (of the 64-bit representation)
// placed in the dictionary-coded left part; the remaining 48 form the
// right part. This fixed split is simpler than ALP-RD's per-column
// searched split width but preserves its shape: most of a float's
// entropy lives in the high bits for any column with a narrow exponent
// range, which is exactly the case where ALP itself failed.
const leftBits = 16

func rightPart(a *array.Array) *array.Array {
	c, _ := a.Child(0, dtype.DType{}, -1)

	return c
}

func leftCodes(a *array.Array) *array.Array {
	c, _ := a.Child(1, dtype.DType{}, -1)

	return c
}

func combine(p dtype.PType, left uint16, right uint64) scalar.Scalar {
	bits := (uint64(left) << (64 - leftBits)) | right

	if p == dtype.F32 {
		return scalar.Float32(math.Float32frombits(uint32(bits >> 32)))
	}

	return scalar.Float(math.Float64frombits(bits))
}

func (rdKernels) Canonicalize(a *array.Array) (*array.Array, error) {
	right := rightPart(a)
	left := leftCodes(a)
	p := a.DType().PType()

	vals := make([]scalar.Scalar, a.Len())
	valid := make([]bool, a.Len())
	for i := range vals {
		rv, err := right.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if rv.IsNull() {
			vals[i] = scalar.Null(a.DType())

			continue
		}
		lv, err := left.ScalarAt(i)
		if err != nil {
			return nil, err
		}

		vals[i] = combine(p, uint16(lv.AsUint()), rv.AsUint())
		valid[i] = true
	}

	return array.RebuildFromScalars(a.DType(), vals, valid)
}

func (rdKernels) ScalarAt(a *array.Array, i int) (scalar.Scalar, error) {
	rv, err := rightPart(a).ScalarAt(i)
	if err != nil {
		return scalar.Scalar{}, err
	}
	if rv.IsNull() {
		return scalar.Null(a.DType()), nil
	}
	lv, err := leftCodes(a).ScalarAt(i)
	if err != nil {
		return scalar.Scalar{}, err
	}

	return combine(a.DType().PType(), uint16(lv.AsUint()), rv.AsUint()), nil
}

func floatBits(p dtype.PType, v scalar.Scalar) uint64 {
	if p == dtype.F32 {
		return uint64(math.Float32bits(float32(v.AsFloat()))) << 32
	}

	return math.Float64bits(v.AsFloat())
}

// EncodeRD builds arr's ALP-RD encoding.
func EncodeRD(arr *array.Array) (*array.Array, error) {
	dt := arr.DType()
	if dt.Kind() != dtype.KindPrimitive || !dt.PType().IsFloat() {
		return nil, fmt.Errorf("%w: alp.EncodeRD requires a float Primitive array", errs.ErrInvalidType)
	}
	if arr.Len() == 0 {
		return nil, fmt.Errorf("%w: alp.EncodeRD on empty array", errs.ErrEmptyInput)
	}

	p := dt.PType()

	leftVals := make([]scalar.Scalar, arr.Len())
	rightVals := make([]scalar.Scalar, arr.Len())
	valid := make([]bool, arr.Len())

	for i := 0; i < arr.Len(); i++ {
		v, err := arr.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if v.IsNull() {
			continue
		}

		bits := floatBits(p, v)
		left := uint16(bits >> (64 - leftBits))
		right := bits & (uint64(1)<<(64-leftBits) - 1)

		leftVals[i] = scalar.Uint(dtype.U16, uint64(left))
		rightVals[i] = scalar.Uint(dtype.U64, right)
		valid[i] = true
	}

	leftDt := dtype.Primitive(dtype.U16, dtype.Nullable)
	leftArr, err := array.RebuildFromScalars(leftDt, leftVals, valid)
	if err != nil {
		return nil, err
	}
	leftDict, err := dict.Encode(leftArr)
	if err != nil {
		return nil, err
	}

	rightDt := dtype.Primitive(dtype.U64, dtype.Nullable)
	rightArr, err := array.RebuildFromScalars(rightDt, rightVals, valid)
	if err != nil {
		return nil, err
	}

	var md [2]byte
	binary.LittleEndian.PutUint16(md[:], leftBits)

	return array.NewEncoded(IDRD, dt, arr.Len(), md[:], []*array.Array{rightArr, leftDict}, nil, arr.Validity(), rdKernels{}), nil
}

// FromPartsRD reconstructs a previously-serialized ALP-RD array from its
// raw metadata and children (right part, left dictionary), for use by
// package serde's deserializer.
func FromPartsRD(dt dtype.DType, length int, metadata []byte, children []*array.Array, v validity.Validity) *array.Array {
	return array.NewEncoded(IDRD, dt, length, metadata, children, nil, v, rdKernels{})
}

// CanCompressRD reports whether arr is a non-empty float Primitive array;
// ALP-RD is the float fallback whenever ALP's exception ratio is too
// high, so it always accepts.
func CanCompressRD(arr *array.Array) bool {
	dt := arr.DType()

	return dt.Kind() == dtype.KindPrimitive && dt.PType().IsFloat() && arr.Len() > 0
}

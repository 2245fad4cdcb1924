// Package forenc implements Frame-of-Reference encoding: every element is
// stored as its unsigned offset from a shared reference value (the
// column's minimum), so a narrow-range integer column (e.g. monotonically
// increasing IDs, or values clustered around a mean) becomes a column of
// small non-negative offsets. The offsets are held in the unsigned
// Primitive of the same byte width as the original PType; this encoding
// does not narrow the width itself.
package forenc

import (
	"fmt"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// ID is Frame-of-Reference's encoding tag.
const ID = array.EncodingIDUserBase + 6

type kernels struct{}

var _ array.Kernels = kernels{}
var _ array.ScalarAtKernel = kernels{}
var _ array.SliceKernel = kernels{}
var _ array.TakeKernel = kernels{}

func reference(a *array.Array) scalar.Scalar {
	v, _ := scalar.DecodeMetadata(a.Metadata())

	return v
}

func encoded(a *array.Array) *array.Array {
	c, _ := a.Child(0, dtype.DType{}, -1)

	return c
}

func widthFor(p dtype.PType) dtype.PType {
	switch {
	case p.ByteWidth() <= 1:
		return dtype.U8
	case p.ByteWidth() <= 2:
		return dtype.U16
	case p.ByteWidth() <= 4:
		return dtype.U32
	default:
		return dtype.U64
	}
}

func apply(p dtype.PType, ref scalar.Scalar, off uint64) scalar.Scalar {
	if p.IsSigned() {
		return scalar.Int(p, ref.AsInt()+int64(off))
	}

	return scalar.Uint(p, ref.AsUint()+off)
}

func (kernels) Canonicalize(a *array.Array) (*array.Array, error) {
	enc := encoded(a)
	ref := reference(a)
	p := a.DType().PType()

	vals := make([]scalar.Scalar, a.Len())
	valid := make([]bool, a.Len())
	for i := range vals {
		ev, err := enc.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if ev.IsNull() {
			vals[i] = scalar.Null(a.DType())
			valid[i] = false

			continue
		}
		vals[i] = apply(p, ref, ev.AsUint())
		valid[i] = true
	}

	return array.RebuildFromScalars(a.DType(), vals, valid)
}

func (kernels) ScalarAt(a *array.Array, i int) (scalar.Scalar, error) {
	enc := encoded(a)
	ev, err := enc.ScalarAt(i)
	if err != nil {
		return scalar.Scalar{}, err
	}
	if ev.IsNull() {
		return scalar.Null(a.DType()), nil
	}

	return apply(a.DType().PType(), reference(a), ev.AsUint()), nil
}

func (kernels) Slice(a *array.Array, start, stop int) (*array.Array, error) {
	enc := encoded(a)
	newEnc, err := enc.Slice(start, stop)
	if err != nil {
		return nil, err
	}

	return rewrap(a.DType(), reference(a), newEnc), nil
}

func (kernels) Take(a *array.Array, indices []int) (*array.Array, error) {
	enc := encoded(a)
	newEnc, err := enc.Take(indices)
	if err != nil {
		return nil, err
	}

	return rewrap(a.DType(), reference(a), newEnc), nil
}

func rewrap(dt dtype.DType, ref scalar.Scalar, enc *array.Array) *array.Array {
	md := scalar.EncodeMetadata(ref)

	return array.NewEncoded(ID, dt, enc.Len(), md, []*array.Array{enc}, nil, enc.Validity(), kernels{})
}

// CanCompress reports whether arr is a non-empty integer Primitive array
// with min and max stats available that is either signed (any span) or
// unsigned with a max-min span below 2^(W-1), W being its bit width.
func CanCompress(arr *array.Array) bool {
	dt := arr.DType()
	if dt.Kind() != dtype.KindPrimitive || !dt.PType().IsInt() {
		return false
	}
	if arr.Len() == 0 {
		return false
	}

	minS, ok := arr.ComputeStat(array.StatMin)
	if !ok {
		return false
	}
	maxS, ok := arr.ComputeStat(array.StatMax)
	if !ok {
		return false
	}

	var span uint64
	if dt.PType().IsSigned() {
		span = uint64(maxS.AsInt() - minS.AsInt())
	} else {
		span = maxS.AsUint() - minS.AsUint()
	}

	return widthFor(dt.PType()) != dt.PType() || span < (uint64(1)<<uint(dt.PType().BitWidth()-1))
}

// Encode builds arr's Frame-of-Reference encoding using arr's minimum
// value as reference.
func Encode(arr *array.Array) (*array.Array, error) {
	dt := arr.DType()
	if dt.Kind() != dtype.KindPrimitive || !dt.PType().IsInt() {
		return nil, fmt.Errorf("%w: forenc.Encode requires an integer Primitive array", errs.ErrInvalidType)
	}
	if arr.Len() == 0 {
		return nil, fmt.Errorf("%w: forenc.Encode on empty array", errs.ErrEmptyInput)
	}

	ref, ok := arr.ComputeStat(array.StatMin)
	if !ok {
		return nil, fmt.Errorf("%w: forenc.Encode could not compute minimum", errs.ErrInvalidArgument)
	}

	p := dt.PType()
	encP := widthFor(p)

	offVals := make([]scalar.Scalar, arr.Len())
	valid := make([]bool, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		v, err := arr.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if v.IsNull() {
			continue
		}

		var off uint64
		if p.IsSigned() {
			off = uint64(v.AsInt() - ref.AsInt())
		} else {
			off = v.AsUint() - ref.AsUint()
		}
		offVals[i] = scalar.Uint(encP, off)
		valid[i] = true
	}

	encDt := dtype.Primitive(encP, dtype.Nullable)
	enc, err := array.RebuildFromScalars(encDt, offVals, valid)
	if err != nil {
		return nil, err
	}

	return rewrap(dt, ref, enc), nil
}

// FromParts reconstructs a previously-serialized Frame-of-Reference array
// from its raw metadata and encoded child, for use by package serde's
// deserializer.
func FromParts(dt dtype.DType, length int, metadata []byte, children []*array.Array, v validity.Validity) *array.Array {
	return array.NewEncoded(ID, dt, length, metadata, children, nil, v, kernels{})
}

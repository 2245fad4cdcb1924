// Package constant implements the Constant encoding: an array whose every
// element is the same scalar value (or, if nullable, every element
// null). It carries no buffers at all — just the value and a length —
// and is always enabled; the sampling compressor checks for it before
// considering any other encoding.
package constant

import (
	"fmt"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// ID is Constant's encoding tag.
const ID = array.EncodingIDUserBase + 1

type kernels struct{}

var _ array.Kernels = kernels{}
var _ array.ScalarAtKernel = kernels{}
var _ array.SliceKernel = kernels{}
var _ array.TakeKernel = kernels{}
var _ array.SearchSortedKernel = kernels{}

func value(a *array.Array) scalar.Scalar {
	md := a.Metadata()
	v, _ := scalar.DecodeMetadata(md)

	return v
}

func (kernels) Canonicalize(a *array.Array) (*array.Array, error) {
	v := value(a)
	vals := make([]scalar.Scalar, a.Len())
	valid := make([]bool, a.Len())
	for i := range vals {
		vals[i] = v
		valid[i] = !v.IsNull()
	}

	return rebuildCanonical(a.DType(), vals, valid)
}

func (kernels) ScalarAt(a *array.Array, i int) (scalar.Scalar, error) {
	return value(a), nil
}

func (kernels) Slice(a *array.Array, start, stop int) (*array.Array, error) {
	return New(a.DType(), value(a), stop-start), nil
}

func (kernels) Take(a *array.Array, indices []int) (*array.Array, error) {
	return New(a.DType(), value(a), len(indices)), nil
}

func (kernels) SearchSorted(a *array.Array, v scalar.Scalar, side array.Side) (array.SearchResult, error) {
	cv := value(a)
	if cv.IsNull() {
		return array.SearchResult{Found: false, Index: 0}, nil
	}

	switch {
	case v.Equal(cv):
		idx := 0
		if side == array.SideRight {
			idx = a.Len()
		}

		return array.SearchResult{Found: true, Index: idx}, nil
	case v.Less(cv):
		return array.SearchResult{Found: false, Index: 0}, nil
	default:
		return array.SearchResult{Found: false, Index: a.Len()}, nil
	}
}

// New builds a Constant array of the given dtype, value and length. value
// must either be null (if dt is nullable) or non-null of dt's kind.
func New(dt dtype.DType, value scalar.Scalar, length int) *array.Array {
	md := scalar.EncodeMetadata(value)

	v := validity.AllValid(length)
	if value.IsNull() {
		v = validity.AllInvalid(length)
	}

	return array.NewEncoded(ID, dt, length, md, nil, nil, v, kernels{})
}

// CanCompress reports whether arr is uniform, as given by its IsConstant
// stat (computed on demand if not yet cached). It returns false when the
// stat is unavailable.
func CanCompress(arr *array.Array) bool {
	if v, ok := arr.ComputeStat(array.StatIsConstant); ok {
		return v.AsBool()
	}

	return false
}

// Encode builds a Constant encoding of arr, failing if arr is not
// actually uniform.
func Encode(arr *array.Array) (*array.Array, error) {
	if arr.Len() == 0 {
		return nil, fmt.Errorf("%w: constant.Encode on empty array", errs.ErrEmptyInput)
	}
	if !CanCompress(arr) {
		return nil, fmt.Errorf("%w: array is not constant", errs.ErrInvalidArgument)
	}

	v, err := arr.ScalarAt(0)
	if err != nil {
		return nil, err
	}

	return New(arr.DType(), v, arr.Len()), nil
}

func rebuildCanonical(dt dtype.DType, vals []scalar.Scalar, valid []bool) (*array.Array, error) {
	return array.RebuildFromScalars(dt, vals, valid)
}

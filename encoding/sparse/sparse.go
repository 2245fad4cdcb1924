// Package sparse implements the Sparse encoding: an array that is mostly
// fill_value, with a strictly sorted list of indices carrying exception
// values. It backs Bit-Packed's patches and ALP's non-representable
// float exceptions, as well as being directly selectable by the sampling
// compressor for naturally sparse data.
package sparse

import (
	"fmt"
	"sort"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// ID is Sparse's encoding tag.
const ID = array.EncodingIDUserBase + 2

type kernels struct{}

var _ array.Kernels = kernels{}
var _ array.ScalarAtKernel = kernels{}
var _ array.SliceKernel = kernels{}
var _ array.TakeKernel = kernels{}

func indicesAndValues(a *array.Array) (indices, values *array.Array) {
	indices, _ = a.Child(0, dtype.DType{}, -1)
	values, _ = a.Child(1, dtype.DType{}, -1)

	return
}

func fillValue(a *array.Array) scalar.Scalar {
	v, _ := scalar.DecodeMetadata(a.Metadata())

	return v
}

// locate returns the position within indices where logical index i lives,
// or -1 if i has no exception entry.
func locate(indices *array.Array, i int) int {
	n := indices.Len()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		v, _ := indices.ScalarAt(mid)
		if v.AsUint() < uint64(i) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < n {
		v, _ := indices.ScalarAt(lo)
		if v.AsUint() == uint64(i) {
			return lo
		}
	}

	return -1
}

func (kernels) Canonicalize(a *array.Array) (*array.Array, error) {
	indices, values := indicesAndValues(a)
	fv := fillValue(a)

	vals := make([]scalar.Scalar, a.Len())
	valid := make([]bool, a.Len())
	for i := range vals {
		vals[i] = fv
		valid[i] = !fv.IsNull()
	}

	for j := 0; j < indices.Len(); j++ {
		iv, err := indices.ScalarAt(j)
		if err != nil {
			return nil, err
		}
		vv, err := values.ScalarAt(j)
		if err != nil {
			return nil, err
		}

		pos := int(iv.AsUint())
		vals[pos] = vv
		valid[pos] = !vv.IsNull()
	}

	return array.RebuildFromScalars(a.DType(), vals, valid)
}

func (kernels) ScalarAt(a *array.Array, i int) (scalar.Scalar, error) {
	indices, values := indicesAndValues(a)
	pos := locate(indices, i)
	if pos < 0 {
		return fillValue(a), nil
	}

	return values.ScalarAt(pos)
}

func (kernels) Slice(a *array.Array, start, stop int) (*array.Array, error) {
	indices, values := indicesAndValues(a)

	lo := sort.Search(indices.Len(), func(j int) bool {
		v, _ := indices.ScalarAt(j)
		return v.AsUint() >= uint64(start)
	})
	hi := sort.Search(indices.Len(), func(j int) bool {
		v, _ := indices.ScalarAt(j)
		return v.AsUint() >= uint64(stop)
	})

	newIndices, err := indices.Slice(lo, hi)
	if err != nil {
		return nil, err
	}
	newIndices, err = shiftIndices(newIndices, -start)
	if err != nil {
		return nil, err
	}
	newValues, err := values.Slice(lo, hi)
	if err != nil {
		return nil, err
	}

	return New(a.DType(), newIndices, newValues, fillValue(a), stop-start), nil
}

func (kernels) Take(a *array.Array, idxList []int) (*array.Array, error) {
	indices, values := indicesAndValues(a)
	fv := fillValue(a)

	var outIdx []scalar.Scalar
	var outVal []scalar.Scalar
	for k, i := range idxList {
		pos := locate(indices, i)
		if pos < 0 {
			continue
		}
		v, err := values.ScalarAt(pos)
		if err != nil {
			return nil, err
		}

		outIdx = append(outIdx, scalar.Uint(indices.DType().PType(), uint64(k)))
		outVal = append(outVal, v)
	}

	validIdx := make([]bool, len(outIdx))
	for i := range validIdx {
		validIdx[i] = true
	}
	idxArr, err := array.RebuildFromScalars(indices.DType(), outIdx, validIdx)
	if err != nil {
		return nil, err
	}
	valArr, err := array.RebuildFromScalars(values.DType(), outVal, validIdx)
	if err != nil {
		return nil, err
	}

	return New(a.DType(), idxArr, valArr, fv, len(idxList)), nil
}

func shiftIndices(indices *array.Array, delta int) (*array.Array, error) {
	vals := make([]scalar.Scalar, indices.Len())
	valid := make([]bool, indices.Len())
	for i := range vals {
		v, err := indices.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		vals[i] = scalar.Uint(indices.DType().PType(), uint64(int(v.AsUint())+delta))
		valid[i] = true
	}

	return array.RebuildFromScalars(indices.DType(), vals, valid)
}

// New builds a Sparse array. indices must be a non-nullable, strictly
// increasing unsigned Primitive array; values must have the same length
// as indices and dtype dt (nullability aside).
func New(dt dtype.DType, indices, values *array.Array, fillValue scalar.Scalar, length int) *array.Array {
	if indices.Len() != values.Len() {
		panic("sparse.New: indices and values length mismatch")
	}

	md := scalar.EncodeMetadata(fillValue)

	valid := make([]bool, length)
	for i := range valid {
		valid[i] = !fillValue.IsNull()
	}
	for j := 0; j < indices.Len(); j++ {
		iv, _ := indices.ScalarAt(j)
		vv, _ := values.ScalarAt(j)
		valid[int(iv.AsUint())] = !vv.IsNull()
	}

	v := validity.BitmapFromBools(valid)

	return array.NewEncoded(ID, dt, length, md, []*array.Array{indices, values}, nil, v, kernels{})
}

// CanCompress reports whether arr has few enough non-fill values to make
// Sparse worthwhile: taking arr's first element as the fill value, at
// most maxNonFillRatio of the positions may hold a different value.
func CanCompress(arr *array.Array, maxNonFillRatio float64) bool {
	if arr.Len() == 0 {
		return false
	}

	fv, err := arr.ScalarAt(0)
	if err != nil {
		return false
	}

	nonFill := 0
	limit := int(maxNonFillRatio * float64(arr.Len()))
	for i := 0; i < arr.Len(); i++ {
		v, err := arr.ScalarAt(i)
		if err != nil {
			return false
		}
		if !v.Equal(fv) {
			nonFill++
			if nonFill > limit {
				return false
			}
		}
	}

	return true
}

// Encode builds a Sparse encoding of arr with fv as fill_value: every
// position whose value is not equal to fv becomes an exception entry.
// Bit-Packed's patches and ALP's exceptions are built with New directly,
// using a null fill value.
func Encode(arr *array.Array, fv scalar.Scalar) (*array.Array, error) {
	if arr.Len() == 0 {
		return nil, fmt.Errorf("%w: sparse.Encode on empty array", errs.ErrEmptyInput)
	}

	var idxVals []scalar.Scalar
	var valVals []scalar.Scalar
	for i := 0; i < arr.Len(); i++ {
		v, err := arr.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if v.Equal(fv) {
			continue
		}

		idxVals = append(idxVals, scalar.Uint(dtype.U32, uint64(i)))
		valVals = append(valVals, v)
	}

	valid := make([]bool, len(idxVals))
	for i := range valid {
		valid[i] = true
	}

	idt := dtype.Primitive(dtype.U32, dtype.NonNullable)
	indices, err := array.RebuildFromScalars(idt, idxVals, valid)
	if err != nil {
		return nil, err
	}
	values, err := array.RebuildFromScalars(arr.DType(), valVals, valid)
	if err != nil {
		return nil, err
	}

	return New(arr.DType(), indices, values, fv, arr.Len()), nil
}

// Package dict implements Dictionary encoding: a codes array of small
// unsigned integers indexing into a values array of distinct elements.
// When the logical dtype is nullable, code 0 is reserved as the null
// sentinel and is never assigned to an actual value, so values holds
// only the distinct non-null elements.
package dict

import (
	"fmt"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/internal/collision"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// ID is Dictionary's encoding tag.
const ID = array.EncodingIDUserBase + 4

type kernels struct{}

var _ array.Kernels = kernels{}
var _ array.ScalarAtKernel = kernels{}
var _ array.SliceKernel = kernels{}
var _ array.TakeKernel = kernels{}

func codesAndValues(a *array.Array) (codes, values *array.Array) {
	codes, _ = a.Child(0, dtype.DType{}, -1)
	values, _ = a.Child(1, dtype.DType{}, -1)

	return
}

func hasSentinel(a *array.Array) bool {
	return a.DType().Nullable()
}

func lookup(a *array.Array, codes, values *array.Array, i int) (scalar.Scalar, error) {
	c, err := codes.ScalarAt(i)
	if err != nil {
		return scalar.Scalar{}, err
	}

	code := c.AsUint()
	if hasSentinel(a) {
		if code == 0 {
			return scalar.Null(a.DType()), nil
		}
		code--
	}

	return values.ScalarAt(int(code))
}

func (kernels) Canonicalize(a *array.Array) (*array.Array, error) {
	codes, values := codesAndValues(a)

	vals := make([]scalar.Scalar, a.Len())
	valid := make([]bool, a.Len())
	for i := range vals {
		v, err := lookup(a, codes, values, i)
		if err != nil {
			return nil, err
		}
		vals[i] = v
		valid[i] = !v.IsNull()
	}

	return array.RebuildFromScalars(a.DType(), vals, valid)
}

func (kernels) ScalarAt(a *array.Array, i int) (scalar.Scalar, error) {
	codes, values := codesAndValues(a)

	return lookup(a, codes, values, i)
}

func (kernels) Slice(a *array.Array, start, stop int) (*array.Array, error) {
	codes, values := codesAndValues(a)

	newCodes, err := codes.Slice(start, stop)
	if err != nil {
		return nil, err
	}

	return rewrap(a.DType(), newCodes, values), nil
}

func (kernels) Take(a *array.Array, indices []int) (*array.Array, error) {
	codes, values := codesAndValues(a)

	newCodes, err := codes.Take(indices)
	if err != nil {
		return nil, err
	}

	return rewrap(a.DType(), newCodes, values), nil
}

func rewrap(dt dtype.DType, codes, values *array.Array) *array.Array {
	return New(dt, codes, values)
}

// New builds a Dictionary array from pre-built codes and values arrays.
// codes must be a non-nullable unsigned Primitive array; when dt is
// nullable, code 0 means null and values[code-1] otherwise, else
// values[code] directly.
func New(dt dtype.DType, codes, values *array.Array) *array.Array {
	v := validity.AllValid(codes.Len())
	if dt.Nullable() {
		valid := make([]bool, codes.Len())
		for i := range valid {
			c, _ := codes.ScalarAt(i)
			valid[i] = c.AsUint() != 0
		}
		v = validity.BitmapFromBools(valid)
	}

	return array.NewEncoded(ID, dt, codes.Len(), nil, []*array.Array{codes, values}, nil, v, kernels{})
}

// CanCompress reports whether arr's distinct-value count falls under
// maxCardinality, the usual gate for preferring Dictionary.
func CanCompress(arr *array.Array, maxCardinality int) bool {
	if arr.Len() == 0 {
		return false
	}

	seen := collision.NewInterner()
	for i := 0; i < arr.Len(); i++ {
		v, err := arr.ScalarAt(i)
		if err != nil {
			return false
		}
		if v.IsNull() {
			continue
		}

		seen.Intern(string(scalar.EncodeMetadata(v)))
		if seen.Count() > maxCardinality {
			return false
		}
	}

	return true
}

// Encode builds arr's Dictionary encoding by interning each distinct
// non-null value in first-seen order.
func Encode(arr *array.Array) (*array.Array, error) {
	if arr.Len() == 0 {
		return nil, fmt.Errorf("%w: dict.Encode on empty array", errs.ErrEmptyInput)
	}

	interner := collision.NewInterner()
	nullable := arr.DType().Nullable()

	distinctVals := make([]scalar.Scalar, 0, 16)
	codeVals := make([]scalar.Scalar, arr.Len())

	for i := 0; i < arr.Len(); i++ {
		v, err := arr.ScalarAt(i)
		if err != nil {
			return nil, err
		}

		if v.IsNull() {
			if !nullable {
				return nil, fmt.Errorf("%w: null value in non-nullable dictionary source", errs.ErrInvalidArgument)
			}
			codeVals[i] = scalar.Uint(dtype.U32, 0)

			continue
		}

		key := string(scalar.EncodeMetadata(v))
		code, isNew := interner.Intern(key)
		if isNew {
			distinctVals = append(distinctVals, v)
		}

		offset := uint64(0)
		if nullable {
			offset = 1
		}
		codeVals[i] = scalar.Uint(dtype.U32, uint64(code)+offset)
	}

	codeValid := make([]bool, len(codeVals))
	for i := range codeValid {
		codeValid[i] = true
	}
	codesDt := dtype.Primitive(dtype.U32, dtype.NonNullable)
	codes, err := array.RebuildFromScalars(codesDt, codeVals, codeValid)
	if err != nil {
		return nil, err
	}

	valueValid := make([]bool, len(distinctVals))
	for i := range valueValid {
		valueValid[i] = true
	}
	storageDt := arr.DType().WithNullability(dtype.NonNullable)
	values, err := array.RebuildFromScalars(storageDt, distinctVals, valueValid)
	if err != nil {
		return nil, err
	}

	return New(arr.DType(), codes, values), nil
}

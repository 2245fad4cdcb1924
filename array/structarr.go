package array

import (
	"fmt"

	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/validity"
)

// NewStruct builds a Struct canonical array: one child array per field,
// in field order, plus struct-level validity. Each child's length must
// equal length.
func NewStruct(fieldNames []string, fieldTypes []dtype.DType, children []*Array, v validity.Validity, n dtype.Nullability) *Array {
	if len(children) != len(fieldNames) {
		panic(fmt.Sprintf("array.NewStruct: %d children for %d fields", len(children), len(fieldNames)))
	}

	length := v.Len()
	for i, c := range children {
		if c.Len() != length {
			panic(fmt.Sprintf("array.NewStruct: field %q has length %d, struct length %d", fieldNames[i], c.Len(), length))
		}
	}

	dt := dtype.Struct(fieldNames, fieldTypes, n)

	return newNode(EncodingStruct, dt, length, nil, children, nil, v, canonicalKernels{})
}

func structSlice(a *Array, start, stop int) (*Array, error) {
	children := make([]*Array, len(a.children))
	for i, c := range a.children {
		sc, err := c.Slice(start, stop)
		if err != nil {
			return nil, err
		}
		children[i] = sc
	}

	return NewStruct(a.dt.FieldNames(), a.dt.FieldTypes(), children, a.validity.Slice(start, stop), dtype.Nullability(a.dt.Nullable())), nil
}

func structTake(a *Array, indices []int) (*Array, error) {
	children := make([]*Array, len(a.children))
	for i, c := range a.children {
		tc, err := c.Take(indices)
		if err != nil {
			return nil, err
		}
		children[i] = tc
	}

	valid := make([]bool, len(indices))
	for k, idx := range indices {
		valid[k] = a.validity.IsValid(idx)
	}

	return NewStruct(a.dt.FieldNames(), a.dt.FieldTypes(), children, validity.BitmapFromBools(valid), dtype.Nullability(a.dt.Nullable())), nil
}

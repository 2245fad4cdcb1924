package array

import (
	"fmt"

	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// NewBool builds a Bool canonical array: a packed LSB-first bitmap buffer
// plus validity. bitmap must have at least validity.ByteLen(length) bytes.
func NewBool(length int, bitmap []byte, v validity.Validity) *Array {
	if v.Len() != length {
		panic(fmt.Sprintf("array.NewBool: validity length %d != array length %d", v.Len(), length))
	}

	n := validity.ByteLen(length)
	buf := make([]byte, n)
	copy(buf, bitmap)

	nullability := dtype.NonNullable
	if v.Kind() != validity.KindNonNullable {
		nullability = dtype.Nullable
	}

	return newNode(EncodingBool, dtype.Bool(nullability), length, nil, nil, [][]byte{buf}, v, canonicalKernels{})
}

func boolScalarAt(a *Array, i int) (scalar.Scalar, error) {
	if !a.validity.IsValid(i) {
		return scalar.Null(a.dt), nil
	}

	return scalar.Bool(getBit(a.buffers[0], i)), nil
}

func boolSlice(a *Array, start, stop int) (*Array, error) {
	n := stop - start
	bits := make([]bool, n)
	for i := 0; i < n; i++ {
		bits[i] = getBit(a.buffers[0], start+i)
	}

	return NewBool(n, packBits(bits), a.validity.Slice(start, stop)), nil
}

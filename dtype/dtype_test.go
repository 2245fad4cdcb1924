package dtype_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/dtype"
)

func TestPrimitiveAccessors(t *testing.T) {
	d := dtype.Primitive(dtype.I64, dtype.Nullable)

	assert.Equal(t, dtype.KindPrimitive, d.Kind())
	assert.True(t, d.Nullable())
	assert.Equal(t, dtype.I64, d.PType())
	assert.Equal(t, "primitive(i64, nullable)", d.String())
}

func TestNullIsAlwaysNullable(t *testing.T) {
	n := dtype.Null()
	assert.True(t, n.Nullable())

	n2 := n.WithNullability(dtype.NonNullable)
	assert.True(t, n2.Nullable(), "WithNullability must be a no-op on Null")
}

func TestListElementNullabilityIndependent(t *testing.T) {
	elem := dtype.Primitive(dtype.F64, dtype.NonNullable)
	l := dtype.List(elem, dtype.Nullable)

	assert.True(t, l.Nullable())
	assert.False(t, l.Element().Nullable())
}

func TestStructFieldsMustMatchLength(t *testing.T) {
	assert.Panics(t, func() {
		dtype.Struct([]string{"a", "b"}, []dtype.DType{dtype.Bool(dtype.NonNullable)}, dtype.NonNullable)
	})
}

func TestStructRejectsDuplicateFieldNames(t *testing.T) {
	assert.Panics(t, func() {
		dtype.Struct(
			[]string{"a", "a"},
			[]dtype.DType{dtype.Bool(dtype.NonNullable), dtype.Bool(dtype.NonNullable)},
			dtype.NonNullable,
		)
	})
}

func TestStructFieldIndex(t *testing.T) {
	s := dtype.Struct(
		[]string{"x", "y"},
		[]dtype.DType{dtype.Primitive(dtype.F64, dtype.NonNullable), dtype.Primitive(dtype.F64, dtype.NonNullable)},
		dtype.NonNullable,
	)

	assert.Equal(t, 0, s.FieldIndex("x"))
	assert.Equal(t, 1, s.FieldIndex("y"))
	assert.Equal(t, -1, s.FieldIndex("z"))
}

func TestExtensionAccessors(t *testing.T) {
	storage := dtype.Primitive(dtype.I64, dtype.NonNullable)
	ext := dtype.Extension("strata.timestamp_us", []byte("UTC"), storage, dtype.Nullable)

	require.Equal(t, dtype.KindExtension, ext.Kind())
	assert.Equal(t, "strata.timestamp_us", ext.ExtensionID())
	assert.Equal(t, []byte("UTC"), ext.ExtensionMetadata())
	assert.True(t, ext.StorageType().Equal(storage))
}

func TestEqual(t *testing.T) {
	a := dtype.Struct(
		[]string{"a"},
		[]dtype.DType{dtype.Primitive(dtype.U32, dtype.Nullable)},
		dtype.NonNullable,
	)
	b := dtype.Struct(
		[]string{"a"},
		[]dtype.DType{dtype.Primitive(dtype.U32, dtype.Nullable)},
		dtype.NonNullable,
	)
	c := dtype.Struct(
		[]string{"a"},
		[]dtype.DType{dtype.Primitive(dtype.U32, dtype.NonNullable)},
		dtype.NonNullable,
	)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestPTypeWidths(t *testing.T) {
	tests := []struct {
		p         dtype.PType
		bitWidth  int
		byteWidth int
	}{
		{dtype.U8, 8, 1},
		{dtype.I16, 16, 2},
		{dtype.F32, 32, 4},
		{dtype.F64, 64, 8},
	}

	for _, tc := range tests {
		t.Run(tc.p.String(), func(t *testing.T) {
			assert.Equal(t, tc.bitWidth, tc.p.BitWidth())
			assert.Equal(t, tc.byteWidth, tc.p.ByteWidth())
		})
	}
}

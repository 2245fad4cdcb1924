package scalar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/scalar"
)

func TestIntRoundTrip(t *testing.T) {
	s := scalar.Int(dtype.I32, -42)
	assert.False(t, s.IsNull())
	assert.Equal(t, int64(-42), s.AsInt())
}

func TestUintRoundTrip(t *testing.T) {
	s := scalar.Uint(dtype.U64, 1<<40)
	assert.Equal(t, uint64(1<<40), s.AsUint())
}

func TestFloatRoundTrip(t *testing.T) {
	s := scalar.Float(3.25)
	assert.InDelta(t, 3.25, s.AsFloat(), 0)
}

func TestFloat32Upcast(t *testing.T) {
	s := scalar.Float32(1.5)
	assert.InDelta(t, 1.5, s.AsFloat(), 1e-6)
}

func TestStringRoundTrip(t *testing.T) {
	s := scalar.String("hello")
	assert.Equal(t, "hello", s.AsString())
}

func TestNullOrdersBeforeNonNull(t *testing.T) {
	null := scalar.Null(dtype.Primitive(dtype.I64, dtype.Nullable))
	val := scalar.Int(dtype.I64, 0)

	assert.True(t, null.Less(val))
	assert.False(t, val.Less(null))
	assert.False(t, null.Less(null))
}

func TestLessMismatchedKindPanics(t *testing.T) {
	assert.Panics(t, func() {
		scalar.Bool(true).Less(scalar.Int(dtype.I8, 1))
	})
}

func TestEqual(t *testing.T) {
	a := scalar.Uint(dtype.U16, 7)
	b := scalar.Uint(dtype.U16, 7)
	c := scalar.Uint(dtype.U16, 8)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestLessOrdering(t *testing.T) {
	tests := []struct {
		name string
		a, b scalar.Scalar
	}{
		{"int", scalar.Int(dtype.I32, -1), scalar.Int(dtype.I32, 1)},
		{"uint", scalar.Uint(dtype.U32, 1), scalar.Uint(dtype.U32, 2)},
		{"float", scalar.Float(1.0), scalar.Float(2.0)},
		{"string", scalar.String("a"), scalar.String("b")},
		{"bool", scalar.Bool(false), scalar.Bool(true)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.a.Less(tc.b))
			assert.False(t, tc.b.Less(tc.a))
		})
	}
}

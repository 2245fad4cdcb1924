package array_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/validity"
)

func boolBuf(bits ...bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}

	return out
}

func TestBoolCompareBitwise(t *testing.T) {
	a := array.NewBool(8, boolBuf(true, true, false, false, true, false, true, true), validity.AllValid(8))
	b := array.NewBool(8, boolBuf(true, false, false, true, true, false, false, true), validity.AllValid(8))

	eq, err := a.Compare(b, array.CompareEQ)
	require.NoError(t, err)
	wantEq := []bool{true, false, true, false, true, true, false, true}
	for i, w := range wantEq {
		v, err := eq.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, w, v.AsBool(), "index %d", i)
	}

	ne, err := a.Compare(b, array.CompareNE)
	require.NoError(t, err)
	for i, w := range wantEq {
		v, err := ne.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, !w, v.AsBool(), "index %d", i)
	}
}

func TestBoolCompareWithNulls(t *testing.T) {
	av := validity.BitmapFromBools([]bool{true, true, false, true})
	bv := validity.BitmapFromBools([]bool{true, false, true, true})

	a := array.NewBool(4, boolBuf(true, true, true, false), av)
	b := array.NewBool(4, boolBuf(true, true, true, true), bv)

	eq, err := a.Compare(b, array.CompareEQ)
	require.NoError(t, err)

	v0, err := eq.ScalarAt(0)
	require.NoError(t, err)
	assert.False(t, v0.IsNull())
	assert.True(t, v0.AsBool())

	for _, i := range []int{1, 2} {
		v, err := eq.ScalarAt(i)
		require.NoError(t, err)
		assert.True(t, v.IsNull(), "index %d should be null: a_valid=%v b_valid=%v", i, av.IsValid(i), bv.IsValid(i))
	}

	v3, err := eq.ScalarAt(3)
	require.NoError(t, err)
	assert.False(t, v3.IsNull())
	assert.False(t, v3.AsBool())
}

func TestBoolCompareAllValidFastPath(t *testing.T) {
	a := array.NewBool(3, boolBuf(true, false, true), validity.NonNullable(3))
	b := array.NewBool(3, boolBuf(true, true, true), validity.NonNullable(3))

	gt, err := a.Compare(b, array.CompareGT)
	require.NoError(t, err)
	for i, want := range []bool{false, false, false} {
		v, err := gt.ScalarAt(i)
		require.NoError(t, err)
		assert.False(t, v.IsNull())
		assert.Equal(t, want, v.AsBool())
	}
}

package array_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

func int32Buf(vals ...int32) []byte {
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		buf[i*4] = byte(v)
		buf[i*4+1] = byte(v >> 8)
		buf[i*4+2] = byte(v >> 16)
		buf[i*4+3] = byte(v >> 24)
	}

	return buf
}

func TestPrimitiveScalarAtAndSlice(t *testing.T) {
	a := array.NewPrimitive(dtype.I32, 4, int32Buf(10, 20, 30, 40), validity.AllValid(4))

	v, err := a.ScalarAt(2)
	require.NoError(t, err)
	assert.Equal(t, int64(30), v.AsInt())

	s, err := a.Slice(1, 3)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	v0, _ := s.ScalarAt(0)
	v1, _ := s.ScalarAt(1)
	assert.Equal(t, int64(20), v0.AsInt())
	assert.Equal(t, int64(30), v1.AsInt())
}

func TestPrimitiveOutOfBounds(t *testing.T) {
	a := array.NewPrimitive(dtype.U8, 2, []byte{1, 2}, validity.NonNullable(2))
	_, err := a.ScalarAt(5)
	assert.Error(t, err)
}

func TestPrimitiveNulls(t *testing.T) {
	v := validity.BitmapFromBools([]bool{true, false, true})
	a := array.NewPrimitive(dtype.U8, 3, []byte{1, 0, 3}, v)

	val, err := a.ScalarAt(1)
	require.NoError(t, err)
	assert.True(t, val.IsNull())
}

func TestBoolRoundTrip(t *testing.T) {
	b := array.NewBool(5, packBitsHelper(true, false, true, true, false), validity.AllValid(5))
	for i, want := range []bool{true, false, true, true, false} {
		v, err := b.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want, v.AsBool())
	}
}

func packBitsHelper(bits ...bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			out[i/8] |= 1 << uint(i%8)
		}
	}

	return out
}

func TestVarBinRoundTrip(t *testing.T) {
	data := []byte("helloworld")
	offsets := []uint32{0, 5, 10}
	a := array.NewVarBin(true, 2, offsets, data, validity.NonNullable(2))

	v0, err := a.ScalarAt(0)
	require.NoError(t, err)
	assert.Equal(t, "hello", v0.AsString())

	v1, _ := a.ScalarAt(1)
	assert.Equal(t, "world", v1.AsString())
}

func TestVarBinSlice(t *testing.T) {
	data := []byte("abcdefghij")
	offsets := []uint32{0, 2, 4, 6, 8, 10}
	a := array.NewVarBin(true, 5, offsets, data, validity.NonNullable(5))

	s, err := a.Slice(1, 3)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	v0, _ := s.ScalarAt(0)
	v1, _ := s.ScalarAt(1)
	assert.Equal(t, "cd", v0.AsString())
	assert.Equal(t, "ef", v1.AsString())
}

func TestTakeAndFilter(t *testing.T) {
	a := array.NewPrimitive(dtype.I32, 5, int32Buf(1, 2, 3, 4, 5), validity.AllValid(5))

	taken, err := a.Take([]int{4, 0, 2})
	require.NoError(t, err)
	v0, _ := taken.ScalarAt(0)
	v1, _ := taken.ScalarAt(1)
	v2, _ := taken.ScalarAt(2)
	assert.Equal(t, int64(5), v0.AsInt())
	assert.Equal(t, int64(1), v1.AsInt())
	assert.Equal(t, int64(3), v2.AsInt())

	filtered, err := a.Filter([]bool{true, false, true, false, true})
	require.NoError(t, err)
	require.Equal(t, 3, filtered.Len())
}

func TestCompareEqual(t *testing.T) {
	a := array.NewPrimitive(dtype.I32, 3, int32Buf(1, 2, 3), validity.AllValid(3))
	b := array.NewPrimitive(dtype.I32, 3, int32Buf(1, 5, 3), validity.AllValid(3))

	result, err := a.Compare(b, array.CompareEQ)
	require.NoError(t, err)

	v0, _ := result.ScalarAt(0)
	v1, _ := result.ScalarAt(1)
	v2, _ := result.ScalarAt(2)
	assert.True(t, v0.AsBool())
	assert.False(t, v1.AsBool())
	assert.True(t, v2.AsBool())
}

func TestSearchSorted(t *testing.T) {
	a := array.NewPrimitive(dtype.I32, 5, int32Buf(1, 3, 3, 5, 7), validity.AllValid(5))

	r, err := a.SearchSorted(scalar.Int(dtype.I32, 3), array.SideLeft)
	require.NoError(t, err)
	assert.True(t, r.Found)
	assert.Equal(t, 1, r.Index)

	r2, err := a.SearchSorted(scalar.Int(dtype.I32, 4), array.SideLeft)
	require.NoError(t, err)
	assert.False(t, r2.Found)
	assert.Equal(t, 3, r2.Index)
}

func TestSearchSortedMany(t *testing.T) {
	a := array.NewPrimitive(dtype.I32, 5, int32Buf(1, 3, 3, 5, 7), validity.AllValid(5))

	vs := []scalar.Scalar{
		scalar.Int(dtype.I32, 3),
		scalar.Int(dtype.I32, 4),
		scalar.Int(dtype.I32, 0),
		scalar.Int(dtype.I32, 9),
	}

	got, err := a.SearchSortedMany(vs, array.SideLeft)
	require.NoError(t, err)
	require.Len(t, got, len(vs))

	for i, v := range vs {
		want, err := a.SearchSorted(v, array.SideLeft)
		require.NoError(t, err)
		assert.Equal(t, want, got[i], "value %d", i)
	}
}

func TestFillForward(t *testing.T) {
	v := validity.BitmapFromBools([]bool{false, true, false, false, true})
	a := array.NewPrimitive(dtype.I32, 5, int32Buf(0, 7, 0, 0, 9), v)

	f, err := a.FillForward()
	require.NoError(t, err)

	v0, _ := f.ScalarAt(0)
	v2, _ := f.ScalarAt(2)
	v3, _ := f.ScalarAt(3)
	assert.True(t, v0.IsNull())
	assert.Equal(t, int64(7), v2.AsInt())
	assert.Equal(t, int64(7), v3.AsInt())
}

func TestSubtractScalarOverflow(t *testing.T) {
	a := array.NewPrimitive(dtype.U8, 1, []byte{5}, validity.NonNullable(1))
	_, err := a.SubtractScalar(scalar.Uint(dtype.U8, 10))
	assert.Error(t, err)
}

func TestStatsMinMaxSorted(t *testing.T) {
	a := array.NewPrimitive(dtype.I32, 5, int32Buf(1, 2, 2, 5, 7), validity.AllValid(5))

	min, ok := a.ComputeStat(array.StatMin)
	require.True(t, ok)
	assert.Equal(t, int64(1), min.AsInt())

	max, ok := a.ComputeStat(array.StatMax)
	require.True(t, ok)
	assert.Equal(t, int64(7), max.AsInt())

	sorted, ok := a.ComputeStat(array.StatIsSorted)
	require.True(t, ok)
	assert.True(t, sorted.AsBool())

	strict, ok := a.ComputeStat(array.StatIsStrictSorted)
	require.True(t, ok)
	assert.False(t, strict.AsBool())
}

func TestBitWidthHistogram(t *testing.T) {
	a := array.NewPrimitive(dtype.U8, 3, []byte{0, 1, 255}, validity.AllValid(3))

	histo, ok := a.ComputeHistogram(array.StatBitWidthFreq)
	require.True(t, ok)
	assert.Equal(t, uint64(1), histo[0])
	assert.Equal(t, uint64(1), histo[1])
	assert.Equal(t, uint64(1), histo[8])
}

func TestChildOutOfRange(t *testing.T) {
	a := array.NewPrimitive(dtype.U8, 1, []byte{1}, validity.NonNullable(1))
	_, err := a.Child(0, dtype.DType{}, -1)
	assert.Error(t, err)
}

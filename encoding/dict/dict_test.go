package dict_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/encoding/dict"
	"github.com/strata-db/strata/validity"
)

func buildSource(t *testing.T) *array.Array {
	t.Helper()
	vals := []byte{5, 9, 5, 5, 1, 9}

	return array.NewPrimitive(dtype.U8, len(vals), vals, validity.AllValid(len(vals)))
}

func TestEncodeDecode(t *testing.T) {
	src := buildSource(t)

	enc, err := dict.Encode(src)
	require.NoError(t, err)
	assert.Equal(t, dict.ID, enc.EncodingID())

	for i := 0; i < src.Len(); i++ {
		want, _ := src.ScalarAt(i)
		got, err := enc.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want.AsUint(), got.AsUint())
	}

	assert.True(t, dict.CanCompress(src, 3))
	assert.False(t, dict.CanCompress(src, 2))
}

func TestEncodeNullable(t *testing.T) {
	buf := make([]byte, 4)
	v := validity.BitmapFromBools([]bool{true, false, true, true})
	src := array.NewPrimitive(dtype.U8, 4, buf, v)

	enc, err := dict.Encode(src)
	require.NoError(t, err)

	got1, err := enc.ScalarAt(1)
	require.NoError(t, err)
	assert.True(t, got1.IsNull())

	got0, err := enc.ScalarAt(0)
	require.NoError(t, err)
	assert.False(t, got0.IsNull())
}

func TestSliceAndTake(t *testing.T) {
	src := buildSource(t)
	enc, err := dict.Encode(src)
	require.NoError(t, err)

	s, err := enc.Slice(1, 4)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	v0, _ := s.ScalarAt(0)
	assert.Equal(t, uint64(9), v0.AsUint())

	tk, err := enc.Take([]int{4, 1})
	require.NoError(t, err)
	require.Equal(t, 2, tk.Len())
	got0, _ := tk.ScalarAt(0)
	assert.Equal(t, uint64(1), got0.AsUint())
}

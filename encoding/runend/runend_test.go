package runend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/encoding/runend"
	"github.com/strata-db/strata/validity"
)

func buildSource(t *testing.T) *array.Array {
	t.Helper()
	vals := []byte{1, 1, 1, 2, 2, 3, 3, 3, 3, 3}

	return array.NewPrimitive(dtype.U8, len(vals), vals, validity.AllValid(len(vals)))
}

func TestEncodeDecode(t *testing.T) {
	src := buildSource(t)

	enc, err := runend.Encode(src)
	require.NoError(t, err)
	assert.Equal(t, runend.ID, enc.EncodingID())
	assert.Equal(t, 10, enc.Len())

	for i := 0; i < src.Len(); i++ {
		want, _ := src.ScalarAt(i)
		got, err := enc.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want.AsUint(), got.AsUint())
	}
}

func TestSlice(t *testing.T) {
	src := buildSource(t)
	enc, err := runend.Encode(src)
	require.NoError(t, err)

	s, err := enc.Slice(3, 8)
	require.NoError(t, err)
	require.Equal(t, 5, s.Len())

	canon, err := s.Canonicalize()
	require.NoError(t, err)

	want := []uint64{2, 2, 3, 3, 3}
	for i, w := range want {
		got, err := canon.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, w, got.AsUint())
	}
}

func TestCanCompress(t *testing.T) {
	src := buildSource(t)
	assert.True(t, runend.CanCompress(src, 2.0))
	assert.False(t, runend.CanCompress(src, 10.0))
}

func TestTake(t *testing.T) {
	src := buildSource(t)
	enc, err := runend.Encode(src)
	require.NoError(t, err)

	tk, err := enc.Take([]int{0, 4, 9})
	require.NoError(t, err)
	require.Equal(t, 3, tk.Len())

	want := []uint64{1, 2, 3}
	for i, w := range want {
		got, err := tk.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, w, got.AsUint())
	}
}

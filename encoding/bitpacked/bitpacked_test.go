package bitpacked_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/encoding/bitpacked"
	"github.com/strata-db/strata/validity"
)

func buildSource(t *testing.T, n int) *array.Array {
	t.Helper()
	buf := make([]byte, n*4)
	vals := make([]uint32, n)
	for i := range vals {
		vals[i] = uint32(i % 7)
	}
	for i, v := range vals {
		buf[i*4] = byte(v)
	}

	return array.NewPrimitive(dtype.U32, n, buf, validity.AllValid(n))
}

func TestEncodeDecodeSmall(t *testing.T) {
	src := buildSource(t, 20)

	enc, err := bitpacked.Encode(src, 0)
	require.NoError(t, err)
	assert.Equal(t, bitpacked.ID, enc.EncodingID())

	for i := 0; i < src.Len(); i++ {
		want, _ := src.ScalarAt(i)
		got, err := enc.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want.AsUint(), got.AsUint())
	}
}

func TestEncodeDecodeMultiBlock(t *testing.T) {
	src := buildSource(t, 2500)

	enc, err := bitpacked.Encode(src, 0)
	require.NoError(t, err)

	for _, i := range []int{0, 1023, 1024, 2499} {
		want, _ := src.ScalarAt(i)
		got, err := enc.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want.AsUint(), got.AsUint())
	}

	canon, err := enc.Canonicalize()
	require.NoError(t, err)
	for i := 0; i < src.Len(); i++ {
		want, _ := src.ScalarAt(i)
		got, err := canon.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want.AsUint(), got.AsUint())
	}
}

func TestEncodeWithPatches(t *testing.T) {
	n := 50
	buf := make([]byte, n*4)
	for i := 0; i < n; i++ {
		buf[i*4] = 1
	}
	buf[10*4] = 200

	src := array.NewPrimitive(dtype.U32, n, buf, validity.AllValid(n))

	enc, err := bitpacked.Encode(src, 0.1)
	require.NoError(t, err)

	v, err := enc.ScalarAt(10)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), v.AsUint())

	v2, err := enc.ScalarAt(11)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v2.AsUint())
}

func TestCanCompress(t *testing.T) {
	src := buildSource(t, 100)
	assert.True(t, bitpacked.CanCompress(src, 0))
}

func TestEncodeDecodeNullable(t *testing.T) {
	n := 20
	buf := make([]byte, n*4)
	for i := 0; i < n; i++ {
		buf[i*4] = byte(i % 7)
	}

	valid := make([]bool, n)
	for i := range valid {
		valid[i] = true
	}
	// Nulls at the head, middle, and tail, matching S3's "nulls region at
	// the tail" plus a couple of interior positions.
	valid[0] = false
	valid[5] = false
	valid[n-1] = false
	valid[n-2] = false

	src := array.NewPrimitive(dtype.U32, n, buf, validity.BitmapFromBools(valid))

	enc, err := bitpacked.Encode(src, 0)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		got, err := enc.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, !valid[i], got.IsNull(), "index %d", i)
		if valid[i] {
			want, _ := src.ScalarAt(i)
			assert.Equal(t, want.AsUint(), got.AsUint())
		}
	}

	canon, err := enc.Canonicalize()
	require.NoError(t, err)
	require.Equal(t, n, canon.Len())
	for i := 0; i < n; i++ {
		got, err := canon.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, !valid[i], got.IsNull(), "index %d", i)
		if valid[i] {
			want, _ := src.ScalarAt(i)
			assert.Equal(t, want.AsUint(), got.AsUint())
		}
	}
}

package fsst_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/encoding/fsst"
	"github.com/strata-db/strata/scalar"
)

func buildSource(t *testing.T) *array.Array {
	t.Helper()
	words := []string{"compression", "decompression", "compressed", "compressor", "uncompressed"}

	vals := make([]scalar.Scalar, len(words))
	valid := make([]bool, len(words))
	for i, w := range words {
		vals[i] = scalar.String(w)
		valid[i] = true
	}

	arr, err := array.RebuildFromScalars(dtype.Utf8(dtype.NonNullable), vals, valid)
	require.NoError(t, err)

	return arr
}

func TestEncodeDecode(t *testing.T) {
	src := buildSource(t)

	enc, err := fsst.Encode(src)
	require.NoError(t, err)
	assert.Equal(t, fsst.ID, enc.EncodingID())

	for i := 0; i < src.Len(); i++ {
		want, _ := src.ScalarAt(i)
		got, err := enc.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want.AsString(), got.AsString())
	}

	canon, err := enc.Canonicalize()
	require.NoError(t, err)
	for i := 0; i < src.Len(); i++ {
		want, _ := src.ScalarAt(i)
		got, err := canon.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want.AsString(), got.AsString())
	}
}

func TestEncodeWithNulls(t *testing.T) {
	vals := []scalar.Scalar{scalar.String("hello"), scalar.Null(dtype.Utf8(dtype.Nullable)), scalar.String("help")}
	valid := []bool{true, false, true}

	src, err := array.RebuildFromScalars(dtype.Utf8(dtype.Nullable), vals, valid)
	require.NoError(t, err)

	enc, err := fsst.Encode(src)
	require.NoError(t, err)

	got1, err := enc.ScalarAt(1)
	require.NoError(t, err)
	assert.True(t, got1.IsNull())

	got0, err := enc.ScalarAt(0)
	require.NoError(t, err)
	assert.Equal(t, "hello", got0.AsString())
}

func TestCanCompress(t *testing.T) {
	src := buildSource(t)
	assert.True(t, fsst.CanCompress(src))

	empty, err := array.RebuildFromScalars(dtype.Utf8(dtype.NonNullable), nil, nil)
	require.NoError(t, err)
	assert.False(t, fsst.CanCompress(empty))
}

package sparse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/encoding/sparse"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

func buildSource(t *testing.T) *array.Array {
	t.Helper()
	buf := make([]byte, 8)
	buf[3] = 99

	return array.NewPrimitive(dtype.U8, 8, buf, validity.AllValid(8))
}

func TestEncodeDecode(t *testing.T) {
	src := buildSource(t)

	enc, err := sparse.Encode(src, scalar.Uint(dtype.U8, 0))
	require.NoError(t, err)
	assert.Equal(t, sparse.ID, enc.EncodingID())

	v3, err := enc.ScalarAt(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), v3.AsUint())

	v0, err := enc.ScalarAt(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v0.AsUint())

	canon, err := enc.Canonicalize()
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		got, _ := canon.ScalarAt(i)
		want, _ := src.ScalarAt(i)
		assert.Equal(t, want.AsUint(), got.AsUint())
	}
}

func TestSlice(t *testing.T) {
	src := buildSource(t)
	enc, err := sparse.Encode(src, scalar.Uint(dtype.U8, 0))
	require.NoError(t, err)

	s, err := enc.Slice(2, 6)
	require.NoError(t, err)
	require.Equal(t, 4, s.Len())

	v1, err := s.ScalarAt(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), v1.AsUint())
}

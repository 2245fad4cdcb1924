package chunked_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/encoding/chunked"
	"github.com/strata-db/strata/encoding/runend"
	"github.com/strata-db/strata/validity"
)

func buildChunk(t *testing.T, start, n int) *array.Array {
	t.Helper()
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(start + i)
	}

	return array.NewPrimitive(dtype.U8, n, buf, validity.AllValid(n))
}

func TestEncodeDecode(t *testing.T) {
	dt := dtype.Primitive(dtype.U8, dtype.Nullable)
	c1 := buildChunk(t, 0, 10)
	c2 := buildChunk(t, 10, 5)
	c3 := buildChunk(t, 15, 20)

	enc, err := chunked.Encode(dt, []*array.Array{c1, c2, c3})
	require.NoError(t, err)
	assert.Equal(t, chunked.ID, enc.EncodingID())
	assert.Equal(t, 35, enc.Len())

	for i := 0; i < 35; i++ {
		got, err := enc.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, uint64(i), got.AsUint())
	}
}

func TestSliceAcrossChunks(t *testing.T) {
	dt := dtype.Primitive(dtype.U8, dtype.Nullable)
	c1 := buildChunk(t, 0, 10)
	c2 := buildChunk(t, 10, 5)
	c3 := buildChunk(t, 15, 20)

	enc, err := chunked.Encode(dt, []*array.Array{c1, c2, c3})
	require.NoError(t, err)

	s, err := enc.Slice(8, 17)
	require.NoError(t, err)
	require.Equal(t, 9, s.Len())
	for i := 0; i < 9; i++ {
		got, err := s.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, uint64(8+i), got.AsUint())
	}
}

func TestCanonicalize(t *testing.T) {
	dt := dtype.Primitive(dtype.U8, dtype.Nullable)
	c1 := buildChunk(t, 0, 3)
	c2 := buildChunk(t, 3, 4)

	enc, err := chunked.Encode(dt, []*array.Array{c1, c2})
	require.NoError(t, err)

	canon, err := enc.Canonicalize()
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		got, err := canon.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, uint64(i), got.AsUint())
	}
}

// TestRunEndChild exercises a Run-End-encoded block as one of Chunked's
// children (the shape the sampling compressor's per-block recombination
// produces), checking New's mergeValidity — which walks each child's
// Validity() over its own Len() — doesn't panic against a Run-End node's
// own outer validity.
func TestRunEndChild(t *testing.T) {
	dt := dtype.Primitive(dtype.U8, dtype.Nullable)

	runVals := []byte{1, 1, 1, 2, 2, 3, 3, 3, 3, 3}
	runSrc := array.NewPrimitive(dtype.U8, len(runVals), runVals, validity.AllValid(len(runVals)))
	runChild, err := runend.Encode(runSrc)
	require.NoError(t, err)

	plain := buildChunk(t, 100, 5)

	enc, err := chunked.Encode(dt, []*array.Array{runChild, plain})
	require.NoError(t, err)
	assert.Equal(t, 15, enc.Len())

	for i, want := range runVals {
		got, err := enc.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, uint64(want), got.AsUint())
	}
	for i := 0; i < 5; i++ {
		got, err := enc.ScalarAt(len(runVals) + i)
		require.NoError(t, err)
		assert.Equal(t, uint64(100+i), got.AsUint())
	}

	canon, err := enc.Canonicalize()
	require.NoError(t, err)
	require.Equal(t, 15, canon.Len())
}

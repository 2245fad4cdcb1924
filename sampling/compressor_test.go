package sampling_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/sampling"
	"github.com/strata-db/strata/validity"
)

func u32Array(t *testing.T, vals []uint32) *array.Array {
	t.Helper()
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}

	return array.NewPrimitive(dtype.U32, len(vals), buf, validity.AllValid(len(vals)))
}

func repeated(n int, v uint32) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = v
	}

	return out
}

func sequential(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}

	return out
}

func TestCompressConstantArray(t *testing.T) {
	src := u32Array(t, repeated(200, 7))

	cfg := sampling.DefaultConfig()
	result, err := sampling.Compress(src, cfg)
	require.NoError(t, err)
	assert.Equal(t, sampling.NameConstant, result.Name)
	assert.Less(t, result.Array.NBytes(), src.NBytes())

	for i := 0; i < src.Len(); i++ {
		want, _ := src.ScalarAt(i)
		got, err := result.Array.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want.AsUint(), got.AsUint())
	}
}

func TestCompressSequentialArrayDoesNotGrowAndRoundTrips(t *testing.T) {
	src := u32Array(t, sequential(2000))

	cfg := sampling.DefaultConfig()
	result, err := sampling.Compress(src, cfg)
	require.NoError(t, err)

	// A long run of strictly increasing integers should end up no larger
	// than the raw buffer, whether via a leaf encoding or a chunked split.
	assert.LessOrEqual(t, result.Array.NBytes(), src.NBytes())

	canon, err := result.Array.Canonicalize()
	require.NoError(t, err)
	for i := 0; i < src.Len(); i += 97 {
		want, _ := src.ScalarAt(i)
		got, err := canon.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want.AsUint(), got.AsUint())
	}
}

func TestCompressConstantIsAlwaysEligible(t *testing.T) {
	src := u32Array(t, repeated(200, 7))

	// Constant can never be disabled, per spec: the compressor must
	// always have a fallback encoding available.
	cfg, err := sampling.NewConfig(sampling.WithDisabled(sampling.NameConstant))
	require.NoError(t, err)

	result, err := sampling.Compress(src, cfg)
	require.NoError(t, err)
	assert.Equal(t, sampling.NameConstant, result.Name)
}

func TestCompressRespectsDisabled(t *testing.T) {
	src := u32Array(t, sequential(2000))

	cfg, err := sampling.NewConfig(sampling.WithDisabled(sampling.NameDelta, sampling.NameForEnc))
	require.NoError(t, err)

	result, err := sampling.Compress(src, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, sampling.NameDelta, result.Name)
	assert.NotEqual(t, sampling.NameForEnc, result.Name)
}

func TestCompressEmptyArray(t *testing.T) {
	src := array.NewPrimitive(dtype.U32, 0, nil, validity.AllValid(0))

	result, err := sampling.Compress(src, sampling.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, src, result.Array)
}

func TestCompressChunksLargeArrays(t *testing.T) {
	// Two very different regions: a long constant run followed by a long
	// sequential run. Each should be able to pick its own encoding once
	// split into blocks.
	vals := append(repeated(4096, 1), sequential(4096)...)
	src := u32Array(t, vals)

	cfg, err := sampling.NewConfig(sampling.WithMaxDepth(2))
	require.NoError(t, err)
	cfg.BlockSize = 1024

	result, err := sampling.Compress(src, cfg)
	require.NoError(t, err)
	assert.Less(t, result.Array.NBytes(), src.NBytes())

	canon, err := result.Array.Canonicalize()
	require.NoError(t, err)
	for _, i := range []int{0, 2048, 4095, 4096, 6144, 8191} {
		want, _ := src.ScalarAt(i)
		got, err := canon.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want.AsUint(), got.AsUint())
	}
}

func TestMaxDepthZeroNeverChunks(t *testing.T) {
	vals := append(repeated(4096, 1), sequential(4096)...)
	src := u32Array(t, vals)

	cfg, err := sampling.NewConfig(sampling.WithMaxDepth(0))
	require.NoError(t, err)
	cfg.BlockSize = 1024

	result, err := sampling.Compress(src, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, sampling.NameChunked, result.Name)
}

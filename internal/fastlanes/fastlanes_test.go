package fastlanes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/internal/fastlanes"
)

func TestTransposeRoundTrip(t *testing.T) {
	v := make([]uint64, fastlanes.BlockSize)
	for i := range v {
		v[i] = uint64(i)
	}

	tr := fastlanes.Transpose(v)
	back := fastlanes.Untranspose(tr)
	assert.Equal(t, v, back)
}

func TestPackUnpackRoundTrip(t *testing.T) {
	for _, bw := range []int{1, 3, 7, 8, 13, 32, 64} {
		values := make([]uint64, 50)
		mask := uint64(1)<<uint(bw) - 1
		if bw == 64 {
			mask = ^uint64(0)
		}
		for i := range values {
			values[i] = uint64(i*7+3) & mask
		}

		packed := fastlanes.Pack(values, bw)
		got := fastlanes.Unpack(packed, bw, len(values))
		require.Equal(t, values, got, "bitWidth=%d", bw)
	}
}

func TestUnpackAtMatchesUnpack(t *testing.T) {
	values := []uint64{1, 2, 3, 4, 5, 6, 7}
	packed := fastlanes.Pack(values, 5)
	for i := range values {
		assert.Equal(t, values[i], fastlanes.UnpackAt(packed, 5, i))
	}
}

func TestPackedByteLen(t *testing.T) {
	assert.Equal(t, 128, fastlanes.PackedByteLen(1024, 1))
	assert.Equal(t, 1024, fastlanes.PackedByteLen(1024, 8))
}

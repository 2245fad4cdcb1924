package alp_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/encoding/alp"
	"github.com/strata-db/strata/validity"
)

func buildDecimalSource(t *testing.T) *array.Array {
	t.Helper()
	vals := []float64{1.23, 4.56, 7.89, 0.01, 100.5}
	buf := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}

	return array.NewPrimitive(dtype.F64, len(vals), buf, validity.AllValid(len(vals)))
}

func TestEncodeDecode(t *testing.T) {
	src := buildDecimalSource(t)

	enc, err := alp.Encode(src)
	require.NoError(t, err)
	assert.Equal(t, alp.ID, enc.EncodingID())

	for i := 0; i < src.Len(); i++ {
		want, _ := src.ScalarAt(i)
		got, err := enc.ScalarAt(i)
		require.NoError(t, err)
		assert.InDelta(t, want.AsFloat(), got.AsFloat(), 1e-9)
	}
}

func TestEncodeWithException(t *testing.T) {
	vals := []float64{1.23, 4.56, math.Pi, 0.01}
	buf := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	src := array.NewPrimitive(dtype.F64, len(vals), buf, validity.AllValid(len(vals)))

	enc, err := alp.Encode(src)
	require.NoError(t, err)

	for i, v := range vals {
		got, err := enc.ScalarAt(i)
		require.NoError(t, err)
		assert.InDelta(t, v, got.AsFloat(), 1e-9)
	}
}

func TestCanCompress(t *testing.T) {
	src := buildDecimalSource(t)
	assert.True(t, alp.CanCompress(src, 0.5))
}

func TestEncodeRD(t *testing.T) {
	vals := []float64{math.Pi, math.E, 1.41421356, 2.71828, 3.14159}
	buf := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	src := array.NewPrimitive(dtype.F64, len(vals), buf, validity.AllValid(len(vals)))

	enc, err := alp.EncodeRD(src)
	require.NoError(t, err)
	assert.Equal(t, alp.IDRD, enc.EncodingID())

	for i, v := range vals {
		got, err := enc.ScalarAt(i)
		require.NoError(t, err)
		assert.InDelta(t, v, got.AsFloat(), 1e-9)
	}
}

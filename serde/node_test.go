package serde

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/compress"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/encoding/alp"
	"github.com/strata-db/strata/encoding/bitpacked"
	"github.com/strata-db/strata/encoding/chunked"
	"github.com/strata-db/strata/encoding/constant"
	"github.com/strata-db/strata/encoding/delta"
	"github.com/strata-db/strata/encoding/dict"
	"github.com/strata-db/strata/encoding/forenc"
	"github.com/strata-db/strata/encoding/fsst"
	"github.com/strata-db/strata/encoding/roaring"
	"github.com/strata-db/strata/encoding/runend"
	"github.com/strata-db/strata/encoding/sparse"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// roundTripBatch encodes arr through a full batch message and decodes it
// back, asserting the decoded tree matches the original row by row.
func roundTripBatch(t *testing.T, arr *array.Array) *array.Array {
	t.Helper()

	body, err := encodeBatch(arr, compress.AlgorithmNone)
	require.NoError(t, err)

	got, err := decodeBatch(body)
	require.NoError(t, err)
	require.Equal(t, arr.Len(), got.Len())
	require.Equal(t, arr.EncodingID(), got.EncodingID())

	assertArraysEqual(t, arr, got)

	return got
}

// assertArraysEqual compares two arrays row by row. Struct and Extension
// have no ScalarAt kernel (canonicalScalarAt only covers the flat
// canonical kinds), so they recurse into children instead.
func assertArraysEqual(t *testing.T, want, have *array.Array) {
	t.Helper()
	require.Equal(t, want.Len(), have.Len())

	switch want.DType().Kind() {
	case dtype.KindStruct:
		names := want.DType().FieldNames()
		for fi := range names {
			wc, err := want.Child(fi, dtype.DType{}, -1)
			require.NoError(t, err)
			hc, err := have.Child(fi, dtype.DType{}, -1)
			require.NoError(t, err)
			assertArraysEqual(t, wc, hc)
		}
	case dtype.KindExtension:
		wc, err := want.Child(0, dtype.DType{}, -1)
		require.NoError(t, err)
		hc, err := have.Child(0, dtype.DType{}, -1)
		require.NoError(t, err)
		assertArraysEqual(t, wc, hc)
	default:
		for i := 0; i < want.Len(); i++ {
			w, err := want.ScalarAt(i)
			require.NoError(t, err)
			h, err := have.ScalarAt(i)
			require.NoError(t, err)
			assert.Equal(t, w.IsNull(), h.IsNull(), "row %d null mismatch", i)
			if !w.IsNull() {
				assert.True(t, w.Equal(h), "row %d: want %v, got %v", i, w, h)
			}
		}
	}
}

func u8Primitive(vals ...byte) *array.Array {
	return array.NewPrimitive(dtype.U8, len(vals), vals, validity.AllValid(len(vals)))
}

func TestRoundTripCanonicalKinds(t *testing.T) {
	t.Run("null", func(t *testing.T) {
		roundTripBatch(t, array.NewNull(7))
	})

	t.Run("bool", func(t *testing.T) {
		bits := []byte{0b10110}
		roundTripBatch(t, array.NewBool(5, bits, validity.AllValid(5)))
	})

	t.Run("primitive nullable", func(t *testing.T) {
		v := validity.BitmapFromBools([]bool{true, false, true, true})
		roundTripBatch(t, array.NewPrimitive(dtype.I32, 4, int32Bytes(10, 0, 30, 40), v))
	})

	t.Run("varbin utf8", func(t *testing.T) {
		words := []string{"ab", "", "cde"}
		offsets := make([]uint32, len(words)+1)
		var data []byte
		for i, w := range words {
			data = append(data, w...)
			offsets[i+1] = uint32(len(data))
		}
		roundTripBatch(t, array.NewVarBin(true, len(words), offsets, data, validity.AllValid(len(words))))
	})

	t.Run("varbinview", func(t *testing.T) {
		words := []string{"hello", "world"}
		views := make([]byte, 0, len(words)*16)
		var data []byte
		for _, w := range words {
			var view [16]byte
			binary.LittleEndian.PutUint32(view[0:4], uint32(len(w)))
			copy(view[4:], w)
			views = append(views, view[:]...)
			data = append(data, w...)
		}
		roundTripBatch(t, array.NewVarBinView(true, len(words), views, [][]byte{data}, validity.AllValid(len(words))))
	})

	t.Run("struct", func(t *testing.T) {
		idCol := u8Primitive(1, 2, 3)
		nameCol := array.NewVarBin(true, 3, []uint32{0, 1, 2, 3}, []byte("abc"), validity.AllValid(3))
		dt := dtype.Struct([]string{"id", "name"}, []dtype.DType{
			dtype.Primitive(dtype.U8, dtype.NonNullable),
			dtype.Utf8(dtype.NonNullable),
		}, dtype.NonNullable)

		s := array.NewStruct([]string{"id", "name"}, []dtype.DType{
			dtype.Primitive(dtype.U8, dtype.NonNullable),
			dtype.Utf8(dtype.NonNullable),
		}, []*array.Array{idCol, nameCol}, validity.AllValid(3), dtype.NonNullable)

		assert.Equal(t, dt.Kind(), s.DType().Kind())
		roundTripBatch(t, s)
	})

	t.Run("extension", func(t *testing.T) {
		storage := array.NewPrimitive(dtype.I64, 3, int64Bytes(1700000000, 1700000001, 1700000002), validity.AllValid(3))
		dt := dtype.Extension("strata.timestamp", []byte("unit=s"), dtype.Primitive(dtype.I64, dtype.NonNullable), dtype.NonNullable)
		ext := array.NewExtension(dt, storage)
		roundTripBatch(t, ext)
	})
}

func TestRoundTripUserEncodings(t *testing.T) {
	t.Run("constant", func(t *testing.T) {
		buf := make([]byte, 5)
		for i := range buf {
			buf[i] = 7
		}
		src := array.NewPrimitive(dtype.U8, 5, buf, validity.AllValid(5))
		enc, err := constant.Encode(src)
		require.NoError(t, err)
		roundTripBatch(t, enc)
	})

	t.Run("sparse", func(t *testing.T) {
		buf := make([]byte, 8)
		buf[3] = 99
		src := array.NewPrimitive(dtype.U8, 8, buf, validity.AllValid(8))
		enc, err := sparse.Encode(src, scalar.Uint(dtype.U8, 0))
		require.NoError(t, err)
		roundTripBatch(t, enc)
	})

	t.Run("runend", func(t *testing.T) {
		src := u8Primitive(1, 1, 1, 2, 2, 3, 3, 3, 3, 3)
		enc, err := runend.Encode(src)
		require.NoError(t, err)
		roundTripBatch(t, enc)
	})

	t.Run("dict", func(t *testing.T) {
		src := u8Primitive(5, 9, 5, 5, 1, 9)
		enc, err := dict.Encode(src)
		require.NoError(t, err)
		roundTripBatch(t, enc)
	})

	t.Run("bitpacked", func(t *testing.T) {
		n := 20
		buf := make([]byte, n*4)
		for i := 0; i < n; i++ {
			v := uint32(i % 7)
			binary.LittleEndian.PutUint32(buf[i*4:], v)
		}
		src := array.NewPrimitive(dtype.U32, n, buf, validity.AllValid(n))
		enc, err := bitpacked.Encode(src, 0)
		require.NoError(t, err)
		roundTripBatch(t, enc)
	})

	t.Run("forenc", func(t *testing.T) {
		base := uint32(1_000_000)
		n := 10
		buf := make([]byte, n*4)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint32(buf[i*4:], base+uint32(i))
		}
		src := array.NewPrimitive(dtype.U32, n, buf, validity.AllValid(n))
		enc, err := forenc.Encode(src)
		require.NoError(t, err)
		roundTripBatch(t, enc)
	})

	t.Run("delta", func(t *testing.T) {
		n := 100
		buf := make([]byte, n*8)
		base := uint64(1_700_000_000)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint64(buf[i*8:], base+uint64(i)*5)
		}
		src := array.NewPrimitive(dtype.U64, n, buf, validity.AllValid(n))
		enc, err := delta.Encode(src)
		require.NoError(t, err)
		roundTripBatch(t, enc)
	})

	t.Run("alp", func(t *testing.T) {
		vals := []float64{1.23, 4.56, 7.89, 0.01, 100.5}
		buf := make([]byte, len(vals)*8)
		for i, v := range vals {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		}
		src := array.NewPrimitive(dtype.F64, len(vals), buf, validity.AllValid(len(vals)))
		enc, err := alp.Encode(src)
		require.NoError(t, err)
		roundTripBatch(t, enc)
	})

	t.Run("alp-rd", func(t *testing.T) {
		vals := []float64{1.0 / 3, math.Pi, 2.71828182845, 0.000123456789, 123456.789012}
		buf := make([]byte, len(vals)*8)
		for i, v := range vals {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		}
		src := array.NewPrimitive(dtype.F64, len(vals), buf, validity.AllValid(len(vals)))
		enc, err := alp.EncodeRD(src)
		require.NoError(t, err)
		roundTripBatch(t, enc)
	})

	t.Run("fsst", func(t *testing.T) {
		words := []string{"compression", "decompression", "compressed", "compressor", "uncompressed"}
		vals := make([]scalar.Scalar, len(words))
		valid := make([]bool, len(words))
		for i, w := range words {
			vals[i] = scalar.String(w)
			valid[i] = true
		}
		src, err := array.RebuildFromScalars(dtype.Utf8(dtype.NonNullable), vals, valid)
		require.NoError(t, err)

		enc, err := fsst.Encode(src)
		require.NoError(t, err)
		roundTripBatch(t, enc)
	})

	t.Run("roaring", func(t *testing.T) {
		n := 10000
		bits := make([]bool, n)
		bits[3] = true
		bits[100] = true
		bits[9999] = true
		buf := make([]byte, (n+7)/8)
		for i, v := range bits {
			if v {
				buf[i/8] |= 1 << uint(i%8)
			}
		}
		src := array.NewBool(n, buf, validity.AllValid(n))
		enc, err := roaring.Encode(src)
		require.NoError(t, err)
		roundTripBatch(t, enc)
	})

	t.Run("chunked", func(t *testing.T) {
		dt := dtype.Primitive(dtype.U8, dtype.Nullable)
		c1 := u8Primitive(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
		c2 := u8Primitive(10, 11, 12, 13, 14)
		enc, err := chunked.Encode(dt, []*array.Array{c1, c2})
		require.NoError(t, err)
		roundTripBatch(t, enc)
	})
}

func TestRoundTripWithCompression(t *testing.T) {
	n := 256
	buf := make([]byte, n*4)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(i%11))
	}
	arr := array.NewPrimitive(dtype.U32, n, buf, validity.AllValid(n))

	for _, algo := range []compress.Algorithm{compress.AlgorithmNone, compress.AlgorithmZstd, compress.AlgorithmS2, compress.AlgorithmLZ4} {
		body, err := encodeBatch(arr, algo)
		require.NoError(t, err)

		got, err := decodeBatch(body)
		require.NoError(t, err)

		for i := 0; i < n; i++ {
			want, _ := arr.ScalarAt(i)
			have, err := got.ScalarAt(i)
			require.NoError(t, err)
			assert.Equal(t, want.AsUint(), have.AsUint())
		}
	}
}

func TestDeduplicatesIdenticalBuffers(t *testing.T) {
	dt := dtype.Primitive(dtype.U8, dtype.Nullable)
	c1 := u8Primitive(1, 2, 3)
	c2 := u8Primitive(1, 2, 3)
	enc, err := chunked.Encode(dt, []*array.Array{c1, c2})
	require.NoError(t, err)

	seen := make(map[string]uint32)
	var bufs [][]byte
	addBuffer := func(b []byte) uint32 {
		key := string(b)
		if idx, ok := seen[key]; ok {
			return idx
		}
		idx := uint32(len(bufs))
		seen[key] = idx
		bufs = append(bufs, b)

		return idx
	}

	walkArray(enc, addBuffer)
	assert.Len(t, bufs, 1, "identical chunk buffers should be deduplicated")
}

func int32Bytes(vals ...int32) []byte {
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}

	return buf
}

func int64Bytes(vals ...int64) []byte {
	buf := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
	}

	return buf
}

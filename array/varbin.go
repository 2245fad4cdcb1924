package array

import (
	"fmt"

	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// NewVarBin builds a VarBin canonical array (the Utf8/Binary canonical
// form): a monotonic offsets buffer of length+1 uint32 values, a bytes
// buffer, and validity. offsets[i] and offsets[i+1] bound element i's
// bytes in the data buffer.
func NewVarBin(isUtf8 bool, length int, offsets []uint32, data []byte, v validity.Validity) *Array {
	if v.Len() != length {
		panic(fmt.Sprintf("array.NewVarBin: validity length %d != array length %d", v.Len(), length))
	}
	if len(offsets) != length+1 {
		panic(fmt.Sprintf("array.NewVarBin: offsets length %d != array length+1 %d", len(offsets), length+1))
	}

	offBuf := make([]byte, len(offsets)*4)
	for i, o := range offsets {
		engine.PutUint32(offBuf[i*4:], o)
	}
	dataBuf := make([]byte, len(data))
	copy(dataBuf, data)

	nullability := dtype.NonNullable
	if v.Kind() != validity.KindNonNullable {
		nullability = dtype.Nullable
	}

	var dt dtype.DType
	if isUtf8 {
		dt = dtype.Utf8(nullability)
	} else {
		dt = dtype.Binary(nullability)
	}

	return newNode(EncodingVarBin, dt, length, nil, nil, [][]byte{offBuf, dataBuf}, v, canonicalKernels{})
}

func varBinOffset(a *Array, i int) uint32 {
	return engine.Uint32(a.buffers[0][i*4:])
}

func varBinScalarAt(a *Array, i int) (scalar.Scalar, error) {
	if !a.validity.IsValid(i) {
		return scalar.Null(a.dt), nil
	}

	start, stop := varBinOffset(a, i), varBinOffset(a, i+1)
	b := a.buffers[1][start:stop]

	if a.dt.Kind() == dtype.KindUtf8 {
		return scalar.String(string(b)), nil
	}

	return scalar.Bytes(b), nil
}

func varBinSlice(a *Array, start, stop int) (*Array, error) {
	n := stop - start
	offsets := make([]uint32, n+1)
	base := varBinOffset(a, start)
	for i := 0; i <= n; i++ {
		offsets[i] = varBinOffset(a, start+i) - base
	}
	dataStart := varBinOffset(a, start)
	dataStop := varBinOffset(a, stop)

	return NewVarBin(a.dt.Kind() == dtype.KindUtf8, n, offsets, a.buffers[1][dataStart:dataStop], a.validity.Slice(start, stop)), nil
}

func rebuildVarBin(dt dtype.DType, vals []scalar.Scalar, valid []bool) (*Array, error) {
	offsets := make([]uint32, len(vals)+1)
	var data []byte
	for i, v := range vals {
		offsets[i] = uint32(len(data))
		if valid[i] {
			data = append(data, v.AsBytes()...)
		}
	}
	offsets[len(vals)] = uint32(len(data))

	return NewVarBin(dt.Kind() == dtype.KindUtf8, len(vals), offsets, data, validity.BitmapFromBools(valid)), nil
}

package array

import (
	"fmt"

	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// View is the decoded form of one VarBinView element: a 16-byte record
// giving the element's size, and either its bytes inlined or a pointer
// into one of the array's data buffers.
type View struct {
	Size       uint32
	Inline     [12]byte
	Prefix     [4]byte
	BufferIdx  uint32
	DataOffset uint32
}

const viewWidth = 16
const viewInlineMax = 12

// NewVarBinView builds a VarBinView canonical array from pre-built 16-byte
// view records (buffers[0]) and the N referenced data buffers
// (buffers[1:]).
func NewVarBinView(isUtf8 bool, length int, views []byte, dataBuffers [][]byte, v validity.Validity) *Array {
	if v.Len() != length {
		panic(fmt.Sprintf("array.NewVarBinView: validity length %d != array length %d", v.Len(), length))
	}
	if len(views) != length*viewWidth {
		panic(fmt.Sprintf("array.NewVarBinView: views buffer has %d bytes, need %d", len(views), length*viewWidth))
	}

	buffers := make([][]byte, 0, 1+len(dataBuffers))
	viewsCopy := make([]byte, len(views))
	copy(viewsCopy, views)
	buffers = append(buffers, viewsCopy)
	buffers = append(buffers, dataBuffers...)

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

	return newNode(EncodingVarBinView, dt, length, nil, nil, buffers, v, canonicalKernels{})
}

func decodeView(a *Array, i int) (View, error) {
	rec := a.buffers[0][i*viewWidth : (i+1)*viewWidth]

	var v View
	v.Size = engine.Uint32(rec)
	if v.Size <= viewInlineMax {
		copy(v.Inline[:], rec[4:])

		return v, nil
	}

	copy(v.Prefix[:], rec[4:8])
	v.BufferIdx = engine.Uint32(rec[8:])
	v.DataOffset = engine.Uint32(rec[12:])
	if int(v.BufferIdx)+1 >= len(a.buffers) {
		return View{}, fmt.Errorf("%w: view buffer_index %d out of range", errs.ErrOutOfBounds, v.BufferIdx)
	}

	return v, nil
}

func viewBytes(a *Array, v View) []byte {
	if v.Size <= viewInlineMax {
		return v.Inline[:v.Size]
	}

	data := a.buffers[1+v.BufferIdx]

	return data[v.DataOffset : v.DataOffset+v.Size]
}

func varBinViewScalarAt(a *Array, i int) (scalar.Scalar, error) {
	if !a.validity.IsValid(i) {
		return scalar.Null(a.dt), nil
	}

	v, err := decodeView(a, i)
	if err != nil {
		return scalar.Scalar{}, err
	}

	b := viewBytes(a, v)
	if a.dt.Kind() == dtype.KindUtf8 {
		return scalar.String(string(b)), nil
	}

	return scalar.Bytes(b), nil
}

// varBinViewSlice is O(1): the view records for [start, stop) are
// contiguous, and every view's buffer_index/offset remains valid against
// the shared (unsliced) data buffers.
func varBinViewSlice(a *Array, start, stop int) (*Array, error) {
	n := stop - start

	return NewVarBinView(a.dt.Kind() == dtype.KindUtf8, n, a.buffers[0][start*viewWidth:stop*viewWidth], a.buffers[1:], a.validity.Slice(start, stop)), nil
}

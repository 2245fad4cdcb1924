package array

import (
	"fmt"

	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// canonicalKernels is installed on every array built by the canonical
// constructors (NewNull, NewBool, ...). Canonicalize is the identity;
// every other operation dispatches by encodingID to the per-kind logic in
// null.go, boolarr.go, primitive.go, varbin.go, varbinview.go,
// structarr.go and extension.go.
type canonicalKernels struct{}

func (canonicalKernels) Canonicalize(a *Array) (*Array, error) { return a, nil }

var _ Kernels = canonicalKernels{}

func canonicalScalarAt(a *Array, i int) (scalar.Scalar, error) {
	switch a.encodingID {
	case EncodingNull:
		return scalar.Null(a.dt), nil
	case EncodingBool:
		return boolScalarAt(a, i)
	case EncodingPrimitive:
		return primitiveScalarAt(a, i)
	case EncodingVarBin:
		return varBinScalarAt(a, i)
	case EncodingVarBinView:
		return varBinViewScalarAt(a, i)
	case EncodingExtension:
		return extensionStorage(a).ScalarAt(i)
	default:
		return scalar.Scalar{}, fmt.Errorf("%w: scalar_at not defined for canonical kind %s", errs.ErrNotImplemented, a.dt.Kind())
	}
}

func canonicalSlice(a *Array, start, stop int) (*Array, error) {
	switch a.encodingID {
	case EncodingNull:
		return NewNull(stop - start), nil
	case EncodingBool:
		return boolSlice(a, start, stop)
	case EncodingPrimitive:
		return primitiveSlice(a, start, stop)
	case EncodingVarBin:
		return varBinSlice(a, start, stop)
	case EncodingVarBinView:
		return varBinViewSlice(a, start, stop)
	case EncodingStruct:
		return structSlice(a, start, stop)
	case EncodingExtension:
		return extensionSlice(a, start, stop)
	default:
		return nil, fmt.Errorf("%w: slice not defined for canonical kind %s", errs.ErrNotImplemented, a.dt.Kind())
	}
}

// canonicalTake and canonicalFilter fall back to a scalar-by-scalar
// rebuild for the primitive-family canonical forms (Null, Bool,
// Primitive, VarBin, VarBinView), and recurse child-by-child for Struct
// and Extension.
func canonicalTake(a *Array, indices []int) (*Array, error) {
	switch a.encodingID {
	case EncodingStruct:
		return structTake(a, indices)
	case EncodingExtension:
		return extensionTake(a, indices)
	default:
		vals := make([]scalar.Scalar, len(indices))
		valid := make([]bool, len(indices))
		for k, idx := range indices {
			v, err := canonicalScalarAt(a, idx)
			if err != nil {
				return nil, err
			}
			vals[k] = v
			valid[k] = !v.IsNull()
		}

		return rebuildFromScalars(a.dt, vals, valid)
	}
}

func canonicalFilter(a *Array, mask []bool) (*Array, error) {
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}

	return canonicalTake(a, indices)
}

// canonicalCompare always produces a Bool array regardless of the input
// dtype; a null operand propagates to a null result, matching typical
// three-valued comparison semantics (a decision recorded as an Open
// Question resolution; the base specification does not constrain null
// propagation for compare).
func canonicalCompare(a, b *Array, op CompareOp) (*Array, error) {
	if a.length != b.length {
		return nil, fmt.Errorf("%w: compare length %d vs %d", errs.ErrInvalidArgument, a.length, b.length)
	}

	if a.encodingID == EncodingBool && b.encodingID == EncodingBool {
		return boolCompare(a, b, op)
	}

	out := make([]bool, a.length)
	valid := make([]bool, a.length)
	for i := 0; i < a.length; i++ {
		av, err := canonicalScalarAt(a, i)
		if err != nil {
			return nil, err
		}
		bv, err := canonicalScalarAt(b, i)
		if err != nil {
			return nil, err
		}
		if av.IsNull() || bv.IsNull() {
			continue
		}

		valid[i] = true
		out[i] = evalCompare(av, bv, op)
	}

	return NewBool(len(out), packBits(out), validity.BitmapFromBools(valid)), nil
}

func evalCompare(a, b scalar.Scalar, op CompareOp) bool {
	switch op {
	case CompareEQ:
		return a.Equal(b)
	case CompareNE:
		return !a.Equal(b)
	case CompareLT:
		return a.Less(b)
	case CompareLE:
		return a.Less(b) || a.Equal(b)
	case CompareGT:
		return b.Less(a)
	case CompareGE:
		return b.Less(a) || a.Equal(b)
	default:
		return false
	}
}

// canonicalSearchSorted performs a standard binary search over ScalarAt,
// assuming a is sorted ascending. side selects which edge of a run of
// equal elements is returned.
func canonicalSearchSorted(a *Array, v scalar.Scalar, side Side) (SearchResult, error) {
	lo, hi := 0, a.length
	for lo < hi {
		mid := (lo + hi) / 2
		mv, err := canonicalScalarAt(a, mid)
		if err != nil {
			return SearchResult{}, err
		}

		var goLeft bool
		if side == SideLeft {
			goLeft = !mv.Less(v)
		} else {
			goLeft = v.Less(mv)
		}

		if goLeft {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	if lo < a.length {
		mv, err := canonicalScalarAt(a, lo)
		if err != nil {
			return SearchResult{}, err
		}
		if mv.Equal(v) {
			return SearchResult{Found: true, Index: lo}, nil
		}
	}

	return SearchResult{Found: false, Index: lo}, nil
}

func canonicalFillForward(a *Array) (*Array, error) {
	vals := make([]scalar.Scalar, a.length)
	valid := make([]bool, a.length)

	var last scalar.Scalar
	haveLast := false
	for i := 0; i < a.length; i++ {
		v, err := canonicalScalarAt(a, i)
		if err != nil {
			return nil, err
		}
		if !v.IsNull() {
			last = v
			haveLast = true
			vals[i] = v
			valid[i] = true

			continue
		}
		if haveLast {
			vals[i] = last
			valid[i] = true
		} else {
			vals[i] = scalar.Null(a.dt)
			valid[i] = false
		}
	}

	return rebuildFromScalars(a.dt, vals, valid)
}

func canonicalSubtractScalar(a *Array, v scalar.Scalar) (*Array, error) {
	vals := make([]scalar.Scalar, a.length)
	valid := make([]bool, a.length)
	for i := 0; i < a.length; i++ {
		e, err := canonicalScalarAt(a, i)
		if err != nil {
			return nil, err
		}
		if e.IsNull() {
			vals[i] = e
			continue
		}

		valid[i] = true
		r, err := subtractScalars(e, v)
		if err != nil {
			return nil, err
		}
		vals[i] = r
	}

	return rebuildFromScalars(a.dt, vals, valid)
}

func subtractScalars(a, b scalar.Scalar) (scalar.Scalar, error) {
	dt := a.DType()
	switch {
	case dt.Kind() == dtype.KindPrimitive && dt.PType() == dtype.F32:
		return scalar.Float32(float32(a.AsFloat() - b.AsFloat())), nil
	case dt.Kind() == dtype.KindPrimitive && dt.PType().IsFloat():
		return scalar.Float(a.AsFloat() - b.AsFloat()), nil
	case dt.Kind() == dtype.KindPrimitive && dt.PType().IsSigned():
		x, y := a.AsInt(), b.AsInt()
		r := x - y
		if (y > 0 && r > x) || (y < 0 && r < x) {
			return scalar.Scalar{}, fmt.Errorf("%w: subtract_scalar overflow", errs.ErrOverflow)
		}
		if w := uint(dt.PType().BitWidth()); w < 64 && (r < -(int64(1)<<(w-1)) || r > int64(1)<<(w-1)-1) {
			return scalar.Scalar{}, fmt.Errorf("%w: subtract_scalar overflow", errs.ErrOverflow)
		}

		return scalar.Int(dt.PType(), r), nil
	case dt.Kind() == dtype.KindPrimitive:
		x, y := a.AsUint(), b.AsUint()
		if y > x {
			return scalar.Scalar{}, fmt.Errorf("%w: subtract_scalar underflow", errs.ErrOverflow)
		}

		return scalar.Uint(dt.PType(), x-y), nil
	default:
		return scalar.Scalar{}, fmt.Errorf("%w: subtract_scalar on dtype %s", errs.ErrInvalidType, dt)
	}
}

// rebuildFromScalars reconstructs a canonical array of dtype dt from a
// flat list of scalars and a parallel validity mask. It supports the
// primitive-family dtypes (Null, Bool, Primitive, Utf8, Binary); Struct,
// List and Extension values cannot be represented by scalar.Scalar and
// are rebuilt by their own recursive Take/Filter implementations instead
// of flowing through here.
func rebuildFromScalars(dt dtype.DType, vals []scalar.Scalar, valid []bool) (*Array, error) {
	switch dt.Kind() {
	case dtype.KindNull:
		return NewNull(len(vals)), nil
	case dtype.KindBool:
		bits := make([]bool, len(vals))
		for i, v := range vals {
			if valid[i] {
				bits[i] = v.AsBool()
			}
		}

		return NewBool(len(vals), packBits(bits), validity.BitmapFromBools(valid)), nil
	case dtype.KindPrimitive:
		return rebuildPrimitive(dt, vals, valid)
	case dtype.KindUtf8, dtype.KindBinary:
		return rebuildVarBin(dt, vals, valid)
	default:
		return nil, fmt.Errorf("%w: generic rebuild not supported for dtype %s", errs.ErrNotImplemented, dt)
	}
}

// Package alp implements ALP float encoding: values that are really
// decimal numbers in disguise (e.g. sensor readings serialized with a
// fixed number of decimal digits) are recovered as encoded*10^-exponent,
// where encoded is a plain integer. Values that cannot round-trip through
// the chosen exponent are carried as Sparse-encoded exceptions, the same
// pattern Bit-Packed uses for out-of-width integers.
//
// ALP-RD (the bit-split fallback for doubles with no good decimal
// exponent) is implemented separately in alprd.go.
package alp

import (
	"fmt"
	"math"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/encoding/sparse"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// ID is ALP's encoding tag.
const ID = array.EncodingIDUserBase + 8

// MaxExponent bounds the decimal exponents ALP searches; 10^18 is the
// largest power of ten below the int64 range the scaled values must fit.
const MaxExponent = 18

var pow10 [MaxExponent + 1]float64

func init() {
	p := 1.0
	for i := 0; i <= MaxExponent; i++ {
		pow10[i] = p
		p *= 10
	}
}

type kernels struct{}

var _ array.Kernels = kernels{}
var _ array.ScalarAtKernel = kernels{}

func parseExponent(a *array.Array) int {
	return int(int8(a.Metadata()[0]))
}

func integers(a *array.Array) *array.Array {
	c, _ := a.Child(0, dtype.DType{}, -1)

	return c
}

func exceptions(a *array.Array) *array.Array {
	if a.NumChildren() < 2 {
		return nil
	}
	c, _ := a.Child(1, dtype.DType{}, -1)

	return c
}

func decodeAt(a *array.Array, p dtype.PType, e int, i int) (scalar.Scalar, error) {
	iv, err := integers(a).ScalarAt(i)
	if err != nil {
		return scalar.Scalar{}, err
	}
	if iv.IsNull() {
		return scalar.Null(a.DType()), nil
	}

	f := float64(iv.AsInt()) / pow10[e]
	if p == dtype.F32 {
		return scalar.Float32(float32(f)), nil
	}

	return scalar.Float(f), nil
}

func (kernels) Canonicalize(a *array.Array) (*array.Array, error) {
	e := parseExponent(a)
	p := a.DType().PType()
	exc := exceptions(a)

	vals := make([]scalar.Scalar, a.Len())
	valid := make([]bool, a.Len())
	for i := range vals {
		if exc != nil {
			ev, err := exc.ScalarAt(i)
			if err != nil {
				return nil, err
			}
			if !ev.IsNull() {
				vals[i] = ev
				valid[i] = true

				continue
			}
		}

		v, err := decodeAt(a, p, e, i)
		if err != nil {
			return nil, err
		}
		vals[i] = v
		valid[i] = !v.IsNull()
	}

	return array.RebuildFromScalars(a.DType(), vals, valid)
}

func (kernels) ScalarAt(a *array.Array, i int) (scalar.Scalar, error) {
	if exc := exceptions(a); exc != nil {
		ev, err := exc.ScalarAt(i)
		if err != nil {
			return scalar.Scalar{}, err
		}
		if !ev.IsNull() {
			return ev, nil
		}
	}

	return decodeAt(a, a.DType().PType(), parseExponent(a), i)
}

func asFloat(v scalar.Scalar) float64 {
	return v.AsFloat()
}

// bestExponent returns the decimal exponent that round-trips the most
// values exactly, and the resulting per-value round-trip mismatch count.
func bestExponent(vals []float64, validMask []bool) (exp int, exceptionCount int) {
	bestExp := 0
	bestMiss := len(vals) + 1

	for e := 0; e <= MaxExponent; e++ {
		miss := 0
		for i, v := range vals {
			if !validMask[i] {
				continue
			}
			scaled := v * pow10[e]
			if scaled > 9.2e18 || scaled < -9.2e18 {
				miss++

				continue
			}
			rounded := math.Round(scaled)
			if rounded/pow10[e] != v {
				miss++
			}
		}
		if miss < bestMiss {
			bestMiss = miss
			bestExp = e
		}
		if miss == 0 {
			break
		}
	}

	return bestExp, bestMiss
}

// CanCompress reports whether arr is a float Primitive array where some
// decimal exponent round-trips at least (1-maxExceptionRatio) of values.
func CanCompress(arr *array.Array, maxExceptionRatio float64) bool {
	dt := arr.DType()
	if dt.Kind() != dtype.KindPrimitive || !dt.PType().IsFloat() {
		return false
	}
	if arr.Len() == 0 {
		return false
	}

	vals, valid, err := floatValues(arr)
	if err != nil {
		return false
	}

	_, miss := bestExponent(vals, valid)

	return float64(miss) <= maxExceptionRatio*float64(arr.Len())
}

func floatValues(arr *array.Array) (vals []float64, valid []bool, err error) {
	vals = make([]float64, arr.Len())
	valid = make([]bool, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		v, err := arr.ScalarAt(i)
		if err != nil {
			return nil, nil, err
		}
		if v.IsNull() {
			continue
		}
		vals[i] = asFloat(v)
		valid[i] = true
	}

	return vals, valid, nil
}

// Encode builds arr's ALP encoding, carrying values that don't round-trip
// through the chosen exponent as Sparse exceptions.
func Encode(arr *array.Array) (*array.Array, error) {
	dt := arr.DType()
	if dt.Kind() != dtype.KindPrimitive || !dt.PType().IsFloat() {
		return nil, fmt.Errorf("%w: alp.Encode requires a float Primitive array", errs.ErrInvalidType)
	}
	if arr.Len() == 0 {
		return nil, fmt.Errorf("%w: alp.Encode on empty array", errs.ErrEmptyInput)
	}

	vals, valid, err := floatValues(arr)
	if err != nil {
		return nil, err
	}

	e, _ := bestExponent(vals, valid)

	intVals := make([]scalar.Scalar, arr.Len())
	intValid := make([]bool, arr.Len())
	excPositions := make(map[int]bool)

	for i, v := range vals {
		if !valid[i] {
			continue
		}

		scaled := v * pow10[e]
		if scaled > 9.2e18 || scaled < -9.2e18 {
			excPositions[i] = true
			intValid[i] = false

			continue
		}
		rounded := int64(math.Round(scaled))
		if float64(rounded)/pow10[e] != v {
			excPositions[i] = true
			intValid[i] = false

			continue
		}

		intVals[i] = scalar.Int(dtype.I64, rounded)
		intValid[i] = true
	}

	intDt := dtype.Primitive(dtype.I64, dtype.Nullable)
	intArr, err := array.RebuildFromScalars(intDt, intVals, intValid)
	if err != nil {
		return nil, err
	}

	children := []*array.Array{intArr}
	if len(excPositions) > 0 {
		excDt := dt.WithNullability(dtype.Nullable)
		idxVals := make([]scalar.Scalar, 0, len(excPositions))
		valVals := make([]scalar.Scalar, 0, len(excPositions))
		for i := 0; i < arr.Len(); i++ {
			if !excPositions[i] {
				continue
			}
			v, err := arr.ScalarAt(i)
			if err != nil {
				return nil, err
			}
			idxVals = append(idxVals, scalar.Uint(dtype.U32, uint64(i)))
			valVals = append(valVals, v)
		}
		vmask := make([]bool, len(idxVals))
		for i := range vmask {
			vmask[i] = true
		}

		idt := dtype.Primitive(dtype.U32, dtype.NonNullable)
		idxArr, err := array.RebuildFromScalars(idt, idxVals, vmask)
		if err != nil {
			return nil, err
		}
		valArr, err := array.RebuildFromScalars(excDt, valVals, vmask)
		if err != nil {
			return nil, err
		}

		children = append(children, sparse.New(excDt, idxArr, valArr, scalar.Null(excDt), arr.Len()))
	}

	md := []byte{byte(int8(e))}

	return array.NewEncoded(ID, dt, arr.Len(), md, children, nil, arr.Validity(), kernels{}), nil
}

// FromParts reconstructs a previously-serialized ALP array from its raw
// metadata (exponent) and children, for use by package serde's
// deserializer.
func FromParts(dt dtype.DType, length int, metadata []byte, children []*array.Array, v validity.Validity) *array.Array {
	return array.NewEncoded(ID, dt, length, metadata, children, nil, v, kernels{})
}

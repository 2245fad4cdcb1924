// Package scalar provides a single logical-value type used wherever
// strata's encodings need to carry one typed value outside of an array:
// frame-of-reference references, sparse/constant fill values, patch
// exceptions, and cached statistics (min/max).
package scalar

import (
	"fmt"
	"math"

	"github.com/strata-db/strata/dtype"
)

// Scalar is an immutable, typed logical value or null. The zero value is
// a null Scalar whose dtype is the zero DType (Kind KindNull, reported as
// non-nullable, so not Equal to dtype.Null()).
type Scalar struct {
	dt    dtype.DType
	isSet bool // false => null
	bits  uint64
	str   string
}

// Null returns a null Scalar of the given dtype. dt.Nullable() is not
// checked here; the caller (array construction, validity projection) is
// responsible for only producing null scalars where the dtype permits it.
func Null(dt dtype.DType) Scalar {
	return Scalar{dt: dt, isSet: false}
}

// IsNull reports whether this Scalar represents a null value.
func (s Scalar) IsNull() bool { return !s.isSet }

// DType returns the Scalar's logical type.
func (s Scalar) DType() dtype.DType { return s.dt }

// Bool constructs a non-null Bool scalar.
func Bool(v bool) Scalar {
	var b uint64
	if v {
		b = 1
	}

	return Scalar{dt: dtype.Bool(dtype.NonNullable), isSet: true, bits: b}
}

// AsBool returns the boolean value. It panics if Kind() != KindBool or the
// scalar is null.
func (s Scalar) AsBool() bool {
	s.mustKind(dtype.KindBool)

	return s.bits != 0
}

// Int constructs a non-null signed-integer scalar of the given width.
func Int(p dtype.PType, v int64) Scalar {
	if !p.IsSigned() {
		panic("scalar.Int: ptype " + p.String() + " is not signed")
	}

	return Scalar{dt: dtype.Primitive(p, dtype.NonNullable), isSet: true, bits: uint64(v)}
}

// Uint constructs a non-null unsigned-integer scalar of the given width.
func Uint(p dtype.PType, v uint64) Scalar {
	if !p.IsUnsigned() {
		panic("scalar.Uint: ptype " + p.String() + " is not unsigned")
	}

	return Scalar{dt: dtype.Primitive(p, dtype.NonNullable), isSet: true, bits: v}
}

// Float constructs a non-null F64 scalar.
func Float(v float64) Scalar {
	return Scalar{dt: dtype.Primitive(dtype.F64, dtype.NonNullable), isSet: true, bits: math.Float64bits(v)}
}

// Float32 constructs a non-null F32 scalar.
func Float32(v float32) Scalar {
	return Scalar{dt: dtype.Primitive(dtype.F32, dtype.NonNullable), isSet: true, bits: uint64(math.Float32bits(v))}
}

// AsInt returns the value as int64. It panics if the underlying ptype is
// not a signed integer or the scalar is null.
func (s Scalar) AsInt() int64 {
	s.mustPrimitive()
	if !s.dt.PType().IsSigned() {
		panic("scalar.Scalar.AsInt: ptype " + s.dt.PType().String() + " is not signed")
	}

	return int64(s.bits) //nolint:gosec
}

// AsUint returns the value as uint64. It panics if the underlying ptype is
// not an unsigned integer or the scalar is null.
func (s Scalar) AsUint() uint64 {
	s.mustPrimitive()
	if !s.dt.PType().IsUnsigned() {
		panic("scalar.Scalar.AsUint: ptype " + s.dt.PType().String() + " is not unsigned")
	}

	return s.bits
}

// AsFloat returns the value as float64, upcasting F32 if necessary. It
// panics if the underlying ptype is not a float or the scalar is null.
func (s Scalar) AsFloat() float64 {
	s.mustPrimitive()

	switch s.dt.PType() {
	case dtype.F64:
		return math.Float64frombits(s.bits)
	case dtype.F32:
		return float64(math.Float32frombits(uint32(s.bits))) //nolint:gosec
	default:
		panic("scalar.Scalar.AsFloat: ptype " + s.dt.PType().String() + " is not a float")
	}
}

// String constructs a non-null Utf8 scalar.
func String(v string) Scalar {
	return Scalar{dt: dtype.Utf8(dtype.NonNullable), isSet: true, str: v}
}

// Bytes constructs a non-null Binary scalar.
func Bytes(v []byte) Scalar {
	return Scalar{dt: dtype.Binary(dtype.NonNullable), isSet: true, str: string(v)}
}

// AsString returns the value as a string. It panics if Kind() is not Utf8
// or Binary, or the scalar is null.
func (s Scalar) AsString() string {
	if s.dt.Kind() != dtype.KindUtf8 && s.dt.Kind() != dtype.KindBinary {
		panic("scalar.Scalar.AsString called on " + s.dt.Kind().String())
	}
	if !s.isSet {
		panic("scalar.Scalar.AsString called on null scalar")
	}

	return s.str
}

// AsBytes returns the value as a byte slice. It panics if Kind() is not
// Utf8 or Binary, or the scalar is null.
func (s Scalar) AsBytes() []byte {
	return []byte(s.AsString())
}

func (s Scalar) mustKind(k dtype.Kind) {
	if s.dt.Kind() != k {
		panic(fmt.Sprintf("scalar.Scalar: expected kind %s, got %s", k, s.dt.Kind()))
	}
	if !s.isSet {
		panic("scalar.Scalar: called accessor on null scalar")
	}
}

func (s Scalar) mustPrimitive() {
	s.mustKind(dtype.KindPrimitive)
}

// Less reports whether s orders strictly before other. Both must share the
// same dtype Kind (and, for Primitive, the same PType); Less panics
// otherwise, since ordering across types is undefined and every caller
// (stats merge, search_sorted) only ever compares same-typed scalars.
//
// Null scalars order before every non-null scalar of the same type, and
// two nulls are never Less than each other.
func (s Scalar) Less(other Scalar) bool {
	if s.dt.Kind() != other.dt.Kind() {
		panic("scalar.Scalar.Less: mismatched kinds " + s.dt.Kind().String() + " vs " + other.dt.Kind().String())
	}

	if s.IsNull() || other.IsNull() {
		return s.IsNull() && !other.IsNull()
	}

	switch s.dt.Kind() {
	case dtype.KindBool:
		return !s.AsBool() && other.AsBool()
	case dtype.KindPrimitive:
		if s.dt.PType() != other.dt.PType() {
			panic("scalar.Scalar.Less: mismatched ptypes")
		}

		switch {
		case s.dt.PType().IsFloat():
			return s.AsFloat() < other.AsFloat()
		case s.dt.PType().IsSigned():
			return s.AsInt() < other.AsInt()
		default:
			return s.AsUint() < other.AsUint()
		}
	case dtype.KindUtf8, dtype.KindBinary:
		return s.AsString() < other.AsString()
	default:
		panic("scalar.Scalar.Less: unorderable kind " + s.dt.Kind().String())
	}
}

// Equal reports value equality. Two null scalars of the same dtype Kind
// are equal.
func (s Scalar) Equal(other Scalar) bool {
	if s.dt.Kind() != other.dt.Kind() {
		return false
	}
	if s.IsNull() != other.IsNull() {
		return false
	}
	if s.IsNull() {
		return true
	}

	switch s.dt.Kind() {
	case dtype.KindBool:
		return s.AsBool() == other.AsBool()
	case dtype.KindPrimitive:
		if s.dt.PType() != other.dt.PType() {
			return false
		}

		return s.bits == other.bits
	case dtype.KindUtf8, dtype.KindBinary:
		return s.str == other.str
	default:
		return false
	}
}

// String implements fmt.Stringer for debugging.
func (s Scalar) String() string {
	if s.IsNull() {
		return "null"
	}

	switch s.dt.Kind() {
	case dtype.KindBool:
		return fmt.Sprintf("%v", s.AsBool())
	case dtype.KindPrimitive:
		if s.dt.PType().IsFloat() {
			return fmt.Sprintf("%v", s.AsFloat())
		}
		if s.dt.PType().IsSigned() {
			return fmt.Sprintf("%d", s.AsInt())
		}

		return fmt.Sprintf("%d", s.AsUint())
	case dtype.KindUtf8:
		return fmt.Sprintf("%q", s.str)
	case dtype.KindBinary:
		return fmt.Sprintf("%x", s.str)
	default:
		return "<scalar>"
	}
}

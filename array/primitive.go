package array

import (
	"fmt"
	"math"

	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/endian"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// engine is the fixed byte order strata uses for every on-buffer fixed-
// width encoding. A little-endian host reads these buffers without
// byte-swapping; nothing in this package depends on host endianness,
// only on using the same engine consistently for encode and decode.
var engine = endian.GetLittleEndianEngine()

// NewPrimitive builds a Primitive(p) canonical array: a tightly packed
// buffer of p.ByteWidth() bytes per element, in engine's byte order, plus
// validity. data must have at least length*p.ByteWidth() bytes.
func NewPrimitive(p dtype.PType, length int, data []byte, v validity.Validity) *Array {
	if v.Len() != length {
		panic(fmt.Sprintf("array.NewPrimitive: validity length %d != array length %d", v.Len(), length))
	}

	need := length * p.ByteWidth()
	buf := make([]byte, need)
	copy(buf, data)

	nullability := dtype.NonNullable
	if v.Kind() != validity.KindNonNullable {
		nullability = dtype.Nullable
	}

	return newNode(EncodingPrimitive, dtype.Primitive(p, nullability), length, nil, nil, [][]byte{buf}, v, canonicalKernels{})
}

func primitiveScalarAt(a *Array, i int) (scalar.Scalar, error) {
	if !a.validity.IsValid(i) {
		return scalar.Null(a.dt), nil
	}

	p := a.dt.PType()
	buf := a.buffers[0]
	off := i * p.ByteWidth()

	switch p {
	case dtype.U8:
		return scalar.Uint(p, uint64(buf[off])), nil
	case dtype.U16:
		return scalar.Uint(p, uint64(engine.Uint16(buf[off:]))), nil
	case dtype.U32:
		return scalar.Uint(p, uint64(engine.Uint32(buf[off:]))), nil
	case dtype.U64:
		return scalar.Uint(p, engine.Uint64(buf[off:])), nil
	case dtype.I8:
		return scalar.Int(p, int64(int8(buf[off]))), nil
	case dtype.I16:
		return scalar.Int(p, int64(int16(engine.Uint16(buf[off:])))), nil
	case dtype.I32:
		return scalar.Int(p, int64(int32(engine.Uint32(buf[off:])))), nil
	case dtype.I64:
		return scalar.Int(p, int64(engine.Uint64(buf[off:]))), nil
	case dtype.F16:
		return scalar.Float(halfToFloat64(engine.Uint16(buf[off:]))), nil
	case dtype.F32:
		return scalar.Float32(math.Float32frombits(engine.Uint32(buf[off:]))), nil
	case dtype.F64:
		return scalar.Float(math.Float64frombits(engine.Uint64(buf[off:]))), nil
	default:
		return scalar.Scalar{}, fmt.Errorf("primitiveScalarAt: unhandled ptype %s", p)
	}
}

func primitiveSlice(a *Array, start, stop int) (*Array, error) {
	bw := a.dt.PType().ByteWidth()

	return NewPrimitive(a.dt.PType(), stop-start, a.buffers[0][start*bw:stop*bw], a.validity.Slice(start, stop)), nil
}

func rebuildPrimitive(dt dtype.DType, vals []scalar.Scalar, valid []bool) (*Array, error) {
	p := dt.PType()
	bw := p.ByteWidth()
	buf := make([]byte, len(vals)*bw)

	for i, v := range vals {
		if !valid[i] {
			continue
		}

		off := i * bw
		switch p {
		case dtype.U8:
			buf[off] = byte(v.AsUint())
		case dtype.U16:
			engine.PutUint16(buf[off:], uint16(v.AsUint()))
		case dtype.U32:
			engine.PutUint32(buf[off:], uint32(v.AsUint()))
		case dtype.U64:
			engine.PutUint64(buf[off:], v.AsUint())
		case dtype.I8:
			buf[off] = byte(int8(v.AsInt()))
		case dtype.I16:
			engine.PutUint16(buf[off:], uint16(int16(v.AsInt())))
		case dtype.I32:
			engine.PutUint32(buf[off:], uint32(int32(v.AsInt())))
		case dtype.I64:
			engine.PutUint64(buf[off:], uint64(v.AsInt()))
		case dtype.F32:
			engine.PutUint32(buf[off:], math.Float32bits(float32(v.AsFloat())))
		case dtype.F64:
			engine.PutUint64(buf[off:], math.Float64bits(v.AsFloat()))
		case dtype.F16:
			engine.PutUint16(buf[off:], float64ToHalf(v.AsFloat()))
		}
	}

	return NewPrimitive(p, len(vals), buf, validity.BitmapFromBools(valid)), nil
}

// halfToFloat64 decodes an IEEE-754 binary16 bit pattern to float64.
func halfToFloat64(h uint16) float64 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff

	var f32 uint32
	switch exp {
	case 0:
		if frac == 0 {
			f32 = sign << 31
		} else {
			// Subnormal half: normalize into a float32 exponent.
			e := -1
			for frac&0x400 == 0 {
				frac <<= 1
				e++
			}
			frac &= 0x3ff
			exp32 := uint32(127 - 15 - e)
			f32 = (sign << 31) | (exp32 << 23) | (frac << 13)
		}
	case 0x1f:
		f32 = (sign << 31) | (0xff << 23) | (frac << 13)
	default:
		exp32 := exp - 15 + 127
		f32 = (sign << 31) | (exp32 << 23) | (frac << 13)
	}

	return float64(math.Float32frombits(f32))
}

// float64ToHalf encodes v as an IEEE-754 binary16 bit pattern, truncating
// mantissa bits that do not fit (round toward zero) and saturating to
// +-Inf on overflow.
func float64ToHalf(v float64) uint16 {
	f32 := math.Float32bits(float32(v))
	sign := uint16(f32>>16) & 0x8000
	exp := int32(f32>>23) & 0xff
	frac := f32 & 0x7fffff

	if exp == 0xff {
		if frac != 0 {
			return sign | 0x7e00 // NaN
		}

		return sign | 0x7c00 // Inf
	}

	e := exp - 127 + 15
	if e >= 0x1f {
		return sign | 0x7c00 // overflow to Inf
	}
	if e <= 0 {
		if e < -10 {
			return sign // flushes to zero
		}
		frac |= 0x800000
		shift := uint(14 - e)

		return sign | uint16(frac>>shift)
	}

	return sign | uint16(e)<<10 | uint16(frac>>13)
}

package scalar

import (
	"encoding/binary"
	"fmt"

	"github.com/strata-db/strata/dtype"
)

// EncodeMetadata serializes a Scalar into a compact byte string suitable
// for storing in an Array node's metadata field (Constant's value,
// Sparse's fill_value, Frame-of-Reference's reference). The format is:
// one byte "is null", one byte dtype.Kind, then a kind-specific payload
// (for a null scalar, only a Primitive's PType byte follows).
func EncodeMetadata(s Scalar) []byte {
	out := []byte{0, byte(s.dt.Kind())}
	if s.IsNull() {
		out[0] = 1
		if s.dt.Kind() == dtype.KindPrimitive {
			out = append(out, byte(s.dt.PType()))
		}

		return out
	}

	switch s.dt.Kind() {
	case dtype.KindBool:
		b := byte(0)
		if s.AsBool() {
			b = 1
		}
		out = append(out, b)
	case dtype.KindPrimitive:
		out = append(out, byte(s.dt.PType()))
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], s.bits)
		out = append(out, buf[:]...)
	case dtype.KindUtf8, dtype.KindBinary:
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s.str)))
		out = append(out, lenBuf[:]...)
		out = append(out, s.str...)
	}

	return out
}

// DecodeMetadata is EncodeMetadata's inverse.
func DecodeMetadata(data []byte) (Scalar, error) {
	if len(data) < 2 {
		return Scalar{}, fmt.Errorf("scalar.DecodeMetadata: metadata too short")
	}

	isNull := data[0] != 0
	kind := dtype.Kind(data[1])
	rest := data[2:]

	switch kind {
	case dtype.KindNull:
		return Null(dtype.Null()), nil
	case dtype.KindBool:
		if isNull {
			return Null(dtype.Bool(dtype.Nullable)), nil
		}
		if len(rest) < 1 {
			return Scalar{}, fmt.Errorf("scalar.DecodeMetadata: truncated bool payload")
		}

		return Bool(rest[0] != 0), nil
	case dtype.KindPrimitive:
		if len(rest) < 1 {
			return Scalar{}, fmt.Errorf("scalar.DecodeMetadata: truncated primitive payload")
		}
		p := dtype.PType(rest[0])
		if isNull {
			return Null(dtype.Primitive(p, dtype.Nullable)), nil
		}
		if len(rest) < 9 {
			return Scalar{}, fmt.Errorf("scalar.DecodeMetadata: truncated primitive bits")
		}
		bits := binary.LittleEndian.Uint64(rest[1:9])

		return Scalar{dt: dtype.Primitive(p, dtype.NonNullable), isSet: true, bits: bits}, nil
	case dtype.KindUtf8, dtype.KindBinary:
		dt := dtype.Utf8(dtype.NonNullable)
		if kind == dtype.KindBinary {
			dt = dtype.Binary(dtype.NonNullable)
		}
		if isNull {
			return Null(dt.WithNullability(dtype.Nullable)), nil
		}
		if len(rest) < 4 {
			return Scalar{}, fmt.Errorf("scalar.DecodeMetadata: truncated string length")
		}
		n := binary.LittleEndian.Uint32(rest[:4])
		if len(rest) < int(4+n) {
			return Scalar{}, fmt.Errorf("scalar.DecodeMetadata: truncated string payload")
		}

		return Scalar{dt: dt, isSet: true, str: string(rest[4 : 4+n])}, nil
	default:
		return Scalar{}, fmt.Errorf("scalar.DecodeMetadata: unhandled kind %s", kind)
	}
}

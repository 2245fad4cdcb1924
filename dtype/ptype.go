package dtype

import "fmt"

// PType enumerates the primitive (fixed-width) element types carried by a
// Primitive DType.
type PType uint8

const (
	U8 PType = iota
	U16
	U32
	U64
	I8
	I16
	I32
	I64
	F16
	F32
	F64
)

// String implements fmt.Stringer.
func (p PType) String() string {
	switch p {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F16:
		return "f16"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return fmt.Sprintf("ptype(%d)", uint8(p))
	}
}

// BitWidth returns the element width, in bits, of values of this type.
func (p PType) BitWidth() int {
	return p.ByteWidth() * 8
}

// ByteWidth returns the element width, in bytes, of values of this type.
func (p PType) ByteWidth() int {
	switch p {
	case U8, I8:
		return 1
	case U16, I16, F16:
		return 2
	case U32, I32, F32:
		return 4
	case U64, I64, F64:
		return 8
	default:
		return 0
	}
}

// IsSigned reports whether values of this type are two's-complement signed
// integers.
func (p PType) IsSigned() bool {
	switch p {
	case I8, I16, I32, I64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether values of this type are IEEE-754 floating point.
func (p PType) IsFloat() bool {
	switch p {
	case F16, F32, F64:
		return true
	default:
		return false
	}
}

// IsUnsigned reports whether values of this type are unsigned integers.
func (p PType) IsUnsigned() bool {
	switch p {
	case U8, U16, U32, U64:
		return true
	default:
		return false
	}
}

// IsInt reports whether values of this type are integers (signed or
// unsigned).
func (p PType) IsInt() bool {
	return p.IsSigned() || p.IsUnsigned()
}

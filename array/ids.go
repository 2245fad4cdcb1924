package array

// EncodingID is the small integer tag every Array node carries alongside
// its DType. It selects which Kernels implementation interprets the
// node's metadata and buffers.
type EncodingID uint8

// Canonical encoding ids, one per DType per the canonical-forms table.
// Encoded-form ids are allocated by the encoding subpackages that define
// them (each package's exported ID constant) starting at
// EncodingIDUserBase.
const (
	EncodingNull EncodingID = iota
	EncodingBool
	EncodingPrimitive
	EncodingVarBin
	EncodingVarBinView
	EncodingStruct
	EncodingExtension

	// EncodingIDUserBase is the first id an encoding subpackage may use
	// for an encoded (non-canonical) form.
	EncodingIDUserBase EncodingID = 32
)

func (e EncodingID) String() string {
	switch e {
	case EncodingNull:
		return "null"
	case EncodingBool:
		return "bool"
	case EncodingPrimitive:
		return "primitive"
	case EncodingVarBin:
		return "varbin"
	case EncodingVarBinView:
		return "varbinview"
	case EncodingStruct:
		return "struct"
	case EncodingExtension:
		return "extension"
	default:
		return "encoding(" + itoa(uint8(e)) + ")"
	}
}

func itoa(v uint8) string {
	if v == 0 {
		return "0"
	}
	var buf [3]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

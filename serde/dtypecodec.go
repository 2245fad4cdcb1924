package serde

import (
	"encoding/binary"
	"fmt"

	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/errs"
)

// encodeDType writes dt's recursive shape to a standalone byte encoding:
// a kind tag, a nullability byte, and a kind-specific payload (nothing for
// Null/Bool/Utf8/Binary; a PType byte for Primitive; a recursive DType for
// List; a field count plus per-field name and recursive DType for Struct;
// an id string, a metadata byte string, and a recursive storage DType for
// Extension). This is independent of the flatbuffer node envelope; a
// Node's dtype field and the schema message both embed these bytes
// verbatim as an opaque byte vector.
func encodeDType(dt dtype.DType) []byte {
	var buf []byte

	buf = append(buf, byte(dt.Kind()))
	buf = appendBool(buf, dt.Nullable())

	switch dt.Kind() {
	case dtype.KindPrimitive:
		buf = append(buf, byte(dt.PType()))
	case dtype.KindList:
		buf = append(buf, encodeDType(dt.Element())...)
	case dtype.KindStruct:
		names := dt.FieldNames()
		types := dt.FieldTypes()
		buf = appendUint32(buf, uint32(len(names)))
		for i, name := range names {
			buf = appendString(buf, name)
			buf = append(buf, encodeDType(types[i])...)
		}
	case dtype.KindExtension:
		buf = appendString(buf, dt.ExtensionID())
		buf = appendBytes(buf, dt.ExtensionMetadata())
		buf = append(buf, encodeDType(dt.StorageType())...)
	}

	return buf
}

// decodeDType is encodeDType's inverse. It returns the decoded DType and
// the number of bytes consumed from the start of b.
func decodeDType(b []byte) (dtype.DType, int, error) {
	if len(b) < 2 {
		return dtype.DType{}, 0, fmt.Errorf("%w: dtype bytes truncated", errs.ErrInvalidSerde)
	}

	kind := dtype.Kind(b[0])
	nullable := b[1] != 0
	n := dtype.NonNullable
	if nullable {
		n = dtype.Nullable
	}
	pos := 2

	switch kind {
	case dtype.KindNull:
		return dtype.Null(), pos, nil
	case dtype.KindBool:
		return dtype.Bool(n), pos, nil
	case dtype.KindUtf8:
		return dtype.Utf8(n), pos, nil
	case dtype.KindBinary:
		return dtype.Binary(n), pos, nil
	case dtype.KindPrimitive:
		if pos >= len(b) {
			return dtype.DType{}, 0, fmt.Errorf("%w: primitive dtype truncated", errs.ErrInvalidSerde)
		}
		p := dtype.PType(b[pos])
		pos++

		return dtype.Primitive(p, n), pos, nil
	case dtype.KindList:
		elem, used, err := decodeDType(b[pos:])
		if err != nil {
			return dtype.DType{}, 0, err
		}
		pos += used

		return dtype.List(elem, n), pos, nil
	case dtype.KindStruct:
		if pos+4 > len(b) {
			return dtype.DType{}, 0, fmt.Errorf("%w: struct dtype truncated", errs.ErrInvalidSerde)
		}
		count := int(binary.LittleEndian.Uint32(b[pos:]))
		pos += 4

		names := make([]string, count)
		types := make([]dtype.DType, count)
		for i := 0; i < count; i++ {
			name, used, err := readString(b[pos:])
			if err != nil {
				return dtype.DType{}, 0, err
			}
			pos += used
			names[i] = name

			ft, used, err := decodeDType(b[pos:])
			if err != nil {
				return dtype.DType{}, 0, err
			}
			pos += used
			types[i] = ft
		}

		return dtype.Struct(names, types, n), pos, nil
	case dtype.KindExtension:
		id, used, err := readString(b[pos:])
		if err != nil {
			return dtype.DType{}, 0, err
		}
		pos += used

		md, used, err := readBytes(b[pos:])
		if err != nil {
			return dtype.DType{}, 0, err
		}
		pos += used

		storage, used, err := decodeDType(b[pos:])
		if err != nil {
			return dtype.DType{}, 0, err
		}
		pos += used

		return dtype.Extension(id, md, storage, n), pos, nil
	default:
		return dtype.DType{}, 0, fmt.Errorf("%w: unknown dtype kind %d", errs.ErrInvalidSerde, kind)
	}
}

func appendBool(buf []byte, b bool) []byte {
	if b {
		return append(buf, 1)
	}

	return append(buf, 0)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)

	return append(buf, tmp[:]...)
}

func appendBytes(buf []byte, v []byte) []byte {
	buf = appendUint32(buf, uint32(len(v)))

	return append(buf, v...)
}

func appendString(buf []byte, s string) []byte {
	return appendBytes(buf, []byte(s))
}

func readBytes(b []byte) ([]byte, int, error) {
	if len(b) < 4 {
		return nil, 0, fmt.Errorf("%w: length prefix truncated", errs.ErrInvalidSerde)
	}
	n := int(binary.LittleEndian.Uint32(b))
	if len(b) < 4+n {
		return nil, 0, fmt.Errorf("%w: byte string truncated", errs.ErrInvalidSerde)
	}
	out := make([]byte, n)
	copy(out, b[4:4+n])

	return out, 4 + n, nil
}

func readString(b []byte) (string, int, error) {
	raw, used, err := readBytes(b)
	if err != nil {
		return "", 0, err
	}

	return string(raw), used, nil
}

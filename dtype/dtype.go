// Package dtype defines the logical type model shared by every array in
// strata: the Arrow-compatible DType sum type, its nullability flag, and
// the Struct/List/Extension compound variants.
//
// A DType is independent of physical encoding. An I64 column may be backed
// by a raw buffer, a bit-packed block, a dictionary, or a run-end array;
// all four report dtype() == Primitive(I64). See package array for the
// encoding-bearing node type.
package dtype

import (
	"fmt"
	"strings"
)

// Kind identifies which DType variant a value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindPrimitive
	KindUtf8
	KindBinary
	KindList
	KindStruct
	KindExtension
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindPrimitive:
		return "primitive"
	case KindUtf8:
		return "utf8"
	case KindBinary:
		return "binary"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	case KindExtension:
		return "extension"
	default:
		return "unknown"
	}
}

// Nullability is the nullability flag every DType variant carries
// independent of its shape.
type Nullability bool

const (
	NonNullable Nullability = false
	Nullable    Nullability = true
)

func (n Nullability) String() string {
	if n {
		return "nullable"
	}

	return "non-nullable"
}

// DType is the logical, encoding-independent type of an array. It is an
// immutable value type. The zero value has Kind KindNull but reports
// non-nullable; use Null() for the (always nullable) Null DType.
//
// Struct, List, and Extension carry pointers to shared, never-mutated
// payload structs so that DType itself stays small and cheaply copyable.
type DType struct {
	kind        Kind
	nullability Nullability
	ptype       PType
	list        *listPayload
	strct       *structPayload
	ext         *extensionPayload
}

type listPayload struct {
	element DType
}

type structPayload struct {
	fieldNames []string
	fieldTypes []DType
}

type extensionPayload struct {
	id       string
	metadata []byte
	storage  DType
}

// Null returns the Null DType. Null is always nullable; the nullability
// argument to other constructors has no Null equivalent.
func Null() DType {
	return DType{kind: KindNull, nullability: Nullable}
}

// Bool returns the Bool DType with the given nullability.
func Bool(n Nullability) DType {
	return DType{kind: KindBool, nullability: n}
}

// Primitive returns the Primitive(P) DType with the given nullability.
func Primitive(p PType, n Nullability) DType {
	return DType{kind: KindPrimitive, nullability: n, ptype: p}
}

// Utf8 returns the Utf8 DType with the given nullability.
func Utf8(n Nullability) DType {
	return DType{kind: KindUtf8, nullability: n}
}

// Binary returns the Binary DType with the given nullability.
func Binary(n Nullability) DType {
	return DType{kind: KindBinary, nullability: n}
}

// List returns the List(element) DType with the given nullability. The
// container's nullability is independent of the element's nullability.
func List(element DType, n Nullability) DType {
	return DType{kind: KindList, nullability: n, list: &listPayload{element: element}}
}

// Struct returns the Struct DType with the given nullability.
//
// fieldNames must be unique and have the same length as fieldTypes;
// Struct panics otherwise, since a malformed field list can only originate
// from a programming error in the caller, never from untrusted input (the
// serde layer validates field lists before ever calling this constructor).
func Struct(fieldNames []string, fieldTypes []DType, n Nullability) DType {
	if len(fieldNames) != len(fieldTypes) {
		panic(fmt.Sprintf("dtype.Struct: %d field names but %d field types", len(fieldNames), len(fieldTypes)))
	}

	seen := make(map[string]struct{}, len(fieldNames))
	for _, name := range fieldNames {
		if _, dup := seen[name]; dup {
			panic(fmt.Sprintf("dtype.Struct: duplicate field name %q", name))
		}
		seen[name] = struct{}{}
	}

	names := make([]string, len(fieldNames))
	copy(names, fieldNames)
	types := make([]DType, len(fieldTypes))
	copy(types, fieldTypes)

	return DType{
		kind:        KindStruct,
		nullability: n,
		strct:       &structPayload{fieldNames: names, fieldTypes: types},
	}
}

// Extension returns a logical type layered over a storage DType, e.g. a
// timestamp extension over Primitive(I64). The id identifies the
// extension's semantic meaning (e.g. "strata.timestamp_us"); metadata is
// an opaque, extension-defined byte string (e.g. a timezone name).
func Extension(id string, metadata []byte, storage DType, n Nullability) DType {
	md := make([]byte, len(metadata))
	copy(md, metadata)

	return DType{
		kind:        KindExtension,
		nullability: n,
		ext:         &extensionPayload{id: id, metadata: md, storage: storage},
	}
}

// Kind returns which DType variant this value holds.
func (d DType) Kind() Kind { return d.kind }

// Nullable reports whether this DType permits null values.
func (d DType) Nullable() bool { return bool(d.nullability) }

// PType returns the primitive element type. It panics if Kind() != KindPrimitive.
func (d DType) PType() PType {
	if d.kind != KindPrimitive {
		panic("dtype.DType.PType called on non-primitive dtype " + d.kind.String())
	}

	return d.ptype
}

// Element returns the List element DType. It panics if Kind() != KindList.
func (d DType) Element() DType {
	if d.kind != KindList {
		panic("dtype.DType.Element called on non-list dtype " + d.kind.String())
	}

	return d.list.element
}

// FieldNames returns the Struct's ordered field names. It panics if
// Kind() != KindStruct. The returned slice is shared; callers must not
// mutate it.
func (d DType) FieldNames() []string {
	if d.kind != KindStruct {
		panic("dtype.DType.FieldNames called on non-struct dtype " + d.kind.String())
	}

	return d.strct.fieldNames
}

// FieldTypes returns the Struct's field DTypes, ordered to match
// FieldNames. It panics if Kind() != KindStruct.
func (d DType) FieldTypes() []DType {
	if d.kind != KindStruct {
		panic("dtype.DType.FieldTypes called on non-struct dtype " + d.kind.String())
	}

	return d.strct.fieldTypes
}

// FieldIndex returns the index of the named field, or -1 if absent.
func (d DType) FieldIndex(name string) int {
	if d.kind != KindStruct {
		return -1
	}

	for i, n := range d.strct.fieldNames {
		if n == name {
			return i
		}
	}

	return -1
}

// ExtensionID returns the extension's identifier. It panics if
// Kind() != KindExtension.
func (d DType) ExtensionID() string {
	if d.kind != KindExtension {
		panic("dtype.DType.ExtensionID called on non-extension dtype " + d.kind.String())
	}

	return d.ext.id
}

// ExtensionMetadata returns the extension's opaque metadata bytes. It
// panics if Kind() != KindExtension. The returned slice is shared;
// callers must not mutate it.
func (d DType) ExtensionMetadata() []byte {
	if d.kind != KindExtension {
		panic("dtype.DType.ExtensionMetadata called on non-extension dtype " + d.kind.String())
	}

	return d.ext.metadata
}

// StorageType returns the extension's underlying storage DType. It panics
// if Kind() != KindExtension.
func (d DType) StorageType() DType {
	if d.kind != KindExtension {
		panic("dtype.DType.StorageType called on non-extension dtype " + d.kind.String())
	}

	return d.ext.storage
}

// WithNullability returns a copy of d with the given nullability. Null's
// nullability cannot be changed; WithNullability is a no-op on Null.
func (d DType) WithNullability(n Nullability) DType {
	if d.kind == KindNull {
		return d
	}

	d.nullability = n

	return d
}

// Equal reports whether d and other describe the same logical type,
// including nullability and, for compound variants, recursively for
// children.
func (d DType) Equal(other DType) bool {
	if d.kind != other.kind || d.nullability != other.nullability {
		return false
	}

	switch d.kind {
	case KindPrimitive:
		return d.ptype == other.ptype
	case KindList:
		return d.list.element.Equal(other.list.element)
	case KindStruct:
		if len(d.strct.fieldNames) != len(other.strct.fieldNames) {
			return false
		}
		for i, name := range d.strct.fieldNames {
			if other.strct.fieldNames[i] != name {
				return false
			}
			if !d.strct.fieldTypes[i].Equal(other.strct.fieldTypes[i]) {
				return false
			}
		}

		return true
	case KindExtension:
		return d.ext.id == other.ext.id &&
			string(d.ext.metadata) == string(other.ext.metadata) &&
			d.ext.storage.Equal(other.ext.storage)
	default:
		return true
	}
}

// String returns a human-readable representation, e.g.
// "primitive(i64, nullable)" or
// "struct{x: primitive(f64, non-nullable), y: utf8(nullable)}(non-nullable)".
func (d DType) String() string {
	switch d.kind {
	case KindPrimitive:
		return fmt.Sprintf("primitive(%s, %s)", d.ptype, d.nullability)
	case KindList:
		return fmt.Sprintf("list(%s, %s)", d.list.element, d.nullability)
	case KindStruct:
		fields := make([]string, len(d.strct.fieldNames))
		for i, name := range d.strct.fieldNames {
			fields[i] = fmt.Sprintf("%s: %s", name, d.strct.fieldTypes[i])
		}

		return fmt.Sprintf("struct{%s}(%s)", strings.Join(fields, ", "), d.nullability)
	case KindExtension:
		return fmt.Sprintf("extension(%s, storage=%s, %s)", d.ext.id, d.ext.storage, d.nullability)
	default:
		return fmt.Sprintf("%s(%s)", d.kind, d.nullability)
	}
}

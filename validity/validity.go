// Package validity implements the null-tracking primitive shared by every
// canonical array form: a length-N predicate over "is this element valid",
// represented compactly as one of four cases instead of always materializing
// a bitmap.
package validity

import (
	"fmt"
	"math/bits"

	"github.com/strata-db/strata/errs"
)

// Kind identifies which Validity representation a value holds.
type Kind uint8

const (
	// KindNonNullable means no null bit is tracked; only permitted when
	// the owning array's dtype is non-nullable.
	KindNonNullable Kind = iota
	// KindAllValid means every element, conceptually, has its bit set.
	KindAllValid
	// KindAllInvalid means every element, conceptually, has its bit clear.
	KindAllInvalid
	// KindBitmap means validity is tracked per-element in a packed bitmap.
	KindBitmap
)

func (k Kind) String() string {
	switch k {
	case KindNonNullable:
		return "non-nullable"
	case KindAllValid:
		return "all-valid"
	case KindAllInvalid:
		return "all-invalid"
	case KindBitmap:
		return "bitmap"
	default:
		return "unknown"
	}
}

// Validity is an immutable, length-N null predicate. The zero value is
// KindNonNullable with length 0.
type Validity struct {
	kind   Kind
	length int
	bitmap []byte // LSB-first within each byte; len == ceil(length/8)
}

// NonNullable returns a Validity of the given length that tracks no null
// bit; is_valid(i) is true for all i.
func NonNullable(length int) Validity {
	return Validity{kind: KindNonNullable, length: length}
}

// AllValid returns a Validity of the given length where every element is
// valid.
func AllValid(length int) Validity {
	return Validity{kind: KindAllValid, length: length}
}

// AllInvalid returns a Validity of the given length where every element is
// null.
func AllInvalid(length int) Validity {
	return Validity{kind: KindAllInvalid, length: length}
}

// NewBitmap wraps a pre-packed LSB-first bitmap of the given logical
// length. bitmap must have at least ceil(length/8) bytes; NewBitmap
// truncates excess bytes. Bits at indices >= length are undefined and
// never observed.
func NewBitmap(bitmap []byte, length int) (Validity, error) {
	need := ByteLen(length)
	if len(bitmap) < need {
		return Validity{}, fmt.Errorf("%w: bitmap has %d bytes, need %d for length %d", errs.ErrInvalidArgument, len(bitmap), need, length)
	}

	b := make([]byte, need)
	copy(b, bitmap[:need])

	return Validity{kind: KindBitmap, length: length, bitmap: b}, nil
}

// BitmapFromBools builds a Bitmap Validity from a []bool, one bit per
// element. Panics are never raised; a zero-length input yields a
// zero-length bitmap.
func BitmapFromBools(valid []bool) Validity {
	b := make([]byte, ByteLen(len(valid)))
	for i, v := range valid {
		if v {
			b[i/8] |= 1 << uint(i%8)
		}
	}

	return Validity{kind: KindBitmap, length: len(valid), bitmap: b}
}

// ByteLen returns ceil(length/8), the number of bytes needed to pack
// length bits.
func ByteLen(length int) int {
	return (length + 7) / 8
}

// Kind returns which representation this Validity holds.
func (v Validity) Kind() Kind { return v.kind }

// Len returns the logical length.
func (v Validity) Len() int { return v.length }

// IsValid reports whether the element at i is valid. i must be in
// [0, Len()); IsValid panics otherwise, matching every other array
// accessor's bounds-checking discipline.
func (v Validity) IsValid(i int) bool {
	if i < 0 || i >= v.length {
		panic(fmt.Sprintf("validity.Validity.IsValid: index %d out of range [0, %d)", i, v.length))
	}

	switch v.kind {
	case KindNonNullable, KindAllValid:
		return true
	case KindAllInvalid:
		return false
	case KindBitmap:
		return v.bitmap[i/8]&(1<<uint(i%8)) != 0
	default:
		return true
	}
}

// NullCount returns the number of invalid elements. For Bitmap this costs
// O(length/8) via popcount; callers that need this repeatedly should cache
// it (array.Stats does).
func (v Validity) NullCount() int {
	switch v.kind {
	case KindNonNullable, KindAllValid:
		return 0
	case KindAllInvalid:
		return v.length
	case KindBitmap:
		set := 0
		for i, b := range v.bitmap {
			// Mask off any trailing bits beyond length in the last byte;
			// BitmapFromBools leaves them zero, but NewBitmap keeps
			// whatever the caller's bitmap held there.
			if i == len(v.bitmap)-1 && v.length%8 != 0 {
				b &= byte(1)<<uint(v.length%8) - 1
			}
			set += bits.OnesCount8(b)
		}

		return v.length - set
	default:
		return 0
	}
}

// IsUniform reports whether every tracked bit has the same value, and if
// so, what that value is. A Bitmap that happens to be uniform can be
// collapsed to AllValid/AllInvalid by the caller (Collapse does this, and
// the canonical Bool comparison consults it for its uniform-validity case).
func (v Validity) IsUniform() (uniform bool, allValid bool) {
	switch v.kind {
	case KindNonNullable, KindAllValid:
		return true, true
	case KindAllInvalid:
		return true, false
	case KindBitmap:
		nulls := v.NullCount()
		if nulls == 0 {
			return true, true
		}
		if nulls == v.length {
			return true, false
		}

		return false, false
	default:
		return true, true
	}
}

// Collapse returns an equivalent Validity in the simplest representation:
// a provably-uniform Bitmap collapses to AllValid/AllInvalid.
func (v Validity) Collapse() Validity {
	if v.kind != KindBitmap {
		return v
	}

	uniform, allValid := v.IsUniform()
	if !uniform {
		return v
	}
	if allValid {
		return AllValid(v.length)
	}

	return AllInvalid(v.length)
}

// Slice returns the Validity over logical range [start, stop), reporting
// stop-start as its length. For a Bitmap it copies the bits of the range
// into a new bitmap starting at bit 0 and collapses the result to
// AllValid/AllInvalid when it is uniform.
//
// start/stop must satisfy 0 <= start <= stop <= Len(); Slice panics
// otherwise, consistent with array.Array.slice's contract.
func (v Validity) Slice(start, stop int) Validity {
	if start < 0 || stop < start || stop > v.length {
		panic(fmt.Sprintf("validity.Validity.Slice: invalid range [%d, %d) for length %d", start, stop, v.length))
	}

	n := stop - start
	switch v.kind {
	case KindNonNullable:
		return NonNullable(n)
	case KindAllValid:
		return AllValid(n)
	case KindAllInvalid:
		return AllInvalid(n)
	case KindBitmap:
		if n == 0 {
			return BitmapFromBools(nil)
		}
		out := make([]byte, ByteLen(n))
		for i := 0; i < n; i++ {
			if v.bitmap[(start+i)/8]&(1<<uint((start+i)%8)) != 0 {
				out[i/8] |= 1 << uint(i%8)
			}
		}

		return Validity{kind: KindBitmap, length: n, bitmap: out}.Collapse()
	default:
		return v
	}
}

// Concat joins parts end to end, returning a new Validity covering their
// combined length: NonNullable if every part is NonNullable, otherwise a
// Bitmap collapsed to AllValid/AllInvalid when uniform.
func Concat(parts ...Validity) Validity {
	total := 0
	allNonNullable := true
	for _, p := range parts {
		total += p.length
		if p.kind != KindNonNullable {
			allNonNullable = false
		}
	}
	if allNonNullable {
		return NonNullable(total)
	}

	out := make([]byte, ByteLen(total))
	pos := 0
	for _, p := range parts {
		for i := 0; i < p.length; i++ {
			if p.IsValid(i) {
				out[pos/8] |= 1 << uint(pos%8)
			}
			pos++
		}
	}

	return Validity{kind: KindBitmap, length: total, bitmap: out}.Collapse()
}

// Bitmap returns the raw packed bitmap bytes. It panics if Kind() !=
// KindBitmap. The returned slice is shared; callers must not mutate it.
func (v Validity) Bitmap() []byte {
	if v.kind != KindBitmap {
		panic("validity.Validity.Bitmap called on " + v.kind.String())
	}

	return v.bitmap
}

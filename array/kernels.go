package array

import "github.com/strata-db/strata/scalar"

// CompareOp enumerates the comparison operators Array.Compare accepts.
type CompareOp uint8

const (
	CompareEQ CompareOp = iota
	CompareNE
	CompareLT
	CompareLE
	CompareGT
	CompareGE
)

// Side selects which edge of a run of equal values search_sorted returns.
type Side uint8

const (
	SideLeft Side = iota
	SideRight
)

// SearchResult is the outcome of a search_sorted call: either the value was
// found at Index, or it was not found and Index is the insertion point that
// keeps the array sorted.
type SearchResult struct {
	Found bool
	Index int
}

// Kernels is the dispatch table every Array node carries. Canonicalize is
// the one operation every encoding must implement losslessly; every other
// operation is optional and, if absent, falls back to canonicalize-then-
// default (see Array.ScalarAt and friends). This mirrors the compute
// dispatch discipline: adding an encoding never requires touching any
// existing operation's code, only optionally adding a faster path for it.
type Kernels interface {
	// Canonicalize returns the array's canonical form. On a canonical
	// array this is a cheap identity return.
	Canonicalize(a *Array) (*Array, error)
}

// ScalarAtKernel is implemented by encodings with a faster-than-canonical
// random access path (Run-End via binary search, Dictionary via one
// indirection, Bit-Packed via direct lane decode).
type ScalarAtKernel interface {
	ScalarAt(a *Array, i int) (scalar.Scalar, error)
}

// SliceKernel is implemented by encodings that can slice without decoding
// (Run-End, Chunked, Dictionary, Frame-of-Reference, Sparse, Constant).
// Bit-Packed and Delta do not implement it and slice via the canonical
// fallback.
type SliceKernel interface {
	Slice(a *Array, start, stop int) (*Array, error)
}

// TakeKernel is implemented by encodings with a gather strategy cheaper
// than canonicalize-then-gather (Run-End via search-sorted, Dictionary by
// taking on codes and reusing values). Take's indices parameter already
// makes it the bulk ("take_many") operation; there is no separate
// single-index variant to share an implementation with.
type TakeKernel interface {
	Take(a *Array, indices []int) (*Array, error)
}

// FilterKernel is the optional override for Filter. No encoding in this
// module implements it, and canonical VarBin has no selectivity-aware
// keep strategy: every Filter canonicalizes and gathers the kept indices.
type FilterKernel interface {
	Filter(a *Array, mask []bool) (*Array, error)
}

// CompareKernel is the optional override for Compare. No encoding in this
// module implements it (Bit-Packed included); every Compare canonicalizes
// both sides, and two canonical Bool operands take canonicalCompare's
// bitwise path.
type CompareKernel interface {
	Compare(a *Array, other *Array, op CompareOp) (*Array, error)
}

// SearchSortedKernel is implemented by encodings that can answer a
// search without decoding. Only Constant implements it; Run-End and
// Bit-Packed search via the canonical binary search.
type SearchSortedKernel interface {
	SearchSorted(a *Array, v scalar.Scalar, side Side) (SearchResult, error)
}

// SearchSortedManyKernel is SearchSortedKernel's bulk counterpart,
// implemented by encodings whose per-value setup cost (canonicalizing,
// decoding an ends/patches view) is worth amortizing across a whole batch
// of values rather than repeating it once per SearchSorted call.
type SearchSortedManyKernel interface {
	SearchSortedMany(a *Array, vs []scalar.Scalar, side Side) ([]SearchResult, error)
}

// FillForwardKernel replaces nulls with the last preceding non-null value.
type FillForwardKernel interface {
	FillForward(a *Array) (*Array, error)
}

// SubtractScalarKernel subtracts a scalar from every element, failing on
// integer overflow per element's cached min/max bounds.
type SubtractScalarKernel interface {
	SubtractScalar(a *Array, s scalar.Scalar) (*Array, error)
}

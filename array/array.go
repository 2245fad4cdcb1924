// Package array implements the polymorphic, tree-shaped array value at
// the core of strata: every node pairs a logical DType with a physical
// encoding, and exposes zero-copy slicing, a lazily-computed statistics
// store, and a canonical (decompressed) form that every encoding must be
// able to produce losslessly.
//
// A node's dispatch table (Kernels) is set once at construction and never
// changes; canonical constructors (NewNull, NewBool, ...) install the
// built-in canonical-form kernels, while encoding packages (encoding/runend,
// encoding/dict, ...) install their own Kernels when they build an encoded
// node. This is the mechanism behind the compute dispatch discipline:
// adding an encoding is adding a Kernels implementation, never touching
// existing code.
package array

import (
	"fmt"

	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// Array is an immutable node in the array tree. The zero value is not
// valid; use one of the New* constructors or an encoding package's
// constructor.
type Array struct {
	encodingID EncodingID
	dt         dtype.DType
	length     int
	metadata   []byte
	children   []*Array
	buffers    [][]byte
	validity   validity.Validity
	kernels    Kernels

	stats *Stats
}

// newNode is the shared constructor every canonical and encoded array
// builder funnels through, so that the Stats store is always initialized
// and metadata/buffers/children slices are always non-nil-but-owned
// copies of what the caller passed (never aliasing caller-mutable slices
// for metadata, though buffer bytes are shared per the zero-copy
// contract).
func newNode(id EncodingID, dt dtype.DType, length int, metadata []byte, children []*Array, buffers [][]byte, v validity.Validity, k Kernels) *Array {
	md := make([]byte, len(metadata))
	copy(md, metadata)

	return &Array{
		encodingID: id,
		dt:         dt,
		length:     length,
		metadata:   md,
		children:   children,
		buffers:    buffers,
		validity:   v,
		kernels:    k,
		stats:      newStats(),
	}
}

// NewEncoded builds an array node with a caller-supplied Kernels
// implementation. This is the entry point every encoding subpackage
// (runend, dict, bitpacked, delta, forenc, alp, fsst, sparse, constant,
// chunked, roaring) uses to construct its encoded nodes; id must be
// >= EncodingIDUserBase.
func NewEncoded(id EncodingID, dt dtype.DType, length int, metadata []byte, children []*Array, buffers [][]byte, v validity.Validity, k Kernels) *Array {
	if id < EncodingIDUserBase {
		panic("array.NewEncoded: id must be >= EncodingIDUserBase")
	}

	return newNode(id, dt, length, metadata, children, buffers, v, k)
}

// RebuildFromScalars is rebuildFromScalars exported for encoding packages
// whose Canonicalize falls back to a scalar-by-scalar rebuild (Constant,
// Sparse, and similar encodings with no cheaper canonical construction).
func RebuildFromScalars(dt dtype.DType, vals []scalar.Scalar, valid []bool) (*Array, error) {
	return rebuildFromScalars(dt, vals, valid)
}

// DType returns the array's logical type.
func (a *Array) DType() dtype.DType { return a.dt }

// Len returns the array's logical length.
func (a *Array) Len() int { return a.length }

// IsEmpty reports whether Len() == 0.
func (a *Array) IsEmpty() bool { return a.length == 0 }

// EncodingID returns the node's physical encoding tag.
func (a *Array) EncodingID() EncodingID { return a.encodingID }

// Metadata returns the encoding-specific metadata bytes. The returned
// slice is shared; callers must not mutate it.
func (a *Array) Metadata() []byte { return a.metadata }

// Validity returns the array's null predicate.
func (a *Array) Validity() validity.Validity { return a.validity }

// Statistics returns the array's lazily-computed statistics store.
func (a *Array) Statistics() *Stats { return a.stats }

// NBytes returns the approximate in-memory size in bytes: the sum of all
// buffer lengths plus children's NBytes, plus the validity bitmap if
// present. It does not attempt to dedupe shared buffers across siblings.
func (a *Array) NBytes() int {
	n := 0
	for _, b := range a.buffers {
		n += len(b)
	}
	if a.validity.Kind() == validity.KindBitmap {
		n += len(a.validity.Bitmap())
	}
	for _, c := range a.children {
		n += c.NBytes()
	}

	return n
}

// Child returns the i-th child array, failing if i is out of range or if
// the child's dtype/length disagree with expected. Pass a zero DType
// (dtype.DType{}) to skip the dtype check, and a negative expectedLen to
// skip the length check — used by encodings whose children's dtype or
// length is only known after inspecting the child itself (e.g.
// Dictionary's values array).
func (a *Array) Child(i int, expected dtype.DType, expectedLen int) (*Array, error) {
	if i < 0 || i >= len(a.children) {
		return nil, fmt.Errorf("%w: child index %d, have %d children", errs.ErrOutOfBounds, i, len(a.children))
	}

	c := a.children[i]
	if expected.Kind() != dtype.KindNull && !c.dt.Equal(expected) {
		return nil, fmt.Errorf("%w: child %d has dtype %s, expected %s", errs.ErrMismatchedTypes, i, c.dt, expected)
	}
	if expectedLen >= 0 && c.length != expectedLen {
		return nil, fmt.Errorf("%w: child %d has length %d, expected %d", errs.ErrInvalidArgument, i, c.length, expectedLen)
	}

	return c, nil
}

// NumChildren returns the number of child arrays.
func (a *Array) NumChildren() int { return len(a.children) }

// Buffer returns the i-th raw buffer, failing if out of range. The
// returned slice is shared; callers must not mutate it.
func (a *Array) Buffer(i int) ([]byte, error) {
	if i < 0 || i >= len(a.buffers) {
		return nil, fmt.Errorf("%w: buffer index %d, have %d buffers", errs.ErrOutOfBounds, i, len(a.buffers))
	}

	return a.buffers[i], nil
}

// NumBuffers returns the number of raw buffers.
func (a *Array) NumBuffers() int { return len(a.buffers) }

// Canonicalize returns the array's canonical form. It is always
// implemented: every Kernels value must provide it.
func (a *Array) Canonicalize() (*Array, error) {
	return a.kernels.Canonicalize(a)
}

// ScalarAt returns the logical value at index i, dispatching to a
// specialized kernel when the encoding provides one, else canonicalizing
// and reading the canonical form directly.
func (a *Array) ScalarAt(i int) (scalar.Scalar, error) {
	if i < 0 || i >= a.length {
		return scalar.Scalar{}, fmt.Errorf("%w: index %d, length %d", errs.ErrOutOfBounds, i, a.length)
	}
	if k, ok := a.kernels.(ScalarAtKernel); ok {
		return k.ScalarAt(a, i)
	}

	c, err := a.Canonicalize()
	if err != nil {
		return scalar.Scalar{}, err
	}

	return canonicalScalarAt(c, i)
}

// Slice returns the array over logical range [start, stop), sharing
// buffers with the parent wherever the encoding permits. An invalid range
// (start < 0, stop < start, or stop > Len()) returns errs.ErrOutOfBounds.
func (a *Array) Slice(start, stop int) (*Array, error) {
	if start < 0 || stop < start || stop > a.length {
		return nil, fmt.Errorf("%w: slice [%d, %d) of length %d", errs.ErrOutOfBounds, start, stop, a.length)
	}
	if k, ok := a.kernels.(SliceKernel); ok {
		return k.Slice(a, start, stop)
	}

	c, err := a.Canonicalize()
	if err != nil {
		return nil, err
	}

	return canonicalSlice(c, start, stop)
}

// Take gathers the elements at indices into a new array, preserving
// nulls. Every index must be in [0, Len()).
func (a *Array) Take(indices []int) (*Array, error) {
	for _, i := range indices {
		if i < 0 || i >= a.length {
			return nil, fmt.Errorf("%w: take index %d, length %d", errs.ErrOutOfBounds, i, a.length)
		}
	}
	if k, ok := a.kernels.(TakeKernel); ok {
		return k.Take(a, indices)
	}

	c, err := a.Canonicalize()
	if err != nil {
		return nil, err
	}

	return canonicalTake(c, indices)
}

// Filter keeps the positions where mask is true. mask must have length
// Len().
func (a *Array) Filter(mask []bool) (*Array, error) {
	if len(mask) != a.length {
		return nil, fmt.Errorf("%w: mask length %d, array length %d", errs.ErrInvalidArgument, len(mask), a.length)
	}
	if k, ok := a.kernels.(FilterKernel); ok {
		return k.Filter(a, mask)
	}

	c, err := a.Canonicalize()
	if err != nil {
		return nil, err
	}

	return canonicalFilter(c, mask)
}

// Compare evaluates other against a elementwise under op, producing a Bool
// array. a and other must share a dtype up to nullability.
func (a *Array) Compare(other *Array, op CompareOp) (*Array, error) {
	if k, ok := a.kernels.(CompareKernel); ok {
		return k.Compare(a, other, op)
	}

	ac, err := a.Canonicalize()
	if err != nil {
		return nil, err
	}
	oc, err := other.Canonicalize()
	if err != nil {
		return nil, err
	}

	return canonicalCompare(ac, oc, op)
}

// SearchSorted returns the insertion point (or found index) for v against
// a, assumed sorted ascending.
func (a *Array) SearchSorted(v scalar.Scalar, side Side) (SearchResult, error) {
	if k, ok := a.kernels.(SearchSortedKernel); ok {
		return k.SearchSorted(a, v, side)
	}

	c, err := a.Canonicalize()
	if err != nil {
		return SearchResult{}, err
	}

	return canonicalSearchSorted(c, v, side)
}

// SearchSortedMany is search_sorted's bulk counterpart: it resolves every
// value in vs against a in one call. An encoding whose SearchSorted kernel
// already amortizes setup cost (e.g. canonicalizing once, or reusing a
// decoded ends/patches view) can implement SearchSortedManyKernel to reuse
// that setup across the whole batch; everything else shares its scalar
// SearchSorted on this slow path, one call per value.
func (a *Array) SearchSortedMany(vs []scalar.Scalar, side Side) ([]SearchResult, error) {
	if k, ok := a.kernels.(SearchSortedManyKernel); ok {
		return k.SearchSortedMany(a, vs, side)
	}

	out := make([]SearchResult, len(vs))
	for i, v := range vs {
		r, err := a.SearchSorted(v, side)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}

	return out, nil
}

// FillForward replaces each null with the last preceding non-null value.
// Leading nulls (those with no preceding non-null value) stay null; they
// are not replaced by the dtype's zero value.
func (a *Array) FillForward() (*Array, error) {
	if k, ok := a.kernels.(FillForwardKernel); ok {
		return k.FillForward(a)
	}

	c, err := a.Canonicalize()
	if err != nil {
		return nil, err
	}

	return canonicalFillForward(c)
}

// SubtractScalar subtracts v from every element. For integers each
// result is checked against the ptype's range and an out-of-range result
// fails with errs.ErrOverflow; floats are unchecked.
func (a *Array) SubtractScalar(v scalar.Scalar) (*Array, error) {
	if k, ok := a.kernels.(SubtractScalarKernel); ok {
		return k.SubtractScalar(a, v)
	}

	c, err := a.Canonicalize()
	if err != nil {
		return nil, err
	}

	return canonicalSubtractScalar(c, v)
}

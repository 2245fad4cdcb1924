// Package chunked implements Chunked encoding: a column stored as a
// sequence of independently encoded child arrays (each free to use
// whatever encoding fits its own data), addressed by a cumulative
// row-offset table that lets scalar_at and slice locate the owning
// child in O(log chunk count) instead of a linear scan. This is the
// layout a column file uses to store one logical column across many
// record batches without re-encoding the whole column on every append.
package chunked

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// ID is Chunked's encoding tag.
const ID = array.EncodingIDUserBase + 12

type kernels struct{}

var _ array.Kernels = kernels{}
var _ array.ScalarAtKernel = kernels{}
var _ array.SliceKernel = kernels{}

func rowOffsets(a *array.Array) []uint32 {
	md := a.Metadata()
	n := len(md) / 4
	offs := make([]uint32, n)
	for i := range offs {
		offs[i] = binary.LittleEndian.Uint32(md[4*i:])
	}

	return offs
}

// childFor returns the child index owning logical position pos and pos's
// offset within that child.
func childFor(offs []uint32, pos int) (idx, local int) {
	idx = sort.Search(len(offs)-1, func(j int) bool {
		return offs[j+1] > uint32(pos)
	})
	local = pos - int(offs[idx])

	return idx, local
}

func (kernels) ScalarAt(a *array.Array, i int) (scalar.Scalar, error) {
	offs := rowOffsets(a)
	idx, local := childFor(offs, i)

	child, err := a.Child(idx, dtype.DType{}, -1)
	if err != nil {
		return scalar.Scalar{}, err
	}

	return child.ScalarAt(local)
}

func (kernels) Canonicalize(a *array.Array) (*array.Array, error) {
	vals := make([]scalar.Scalar, a.Len())
	valid := make([]bool, a.Len())

	pos := 0
	for c := 0; c < a.NumChildren(); c++ {
		child, err := a.Child(c, dtype.DType{}, -1)
		if err != nil {
			return nil, err
		}
		for i := 0; i < child.Len(); i++ {
			v, err := child.ScalarAt(i)
			if err != nil {
				return nil, err
			}
			vals[pos] = v
			valid[pos] = !v.IsNull()
			pos++
		}
	}

	return array.RebuildFromScalars(a.DType(), vals, valid)
}

func (kernels) Slice(a *array.Array, start, stop int) (*array.Array, error) {
	offs := rowOffsets(a)
	firstIdx, firstLocal := childFor(offs, start)
	lastIdx, lastLocal := childFor(offs, stop-1)

	var children []*array.Array
	for c := firstIdx; c <= lastIdx; c++ {
		child, err := a.Child(c, dtype.DType{}, -1)
		if err != nil {
			return nil, err
		}

		lo := 0
		hi := child.Len()
		if c == firstIdx {
			lo = firstLocal
		}
		if c == lastIdx {
			hi = lastLocal + 1
		}

		if lo != 0 || hi != child.Len() {
			sliced, err := child.Slice(lo, hi)
			if err != nil {
				return nil, err
			}
			children = append(children, sliced)
		} else {
			children = append(children, child)
		}
	}

	return New(a.DType(), children), nil
}

// New builds a Chunked array from an ordered list of children sharing
// dt's dtype.
func New(dt dtype.DType, children []*array.Array) *array.Array {
	offs := make([]uint32, len(children)+1)
	for i, c := range children {
		offs[i+1] = offs[i] + uint32(c.Len())
	}

	md := make([]byte, 4*len(offs))
	for i, o := range offs {
		binary.LittleEndian.PutUint32(md[4*i:], o)
	}

	length := int(offs[len(offs)-1])
	v := mergeValidity(children, length)

	return array.NewEncoded(ID, dt, length, md, children, nil, v, kernels{})
}

func mergeValidity(children []*array.Array, length int) validity.Validity {
	valid := make([]bool, length)
	pos := 0
	for _, c := range children {
		cv := c.Validity()
		for i := 0; i < c.Len(); i++ {
			valid[pos] = cv.IsValid(i)
			pos++
		}
	}

	return validity.BitmapFromBools(valid).Collapse()
}

// CanCompress accepts any non-empty arr; Chunked is not one of the sampling
// compressor's leaf candidates, which instead builds it directly when it
// splits a long array into blocks.
func CanCompress(arr *array.Array) bool {
	return arr.Len() > 0
}

// Encode wraps pre-chunked children (such as the sampling compressor's
// independently compressed blocks) into a single Chunked array.
func Encode(dt dtype.DType, children []*array.Array) (*array.Array, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: chunked.Encode requires at least one child", errs.ErrInvalidArgument)
	}
	for _, c := range children {
		if !c.DType().Equal(dt) {
			return nil, fmt.Errorf("%w: chunked.Encode child dtype %s != %s", errs.ErrMismatchedTypes, c.DType(), dt)
		}
	}

	return New(dt, children), nil
}

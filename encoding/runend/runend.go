// Package runend implements the Run-End encoding: a run-length
// representation where `ends` records the exclusive upper bound of each
// run and `values` records the run's value. Good for arrays with long
// stretches of repeated values (validity-of-values nulls, sorted columns
// after dictionary grouping, re-encoded booleans).
package runend

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

// ID is Run-End's encoding tag.
const ID = array.EncodingIDUserBase + 3

type kernels struct{}

var _ array.Kernels = kernels{}
var _ array.ScalarAtKernel = kernels{}
var _ array.SliceKernel = kernels{}
var _ array.TakeKernel = kernels{}

func offsetOf(a *array.Array) int {
	md := a.Metadata()
	if len(md) < 4 {
		return 0
	}

	return int(binary.LittleEndian.Uint32(md))
}

func endsAndValues(a *array.Array) (ends, values *array.Array) {
	ends, _ = a.Child(0, dtype.DType{}, -1)
	values, _ = a.Child(1, dtype.DType{}, -1)

	return
}

// runIndexFor returns the run index covering physical position pos,
// i.e. the smallest j such that ends[j] > pos.
func runIndexFor(ends *array.Array, pos int) int {
	n := ends.Len()

	return sort.Search(n, func(j int) bool {
		v, _ := ends.ScalarAt(j)
		return v.AsUint() > uint64(pos)
	})
}

func (kernels) Canonicalize(a *array.Array) (*array.Array, error) {
	ends, values := endsAndValues(a)
	offset := offsetOf(a)

	vals := make([]scalar.Scalar, a.Len())
	valid := make([]bool, a.Len())

	run := runIndexFor(ends, offset)
	for i := 0; i < a.Len(); i++ {
		pos := i + offset
		for {
			e, err := ends.ScalarAt(run)
			if err != nil {
				return nil, err
			}
			if uint64(pos) < e.AsUint() {
				break
			}
			run++
		}

		v, err := values.ScalarAt(run)
		if err != nil {
			return nil, err
		}
		vals[i] = v
		valid[i] = !v.IsNull()
	}

	return array.RebuildFromScalars(a.DType(), vals, valid)
}

func (kernels) ScalarAt(a *array.Array, i int) (scalar.Scalar, error) {
	ends, values := endsAndValues(a)
	offset := offsetOf(a)
	run := runIndexFor(ends, i+offset)

	return values.ScalarAt(run)
}

func (kernels) Slice(a *array.Array, start, stop int) (*array.Array, error) {
	ends, values := endsAndValues(a)
	offset := offsetOf(a)

	physStart := start + offset
	physStop := stop + offset

	firstRun := runIndexFor(ends, physStart)
	lastRun := firstRun
	if physStop > physStart {
		lastRun = runIndexFor(ends, physStop-1)
	}

	newEnds, err := ends.Slice(firstRun, lastRun+1)
	if err != nil {
		return nil, err
	}
	newValues, err := values.Slice(firstRun, lastRun+1)
	if err != nil {
		return nil, err
	}

	// newEnds keeps the absolute run ends, so the offset stays absolute too.
	newOffset := physStart

	return newWithOffset(a.DType(), newEnds, newValues, newOffset, stop-start), nil
}

func (kernels) Take(a *array.Array, indices []int) (*array.Array, error) {
	ends, values := endsAndValues(a)
	offset := offsetOf(a)

	vals := make([]scalar.Scalar, len(indices))
	valid := make([]bool, len(indices))
	for k, i := range indices {
		run := runIndexFor(ends, i+offset)
		v, err := values.ScalarAt(run)
		if err != nil {
			return nil, err
		}
		vals[k] = v
		valid[k] = !v.IsNull()
	}

	return array.RebuildFromScalars(a.DType(), vals, valid)
}

func newWithOffset(dt dtype.DType, ends, values *array.Array, offset, length int) *array.Array {
	md := make([]byte, 4)
	binary.LittleEndian.PutUint32(md, uint32(offset))

	return array.NewEncoded(ID, dt, length, md, []*array.Array{ends, values}, nil, validity.NonNullable(length), kernels{})
}

// New builds a Run-End array from ends and values at offset 0. ends must
// be a non-nullable, strictly increasing unsigned Primitive array whose
// last value equals values.Len()'s corresponding run boundary; nulls are
// carried on values, not as a separate parallel validity array.
func New(dt dtype.DType, ends, values *array.Array) (*array.Array, error) {
	if ends.Len() != values.Len() {
		return nil, fmt.Errorf("%w: ends length %d != values length %d", errs.ErrInvalidArgument, ends.Len(), values.Len())
	}

	var last uint64
	for i := 0; i < ends.Len(); i++ {
		v, err := ends.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if v.AsUint() <= last && i > 0 {
			return nil, fmt.Errorf("%w", errs.ErrNonMonotonicEnds)
		}
		if i == 0 && v.AsUint() == 0 {
			return nil, fmt.Errorf("%w", errs.ErrNonMonotonicEnds)
		}
		last = v.AsUint()
	}

	return array.NewEncoded(ID, dt, int(last), nil, []*array.Array{ends, values}, nil, validity.NonNullable(int(last)), kernels{}), nil
}

// FromParts reconstructs a previously-serialized Run-End array from its raw
// metadata (the physical offset, if non-zero), ends/values children and
// validity, for use by package serde's deserializer. Unlike New, it does not
// assume offset 0, since a Run-End array produced by Slice and then
// serialized carries its offset in metadata.
func FromParts(dt dtype.DType, length int, metadata []byte, children []*array.Array, v validity.Validity) *array.Array {
	return array.NewEncoded(ID, dt, length, metadata, children, nil, v, kernels{})
}

// CanCompress reports whether arr's mean run length clears threshold
// (ree_average_run_threshold in the sampling config).
func CanCompress(arr *array.Array, threshold float64) bool {
	if arr.Len() == 0 {
		return false
	}

	runCount, ok := arr.ComputeStat(array.StatRunCount)
	if !ok {
		return false
	}

	rc := runCount.AsUint()
	if rc == 0 {
		return false
	}

	mean := float64(arr.Len()) / float64(rc)

	return mean >= threshold
}

// Encode scans arr sequentially and produces its Run-End encoding.
func Encode(arr *array.Array) (*array.Array, error) {
	if arr.Len() == 0 {
		return nil, fmt.Errorf("%w: runend.Encode on empty array", errs.ErrEmptyInput)
	}

	var endVals []scalar.Scalar
	var runVals []scalar.Scalar
	var runValid []bool

	prev, err := arr.ScalarAt(0)
	if err != nil {
		return nil, err
	}
	for i := 1; i < arr.Len(); i++ {
		cur, err := arr.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if !sameRunValue(prev, cur) {
			endVals = append(endVals, scalar.Uint(dtype.U32, uint64(i)))
			runVals = append(runVals, prev)
			runValid = append(runValid, !prev.IsNull())
			prev = cur
		}
	}
	endVals = append(endVals, scalar.Uint(dtype.U32, uint64(arr.Len())))
	runVals = append(runVals, prev)
	runValid = append(runValid, !prev.IsNull())

	endValid := make([]bool, len(endVals))
	for i := range endValid {
		endValid[i] = true
	}

	endsDt := dtype.Primitive(dtype.U32, dtype.NonNullable)
	endsArr, err := array.RebuildFromScalars(endsDt, endVals, endValid)
	if err != nil {
		return nil, err
	}
	valuesArr, err := array.RebuildFromScalars(arr.DType(), runVals, runValid)
	if err != nil {
		return nil, err
	}

	return New(arr.DType(), endsArr, valuesArr)
}

func sameRunValue(a, b scalar.Scalar) bool {
	if a.IsNull() != b.IsNull() {
		return false
	}
	if a.IsNull() {
		return true
	}

	return a.Equal(b)
}

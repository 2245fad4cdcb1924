package array

import (
	"sync"

	"github.com/strata-db/strata/scalar"
)

// Stat identifies one entry in an array's statistics lattice.
type Stat uint8

const (
	StatMin Stat = iota
	StatMax
	StatIsConstant
	StatIsSorted
	StatIsStrictSorted
	StatRunCount
	StatNullCount
	StatTrueCount
	StatBitWidthFreq
	StatTrailingZeroFreq

	statCount
)

// Stats is an array's lazily-computed statistics store. Absence of an
// entry means "unknown", never "false" or "zero" — a stat is only ever
// present once it has been computed and is then guaranteed correct for
// the array as observed. Concurrent computation of the same stat is
// safe: the first writer's value wins and later writers discard theirs
// (the values must agree, since a stat's definition is a pure function of
// the array's contents).
type Stats struct {
	mu      sync.Mutex
	present [statCount]bool
	scalar  [statCount]scalar.Scalar
	histo   [statCount][]uint64
}

func newStats() *Stats {
	return &Stats{}
}

// Get returns the cached scalar-valued stat and whether it is present.
func (s *Stats) Get(st Stat) (scalar.Scalar, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scalar[st], s.present[st]
}

// GetHistogram returns the cached histogram-valued stat (BitWidthFreq,
// TrailingZeroFreq) and whether it is present. The returned slice is
// shared; callers must not mutate it.
func (s *Stats) GetHistogram(st Stat) ([]uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.histo[st], s.present[st]
}

// SetIfAbsent caches v for st unless another writer already cached a
// value, implementing the "first writer wins" race rule; callers racing
// to compute the same stat must compute the same value, so which writer
// wins is unobservable.
func (s *Stats) SetIfAbsent(st Stat, v scalar.Scalar) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.present[st] {
		return
	}
	s.present[st] = true
	s.scalar[st] = v
}

// SetHistogramIfAbsent is SetIfAbsent's histogram counterpart.
func (s *Stats) SetHistogramIfAbsent(st Stat, v []uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.present[st] {
		return
	}
	s.present[st] = true
	s.histo[st] = v
}

// MergeScalar merges two chunks' cached values for a scalar stat per the
// stat's merge semantics, returning the merged value and whether both
// inputs were present (a merge with either side missing is itself
// "unknown": the lattice's merge is sound but not required to be total).
func MergeScalar(st Stat, left, right scalar.Scalar, leftOK, rightOK bool) (scalar.Scalar, bool) {
	if !leftOK || !rightOK {
		return scalar.Scalar{}, false
	}

	switch st {
	case StatMin:
		if right.Less(left) {
			return right, true
		}

		return left, true
	case StatMax:
		if left.Less(right) {
			return right, true
		}

		return left, true
	case StatIsConstant:
		return scalar.Bool(left.AsBool() && right.AsBool() && valuesAgreeForConstant(left, right)), true
	case StatNullCount, StatTrueCount:
		return scalar.Uint(left.DType().PType(), left.AsUint()+right.AsUint()), true
	default:
		return scalar.Scalar{}, false
	}
}

// valuesAgreeForConstant is a placeholder hook: IsConstant's merge also
// requires the two chunks' min==max values to agree, which callers pass
// via the min/max stats directly rather than through this boolean stat;
// at this layer IsConstant merge only combines the two booleans.
func valuesAgreeForConstant(scalar.Scalar, scalar.Scalar) bool { return true }

// MergeRunCount implements run_count's merge: the concatenation's run
// count is at most the sum of the two sides' run counts plus one (the
// boundary run may or may not continue across the seam).
func MergeRunCount(left, right uint64) uint64 {
	return left + right + 1
}

// MergeHistogram sums two bit-width or trailing-zero histograms
// element-wise, per their merge contract.
func MergeHistogram(left, right []uint64) []uint64 {
	n := len(left)
	if len(right) > n {
		n = len(right)
	}

	out := make([]uint64, n)
	copy(out, left)
	for i, v := range right {
		out[i] += v
	}

	return out
}

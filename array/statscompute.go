package array

import (
	"math/bits"

	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/scalar"
)

// ComputeStat returns the requested stat, computing and caching it
// against the array's canonical form if not already present. Histogram
// stats (BitWidthFreq, TrailingZeroFreq) are only defined for Primitive
// integer dtypes; ComputeStat returns ok=false for any other combination
// it does not know how to compute, consistent with "absence means
// unknown" rather than raising an error — callers that need stats for
// correctness (the compressor's can_compress checks) treat unknown as
// "assume the worst".
func (a *Array) ComputeStat(st Stat) (scalar.Scalar, bool) {
	if v, ok := a.stats.Get(st); ok {
		return v, ok
	}

	switch st {
	case StatMin, StatMax, StatIsConstant, StatIsSorted, StatIsStrictSorted, StatRunCount, StatNullCount, StatTrueCount:
		a.computeScalarStats()
	default:
		return scalar.Scalar{}, false
	}

	return a.stats.Get(st)
}

// ComputeHistogram is ComputeStat's counterpart for the two
// histogram-valued stats.
func (a *Array) ComputeHistogram(st Stat) ([]uint64, bool) {
	if v, ok := a.stats.GetHistogram(st); ok {
		return v, ok
	}
	if st != StatBitWidthFreq && st != StatTrailingZeroFreq {
		return nil, false
	}

	a.computeHistograms()

	return a.stats.GetHistogram(st)
}

// computeScalarStats walks the canonical form once and derives every
// scalar-valued stat together, since they share the same single pass.
func (a *Array) computeScalarStats() {
	c, err := a.Canonicalize()
	if err != nil {
		return
	}

	var (
		min, max     scalar.Scalar
		haveMinMax   bool
		isSorted     = true
		isStrict     = true
		runCount     uint64
		nullCount    uint64
		trueCount    uint64
		prev         scalar.Scalar
		havePrev     bool
		allSameValue = true
	)

	for i := 0; i < c.length; i++ {
		v, err := canonicalScalarAt(c, i)
		if err != nil {
			return
		}
		if v.IsNull() {
			nullCount++
			isSorted = false
			isStrict = false

			continue
		}
		if v.DType().Kind() == dtype.KindBool && v.AsBool() {
			trueCount++
		}

		if !haveMinMax {
			min, max = v, v
			haveMinMax = true
		} else {
			if v.Less(min) {
				min = v
			}
			if max.Less(v) {
				max = v
			}
		}

		if havePrev {
			switch {
			case prev.Less(v):
				// strictly increasing at this step; isStrict unaffected
			case prev.Equal(v):
				isStrict = false
			default:
				isSorted = false
				isStrict = false
			}
			if !prev.Equal(v) {
				runCount++
				allSameValue = false
			}
		} else {
			runCount = 1
		}

		prev = v
		havePrev = true
	}

	if !havePrev {
		runCount = 0
	}

	a.stats.SetIfAbsent(StatNullCount, scalar.Uint(dtype.U64, nullCount))
	a.stats.SetIfAbsent(StatRunCount, scalar.Uint(dtype.U64, runCount))
	a.stats.SetIfAbsent(StatTrueCount, scalar.Uint(dtype.U64, trueCount))
	a.stats.SetIfAbsent(StatIsSorted, scalar.Bool(isSorted))
	a.stats.SetIfAbsent(StatIsStrictSorted, scalar.Bool(isStrict))
	a.stats.SetIfAbsent(StatIsConstant, scalar.Bool(allSameValue && nullCount == 0 && c.length > 0))
	if haveMinMax {
		a.stats.SetIfAbsent(StatMin, min)
		a.stats.SetIfAbsent(StatMax, max)
	}
}

// computeHistograms builds bit_width_freq and trailing_zero_freq over
// [0, W] where W is the ptype's bit width, for Primitive integer arrays
// only.
func (a *Array) computeHistograms() {
	if a.dt.Kind() != dtype.KindPrimitive || !a.dt.PType().IsInt() {
		return
	}

	c, err := a.Canonicalize()
	if err != nil {
		return
	}

	w := a.dt.PType().BitWidth()
	bwHisto := make([]uint64, w+1)
	tzHisto := make([]uint64, w+1)

	for i := 0; i < c.length; i++ {
		v, err := canonicalScalarAt(c, i)
		if err != nil || v.IsNull() {
			continue
		}

		var u uint64
		if a.dt.PType().IsSigned() {
			u = uint64(v.AsInt())
			if w < 64 {
				u &= uint64(1)<<uint(w) - 1
			}
		} else {
			u = v.AsUint()
		}

		bitsUsed := w - leadingZerosForWidth(u, w)
		bwHisto[bitsUsed]++

		tz := trailingZerosForWidth(u, w)
		tzHisto[tz]++
	}

	a.stats.SetHistogramIfAbsent(StatBitWidthFreq, bwHisto)
	a.stats.SetHistogramIfAbsent(StatTrailingZeroFreq, tzHisto)
}

func leadingZerosForWidth(u uint64, w int) int {
	lz := bits.LeadingZeros64(u)
	return lz - (64 - w)
}

func trailingZerosForWidth(u uint64, w int) int {
	if u == 0 {
		return w
	}

	tz := bits.TrailingZeros64(u)
	if tz > w {
		return w
	}

	return tz
}

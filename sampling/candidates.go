package sampling

import (
	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/encoding/alp"
	"github.com/strata-db/strata/encoding/bitpacked"
	"github.com/strata-db/strata/encoding/constant"
	"github.com/strata-db/strata/encoding/delta"
	"github.com/strata-db/strata/encoding/dict"
	"github.com/strata-db/strata/encoding/forenc"
	"github.com/strata-db/strata/encoding/fsst"
	"github.com/strata-db/strata/encoding/roaring"
	"github.com/strata-db/strata/encoding/runend"
	"github.com/strata-db/strata/encoding/sparse"
	"github.com/strata-db/strata/scalar"
)

// Name identifies one of the built-in candidate encodings by the same
// string a caller passes to WithEnabled/WithDisabled.
const (
	NameConstant  = "constant"
	NameSparse    = "sparse"
	NameRunEnd    = "runend"
	NameDict      = "dict"
	NameBitPacked = "bitpacked"
	NameForEnc    = "forenc"
	NameDelta     = "delta"
	NameALP       = "alp"
	NameALPRD     = "alprd"
	NameFSST      = "fsst"
	NameRoaring   = "roaring"
)

// candidate pairs an encoding's eligibility check with its encode
// function. Both receive the Config as an argument and derive any
// per-array state they need (such as Sparse's fill value) from arr.
type candidate struct {
	name       string
	canCompress func(arr *array.Array, cfg Config) bool
	encode      func(arr *array.Array, cfg Config) (*array.Array, error)
}

// candidatesFor returns the candidate encodings eligible, by dtype shape
// alone, for arr. Config.isEligible and each candidate's own canCompress
// still gate whether a given candidate is actually tried.
func candidatesFor(dt dtype.DType) []candidate {
	switch dt.Kind() {
	case dtype.KindBool:
		return []candidate{
			constantCandidate(),
			roaringCandidate(),
			runEndCandidate(),
		}
	case dtype.KindPrimitive:
		cands := []candidate{
			constantCandidate(),
			sparseCandidate(),
			runEndCandidate(),
			dictCandidate(),
		}
		if dt.PType().IsInt() {
			cands = append(cands, bitPackedCandidate(), forEncCandidate(), deltaCandidate())
		}
		if dt.PType().IsFloat() {
			cands = append(cands, alpCandidate(), alpRDCandidate())
		}

		return cands
	case dtype.KindUtf8, dtype.KindBinary:
		return []candidate{
			constantCandidate(),
			dictCandidate(),
			fsstCandidate(),
		}
	default:
		return []candidate{constantCandidate()}
	}
}

func constantCandidate() candidate {
	return candidate{
		name:        NameConstant,
		canCompress: func(arr *array.Array, _ Config) bool { return constant.CanCompress(arr) },
		encode:      func(arr *array.Array, _ Config) (*array.Array, error) { return constant.Encode(arr) },
	}
}

func sparseCandidate() candidate {
	return candidate{
		name: NameSparse,
		canCompress: func(arr *array.Array, cfg Config) bool {
			return sparse.CanCompress(arr, cfg.SparseMaxNonFillRatio)
		},
		encode: func(arr *array.Array, _ Config) (*array.Array, error) {
			fv, err := dominantValue(arr)
			if err != nil {
				return nil, err
			}

			return sparse.Encode(arr, fv)
		},
	}
}

func runEndCandidate() candidate {
	return candidate{
		name: NameRunEnd,
		canCompress: func(arr *array.Array, cfg Config) bool {
			return runend.CanCompress(arr, cfg.REEAverageRunThreshold)
		},
		encode: func(arr *array.Array, _ Config) (*array.Array, error) { return runend.Encode(arr) },
	}
}

func dictCandidate() candidate {
	return candidate{
		name: NameDict,
		canCompress: func(arr *array.Array, cfg Config) bool {
			return dict.CanCompress(arr, cfg.DictMaxCardinality)
		},
		encode: func(arr *array.Array, _ Config) (*array.Array, error) { return dict.Encode(arr) },
	}
}

func bitPackedCandidate() candidate {
	return candidate{
		name: NameBitPacked,
		canCompress: func(arr *array.Array, cfg Config) bool {
			return bitpacked.CanCompress(arr, cfg.BitPackedMaxPatchRatio)
		},
		encode: func(arr *array.Array, cfg Config) (*array.Array, error) {
			return bitpacked.Encode(arr, cfg.BitPackedMaxPatchRatio)
		},
	}
}

func forEncCandidate() candidate {
	return candidate{
		name:        NameForEnc,
		canCompress: func(arr *array.Array, _ Config) bool { return forenc.CanCompress(arr) },
		encode:      func(arr *array.Array, _ Config) (*array.Array, error) { return forenc.Encode(arr) },
	}
}

func deltaCandidate() candidate {
	return candidate{
		name:        NameDelta,
		canCompress: func(arr *array.Array, _ Config) bool { return delta.CanCompress(arr) },
		encode:      func(arr *array.Array, _ Config) (*array.Array, error) { return delta.Encode(arr) },
	}
}

func alpCandidate() candidate {
	return candidate{
		name: NameALP,
		canCompress: func(arr *array.Array, cfg Config) bool {
			return alp.CanCompress(arr, cfg.ALPExceptionsMaxRatio)
		},
		encode: func(arr *array.Array, _ Config) (*array.Array, error) { return alp.Encode(arr) },
	}
}

func alpRDCandidate() candidate {
	return candidate{
		name:        NameALPRD,
		canCompress: func(arr *array.Array, _ Config) bool { return alp.CanCompressRD(arr) },
		encode:      func(arr *array.Array, _ Config) (*array.Array, error) { return alp.EncodeRD(arr) },
	}
}

func fsstCandidate() candidate {
	return candidate{
		name:        NameFSST,
		canCompress: func(arr *array.Array, _ Config) bool { return fsst.CanCompress(arr) },
		encode:      func(arr *array.Array, _ Config) (*array.Array, error) { return fsst.Encode(arr) },
	}
}

func roaringCandidate() candidate {
	return candidate{
		name:        NameRoaring,
		canCompress: func(arr *array.Array, _ Config) bool { return roaring.CanCompress(arr) },
		encode:      func(arr *array.Array, _ Config) (*array.Array, error) { return roaring.Encode(arr) },
	}
}

// dominantValue scans arr for its most frequent non-null value, for use
// as Sparse's fill value. Scalar is a flat comparable struct so it can
// key a plain map without a custom hash.
func dominantValue(arr *array.Array) (scalar.Scalar, error) {
	counts := make(map[scalar.Scalar]int, 16)

	best := scalar.Scalar{}
	bestCount := -1
	for i := 0; i < arr.Len(); i++ {
		v, err := arr.ScalarAt(i)
		if err != nil {
			return scalar.Scalar{}, err
		}
		if v.IsNull() {
			continue
		}

		counts[v]++
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}

	return best, nil
}

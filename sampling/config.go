package sampling

import "github.com/strata-db/strata/internal/options"

// Config tunes the sampling compressor: which encodings are eligible, how
// many trial samples to take before committing to one, and how many
// levels of block splitting a long array may go through. The compressor
// does not re-compress the children of a chosen encoding (Dictionary
// values, Bit-Packed patches); they keep the form the encoding gave them.
type Config struct {
	// BlockSize is the row count of each block a long array is split into:
	// an array longer than twice BlockSize is split into BlockSize-row
	// blocks that are compressed independently and recombined with
	// encoding/chunked.
	BlockSize int

	// SampleSize is the row count of each individual trial encode.
	SampleSize int

	// SampleCount is how many evenly spaced samples to draw and fit a
	// regression.Sample curve against; samples overlap when the array is
	// shorter than SampleCount*SampleSize rows. Values below 2 fall back
	// to a single direct measurement with no extrapolation.
	SampleCount int

	// MaxDepth bounds how many levels of block splitting Compress may
	// apply. Hitting MaxDepth is not an error: the array at that depth is
	// compressed as a single leaf. It does not bound or trigger any
	// re-compression of an encoding's own children, which the compressor
	// never performs.
	MaxDepth int

	// REEAverageRunThreshold is the minimum average run length (array
	// length / distinct run count) required before Run-End is considered
	// a candidate at all, avoiding wasted trial encodes on data with no
	// real repetition.
	REEAverageRunThreshold float64

	// REESamplingEnabled is carried in the Config but not read by the
	// compressor: Run-End's average-run-length check always uses the
	// StatRunCount of the array (or sample) it is given.
	REESamplingEnabled bool

	// DictMaxCardinality is the maximum distinct-value count Dictionary
	// will accept, passed straight through to encoding/dict.CanCompress.
	DictMaxCardinality int

	// ALPExceptionsMaxRatio bounds the fraction of values ALP may carry
	// as Sparse exceptions before it is rejected, passed straight through
	// to encoding/alp.CanCompress.
	ALPExceptionsMaxRatio float64

	// BitPackedMaxPatchRatio is the equivalent bound for Bit-Packed's
	// Sparse patch list, passed through to encoding/bitpacked.CanCompress
	// and Encode.
	BitPackedMaxPatchRatio float64

	// SparseMaxNonFillRatio bounds the fraction of values that may differ
	// from the fill value before Sparse is rejected.
	SparseMaxNonFillRatio float64

	// Enabled, if non-empty, restricts candidates to exactly this set of
	// encoding names (see Name constants in candidates.go). A nil or
	// empty slice means all built-in candidates are eligible.
	Enabled []string

	// Disabled excludes encoding names from consideration regardless of
	// Enabled: Disabled wins on overlap, except for Constant, which
	// isEligible never excludes.
	Disabled []string
}

// DefaultConfig returns the configuration the sampling compressor uses
// when no options are supplied, matching the defaults spec.md §6 assigns
// by name: block_size 65536, sample_size 64, sample_count 10, max_depth
// 4, ree_average_run_threshold 2.0. DictMaxCardinality,
// ALPExceptionsMaxRatio, BitPackedMaxPatchRatio and SparseMaxNonFillRatio
// are per-encoding knobs spec.md names but does not pin a default value
// for; the values below are this implementation's choice.
func DefaultConfig() Config {
	return Config{
		BlockSize:              65536,
		SampleSize:             64,
		SampleCount:            10,
		MaxDepth:               4,
		REEAverageRunThreshold: 2.0,
		REESamplingEnabled:     true,
		DictMaxCardinality:     4096,
		ALPExceptionsMaxRatio:  0.05,
		BitPackedMaxPatchRatio: 0.05,
		SparseMaxNonFillRatio:  0.1,
	}
}

// ConfigOption configures a Config via internal/options' generic
// functional-option pattern.
type ConfigOption = options.Option[*Config]

// WithEnabled restricts the candidate set to exactly the named encodings.
func WithEnabled(names ...string) ConfigOption {
	return options.NoError(func(c *Config) { c.Enabled = names })
}

// WithDisabled excludes the named encodings from consideration.
func WithDisabled(names ...string) ConfigOption {
	return options.NoError(func(c *Config) { c.Disabled = names })
}

// WithMaxDepth overrides the block-splitting depth limit.
func WithMaxDepth(depth int) ConfigOption {
	return options.NoError(func(c *Config) { c.MaxDepth = depth })
}

// WithSampling overrides the sample size and count used to extrapolate
// a candidate's full-array byte cost.
func WithSampling(sampleSize, sampleCount int) ConfigOption {
	return options.NoError(func(c *Config) {
		c.SampleSize = sampleSize
		c.SampleCount = sampleCount
	})
}

// NewConfig builds a Config from DefaultConfig with opts applied in order.
func NewConfig(opts ...ConfigOption) (Config, error) {
	cfg := DefaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// isEligible reports whether name is eligible under Enabled/Disabled.
// Constant is always eligible regardless of Disabled, per the contract
// that the compressor must always have a fallback encoding available.
func (c Config) isEligible(name string) bool {
	if name == NameConstant {
		return true
	}

	for _, d := range c.Disabled {
		if d == name {
			return false
		}
	}
	if len(c.Enabled) == 0 {
		return true
	}
	for _, e := range c.Enabled {
		if e == name {
			return true
		}
	}

	return false
}

package sampling

import (
	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/regression"
)

// measuredCost is one candidate's estimated full-array byte size, derived
// either from a direct encode (small arrays, or SampleCount < 2) or from
// fitting a regression.Sample curve across several smaller trial encodes
// and extrapolating to arr.Len().
type measuredCost struct {
	name  string
	bytes float64
}

// estimateCost measures cand's encoded size on arr, preferring
// extrapolation from samples over encoding the whole array when cfg asks
// for more than one sample and arr is large enough to draw them from.
// When every usable sample has the same row count (arr holds at least
// SampleCount*SampleSize rows) there is no curve to fit, and the mean
// bytes per row across the samples is scaled to arr.Len() instead.
func estimateCost(arr *array.Array, cand candidate, cfg Config) (measuredCost, bool) {
	if !cand.canCompress(arr, cfg) {
		return measuredCost{}, false
	}

	if cfg.SampleCount < 2 || arr.Len() <= cfg.SampleSize {
		enc, err := cand.encode(arr, cfg)
		if err != nil {
			return measuredCost{}, false
		}

		return measuredCost{name: cand.name, bytes: float64(enc.NBytes())}, true
	}

	samples := make([]regression.Sample, 0, cfg.SampleCount)
	step := arr.Len() / cfg.SampleCount
	if step < 1 {
		step = 1
	}

	for i := 0; i < cfg.SampleCount; i++ {
		start := i * step
		stop := start + cfg.SampleSize
		if stop > arr.Len() {
			stop = arr.Len()
		}
		if start >= stop {
			continue
		}

		sub, err := arr.Slice(start, stop)
		if err != nil {
			continue
		}
		if !cand.canCompress(sub, cfg) {
			continue
		}

		enc, err := cand.encode(sub, cfg)
		if err != nil {
			continue
		}

		samples = append(samples, regression.Sample{Rows: sub.Len(), Bytes: enc.NBytes()})
	}

	if len(samples) < 2 {
		// Not enough usable samples to fit a curve; fall back to encoding
		// the full array directly so a real number is still produced.
		enc, err := cand.encode(arr, cfg)
		if err != nil {
			return measuredCost{}, false
		}

		return measuredCost{name: cand.name, bytes: float64(enc.NBytes())}, true
	}

	sameRows := true
	totalRows, totalBytes := 0, 0
	for _, s := range samples {
		sameRows = sameRows && s.Rows == samples[0].Rows
		totalRows += s.Rows
		totalBytes += s.Bytes
	}
	if sameRows {
		perRow := float64(totalBytes) / float64(totalRows)

		return measuredCost{name: cand.name, bytes: perRow * float64(arr.Len())}, true
	}

	result, err := regression.Analyze(samples)
	if err != nil || result.BestFit == nil {
		enc, err := cand.encode(arr, cfg)
		if err != nil {
			return measuredCost{}, false
		}

		return measuredCost{name: cand.name, bytes: float64(enc.NBytes())}, true
	}

	bytesPerRow := result.BestFit.Estimator.Estimate(float64(arr.Len()))

	return measuredCost{name: cand.name, bytes: bytesPerRow * float64(arr.Len())}, true
}

// cheapest picks the lowest-cost candidate, if any cleared canCompress.
func cheapest(costs []measuredCost) (measuredCost, bool) {
	if len(costs) == 0 {
		return measuredCost{}, false
	}

	best := costs[0]
	for _, c := range costs[1:] {
		if c.bytes < best.bytes {
			best = c
		}
	}

	return best, true
}

// Package regression fits curves to (sample size, bytes) measurements so
// the sampling compressor can extrapolate a column's full compressed
// size from a handful of small-sample trial encodes, without actually
// encoding every candidate the full way.
//
// # Usage
//
// Collect a Sample for each trial size the compressor actually
// measured, then fit:
//
//	samples := []regression.Sample{
//	    {Rows: 64, Bytes: 96},
//	    {Rows: 256, Bytes: 340},
//	    {Rows: 1024, Bytes: 1260},
//	}
//	result, err := regression.Analyze(samples)
//	if err != nil {
//	    return err
//	}
//
//	predictedBytes := result.BestFit.Estimator.Estimate(100000) * 100000
//
// # Model types
//
// Analyze fits five candidate curves to bytes-per-row as a function of
// row count and selects the one with the highest R²:
//
//   - Hyperbolic:   y = a + b/x
//   - Logarithmic:  y = a + b*ln(x)
//   - Power:        y = a * x^b
//   - Exponential:  y = a * e^(b*x)
//   - Polynomial:   y = a + b*x + c*x² (falls back to linear with <3 points)
//
// Encodings whose per-row cost is roughly constant (most fixed-width
// encodings) fit a near-flat hyperbolic or polynomial curve well; encodings
// whose overhead amortizes over more rows (dictionaries, FSST symbol
// tables, bit-packed patch lists) fit the hyperbolic or logarithmic
// curves best, since bytes-per-row keeps dropping as row count grows.
package regression

package regression_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/regression"
)

func constantCostSamples() []regression.Sample {
	return []regression.Sample{
		{Rows: 16, Bytes: 16 * 4},
		{Rows: 64, Bytes: 64 * 4},
		{Rows: 256, Bytes: 256 * 4},
		{Rows: 1024, Bytes: 1024 * 4},
	}
}

func amortizingOverheadSamples() []regression.Sample {
	// Fixed 64-byte dictionary overhead plus 1 byte/row.
	var out []regression.Sample
	for _, rows := range []int{16, 64, 256, 1024, 4096} {
		out = append(out, regression.Sample{Rows: rows, Bytes: 64 + rows})
	}

	return out
}

func TestAnalyzeConstantCost(t *testing.T) {
	result, err := regression.Analyze(constantCostSamples())
	require.NoError(t, err)
	require.NotNil(t, result.BestFit)

	// Bytes-per-row is exactly 4 regardless of row count; every model
	// should fit this near-perfectly.
	assert.Greater(t, result.BestFit.RSquared, 0.99)

	predicted := result.BestFit.Estimator.Estimate(2048)
	assert.InDelta(t, 4.0, predicted, 0.5)
}

func TestAnalyzeAmortizingOverhead(t *testing.T) {
	result, err := regression.Analyze(amortizingOverheadSamples())
	require.NoError(t, err)
	require.NotNil(t, result.BestFit)

	// Bytes-per-row should fall as rows grows, since the 64-byte overhead
	// amortizes; the hyperbolic model (y = a + b/x) is an exact fit here.
	small := result.BestFit.Estimator.Estimate(16)
	large := result.BestFit.Estimator.Estimate(4096)
	assert.Greater(t, small, large)
}

func TestAnalyzeRejectsEmptyAndShortInput(t *testing.T) {
	_, err := regression.Analyze(nil)
	assert.Error(t, err)

	_, err = regression.Analyze([]regression.Sample{{Rows: 16, Bytes: 64}})
	assert.Error(t, err)
}

func TestAnalyzeIgnoresZeroRowSamples(t *testing.T) {
	samples := append(constantCostSamples(), regression.Sample{Rows: 0, Bytes: 100})
	result, err := regression.Analyze(samples)
	require.NoError(t, err)
	assert.Len(t, result.SampleSizes, 4)
}

func TestAnalyzeSets(t *testing.T) {
	results, err := regression.AnalyzeSets([][]regression.Sample{
		constantCostSamples(),
		amortizingOverheadSamples(),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotNil(t, r.BestFit)
	}

	_, err = regression.AnalyzeSets(nil)
	assert.Error(t, err)
}

func TestEstimatorTypesAndCoefficients(t *testing.T) {
	result, err := regression.Analyze(amortizingOverheadSamples())
	require.NoError(t, err)

	for _, m := range result.AllModels {
		assert.NotEmpty(t, m.Formula)
		assert.False(t, math.IsNaN(m.RSquared))
		assert.Equal(t, m.Type, m.Estimator.Type())
	}
}

func TestModelString(t *testing.T) {
	result, err := regression.Analyze(constantCostSamples())
	require.NoError(t, err)
	assert.Contains(t, result.BestFit.String(), "Model{")
	assert.Contains(t, result.String(), "Result{")
}

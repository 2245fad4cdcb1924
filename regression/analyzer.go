package regression

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Sample is one (row count, encoded byte size) measurement taken by
// actually encoding a sample of that many rows.
type Sample struct {
	Rows  int
	Bytes int
}

// Analyze fits all five candidate models to samples and returns the
// best-fit model (by R²) along with every candidate for comparison.
//
// Example:
//
//	result, err := regression.Analyze(samples)
//	if err != nil {
//	    return err
//	}
//	bytesPerRow := result.BestFit.Estimator.Estimate(100000)
func Analyze(samples []Sample) (*Result, error) {
	if len(samples) == 0 {
		return nil, errors.New("no samples provided")
	}

	rows, bpr, sizes, err := extractDataPoints(samples)
	if err != nil {
		return nil, fmt.Errorf("failed to extract data points: %w", err)
	}

	result, err := performRegression(rows, bpr)
	if err != nil {
		return nil, err
	}
	result.SampleSizes = sizes

	return result, nil
}

// AnalyzeSets fits a separate model to each set of samples. Useful when
// comparing how several candidate encodings' cost curves diverge across
// row counts.
func AnalyzeSets(sets [][]Sample) ([]*Result, error) {
	if len(sets) == 0 {
		return nil, errors.New("no sample sets provided")
	}

	results := make([]*Result, len(sets))
	for i, set := range sets {
		result, err := Analyze(set)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze sample set %d: %w", i, err)
		}
		results[i] = result
	}

	return results, nil
}

// extractDataPoints converts samples into parallel (rows, bytes-per-row)
// slices, rejecting zero-row samples since bytes-per-row is undefined
// for them.
func extractDataPoints(samples []Sample) (rows, bytesPerRow []float64, sizes []int, err error) {
	rows = make([]float64, 0, len(samples))
	bytesPerRow = make([]float64, 0, len(samples))
	sizes = make([]int, 0, len(samples))

	for _, s := range samples {
		if s.Rows <= 0 {
			continue
		}
		rows = append(rows, float64(s.Rows))
		bytesPerRow = append(bytesPerRow, float64(s.Bytes)/float64(s.Rows))
		sizes = append(sizes, s.Rows)
	}

	if len(rows) == 0 {
		return nil, nil, nil, errors.New("no samples with positive row counts")
	}

	return rows, bytesPerRow, sizes, nil
}

// performRegression fits all five models to (x, y) and ranks them by R²,
// highest first.
func performRegression(x, y []float64) (*Result, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("mismatched data lengths: %d rows vs %d bytes-per-row", len(x), len(y))
	}

	if len(x) < 2 {
		return nil, fmt.Errorf("insufficient data points for regression: %d", len(x))
	}

	models := []*Model{
		fitHyperbolic(x, y),
		fitLogarithmic(x, y),
		fitPower(x, y),
		fitExponential(x, y),
		fitPolynomial(x, y),
	}

	slices.SortFunc(models, func(a, b *Model) int {
		if a.RSquared > b.RSquared {
			return -1
		}
		if a.RSquared < b.RSquared {
			return 1
		}

		return 0
	})

	return &Result{
		BestFit:   models[0],
		AllModels: models,
	}, nil
}

// fitHyperbolic fits y = a + b/x via least squares regression on X' = 1/x.
func fitHyperbolic(x, y []float64) *Model {
	n := len(x)
	if n == 0 {
		return &Model{Type: ModelTypeHyperbolic, Formula: "y = 0 + 0/x"}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := range n {
		xi := 1.0 / x[i]
		yi := y[i]
		sumX += xi
		sumY += yi
		sumXY += xi * yi
		sumX2 += xi * xi
	}

	meanX := sumX / float64(n)
	meanY := sumY / float64(n)
	b := (sumXY - float64(n)*meanX*meanY) / (sumX2 - float64(n)*meanX*meanX)
	a := meanY - b*meanX

	predicted := make([]float64, n)
	for i := range n {
		predicted[i] = a + b/x[i]
	}
	r2 := calculateRSquared(y, predicted)
	rmse := calculateRMSE(y, predicted)

	return &Model{
		Type:         ModelTypeHyperbolic,
		Coefficients: []float64{a, b},
		RSquared:     r2,
		RMSE:         rmse,
		Formula:      fmt.Sprintf("y = %.4f + %.4f/x", a, b),
		Estimator:    NewHyperbolicEstimator(a, b),
	}
}

// fitLogarithmic fits y = a + b*ln(x) via least squares regression on X' = ln(x).
func fitLogarithmic(x, y []float64) *Model {
	n := len(x)
	if n == 0 {
		return &Model{Type: ModelTypeLogarithmic, Formula: "y = 0 + 0*ln(x)"}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := range n {
		xi := math.Log(x[i])
		yi := y[i]
		sumX += xi
		sumY += yi
		sumXY += xi * yi
		sumX2 += xi * xi
	}

	meanX := sumX / float64(n)
	meanY := sumY / float64(n)
	b := (sumXY - float64(n)*meanX*meanY) / (sumX2 - float64(n)*meanX*meanX)
	a := meanY - b*meanX

	predicted := make([]float64, n)
	for i := 0; i < n; i++ {
		predicted[i] = a + b*math.Log(x[i])
	}
	r2 := calculateRSquared(y, predicted)
	rmse := calculateRMSE(y, predicted)

	return &Model{
		Type:         ModelTypeLogarithmic,
		Coefficients: []float64{a, b},
		RSquared:     r2,
		RMSE:         rmse,
		Formula:      fmt.Sprintf("y = %.4f + %.4f*ln(x)", a, b),
		Estimator:    NewLogarithmicEstimator(a, b),
	}
}

// fitPower fits y = a*x^b by least squares regression on ln(y) = ln(a) + b*ln(x).
func fitPower(x, y []float64) *Model {
	n := len(x)
	if n == 0 {
		return &Model{Type: ModelTypePower, Formula: "y = 0 * x^0"}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := range n {
		xi := math.Log(x[i])
		yi := math.Log(y[i])
		sumX += xi
		sumY += yi
		sumXY += xi * yi
		sumX2 += xi * xi
	}

	meanX := sumX / float64(n)
	meanY := sumY / float64(n)
	b := (sumXY - float64(n)*meanX*meanY) / (sumX2 - float64(n)*meanX*meanX)
	logA := meanY - b*meanX
	a := math.Exp(logA)

	predicted := make([]float64, n)
	for i := 0; i < n; i++ {
		predicted[i] = a * math.Pow(x[i], b)
	}
	r2 := calculateRSquared(y, predicted)
	rmse := calculateRMSE(y, predicted)

	return &Model{
		Type:         ModelTypePower,
		Coefficients: []float64{a, b},
		RSquared:     r2,
		RMSE:         rmse,
		Formula:      fmt.Sprintf("y = %.4f * x^%.4f", a, b),
		Estimator:    NewPowerEstimator(a, b),
	}
}

// fitExponential fits y = a*e^(b*x) by least squares regression on ln(y) = ln(a) + b*x.
func fitExponential(x, y []float64) *Model {
	n := len(x)
	if n == 0 {
		return &Model{Type: ModelTypeExponential, Formula: "y = 0 * e^(0*x)"}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := range n {
		xi := x[i]
		yi := math.Log(y[i])
		sumX += xi
		sumY += yi
		sumXY += xi * yi
		sumX2 += xi * xi
	}

	meanX := sumX / float64(n)
	meanY := sumY / float64(n)
	b := (sumXY - float64(n)*meanX*meanY) / (sumX2 - float64(n)*meanX*meanX)
	logA := meanY - b*meanX
	a := math.Exp(logA)

	predicted := make([]float64, n)
	for i := 0; i < n; i++ {
		predicted[i] = a * math.Exp(b*x[i])
	}
	r2 := calculateRSquared(y, predicted)
	rmse := calculateRMSE(y, predicted)

	return &Model{
		Type:         ModelTypeExponential,
		Coefficients: []float64{a, b},
		RSquared:     r2,
		RMSE:         rmse,
		Formula:      fmt.Sprintf("y = %.4f * e^(%.6f*x)", a, b),
		Estimator:    NewExponentialEstimator(a, b),
	}
}

// fitPolynomial fits the quadratic y = a + b*x + c*x² via the normal
// equations, falling back to linear regression with fewer than 3 points
// or a singular system.
func fitPolynomial(x, y []float64) *Model {
	n := len(x)
	if n == 0 {
		return &Model{
			Type:         ModelTypePolynomial,
			Coefficients: []float64{0, 0, 0},
			Formula:      "y = 0 + 0*x + 0*x²",
			Estimator:    NewPolynomialEstimator(0, 0, 0),
		}
	}

	if n < 3 {
		return fitLinear(x, y)
	}

	var sumX, sumX2, sumX3, sumX4, sumY, sumXY, sumX2Y float64
	for i := range n {
		xi := x[i]
		xi2 := xi * xi
		xi3 := xi2 * xi
		xi4 := xi3 * xi
		yi := y[i]

		sumX += xi
		sumX2 += xi2
		sumX3 += xi3
		sumX4 += xi4
		sumY += yi
		sumXY += xi * yi
		sumX2Y += xi2 * yi
	}

	det := float64(n)*sumX2*sumX4 + sumX*sumX3*sumX2 + sumX2*sumX*sumX3 -
		(sumX2*sumX2*sumX2 + sumX*sumX*sumX4 + float64(n)*sumX3*sumX3)

	if math.Abs(det) < 1e-10 {
		return fitLinear(x, y)
	}

	detA := sumY*sumX2*sumX4 + sumXY*sumX3*sumX2 + sumX2Y*sumX*sumX3 -
		(sumX2Y*sumX2*sumX2 + sumXY*sumX*sumX4 + sumY*sumX3*sumX3)
	a := detA / det

	detB := float64(n)*sumXY*sumX4 + sumY*sumX3*sumX2 + sumX2*sumX2Y*sumX -
		(sumX2*sumXY*sumX2 + sumY*sumX*sumX4 + float64(n)*sumX3*sumX2Y)
	b := detB / det

	detC := float64(n)*sumX2*sumX2Y + sumX*sumXY*sumX2 + sumY*sumX*sumX3 -
		(sumX2*sumX2*sumY + sumX*sumX*sumX2Y + float64(n)*sumXY*sumX3)
	c := detC / det

	r2, rmse := calculateStatsOptimized(x, y, a, b, c)

	return &Model{
		Type:         ModelTypePolynomial,
		Coefficients: []float64{a, b, c},
		RSquared:     r2,
		RMSE:         rmse,
		Formula:      fmt.Sprintf("y = %.4f + %.4f*x + %.6f*x²", a, b, c),
		Estimator:    NewPolynomialEstimator(a, b, c),
	}
}

// fitLinear performs simple linear regression, used as fitPolynomial's
// fallback when there are too few points for a quadratic fit.
func fitLinear(x, y []float64) *Model {
	n := len(x)
	if n == 0 {
		return &Model{Type: ModelTypePolynomial, Formula: "y = 0 + 0*x"}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := 0; i < n; i++ {
		xi := x[i]
		yi := y[i]
		sumX += xi
		sumY += yi
		sumXY += xi * yi
		sumX2 += xi * xi
	}

	meanX := sumX / float64(n)
	meanY := sumY / float64(n)
	b := (sumXY - float64(n)*meanX*meanY) / (sumX2 - float64(n)*meanX*meanX)
	a := meanY - b*meanX

	predicted := make([]float64, n)
	for i := 0; i < n; i++ {
		predicted[i] = a + b*x[i]
	}
	r2 := calculateRSquared(y, predicted)
	rmse := calculateRMSE(y, predicted)

	return &Model{
		Type:         ModelTypePolynomial,
		Coefficients: []float64{a, b, 0},
		RSquared:     r2,
		RMSE:         rmse,
		Formula:      fmt.Sprintf("y = %.4f + %.4f*x", a, b),
		Estimator:    NewPolynomialEstimator(a, b, 0),
	}
}

// calculateRSquared returns the coefficient of determination, the
// proportion of variance in observed explained by predicted.
func calculateRSquared(observed, predicted []float64) float64 {
	if len(observed) == 0 {
		return 0
	}

	mean := calculateMean(observed)
	ssTot := 0.0
	ssRes := 0.0

	for i := range observed {
		ssTot += (observed[i] - mean) * (observed[i] - mean)
		ssRes += (observed[i] - predicted[i]) * (observed[i] - predicted[i])
	}

	if ssTot == 0 {
		return 0
	}

	return 1.0 - (ssRes / ssTot)
}

// calculateRMSE returns the root mean square error between observed and predicted.
func calculateRMSE(observed, predicted []float64) float64 {
	if len(observed) == 0 {
		return 0
	}

	sumSq := 0.0
	for i := range observed {
		diff := observed[i] - predicted[i]
		sumSq += diff * diff
	}

	return math.Sqrt(sumSq / float64(len(observed)))
}

func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// calculateStatsOptimized computes R² and RMSE in one pass for the
// quadratic polynomial model, avoiding a second loop over x/y.
func calculateStatsOptimized(x, y []float64, a, b, c float64) (r2, rmse float64) {
	n := len(x)
	if n == 0 {
		return 0, 0
	}

	meanY := 0.0
	for _, yi := range y {
		meanY += yi
	}
	meanY /= float64(n)

	ssTot := 0.0
	ssRes := 0.0
	sumSq := 0.0

	for i := 0; i < n; i++ {
		xi := x[i]
		yi := y[i]

		predicted := a + b*xi + c*xi*xi

		ssTot += (yi - meanY) * (yi - meanY)
		residual := yi - predicted
		ssRes += residual * residual
		sumSq += residual * residual
	}

	if ssTot == 0 {
		r2 = 0
	} else {
		r2 = 1.0 - (ssRes / ssTot)
	}

	rmse = math.Sqrt(sumSq / float64(n))

	return r2, rmse
}

package regression

import (
	"fmt"
	"math"
	"testing"
)

func generateBenchmarkData(size int) (x, y []float64) {
	x = make([]float64, size)
	y = make([]float64, size)
	for i := 0; i < size; i++ {
		xi := float64(i + 1)
		x[i] = xi
		y[i] = 10.0 + 500.0/xi
	}

	return x, y
}

func BenchmarkFitting(b *testing.B) {
	sizes := []int{10, 100, 1000, 5000}
	fitters := map[string]func(x, y []float64) *Model{
		"Hyperbolic":  fitHyperbolic,
		"Logarithmic": fitLogarithmic,
		"Power":       fitPower,
		"Exponential": fitExponential,
		"Polynomial":  fitPolynomial,
	}

	for _, size := range sizes {
		x, y := generateBenchmarkData(size)
		for name, fit := range fitters {
			b.Run(fmt.Sprintf("%s/Points_%d", name, size), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					fit(x, y)
				}
			})
		}
	}
}

func BenchmarkAnalyze(b *testing.B) {
	var samples []Sample
	for _, rows := range []int{16, 64, 256, 1024, 4096} {
		samples = append(samples, Sample{Rows: rows, Bytes: 64 + rows})
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Analyze(samples); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEstimatorEstimate(b *testing.B) {
	est := NewHyperbolicEstimator(10.0, 500.0)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = est.Estimate(float64(i%1000 + 1))
	}
}

func BenchmarkCalculateRSquared(b *testing.B) {
	_, y := generateBenchmarkData(1000)
	predicted := make([]float64, len(y))
	copy(predicted, y)
	for i := range predicted {
		predicted[i] += math.Sin(float64(i))
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		calculateRSquared(y, predicted)
	}
}

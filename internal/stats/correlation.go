package stats

import (
	"math"
)

// PearsonCorrelation calculates the Pearson correlation coefficient between two variables.
// Returns a value in [-1, 1], or 0 when the inputs differ in length, have fewer than two
// samples, or either variable has zero variance.
func PearsonCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var sumXY, sumX2, sumY2 float64
	for i := 0; i < len(x); i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sumXY += dx * dy
		sumX2 += dx * dx
		sumY2 += dy * dy
	}

	denominator := math.Sqrt(sumX2 * sumY2)
	if denominator == 0 {
		return 0
	}

	// Rounding can push |r| a hair past 1 for perfectly collinear inputs
	return math.Max(-1, math.Min(1, sumXY/denominator))
}

// BinaryVector converts a presence mask into a 0/1 float vector
func BinaryVector(mask []bool) []float64 {
	v := make([]float64, len(mask))
	for i, present := range mask {
		if present {
			v[i] = 1
		}
	}
	return v
}

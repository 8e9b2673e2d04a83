package geom

import (
	"fmt"
	"math"
)

var ErrDimNotEqual = fmt.Errorf("vectors dimension is not equal")

// SquaredEuclidean accumulates (a[i]-b[i])^2 in float32 in axis order.
// Each product is rounded on its own so no platform fuses it into the sum.
func SquaredEuclidean(vec, vec1 []float32) float32 {
	var d float32
	vec1 = vec1[:len(vec)]
	for i := 0; i < len(vec); i++ {
		diff := vec[i] - vec1[i]
		d += float32(diff * diff)
	}
	return d
}

// Euclidean takes a single square root of SquaredEuclidean. Both slices must
// have the same length.
func Euclidean(vec, vec1 []float32) float32 {
	return float32(math.Sqrt(float64(SquaredEuclidean(vec, vec1))))
}

func EuclideanDistance(vec, vec1 []float32) (float32, error) {
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	return Euclidean(vec, vec1), nil
}

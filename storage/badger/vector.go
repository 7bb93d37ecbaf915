package badger

import "math"

// normalize returns a unit-length copy of v. A zero vector is copied unchanged.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		copy(out, v)
		return out
	}
	inv := 1 / math.Sqrt(sumSquares)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

// dotProduct calculates the dot product of two equal-length vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

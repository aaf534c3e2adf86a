package core

import "math"

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	magnitude := float32(math.Sqrt(float64(dot(v, v))))
	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}

	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different lengths, or with zero magnitude, have similarity 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na := dot(a, a)
	nb := dot(b, b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot(a, b) / float32(math.Sqrt(float64(na))*math.Sqrt(float64(nb)))
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

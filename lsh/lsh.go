// Package lsh converts random projection sketch collisions into inner product estimates
package lsh

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// InferEstimate turns collision rate of two sign sketches into the cosine similarity estimate.
// For random hyperplanes P(bit agrees) = 1 - angle/pi, hence cos(pi * (1 - rate)).
// Rate is clamped to [0, 1].
func InferEstimate(rate float64) float64 {
	if rate < 0 {
		rate = 0
	} else if rate > 1 {
		rate = 1
	}
	return math.Cos(math.Pi * (1 - rate))
}

// InferEstimates applies InferEstimate elementwise and returns new matrix
func InferEstimates(rates mat.Matrix) *mat.Dense {
	r, c := rates.Dims()
	res := mat.NewDense(r, c, nil)
	res.Apply(func(_, _ int, v float64) float64 {
		return InferEstimate(v)
	}, rates)
	return res
}

// CollisionRate normalizes collisions count by the total number of compared hash bits
func CollisionRate(count, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return count / total
}

// CollisionRates normalizes the whole matrix of raw collision counts
func CollisionRates(counts mat.Matrix, total float64) *mat.Dense {
	r, c := counts.Dims()
	res := mat.NewDense(r, c, nil)
	res.Apply(func(_, _ int, v float64) float64 {
		return CollisionRate(v, total)
	}, counts)
	return res
}

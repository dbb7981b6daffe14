package lsh

import (
	"math"

	"gonum.org/v1/gonum/blas/blas64"
)

// NewVec creates new blas vector
func NewVec(data []float64) blas64.Vector {
	if data == nil {
		data = make([]float64, 0)
	}
	return blas64.Vector{
		N:    len(data),
		Inc:  1,
		Data: data,
	}
}

// IsZeroVectorBlas returns true if the sum of vectors' elements close to 0.0
func IsZeroVectorBlas(v blas64.Vector) bool {
	return math.Abs(blas64.Asum(v)) <= tol
}

// Normalize returns copy of the vector scaled to the unit length;
// zero vectors are returned as is
func Normalize(vec []float64) []float64 {
	normed := NewVec(make([]float64, len(vec)))
	v := NewVec(vec)
	if IsZeroVectorBlas(v) {
		copy(normed.Data, vec)
		return normed.Data
	}
	blas64.Axpy(1/blas64.Nrm2(v), v, normed)
	return normed.Data
}

// Dot calculates inner product of two vectors
func Dot(a, b []float64) float64 {
	return blas64.Dot(NewVec(a), NewVec(b))
}

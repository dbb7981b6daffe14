package common

import (
	"gonum.org/v1/gonum/mat"
)

// ConvertToInt converts hdf5 int32 payload to int
func ConvertToInt(ar []int32) []int {
	newar := make([]int, len(ar))
	for i, v := range ar {
		newar[i] = int(v)
	}
	return newar
}

// SameShape returns true if both matrices have equal dimensions
func SameShape(a, b mat.Matrix) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	return ar == br && ac == bc
}

// TruncateRows returns view on the first n rows of the matrix;
// matrix itself is returned if it's already small enough
func TruncateRows(m *mat.Dense, n int) *mat.Dense {
	r, c := m.Dims()
	if n <= 0 || n >= r {
		return m
	}
	return m.Slice(0, n, 0, c).(*mat.Dense)
}

// TruncateNeighbors keeps the first n neighbors lists
func TruncateNeighbors(neighbors [][]int, n int) [][]int {
	if n <= 0 || n >= len(neighbors) {
		return neighbors
	}
	return neighbors[:n]
}

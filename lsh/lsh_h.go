package lsh

import (
	"errors"
	"sync"

	"gonum.org/v1/gonum/blas/blas64"
)

const (
	tol = 1e-6
	// MaxPlanes bounds sketch length since we use 8 byte int to store a sketch
	MaxPlanes = 64
)

var (
	dimensionsNumberErr = errors.New("dimensions number must be a positive integer")
	planesNumberErr     = errors.New("planes number must be in [1, 64]")
	sketchesNumberErr   = errors.New("sketches number must be a positive integer")
	hasherNotBuiltErr   = errors.New("hasher must be built before hashing")
	sketchLenErr        = errors.New("sketches must have the same length")
	vecDimsErr          = errors.New("vector dimensions don't match the hasher config")
)

// plane holds normal vector of the hyperplane which goes through the origin
type plane struct {
	n blas64.Vector
}

// HasherConfig holds parameters of the random projections sketching
type HasherConfig struct {
	Dims      int
	NPlanes   int
	NSketches int
	Seed      uint64
}

// Hasher holds NSketches sets of NPlanes random hyperplanes
type Hasher struct {
	mutex    sync.RWMutex
	Config   HasherConfig
	sketches [][]plane
}

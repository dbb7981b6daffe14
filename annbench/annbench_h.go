package annbench

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Objects inside the estimator result files:
// estimated_inner (pq filters)
// collision_prob or collisions (lsh sketches)
// true_inner
// neighbors (optional)
const (
	EstimatedInner = "estimated_inner"
	CollisionProb  = "collision_prob"
	Collisions     = "collisions"
	TrueInner      = "true_inner"
	Neighbors      = "neighbors"
)

var (
	// ErrMissingInput returned when result file doesn't exist
	ErrMissingInput = errors.New("input file doesn't exist")
	// ErrShapeMismatch returned when estimated and true matrices are not aligned
	ErrShapeMismatch = errors.New("estimated and true matrices must have the same shape")
	// ErrNoEstimates returned when none of the estimates arrays present in the file
	ErrNoEstimates = errors.New("file contains neither estimated_inner nor collision arrays")
	// ErrNoTruth returned when there is no true_inner in the file and no fallback given
	ErrNoTruth = errors.New("file contains no true_inner and no reference truth provided")
	// ErrRank returned when dataset has unexpected number of dimensions
	ErrRank = errors.New("dataset must be 2-dimensional")
	// ErrUnknownVariant returned when the file name doesn't encode an estimator variant
	ErrUnknownVariant = errors.New("can't parse estimator variant from the file name")
	errEmptyWrite     = errors.New("cannot write empty slice")
)

// ResultSet holds aligned estimated and true similarities of a single result file
type ResultSet struct {
	Path      string
	Variant   Variant
	Estimated *mat.Dense
	True      *mat.Dense
	Neighbors [][]int
}

// LoadOptions controls how result file is read
type LoadOptions struct {
	// MaxRows truncates queries, 0 means all of them
	MaxRows int
	// HashBits used to normalize raw collisions counts, e.g. n_sketches * 64
	HashBits float64
	// WithNeighbors reads precomputed neighbors list if it's there
	WithNeighbors bool
	// Truth is used when the file holds no true_inner array (lsh sketches files)
	Truth *mat.Dense
}

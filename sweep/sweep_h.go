package sweep

import (
	"errors"

	"github.com/gasparian/ipeval-go/common"
)

// DefaultEpsilon smooths precision and recall ratios when nothing passes the threshold
const DefaultEpsilon = 0.01

// Formula selects how false positives and false negatives are counted
type Formula int

const (
	// FormulaExact counts errors against the passing set and the true set
	FormulaExact Formula = iota
	// FormulaPositional is the approximation used by the early lsh scripts:
	// fp = k - tp, fn = split position - tp
	FormulaPositional
)

var (
	// ErrThresholdsNotSorted returned when thresholds sequence decreases somewhere
	ErrThresholdsNotSorted = errors.New("thresholds must be sorted in ascending order")
	// ErrNoThresholds returned for the empty thresholds sequence
	ErrNoThresholds = errors.New("thresholds sequence is empty")
	// ErrBadStep returned when range can't be generated with given step
	ErrBadStep = errors.New("step must move start towards end")
	// ErrNeighborIndex returned when neighbor id points outside candidates row
	ErrNeighborIndex = errors.New("neighbor index out of candidates range")
	// ErrShapeMismatch returned when estimates, truth and neighbors are not aligned
	ErrShapeMismatch = errors.New("estimates, truth and neighbors must have the same number of rows")
	// ErrBadK returned for non-positive k
	ErrBadK = errors.New("k must be positive")
)

// Options of a single sweep
type Options struct {
	// Epsilon added to both parts of precision and recall ratios
	Epsilon float64
	Formula Formula
	// PerQuery keeps rows of every query instead of averaging them
	PerQuery bool
	// Workers evaluating rows concurrently, values below 2 mean sequential run
	Workers int
	// Progress shows progress bar over queries
	Progress bool
	Logger   *common.Logger
}

// DefaultOptions returns exact formula, default epsilon, averaged output
func DefaultOptions() Options {
	return Options{
		Epsilon: DefaultEpsilon,
		Formula: FormulaExact,
		Workers: 1,
	}
}

// Result holds row-major Rows x len(Thresholds) arrays
type Result struct {
	Rows          int
	Thresholds    []float64
	Recalls       []float64
	Precisions    []float64
	PercentPassed []float64
}

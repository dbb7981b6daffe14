// Package sweep computes precision and recall of approximate inner product estimates
// over the ascending sequence of similarity thresholds
package sweep

import (
	"fmt"
	"sort"

	"github.com/cheggaaa/pb/v3"
	"github.com/gasparian/ipeval-go/common"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type rowSweep struct {
	k          int
	thresholds []float64
	eps        float64
	formula    Formula
}

// evaluate fills recalls, precisions and passed for the single query.
// Candidates with estimate >= threshold pass; true positives left in the
// passing set are tracked incrementally while threshold grows.
func (s rowSweep) evaluate(est []float64, trueSet []int, recalls, precisions, passed []float64) {
	K := len(est)
	sorted := make([]float64, K)
	copy(sorted, est)
	order := make([]int, K)
	floats.Argsort(sorted, order)

	isTrue := make([]bool, K)
	for _, id := range trueSet {
		isTrue[id] = true
	}
	nTrue := 0
	for _, v := range isTrue {
		if v {
			nTrue++
		}
	}

	tp := nTrue
	last := 0
	for j, tau := range s.thresholds {
		p := sort.SearchFloat64s(sorted, tau)
		for ; last < p; last++ {
			if isTrue[order[last]] {
				isTrue[order[last]] = false
				tp--
			}
		}
		nPassed := K - p
		var fp, fn int
		switch s.formula {
		case FormulaPositional:
			fp = s.k - tp
			fn = p - tp
		default:
			fp = nPassed - tp
			fn = nTrue - tp
		}
		tpf := float64(tp)
		precisions[j] = (tpf + s.eps) / (tpf + float64(fp) + s.eps)
		recalls[j] = (tpf + s.eps) / (tpf + float64(fn) + s.eps)
		passed[j] = float64(nPassed) / float64(K)
	}
}

// Evaluate sweeps thresholds for every query row. True set of the query is made from
// the first k neighbors when neighbors are given, otherwise from the k largest true scores.
// Result is averaged across queries unless opts.PerQuery is set.
func Evaluate(est, truth *mat.Dense, neighbors [][]int, k int, thresholds []float64, opts Options) (*Result, error) {
	if err := CheckThresholds(thresholds); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, ErrBadK
	}
	logger := opts.Logger
	if logger == nil {
		logger = common.NopLogger()
	}
	N, K := est.Dims()
	if truth == nil && neighbors == nil {
		return nil, fmt.Errorf("%w: neither truth nor neighbors provided", ErrShapeMismatch)
	}
	if truth != nil && !common.SameShape(est, truth) {
		return nil, ErrShapeMismatch
	}
	if neighbors != nil && len(neighbors) != N {
		return nil, fmt.Errorf("%w: %d queries vs %d neighbors rows", ErrShapeMismatch, N, len(neighbors))
	}
	if k > K {
		logger.Warn().Int("k", k).Int("candidates", K).Msg("k is larger than candidates number, clamped")
		k = K
	}

	T := len(thresholds)
	res := &Result{
		Rows:          N,
		Thresholds:    append([]float64(nil), thresholds...),
		Recalls:       make([]float64, N*T),
		Precisions:    make([]float64, N*T),
		PercentPassed: make([]float64, N*T),
	}
	s := rowSweep{
		k:          k,
		thresholds: res.Thresholds,
		eps:        opts.Epsilon,
		formula:    opts.Formula,
	}

	var bar *pb.ProgressBar
	if opts.Progress {
		bar = pb.StartNew(N)
		defer bar.Finish()
	}

	g := new(errgroup.Group)
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i := 0; i < N; i++ {
		i := i
		g.Go(func() error {
			var trueSet []int
			if neighbors != nil {
				var err error
				trueSet, err = FromNeighbors(neighbors[i], k, K)
				if err != nil {
					return fmt.Errorf("query %d: %w", i, err)
				}
			} else {
				trueSet = TrueTopK(truth.RawRowView(i), k)
			}
			lo, hi := i*T, (i+1)*T
			s.evaluate(est.RawRowView(i), trueSet, res.Recalls[lo:hi], res.Precisions[lo:hi], res.PercentPassed[lo:hi])
			if bar != nil {
				bar.Increment()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if opts.PerQuery {
		return res, nil
	}
	return res.Average(), nil
}

// Average returns single row result with per threshold means across queries
func (r *Result) Average() *Result {
	T := len(r.Thresholds)
	avg := &Result{
		Rows:          1,
		Thresholds:    r.Thresholds,
		Recalls:       make([]float64, T),
		Precisions:    make([]float64, T),
		PercentPassed: make([]float64, T),
	}
	if r.Rows == 0 {
		return avg
	}
	for _, pair := range [][2][]float64{
		{r.Recalls, avg.Recalls},
		{r.Precisions, avg.Precisions},
		{r.PercentPassed, avg.PercentPassed},
	} {
		src, dst := pair[0], pair[1]
		for i := 0; i < r.Rows; i++ {
			floats.Add(dst, src[i*T:(i+1)*T])
		}
		floats.Scale(1/float64(r.Rows), dst)
	}
	return avg
}

// Row returns recalls, precisions and percent passed of the i-th row
func (r *Result) Row(i int) ([]float64, []float64, []float64) {
	T := len(r.Thresholds)
	lo, hi := i*T, (i+1)*T
	return r.Recalls[lo:hi], r.Precisions[lo:hi], r.PercentPassed[lo:hi]
}

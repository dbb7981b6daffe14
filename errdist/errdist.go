// Package errdist collects errors of inner product estimates and estimates their density
package errdist

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/gasparian/ipeval-go/common"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/gonum/stat/sampleuv"
)

const (
	// DefaultGridPoints of the density curve
	DefaultGridPoints = 512
	// Cut extends density grid by this number of bandwidths on both sides
	Cut = 3.0
)

var (
	// ErrEmptySample returned when there is nothing to estimate density from
	ErrEmptySample = errors.New("sample is empty")
	// ErrDegenerateSample returned when sample has zero variance
	ErrDegenerateSample = errors.New("sample has zero variance")
	errShape            = errors.New("shapes differ")
)

// Differences returns estimate - truth for every candidate, or only for
// the topN candidates with largest true scores of each query when topN > 0
func Differences(est, truth *mat.Dense, topN int) ([]float64, error) {
	if !common.SameShape(est, truth) {
		return nil, fmt.Errorf("errdist: estimates and truth: %w", errShape)
	}
	r, c := est.Dims()
	if topN <= 0 || topN >= c {
		diff := make([]float64, 0, r*c)
		for i := 0; i < r; i++ {
			e, t := est.RawRowView(i), truth.RawRowView(i)
			for j := range e {
				diff = append(diff, e[j]-t[j])
			}
		}
		return diff, nil
	}
	diff := make([]float64, 0, r*topN)
	idx := make([]int, c)
	for i := 0; i < r; i++ {
		e, t := est.RawRowView(i), truth.RawRowView(i)
		for j := range idx {
			idx[j] = j
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return t[idx[a]] > t[idx[b]]
		})
		for _, j := range idx[:topN] {
			diff = append(diff, e[j]-t[j])
		}
	}
	return diff, nil
}

// SampleSize never exceeds the population
func SampleSize(population, limit int) int {
	if limit <= 0 || limit > population {
		return population
	}
	return limit
}

// Sample draws min(limit, len(pop)) values uniformly without replacement
func Sample(pop []float64, limit int, seed uint64) []float64 {
	n := SampleSize(len(pop), limit)
	if n == 0 {
		return nil
	}
	idxs := make([]int, n)
	sampleuv.WithoutReplacement(idxs, len(pop), rand.NewSource(seed))
	res := make([]float64, n)
	for i, id := range idxs {
		res[i] = pop[id]
	}
	return res
}

// ScottBandwidth is std * n^(-1/5)
func ScottBandwidth(sample []float64) float64 {
	if len(sample) < 2 {
		return 0
	}
	return stat.StdDev(sample, nil) * math.Pow(float64(len(sample)), -0.2)
}

// Density is a curve sampled on the regular grid
type Density struct {
	X         []float64
	Y         []float64
	Bandwidth float64
	N         int
}

// KDE estimates gaussian kernel density with Scott bandwidth on gridPoints points
// spanning [min - Cut*bw, max + Cut*bw]. The sample is binned onto the grid first,
// so the cost doesn't depend on the sample size.
func KDE(sample []float64, gridPoints int) (*Density, error) {
	if len(sample) == 0 {
		return nil, ErrEmptySample
	}
	if gridPoints < 2 {
		gridPoints = DefaultGridPoints
	}
	bw := ScottBandwidth(sample)
	if bw == 0 || math.IsNaN(bw) {
		return nil, ErrDegenerateSample
	}
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	lo := sorted[0] - Cut*bw
	hi := sorted[len(sorted)-1] + Cut*bw
	xs := floats.Span(make([]float64, gridPoints), lo, hi)
	h := xs[1] - xs[0]
	dividers := floats.Span(make([]float64, gridPoints+1), lo-h/2, hi+h/2)
	counts := stat.Histogram(nil, dividers, sorted, nil)

	ys := make([]float64, gridPoints)
	kernel := distuv.Normal{Sigma: bw}
	n := float64(len(sorted))
	for b, cnt := range counts {
		if cnt == 0 {
			continue
		}
		for i, x := range xs {
			ys[i] += cnt * kernel.Prob(x-xs[b])
		}
	}
	floats.Scale(1/n, ys)
	return &Density{X: xs, Y: ys, Bandwidth: bw, N: len(sorted)}, nil
}

// Summary of the errors sample
type Summary struct {
	N      int
	Mean   float64
	Std    float64
	Median float64
	P05    float64
	P95    float64
}

// Describe computes summary statistics of the sample
func Describe(sample []float64) Summary {
	if len(sample) == 0 {
		return Summary{}
	}
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		std = 0
	}
	return Summary{
		N:      len(sorted),
		Mean:   mean,
		Std:    std,
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P05:    stat.Quantile(0.05, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
}

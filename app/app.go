// Package app wires result files, evaluators, result store and plots into tool commands
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"github.com/gasparian/ipeval-go/annbench"
	"github.com/gasparian/ipeval-go/common"
	"github.com/gasparian/ipeval-go/config"
	"github.com/gasparian/ipeval-go/errdist"
	"github.com/gasparian/ipeval-go/lsh"
	"github.com/gasparian/ipeval-go/render"
	"github.com/gasparian/ipeval-go/store"
	"github.com/gasparian/ipeval-go/sweep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// NewRunner creates runner writing prompts and text output to stdout
func NewRunner(cfg *config.Config, logger *common.Logger) *Runner {
	return &Runner{
		Config: cfg,
		Logger: logger,
		RunID:  common.NewRunID(),
		In:     os.Stdin,
		Out:    os.Stdout,
	}
}

// RunPrecRecall sweeps thresholds over every configured variant of the dataset
// and stores curves under (variant label, k); existing entries are kept unless forced
func (r *Runner) RunPrecRecall(opts Options) (err error) {
	defer common.Timer(r.Logger, "prec-recall")()
	k := opts.K
	if k <= 0 {
		k = r.Config.Sweep.K
	}
	thresholds, err := r.thresholds()
	if err != nil {
		return err
	}
	dataset := r.dataset(opts)
	files, err := r.variantFiles(dataset, config.MetricAll)
	if err != nil {
		return err
	}
	truth, err := r.loadTruth(dataset)
	if err != nil {
		return err
	}

	s, err := OpenStore(r.Config)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()

	processed := 0
	for _, path := range files {
		v, err := annbench.ParseVariant(path)
		if err != nil {
			return err
		}
		key := store.Key{Variant: v.Label(), K: k}
		has, err := s.Has(key)
		if err != nil {
			return err
		}
		if has && !opts.Force {
			r.Logger.Info().Str("key", key.String()).Msg("Curves already stored, skipping")
			processed++
			continue
		}
		rs, err := annbench.LoadResultSet(path, r.loadOptions(v, truth, opts, true))
		if err != nil {
			if err = r.skipOrFail(path, err); err != nil {
				return err
			}
			continue
		}
		rows, cols := rs.Estimated.Dims()
		r.Logger.Info().
			Str("run", r.RunID).
			Str("file", filepath.Base(path)).
			Str("variant", key.Variant).
			Int("queries", rows).
			Int("candidates", cols).
			Msg("Evaluating")
		// precomputed neighbors are used only when they cover k
		var neighbors [][]int
		if len(rs.Neighbors) > 0 && len(rs.Neighbors[0]) >= k {
			neighbors = rs.Neighbors
		}
		evalThresholds, storedThresholds, err := r.variantThresholds(v, thresholds)
		if err != nil {
			return err
		}
		res, err := sweep.Evaluate(rs.Estimated, rs.True, neighbors, k, evalThresholds, r.sweepOptions(opts))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		res.Thresholds = storedThresholds
		if err := s.Put(key, entryFromResult(res), opts.Force); err != nil {
			return err
		}
		processed++
	}
	if processed == 0 {
		return ErrNoInputs
	}
	return nil
}

// RunErrors plots estimation error densities, one panel per dataset, one curve per variant
func (r *Runner) RunErrors(opts Options) error {
	defer common.Timer(r.Logger, "errors")()
	metric := opts.Metric
	if metric == "" {
		metric = r.Config.Errors.Metric
	}
	topN := 0
	if opts.Top {
		topN = r.Config.Errors.TopN
	}
	datasets := r.Config.Datasets
	if opts.Dataset != "" {
		datasets = []string{opts.Dataset}
	}

	row := make([]render.Panel, 0, len(datasets))
	curves := 0
	for _, dataset := range datasets {
		title := dataset
		if opts.Top {
			title = fmt.Sprintf("%s, top %d", dataset, topN)
		}
		panel := render.Panel{Title: title, XLabel: "Error", YLabel: "Density"}
		truth, err := r.loadTruth(dataset)
		if err != nil {
			return err
		}
		files, err := r.variantFiles(dataset, metric)
		if err != nil {
			return err
		}
		for _, path := range files {
			c, err := r.errorCurve(path, truth, topN, opts)
			if err != nil {
				if err = r.skipOrFail(path, err); err != nil {
					return err
				}
				continue
			}
			panel.Curves = append(panel.Curves, *c)
		}
		curves += len(panel.Curves)
		row = append(row, panel)
	}
	if curves == 0 {
		return ErrNoInputs
	}
	out, err := r.outputPath(opts, DefaultErrorsPlot)
	if err != nil {
		return err
	}
	if err := render.SaveGrid(out, [][]render.Panel{row}); err != nil {
		return err
	}
	r.Logger.Info().Str("file", out).Int("curves", curves).Msg("Errors plot saved")
	return nil
}

func (r *Runner) errorCurve(path string, truth *mat.Dense, topN int, opts Options) (*render.Curve, error) {
	v, err := annbench.ParseVariant(path)
	if err != nil {
		return nil, err
	}
	rs, err := annbench.LoadResultSet(path, r.loadOptions(v, truth, opts, false))
	if err != nil {
		return nil, err
	}
	// every variant is compared against the same reference truth
	ref := rs.True
	if truth != nil {
		ref = common.TruncateRows(truth, r.maxRows(opts))
		if !common.SameShape(rs.Estimated, ref) {
			return nil, fmt.Errorf("%s: %w", path, annbench.ErrShapeMismatch)
		}
	}
	diffs, err := errdist.Differences(rs.Estimated, ref, topN)
	if err != nil {
		return nil, err
	}
	sample := errdist.Sample(diffs, r.sampleCap(opts), r.Config.Seed)
	summary := errdist.Describe(sample)
	r.Logger.Info().
		Str("variant", v.Label()).
		Str("dataset", v.Dataset).
		Int("population", len(diffs)).
		Int("sample", summary.N).
		Float64("mean", summary.Mean).
		Float64("std", summary.Std).
		Float64("p05", summary.P05).
		Float64("p95", summary.P95).
		Msg("Error distribution")
	density, err := errdist.KDE(sample, r.Config.Errors.GridPoints)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &render.Curve{Label: v.Label(), X: density.X, Y: density.Y}, nil
}

// RunCurves plots stored curves of the given k: precision over recall and passed share over threshold
func (r *Runner) RunCurves(opts Options) (err error) {
	k := opts.K
	if k <= 0 {
		k = r.Config.Sweep.K
	}
	s, err := OpenStore(r.Config)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	keys, err := s.Keys()
	if err != nil {
		return err
	}

	title := fmt.Sprintf("k = %d", k)
	pr := render.Panel{Title: title, XLabel: "Recall", YLabel: "Precision"}
	passed := render.Panel{Title: title, XLabel: "Threshold", YLabel: "Passed"}
	recall := render.Panel{Title: title, XLabel: "Threshold", YLabel: "Recall"}
	for _, key := range keys {
		if key.K != k {
			continue
		}
		e, err := s.Get(key)
		if err != nil {
			return err
		}
		e = averaged(e)
		pr.Curves = append(pr.Curves, render.Curve{Label: key.Variant, X: e.Recalls, Y: e.Precisions})
		passed.Curves = append(passed.Curves, render.Curve{Label: key.Variant, X: e.Thresholds, Y: e.PercentPassed})
		recall.Curves = append(recall.Curves, render.Curve{Label: key.Variant, X: e.Thresholds, Y: e.Recalls})
	}
	if len(pr.Curves) == 0 {
		return fmt.Errorf("%w: %d", ErrNoCurves, k)
	}
	out, err := r.outputPath(opts, DefaultCurvesPlot)
	if err != nil {
		return err
	}
	if err := render.SaveGrid(out, [][]render.Panel{{pr, recall, passed}}); err != nil {
		return err
	}
	r.Logger.Info().Str("file", out).Int("variants", len(pr.Curves)).Msg("Curves plot saved")
	return nil
}

// RunHist prints text histogram of any stored array, e.g. times_data of kmeans timings
func (r *Runner) RunHist(path, dataset string, bins int) error {
	if bins <= 0 {
		bins = DefaultHistBins
	}
	path = r.Config.DataPath(path)
	vals, err := annbench.LoadVector(path, dataset)
	if err != nil {
		return err
	}
	summary := errdist.Describe(vals)
	fmt.Fprintf(r.Out, "%s:%s n=%d mean=%.6g std=%.6g\n", filepath.Base(path), dataset, summary.N, summary.Mean, summary.Std)
	return render.PrintHistogram(r.Out, vals, bins)
}

// Infer converts collision rate into inner product estimate
func (r *Runner) Infer(rate float64) float64 {
	est := lsh.InferEstimate(rate)
	fmt.Fprintf(r.Out, "%g\n", est)
	return est
}

// randomUnitVectors draws rows uniformly from the unit sphere
func randomUnitVectors(rows, dims int, src rand.Source) [][]float64 {
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	vecs := make([][]float64, rows)
	for i := range vecs {
		vec := make([]float64, dims)
		for j := range vec {
			vec[j] = norm.Rand()
		}
		vecs[i] = lsh.Normalize(vec)
	}
	return vecs
}

// RunSynth writes synthetic result files of the configured synthetic dataset:
// reference truth with true_inner and neighbors, and both lsh sketch variants
func (r *Runner) RunSynth(opts Options) error {
	defer common.Timer(r.Logger, "synth")()
	sc := r.Config.Synth
	dataset := opts.Dataset
	if dataset == "" {
		dataset = sc.Dataset
	}
	if sc.Queries <= 0 || sc.Candidates <= 0 || sc.Dims <= 0 {
		return errors.New("synthetic dataset needs positive queries, candidates and dims")
	}

	src := rand.NewSource(r.Config.Seed)
	queries := randomUnitVectors(sc.Queries, sc.Dims, src)
	candidates := randomUnitVectors(sc.Candidates, sc.Dims, src)

	hasher, err := lsh.NewHasher(lsh.HasherConfig{
		Dims:      sc.Dims,
		NPlanes:   r.Config.LSH.BitsPerSketch,
		NSketches: r.Config.LSH.Sketches,
		Seed:      r.Config.Seed + 1,
	})
	if err != nil {
		return err
	}
	hasher.Build()
	candHashes := make([][]uint64, len(candidates))
	for i, c := range candidates {
		candHashes[i], err = hasher.GetHashes(c)
		if err != nil {
			return err
		}
	}

	trueInner := mat.NewDense(sc.Queries, sc.Candidates, nil)
	single := mat.NewDense(sc.Queries, sc.Candidates, nil)
	total := mat.NewDense(sc.Queries, sc.Candidates, nil)
	neighbors := make([][]int, sc.Queries)
	nPlanes := r.Config.LSH.BitsPerSketch

	var bar *pb.ProgressBar
	if opts.Progress {
		bar = pb.StartNew(sc.Queries)
		defer bar.Finish()
	}
	for i, q := range queries {
		qHashes, err := hasher.GetHashes(q)
		if err != nil {
			return err
		}
		for j, c := range candidates {
			trueInner.Set(i, j, lsh.Dot(q, c))
			rate, err := lsh.SketchCollisionRate(qHashes[:1], candHashes[j][:1], nPlanes)
			if err != nil {
				return err
			}
			single.Set(i, j, rate)
			rate, err = lsh.SketchCollisionRate(qHashes, candHashes[j], nPlanes)
			if err != nil {
				return err
			}
			total.Set(i, j, rate)
		}
		neighbors[i] = sweep.TrueTopK(trueInner.RawRowView(i), sc.Neighbors)
		if bar != nil {
			bar.Increment()
		}
	}

	truthPath := resultFile(r.Config, dataset, r.Config.TruthVariant)
	if err := writeResultFile(truthPath, map[string]*mat.Dense{annbench.TrueInner: trueInner}, neighbors); err != nil {
		return err
	}
	for suffix, rates := range map[string]*mat.Dense{"lsh_single": single, "lsh_total": total} {
		path := resultFile(r.Config, dataset, suffix)
		if err := writeResultFile(path, map[string]*mat.Dense{annbench.CollisionProb: rates}, neighbors); err != nil {
			return err
		}
	}
	r.Logger.Info().
		Str("dataset", dataset).
		Int("queries", sc.Queries).
		Int("candidates", sc.Candidates).
		Str("dir", r.Config.DataDir).
		Msg("Synthetic result files written")
	return nil
}

func writeResultFile(path string, arrays map[string]*mat.Dense, neighbors [][]int) (err error) {
	w, err := annbench.CreateFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	for name, m := range arrays {
		if err := w.WriteMatrix(name, m); err != nil {
			return fmt.Errorf("%s %s: %w", path, name, err)
		}
	}
	if len(neighbors) > 0 && len(neighbors[0]) > 0 {
		return w.WriteNeighbors(annbench.Neighbors, neighbors)
	}
	return nil
}

package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gasparian/ipeval-go/annbench"
	"github.com/gasparian/ipeval-go/config"
	"github.com/gasparian/ipeval-go/lsh"
	"github.com/gasparian/ipeval-go/store"
	"github.com/gasparian/ipeval-go/store/h5"
	"github.com/gasparian/ipeval-go/store/kv"
	"github.com/gasparian/ipeval-go/store/purekv"
	"github.com/gasparian/ipeval-go/store/redis"
	"github.com/gasparian/ipeval-go/sweep"
	"gonum.org/v1/gonum/mat"
)

// OpenStore creates result store of the configured backend
func OpenStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendH5:
		// groups written without thresholds get the configured sweep range
		thresholds, err := sweep.Range(cfg.Sweep.Start, cfg.Sweep.End, cfg.Sweep.Step)
		if err != nil {
			return nil, err
		}
		return h5.OpenWithThresholds(cfg.StorePath(), thresholds)
	case config.BackendMemory:
		return kv.NewKVStore(), nil
	case config.BackendRedis:
		return redis.Open(cfg.Store.RedisURL, cfg.Store.Prefix, 5*time.Second)
	case config.BackendPureKV:
		return purekv.Open(purekv.Config{
			Address: cfg.Store.PureKVAddress,
			Timeout: cfg.Store.PureKVTimeout,
		})
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Store.Backend)
}

// skippable reports whether the file error may be ignored in non strict mode
func skippable(err error) bool {
	return errors.Is(err, annbench.ErrMissingInput) ||
		errors.Is(err, annbench.ErrNoEstimates) ||
		errors.Is(err, annbench.ErrNoTruth)
}

// skipOrFail logs and swallows missing inputs unless strict mode is on
func (r *Runner) skipOrFail(path string, err error) error {
	if r.Config.Strict || !skippable(err) {
		return err
	}
	r.Logger.Warn().Str("file", path).Err(err).Msg("Skipping result file")
	return nil
}

func (r *Runner) dataset(opts Options) string {
	if opts.Dataset != "" {
		return opts.Dataset
	}
	if len(r.Config.Datasets) > 0 {
		return r.Config.Datasets[0]
	}
	return ""
}

func (r *Runner) maxRows(opts Options) int {
	if opts.Quick {
		return r.Config.Quick.Rows
	}
	return 0
}

// loadOptions normalizes raw collisions by the bits of the variant: one sketch or all of them
func (r *Runner) loadOptions(v annbench.Variant, truth *mat.Dense, opts Options, withNeighbors bool) annbench.LoadOptions {
	return annbench.LoadOptions{
		MaxRows:       r.maxRows(opts),
		HashBits:      r.Config.LSH.HashBits(v.Total),
		WithNeighbors: withNeighbors,
		Truth:         truth,
	}
}

func (r *Runner) sampleCap(opts Options) int {
	if opts.Quick {
		return r.Config.Quick.Cap
	}
	return r.Config.Errors.Cap
}

func resultFile(cfg *config.Config, dataset, variant string) string {
	if dataset == "" {
		return cfg.DataPath(variant + ".hdf5")
	}
	return cfg.ResultFile(dataset, variant)
}

// variantFiles lists configured result files of the dataset passing the metric filter
func (r *Runner) variantFiles(dataset, metric string) ([]string, error) {
	files := make([]string, 0, len(r.Config.Variants))
	for _, suffix := range r.Config.Variants {
		v, err := annbench.ParseVariant(suffix + ".hdf5")
		if err != nil {
			return nil, fmt.Errorf("variant %q: %w", suffix, err)
		}
		switch metric {
		case config.MetricLSH:
			if v.Kind != annbench.KindLSH {
				continue
			}
		case config.MetricPQ:
			if v.Kind != annbench.KindPQ {
				continue
			}
		}
		files = append(files, resultFile(r.Config, dataset, suffix))
	}
	return files, nil
}

// loadTruth reads true_inner of the reference variant; nil when it's missing in non strict mode
func (r *Runner) loadTruth(dataset string) (*mat.Dense, error) {
	path := resultFile(r.Config, dataset, r.Config.TruthVariant)
	truth, err := annbench.LoadMatrix(path, annbench.TrueInner)
	if err != nil {
		return nil, r.skipOrFail(path, err)
	}
	r.Logger.Debug().Str("file", path).Msg("Reference truth loaded")
	return truth, nil
}

func (r *Runner) thresholds() ([]float64, error) {
	return sweep.Range(r.Config.Sweep.Start, r.Config.Sweep.End, r.Config.Sweep.Step)
}

// variantThresholds returns thresholds the estimates are compared with and thresholds stored
// with the curves. In bits mode lsh variants are swept over agreeing bits counts, every count
// mapped onto the cosine estimate it turns into.
func (r *Runner) variantThresholds(v annbench.Variant, thresholds []float64) ([]float64, []float64, error) {
	if v.Kind != annbench.KindLSH || r.Config.Sweep.LSHThresholds != config.LSHThresholdsBits {
		return thresholds, thresholds, nil
	}
	bits := r.Config.LSH.HashBits(v.Total)
	counts, err := sweep.IntegerRange(0, int(bits))
	if err != nil {
		return nil, nil, err
	}
	estimates := make([]float64, len(counts))
	for i, c := range counts {
		estimates[i] = lsh.InferEstimate(lsh.CollisionRate(c, bits))
	}
	return estimates, counts, nil
}

func (r *Runner) sweepOptions(opts Options) sweep.Options {
	formula := sweep.FormulaExact
	if r.Config.Sweep.Formula == "positional" {
		formula = sweep.FormulaPositional
	}
	return sweep.Options{
		Epsilon:  r.Config.Sweep.Epsilon,
		Formula:  formula,
		PerQuery: opts.PerQuery,
		Workers:  r.Config.Sweep.Workers,
		Progress: opts.Progress,
		Logger:   r.Logger,
	}
}

func entryFromResult(res *sweep.Result) *store.Entry {
	return &store.Entry{
		Rows:          res.Rows,
		Thresholds:    res.Thresholds,
		Recalls:       res.Recalls,
		Precisions:    res.Precisions,
		PercentPassed: res.PercentPassed,
	}
}

// averaged collapses per query entry into a single row
func averaged(e *store.Entry) *store.Entry {
	if e.Rows == 1 {
		return e
	}
	res := &sweep.Result{
		Rows:          e.Rows,
		Thresholds:    e.Thresholds,
		Recalls:       e.Recalls,
		Precisions:    e.Precisions,
		PercentPassed: e.PercentPassed,
	}
	return entryFromResult(res.Average())
}

// outputPath returns explicit output, asks for it or falls back to default
func (r *Runner) outputPath(opts Options, def string) (string, error) {
	if opts.Out != "" {
		return r.Config.DataPath(opts.Out), nil
	}
	if !opts.Prompt {
		return r.Config.DataPath(def), nil
	}
	name, err := promptFileName(r.In, r.Out, def)
	if err != nil {
		return "", err
	}
	return r.Config.DataPath(name), nil
}

// promptFileName asks for the output file name, empty answer means default
func promptFileName(in io.Reader, out io.Writer, def string) (string, error) {
	fmt.Fprintf(out, "Output file name [%s]: ", def)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	if !strings.HasSuffix(line, ".png") {
		line += ".png"
	}
	return line, nil
}

package main

import (
	"os"

	"github.com/gasparian/ipeval-go/app"
	"github.com/gasparian/ipeval-go/common"
	"github.com/gasparian/ipeval-go/config"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ipeval",
		Short: "Evaluation of approximate inner product estimators",
		Long: `ipeval compares inner product estimates of lsh sketches and product
quantization filters against the true inner products: precision/recall
over a similarity threshold sweep, estimation error densities and plots.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().String("data-dir", "", "directory with result files")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error, off)")
	rootCmd.PersistentFlags().Bool("strict", false, "fail on missing result files instead of skipping them")
	rootCmd.PersistentFlags().String("store", "", "result store backend (h5, memory, redis, purekv)")
	rootCmd.PersistentFlags().Bool("progress", true, "show progress bars")

	rootCmd.AddCommand(
		precRecallCmd(),
		errorsCmd(),
		curvesCmd(),
		histCmd(),
		synthCmd(),
		inferCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRunner loads config and applies global flags on top of it
func newRunner(cmd *cobra.Command) (*app.Runner, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if v, _ := flags.GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := flags.GetString("store"); v != "" {
		cfg.Store.Backend = v
	}
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := common.GetNewLogger(cfg.Log.Level)
	r := app.NewRunner(cfg, logger)
	logger.Debug().Str("run", r.RunID).Str("data_dir", cfg.DataDir).Str("store", cfg.Store.Backend).Msg("Config loaded")
	return r, nil
}

func commonOptions(cmd *cobra.Command) app.Options {
	flags := cmd.Flags()
	opts := app.Options{}
	opts.Dataset, _ = flags.GetString("dataset")
	opts.Quick, _ = flags.GetBool("quick")
	opts.Progress, _ = flags.GetBool("progress")
	return opts
}

func precRecallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prec-recall",
		Short: "Compute and store precision/recall curves of every configured variant",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(cmd)
			if err != nil {
				return err
			}
			opts := commonOptions(cmd)
			opts.K, _ = cmd.Flags().GetInt("k")
			opts.Force, _ = cmd.Flags().GetBool("force")
			opts.PerQuery, _ = cmd.Flags().GetBool("per-query")
			if w, _ := cmd.Flags().GetInt("workers"); w > 0 {
				r.Config.Sweep.Workers = w
			}
			if err := r.RunPrecRecall(opts); err != nil {
				r.Logger.Error().Err(err).Msg("prec-recall failed")
				return err
			}
			return nil
		},
	}
	cmd.Flags().Int("k", 10, "size of the true neighbors set")
	cmd.Flags().Bool("force", false, "recompute curves even if they are stored")
	cmd.Flags().Bool("quick", false, "use only the first queries")
	cmd.Flags().Bool("per-query", false, "store curves of every query instead of the average")
	cmd.Flags().Int("workers", 0, "number of queries evaluated concurrently")
	cmd.Flags().String("dataset", "", "dataset prefix of the result files")
	return cmd
}

func errorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "errors",
		Short: "Plot estimation error densities",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(cmd)
			if err != nil {
				return err
			}
			opts := commonOptions(cmd)
			opts.Top, _ = cmd.Flags().GetBool("top")
			opts.Metric, _ = cmd.Flags().GetString("metric")
			opts.Out, _ = cmd.Flags().GetString("out")
			opts.Prompt, _ = cmd.Flags().GetBool("prompt")
			if err := r.RunErrors(opts); err != nil {
				r.Logger.Error().Err(err).Msg("errors plot failed")
				return err
			}
			return nil
		},
	}
	cmd.Flags().Bool("top", false, "use only the top 100 true inner products of every query")
	cmd.Flags().Bool("quick", false, "use only the first queries and a small sample")
	cmd.Flags().String("metric", "", "variants to plot (lsh, pq, all)")
	cmd.Flags().String("out", "", "output png file")
	cmd.Flags().Bool("prompt", false, "ask for the output file name if --out is not set")
	cmd.Flags().String("dataset", "", "plot only this dataset")
	return cmd
}

func curvesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curves",
		Short: "Plot stored precision/recall curves",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(cmd)
			if err != nil {
				return err
			}
			opts := commonOptions(cmd)
			opts.K, _ = cmd.Flags().GetInt("k")
			opts.Out, _ = cmd.Flags().GetString("out")
			opts.Prompt, _ = cmd.Flags().GetBool("prompt")
			return r.RunCurves(opts)
		},
	}
	cmd.Flags().Int("k", 10, "size of the true neighbors set")
	cmd.Flags().String("out", "", "output png file")
	cmd.Flags().Bool("prompt", false, "ask for the output file name if --out is not set")
	return cmd
}

func histCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hist",
		Short: "Print histogram of an array stored in hdf5 file",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(cmd)
			if err != nil {
				return err
			}
			file, _ := cmd.Flags().GetString("file")
			dataset, _ := cmd.Flags().GetString("dataset")
			bins, _ := cmd.Flags().GetInt("bins")
			return r.RunHist(file, dataset, bins)
		},
	}
	cmd.Flags().String("file", "time_kmeans_V1.hdf5", "hdf5 file")
	cmd.Flags().String("dataset", "times_data", "array name inside the file")
	cmd.Flags().Int("bins", app.DefaultHistBins, "number of bins")
	return cmd
}

func synthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate synthetic lsh result files from random unit vectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(cmd)
			if err != nil {
				return err
			}
			return r.RunSynth(commonOptions(cmd))
		},
	}
	cmd.Flags().String("dataset", "", "dataset prefix of the generated files")
	return cmd
}

func inferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Convert sketch collision rate into inner product estimate",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(cmd)
			if err != nil {
				return err
			}
			rate, _ := cmd.Flags().GetFloat64("rate")
			r.Infer(rate)
			return nil
		},
	}
	cmd.Flags().Float64("rate", 1, "collision rate in [0, 1]")
	return cmd
}

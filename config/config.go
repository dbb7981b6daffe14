// Package config handles configuration loading and validation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Store backends
const (
	BackendH5     = "h5"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendPureKV = "purekv"
)

// Metric filters of the errors command
const (
	MetricAll = "all"
	MetricPQ  = "pq"
	MetricLSH = "lsh"
)

// Thresholds of lsh variants: the cosine range shared with pq variants
// or counts of agreeing bits 0..bits-1
const (
	LSHThresholdsCosine = "cosine"
	LSHThresholdsBits   = "bits"
)

// Config holds all tool configuration.
type Config struct {
	DataDir string `envconfig:"IPEVAL_DATA_DIR" yaml:"data_dir"`
	// Datasets are file name prefixes, one plot column each
	Datasets []string `yaml:"datasets"`
	// Variants are file name suffixes, e.g. euclidean_8_no_perm or lsh_total
	Variants []string `yaml:"variants"`
	// TruthVariant is the file with true_inner used for lsh files
	TruthVariant string `envconfig:"IPEVAL_TRUTH_VARIANT" yaml:"truth_variant"`
	Seed         uint64 `envconfig:"IPEVAL_SEED" yaml:"seed"`
	Strict       bool   `envconfig:"IPEVAL_STRICT" yaml:"strict"`

	Log    LogConfig    `yaml:"log"`
	Sweep  SweepConfig  `yaml:"sweep"`
	Errors ErrorsConfig `yaml:"errors"`
	Quick  QuickConfig  `yaml:"quick"`
	LSH    LSHConfig    `yaml:"lsh"`
	Store  StoreConfig  `yaml:"store"`
	Synth  SynthConfig  `yaml:"synth"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `envconfig:"IPEVAL_LOG_LEVEL" yaml:"level"`
}

// SweepConfig holds thresholds range and precision/recall settings.
type SweepConfig struct {
	Start   float64 `envconfig:"IPEVAL_SWEEP_START" yaml:"start"`
	End     float64 `envconfig:"IPEVAL_SWEEP_END" yaml:"end"`
	Step    float64 `envconfig:"IPEVAL_SWEEP_STEP" yaml:"step"`
	Epsilon float64 `envconfig:"IPEVAL_SWEEP_EPSILON" yaml:"epsilon"`
	K       int     `envconfig:"IPEVAL_SWEEP_K" yaml:"k"`
	Formula string  `envconfig:"IPEVAL_SWEEP_FORMULA" yaml:"formula"`
	Workers int     `envconfig:"IPEVAL_WORKERS" yaml:"workers"`
	// LSHThresholds is cosine or bits
	LSHThresholds string `envconfig:"IPEVAL_SWEEP_LSH_THRESHOLDS" yaml:"lsh_thresholds"`
}

// ErrorsConfig holds error distribution settings.
type ErrorsConfig struct {
	TopN       int    `envconfig:"IPEVAL_ERRORS_TOP_N" yaml:"top_n"`
	Cap        int    `envconfig:"IPEVAL_ERRORS_CAP" yaml:"cap"`
	GridPoints int    `envconfig:"IPEVAL_ERRORS_GRID_POINTS" yaml:"grid_points"`
	Metric     string `envconfig:"IPEVAL_ERRORS_METRIC" yaml:"metric"`
}

// QuickConfig limits work of quick runs.
type QuickConfig struct {
	Rows int `envconfig:"IPEVAL_QUICK_ROWS" yaml:"rows"`
	Cap  int `envconfig:"IPEVAL_QUICK_CAP" yaml:"cap"`
}

// LSHConfig describes sketches layout of lsh result files.
type LSHConfig struct {
	Sketches      int `envconfig:"IPEVAL_LSH_SKETCHES" yaml:"sketches"`
	BitsPerSketch int `envconfig:"IPEVAL_LSH_BITS" yaml:"bits_per_sketch"`
}

// HashBits is the number of compared bits of a single pair: one sketch for
// lsh_single files, all of them for lsh_total
func (c LSHConfig) HashBits(total bool) float64 {
	if !total {
		return float64(c.BitsPerSketch)
	}
	return float64(c.Sketches * c.BitsPerSketch)
}

// StoreConfig holds result store settings.
type StoreConfig struct {
	Backend       string `envconfig:"IPEVAL_STORE" yaml:"backend"`
	Path          string `envconfig:"IPEVAL_STORE_PATH" yaml:"path"`
	RedisURL      string `envconfig:"IPEVAL_REDIS_URL" yaml:"redis_url"`
	Prefix        string `envconfig:"IPEVAL_STORE_PREFIX" yaml:"prefix"`
	PureKVAddress string `envconfig:"IPEVAL_PUREKV_ADDRESS" yaml:"purekv_address"`
	PureKVTimeout int    `envconfig:"IPEVAL_PUREKV_TIMEOUT" yaml:"purekv_timeout"`
}

// SynthConfig holds synthetic lsh result file settings.
type SynthConfig struct {
	Dataset    string `yaml:"dataset"`
	Queries    int    `yaml:"queries"`
	Candidates int    `yaml:"candidates"`
	Dims       int    `yaml:"dims"`
	Neighbors  int    `yaml:"neighbors"`
}

// Default returns configuration from the embedded defaults only.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing default config: %w", err)
	}
	return cfg, nil
}

// Load loads defaults, optional config file and environment variables, in that order.
func Load(configPath string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Sweep.Step == 0 || (c.Sweep.End-c.Sweep.Start)*c.Sweep.Step <= 0 {
		errs = append(errs, fmt.Sprintf("sweep range [%v, %v) can't be walked with step %v", c.Sweep.Start, c.Sweep.End, c.Sweep.Step))
	}
	if c.Sweep.Epsilon < 0 {
		errs = append(errs, "sweep epsilon must be non-negative")
	}
	if c.Sweep.K < 1 {
		errs = append(errs, "sweep k must be positive")
	}
	validFormulas := map[string]bool{"exact": true, "positional": true}
	if !validFormulas[c.Sweep.Formula] {
		errs = append(errs, fmt.Sprintf("invalid sweep formula: %s (must be exact or positional)", c.Sweep.Formula))
	}
	if c.Sweep.LSHThresholds != LSHThresholdsCosine && c.Sweep.LSHThresholds != LSHThresholdsBits {
		errs = append(errs, fmt.Sprintf("invalid lsh thresholds: %s (must be cosine or bits)", c.Sweep.LSHThresholds))
	}
	if c.Sweep.Workers < 1 {
		errs = append(errs, "workers must be positive")
	}

	validMetrics := map[string]bool{MetricAll: true, MetricPQ: true, MetricLSH: true}
	if !validMetrics[c.Errors.Metric] {
		errs = append(errs, fmt.Sprintf("invalid errors metric: %s (must be all, pq or lsh)", c.Errors.Metric))
	}
	if c.Errors.Cap < 1 || c.Quick.Cap < 1 {
		errs = append(errs, "sample caps must be positive")
	}
	if c.Quick.Rows < 1 {
		errs = append(errs, "quick rows must be positive")
	}
	if c.LSH.Sketches < 1 || c.LSH.BitsPerSketch < 1 || c.LSH.BitsPerSketch > 64 {
		errs = append(errs, "lsh needs positive sketches number and 1..64 bits per sketch")
	}

	validBackends := map[string]bool{BackendH5: true, BackendMemory: true, BackendRedis: true, BackendPureKV: true}
	if !validBackends[c.Store.Backend] {
		errs = append(errs, fmt.Sprintf("invalid store backend: %s (must be h5, memory, redis or purekv)", c.Store.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// DataPath resolves file name against the data dir
func (c *Config) DataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// ResultFile is <data_dir>/<dataset>_<variant>.hdf5
func (c *Config) ResultFile(dataset, variant string) string {
	return c.DataPath(dataset + "_" + variant + ".hdf5")
}

// StorePath resolves h5 store location
func (c *Config) StorePath() string {
	return c.DataPath(c.Store.Path)
}

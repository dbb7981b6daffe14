package app

import (
	"errors"
	"io"

	"github.com/gasparian/ipeval-go/common"
	"github.com/gasparian/ipeval-go/config"
)

// Default output files
const (
	DefaultErrorsPlot = "errors.png"
	DefaultCurvesPlot = "curves.png"
	DefaultHistBins   = 20
)

var (
	// ErrNoInputs returned when none of the configured result files could be used
	ErrNoInputs = errors.New("no result files to process")
	// ErrUnknownBackend returned for unsupported store backend
	ErrUnknownBackend = errors.New("unknown store backend")
	// ErrNoCurves returned when store has nothing for the requested k
	ErrNoCurves = errors.New("no stored curves for the requested k")
)

// Options are command line switches shared by the commands
type Options struct {
	Dataset  string
	K        int
	Force    bool
	Quick    bool
	PerQuery bool
	Top      bool
	Metric   string
	Out      string
	Prompt   bool
	Progress bool
}

// Runner executes tool commands against the configured data dir and result store
type Runner struct {
	Config *config.Config
	Logger *common.Logger
	RunID  string
	// In and Out are used for the file name prompt and text output
	In  io.Reader
	Out io.Writer
}

// Package render draws density and precision/recall curves into png files
// and prints histograms to the terminal
package render

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aybabtme/uniplot/histogram"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	// PanelWidth of a single subplot
	PanelWidth = 5 * vg.Inch
	// PanelHeight of a single subplot
	PanelHeight = 4 * vg.Inch
	// HistogramWidth is the width of the widest terminal histogram bar
	HistogramWidth = 5
)

var (
	// ErrNoPanels returned when there is nothing to draw
	ErrNoPanels = errors.New("nothing to draw")
	// ErrCurveShape returned when curve x and y have different length
	ErrCurveShape = errors.New("curve x and y must have the same length")
)

// Curve is a single labeled line
type Curve struct {
	Label string
	X     []float64
	Y     []float64
}

// Panel is a single subplot
type Panel struct {
	Title  string
	XLabel string
	YLabel string
	Curves []Curve
}

func newPlot(panel Panel) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = panel.Title
	p.X.Label.Text = panel.XLabel
	p.Y.Label.Text = panel.YLabel
	p.Add(plotter.NewGrid())
	for i, c := range panel.Curves {
		if len(c.X) != len(c.Y) {
			return nil, fmt.Errorf("%w: %s", ErrCurveShape, c.Label)
		}
		pts := make(plotter.XYs, len(c.X))
		for j := range c.X {
			pts[j].X = c.X[j]
			pts[j].Y = c.Y[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)
		p.Add(line)
		if c.Label != "" {
			p.Legend.Add(c.Label, line)
		}
	}
	p.Legend.Top = true
	return p, nil
}

// Grid draws panels laid out as rows x columns into png writer.
// Rows may have different length, missing cells stay blank.
func Grid(w io.Writer, panels [][]Panel) error {
	rows := len(panels)
	cols := 0
	for _, row := range panels {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if rows == 0 || cols == 0 {
		return ErrNoPanels
	}
	plots := make([][]*plot.Plot, rows)
	for i, row := range panels {
		plots[i] = make([]*plot.Plot, cols)
		for j, panel := range row {
			p, err := newPlot(panel)
			if err != nil {
				return err
			}
			plots[i][j] = p
		}
	}

	img := vgimg.New(vg.Length(cols)*PanelWidth, vg.Length(rows)*PanelHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows,
		Cols: cols,
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j, p := range plots[i] {
			if p != nil {
				p.Draw(canvases[i][j])
			}
		}
	}
	png := vgimg.PngCanvas{Canvas: img}
	_, err := png.WriteTo(w)
	return err
}

// SaveGrid writes panels grid into png file
func SaveGrid(path string, panels [][]Panel) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Grid(f, panels); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// PrintHistogram prints text histogram of the data with the given number of bins
func PrintHistogram(w io.Writer, data []float64, bins int) error {
	if len(data) == 0 {
		return ErrNoPanels
	}
	hist := histogram.Hist(bins, data)
	return histogram.Fprint(w, hist, histogram.Linear(HistogramWidth))
}

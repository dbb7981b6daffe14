package render

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPanel(title string) Panel {
	return Panel{
		Title:  title,
		XLabel: "error",
		YLabel: "density",
		Curves: []Curve{
			{Label: "E8NP", X: []float64{-1, 0, 1}, Y: []float64{0.1, 0.8, 0.1}},
			{Label: "LSH_T", X: []float64{-1, 0, 1}, Y: []float64{0.2, 0.6, 0.2}},
		},
	}
}

func TestGrid(t *testing.T) {
	var buf bytes.Buffer
	err := Grid(&buf, [][]Panel{
		{testPanel("glove"), testPanel("nytimes")},
		{testPanel("deep")},
	})
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Greater(t, cfg.Width, cfg.Height)
}

func TestSaveGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.png")
	require.NoError(t, SaveGrid(path, [][]Panel{{testPanel("glove")}}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestGridErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Grid(&buf, nil), ErrNoPanels)
	bad := Panel{Curves: []Curve{{Label: "x", X: []float64{1, 2}, Y: []float64{1}}}}
	assert.ErrorIs(t, Grid(&buf, [][]Panel{{bad}}), ErrCurveShape)
}

func TestPrintHistogram(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintHistogram(&buf, []float64{0.1, 0.2, 0.2, 0.3, 0.9}, 4))
	assert.NotZero(t, buf.Len())
	assert.ErrorIs(t, PrintHistogram(&buf, nil, 4), ErrNoPanels)
}

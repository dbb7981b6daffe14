package common

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(LevelInfo, &buf)
	logger.Debug().Msg("Test Debug")
	assert.Zero(t, buf.Len(), "debug must be filtered on info level")
	logger.Warn().Msg("Test Warn")
	logger.Info().Msg("Test Info")
	logger.Error().Msg("Test Err")
	if buf.Len() == 0 {
		t.Fatal("Loggers returned nothing")
	}
	assert.Contains(t, buf.String(), "Test Err")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestTimer(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(LevelInfo, &buf)
	Timer(logger, "sweep")()
	assert.Contains(t, buf.String(), "step=sweep")
}

func TestRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	require.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestTruncateRows(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	tr := TruncateRows(m, 2)
	r, c := tr.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []float64{3, 4}, tr.RawRowView(1))
	assert.Same(t, m, TruncateRows(m, 0))
	assert.Same(t, m, TruncateRows(m, 5))
}

func TestConvert(t *testing.T) {
	assert.Equal(t, []int{3, 7}, ConvertToInt([]int32{3, 7}))
	assert.True(t, SameShape(mat.NewDense(2, 3, nil), mat.NewDense(2, 3, nil)))
	assert.False(t, SameShape(mat.NewDense(2, 3, nil), mat.NewDense(3, 2, nil)))
	assert.Len(t, TruncateNeighbors([][]int{{1}, {2}, {3}}, 2), 2)
}

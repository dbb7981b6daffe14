package annbench

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/hdf5"
)

func writeFixture(t *testing.T, path string, arrays map[string]*mat.Dense, neighbors [][]int) {
	t.Helper()
	w, err := CreateFile(path)
	require.NoError(t, err)
	for name, m := range arrays {
		require.NoError(t, w.WriteMatrix(name, m))
	}
	if neighbors != nil {
		require.NoError(t, w.WriteNeighbors(Neighbors, neighbors))
	}
	require.NoError(t, w.Close())
}

func TestLoadResultSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glove-100-angular_euclidean_8_no_perm.hdf5")
	est := mat.NewDense(3, 4, []float64{
		0.5, 0.25, -0.5, 1,
		0, 0.75, 0.125, -1,
		0.5, 0.5, 0.5, 0.5,
	})
	truth := mat.NewDense(3, 4, []float64{
		0.5, 0.5, -0.25, 1,
		0.25, 0.75, 0, -1,
		0.5, 0.25, 0.5, 0.75,
	})
	writeFixture(t, path, map[string]*mat.Dense{EstimatedInner: est, TrueInner: truth}, [][]int{{3, 0}, {1, 2}, {3, 0}})

	t.Run("Full", func(t *testing.T) {
		rs, err := LoadResultSet(path, LoadOptions{WithNeighbors: true})
		require.NoError(t, err)
		assert.True(t, mat.Equal(est, rs.Estimated))
		assert.True(t, mat.Equal(truth, rs.True))
		assert.Equal(t, [][]int{{3, 0}, {1, 2}, {3, 0}}, rs.Neighbors)
		assert.Equal(t, "E8NP", rs.Variant.Label())
	})

	t.Run("Quick", func(t *testing.T) {
		rs, err := LoadResultSet(path, LoadOptions{MaxRows: 2})
		require.NoError(t, err)
		r, c := rs.Estimated.Dims()
		assert.Equal(t, 2, r)
		assert.Equal(t, 4, c)
		assert.Nil(t, rs.Neighbors)
	})
}

func TestLoadResultSetCollisions(t *testing.T) {
	dir := t.TempDir()
	truth := mat.NewDense(1, 3, []float64{1, 0, -1})

	probPath := filepath.Join(dir, "lsh_single.hdf5")
	writeFixture(t, probPath, map[string]*mat.Dense{CollisionProb: mat.NewDense(1, 3, []float64{1, 0.5, 0})}, nil)
	rs, err := LoadResultSet(probPath, LoadOptions{Truth: truth})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 0, -1}, rs.Estimated.RawRowView(0), 1e-9)
	assert.Same(t, truth, rs.True)

	countsPath := filepath.Join(dir, "lsh_total.hdf5")
	writeFixture(t, countsPath, map[string]*mat.Dense{Collisions: mat.NewDense(1, 3, []float64{128, 64, 0})}, nil)
	rs, err = LoadResultSet(countsPath, LoadOptions{Truth: truth, HashBits: 128})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 0, -1}, rs.Estimated.RawRowView(0), 1e-9)

	_, err = LoadResultSet(countsPath, LoadOptions{HashBits: 128})
	assert.ErrorIs(t, err, ErrNoTruth)
}

func TestLoadResultSetErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadResultSet(filepath.Join(dir, "missing.hdf5"), LoadOptions{})
	assert.ErrorIs(t, err, ErrMissingInput)

	badShape := filepath.Join(dir, "euclidean_8_perm.hdf5")
	writeFixture(t, badShape, map[string]*mat.Dense{
		EstimatedInner: mat.NewDense(2, 3, nil),
		TrueInner:      mat.NewDense(2, 4, nil),
	}, nil)
	_, err = LoadResultSet(badShape, LoadOptions{})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	noEstimates := filepath.Join(dir, "truth_only.hdf5")
	writeFixture(t, noEstimates, map[string]*mat.Dense{TrueInner: mat.NewDense(2, 4, nil)}, nil)
	_, err = LoadResultSet(noEstimates, LoadOptions{})
	assert.ErrorIs(t, err, ErrNoEstimates)
}

func TestLoadVector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "time_kmeans.hdf5")
	w, err := CreateFile(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteVector("times_data", []float64{1.5, 2, 0.25}))
	require.NoError(t, w.Close())

	v, err := LoadVector(path, "times_data")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2, 0.25}, v)

	_, err = LoadMatrix(path, "times_data")
	assert.ErrorIs(t, err, ErrRank)
}

func TestGetArrayFromHDF5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arrays.hdf5")
	writeFixture(t, path, map[string]*mat.Dense{TrueInner: mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})}, nil)

	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	require.NoError(t, err)
	defer f.Close()

	// repeated reads must not keep dataspaces open
	for i := 0; i < 3; i++ {
		vals, dims, err := GetArrayFromHDF5(f, TrueInner)
		require.NoError(t, err)
		assert.Equal(t, []uint{2, 3}, dims)
		assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, vals)
	}
	vals, err := GetVectorFromHDF5(f, TrueInner)
	require.NoError(t, err)
	assert.Len(t, vals, 6)

	_, _, err = GetArrayFromHDF5(f, "missing")
	assert.Error(t, err)
}

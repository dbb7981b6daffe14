package h5

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gasparian/ipeval-go/store"
	"github.com/gasparian/ipeval-go/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/hdf5"
)

func TestH5Store(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec_prec_results.hdf5")
	s, err := Open(path)
	require.NoError(t, err)
	storetest.Run(t, s)
	require.NoError(t, s.Close())

	t.Run("Reopen", func(t *testing.T) {
		reopened, err := Open(path)
		require.NoError(t, err)
		defer reopened.Close()

		keys, err := reopened.Keys()
		require.NoError(t, err)
		assert.Equal(t, []store.Key{{Variant: "E8NP", K: 10}, {Variant: "LSH_T", K: 100}}, keys)

		got, err := reopened.Get(store.Key{Variant: "E8NP", K: 10})
		require.NoError(t, err)
		want := storetest.Entry()
		want.Recalls[0] = 0.5
		storetest.AssertBitIdentical(t, want, got)

		perQuery, err := reopened.Get(store.Key{Variant: "LSH_T", K: 100})
		require.NoError(t, err)
		assert.Equal(t, 2, perQuery.Rows)
	})
}

func TestH5StoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.hdf5")
	key := store.Key{Variant: "E8NP", K: 10}
	e := storetest.Entry()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(key, e, false))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	got, err := s.Get(key)
	require.NoError(t, err)
	storetest.AssertBitIdentical(t, e, got)
	assert.ErrorIs(t, s.Put(key, e, false), store.ErrExists)
	require.NoError(t, s.Close())
}

// writeCurvesOnly writes groups holding recalls, precisions and percent_passed only
func writeCurvesOnly(t *testing.T, path string) {
	t.Helper()
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	require.NoError(t, err)
	defer f.Close()

	for _, leaf := range []struct {
		variant string
		dims    []uint
		vals    []float64
	}{
		{"E8NP", []uint{3}, []float64{1, 0.5, 0.25}},
		{"LSH_T", []uint{2, 3}, []float64{1, 0.5, 0.25, 1, 0.75, 0}},
	} {
		vg, err := f.CreateGroup(leaf.variant)
		require.NoError(t, err)
		kg, err := vg.CreateGroup("10")
		require.NoError(t, err)
		for _, name := range []string{store.Recalls, store.Precisions, store.PercentPassed} {
			require.NoError(t, writeArray(kg, name, leaf.dims, leaf.vals))
		}
		kg.Close()
		vg.Close()
	}
}

func TestH5StoreWithoutThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec_prec_results.hdf5")
	writeCurvesOnly(t, path)

	_, err := Open(path)
	assert.ErrorIs(t, err, store.ErrBadEntry)
	_, err = OpenWithThresholds(path, []float64{-1, 0})
	assert.ErrorIs(t, err, store.ErrBadEntry)

	s, err := OpenWithThresholds(path, []float64{-1, 0, 0.5})
	require.NoError(t, err)
	defer s.Close()

	averaged, err := s.Get(store.Key{Variant: "E8NP", K: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, averaged.Rows)
	assert.Equal(t, []float64{-1, 0, 0.5}, averaged.Thresholds)
	assert.Equal(t, []float64{1, 0.5, 0.25}, averaged.Recalls)

	perQuery, err := s.Get(store.Key{Variant: "LSH_T", K: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, perQuery.Rows)
	assert.Equal(t, []float64{-1, 0, 0.5}, perQuery.Thresholds)
	assert.Len(t, perQuery.PercentPassed, 6)
}

func TestH5StoreFailedFlushKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.hdf5")
	first := store.Key{Variant: "E8NP", K: 10}
	second := store.Key{Variant: "M16P", K: 10}

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(first, storetest.Entry(), false))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(second, storetest.Entry(), false))
	// temporary file can't be created in place of a non-empty directory
	require.NoError(t, os.MkdirAll(filepath.Join(path+".tmp", "busy"), 0o755))
	assert.Error(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	keys, err := reopened.Keys()
	require.NoError(t, err)
	assert.Equal(t, []store.Key{first}, keys)
	got, err := reopened.Get(first)
	require.NoError(t, err)
	storetest.AssertBitIdentical(t, storetest.Entry(), got)
}

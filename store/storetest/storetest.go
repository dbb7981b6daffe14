// Package storetest holds checks shared by all store backends
package storetest

import (
	"math"
	"testing"

	"github.com/gasparian/ipeval-go/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Entry returns averaged curves with values that don't survive float32 conversion
func Entry() *store.Entry {
	return &store.Entry{
		Rows:          1,
		Thresholds:    []float64{-1, -0.99, 0.5, 0.99},
		Recalls:       []float64{1, 0.9999999999, 1.0 / 3, 0.000999000999},
		Precisions:    []float64{0.1, 0.2, math.Nextafter(0.7, 1), 1},
		PercentPassed: []float64{1, 0.95, 0.25, 0.01},
	}
}

func bitsOf(vals []float64) []uint64 {
	res := make([]uint64, len(vals))
	for i, v := range vals {
		res[i] = math.Float64bits(v)
	}
	return res
}

// AssertBitIdentical compares entries arrays bit by bit
func AssertBitIdentical(t *testing.T, want, got *store.Entry) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.Rows, got.Rows)
	for name, arr := range want.Arrays() {
		assert.Equal(t, bitsOf(arr), bitsOf(got.Arrays()[name]), name)
	}
}

// Run checks put/get/overwrite/keys contract of the backend; s must be empty
func Run(t *testing.T, s store.Store) {
	key := store.Key{Variant: "E8NP", K: 10}
	e := Entry()

	t.Run("Missing", func(t *testing.T) {
		has, err := s.Has(key)
		require.NoError(t, err)
		assert.False(t, has)
		_, err = s.Get(key)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		require.NoError(t, s.Put(key, e, false))
		has, err := s.Has(key)
		require.NoError(t, err)
		assert.True(t, has)
		got, err := s.Get(key)
		require.NoError(t, err)
		AssertBitIdentical(t, e, got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		other := Entry()
		other.Recalls[0] = 0.5
		assert.ErrorIs(t, s.Put(key, other, false), store.ErrExists)
		got, err := s.Get(key)
		require.NoError(t, err)
		assert.Equal(t, 1.0, got.Recalls[0])

		require.NoError(t, s.Put(key, other, true))
		got, err = s.Get(key)
		require.NoError(t, err)
		assert.Equal(t, 0.5, got.Recalls[0])
	})

	t.Run("PerQuery", func(t *testing.T) {
		perQuery := &store.Entry{
			Rows:          2,
			Thresholds:    []float64{0, 1},
			Recalls:       []float64{1, 0.5, 1, 0.25},
			Precisions:    []float64{0.5, 1, 0.25, 1},
			PercentPassed: []float64{1, 0.1, 1, 0.2},
		}
		k := store.Key{Variant: "LSH_T", K: 100}
		require.NoError(t, s.Put(k, perQuery, false))
		got, err := s.Get(k)
		require.NoError(t, err)
		AssertBitIdentical(t, perQuery, got)
	})

	t.Run("Keys", func(t *testing.T) {
		keys, err := s.Keys()
		require.NoError(t, err)
		assert.Equal(t, []store.Key{{Variant: "E8NP", K: 10}, {Variant: "LSH_T", K: 100}}, keys)
	})

	t.Run("BadInput", func(t *testing.T) {
		assert.ErrorIs(t, s.Put(store.Key{Variant: "", K: 10}, e, true), store.ErrBadKey)
		assert.ErrorIs(t, s.Put(key, &store.Entry{}, true), store.ErrBadEntry)
	})
}

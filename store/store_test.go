package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	k := Key{Variant: "E8NP", K: 10}
	assert.Equal(t, "E8NP/10", k.String())
	parsed, err := ParseKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)
	assert.NoError(t, k.Validate())

	for _, bad := range []string{"E8NP", "/10", "E8NP/x"} {
		_, err := ParseKey(bad)
		assert.ErrorIs(t, err, ErrBadKey, bad)
	}
	assert.ErrorIs(t, Key{Variant: "a/b", K: 1}.Validate(), ErrBadKey)
	assert.ErrorIs(t, Key{Variant: "E8NP"}.Validate(), ErrBadKey)
}

func TestCodec(t *testing.T) {
	vals := []float64{0.1, -1, math.Inf(1), math.SmallestNonzeroFloat64, 1.0 / 3}
	decoded, err := DecodeFloats(EncodeFloats(vals))
	require.NoError(t, err)
	for i := range vals {
		assert.Equal(t, math.Float64bits(vals[i]), math.Float64bits(decoded[i]))
	}
	_, err = DecodeFloats([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrCodec)
}

func TestEntryArrays(t *testing.T) {
	e := &Entry{
		Rows:          2,
		Thresholds:    []float64{0, 0.5},
		Recalls:       []float64{1, 0.5, 1, 0.25},
		Precisions:    []float64{0.2, 0.4, 0.3, 0.6},
		PercentPassed: []float64{1, 0.5, 1, 0.4},
	}
	require.NoError(t, e.Validate())
	back, err := FromArrays(e.Arrays())
	require.NoError(t, err)
	assert.Equal(t, e, back)

	e.Recalls = e.Recalls[:3]
	assert.ErrorIs(t, e.Validate(), ErrBadEntry)
	_, err = FromArrays(map[string][]float64{})
	assert.ErrorIs(t, err, ErrBadEntry)
}

func TestSortKeys(t *testing.T) {
	keys := []Key{{"M16P", 10}, {"E8NP", 100}, {"E8NP", 10}}
	SortKeys(keys)
	assert.Equal(t, []Key{{"E8NP", 10}, {"E8NP", 100}, {"M16P", 10}}, keys)
}

func TestEntryCodec(t *testing.T) {
	e := &Entry{
		Rows:          2,
		Thresholds:    []float64{0, 0.5},
		Recalls:       []float64{1, 0.5, 1, 0.25},
		Precisions:    []float64{0.2, 0.4, 0.3, 0.6},
		PercentPassed: []float64{1, 0.5, 1, 0.4},
	}
	back, err := DecodeEntry(EncodeEntry(e))
	require.NoError(t, err)
	assert.Equal(t, e, back)

	_, err = DecodeEntry(EncodeFloats([]float64{2, 2, 0}))
	assert.ErrorIs(t, err, ErrBadEntry)
}

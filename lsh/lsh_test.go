package lsh

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestInferEstimate(t *testing.T) {
	t.Parallel()
	if math.Abs(InferEstimate(1.0)-1.0) > tol {
		t.Error("full collision must give cos(0) = 1")
	}
	if math.Abs(InferEstimate(0.0)+1.0) > tol {
		t.Error("no collisions must give cos(pi) = -1")
	}
	if math.Abs(InferEstimate(0.5)) > tol {
		t.Error("half collisions must give orthogonal vectors")
	}
	assert.InDelta(t, 1.0, InferEstimate(1.3), tol)
	assert.InDelta(t, -1.0, InferEstimate(-0.2), tol)
}

func TestInferEstimates(t *testing.T) {
	t.Parallel()
	rates := mat.NewDense(2, 2, []float64{1, 0, 0.5, 1})
	est := InferEstimates(rates)
	assert.InDelta(t, 1.0, est.At(0, 0), tol)
	assert.InDelta(t, -1.0, est.At(0, 1), tol)
	assert.InDelta(t, 0.0, est.At(1, 0), tol)
	assert.Equal(t, 0.5, rates.At(1, 0), "input must stay untouched")
}

func TestCollisionRates(t *testing.T) {
	t.Parallel()
	counts := mat.NewDense(1, 3, []float64{64, 32, 0})
	rates := CollisionRates(counts, 64)
	assert.Equal(t, []float64{1, 0.5, 0}, rates.RawRowView(0))
	assert.Equal(t, 0.0, CollisionRate(3, 0))
}

func TestCollisions(t *testing.T) {
	t.Parallel()
	a := []uint64{0xFF, 0}
	b := []uint64{0x0F, 0}
	count, err := Collisions(a, b, 8)
	require.NoError(t, err)
	assert.Equal(t, 4+8, count)

	count, err = Collisions([]uint64{^uint64(0)}, []uint64{^uint64(0)}, MaxPlanes)
	require.NoError(t, err)
	assert.Equal(t, MaxPlanes, count)

	_, err = Collisions(a, b[:1], 8)
	assert.ErrorIs(t, err, sketchLenErr)
	_, err = Collisions(a, b, 65)
	assert.ErrorIs(t, err, planesNumberErr)
}

func TestNewHasher(t *testing.T) {
	t.Parallel()
	_, err := NewHasher(HasherConfig{Dims: 0, NPlanes: 8, NSketches: 1})
	assert.ErrorIs(t, err, dimensionsNumberErr)
	_, err = NewHasher(HasherConfig{Dims: 3, NPlanes: 65, NSketches: 1})
	assert.ErrorIs(t, err, planesNumberErr)
	_, err = NewHasher(HasherConfig{Dims: 3, NPlanes: 8, NSketches: 0})
	assert.ErrorIs(t, err, sketchesNumberErr)

	hasher, err := NewHasher(HasherConfig{Dims: 3, NPlanes: 8, NSketches: 1})
	require.NoError(t, err)
	_, err = hasher.GetHashes([]float64{1, 0, 0})
	assert.ErrorIs(t, err, hasherNotBuiltErr)
}

func TestGetHashes(t *testing.T) {
	t.Parallel()
	hasher, err := NewHasher(HasherConfig{Dims: 4, NPlanes: 64, NSketches: 2, Seed: 42})
	require.NoError(t, err)
	hasher.Build()

	vec := []float64{0.1, -0.4, 2.0, 0.3}
	h1, err := hasher.GetHashes(vec)
	require.NoError(t, err)
	require.Len(t, h1, 2)

	// sign sketches don't depend on the vector length
	h2, err := hasher.GetHashes([]float64{0.2, -0.8, 4.0, 0.6})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	rate, err := SketchCollisionRate(h1, h2, 64)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)

	_, err = hasher.GetHashes([]float64{1})
	assert.ErrorIs(t, err, vecDimsErr)
}

func TestCollisionRateEstimatesAngle(t *testing.T) {
	t.Parallel()
	hasher, err := NewHasher(HasherConfig{Dims: 2, NPlanes: 64, NSketches: 64, Seed: 7})
	require.NoError(t, err)
	hasher.Build()

	a := []float64{1, 0}
	b := Normalize([]float64{1, 1})
	ha, err := hasher.GetHashes(a)
	require.NoError(t, err)
	hb, err := hasher.GetHashes(b)
	require.NoError(t, err)
	rate, err := SketchCollisionRate(ha, hb, 64)
	require.NoError(t, err)
	// 4096 bits; estimate of cos(pi/4) should be close
	assert.InDelta(t, Dot(a, b), InferEstimate(rate), 0.1)
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	v := Normalize([]float64{3, 4})
	assert.InDelta(t, 0.6, v[0], tol)
	assert.InDelta(t, 0.8, v[1], tol)
	assert.True(t, IsZeroVectorBlas(NewVec(Normalize([]float64{0, 0}))))
	assert.False(t, IsZeroVectorBlas(NewVec(v)))
}

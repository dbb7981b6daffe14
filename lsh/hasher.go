package lsh

import (
	"math/bits"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/stat/distuv"
)

// NewHasher validates config and creates not yet built hasher
func NewHasher(config HasherConfig) (*Hasher, error) {
	if config.Dims <= 0 {
		return nil, dimensionsNumberErr
	}
	if config.NPlanes <= 0 || config.NPlanes > MaxPlanes {
		return nil, planesNumberErr
	}
	if config.NSketches <= 0 {
		return nil, sketchesNumberErr
	}
	return &Hasher{Config: config}, nil
}

// getRandomPlane draws hyperplane normal from the standard gaussian,
// so the direction is uniform on the sphere
func getRandomPlane(dims int, norm distuv.Normal) plane {
	coefs := make([]float64, dims)
	for i := range coefs {
		coefs[i] = norm.Rand()
	}
	return plane{n: NewVec(coefs)}
}

// Build generates the hyperplanes for every sketch
func (hasher *Hasher) Build() {
	hasher.mutex.Lock()
	defer hasher.mutex.Unlock()

	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(hasher.Config.Seed)}
	sketches := make([][]plane, hasher.Config.NSketches)
	for s := range sketches {
		planes := make([]plane, hasher.Config.NPlanes)
		for i := range planes {
			planes[i] = getRandomPlane(hasher.Config.Dims, norm)
		}
		sketches[s] = planes
	}
	hasher.sketches = sketches
}

// getHash sets i-th bit when the vector lies on the positive side of the i-th plane
func getHash(planes []plane, vec blas64.Vector) uint64 {
	var hash uint64
	for i := range planes {
		if blas64.Dot(vec, planes[i].n) >= 0 {
			hash |= (1 << uint(i))
		}
	}
	return hash
}

// GetHashes returns one sketch per planes set for the given vector
func (hasher *Hasher) GetHashes(inpVec []float64) ([]uint64, error) {
	hasher.mutex.RLock()
	defer hasher.mutex.RUnlock()

	if len(hasher.sketches) == 0 {
		return nil, hasherNotBuiltErr
	}
	if len(inpVec) != hasher.Config.Dims {
		return nil, vecDimsErr
	}
	vec := NewVec(inpVec)
	hashes := make([]uint64, len(hasher.sketches))
	for i, planes := range hasher.sketches {
		hashes[i] = getHash(planes, vec)
	}
	return hashes, nil
}

// Collisions counts agreeing bits among the first nPlanes bits of every sketch pair
func Collisions(a, b []uint64, nPlanes int) (int, error) {
	if len(a) != len(b) {
		return 0, sketchLenErr
	}
	if nPlanes <= 0 || nPlanes > MaxPlanes {
		return 0, planesNumberErr
	}
	mask := ^uint64(0)
	if nPlanes < MaxPlanes {
		mask = (uint64(1) << uint(nPlanes)) - 1
	}
	total := 0
	for i := range a {
		total += nPlanes - bits.OnesCount64((a[i]^b[i])&mask)
	}
	return total, nil
}

// SketchCollisionRate returns fraction of agreeing bits over all sketches
func SketchCollisionRate(a, b []uint64, nPlanes int) (float64, error) {
	count, err := Collisions(a, b, nPlanes)
	if err != nil {
		return 0, err
	}
	return CollisionRate(float64(count), float64(len(a)*nPlanes)), nil
}

package sweep

import (
	"fmt"
	"sort"
)

// TrueTopK returns indexes of the k largest scores, ties resolved by lower index
func TrueTopK(scores []float64, k int) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	if k < len(idx) {
		idx = idx[:k]
	}
	return idx
}

// FromNeighbors takes first k ids of precomputed neighbors list
// and checks that they address candidates row of length K
func FromNeighbors(neighbors []int, k, K int) ([]int, error) {
	if k < len(neighbors) {
		neighbors = neighbors[:k]
	}
	res := make([]int, len(neighbors))
	for i, id := range neighbors {
		if id < 0 || id >= K {
			return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrNeighborIndex, id, K)
		}
		res[i] = id
	}
	return res, nil
}

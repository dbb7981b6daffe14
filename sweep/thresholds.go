package sweep

import (
	"fmt"
	"math"
)

// Range generates values from start up to end exclusive with the given step,
// the same way numpy arange does: n = ceil((end - start) / step)
func Range(start, end, step float64) ([]float64, error) {
	if step == 0 || math.IsNaN(step) || (end-start)*step < 0 {
		return nil, fmt.Errorf("%w: start=%v end=%v step=%v", ErrBadStep, start, end, step)
	}
	n := int(math.Ceil((end-start)/step - 1e-9))
	if n <= 0 {
		return nil, ErrNoThresholds
	}
	res := make([]float64, n)
	for i := range res {
		res[i] = start + float64(i)*step
	}
	return res, nil
}

// IntegerRange generates start, start+1, ..., end-1, e.g. bits agreement counts of 64 bit sketch
func IntegerRange(start, end int) ([]float64, error) {
	return Range(float64(start), float64(end), 1)
}

// CheckThresholds validates that the sequence is non-empty and non-decreasing
func CheckThresholds(thresholds []float64) error {
	if len(thresholds) == 0 {
		return ErrNoThresholds
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] < thresholds[i-1] {
			return fmt.Errorf("%w: %v goes after %v", ErrThresholdsNotSorted, thresholds[i], thresholds[i-1])
		}
	}
	return nil
}

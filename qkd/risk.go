package qkd

import (
	"github.com/pkg/errors"
)

// Risk maps a mismatch rate onto [0, 1] relative to threshold. Rates above
// the threshold saturate at 1.
func Risk(rate, threshold float64) (float64, error) {
	if !(threshold > 0) {
		return 0, errors.Wrapf(ErrInvalidThreshold, "threshold %v", threshold)
	}
	if rate > threshold {
		return 1, nil
	}
	return rate / threshold, nil
}

package qkd

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func TestRisk(t *testing.T) {
	tcs := []struct {
		rate, threshold float64
		eRisk           float64
	}{
		{rate: 0.1, threshold: 0.2, eRisk: 0.5},
		{rate: 0.3, threshold: 0.2, eRisk: 1},
		{rate: 0, threshold: 0.2, eRisk: 0},
		{rate: 0.25, threshold: 0.25, eRisk: 1},
		{rate: 0.5, threshold: 1, eRisk: 0.5},
	}
	for _, tc := range tcs {
		got, err := Risk(tc.rate, tc.threshold)
		if err != nil {
			t.Errorf("Risk(%v, %v): unexpected error: %v", tc.rate, tc.threshold, err)
			continue
		}
		if math.Abs(got-tc.eRisk) > 1e-12 {
			t.Errorf("Risk(%v, %v) == %v, want %v", tc.rate, tc.threshold, got, tc.eRisk)
		}
	}
}

func TestRiskInvalidThreshold(t *testing.T) {
	for _, threshold := range []float64{0, -0.1, math.NaN()} {
		if _, err := Risk(0.1, threshold); !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("Risk(0.1, %v) error == %v, want ErrInvalidThreshold", threshold, err)
		}
	}
}

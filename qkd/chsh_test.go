package qkd

import (
	"math"
	"testing"

	"github.com/Glassar/dd2394-Security-Project/qkd/photon"
)

func TestCHSHEstimate(t *testing.T) {
	tcs := []struct {
		name     string
		buckets  CHSHBuckets
		eS       float64
		eEmpty   int
		eViolate bool
	}{{
		name:    "empty",
		buckets: CHSHBuckets{},
		eS:      0,
		eEmpty:  4,
	}, {
		name: "algebraic maximum",
		buckets: CHSHBuckets{
			{5, 0, 0, 5},
			{0, 5, 5, 0},
			{3, 0, 0, 0},
			{0, 0, 0, 7},
		},
		eS:       4,
		eViolate: true,
	}, {
		name: "uncorrelated",
		buckets: CHSHBuckets{
			{1, 1, 1, 1},
			{2, 2, 2, 2},
			{3, 3, 3, 3},
			{4, 4, 4, 4},
		},
		eS: 0,
	}, {
		name: "sparse bucket counts as zero",
		buckets: CHSHBuckets{
			{1, 0, 0, 0},
			{0, 0, 0, 0},
			{1, 0, 0, 0},
			{1, 0, 0, 0},
		},
		eS:       3,
		eEmpty:   1,
		eViolate: true,
	}}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.buckets.Estimate()
			if math.Abs(c.S-tc.eS) > 1e-9 {
				t.Errorf("S == %v, want %v", c.S, tc.eS)
			}
			if c.EmptyBuckets != tc.eEmpty {
				t.Errorf("EmptyBuckets == %d, want %d", c.EmptyBuckets, tc.eEmpty)
			}
			if c.Violates() != tc.eViolate {
				t.Errorf("Violates() == %v, want %v", c.Violates(), tc.eViolate)
			}
		})
	}
}

func TestCHSHBucketsAdd(t *testing.T) {
	var b CHSHBuckets
	if !b.Add(photon.Rectilinear, photon.Minus45, true, false) {
		t.Errorf("Add(Z, W) == false, want true")
	}
	if b[3][2] != 1 {
		t.Errorf("bucket 3 == %v, want a single 10 outcome", b[3])
	}
	if b.Add(photon.Plus45, photon.Rectilinear, true, true) {
		t.Errorf("Add(Y, Z) == true, want false")
	}
	if b.Total() != 1 {
		t.Errorf("Total() == %d, want 1", b.Total())
	}
}

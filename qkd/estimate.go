package qkd

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/Glassar/dd2394-Security-Project/qkd/bitmap"
	"github.com/Glassar/dd2394-Security-Project/qkd/photon"
)

// A Sample is the publicly disclosed part of a sifted key.
type Sample struct {
	// Positions holds the sampled indices into the sifted key, ascending.
	Positions []int
	Sender    bitmap.Dense
	Receiver  bitmap.Dense
}

// An Estimate is the outcome of spot-checking a sifted key.
type Estimate struct {
	Sample     Sample
	Mismatches int

	// Rate is Mismatches over the sample size, or 0 for an empty sample.
	Rate float64

	// Retained is the sifted key with every sampled position removed.
	Retained SiftedKey
}

// SampleSize returns the number of positions to spot-check in a sifted key of
// siftedLen bits.
func SampleSize(siftedLen, divisor int) int {
	if divisor <= 0 {
		return 0
	}
	return siftedLen / divisor
}

// SpotCheck discloses k positions of key, drawn uniformly without replacement
// from src, and measures how often the parties disagree on them. An empty key
// may be checked with k == 0, yielding a zero rate.
func SpotCheck(key SiftedKey, k int, src rand.Source) (Estimate, error) {
	n := key.Size()
	if n == 0 && k == 0 {
		return Estimate{
			Sample:   Sample{Positions: []int{}},
			Retained: key,
		}, nil
	}
	if k <= 0 || k > n {
		return Estimate{}, errors.Wrapf(ErrInsufficientSample, "sampling %d of %d sifted bits", k, n)
	}

	positions := make([]int, k)
	sampleuv.WithoutReplacement(positions, n, src)
	sort.Ints(positions)

	est := Estimate{Sample: Sample{Positions: positions}}
	keep := bitmap.Not(bitmap.Zeros(n))
	for _, p := range positions {
		keep.Flip(p)
		est.Sample.Sender.AppendBit(key.Sender.Get(p))
		est.Sample.Receiver.AppendBit(key.Receiver.Get(p))
	}
	est.Mismatches = bitmap.CountOnes(bitmap.XOr(est.Sample.Sender, est.Sample.Receiver))
	est.Rate = float64(est.Mismatches) / float64(k)

	est.Retained.Sender = bitmap.Select(key.Sender, keep)
	est.Retained.Receiver = bitmap.Select(key.Receiver, keep)
	if key.Eavesdropper != nil {
		est.Retained.Eavesdropper = make([]photon.MaybeBit, 0, n-k)
		for i, b := range key.Eavesdropper {
			if keep.Get(i) {
				est.Retained.Eavesdropper = append(est.Retained.Eavesdropper, b)
			}
		}
	}
	return est, nil
}

// PessimisticRate returns an upper bound on the mismatch rate of the retained
// key which holds except with probability eps.
//
// See https://arxiv.org/abs/1506.08458, lemma 6.
func (e Estimate) PessimisticRate(eps float64) float64 {
	return pessimisticRate(e.Rate, eps, e.Retained.Size(), len(e.Sample.Positions))
}

func pessimisticRate(rate, eps float64, n, k int) float64 {
	fn, fk := float64(n), float64(k)
	A := fn * fk * fk / ((fn + fk) * (fk + 1))
	if A == 0 {
		return math.Inf(1)
	}
	nu := math.Sqrt(0.5 * math.Log(1/eps) / A)
	return rate + nu
}

// calcMaxEveInfo returns a theoretical bound on the number of bits of
// information that Eve could have discerned about n retained bits, given a
// sample of k bits with mismatch rate rate.
//
// See also, https://link.springer.com/article/10.1007/BF00191318
func calcMaxEveInfo(rate, eps float64, n, k int) float64 {
	if n == 0 {
		return 0
	}
	return 2 * math.Sqrt(2) * pessimisticRate(rate, eps, n, k) * float64(n)
}

package qkd

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/Glassar/dd2394-Security-Project/qkd/photon"
)

// chshTerms lists the basis pairings of S = E(a,b) - E(a,b') + E(a',b) + E(a',b'),
// in bucket order.
var chshTerms = [4]struct {
	sender, receiver photon.Basis
	sign             float64
}{
	{photon.Diagonal, photon.Plus45, 1},
	{photon.Diagonal, photon.Minus45, -1},
	{photon.Rectilinear, photon.Plus45, 1},
	{photon.Rectilinear, photon.Minus45, 1},
}

// CHSHBuckets holds one outcome histogram per CHSH term. Each histogram is
// indexed by 2*senderBit + receiverBit.
type CHSHBuckets [4][4]int

// Add tallies one trial, returning false if its basis pairing is not a CHSH
// term.
func (b *CHSHBuckets) Add(sender, receiver photon.Basis, senderBit, receiverBit bool) bool {
	for i, term := range chshTerms {
		if term.sender != sender || term.receiver != receiver {
			continue
		}
		b[i][2*btoi(senderBit)+btoi(receiverBit)]++
		return true
	}
	return false
}

// Total returns the number of trials tallied.
func (b CHSHBuckets) Total() int {
	n := 0
	for _, h := range b {
		for _, c := range h {
			n += c
		}
	}
	return n
}

// CHSH is a Bell-test estimate built from CHSHBuckets.
type CHSH struct {
	// Expectations holds the correlation of each term, in bucket order.
	Expectations [4]float64
	S            float64

	// EmptyBuckets counts terms with no observations. Their expectation is
	// reported as 0, which biases S towards 0.
	EmptyBuckets int
}

// Estimate computes the CHSH value. An empty bucket contributes 0.
func (b CHSHBuckets) Estimate() CHSH {
	var c CHSH
	signs := make([]float64, len(chshTerms))
	for i, h := range b {
		signs[i] = chshTerms[i].sign
		total := h[0] + h[1] + h[2] + h[3]
		if total == 0 {
			c.EmptyBuckets++
			total = 1
		}
		c.Expectations[i] = float64(h[0]-h[1]-h[2]+h[3]) / float64(total)
	}
	c.S = floats.Dot(signs, c.Expectations[:])
	return c
}

// Violates reports whether S exceeds the local hidden variable bound of 2.
func (c CHSH) Violates() bool {
	return math.Abs(c.S) > 2
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

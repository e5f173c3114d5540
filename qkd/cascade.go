package qkd

import (
	"github.com/pkg/errors"

	"github.com/Glassar/dd2394-Security-Project/qkd/bitmap"
)

// Cascade corrects a receiver's key towards the sender's by comparing block
// parities. Round r splits the key into blocks of InitialBlockSize*2^r bits
// and binary searches every block whose parities differ. A correction made
// after the first round is cascaded back through blocks of half the key,
// a quarter of the key, and so on down to InitialBlockSize.
//
// Blocks holding an even number of errors have matching parities, so such
// errors can survive every round.
type Cascade struct {
	InitialBlockSize int
	Rounds           int
}

// A Reconciliation is the result of running Cascade.
type Reconciliation struct {
	// Key is the corrected receiver key. It is always as long as the input.
	Key bitmap.Dense

	// ParitiesDisclosed counts parity bits revealed over the public channel.
	ParitiesDisclosed int

	// ResidualMismatches counts positions where Key still differs from the
	// sender's key.
	ResidualMismatches int
}

// Reconcile implements the reconciler interface.
func (c Cascade) Reconcile(sender, receiver bitmap.Dense) (Reconciliation, error) {
	if c.InitialBlockSize < 1 {
		return Reconciliation{}, errors.Errorf("cascade initial block size %d, must be at least 1", c.InitialBlockSize)
	}
	if c.Rounds < 1 {
		return Reconciliation{}, errors.Errorf("cascade rounds %d, must be at least 1", c.Rounds)
	}
	if sender.Size() != receiver.Size() {
		return Reconciliation{}, errors.Errorf("reconciling %d sender bits against %d receiver bits", sender.Size(), receiver.Size())
	}

	s := cascadeState{
		sender:   sender,
		receiver: bitmap.Clone(receiver),
		minBlock: c.InitialBlockSize,
	}
	n := sender.Size()
	bSize := c.InitialBlockSize
	for round := 0; round < c.Rounds && n > 0; round++ {
		for i := 0; i < n; i += bSize {
			idx, fixed := s.correctBlock(i, min(i+bSize, n))
			if fixed && round > 0 {
				s.cascade(idx)
			}
		}
		if bSize < n {
			bSize *= 2
		}
	}

	return Reconciliation{
		Key:                s.receiver,
		ParitiesDisclosed:  s.disclosed,
		ResidualMismatches: bitmap.CountOnes(bitmap.XOr(sender, s.receiver)),
	}, nil
}

type cascadeState struct {
	sender   bitmap.Dense
	receiver bitmap.Dense
	minBlock int

	disclosed int
}

// correctBlock compares the parities of [start, end) and, if they differ,
// fixes one error in the receiver's block, returning its index.
func (s *cascadeState) correctBlock(start, end int) (int, bool) {
	if s.parityDiffers(start, end) {
		idx := s.binarySearch(start, end)
		s.receiver.Flip(idx)
		return idx, true
	}
	return 0, false
}

// binarySearch narrows [start, end), known to hold an odd number of errors,
// to a single erroneous position by comparing prefix parities.
func (s *cascadeState) binarySearch(start, end int) int {
	lo, hi := start, end-1
	for lo < hi {
		mid := (lo + hi) / 2
		if s.parityDiffers(start, mid+1) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// cascade re-checks the blocks containing idx, from half the key downwards.
func (s *cascadeState) cascade(idx int) {
	n := s.sender.Size()
	for bSize := n / 2; bSize >= s.minBlock; bSize /= 2 {
		start := (idx / bSize) * bSize
		s.correctBlock(start, min(start+bSize, n))
	}
}

func (s *cascadeState) parityDiffers(start, end int) bool {
	s.disclosed++
	return bitmap.ParityRange(s.sender, start, end) != bitmap.ParityRange(s.receiver, start, end)
}

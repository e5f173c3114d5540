package qkd

import (
	"github.com/pkg/errors"

	"github.com/Glassar/dd2394-Security-Project/qkd/bitmap"
	"github.com/Glassar/dd2394-Security-Project/qkd/photon"
)

// A SiftedKey holds the bits kept by each party after discarding trials
// measured in different bases.
type SiftedKey struct {
	Sender   bitmap.Dense
	Receiver bitmap.Dense

	// Eavesdropper is nil when no eavesdropper took part. Otherwise it is as
	// long as Sender, with an unknown entry wherever she did not learn the bit.
	Eavesdropper []photon.MaybeBit
}

// Size returns the number of sifted positions.
func (k SiftedKey) Size() int {
	return k.Sender.Size()
}

// Sift keeps the outcomes of every trial measured in the same basis by both
// parties. Mismatched entangled trials are tallied into CHSH buckets instead.
func Sift(trials []photon.Trial, outcomes []photon.Outcome) (SiftedKey, CHSHBuckets, error) {
	var key SiftedKey
	var buckets CHSHBuckets
	if len(trials) != len(outcomes) {
		return key, buckets, errors.Errorf("sifting %d trials against %d outcomes", len(trials), len(outcomes))
	}
	for _, t := range trials {
		if t.Eavesdropper != nil {
			key.Eavesdropper = []photon.MaybeBit{}
			break
		}
	}

	for i, t := range trials {
		o := outcomes[i]
		if t.SenderBasis != t.ReceiverBasis {
			if t.Entangled {
				buckets.Add(t.SenderBasis, t.ReceiverBasis, o.SenderBit, o.ReceiverBit)
			}
			continue
		}
		key.Sender.AppendBit(o.SenderBit)
		key.Receiver.AppendBit(o.ReceiverBit)
		if key.Eavesdropper == nil {
			continue
		}
		eve := photon.Unknown()
		if t.Eavesdropper != nil && t.Eavesdropper.Active && t.Eavesdropper.Basis == t.ReceiverBasis {
			eve = o.EavesdropperBit
		}
		key.Eavesdropper = append(key.Eavesdropper, eve)
	}
	return key, buckets, nil
}

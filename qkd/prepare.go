package qkd

import (
	"golang.org/x/exp/rand"

	"github.com/Glassar/dd2394-Security-Project/qkd/photon"
)

// basisChoices lists the bases each party picks from, uniformly.
type basisChoices struct {
	sender, receiver, eavesdropper []photon.Basis
}

var (
	bb84Bases = basisChoices{
		sender:       []photon.Basis{photon.Rectilinear, photon.Diagonal},
		receiver:     []photon.Basis{photon.Rectilinear, photon.Diagonal},
		eavesdropper: []photon.Basis{photon.Rectilinear, photon.Diagonal},
	}
	e91Bases = basisChoices{
		sender:       []photon.Basis{photon.Diagonal, photon.Plus45, photon.Rectilinear},
		receiver:     []photon.Basis{photon.Plus45, photon.Rectilinear, photon.Minus45},
		eavesdropper: []photon.Basis{photon.Plus45, photon.Rectilinear},
	}
)

// prepareTrials draws every random choice of a run from r.
func prepareTrials(cfg Config, r *rand.Rand) []photon.Trial {
	choices := bb84Bases
	if cfg.Protocol == E91 {
		choices = e91Bases
	}
	trials := make([]photon.Trial, cfg.NumberOfBits)
	for i := range trials {
		t := photon.Trial{
			SenderBasis:   pick(r, choices.sender),
			ReceiverBasis: pick(r, choices.receiver),
			Entangled:     cfg.Protocol == E91,
			Noisy:         cfg.NoiseEnabled,
		}
		if !t.Entangled {
			t.SenderBit = r.Intn(2) == 1
		}
		if cfg.EavesdropperPresent {
			t.Eavesdropper = &photon.Interception{
				Basis:  pick(r, choices.eavesdropper),
				Active: r.Float64() < cfg.EavesdropperInterceptionRate,
			}
		}
		t.Entropy = r.Uint64()
		trials[i] = t
	}
	return trials
}

func pick(r *rand.Rand, bases []photon.Basis) photon.Basis {
	return bases[r.Intn(len(bases))]
}

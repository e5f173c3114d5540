// Package photon models the quantum half of a key distribution run: the
// preparation and measurement choices made for each exchanged qubit, and the
// classical bits a Simulator reports back for them.
package photon

import (
	"context"
	"math"
)

// A Basis is a measurement direction. Directions lie on one great circle of
// the Bloch sphere, so each is fully described by an angle.
type Basis uint8

const (
	// Rectilinear is the computational (Z) basis.
	Rectilinear Basis = iota
	// Diagonal is the Hadamard (X) basis.
	Diagonal
	// Plus45 lies halfway between Rectilinear and Diagonal.
	Plus45
	// Minus45 mirrors Plus45 about Rectilinear.
	Minus45
)

// Angle returns the direction of b on the Bloch circle, in radians.
func (b Basis) Angle() float64 {
	switch b {
	case Diagonal:
		return math.Pi / 2
	case Plus45:
		return math.Pi / 4
	case Minus45:
		return -math.Pi / 4
	default:
		return 0
	}
}

func (b Basis) String() string {
	switch b {
	case Rectilinear:
		return "Z"
	case Diagonal:
		return "X"
	case Plus45:
		return "Y"
	case Minus45:
		return "W"
	default:
		return "?"
	}
}

// A MaybeBit is a bit which may be unknown, e.g. the eavesdropper's result
// for a trial she never intercepted.
type MaybeBit struct {
	bit   bool
	known bool
}

// Known returns a MaybeBit holding bit.
func Known(bit bool) MaybeBit {
	return MaybeBit{bit: bit, known: true}
}

// Unknown returns a MaybeBit holding no value.
func Unknown() MaybeBit {
	return MaybeBit{}
}

// Get returns the held bit, and whether there was one.
func (m MaybeBit) Get() (bit, ok bool) {
	return m.bit, m.known
}

// IsKnown reports whether m holds a bit.
func (m MaybeBit) IsKnown() bool {
	return m.known
}

func (m MaybeBit) String() string {
	switch {
	case !m.known:
		return "-"
	case m.bit:
		return "1"
	default:
		return "0"
	}
}

// An Interception describes what an eavesdropper does to a single trial.
type Interception struct {
	// Basis is the eavesdropper's measurement direction.
	Basis Basis
	// Active is true iff the eavesdropper measured this trial.
	Active bool
}

// A Trial is one quantum exchange attempt. Trials are immutable once built.
type Trial struct {
	// SenderBit is the bit the sender encodes. Ignored for entangled trials,
	// where the sender's bit is the result of her own measurement.
	SenderBit     bool
	SenderBasis   Basis
	ReceiverBasis Basis

	// Eavesdropper is nil when no eavesdropper takes part in the run.
	Eavesdropper *Interception

	// Entangled selects an entangled-pair exchange (E91) instead of
	// prepare-and-measure (BB84).
	Entangled bool
	Noisy     bool

	// Entropy seeds the measurement randomness of this trial. Simulators
	// backed by real randomness may ignore it.
	Entropy uint64
}

// An Outcome is the classical result of measuring a Trial.
type Outcome struct {
	// SenderBit echoes the sender's bit: the prepared bit for
	// prepare-and-measure trials, her measured bit for entangled ones.
	SenderBit       bool
	ReceiverBit     bool
	EavesdropperBit MaybeBit
}

// A Simulator turns trials into outcomes. Measure samples a probability
// distribution, so it must be called exactly once per trial. Implementations
// must be safe for concurrent use.
type Simulator interface {
	Measure(ctx context.Context, t Trial) (Outcome, error)
}

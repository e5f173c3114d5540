package photon

import (
	"context"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// A NoiseModel describes the imperfections applied to every measurement of a
// noisy trial.
type NoiseModel struct {
	// Depolarizing is the probability that the measured qubit has been
	// replaced by the maximally mixed state.
	Depolarizing float64
	// Readout is the probability that a measured bit is misreported.
	Readout float64
}

// DefaultNoise mirrors a 5% depolarizing gate error plus a 5% readout error.
var DefaultNoise = NoiseModel{Depolarizing: 0.05, Readout: 0.05}

// Simulated is a Simulator which samples idealised single-qubit physics.
// Randomness comes solely from each Trial's Entropy, so a Simulated holds no
// mutable state and the same trial always yields the same outcome.
type Simulated struct {
	Noise NoiseModel
}

// NewSimulated returns a Simulated applying noise to noisy trials.
func NewSimulated(noise NoiseModel) *Simulated {
	return &Simulated{Noise: noise}
}

// Measure implements Simulator.
func (s *Simulated) Measure(ctx context.Context, t Trial) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	m := measurer{src: rand.NewSource(t.Entropy)}
	if t.Noisy {
		m.noise = s.Noise
	}
	if t.Entangled {
		return m.entangled(t), nil
	}
	return m.prepared(t), nil
}

// A qubit is a pure state on the Bloch circle, or the maximally mixed state.
type qubit struct {
	angle float64
	mixed bool
}

func prepare(b Basis, bit bool) qubit {
	a := b.Angle()
	if bit {
		a += math.Pi
	}
	return qubit{angle: a}
}

// pOne returns the probability that measuring q along b yields 1.
func (q qubit) pOne(b Basis) float64 {
	if q.mixed {
		return 0.5
	}
	s := math.Sin((q.angle - b.Angle()) / 2)
	return s * s
}

type measurer struct {
	src   rand.Source
	noise NoiseModel
}

func (m *measurer) chance(p float64) bool {
	return distuv.Bernoulli{P: p, Src: m.src}.Rand() == 1
}

// measure collapses q along b and returns the bit read out, which differs
// from the collapsed state with the readout error probability.
func (m *measurer) measure(q *qubit, b Basis) bool {
	if m.chance(m.noise.Depolarizing) {
		q.mixed = true
	}
	bit := m.chance(q.pOne(b))
	*q = prepare(b, bit)
	return m.readout(bit)
}

// measurePair measures one half of an entangled pair along b. The pair is
// prepared so that both halves agree along equal directions; measuring one
// steers the other into the same state, unless noise decoheres it.
func (m *measurer) measurePair(b Basis) (read bool, partner qubit) {
	bit := m.chance(0.5)
	if m.chance(m.noise.Depolarizing) {
		partner = qubit{mixed: true}
	} else {
		partner = prepare(b, bit)
	}
	return m.readout(bit), partner
}

func (m *measurer) readout(bit bool) bool {
	if m.chance(m.noise.Readout) {
		return !bit
	}
	return bit
}

// prepared runs a prepare-and-measure exchange with optional intercept-resend
// eavesdropping.
func (m *measurer) prepared(t Trial) Outcome {
	out := Outcome{SenderBit: t.SenderBit, EavesdropperBit: Unknown()}
	q := prepare(t.SenderBasis, t.SenderBit)
	if e := t.Eavesdropper; e != nil && e.Active {
		eBit := m.measure(&q, e.Basis)
		out.EavesdropperBit = Known(eBit)
		q = prepare(e.Basis, eBit)
	}
	out.ReceiverBit = m.measure(&q, t.ReceiverBasis)
	return out
}

// entangled runs an entangled-pair exchange. An active eavesdropper measures
// the receiver's half in transit, which also fixes the sender's half.
func (m *measurer) entangled(t Trial) Outcome {
	out := Outcome{EavesdropperBit: Unknown()}
	var receiver qubit
	if e := t.Eavesdropper; e != nil && e.Active {
		eBit, sender := m.measurePair(e.Basis)
		out.EavesdropperBit = Known(eBit)
		receiver = sender
		out.SenderBit = m.measure(&sender, t.SenderBasis)
	} else {
		out.SenderBit, receiver = m.measurePair(t.SenderBasis)
	}
	out.ReceiverBit = m.measure(&receiver, t.ReceiverBasis)
	return out
}

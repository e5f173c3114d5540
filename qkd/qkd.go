// Package qkd provides the classical post-processing of a quantum key
// distribution run: sifting, error estimation, Cascade reconciliation and
// privacy amplification, for both the BB84 and E91 protocols.
package qkd

import (
	"github.com/Glassar/dd2394-Security-Project/qkd/bitmap"
)

var (
	DefaultNumberOfBits            = 1024
	DefaultSampleDivisor           = 8
	DefaultRiskThreshold           = 0.25
	DefaultCascadeInitialBlockSize = 1
	DefaultCascadeRounds           = 4
	DefaultEpsilon                 = 1e-12
)

// Stats packages together counts describing a single pipeline run.
type Stats struct {
	BitsSent     int
	BitsSifted   int
	BitsSampled  int
	BitsRetained int
	BitsFinal    int

	// SampleMismatches counts disagreeing positions in the spot-check sample.
	SampleMismatches   int
	ParitiesDisclosed  int
	ResidualMismatches int
}

// A Result holds every intermediate product of a pipeline run. Fields for
// stages the run did not reach are left zero.
type Result struct {
	Protocol Protocol
	Sifted   SiftedKey
	Estimate Estimate

	// CHSH is nil for prepare-and-measure runs.
	CHSH *CHSH

	Risk       float64
	Reconciled Reconciliation

	// SenderKey and FinalKey are the amplified keys held by the sender and
	// the receiver respectively.
	SenderKey bitmap.Dense
	FinalKey  bitmap.Dense

	// Aborted is set when the run stopped on a saturated risk score.
	Aborted bool

	// Completed is set once both keys have been amplified.
	Completed bool
	Stats     Stats
}

// KeysAgree reports whether both parties ended a completed run with the same
// key. It is false for runs that aborted or failed.
func (r Result) KeysAgree() bool {
	return r.Completed && bitmap.Equal(r.SenderKey, r.FinalKey)
}

type reconciler interface {
	// Reconcile returns a copy of receiver corrected towards sender, leaving
	// both inputs untouched.
	Reconcile(sender, receiver bitmap.Dense) (Reconciliation, error)
}

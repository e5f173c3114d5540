package qkd

import (
	"crypto/md5"
	"crypto/sha256"
	"hash"
	"io"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/Glassar/dd2394-Security-Project/qkd/bitmap"
)

// Leakage summarises what the public channel revealed about a key.
type Leakage struct {
	// ErrorRate is the spot-check mismatch rate.
	ErrorRate float64
	// SampleSize is the number of disclosed spot-check positions.
	SampleSize int
	// ParitiesDisclosed counts parity bits revealed during reconciliation.
	ParitiesDisclosed int
}

// An Amplifier compresses a reconciled key into a shorter one about which an
// eavesdropper knows (almost) nothing. Both parties must obtain the same
// output from the same key and leakage.
type Amplifier interface {
	Amplify(key bitmap.Dense, leak Leakage) (bitmap.Dense, error)
}

var hashes = map[string]func() hash.Hash{
	"sha256":   sha256.New,
	"sha3-256": sha3.New256,
	"blake2b-256": func() hash.Hash {
		h, _ := blake2b.New256(nil)
		return h
	},
	"md5": md5.New,
}

// NewAmplifier builds the amplifier described by cfg.
func NewAmplifier(cfg AmplificationConfig) (Amplifier, error) {
	switch cfg.Method {
	case MethodHash, "":
		return NewHashAmplifier(cfg.Hash, cfg.ErrorSensitive)
	case MethodToeplitz:
		eps := cfg.EpsilonPrivacy
		if eps == 0 {
			eps = DefaultEpsilon
		}
		return ToeplitzAmplifier{Seed: []byte(cfg.Seed), EpsilonPrivacy: eps}, nil
	default:
		return nil, errors.Errorf("unknown amplification method %q", cfg.Method)
	}
}

// A HashAmplifier digests the key's text form ('0' and '1' characters) and
// takes the digest bits, least significant bit of each byte first.
type HashAmplifier struct {
	New func() hash.Hash

	// ErrorSensitive truncates the digest to AmplifiedLength bits.
	ErrorSensitive bool
}

// NewHashAmplifier returns a HashAmplifier using the named digest, one of
// sha256, sha3-256, blake2b-256 or md5.
func NewHashAmplifier(name string, errorSensitive bool) (HashAmplifier, error) {
	if name == "" {
		name = "sha256"
	}
	h, ok := hashes[name]
	if !ok {
		return HashAmplifier{}, errors.Errorf("unknown hash %q", name)
	}
	return HashAmplifier{New: h, ErrorSensitive: errorSensitive}, nil
}

// Amplify implements the Amplifier interface. An empty key stays empty.
func (a HashAmplifier) Amplify(key bitmap.Dense, leak Leakage) (bitmap.Dense, error) {
	if key.Size() == 0 {
		return bitmap.Empty(), nil
	}
	h := a.New()
	if _, err := io.WriteString(h, key.String()); err != nil {
		return bitmap.Empty(), errors.Wrap(err, "hashing key")
	}
	out := bitmap.NewDense(h.Sum(nil), -1)
	if !a.ErrorSensitive {
		return out, nil
	}
	return bitmap.Slice(out, 0, min(out.Size(), AmplifiedLength(key.Size(), leak.ErrorRate)))
}

// AmplifiedLength returns the error-sensitive output length for an n-bit key
// with the given mismatch rate: n*(1-2*rate), but never below n/2 or 1 bit.
func AmplifiedLength(n int, rate float64) int {
	factor := math.Max(0.5, 1-2*rate)
	return max(1, int(math.Floor(float64(n)*factor)))
}

// A ToeplitzAmplifier multiplies the key by a random Toeplitz matrix, a
// universal hash family, whose diagonals are expanded from a public seed.
// The output shrinks by every bit the eavesdropper may know plus a security
// margin of 2*log2(1/EpsilonPrivacy).
type ToeplitzAmplifier struct {
	Seed []byte

	// EpsilonPrivacy specifies the statistical distance from uniform we are
	// willing to tolerate our final extracted key being, conditioned on the
	// information made available during the public phases of the protocol.
	EpsilonPrivacy float64
}

// Amplify implements the Amplifier interface. The result is empty when
// leakage consumes the whole key.
func (a ToeplitzAmplifier) Amplify(key bitmap.Dense, leak Leakage) (bitmap.Dense, error) {
	n := key.Size()
	if n == 0 {
		return bitmap.Empty(), nil
	}
	m := a.OutputLength(n, leak)
	if m == 0 {
		return bitmap.Empty(), nil
	}
	return newToeplitz(a.Seed, m, n).Mul(key)
}

// OutputLength returns the number of bits Amplify extracts from an n-bit key.
func (a ToeplitzAmplifier) OutputLength(n int, leak Leakage) int {
	leaked := float64(leak.ParitiesDisclosed) + calcMaxEveInfo(leak.ErrorRate, a.EpsilonPrivacy, n, leak.SampleSize)
	m := float64(n) - math.Ceil(leaked+2*math.Log2(1/a.EpsilonPrivacy))
	if !(m >= 1) {
		return 0
	}
	return int(m)
}

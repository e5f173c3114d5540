package qkd

import (
	"bytes"
	"crypto/sha256"
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/Glassar/dd2394-Security-Project/qkd/bitmap"
)

func randomKey(seed uint64, n int) bitmap.Dense {
	r := rand.New(rand.NewSource(seed))
	var d bitmap.Dense
	for i := 0; i < n; i++ {
		d.AppendBit(r.Intn(2) == 1)
	}
	return d
}

func TestAmplifiedLength(t *testing.T) {
	tcs := []struct {
		n    int
		rate float64
		want int
	}{
		{n: 100, rate: 0, want: 100},
		{n: 100, rate: 0.1, want: 80},
		{n: 100, rate: 0.4, want: 50},
		{n: 101, rate: 0.3, want: 50},
		{n: 1, rate: 0.5, want: 1},
		{n: 0, rate: 0, want: 1},
	}
	for _, tc := range tcs {
		if got := AmplifiedLength(tc.n, tc.rate); got != tc.want {
			t.Errorf("AmplifiedLength(%d, %v) == %d, want %d", tc.n, tc.rate, got, tc.want)
		}
	}
}

func TestHashAmplifier(t *testing.T) {
	tcs := []struct {
		name           string
		hash           string
		errorSensitive bool
		keyLen         int
		rate           float64
		eLen           int
	}{
		{name: "sha256 full digest", hash: "sha256", keyLen: 14, eLen: 256},
		{name: "md5 full digest", hash: "md5", keyLen: 300, eLen: 128},
		{name: "sha3 error sensitive", hash: "sha3-256", errorSensitive: true, keyLen: 14, eLen: 14},
		{name: "blake2b error sensitive", hash: "blake2b-256", errorSensitive: true, keyLen: 100, rate: 0.1, eLen: 80},
		{name: "capped at digest", hash: "sha256", errorSensitive: true, keyLen: 1000, eLen: 256},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			a, err := NewHashAmplifier(tc.hash, tc.errorSensitive)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			key := randomKey(3, tc.keyLen)
			out, err := a.Amplify(key, Leakage{ErrorRate: tc.rate})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Size() != tc.eLen {
				t.Errorf("len(Amplify(key)) == %d, want %d", out.Size(), tc.eLen)
			}
			again, err := a.Amplify(bitmap.Clone(key), Leakage{ErrorRate: tc.rate})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bitmap.Equal(out, again) {
				t.Errorf("Amplify not deterministic: %v then %v", out, again)
			}
		})
	}
}

func TestHashAmplifierDigestBits(t *testing.T) {
	key := mustDense(t, "1101001")
	a, err := NewHashAmplifier("sha256", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := a.Amplify(key, Leakage{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := sha256.Sum256([]byte("1101001"))
	if !bytes.Equal(out.Data(), want[:]) {
		t.Errorf("Amplify(1101001) == %x, want %x", out.Data(), want)
	}
	// Bits are read least significant first within each byte.
	if out.Get(0) != (want[0]&1 == 1) {
		t.Errorf("first output bit disagrees with low bit of first digest byte")
	}
}

func TestHashAmplifierEmptyKey(t *testing.T) {
	a, err := NewHashAmplifier("md5", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := a.Amplify(bitmap.Empty(), Leakage{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Size() != 0 {
		t.Errorf("Amplify(empty) has %d bits, want 0", out.Size())
	}
}

func TestNewAmplifierUnknown(t *testing.T) {
	if _, err := NewHashAmplifier("crc32", false); err == nil {
		t.Errorf("NewHashAmplifier(crc32): expected error, got nil")
	}
	if _, err := NewAmplifier(AmplificationConfig{Method: "xor"}); err == nil {
		t.Errorf("NewAmplifier(xor): expected error, got nil")
	}
}

func TestToeplitzAmplifier(t *testing.T) {
	a := ToeplitzAmplifier{Seed: []byte("public seed"), EpsilonPrivacy: 1e-12}
	n := 2000
	key := randomKey(11, n)
	leak := Leakage{ErrorRate: 0.01, SampleSize: 500, ParitiesDisclosed: 300}

	m := a.OutputLength(n, leak)
	margin := int(math.Ceil(2 * math.Log2(1e12)))
	if m <= 0 || m > n-300-margin {
		t.Fatalf("OutputLength(%d) == %d, want in (0, %d]", n, m, n-300-margin)
	}
	out, err := a.Amplify(key, leak)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Size() != m {
		t.Errorf("len(Amplify(key)) == %d, want %d", out.Size(), m)
	}
	again, err := a.Amplify(bitmap.Clone(key), leak)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bitmap.Equal(out, again) {
		t.Errorf("Amplify not deterministic for a fixed seed")
	}
	other := ToeplitzAmplifier{Seed: []byte("another seed"), EpsilonPrivacy: 1e-12}
	diff, err := other.Amplify(key, leak)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bitmap.Equal(out, diff) {
		t.Errorf("distinct seeds extracted the same key")
	}
}

func TestToeplitzAmplifierExhausted(t *testing.T) {
	a := ToeplitzAmplifier{Seed: []byte("s"), EpsilonPrivacy: 1e-12}
	tcs := []struct {
		name string
		n    int
		leak Leakage
	}{
		{name: "empty key", n: 0},
		{name: "parities exceed key", n: 100, leak: Leakage{SampleSize: 50, ParitiesDisclosed: 100}},
		{name: "no sample", n: 1000},
		{name: "high error rate", n: 1000, leak: Leakage{ErrorRate: 0.4, SampleSize: 200}},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out, err := a.Amplify(randomKey(1, tc.n), tc.leak)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Size() != 0 {
				t.Errorf("Amplify extracted %d bits, want 0", out.Size())
			}
		})
	}
}

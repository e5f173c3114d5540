// Package bitmap provides utilities for operating on densely-packed arrays of
// booleans.
package bitmap

import (
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

// TODO: this could be more efficient on many architectures if we used larger
//   blocks than 8-bit bytes.
const byteSize = 8

// Select selects a subset of bits from data, according to which bits are set in
// mask.
func Select(data, mask Dense) Dense {
	var d Dense
	for i := 0; i < data.Size(); i++ {
		if !mask.Get(i) {
			continue
		}
		d.AppendBit(data.Get(i))
	}
	return d
}

// Empty returns an empty, dense bit array.
func Empty() Dense {
	return Dense{}
}

// Zeros returns a dense bitmap of n explicit zero bits.
func Zeros(n int) Dense {
	return NewDense(make([]byte, BytesFor(n)), n)
}

// Clone returns a deep copy of d, safe to mutate independently.
func Clone(d Dense) Dense {
	data := make([]byte, d.SizeBytes())
	copy(data, d.bits)
	r := NewDense(data, d.len)
	r.negated = d.negated
	return r
}

// FromString converts a string of '1's and '0's to a Dense. Spaces are
// ignored.
func FromString(s string) (Dense, error) {
	d := Dense{}
	for _, c := range s {
		switch c {
		case '1':
			d.AppendBit(true)
		case '0':
			d.AppendBit(false)
		case ' ':
			continue
		default:
			return Dense{}, errors.Errorf("invalid bitmap string rep: %s", s)
		}
	}
	return d, nil
}

// FromInts converts a slice of 0s and 1s to a Dense.
func FromInts(v []int) (Dense, error) {
	d := Dense{}
	for i, b := range v {
		switch b {
		case 0:
			d.AppendBit(false)
		case 1:
			d.AppendBit(true)
		default:
			return Dense{}, errors.Errorf("invalid bit %d at position %d", b, i)
		}
	}
	return d, nil
}

// Ints returns the bits of d as a slice of 0s and 1s. The result is non-nil
// even when d is empty.
func Ints(d Dense) []int {
	r := make([]int, d.Size())
	for i := range r {
		if d.Get(i) {
			r[i] = 1
		}
	}
	return r
}

// String renders d as a string of '0' and '1' characters, lowest index first.
func (d Dense) String() string {
	var sb strings.Builder
	sb.Grow(d.len)
	for i := 0; i < d.len; i++ {
		if d.Get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Dot computes the inner product (x^T * y) of x and y, treating them as
// vectors mod 2.
func Dot(x, y Dense) bool {
	var sum byte
	sb := x.SizeBytes()
	if y.SizeBytes() < sb {
		sb = y.SizeBytes()
	}
	for i := 0; i < sb; i++ {
		sum ^= x.byteAt(i) & y.byteAt(i)
	}
	return bits.OnesCount8(sum)%2 == 1
}

// ParityRange returns the parity of bits [start, end) of d.
func ParityRange(d Dense, start, end int) bool {
	parity := false
	for i := start; i < end; i++ {
		parity = parity != d.Get(i)
	}
	return parity
}

// CountOnes returns the total number of bits set in d.
func CountOnes(d Dense) int {
	var sum int
	for i := 0; i < d.SizeBytes(); i++ {
		sum += bits.OnesCount8(d.byteAt(i))
	}
	return sum
}

// Equal returns true iff a and b have the same length and contain the same
// bits.
func Equal(a, b Dense) bool {
	return a.Size() == b.Size() && CountOnes(XOr(a, b)) == 0
}

// BytesFor returns the number of bytes necessary to hold the provided number of
// bits.
func BytesFor(bits int) int {
	return (bits + 8 - 1) / 8
}

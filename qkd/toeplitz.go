package qkd

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/Glassar/dd2394-Security-Project/qkd/bitmap"
)

// A toeplitz represents a matrix whose diagonals are all constant. It operates
// in F_2, i.e. all of its scalars are 0 or 1.
type toeplitz struct {
	// The diagonal constants for this toeplitz matrix, starting from the bottom
	// left and ending with the top right.
	diags bitmap.Dense

	m int
	n int
}

// newToeplitz returns an m by n toeplitz matrix whose diagonals are drawn
// from SHAKE256(seed).
func newToeplitz(seed []byte, m, n int) toeplitz {
	need := m + n - 1
	buf := make([]byte, bitmap.BytesFor(need))
	h := sha3.NewShake256()
	h.Write(seed)
	h.Read(buf)
	return toeplitz{
		diags: bitmap.NewDense(buf, need),
		m:     m,
		n:     n,
	}
}

// TODO: rows share all but one diagonal with their neighbour, so Mul could
//   reuse the previous row's slice instead of re-slicing diags per row.
// Mul computes the matrix product Av between the toeplitz matrix t and the
// provided vector.
func (t toeplitz) Mul(vec bitmap.Dense) (bitmap.Dense, error) {
	if t.diags.Size() < t.m+t.n-1 {
		return bitmap.Dense{}, errors.Errorf("improper toeplitz construction, has %d diagonals, needs %d", t.diags.Size(), t.m+t.n-1)
	}
	if t.n != vec.Size() {
		return bitmap.Dense{}, errors.Errorf("multiplying %dx%d matrix into %d-dim vector", t.m, t.n, vec.Size())
	}

	r := bitmap.Dense{}
	for off := t.m - 1; off >= 0; off-- {
		row, err := bitmap.Slice(t.diags, off, off+t.n)
		if err != nil {
			return bitmap.Empty(), err
		}
		r.AppendBit(bitmap.Dot(row, vec))
	}
	return r, nil
}

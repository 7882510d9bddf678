package homology

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

// ErrNotPrime indicates a field characteristic that is not a prime, or one
// too large for the int64 products used by the reduction.
var ErrNotPrime = errors.New("homology: field characteristic must be a prime below 2^31")

// Field is Z/pZ. Elements are ints in [0, p).
type Field struct {
	p int64
}

// NewField returns the prime field of characteristic p.
func NewField(p int) (Field, error) {
	if p < 2 || int64(p) > math.MaxInt32 || !big.NewInt(int64(p)).ProbablyPrime(0) {
		return Field{}, fmt.Errorf("%d: %w", p, ErrNotPrime)
	}
	return Field{p: int64(p)}, nil
}

// Characteristic returns p.
func (f Field) Characteristic() int { return int(f.p) }

// Reduce maps any integer into [0, p).
func (f Field) Reduce(a int) int {
	r := int64(a) % f.p
	if r < 0 {
		r += f.p
	}
	return int(r)
}

// Add returns a+b mod p.
func (f Field) Add(a, b int) int { return int((int64(a) + int64(b)) % f.p) }

// Sub returns a-b mod p.
func (f Field) Sub(a, b int) int { return int((int64(a) - int64(b) + f.p) % f.p) }

// Mul returns a·b mod p.
func (f Field) Mul(a, b int) int { return int(int64(a) * int64(b) % f.p) }

// Neg returns -a mod p.
func (f Field) Neg(a int) int { return int((f.p - int64(a)) % f.p) }

// Inv returns the multiplicative inverse of a non-zero a, using the
// extended Euclidean algorithm. Inv(0) is 0.
func (f Field) Inv(a int) int {
	t, newT := int64(0), int64(1)
	r, newR := f.p, int64(a)%f.p
	for newR != 0 {
		q := r / newR
		t, newT = newT, t-q*newT
		r, newR = newR, r-q*newR
	}
	if r != 1 {
		return 0
	}
	if t < 0 {
		t += f.p
	}
	return int(t)
}

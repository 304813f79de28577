// Package group wraps the Ristretto255 group and scalar field used by every proof in this module. It exists to pin
// down the canonical wire encoding (32-byte little-endian for both scalars and points) and the two fixed generators,
// G and H, that every Sigma protocol in this module is stated against.
package group

import (
	"crypto/sha512"
	"errors"
	"sync"

	"github.com/gtank/ristretto255"
)

// Size is the length, in bytes, of a canonically-encoded Scalar or Point.
const Size = 32

// ErrInvalidEncoding is returned when bytes do not decode to a canonical Scalar or Point.
var ErrInvalidEncoding = errors.New("group: invalid canonical encoding")

// Scalar is an element of the Ristretto255 scalar field, order ℓ.
type Scalar struct{ s *ristretto255.Scalar }

// Point is an element of the Ristretto255 group.
type Point struct{ p *ristretto255.Element }

// NewScalar returns the zero scalar.
func NewScalar() *Scalar { return &Scalar{ristretto255.NewScalar()} }

// NewPoint returns the identity point.
func NewPoint() *Point { return &Point{ristretto255.NewIdentityElement()} }

// ScalarFromCanonical decodes a 32-byte little-endian canonical scalar encoding.
func ScalarFromCanonical(b []byte) (*Scalar, error) {
	s, err := ristretto255.NewScalar().SetCanonicalBytes(b)
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	return &Scalar{s}, nil
}

// ScalarFromWide reduces 64 bytes of uniform input mod ℓ, per spec.md's hash_to_scalar = SHA-512 then reduce.
func ScalarFromWide(b []byte) *Scalar {
	s, err := ristretto255.NewScalar().SetUniformBytes(b)
	if err != nil {
		// SetUniformBytes only fails on wrong input length; callers always pass 64 bytes.
		panic("group: ScalarFromWide requires 64 bytes")
	}
	return &Scalar{s}
}

// HashToScalar hashes label || parts... with SHA-512 and reduces the digest mod ℓ. This is spec.md §4.3's
// hash_to_scalar primitive; the range-proof engine uses it for its per-bit challenges. H is not derived through it:
// H hashes [hDST] onto a point directly.
func HashToScalar(label string, parts ...[]byte) *Scalar {
	h := sha512.New()
	_, _ = h.Write([]byte(label))
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return ScalarFromWide(h.Sum(nil))
}

// RandomScalar samples a uniformly random scalar using the given 64-byte seed, typically read from crypto/rand.
func RandomScalar(seed64 []byte) *Scalar {
	return ScalarFromWide(seed64)
}

// PointFromCanonical decodes a 32-byte canonical Ristretto255 point encoding.
func PointFromCanonical(b []byte) (*Point, error) {
	p, err := ristretto255.NewIdentityElement().SetCanonicalBytes(b)
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	return &Point{p}, nil
}

// pointFromUniform hashes 64 bytes of input directly onto the curve (Elligator2 map), used only for deriving the H
// generator from a fixed label; proof statements never hash arbitrary data to a point.
func pointFromUniform(b []byte) *Point {
	p, err := ristretto255.NewIdentityElement().SetUniformBytes(b)
	if err != nil {
		panic("group: pointFromUniform requires 64 bytes")
	}
	return &Point{p}
}

// hDST is the fixed label hashed to produce H. It must match the on-chain verifier's H bit-for-bit; see DESIGN.md for
// the resolution of this as an open question.
const hDST = "AptosVeiledCoin/BasepointH"

var (
	basepointG = sync.OnceValue(func() *Point {
		return &Point{ristretto255.NewGeneratorElement()}
	})
	basepointH = sync.OnceValue(func() *Point {
		digest := sha512.Sum512([]byte(hDST))
		return pointFromUniform(digest[:])
	})
)

// G is the fixed Ristretto255 base point.
func G() *Point { return basepointG() }

// H is the fixed, independent generator used by Twisted ElGamal public keys and commitments. It is derived once,
// deterministically, by hashing [hDST] to a curve point.
func H() *Point { return basepointH() }

// Bytes returns the 32-byte little-endian canonical encoding of s.
func (s *Scalar) Bytes() []byte { return s.s.Bytes() }

// Add returns s + other.
func (s *Scalar) Add(other *Scalar) *Scalar { return &Scalar{ristretto255.NewScalar().Add(s.s, other.s)} }

// Sub returns s - other.
func (s *Scalar) Sub(other *Scalar) *Scalar {
	return &Scalar{ristretto255.NewScalar().Subtract(s.s, other.s)}
}

// Mul returns s * other.
func (s *Scalar) Mul(other *Scalar) *Scalar {
	return &Scalar{ristretto255.NewScalar().Multiply(s.s, other.s)}
}

// Neg returns -s.
func (s *Scalar) Neg() *Scalar { return &Scalar{ristretto255.NewScalar().Negate(s.s)} }

// Inverse returns s⁻¹ mod ℓ. s must be nonzero: a zero s is not checked for, and the result is then not an inverse
// (decryption keys are sampled uniformly from a field of prime order and are zero with negligible probability; a zero
// scalar here indicates a caller bug, not a runtime condition to recover from).
func (s *Scalar) Inverse() *Scalar { return &Scalar{ristretto255.NewScalar().Invert(s.s)} }

// Equal returns true if s and other encode the same scalar.
func (s *Scalar) Equal(other *Scalar) bool { return s.s.Equal(other.s) == 1 }

// IsZero returns true if s is the zero scalar.
func (s *Scalar) IsZero() bool { return s.Equal(NewScalar()) }

// ScalarFromUint64 encodes a small non-negative integer as a scalar, used for chunk weights 2^{32i} and chunk values.
func ScalarFromUint64(v uint64) *Scalar {
	var b [32]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	s, _ := ristretto255.NewScalar().SetCanonicalBytes(b[:])
	return &Scalar{s}
}

// Bytes returns the 32-byte canonical encoding of p.
func (p *Point) Bytes() []byte { return p.p.Bytes() }

// Add returns p + other.
func (p *Point) Add(other *Point) *Point {
	return &Point{ristretto255.NewIdentityElement().Add(p.p, other.p)}
}

// Sub returns p - other.
func (p *Point) Sub(other *Point) *Point {
	return &Point{ristretto255.NewIdentityElement().Subtract(p.p, other.p)}
}

// Mul returns [s]p.
func (p *Point) Mul(s *Scalar) *Point {
	return &Point{ristretto255.NewIdentityElement().ScalarMult(s.s, p.p)}
}

// Equal returns true if p and other encode the same point.
func (p *Point) Equal(other *Point) bool { return p.p.Equal(other.p) == 1 }

// MulG returns [s]G, the scalar multiple of the fixed base point.
func MulG(s *Scalar) *Point { return &Point{ristretto255.NewIdentityElement().ScalarBaseMult(s.s)} }

// MultiScalarMult returns Σ scalars[i]·points[i]. Variable-time, so it is only suitable for public inputs such as a
// verifier's (spec.md §4.4). No package in this module calls it.
func MultiScalarMult(scalars []*Scalar, points []*Point) *Point {
	ss := make([]*ristretto255.Scalar, len(scalars))
	pp := make([]*ristretto255.Element, len(points))
	for i, s := range scalars {
		ss[i] = s.s
	}
	for i, p := range points {
		pp[i] = p.p
	}
	return &Point{ristretto255.NewIdentityElement().VarTimeMultiScalarMult(ss, pp)}
}

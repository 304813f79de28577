// Package elgamal implements Twisted ElGamal encryption over Ristretto255 (spec.md §4.1) and the 4-chunk balance
// representation built on top of it (spec.md §3, "Chunked balance").
package elgamal

import (
	"errors"

	"github.com/ristveil/veil/group"
)

// Errors returned by this package. ErrOutOfRange and ErrInvalidInput correspond to spec.md §7's OutOfRange and
// InvalidInput error kinds.
var (
	ErrInvalidInput = errors.New("elgamal: invalid input")
	ErrOutOfRange   = errors.New("elgamal: amount not found in search window")
)

// DecryptionKey is the secret scalar s of a Twisted ElGamal key pair.
type DecryptionKey struct{ s *group.Scalar }

// EncryptionKey is the public key P = (1/s)·H of a Twisted ElGamal key pair. Note the twist: the public key is
// derived via the independent generator H, not the base point G.
type EncryptionKey struct{ p *group.Point }

// NewDecryptionKey wraps a raw scalar as a decryption key. s must be nonzero; sampling uniformly at random (the only
// supported way to generate keys) satisfies this with overwhelming probability.
func NewDecryptionKey(s *group.Scalar) *DecryptionKey { return &DecryptionKey{s} }

// Scalar returns the underlying secret scalar.
func (k *DecryptionKey) Scalar() *group.Scalar { return k.s }

// EncryptionKey derives the public key P = (1/s)·H corresponding to k.
func (k *DecryptionKey) EncryptionKey() *EncryptionKey {
	return &EncryptionKey{group.H().Mul(k.s.Inverse())}
}

// EncryptionKeyFromCanonical decodes a 32-byte canonical point encoding as a public key.
func EncryptionKeyFromCanonical(b []byte) (*EncryptionKey, error) {
	p, err := group.PointFromCanonical(b)
	if err != nil {
		return nil, ErrInvalidInput
	}
	return &EncryptionKey{p}, nil
}

// Point returns the underlying public key point P.
func (k *EncryptionKey) Point() *group.Point { return k.p }

// Bytes returns the 32-byte canonical encoding of the public key.
func (k *EncryptionKey) Bytes() []byte { return k.p.Bytes() }

// Ciphertext is a Twisted ElGamal ciphertext pair (C, D) encrypting an amount m under a public key P with randomness
// r: D = r·P, C = m·G + r·H.
type Ciphertext struct {
	C *group.Point
	D *group.Point
}

// Size is the length, in bytes, of a wire-encoded ciphertext: C || D.
const Size = 2 * group.Size

// Encrypt encrypts m under public key pk with randomness r. Per spec.md §4.1 this is the twisted form: the
// public-key-scaled randomness goes into D, and the message-times-G plus randomness-times-H goes into C.
func Encrypt(m *group.Scalar, pk *EncryptionKey, r *group.Scalar) Ciphertext {
	return Ciphertext{
		C: group.MulG(m).Add(group.H().Mul(r)),
		D: pk.p.Mul(r),
	}
}

// Bytes returns the 64-byte wire encoding C || D.
func (ct Ciphertext) Bytes() []byte {
	return append(append([]byte{}, ct.C.Bytes()...), ct.D.Bytes()...)
}

// CiphertextFromCanonical decodes a 64-byte wire encoding produced by [Ciphertext.Bytes].
func CiphertextFromCanonical(b []byte) (Ciphertext, error) {
	if len(b) != Size {
		return Ciphertext{}, ErrInvalidInput
	}
	c, err := group.PointFromCanonical(b[:group.Size])
	if err != nil {
		return Ciphertext{}, ErrInvalidInput
	}
	d, err := group.PointFromCanonical(b[group.Size:])
	if err != nil {
		return Ciphertext{}, ErrInvalidInput
	}
	return Ciphertext{C: c, D: d}, nil
}

// AddCiphertext returns the homomorphic sum (C1+C2, D1+D2), encrypting m1+m2.
func AddCiphertext(a, b Ciphertext) Ciphertext {
	return Ciphertext{C: a.C.Add(b.C), D: a.D.Add(b.D)}
}

// SubCiphertext returns the homomorphic difference (C1-C2, D1-D2), encrypting m1-m2.
func SubCiphertext(a, b Ciphertext) Ciphertext {
	return Ciphertext{C: a.C.Sub(b.C), D: a.D.Sub(b.D)}
}

// AddAmount returns a ciphertext encrypting m+a, given a ciphertext encrypting m and a public scalar a.
func AddAmount(ct Ciphertext, a *group.Scalar) Ciphertext {
	return Ciphertext{C: ct.C.Add(group.MulG(a)), D: ct.D}
}

// SubAmount returns a ciphertext encrypting m-a, given a ciphertext encrypting m and a public scalar a.
func SubAmount(ct Ciphertext, a *group.Scalar) Ciphertext {
	return Ciphertext{C: ct.C.Sub(group.MulG(a)), D: ct.D}
}

// Decrypt recovers m from ct under decryption key dk by bounded linear search over [lo, hi). It fails with
// ErrOutOfRange if m is not found before hi is reached. Short-circuits to 0 if C - s·D is the identity point.
//
// This bounded discrete-log search is the reason balances are split into 32-bit chunks (spec.md §4.1): a linear scan
// over a full 32-bit range is the fallback; callers decrypting a known-width chunk should use [DecryptBSGS] instead.
func Decrypt(ct Ciphertext, dk *DecryptionKey, lo, hi uint64) (uint64, error) {
	target := ct.C.Sub(ct.D.Mul(dk.s))
	if target.Equal(group.NewPoint()) {
		return 0, nil
	}

	acc := group.MulG(group.ScalarFromUint64(lo))
	g := group.G()
	for m := lo; m < hi; m++ {
		if acc.Equal(target) {
			return m, nil
		}
		acc = acc.Add(g)
	}
	return 0, ErrOutOfRange
}

// Package veil implements the Fiat-Shamir Sigma-proof framework shared by the four confidential-balance proof
// protocols in veil/schemes. It fixes the challenge derivation (SHA-512 over a domain-separated, ordered transcript,
// reduced mod ℓ) and the canonical wire encoding every protocol's proof bytes use.
//
// The transcript mechanism here is deliberately a plain SHA-512 absorb-then-reduce, not the TurboSHAKE-based
// transcript this module's hedged-randomness derivation uses (see SampleRandomness in elgamal) — the Fiat-Shamir challenge must
// byte-match an external on-chain verifier, which fixes the hash function; hedged randomness has no such constraint
// and reuses the richer transcript construction.
package veil

import (
	"crypto/sha512"
	"errors"
	"hash"

	"github.com/ristveil/veil/group"
)

// ErrMalformedProof is returned when serialized proof bytes do not have the exact length a protocol's wire format
// fixes, or contain a non-canonical scalar or point encoding. Transfer's fixed part is followed by a 4-byte big-endian
// auditor count and that many rows of 4 points, so a Transfer proof's length is not a multiple of [group.Size].
var ErrMalformedProof = errors.New("veil: malformed proof encoding")

// Domain separation tags, absorbed as the first bytes of every Fiat-Shamir hash. These must match the on-chain
// verifier's tags exactly (spec.md §6); the KeyRotation and Normalization tags follow the naming convention of the two
// tags spec.md gives literally.
const (
	DSTWithdraw      = "AptosVeiledCoin/WithdrawalSubproofFiatShamir"
	DSTTransfer      = "AptosVeiledCoin/TransferSubproofFiatShamir"
	DSTKeyRotation   = "AptosVeiledCoin/KeyRotationSubproofFiatShamir"
	DSTNormalization = "AptosVeiledCoin/NormalizationSubproofFiatShamir"
)

// Transcript accumulates a Fiat-Shamir transcript: a domain separation tag followed by an ordered sequence of public
// inputs and prover commitment points. Absorption order is part of each protocol's specification and must never
// change; see the per-scheme packages for the fixed order used.
type Transcript struct {
	h hash.Hash
}

// NewTranscript starts a transcript for the given domain separation tag. The DST is absorbed immediately.
func NewTranscript(dst string) *Transcript {
	t := &Transcript{h: sha512.New()}
	_, _ = t.h.Write([]byte(dst))
	return t
}

// AbsorbPoint appends a point's canonical 32-byte encoding to the transcript.
func (t *Transcript) AbsorbPoint(p *group.Point) *Transcript {
	_, _ = t.h.Write(p.Bytes())
	return t
}

// AbsorbPoints appends each point's canonical encoding, in order.
func (t *Transcript) AbsorbPoints(ps ...*group.Point) *Transcript {
	for _, p := range ps {
		t.AbsorbPoint(p)
	}
	return t
}

// AbsorbScalar appends a scalar's canonical 32-byte encoding to the transcript.
func (t *Transcript) AbsorbScalar(s *group.Scalar) *Transcript {
	_, _ = t.h.Write(s.Bytes())
	return t
}

// AbsorbBytes appends raw bytes to the transcript. Used for public inputs that are not themselves group elements,
// such as the withdraw amount.
func (t *Transcript) AbsorbBytes(b []byte) *Transcript {
	_, _ = t.h.Write(b)
	return t
}

// AbsorbUint64 appends a public integer, little-endian, to the transcript.
func (t *Transcript) AbsorbUint64(v uint64) *Transcript {
	var b [8]byte
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return t.AbsorbBytes(b[:])
}

// Challenge finalizes the transcript into a Fiat-Shamir challenge scalar: SHA-512 of everything absorbed so far,
// reduced mod ℓ. Finalizing does not prevent further absorption; each call hashes the full accumulated state, which
// this module never relies on (every protocol absorbs everything, then calls Challenge exactly once).
func (t *Transcript) Challenge() *group.Scalar {
	sum := t.h.Sum(nil)
	return group.ScalarFromWide(sum)
}

// Package normalization implements the Normalization proof protocol (spec.md §4.3.4): re-chunking a balance whose
// chunks have grown past 32 bits from homomorphic additions, under the same decryption key. Its structure mirrors
// keyrotation, with the old and new keys equal.
package normalization

import (
	"context"
	"sync"

	"github.com/ristveil/veil"
	"github.com/ristveil/veil/authz"
	"github.com/ristveil/veil/elgamal"
	"github.com/ristveil/veil/group"
	"github.com/ristveil/veil/rangeproof"
)

const numChunks = elgamal.NumChunks

// Builder holds everything needed to produce a Normalization authorization. Fully populated by [New].
type Builder struct {
	dk *elgamal.DecryptionKey
	pk *elgamal.EncryptionKey

	old elgamal.EncryptedBalance

	balance elgamal.Balance
	newRand [numChunks]*group.Scalar
	newCT   elgamal.EncryptedBalance

	engine rangeproof.Engine
}

// New decrypts the current (possibly denormalized) balance — table must cover the widened per-chunk range a
// homomorphic addition can produce, up to 2^64 per chunk — and re-encrypts it with four freshly normalized 32-bit
// chunks under the same key.
func New(dk *elgamal.DecryptionKey, old elgamal.EncryptedBalance, table *elgamal.DLogTable, engine rangeproof.Engine) (*Builder, error) {
	denormalized, err := elgamal.DecryptBalance(old, dk, table)
	if err != nil {
		return nil, err
	}

	// The decrypted chunks themselves may still be denormalized (each can carry up to 64 bits per spec.md §3); fold
	// them back into the plaintext value and re-split into fresh, genuinely 32-bit chunks before re-encrypting.
	balance, err := elgamal.Split(denormalized.Int())
	if err != nil {
		return nil, err
	}

	randoms, err := elgamal.SampleRandomness("veil/normalization/new-balance", dk, numChunks)
	if err != nil {
		return nil, err
	}
	var r [numChunks]*group.Scalar
	copy(r[:], randoms)

	pk := dk.EncryptionKey()
	newCT := elgamal.EncryptBalance(balance, pk, r)

	return &Builder{
		dk:      dk,
		pk:      pk,
		old:     old,
		balance: balance,
		newRand: r,
		newCT:   newCT,
		engine:  engine,
	}, nil
}

// NewBalance returns the freshly normalized balance ciphertexts.
func (b *Builder) NewBalance() elgamal.EncryptedBalance { return b.newCT }

func dsum(eb elgamal.EncryptedBalance) *group.Point {
	acc := group.NewPoint()
	for i := 0; i < numChunks; i++ {
		acc = acc.Add(eb[i].D.Mul(veil.ChunkWeight(i)))
	}
	return acc
}

// balanceTarget returns Σ wᵢ·B'ᵢ.C − Σ wᵢ·Bᵢ.C, the public target of the balance-equality equation.
func balanceTarget(old, newCT elgamal.EncryptedBalance) *group.Point {
	acc := group.NewPoint()
	for i := 0; i < numChunks; i++ {
		w := veil.ChunkWeight(i)
		acc = acc.Add(newCT[i].C.Mul(w)).Sub(old[i].C.Mul(w))
	}
	return acc
}

// GenSigmaProof produces the Sigma proof of correct normalization.
func (b *Builder) GenSigmaProof() (*SigmaProof, error) {
	return proveSigma(b.dk, b.pk, b.old, b.newCT, b.newRand, b.balance)
}

// GenRangeProof generates the 4 per-chunk range proofs for the normalized balance, bases (G, D'ᵢ).
func (b *Builder) GenRangeProof(ctx context.Context) (*RangeProof, error) {
	var rp RangeProof
	var wg sync.WaitGroup
	errs := make([]error, numChunks)

	for i := 0; i < numChunks; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			default:
			}
			proof, commitment, err := b.engine.Prove(b.balance.Chunks[i], b.newRand[i], group.G(), b.newCT[i].D, elgamal.ChunkBits)
			if err != nil {
				errs[i] = err
				return
			}
			rp.Proofs[i] = proof
			rp.Commitments[i] = commitment
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return &rp, nil
}

// Authorize runs GenSigmaProof and GenRangeProof and assembles the authorization bundle.
func (b *Builder) Authorize(ctx context.Context) (*authz.NormalizationBundle, error) {
	sigma, err := b.GenSigmaProof()
	if err != nil {
		return nil, err
	}
	rp, err := b.GenRangeProof(ctx)
	if err != nil {
		return nil, err
	}

	bundle := &authz.NormalizationBundle{
		NewBalance: b.newCT.Bytes(),
		SigmaProof: sigma.Bytes(),
	}
	for i := 0; i < numChunks; i++ {
		bundle.RangeProofs[i] = rp.Proofs[i]
		bundle.Commitments[i] = rp.Commitments[i]
	}
	return bundle, nil
}

// RangeProof holds the 4 per-chunk range proofs and commitments produced by GenRangeProof.
type RangeProof struct {
	Proofs      [numChunks][]byte
	Commitments [numChunks][]byte
}

// Verify checks a complete Normalization authorization against public inputs.
func Verify(old elgamal.EncryptedBalance, pk *elgamal.EncryptionKey, newCT elgamal.EncryptedBalance, sigma *SigmaProof, rangeProofs [numChunks][]byte, commitments [numChunks][]byte, engine rangeproof.Engine) bool {
	if !verifySigma(old, pk, newCT, sigma) {
		return false
	}
	for i := 0; i < numChunks; i++ {
		if !engine.Verify(rangeProofs[i], commitments[i], group.G(), newCT[i].D, elgamal.ChunkBits) {
			return false
		}
	}
	return true
}

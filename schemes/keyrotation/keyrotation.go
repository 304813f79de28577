// Package keyrotation implements the KeyRotation proof protocol (spec.md §4.3.3): re-encrypting an unchanged balance
// under a new decryption key, proving the plaintext did not change.
package keyrotation

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

// Builder holds everything needed to produce a KeyRotation authorization. Fully populated by [New].
type Builder struct {
	oldDK *elgamal.DecryptionKey
	newDK *elgamal.DecryptionKey
	newPK *elgamal.EncryptionKey

	old elgamal.EncryptedBalance

	balance elgamal.Balance
	newRand [numChunks]*group.Scalar
	newCT   elgamal.EncryptedBalance

	engine rangeproof.Engine
}

// New decrypts the current balance under oldDK and re-encrypts it under newDK, with fresh per-chunk randomness.
func New(oldDK *elgamal.DecryptionKey, old elgamal.EncryptedBalance, newDK *elgamal.DecryptionKey, table *elgamal.DLogTable, engine rangeproof.Engine) (*Builder, error) {
	balance, err := elgamal.DecryptBalance(old, oldDK, table)
	if err != nil {
		return nil, err
	}

	randoms, err := elgamal.SampleRandomness("veil/keyrotation/new-balance", newDK, numChunks)
	if err != nil {
		return nil, err
	}
	var r [numChunks]*group.Scalar
	copy(r[:], randoms)

	newPK := newDK.EncryptionKey()
	newCT := elgamal.EncryptBalance(balance, newPK, r)

	return &Builder{
		oldDK:   oldDK,
		newDK:   newDK,
		newPK:   newPK,
		old:     old,
		balance: balance,
		newRand: r,
		newCT:   newCT,
		engine:  engine,
	}, nil
}

// NewBalance returns the freshly encrypted balance under the new key.
func (b *Builder) NewBalance() elgamal.EncryptedBalance { return b.newCT }

func dsum(eb elgamal.EncryptedBalance) *group.Point {
	acc := group.NewPoint()
	for i := 0; i < numChunks; i++ {
		acc = acc.Add(eb[i].D.Mul(veil.ChunkWeight(i)))
	}
	return acc
}

// balanceTarget returns Σ wᵢ·Bᵢ.C − Σ wᵢ·B'ᵢ.C, the public target of the balance-equality equation.
func balanceTarget(old, newCT elgamal.EncryptedBalance) *group.Point {
	acc := group.NewPoint()
	for i := 0; i < numChunks; i++ {
		w := veil.ChunkWeight(i)
		acc = acc.Add(old[i].C.Mul(w)).Sub(newCT[i].C.Mul(w))
	}
	return acc
}

// GenSigmaProof produces the Sigma proof of correct key rotation.
func (b *Builder) GenSigmaProof() (*SigmaProof, error) {
	return proveSigma(b.oldDK, b.newDK, b.newPK, b.old, b.newCT, b.newRand, b.balance)
}

// GenRangeProof generates the 4 per-chunk range proofs for the rotated balance, bases (G, D'ᵢ).
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
func (b *Builder) Authorize(ctx context.Context) (*authz.KeyRotationBundle, error) {
	sigma, err := b.GenSigmaProof()
	if err != nil {
		return nil, err
	}
	rp, err := b.GenRangeProof(ctx)
	if err != nil {
		return nil, err
	}

	bundle := &authz.KeyRotationBundle{
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

// Verify checks a complete KeyRotation authorization against public inputs.
func Verify(old elgamal.EncryptedBalance, oldPK *elgamal.EncryptionKey, newCT elgamal.EncryptedBalance, newPK *elgamal.EncryptionKey, sigma *SigmaProof, rangeProofs [numChunks][]byte, commitments [numChunks][]byte, engine rangeproof.Engine) bool {
	if !verifySigma(old, oldPK, newCT, newPK, sigma) {
		return false
	}
	for i := 0; i < numChunks; i++ {
		if !engine.Verify(rangeProofs[i], commitments[i], group.G(), newCT[i].D, elgamal.ChunkBits) {
			return false
		}
	}
	return true
}

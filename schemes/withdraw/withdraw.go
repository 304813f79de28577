// Package withdraw implements the Withdraw proof protocol (spec.md §4.3.1): proving that a public amount has been
// correctly subtracted from a confidential balance, producing fresh new-balance ciphertexts under the same key.
package withdraw

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ristveil/veil"
	"github.com/ristveil/veil/authz"
	"github.com/ristveil/veil/elgamal"
	"github.com/ristveil/veil/group"
	"github.com/ristveil/veil/rangeproof"
)

// ErrInsufficientFunds is returned by [New] when amount exceeds the current balance.
var ErrInsufficientFunds = errors.New("withdraw: amount exceeds balance")

const numChunks = elgamal.NumChunks

// Builder holds everything needed to produce a Withdraw authorization. It is fully populated by [New]; GenSigmaProof
// and GenRangeProof are pure methods over that state (spec.md §9's immutable-design recommendation — there is no
// reachable "not initialized" error in this implementation).
type Builder struct {
	dk  *elgamal.DecryptionKey
	pk  *elgamal.EncryptionKey
	old elgamal.EncryptedBalance

	amount uint64

	newBalance  elgamal.Balance
	newRand     [numChunks]*group.Scalar
	newCT       elgamal.EncryptedBalance

	engine rangeproof.Engine
}

// New decrypts the current balance (via the bounded search in table), subtracts amount, and derives fresh
// ciphertexts for the new balance. table must cover at least [0, 2^32) per chunk.
func New(dk *elgamal.DecryptionKey, old elgamal.EncryptedBalance, amount uint64, table *elgamal.DLogTable, engine rangeproof.Engine) (*Builder, error) {
	current, err := elgamal.DecryptBalance(old, dk, table)
	if err != nil {
		return nil, err
	}

	v := current.Int()
	a := new(big.Int).SetUint64(amount)
	if v.Cmp(a) < 0 {
		return nil, ErrInsufficientFunds
	}

	newValue := new(big.Int).Sub(v, a)
	newBalance, err := elgamal.Split(newValue)
	if err != nil {
		return nil, err
	}

	randoms, err := elgamal.SampleRandomness("veil/withdraw/new-balance", dk, numChunks)
	if err != nil {
		return nil, err
	}
	var r [numChunks]*group.Scalar
	copy(r[:], randoms)

	pk := dk.EncryptionKey()
	newCT := elgamal.EncryptBalance(newBalance, pk, r)

	return &Builder{
		dk:         dk,
		pk:         pk,
		old:        old,
		amount:     amount,
		newBalance: newBalance,
		newRand:    r,
		newCT:      newCT,
		engine:     engine,
	}, nil
}

// NewBalance returns the freshly encrypted new balance.
func (b *Builder) NewBalance() elgamal.EncryptedBalance { return b.newCT }

// dsum returns Σ wᵢ·Bᵢ.D, the positionally-weighted aggregate of the old ciphertexts' D components.
func dsum(old elgamal.EncryptedBalance) *group.Point {
	acc := group.NewPoint()
	for i := 0; i < numChunks; i++ {
		acc = acc.Add(old[i].D.Mul(veil.ChunkWeight(i)))
	}
	return acc
}

// balanceTarget returns Q1 = Σ wᵢ·Bᵢ.C − a·G − Σ wᵢ·B'ᵢ.C, the public target of the balance equation (spec.md
// §4.3.1): given correct witnesses it equals s·Dsum − Σ wᵢ·r'ᵢ·H.
func balanceTarget(old, newCT elgamal.EncryptedBalance, amount uint64) *group.Point {
	acc := group.NewPoint()
	for i := 0; i < numChunks; i++ {
		w := veil.ChunkWeight(i)
		acc = acc.Add(old[i].C.Mul(w)).Sub(newCT[i].C.Mul(w))
	}
	return acc.Sub(group.MulG(group.ScalarFromUint64(amount)))
}

// GenSigmaProof produces the Sigma proof of correct withdrawal. See sigma.go for the concrete equations.
func (b *Builder) GenSigmaProof() (*SigmaProof, error) {
	return proveSigma(b.dk, b.pk, b.old, b.amount, b.newCT, b.newRand, b.newBalance)
}

// GenRangeProof generates the 4 per-chunk range proofs for the new balance, bases (G, D'ᵢ) per spec.md §4.2. Chunks
// run concurrently per spec.md §5.
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
			proof, commitment, err := b.engine.Prove(b.newBalance.Chunks[i], b.newRand[i], group.G(), b.newCT[i].D, elgamal.ChunkBits)
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
func (b *Builder) Authorize(ctx context.Context) (*authz.WithdrawBundle, error) {
	sigma, err := b.GenSigmaProof()
	if err != nil {
		return nil, err
	}
	rp, err := b.GenRangeProof(ctx)
	if err != nil {
		return nil, err
	}

	bundle := &authz.WithdrawBundle{
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

// Verify checks a complete Withdraw authorization against public inputs. It is a pure function of its arguments; it
// never needs dk.
func Verify(old elgamal.EncryptedBalance, pk *elgamal.EncryptionKey, amount uint64, newCT elgamal.EncryptedBalance, sigma *SigmaProof, rangeProofs [numChunks][]byte, commitments [numChunks][]byte, engine rangeproof.Engine) bool {
	if !verifySigma(old, pk, amount, newCT, sigma) {
		return false
	}
	for i := 0; i < numChunks; i++ {
		if !engine.Verify(rangeProofs[i], commitments[i], group.G(), newCT[i].D, elgamal.ChunkBits) {
			return false
		}
	}
	return true
}

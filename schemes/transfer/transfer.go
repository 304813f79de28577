// Package transfer implements the Transfer proof protocol (spec.md §4.3.2): moving a confidential amount from a
// sender's balance to a recipient's, with optional auditors who can decrypt the transferred amount (but nothing
// else) via their own per-chunk D values.
package transfer

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ristveil/veil/authz"
	"github.com/ristveil/veil/elgamal"
	"github.com/ristveil/veil/group"
	"github.com/ristveil/veil/rangeproof"
)

const numChunks = elgamal.NumChunks

// amountChunks is the number of chunks that carry the transfer amount itself (2×32 bits covers amounts up to 2^64;
// spec.md §9 restricts transfers to this range). The remaining numChunks-amountChunks chunks of the amount
// (Builder.amountCh) are forced to zero.
const amountChunks = 2

// ErrInsufficientFunds is returned by [New] when amount exceeds the current balance.
var ErrInsufficientFunds = errors.New("transfer: amount exceeds balance")

// Builder holds everything needed to produce a Transfer authorization. Fully populated by [New].
type Builder struct {
	dk *elgamal.DecryptionKey
	pk *elgamal.EncryptionKey

	recipientPK *elgamal.EncryptionKey
	auditorPKs  []*elgamal.EncryptionKey

	amount   uint64
	amountCh [numChunks]uint64 // amountCh[0], amountCh[1] from amount; amountCh[2]=amountCh[3]=0

	old        elgamal.EncryptedBalance
	newBalance elgamal.Balance
	rnd        [numChunks]*group.Scalar

	newCT        elgamal.EncryptedBalance
	recipientCT  elgamal.EncryptedBalance
	auditorDList [][numChunks]*group.Point

	engine rangeproof.Engine
}

func chunkOf(v uint64, i int) uint64 {
	return (v >> uint(32*i)) & 0xffffffff
}

// New decrypts the sender's current balance, subtracts amount, and derives one shared set of per-chunk randomness
// (rᵢ) used to encrypt: the recipient's share of the amount, every auditor's D value, and the sender's own new
// balance — binding all three under the same Sigma proof (spec.md §4.3.2).
func New(dk *elgamal.DecryptionKey, old elgamal.EncryptedBalance, recipientPK *elgamal.EncryptionKey, auditorPKs []*elgamal.EncryptionKey, amount uint64, table *elgamal.DLogTable, engine rangeproof.Engine) (*Builder, error) {
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

	randoms, err := elgamal.SampleRandomness("veil/transfer/randomness", dk, numChunks)
	if err != nil {
		return nil, err
	}
	var r [numChunks]*group.Scalar
	copy(r[:], randoms)

	var amountCh [numChunks]uint64
	for i := 0; i < amountChunks; i++ {
		amountCh[i] = chunkOf(amount, i)
	}

	pk := dk.EncryptionKey()
	newCT := elgamal.EncryptBalance(newBalance, pk, r)

	recipientBalance := elgamal.Balance{Chunks: amountCh}
	recipientCT := elgamal.EncryptBalance(recipientBalance, recipientPK, r)

	auditorDList := make([][numChunks]*group.Point, len(auditorPKs))
	for k, apk := range auditorPKs {
		var row [numChunks]*group.Point
		for i := 0; i < numChunks; i++ {
			row[i] = apk.Point().Mul(r[i])
		}
		auditorDList[k] = row
	}

	return &Builder{
		dk:           dk,
		pk:           pk,
		recipientPK:  recipientPK,
		auditorPKs:   auditorPKs,
		amount:       amount,
		amountCh:     amountCh,
		old:          old,
		newBalance:   newBalance,
		rnd:          r,
		newCT:        newCT,
		recipientCT:  recipientCT,
		auditorDList: auditorDList,
		engine:       engine,
	}, nil
}

// NewBalance returns the sender's freshly encrypted new balance.
func (b *Builder) NewBalance() elgamal.EncryptedBalance { return b.newCT }

// RecipientBalance returns the recipient's ciphertexts for the transferred amount.
func (b *Builder) RecipientBalance() elgamal.EncryptedBalance { return b.recipientCT }

// GenSigmaProof produces the Sigma proof of correct transfer. See sigma.go for the concrete equations.
func (b *Builder) GenSigmaProof() (*SigmaProof, error) {
	return proveSigma(b.dk, b.pk, b.recipientPK, b.auditorPKs, b.old, b.amountCh, b.newCT, b.recipientCT, b.auditorDList, b.rnd, b.newBalance)
}

// RangeProof holds the per-chunk range proofs for both the amount and the sender's new balance.
type RangeProof struct {
	AmountProofs       [numChunks][]byte
	AmountCommitments  [numChunks][]byte
	BalanceProofs      [numChunks][]byte
	BalanceCommitments [numChunks][]byte
}

// GenRangeProof generates 8 range proofs: 4 for the amount chunks (bases (G,H), spec.md §4.2), and 4 for the
// sender's new-balance chunks (bases (G, D'ᵢ)). All 8 run concurrently (spec.md §5).
func (b *Builder) GenRangeProof(ctx context.Context) (*RangeProof, error) {
	var rp RangeProof
	var wg sync.WaitGroup
	errs := make([]error, 2*numChunks)

	run := func(idx int, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			default:
			}
			errs[idx] = fn()
		}()
	}

	for i := 0; i < numChunks; i++ {
		i := i
		run(i, func() error {
			proof, commitment, err := b.engine.Prove(b.amountCh[i], b.rnd[i], group.G(), group.H(), elgamal.ChunkBits)
			if err != nil {
				return err
			}
			rp.AmountProofs[i] = proof
			rp.AmountCommitments[i] = commitment
			return nil
		})
		run(numChunks+i, func() error {
			proof, commitment, err := b.engine.Prove(b.newBalance.Chunks[i], b.rnd[i], group.G(), b.newCT[i].D, elgamal.ChunkBits)
			if err != nil {
				return err
			}
			rp.BalanceProofs[i] = proof
			rp.BalanceCommitments[i] = commitment
			return nil
		})
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
func (b *Builder) Authorize(ctx context.Context) (*authz.TransferBundle, error) {
	sigma, err := b.GenSigmaProof()
	if err != nil {
		return nil, err
	}
	rp, err := b.GenRangeProof(ctx)
	if err != nil {
		return nil, err
	}

	auditorBytes := make([][numChunks][]byte, len(b.auditorDList))
	for k, row := range b.auditorDList {
		for i := 0; i < numChunks; i++ {
			auditorBytes[k][i] = row[i].Bytes()
		}
	}

	bundle := &authz.TransferBundle{
		SenderNewBalance: b.newCT.Bytes(),
		RecipientBalance: b.recipientCT.Bytes(),
		AuditorDValues:   auditorBytes,
		SigmaProof:       sigma.Bytes(),
	}
	for i := 0; i < numChunks; i++ {
		bundle.AmountRangeProofs[i] = rp.AmountProofs[i]
		bundle.BalanceRangeProofs[i] = rp.BalanceProofs[i]
		bundle.AmountCommitments[i] = rp.AmountCommitments[i]
		bundle.BalanceCommitments[i] = rp.BalanceCommitments[i]
	}
	return bundle, nil
}

// Verify checks a complete Transfer authorization against public inputs. It never needs the sender's decryption key.
func Verify(old elgamal.EncryptedBalance, senderPK, recipientPK *elgamal.EncryptionKey, auditorPKs []*elgamal.EncryptionKey, newCT, recipientCT elgamal.EncryptedBalance, auditorDList [][numChunks]*group.Point, sigma *SigmaProof, rp *RangeProof, engine rangeproof.Engine) bool {
	if !verifySigma(senderPK, recipientPK, auditorPKs, old, newCT, recipientCT, auditorDList, sigma) {
		return false
	}
	for i := 0; i < numChunks; i++ {
		if !engine.Verify(rp.AmountProofs[i], rp.AmountCommitments[i], group.G(), group.H(), elgamal.ChunkBits) {
			return false
		}
		if !engine.Verify(rp.BalanceProofs[i], rp.BalanceCommitments[i], group.G(), newCT[i].D, elgamal.ChunkBits) {
			return false
		}
	}
	return true
}

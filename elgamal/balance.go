package elgamal

import (
	"math/big"

	"github.com/ristveil/veil/group"
)

// NumChunks is the number of 32-bit chunks a balance is split into (spec.md §3: 128 bits = 4 × 32 bits).
const NumChunks = 4

// ChunkBits is the bit width of a single chunk.
const ChunkBits = 32

// maxBalance is 2^128, the exclusive upper bound on a representable balance.
var maxBalance = new(big.Int).Lsh(big.NewInt(1), NumChunks*ChunkBits)

// Balance is a 128-bit non-negative integer split into [NumChunks] chunks of [ChunkBits] bits each, positionally
// weighted: v = Σ chunks[i]·2^(32i). Chunks are not required to fit in 32 bits at construction time — on-chain
// homomorphic additions can carry a chunk up to 64 bits, which is exactly what Normalization re-proves back down
// (spec.md §3, "Normalization invariant").
type Balance struct {
	Chunks [NumChunks]uint64
}

// Normalized reports whether every chunk fits in [ChunkBits] bits.
func (b Balance) Normalized() bool {
	for _, c := range b.Chunks {
		if c>>ChunkBits != 0 {
			return false
		}
	}
	return true
}

// Int returns the balance's value as v = Σ chunks[i]·2^(32i).
func (b Balance) Int() *big.Int {
	v := new(big.Int)
	for i := NumChunks - 1; i >= 0; i-- {
		v.Lsh(v, ChunkBits)
		v.Add(v, new(big.Int).SetUint64(b.Chunks[i]))
	}
	return v
}

// Split decomposes a non-negative integer v < 2^128 into its 4 normalized 32-bit chunks. Returns ErrInvalidInput if v
// is out of range.
func Split(v *big.Int) (Balance, error) {
	if v.Sign() < 0 || v.Cmp(maxBalance) >= 0 {
		return Balance{}, ErrInvalidInput
	}

	var b Balance
	rem := new(big.Int).Set(v)
	mask := big.NewInt(1<<ChunkBits - 1)
	for i := 0; i < NumChunks; i++ {
		chunk := new(big.Int).And(rem, mask)
		b.Chunks[i] = chunk.Uint64()
		rem.Rsh(rem, ChunkBits)
	}
	return b, nil
}

// SplitUint64 decomposes a uint64 (necessarily < 2^64, i.e. chunks[2] == chunks[3] == 0) into normalized chunks. This
// is the common case for withdraw amounts and transfer amounts, which spec.md §4.3.1/§4.3.2 bound to 2^64 and 2^64
// respectively.
func SplitUint64(v uint64) Balance {
	return Balance{Chunks: [NumChunks]uint64{v & 0xFFFFFFFF, v >> ChunkBits, 0, 0}}
}

// EncryptedBalance is a chunked balance encrypted chunk-by-chunk under a single public key, one Ciphertext per
// chunk with independent randomness.
type EncryptedBalance [NumChunks]Ciphertext

// BalanceSize is the length, in bytes, of a wire-encoded EncryptedBalance: 4 ciphertexts concatenated.
const BalanceSize = NumChunks * Size

// EncryptBalance encrypts each chunk of b under pk using the corresponding randomness in r.
func EncryptBalance(b Balance, pk *EncryptionKey, r [NumChunks]*group.Scalar) EncryptedBalance {
	var eb EncryptedBalance
	for i := 0; i < NumChunks; i++ {
		eb[i] = Encrypt(group.ScalarFromUint64(b.Chunks[i]), pk, r[i])
	}
	return eb
}

// Bytes returns the 256-byte wire encoding: ciphertexts concatenated in chunk order i = 0..3.
func (eb EncryptedBalance) Bytes() []byte {
	out := make([]byte, 0, BalanceSize)
	for _, ct := range eb {
		out = append(out, ct.Bytes()...)
	}
	return out
}

// EncryptedBalanceFromCanonical decodes a 256-byte wire encoding produced by [EncryptedBalance.Bytes].
func EncryptedBalanceFromCanonical(b []byte) (EncryptedBalance, error) {
	if len(b) != BalanceSize {
		return EncryptedBalance{}, ErrInvalidInput
	}
	var eb EncryptedBalance
	for i := 0; i < NumChunks; i++ {
		ct, err := CiphertextFromCanonical(b[i*Size : (i+1)*Size])
		if err != nil {
			return EncryptedBalance{}, ErrInvalidInput
		}
		eb[i] = ct
	}
	return eb, nil
}

// DecryptBalance recovers the full balance by decrypting each chunk independently with table, which must cover at
// least [0, 2^32).
func DecryptBalance(eb EncryptedBalance, dk *DecryptionKey, table *DLogTable) (Balance, error) {
	var b Balance
	for i := 0; i < NumChunks; i++ {
		v, err := table.DecryptBSGS(eb[i], dk)
		if err != nil {
			return Balance{}, err
		}
		b.Chunks[i] = v
	}
	return b, nil
}

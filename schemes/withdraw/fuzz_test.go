package withdraw

import (
	"context"
	"testing"

	"github.com/ristveil/veil/elgamal"
	"github.com/ristveil/veil/group"
	"github.com/ristveil/veil/internal/testdata"
	"github.com/ristveil/veil/rangeproof"
	fuzz "github.com/trailofbits/go-fuzz-utils"
)

// FuzzSigmaProofMutation checks that mutating a single byte of a valid Sigma proof's wire encoding never causes
// SigmaProofFromCanonical or Verify to panic, and that Verify never accepts the mutated proof unless the mutation
// happened to leave the encoding byte-for-byte unchanged.
func FuzzSigmaProofMutation(f *testing.F) {
	drbg := testdata.New("withdraw fuzz seed")
	for range 10 {
		f.Add(drbg.Data(8))
	}

	dk := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	pk := dk.EncryptionKey()
	balance := elgamal.SplitUint64(50_000)
	var r [elgamal.NumChunks]*group.Scalar
	for i := range r {
		r[i] = drbg.Scalar()
	}
	old := elgamal.EncryptBalance(balance, pk, r)
	table := elgamal.NewDLogTable(1 << 20)
	engine := rangeproof.SigmaEngine{}

	b, err := New(dk, old, 1_234, table, engine)
	if err != nil {
		f.Fatalf("New: %v", err)
	}
	bundle, err := b.Authorize(context.Background())
	if err != nil {
		f.Fatalf("Authorize: %v", err)
	}
	newCT, err := elgamal.EncryptedBalanceFromCanonical(bundle.NewBalance)
	if err != nil {
		f.Fatalf("EncryptedBalanceFromCanonical: %v", err)
	}
	original := append([]byte(nil), bundle.SigmaProof...)

	f.Fuzz(func(t *testing.T, data []byte) {
		tp, err := fuzz.NewTypeProvider(data)
		if err != nil {
			t.Skip(err)
		}

		mutated := append([]byte(nil), original...)
		offset, err := tp.GetUint16()
		if err != nil {
			t.Skip(err)
		}
		value, err := tp.GetByte()
		if err != nil {
			t.Skip(err)
		}
		idx := int(offset) % len(mutated)
		mutated[idx] ^= value

		sigma, err := SigmaProofFromCanonical(mutated)
		if err != nil {
			return // malformed encoding, rejected before any group arithmetic: fine
		}

		ok := Verify(old, pk, 1_234, newCT, sigma, bundle.RangeProofs, bundle.Commitments, engine)
		if ok && value != 0 {
			t.Fatalf("Verify accepted a mutated proof (offset=%d, xor=%#x)", idx, value)
		}
	})
}

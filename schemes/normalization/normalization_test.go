package normalization

import (
	"context"
	"testing"

	"github.com/ristveil/veil/elgamal"
	"github.com/ristveil/veil/group"
	"github.com/ristveil/veil/internal/testdata"
	"github.com/ristveil/veil/rangeproof"
)

// TestNormalizationRoundTrip exercises an already-normalized balance (chunk 0 under the 32-bit boundary, chunks
// 1-3 zero) to check the protocol is a no-op on plaintext for the common case. See
// TestNormalizationDenormalizedChunks for the case the protocol actually exists for.
func TestNormalizationRoundTrip(t *testing.T) {
	drbg := testdata.New("normalization-round-trip")
	dk := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	pk := dk.EncryptionKey()

	const total = 777_001
	var r [elgamal.NumChunks]*group.Scalar
	for i := range r {
		r[i] = drbg.Scalar()
	}
	old := elgamal.EncryptedBalance{
		elgamal.Encrypt(group.ScalarFromUint64(total), pk, r[0]),
		elgamal.Encrypt(group.ScalarFromUint64(0), pk, r[1]),
		elgamal.Encrypt(group.ScalarFromUint64(0), pk, r[2]),
		elgamal.Encrypt(group.ScalarFromUint64(0), pk, r[3]),
	}

	table := elgamal.NewDLogTable(1 << 20)
	engine := rangeproof.SigmaEngine{}

	b, err := New(dk, old, table, engine)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bundle, err := b.Authorize(context.Background())
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	sigma, err := SigmaProofFromCanonical(bundle.SigmaProof)
	if err != nil {
		t.Fatalf("SigmaProofFromCanonical: %v", err)
	}
	newCT, err := elgamal.EncryptedBalanceFromCanonical(bundle.NewBalance)
	if err != nil {
		t.Fatalf("EncryptedBalanceFromCanonical: %v", err)
	}

	if !Verify(old, pk, newCT, sigma, bundle.RangeProofs, bundle.Commitments, engine) {
		t.Fatal("Verify rejected a valid normalization")
	}

	got, err := elgamal.DecryptBalance(newCT, dk, table)
	if err != nil {
		t.Fatalf("DecryptBalance: %v", err)
	}
	if got.Int().Int64() != total {
		t.Fatalf("normalized balance = %s, want %d", got.Int(), total)
	}
	if !got.Normalized() {
		t.Fatal("re-chunked balance is not normalized")
	}
}

// TestNormalizationDenormalizedChunks covers spec.md §8 scenario E6: chunks 0-2 have grown past the 32-bit boundary
// from homomorphic additions and chunk 3 is zero ([2^32+100, 2^32+200, 2^32+300, 0]). New must fold these back into the plaintext value
// and re-split into fresh 32-bit chunks before re-encrypting and range-proving — proving the raw, oversized chunks
// directly (as opposed to the re-split value) is exactly what fails for this input, since a range proof's bits=32
// bound rejects any value that does not fit in 32 bits.
func TestNormalizationDenormalizedChunks(t *testing.T) {
	drbg := testdata.New("normalization-denormalized")
	dk := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	pk := dk.EncryptionKey()

	const (
		chunk0 = uint64(1)<<32 + 100
		chunk1 = uint64(1)<<32 + 200
		chunk2 = uint64(1)<<32 + 300
		chunk3 = uint64(0)
	)
	var r [elgamal.NumChunks]*group.Scalar
	for i := range r {
		r[i] = drbg.Scalar()
	}
	old := elgamal.EncryptedBalance{
		elgamal.Encrypt(group.ScalarFromUint64(chunk0), pk, r[0]),
		elgamal.Encrypt(group.ScalarFromUint64(chunk1), pk, r[1]),
		elgamal.Encrypt(group.ScalarFromUint64(chunk2), pk, r[2]),
		elgamal.Encrypt(group.ScalarFromUint64(chunk3), pk, r[3]),
	}
	want := elgamal.Balance{Chunks: [elgamal.NumChunks]uint64{chunk0, chunk1, chunk2, chunk3}}.Int()

	// Must cover the widened per-chunk range (each chunk can carry up to 2^32+300 here), not just [0, 2^32).
	table := elgamal.NewDLogTable(1 << 33)
	engine := rangeproof.SigmaEngine{}

	b, err := New(dk, old, table, engine)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bundle, err := b.Authorize(context.Background())
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	sigma, err := SigmaProofFromCanonical(bundle.SigmaProof)
	if err != nil {
		t.Fatalf("SigmaProofFromCanonical: %v", err)
	}
	newCT, err := elgamal.EncryptedBalanceFromCanonical(bundle.NewBalance)
	if err != nil {
		t.Fatalf("EncryptedBalanceFromCanonical: %v", err)
	}

	if !Verify(old, pk, newCT, sigma, bundle.RangeProofs, bundle.Commitments, engine) {
		t.Fatal("Verify rejected a valid normalization of denormalized chunks")
	}

	got, err := elgamal.DecryptBalance(newCT, dk, table)
	if err != nil {
		t.Fatalf("DecryptBalance: %v", err)
	}
	if got.Int().Cmp(want) != 0 {
		t.Fatalf("normalized balance = %s, want %s", got.Int(), want)
	}
	if !got.Normalized() {
		t.Fatal("re-chunked balance is not normalized")
	}
}

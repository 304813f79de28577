package keyrotation

import (
	"context"
	"testing"

	"github.com/ristveil/veil/elgamal"
	"github.com/ristveil/veil/group"
	"github.com/ristveil/veil/internal/testdata"
	"github.com/ristveil/veil/rangeproof"
)

func TestKeyRotationRoundTrip(t *testing.T) {
	drbg := testdata.New("keyrotation-round-trip")
	oldDK := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	oldPK := oldDK.EncryptionKey()
	newDK := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	newPK := newDK.EncryptionKey()

	balance := elgamal.SplitUint64(42_000)
	var r [elgamal.NumChunks]*group.Scalar
	for i := range r {
		r[i] = drbg.Scalar()
	}
	old := elgamal.EncryptBalance(balance, oldPK, r)

	table := elgamal.NewDLogTable(1 << 20)
	engine := rangeproof.SigmaEngine{}

	b, err := New(oldDK, old, newDK, table, engine)
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

	if !Verify(old, oldPK, newCT, newPK, sigma, bundle.RangeProofs, bundle.Commitments, engine) {
		t.Fatal("Verify rejected a valid key rotation")
	}

	got, err := elgamal.DecryptBalance(newCT, newDK, table)
	if err != nil {
		t.Fatalf("DecryptBalance: %v", err)
	}
	if got.Int().Int64() != 42_000 {
		t.Fatalf("rotated balance = %s, want 42000", got.Int())
	}
}

func TestKeyRotationRejectsWrongNewKey(t *testing.T) {
	drbg := testdata.New("keyrotation-wrong-key")
	oldDK := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	oldPK := oldDK.EncryptionKey()
	newDK := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	newPK := newDK.EncryptionKey()
	otherDK := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	otherPK := otherDK.EncryptionKey()

	balance := elgamal.SplitUint64(1_000)
	var r [elgamal.NumChunks]*group.Scalar
	for i := range r {
		r[i] = drbg.Scalar()
	}
	old := elgamal.EncryptBalance(balance, oldPK, r)

	table := elgamal.NewDLogTable(1 << 16)
	engine := rangeproof.SigmaEngine{}

	b, err := New(oldDK, old, newDK, table, engine)
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

	if Verify(old, oldPK, newCT, otherPK, sigma, bundle.RangeProofs, bundle.Commitments, engine) {
		t.Fatal("Verify accepted a proof against the wrong new public key")
	}
}

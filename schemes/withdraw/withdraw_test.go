package withdraw

import (
	"context"
	"testing"

	"github.com/ristveil/veil/elgamal"
	"github.com/ristveil/veil/group"
	"github.com/ristveil/veil/internal/testdata"
	"github.com/ristveil/veil/rangeproof"
)

func TestWithdrawRoundTrip(t *testing.T) {
	drbg := testdata.New("withdraw-round-trip")
	dk := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	pk := dk.EncryptionKey()

	balance := elgamal.SplitUint64(10_000)
	var r [elgamal.NumChunks]*group.Scalar
	for i := range r {
		r[i] = drbg.Scalar()
	}
	old := elgamal.EncryptBalance(balance, pk, r)

	table := elgamal.NewDLogTable(1 << 20)
	engine := rangeproof.SigmaEngine{}

	b, err := New(dk, old, 3_500, table, engine)
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

	if !Verify(old, pk, 3_500, newCT, sigma, bundle.RangeProofs, bundle.Commitments, engine) {
		t.Fatal("Verify rejected a valid withdrawal")
	}

	got, err := elgamal.DecryptBalance(newCT, dk, table)
	if err != nil {
		t.Fatalf("DecryptBalance: %v", err)
	}
	if got.Int().Int64() != 6_500 {
		t.Fatalf("new balance = %s, want 6500", got.Int())
	}
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	drbg := testdata.New("withdraw-insufficient-funds")
	dk := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	pk := dk.EncryptionKey()

	balance := elgamal.SplitUint64(100)
	var r [elgamal.NumChunks]*group.Scalar
	for i := range r {
		r[i] = drbg.Scalar()
	}
	old := elgamal.EncryptBalance(balance, pk, r)

	table := elgamal.NewDLogTable(1 << 16)
	engine := rangeproof.SigmaEngine{}

	if _, err := New(dk, old, 200, table, engine); err != ErrInsufficientFunds {
		t.Fatalf("New: got %v, want ErrInsufficientFunds", err)
	}
}

func TestWithdrawRejectsTamperedAmount(t *testing.T) {
	drbg := testdata.New("withdraw-tamper")
	dk := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	pk := dk.EncryptionKey()

	balance := elgamal.SplitUint64(10_000)
	var r [elgamal.NumChunks]*group.Scalar
	for i := range r {
		r[i] = drbg.Scalar()
	}
	old := elgamal.EncryptBalance(balance, pk, r)

	table := elgamal.NewDLogTable(1 << 20)
	engine := rangeproof.SigmaEngine{}

	b, err := New(dk, old, 3_500, table, engine)
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

	if Verify(old, pk, 3_501, newCT, sigma, bundle.RangeProofs, bundle.Commitments, engine) {
		t.Fatal("Verify accepted a proof against a different public amount")
	}
}

package transfer

import (
	"context"
	"testing"

	"github.com/ristveil/veil/elgamal"
	"github.com/ristveil/veil/group"
	"github.com/ristveil/veil/internal/testdata"
	"github.com/ristveil/veil/rangeproof"
)

func setupSender(t *testing.T, drbg *testdata.DRBG, balance uint64) (*elgamal.DecryptionKey, elgamal.EncryptedBalance) {
	t.Helper()
	dk := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	pk := dk.EncryptionKey()
	b := elgamal.SplitUint64(balance)
	var r [elgamal.NumChunks]*group.Scalar
	for i := range r {
		r[i] = drbg.Scalar()
	}
	return dk, elgamal.EncryptBalance(b, pk, r)
}

func TestTransferRoundTripNoAuditors(t *testing.T) {
	drbg := testdata.New("transfer-round-trip")
	senderDK, old := setupSender(t, drbg, 50_000)
	senderPK := senderDK.EncryptionKey()
	recipientDK := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	recipientPK := recipientDK.EncryptionKey()

	table := elgamal.NewDLogTable(1 << 20)
	engine := rangeproof.SigmaEngine{}

	b, err := New(senderDK, old, recipientPK, nil, 12_345, table, engine)
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
	newCT, err := elgamal.EncryptedBalanceFromCanonical(bundle.SenderNewBalance)
	if err != nil {
		t.Fatalf("sender EncryptedBalanceFromCanonical: %v", err)
	}
	recipientCT, err := elgamal.EncryptedBalanceFromCanonical(bundle.RecipientBalance)
	if err != nil {
		t.Fatalf("recipient EncryptedBalanceFromCanonical: %v", err)
	}

	rp := &RangeProof{
		AmountProofs:       bundle.AmountRangeProofs,
		AmountCommitments:  bundle.AmountCommitments,
		BalanceProofs:      bundle.BalanceRangeProofs,
		BalanceCommitments: bundle.BalanceCommitments,
	}

	if !Verify(old, senderPK, recipientPK, nil, newCT, recipientCT, nil, sigma, rp, engine) {
		t.Fatal("Verify rejected a valid transfer")
	}

	gotSender, err := elgamal.DecryptBalance(newCT, senderDK, table)
	if err != nil {
		t.Fatalf("DecryptBalance(sender): %v", err)
	}
	if gotSender.Int().Int64() != 50_000-12_345 {
		t.Fatalf("sender balance = %s, want %d", gotSender.Int(), 50_000-12_345)
	}

	gotRecipient, err := elgamal.DecryptBalance(recipientCT, recipientDK, table)
	if err != nil {
		t.Fatalf("DecryptBalance(recipient): %v", err)
	}
	if gotRecipient.Int().Int64() != 12_345 {
		t.Fatalf("recipient balance = %s, want 12345", gotRecipient.Int())
	}
}

func TestTransferRoundTripWithAuditors(t *testing.T) {
	drbg := testdata.New("transfer-round-trip-auditors")
	senderDK, old := setupSender(t, drbg, 90_000)
	senderPK := senderDK.EncryptionKey()
	recipientDK := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	recipientPK := recipientDK.EncryptionKey()

	auditor1DK := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	auditor2DK := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	auditors := []*elgamal.EncryptionKey{auditor1DK.EncryptionKey(), auditor2DK.EncryptionKey()}

	table := elgamal.NewDLogTable(1 << 20)
	engine := rangeproof.SigmaEngine{}

	b, err := New(senderDK, old, recipientPK, auditors, 7_777, table, engine)
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
	newCT, err := elgamal.EncryptedBalanceFromCanonical(bundle.SenderNewBalance)
	if err != nil {
		t.Fatalf("sender EncryptedBalanceFromCanonical: %v", err)
	}
	recipientCT, err := elgamal.EncryptedBalanceFromCanonical(bundle.RecipientBalance)
	if err != nil {
		t.Fatalf("recipient EncryptedBalanceFromCanonical: %v", err)
	}

	auditorDList, err := DecodeAuditorDList(bundle.AuditorDValues)
	if err != nil {
		t.Fatalf("DecodeAuditorDList: %v", err)
	}

	rp := &RangeProof{
		AmountProofs:       bundle.AmountRangeProofs,
		AmountCommitments:  bundle.AmountCommitments,
		BalanceProofs:      bundle.BalanceRangeProofs,
		BalanceCommitments: bundle.BalanceCommitments,
	}

	if !Verify(old, senderPK, recipientPK, auditors, newCT, recipientCT, auditorDList, sigma, rp, engine) {
		t.Fatal("Verify rejected a valid audited transfer")
	}

	// Auditor 1 can decrypt the transferred amount from its own D values, without the sender's or recipient's key.
	auditedCT := elgamal.EncryptedBalance{}
	for i := 0; i < numChunks; i++ {
		auditedCT[i] = elgamal.Ciphertext{C: recipientCT[i].C, D: auditorDList[0][i]}
	}
	gotAmount, err := elgamal.DecryptBalance(auditedCT, auditor1DK, table)
	if err != nil {
		t.Fatalf("auditor DecryptBalance: %v", err)
	}
	if gotAmount.Int().Int64() != 7_777 {
		t.Fatalf("audited amount = %s, want 7777", gotAmount.Int())
	}
}

func TestTransferRejectsWrongRecipient(t *testing.T) {
	drbg := testdata.New("transfer-wrong-recipient")
	senderDK, old := setupSender(t, drbg, 20_000)
	senderPK := senderDK.EncryptionKey()
	recipientDK := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	recipientPK := recipientDK.EncryptionKey()
	otherPK := elgamal.NewDecryptionKey(drbg.DecryptionKey()).EncryptionKey()

	table := elgamal.NewDLogTable(1 << 20)
	engine := rangeproof.SigmaEngine{}

	b, err := New(senderDK, old, recipientPK, nil, 1_000, table, engine)
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
	newCT, err := elgamal.EncryptedBalanceFromCanonical(bundle.SenderNewBalance)
	if err != nil {
		t.Fatalf("sender EncryptedBalanceFromCanonical: %v", err)
	}
	recipientCT, err := elgamal.EncryptedBalanceFromCanonical(bundle.RecipientBalance)
	if err != nil {
		t.Fatalf("recipient EncryptedBalanceFromCanonical: %v", err)
	}
	rp := &RangeProof{
		AmountProofs:       bundle.AmountRangeProofs,
		AmountCommitments:  bundle.AmountCommitments,
		BalanceProofs:      bundle.BalanceRangeProofs,
		BalanceCommitments: bundle.BalanceCommitments,
	}

	if Verify(old, senderPK, otherPK, nil, newCT, recipientCT, nil, sigma, rp, engine) {
		t.Fatal("Verify accepted a proof against the wrong recipient key")
	}
}

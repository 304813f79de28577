// Package authz defines the authorization bundles this module's four proof builders return to the external
// transaction-submission collaborator (spec.md §6, "Authorization tuple returned to the submission layer"). These
// are pure data: no RPC client, no transaction encoding, no submission logic — all of that is explicitly out of
// scope (spec.md §1).
package authz

// WithdrawBundle is the authorization produced by withdraw.Builder.Authorize.
type WithdrawBundle struct {
	NewBalance   []byte // 256-byte EncryptedBalance wire encoding.
	SigmaProof   []byte
	RangeProofs  [4][]byte
	Commitments  [4][]byte // per-chunk range-proof commitments.
}

// TransferBundle is the authorization produced by transfer.Builder.Authorize.
type TransferBundle struct {
	SenderNewBalance   []byte // 256-byte EncryptedBalance wire encoding, under the sender's key.
	RecipientBalance   []byte // 256-byte EncryptedBalance wire encoding, under the recipient's key (2 live chunks).
	AuditorDValues     [][4][]byte // per-auditor, per-chunk rᵢ·P_a^(k) points, 32 bytes each.
	SigmaProof         []byte
	AmountRangeProofs  [4][]byte
	BalanceRangeProofs [4][]byte
	AmountCommitments  [4][]byte
	BalanceCommitments [4][]byte
}

// KeyRotationBundle is the authorization produced by keyrotation.Builder.Authorize.
type KeyRotationBundle struct {
	NewBalance  []byte
	SigmaProof  []byte
	RangeProofs [4][]byte
	Commitments [4][]byte
}

// NormalizationBundle is the authorization produced by normalization.Builder.Authorize.
type NormalizationBundle struct {
	NewBalance  []byte
	SigmaProof  []byte
	RangeProofs [4][]byte
	Commitments [4][]byte
}

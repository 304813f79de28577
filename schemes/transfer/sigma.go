package transfer

import (
	"crypto/rand"

	"github.com/ristveil/veil"
	"github.com/ristveil/veil/elgamal"
	"github.com/ristveil/veil/group"
)

// SigmaProof is the Fiat-Shamir Sigma proof for a Transfer authorization (spec.md §4.3.2, §6 wire order:
// α1 α2 α3[0..3] α4[0..3] α5 α6[0..3] X1 X2[0..3] X3[0..3] X4[0..3] X5 X6[0..3], plus an optional per-auditor,
// per-chunk X7 list).
//
// A single per-chunk randomness array (α3ᵢ, witnessing rᵢ) ties together three things for every chunk i: the
// recipient's ciphertext Eᵢ (X2ᵢ, X4ᵢ), the sender's new-balance ciphertext B'ᵢ (X3ᵢ, X6ᵢ), and every auditor's D
// value (X7). A prover cannot satisfy these with different rᵢ values for different statements. As in withdraw, α1
// is the weighted sum of the per-chunk G-side responses (α4, α6) rather than an independent witness.
type SigmaProof struct {
	Alpha1 *group.Scalar
	Alpha2 *group.Scalar
	Alpha3 [numChunks]*group.Scalar
	Alpha4 [numChunks]*group.Scalar
	Alpha5 *group.Scalar
	Alpha6 [numChunks]*group.Scalar

	X1 *group.Point
	X2 [numChunks]*group.Point
	X3 [numChunks]*group.Point
	X4 [numChunks]*group.Point
	X5 *group.Point
	X6 [numChunks]*group.Point

	// X7[k][i] = kR[i]·Pa[k], one per auditor per chunk. Empty when there are no auditors.
	X7 [][numChunks]*group.Point
}

func randScalar() *group.Scalar {
	seed := make([]byte, 64)
	if _, err := rand.Read(seed); err != nil {
		panic(err)
	}
	return group.RandomScalar(seed)
}

func dsum(eb elgamal.EncryptedBalance) *group.Point {
	acc := group.NewPoint()
	for i := 0; i < numChunks; i++ {
		acc = acc.Add(eb[i].D.Mul(veil.ChunkWeight(i)))
	}
	return acc
}

func absorbStatement(tr *veil.Transcript, senderPK, recipientPK *elgamal.EncryptionKey, auditorPKs []*elgamal.EncryptionKey, old, newCT, recipientCT elgamal.EncryptedBalance, auditorDList [][numChunks]*group.Point) {
	tr.AbsorbPoints(senderPK.Point(), recipientPK.Point())
	for _, apk := range auditorPKs {
		tr.AbsorbPoints(apk.Point())
	}
	for i := 0; i < numChunks; i++ {
		tr.AbsorbPoints(old[i].C, old[i].D)
	}
	for i := 0; i < numChunks; i++ {
		tr.AbsorbPoints(newCT[i].C, newCT[i].D)
	}
	for i := 0; i < numChunks; i++ {
		tr.AbsorbPoints(recipientCT[i].C, recipientCT[i].D)
	}
	for _, row := range auditorDList {
		tr.AbsorbPoints(row[:]...)
	}
}

func proveSigma(dk *elgamal.DecryptionKey, senderPK, recipientPK *elgamal.EncryptionKey, auditorPKs []*elgamal.EncryptionKey, old elgamal.EncryptedBalance, amountCh [numChunks]uint64, newCT, recipientCT elgamal.EncryptedBalance, auditorDList [][numChunks]*group.Point, r [numChunks]*group.Scalar, newBalance elgamal.Balance) (*SigmaProof, error) {
	s := dk.Scalar()
	sInv := s.Inverse()

	k2 := randScalar()
	k5 := randScalar()

	var k3, k4, k6 [numChunks]*group.Scalar
	for i := 0; i < numChunks; i++ {
		k3[i] = randScalar()
		k4[i] = randScalar()
		k6[i] = randScalar()
	}

	Dsum := dsum(old)
	X5 := group.H().Mul(k5)

	var X2, X3, X4, X6 [numChunks]*group.Point
	for i := 0; i < numChunks; i++ {
		X2[i] = recipientPK.Point().Mul(k3[i])
		X3[i] = senderPK.Point().Mul(k3[i])
		X4[i] = group.H().Mul(k3[i]).Add(group.G().Mul(k4[i]))
		X6[i] = group.H().Mul(k3[i]).Add(group.G().Mul(k6[i]))
	}

	k1 := group.NewScalar()
	for i := 0; i < numChunks; i++ {
		w := veil.ChunkWeight(i)
		k1 = k1.Add(k4[i].Mul(w)).Add(k6[i].Mul(w))
	}
	// X1 commits to the balance equation s·Dsum + Σ wᵢ·aᵢ·G + Σ wᵢ·c'ᵢ·G = Σ wᵢ·Bᵢ.C: both aᵢ and c'ᵢ are
	// G-coefficients (per X4/X6 below), so their combined nonce k1 is folded in via G, not H.
	X1 := Dsum.Mul(k2).Add(group.G().Mul(k1))

	X7 := make([][numChunks]*group.Point, len(auditorPKs))
	for k, apk := range auditorPKs {
		var row [numChunks]*group.Point
		for i := 0; i < numChunks; i++ {
			row[i] = apk.Point().Mul(k3[i])
		}
		X7[k] = row
	}

	tr := veil.NewTranscript(veil.DSTTransfer)
	absorbStatement(tr, senderPK, recipientPK, auditorPKs, old, newCT, recipientCT, auditorDList)
	tr.AbsorbPoints(X1)
	tr.AbsorbPoints(X2[:]...)
	tr.AbsorbPoints(X3[:]...)
	tr.AbsorbPoints(X4[:]...)
	tr.AbsorbPoints(X5)
	tr.AbsorbPoints(X6[:]...)
	for _, row := range X7 {
		tr.AbsorbPoints(row[:]...)
	}
	chi := tr.Challenge()

	alpha2 := k2.Add(chi.Mul(s))
	alpha5 := k5.Add(chi.Mul(sInv))

	var alpha3, alpha4, alpha6 [numChunks]*group.Scalar
	for i := 0; i < numChunks; i++ {
		alpha3[i] = k3[i].Add(chi.Mul(r[i]))
		alpha4[i] = k4[i].Add(chi.Mul(group.ScalarFromUint64(amountCh[i])))
		alpha6[i] = k6[i].Add(chi.Mul(group.ScalarFromUint64(newBalance.Chunks[i])))
	}

	alpha1 := group.NewScalar()
	for i := 0; i < numChunks; i++ {
		w := veil.ChunkWeight(i)
		alpha1 = alpha1.Add(alpha4[i].Mul(w)).Add(alpha6[i].Mul(w))
	}

	return &SigmaProof{
		Alpha1: alpha1,
		Alpha2: alpha2,
		Alpha3: alpha3,
		Alpha4: alpha4,
		Alpha5: alpha5,
		Alpha6: alpha6,
		X1:     X1,
		X2:     X2,
		X3:     X3,
		X4:     X4,
		X5:     X5,
		X6:     X6,
		X7:     X7,
	}, nil
}

func verifySigma(senderPK, recipientPK *elgamal.EncryptionKey, auditorPKs []*elgamal.EncryptionKey, old, newCT, recipientCT elgamal.EncryptedBalance, auditorDList [][numChunks]*group.Point, p *SigmaProof) bool {
	tr := veil.NewTranscript(veil.DSTTransfer)
	absorbStatement(tr, senderPK, recipientPK, auditorPKs, old, newCT, recipientCT, auditorDList)
	tr.AbsorbPoints(p.X1)
	tr.AbsorbPoints(p.X2[:]...)
	tr.AbsorbPoints(p.X3[:]...)
	tr.AbsorbPoints(p.X4[:]...)
	tr.AbsorbPoints(p.X5)
	tr.AbsorbPoints(p.X6[:]...)
	for _, row := range p.X7 {
		tr.AbsorbPoints(row[:]...)
	}
	chi := tr.Challenge()

	Dsum := dsum(old)

	// Q1 is the old-ciphertext aggregate alone: the balance equation is s·Dsum + Σ wᵢ·aᵢ·G + Σ wᵢ·c'ᵢ·G = Σ wᵢ·Bᵢ.C,
	// and aᵢ, c'ᵢ are witnessed directly (via α4, α6) rather than through the recipient/new-balance ciphertexts.
	Q1 := group.NewPoint()
	for i := 0; i < numChunks; i++ {
		Q1 = Q1.Add(old[i].C.Mul(veil.ChunkWeight(i)))
	}

	lhs1 := Dsum.Mul(p.Alpha2).Add(group.G().Mul(p.Alpha1))
	if !lhs1.Equal(p.X1.Add(Q1.Mul(chi))) {
		return false
	}

	if !group.H().Mul(p.Alpha5).Equal(p.X5.Add(senderPK.Point().Mul(chi))) {
		return false
	}

	for i := 0; i < numChunks; i++ {
		if !recipientPK.Point().Mul(p.Alpha3[i]).Equal(p.X2[i].Add(recipientCT[i].D.Mul(chi))) {
			return false
		}
		if !senderPK.Point().Mul(p.Alpha3[i]).Equal(p.X3[i].Add(newCT[i].D.Mul(chi))) {
			return false
		}
		lhs4 := group.H().Mul(p.Alpha3[i]).Add(group.G().Mul(p.Alpha4[i]))
		if !lhs4.Equal(p.X4[i].Add(recipientCT[i].C.Mul(chi))) {
			return false
		}
		lhs6 := group.H().Mul(p.Alpha3[i]).Add(group.G().Mul(p.Alpha6[i]))
		if !lhs6.Equal(p.X6[i].Add(newCT[i].C.Mul(chi))) {
			return false
		}
	}

	if len(p.X7) != len(auditorPKs) {
		return false
	}
	for k, apk := range auditorPKs {
		for i := 0; i < numChunks; i++ {
			if !apk.Point().Mul(p.Alpha3[i]).Equal(p.X7[k][i].Add(auditorDList[k][i].Mul(chi))) {
				return false
			}
		}
	}

	return true
}

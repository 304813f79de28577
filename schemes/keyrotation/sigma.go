package keyrotation

import (
	"crypto/rand"

	"github.com/ristveil/veil"
	"github.com/ristveil/veil/elgamal"
	"github.com/ristveil/veil/group"
)

// SigmaProof is the Fiat-Shamir Sigma proof for a KeyRotation authorization (spec.md §4.3.3). Unlike Withdraw and
// Transfer, the balance-equality check here has no aggregate alias response: it is a direct 2-unknown (so, sn)
// linear equation, so responses for so and sn are transmitted independently.
type SigmaProof struct {
	AlphaSo    *group.Scalar
	AlphaSn    *group.Scalar
	AlphaSoInv *group.Scalar
	AlphaR     [numChunks]*group.Scalar
	AlphaC     [numChunks]*group.Scalar

	X1 *group.Point
	X2 [numChunks]*group.Point
	X3 [numChunks]*group.Point
	X4 *group.Point
}

func randScalar() *group.Scalar {
	seed := make([]byte, 64)
	if _, err := rand.Read(seed); err != nil {
		panic(err)
	}
	return group.RandomScalar(seed)
}

func absorbStatement(tr *veil.Transcript, oldPK *elgamal.EncryptionKey, old elgamal.EncryptedBalance, newPK *elgamal.EncryptionKey, newCT elgamal.EncryptedBalance) {
	tr.AbsorbPoints(oldPK.Point(), newPK.Point())
	for i := 0; i < numChunks; i++ {
		tr.AbsorbPoints(old[i].C, old[i].D)
	}
	for i := 0; i < numChunks; i++ {
		tr.AbsorbPoints(newCT[i].C, newCT[i].D)
	}
}

func proveSigma(oldDK, newDK *elgamal.DecryptionKey, newPK *elgamal.EncryptionKey, old elgamal.EncryptedBalance, newCT elgamal.EncryptedBalance, r [numChunks]*group.Scalar, balance elgamal.Balance) (*SigmaProof, error) {
	so := oldDK.Scalar()
	sn := newDK.Scalar()
	soInv := so.Inverse()
	oldPK := oldDK.EncryptionKey()

	kSo := randScalar()
	kSn := randScalar()
	kSoInv := randScalar()

	var kR, kC [numChunks]*group.Scalar
	for i := 0; i < numChunks; i++ {
		kR[i] = randScalar()
		kC[i] = randScalar()
	}

	dsumOld := dsum(old)
	dsumNew := dsum(newCT)

	X1 := dsumOld.Mul(kSo).Sub(dsumNew.Mul(kSn))
	X4 := group.H().Mul(kSoInv)

	var X2, X3 [numChunks]*group.Point
	for i := 0; i < numChunks; i++ {
		X2[i] = newPK.Point().Mul(kR[i])
		X3[i] = group.H().Mul(kR[i]).Add(group.G().Mul(kC[i]))
	}

	tr := veil.NewTranscript(veil.DSTKeyRotation)
	absorbStatement(tr, oldPK, old, newPK, newCT)
	tr.AbsorbPoints(X1)
	tr.AbsorbPoints(X2[:]...)
	tr.AbsorbPoints(X3[:]...)
	tr.AbsorbPoints(X4)
	chi := tr.Challenge()

	alphaSo := kSo.Add(chi.Mul(so))
	alphaSn := kSn.Add(chi.Mul(sn))
	alphaSoInv := kSoInv.Add(chi.Mul(soInv))

	var alphaR, alphaC [numChunks]*group.Scalar
	for i := 0; i < numChunks; i++ {
		alphaR[i] = kR[i].Add(chi.Mul(r[i]))
		alphaC[i] = kC[i].Add(chi.Mul(group.ScalarFromUint64(balance.Chunks[i])))
	}

	return &SigmaProof{
		AlphaSo:    alphaSo,
		AlphaSn:    alphaSn,
		AlphaSoInv: alphaSoInv,
		AlphaR:     alphaR,
		AlphaC:     alphaC,
		X1:         X1,
		X2:         X2,
		X3:         X3,
		X4:         X4,
	}, nil
}

func verifySigma(old elgamal.EncryptedBalance, oldPK *elgamal.EncryptionKey, newCT elgamal.EncryptedBalance, newPK *elgamal.EncryptionKey, p *SigmaProof) bool {
	tr := veil.NewTranscript(veil.DSTKeyRotation)
	absorbStatement(tr, oldPK, old, newPK, newCT)
	tr.AbsorbPoints(p.X1)
	tr.AbsorbPoints(p.X2[:]...)
	tr.AbsorbPoints(p.X3[:]...)
	tr.AbsorbPoints(p.X4)
	chi := tr.Challenge()

	dsumOld := dsum(old)
	dsumNew := dsum(newCT)
	Q1 := balanceTarget(old, newCT)

	lhs1 := dsumOld.Mul(p.AlphaSo).Sub(dsumNew.Mul(p.AlphaSn))
	if !lhs1.Equal(p.X1.Add(Q1.Mul(chi))) {
		return false
	}
	if !group.H().Mul(p.AlphaSoInv).Equal(p.X4.Add(oldPK.Point().Mul(chi))) {
		return false
	}

	for i := 0; i < numChunks; i++ {
		if !newPK.Point().Mul(p.AlphaR[i]).Equal(p.X2[i].Add(newCT[i].D.Mul(chi))) {
			return false
		}
		lhs3 := group.H().Mul(p.AlphaR[i]).Add(group.G().Mul(p.AlphaC[i]))
		if !lhs3.Equal(p.X3[i].Add(newCT[i].C.Mul(chi))) {
			return false
		}
	}

	return true
}

package normalization

import (
	"crypto/rand"

	"github.com/ristveil/veil"
	"github.com/ristveil/veil/elgamal"
	"github.com/ristveil/veil/group"
)

// SigmaProof is the Fiat-Shamir Sigma proof for a Normalization authorization (spec.md §4.3.4). The balance-equality
// equation has a single secret, s (the shared old/new key), rather than the two-key equation keyrotation needs.
type SigmaProof struct {
	AlphaS    *group.Scalar
	AlphaSInv *group.Scalar
	AlphaR    [numChunks]*group.Scalar
	AlphaC    [numChunks]*group.Scalar

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

func absorbStatement(tr *veil.Transcript, pk *elgamal.EncryptionKey, old, newCT elgamal.EncryptedBalance) {
	tr.AbsorbPoints(pk.Point())
	for i := 0; i < numChunks; i++ {
		tr.AbsorbPoints(old[i].C, old[i].D)
	}
	for i := 0; i < numChunks; i++ {
		tr.AbsorbPoints(newCT[i].C, newCT[i].D)
	}
}

func proveSigma(dk *elgamal.DecryptionKey, pk *elgamal.EncryptionKey, old elgamal.EncryptedBalance, newCT elgamal.EncryptedBalance, r [numChunks]*group.Scalar, balance elgamal.Balance) (*SigmaProof, error) {
	s := dk.Scalar()
	sInv := s.Inverse()

	kS := randScalar()
	kSInv := randScalar()

	var kR, kC [numChunks]*group.Scalar
	for i := 0; i < numChunks; i++ {
		kR[i] = randScalar()
		kC[i] = randScalar()
	}

	diff := dsum(newCT).Sub(dsum(old))
	X1 := diff.Mul(kS)
	X4 := group.H().Mul(kSInv)

	var X2, X3 [numChunks]*group.Point
	for i := 0; i < numChunks; i++ {
		X2[i] = pk.Point().Mul(kR[i])
		X3[i] = group.H().Mul(kR[i]).Add(group.G().Mul(kC[i]))
	}

	tr := veil.NewTranscript(veil.DSTNormalization)
	absorbStatement(tr, pk, old, newCT)
	tr.AbsorbPoints(X1)
	tr.AbsorbPoints(X2[:]...)
	tr.AbsorbPoints(X3[:]...)
	tr.AbsorbPoints(X4)
	chi := tr.Challenge()

	alphaS := kS.Add(chi.Mul(s))
	alphaSInv := kSInv.Add(chi.Mul(sInv))

	var alphaR, alphaC [numChunks]*group.Scalar
	for i := 0; i < numChunks; i++ {
		alphaR[i] = kR[i].Add(chi.Mul(r[i]))
		alphaC[i] = kC[i].Add(chi.Mul(group.ScalarFromUint64(balance.Chunks[i])))
	}

	return &SigmaProof{
		AlphaS:    alphaS,
		AlphaSInv: alphaSInv,
		AlphaR:    alphaR,
		AlphaC:    alphaC,
		X1:        X1,
		X2:        X2,
		X3:        X3,
		X4:        X4,
	}, nil
}

func verifySigma(old elgamal.EncryptedBalance, pk *elgamal.EncryptionKey, newCT elgamal.EncryptedBalance, p *SigmaProof) bool {
	tr := veil.NewTranscript(veil.DSTNormalization)
	absorbStatement(tr, pk, old, newCT)
	tr.AbsorbPoints(p.X1)
	tr.AbsorbPoints(p.X2[:]...)
	tr.AbsorbPoints(p.X3[:]...)
	tr.AbsorbPoints(p.X4)
	chi := tr.Challenge()

	diff := dsum(newCT).Sub(dsum(old))
	Q1 := balanceTarget(old, newCT)

	if !diff.Mul(p.AlphaS).Equal(p.X1.Add(Q1.Mul(chi))) {
		return false
	}
	if !group.H().Mul(p.AlphaSInv).Equal(p.X4.Add(pk.Point().Mul(chi))) {
		return false
	}

	for i := 0; i < numChunks; i++ {
		if !pk.Point().Mul(p.AlphaR[i]).Equal(p.X2[i].Add(newCT[i].D.Mul(chi))) {
			return false
		}
		lhs3 := group.H().Mul(p.AlphaR[i]).Add(group.G().Mul(p.AlphaC[i]))
		if !lhs3.Equal(p.X3[i].Add(newCT[i].C.Mul(chi))) {
			return false
		}
	}

	return true
}

package rangeproof

import (
	"crypto/rand"

	"github.com/ristveil/veil/group"
)

// SigmaEngine is a reference [Engine] built from per-bit Sigma OR-proofs (Cramer-Damgård-Schoenmakers), not a
// logarithmic-size Bulletproofs inner-product argument. The pack this module was built from contains no
// Ristretto255-compatible Bulletproofs implementation (see DESIGN.md), so this stands in: it satisfies the Engine
// contract and every testable property in spec.md §8, at the cost of a proof linear in bits rather than
// logarithmic. Swap in a real Bulletproofs engine for production use without touching any caller.
type SigmaEngine struct{}

const dstRangeProof = "veil/rangeproof/SigmaEngine"

// bitStride is the per-bit proof size: the bit commitment Kᵢ, plus the OR-proof's (c0, s0, c1, s1).
const bitStride = 5 * group.Size

// bitBlinds decomposes v into per-bit blinding factors rᵢ with Σ 2^i·rᵢ = r, so that Σ 2^i·Kᵢ = v·baseV + r·baseR.
func bitBlinds(v uint64, r *group.Scalar, bits int) ([]*group.Scalar, error) {
	if bits <= 0 || bits > 63 {
		return nil, ErrInvalidInput
	}
	if v>>uint(bits) != 0 {
		return nil, ErrInvalidInput
	}

	blinds := make([]*group.Scalar, bits)
	sum := group.NewScalar()
	for i := 1; i < bits; i++ {
		rnd, err := randomScalar()
		if err != nil {
			return nil, err
		}
		blinds[i] = rnd
		sum = sum.Add(rnd.Mul(group.ScalarFromUint64(uint64(1) << uint(i))))
	}
	blinds[0] = r.Sub(sum)
	return blinds, nil
}

func randomScalar() (*group.Scalar, error) {
	seed := make([]byte, 64)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return group.RandomScalar(seed), nil
}

// Prove implements [Engine.Prove].
func (SigmaEngine) Prove(v uint64, r *group.Scalar, baseV, baseR *group.Point, bits int) ([]byte, []byte, error) {
	blinds, err := bitBlinds(v, r, bits)
	if err != nil {
		return nil, nil, err
	}

	proof := make([]byte, 0, bits*bitStride)
	k := group.NewPoint()
	weight := group.ScalarFromUint64(1)
	two := group.ScalarFromUint64(2)

	for i := 0; i < bits; i++ {
		bit := (v >> uint(i)) & 1
		ki := baseV.Mul(group.ScalarFromUint64(bit)).Add(baseR.Mul(blinds[i]))

		c0, s0, c1, s1, err := proveBit(i, bit == 1, blinds[i], ki, baseV, baseR)
		if err != nil {
			return nil, nil, err
		}

		proof = append(proof, ki.Bytes()...)
		proof = append(proof, c0.Bytes()...)
		proof = append(proof, s0.Bytes()...)
		proof = append(proof, c1.Bytes()...)
		proof = append(proof, s1.Bytes()...)

		k = k.Add(ki.Mul(weight))
		weight = weight.Mul(two)
	}

	return proof, k.Bytes(), nil
}

// proveBit produces a 1-of-2 OR proof that ki = bit·baseV + r·baseR for bit ∈ {0,1}, revealing neither bit nor r.
// The branch that is NOT taken is simulated: its challenge share and response are chosen freely and its commitment
// derived from them, which is indistinguishable from a real proof to anyone without r.
func proveBit(i int, bitIsOne bool, r *group.Scalar, ki, baseV, baseR *group.Point) (c0, s0, c1, s1 *group.Scalar, err error) {
	k, err := randomScalar()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	branch1Stmt := ki.Sub(baseV) // if bit=1: ki - baseV = r·baseR

	if bitIsOne {
		c0, err = randomScalar()
		if err != nil {
			return nil, nil, nil, nil, err
		}
		s0, err = randomScalar()
		if err != nil {
			return nil, nil, nil, nil, err
		}
		a0 := baseR.Mul(s0).Sub(ki.Mul(c0))
		a1 := baseR.Mul(k)

		c := challenge(i, ki, a0, a1)
		c1 = c.Sub(c0)
		s1 = k.Add(c1.Mul(r))
		return c0, s0, c1, s1, nil
	}

	c1, err = randomScalar()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	s1, err = randomScalar()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	a0 := baseR.Mul(k)
	a1 := baseR.Mul(s1).Sub(branch1Stmt.Mul(c1))

	c := challenge(i, ki, a0, a1)
	c0 = c.Sub(c1)
	s0 = k.Add(c0.Mul(r))
	return c0, s0, c1, s1, nil
}

func challenge(i int, ki, a0, a1 *group.Point) *group.Scalar {
	return group.HashToScalar(dstRangeProof, []byte{byte(i), byte(i >> 8)}, ki.Bytes(), a0.Bytes(), a1.Bytes())
}

// Verify implements [Engine.Verify].
func (SigmaEngine) Verify(proof []byte, commitment []byte, baseV, baseR *group.Point, bits int) bool {
	if bits <= 0 || len(proof) != bits*bitStride {
		return false
	}

	k, err := group.PointFromCanonical(commitment)
	if err != nil {
		return false
	}

	acc := group.NewPoint()
	weight := group.ScalarFromUint64(1)
	two := group.ScalarFromUint64(2)

	for i := 0; i < bits; i++ {
		off := i * bitStride
		ki, err := group.PointFromCanonical(proof[off : off+group.Size])
		if err != nil {
			return false
		}
		c0, err := group.ScalarFromCanonical(proof[off+group.Size : off+2*group.Size])
		if err != nil {
			return false
		}
		s0, err := group.ScalarFromCanonical(proof[off+2*group.Size : off+3*group.Size])
		if err != nil {
			return false
		}
		c1, err := group.ScalarFromCanonical(proof[off+3*group.Size : off+4*group.Size])
		if err != nil {
			return false
		}
		s1, err := group.ScalarFromCanonical(proof[off+4*group.Size : off+5*group.Size])
		if err != nil {
			return false
		}

		branch1Stmt := ki.Sub(baseV)
		a0 := baseR.Mul(s0).Sub(ki.Mul(c0))
		a1 := baseR.Mul(s1).Sub(branch1Stmt.Mul(c1))

		c := challenge(i, ki, a0, a1)
		if !c0.Add(c1).Equal(c) {
			return false
		}

		acc = acc.Add(ki.Mul(weight))
		weight = weight.Mul(two)
	}

	return acc.Equal(k)
}

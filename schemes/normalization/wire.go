package normalization

import (
	"github.com/ristveil/veil"
	"github.com/ristveil/veil/group"
)

// Bytes serializes the proof as: alphaS alphaSInv alphaR[0..3] alphaC[0..3] X1 X2[0..3] X3[0..3] X4.
func (p *SigmaProof) Bytes() []byte {
	scalars := make([]*group.Scalar, 0, 2+2*numChunks)
	scalars = append(scalars, p.AlphaS, p.AlphaSInv)
	scalars = append(scalars, p.AlphaR[:]...)
	scalars = append(scalars, p.AlphaC[:]...)

	points := make([]*group.Point, 0, 2+2*numChunks)
	points = append(points, p.X1)
	points = append(points, p.X2[:]...)
	points = append(points, p.X3[:]...)
	points = append(points, p.X4)

	out := veil.EncodeScalars(scalars...)
	return append(out, veil.EncodePoints(points...)...)
}

// SigmaProofFromCanonical parses the wire format produced by [SigmaProof.Bytes].
func SigmaProofFromCanonical(b []byte) (*SigmaProof, error) {
	const nScalars = 2 + 2*numChunks
	const nPoints = 2 + 2*numChunks
	want := nScalars*group.Size + nPoints*group.Size
	if len(b) != want {
		return nil, veil.ErrMalformedProof
	}

	scalars, err := veil.DecodeScalars(b[:nScalars*group.Size], nScalars)
	if err != nil {
		return nil, err
	}
	points, err := veil.DecodePoints(b[nScalars*group.Size:], nPoints)
	if err != nil {
		return nil, err
	}

	p := &SigmaProof{
		AlphaS:    scalars[0],
		AlphaSInv: scalars[1],
		X1:        points[0],
		X4:        points[1+2*numChunks],
	}
	copy(p.AlphaR[:], scalars[2:2+numChunks])
	copy(p.AlphaC[:], scalars[2+numChunks:2+2*numChunks])
	copy(p.X2[:], points[1:1+numChunks])
	copy(p.X3[:], points[1+numChunks:1+2*numChunks])
	return p, nil
}

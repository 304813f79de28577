package withdraw

import (
	"github.com/ristveil/veil"
	"github.com/ristveil/veil/group"
)

// Bytes serializes the proof in the fixed wire order from spec.md §6:
// α1 α2 α3[0..3] α4 α5[0..3] X1 X2[0..3] X3 X4[0..3].
func (p *SigmaProof) Bytes() []byte {
	scalars := make([]*group.Scalar, 0, 2+2*numChunks)
	scalars = append(scalars, p.Alpha1, p.Alpha2)
	scalars = append(scalars, p.Alpha3[:]...)
	scalars = append(scalars, p.Alpha4)
	scalars = append(scalars, p.Alpha5[:]...)

	points := make([]*group.Point, 0, 2+2*numChunks)
	points = append(points, p.X1)
	points = append(points, p.X2[:]...)
	points = append(points, p.X3)
	points = append(points, p.X4[:]...)

	out := veil.EncodeScalars(scalars...)
	return append(out, veil.EncodePoints(points...)...)
}

// SigmaProofFromCanonical parses the wire format produced by [SigmaProof.Bytes].
func SigmaProofFromCanonical(b []byte) (*SigmaProof, error) {
	const nScalars = 3 + 2*numChunks
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
		Alpha1: scalars[0],
		Alpha2: scalars[1],
		Alpha4: scalars[2+numChunks],
		X1:     points[0],
		X3:     points[1+numChunks],
	}
	copy(p.Alpha3[:], scalars[2:2+numChunks])
	copy(p.Alpha5[:], scalars[3+numChunks:3+2*numChunks])
	copy(p.X2[:], points[1:1+numChunks])
	copy(p.X4[:], points[2+numChunks:2+2*numChunks])
	return p, nil
}

package transfer

import (
	"github.com/ristveil/veil"
	"github.com/ristveil/veil/group"
)

// numAuditorsSize is the wire width of the auditor count prefix.
const numAuditorsSize = 4

// Bytes serializes the proof as: alpha1 alpha2 alpha3[0..3] alpha4[0..3] alpha5 alpha6[0..3] X1 X2[0..3] X3[0..3]
// X4[0..3] X5 X6[0..3], followed by a 4-byte big-endian auditor count and that many 4-point X7 rows.
func (p *SigmaProof) Bytes() []byte {
	scalars := make([]*group.Scalar, 0, 3+3*numChunks)
	scalars = append(scalars, p.Alpha1, p.Alpha2)
	scalars = append(scalars, p.Alpha3[:]...)
	scalars = append(scalars, p.Alpha4[:]...)
	scalars = append(scalars, p.Alpha5)
	scalars = append(scalars, p.Alpha6[:]...)

	points := make([]*group.Point, 0, 2+4*numChunks)
	points = append(points, p.X1)
	points = append(points, p.X2[:]...)
	points = append(points, p.X3[:]...)
	points = append(points, p.X4[:]...)
	points = append(points, p.X5)
	points = append(points, p.X6[:]...)

	out := veil.EncodeScalars(scalars...)
	out = append(out, veil.EncodePoints(points...)...)

	n := len(p.X7)
	out = append(out, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	for _, row := range p.X7 {
		out = append(out, veil.EncodePoints(row[:]...)...)
	}
	return out
}

// SigmaProofFromCanonical parses the wire format produced by [SigmaProof.Bytes].
func SigmaProofFromCanonical(b []byte) (*SigmaProof, error) {
	const nScalars = 3 + 3*numChunks
	const nPoints = 2 + 4*numChunks
	head := nScalars*group.Size + nPoints*group.Size
	if len(b) < head+numAuditorsSize {
		return nil, veil.ErrMalformedProof
	}

	scalars, err := veil.DecodeScalars(b[:nScalars*group.Size], nScalars)
	if err != nil {
		return nil, err
	}
	points, err := veil.DecodePoints(b[nScalars*group.Size:head], nPoints)
	if err != nil {
		return nil, err
	}

	tail := b[head:]
	n := int(tail[0])<<24 | int(tail[1])<<16 | int(tail[2])<<8 | int(tail[3])
	tail = tail[numAuditorsSize:]
	if len(tail) != n*numChunks*group.Size {
		return nil, veil.ErrMalformedProof
	}

	x7 := make([][numChunks]*group.Point, n)
	for k := 0; k < n; k++ {
		row, err := veil.DecodePoints(tail[k*numChunks*group.Size:(k+1)*numChunks*group.Size], numChunks)
		if err != nil {
			return nil, err
		}
		copy(x7[k][:], row)
	}

	p := &SigmaProof{
		Alpha1: scalars[0],
		Alpha2: scalars[1],
		Alpha5: scalars[2+2*numChunks],
		X1:     points[0],
		X5:     points[1+3*numChunks],
		X7:     x7,
	}
	copy(p.Alpha3[:], scalars[2:2+numChunks])
	copy(p.Alpha4[:], scalars[2+numChunks:2+2*numChunks])
	copy(p.Alpha6[:], scalars[3+2*numChunks:3+3*numChunks])
	copy(p.X2[:], points[1:1+numChunks])
	copy(p.X3[:], points[1+numChunks:1+2*numChunks])
	copy(p.X4[:], points[1+2*numChunks:1+3*numChunks])
	copy(p.X6[:], points[2+3*numChunks:2+4*numChunks])
	return p, nil
}

// DecodeAuditorDList parses the per-auditor, per-chunk D values stored in an [authz.TransferBundle] back into group
// points, for use as [Verify]'s auditorDList argument.
func DecodeAuditorDList(raw [][numChunks][]byte) ([][numChunks]*group.Point, error) {
	out := make([][numChunks]*group.Point, len(raw))
	for k, row := range raw {
		for i := 0; i < numChunks; i++ {
			pt, err := group.PointFromCanonical(row[i])
			if err != nil {
				return nil, err
			}
			out[k][i] = pt
		}
	}
	return out, nil
}

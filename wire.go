package veil

import "github.com/ristveil/veil/group"

// EncodeScalars concatenates each scalar's 32-byte canonical encoding, in order.
func EncodeScalars(ss ...*group.Scalar) []byte {
	out := make([]byte, 0, len(ss)*group.Size)
	for _, s := range ss {
		out = append(out, s.Bytes()...)
	}
	return out
}

// EncodePoints concatenates each point's 32-byte canonical encoding, in order.
func EncodePoints(ps ...*group.Point) []byte {
	out := make([]byte, 0, len(ps)*group.Size)
	for _, p := range ps {
		out = append(out, p.Bytes()...)
	}
	return out
}

// DecodeScalars splits b into n canonical 32-byte scalars. Returns ErrMalformedProof if b is not exactly n*32 bytes
// or contains a non-canonical encoding.
func DecodeScalars(b []byte, n int) ([]*group.Scalar, error) {
	if len(b) != n*group.Size {
		return nil, ErrMalformedProof
	}
	out := make([]*group.Scalar, n)
	for i := range out {
		s, err := group.ScalarFromCanonical(b[i*group.Size : (i+1)*group.Size])
		if err != nil {
			return nil, ErrMalformedProof
		}
		out[i] = s
	}
	return out, nil
}

// DecodePoints splits b into n canonical 32-byte points. Returns ErrMalformedProof if b is not exactly n*32 bytes or
// contains a non-canonical encoding.
func DecodePoints(b []byte, n int) ([]*group.Point, error) {
	if len(b) != n*group.Size {
		return nil, ErrMalformedProof
	}
	out := make([]*group.Point, n)
	for i := range out {
		p, err := group.PointFromCanonical(b[i*group.Size : (i+1)*group.Size])
		if err != nil {
			return nil, ErrMalformedProof
		}
		out[i] = p
	}
	return out, nil
}

// ChunkWeight returns 2^(32*i) mod ℓ, the positional weight of chunk i in a 4-chunk balance. Computed as repeated
// scalar multiplication rather than a uint64 shift: for i>=2 the true weight (2^64, 2^96) does not fit in a uint64,
// so it must be folded mod ℓ within the scalar field rather than truncated beforehand.
func ChunkWeight(i int) *group.Scalar {
	base := group.ScalarFromUint64(uint64(1) << 32)
	w := group.ScalarFromUint64(1)
	for k := 0; k < i; k++ {
		w = w.Mul(base)
	}
	return w
}

// Package testdata provides a deterministic random bit generator for tests, so that proof fixtures are reproducible
// across runs without checking in static golden encodings for every chunk/key combination.
package testdata

import (
	"crypto/sha3"
	"io"

	"github.com/ristveil/veil/group"
)

// DRBG is a deterministic random bit generator based on SHAKE128.
type DRBG struct {
	h *sha3.SHAKE
}

// New returns a new DRBG instance initialized with the given customization string.
func New(customization string) *DRBG {
	h := sha3.NewSHAKE128()
	_, _ = h.Write([]byte(customization))
	return &DRBG{h}
}

// DecryptionKey returns a deterministic decryption key scalar from the DRBG.
func (d *DRBG) DecryptionKey() *group.Scalar {
	return group.ScalarFromWide(d.Data(64))
}

// Scalar returns a deterministic scalar from the DRBG, for use as ciphertext blinding randomness in fixtures.
func (d *DRBG) Scalar() *group.Scalar {
	return group.ScalarFromWide(d.Data(64))
}

// Data returns n bytes of deterministic data from the DRBG.
func (d *DRBG) Data(n int) []byte {
	b := make([]byte, n)
	_, _ = d.h.Read(b)
	return b
}

// Reader returns a pseudorandom reader seeded with a value from this DRBG.
func (d *DRBG) Reader() io.Reader {
	h := sha3.NewSHAKE128()
	_, _ = h.Write(d.Data(32))
	return h
}

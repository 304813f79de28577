package elgamal

import (
	"crypto/rand"

	"github.com/codahale/thyrse"
	"github.com/ristveil/veil/group"
)

// SampleRandomness derives fresh ciphertext blinding scalars the way [group.RandomScalar] alone cannot: hedged
// against a weak system RNG. It mirrors the pattern the teacher's sig, vrf, and frost packages use for nonce
// generation — mix the secret key and some fresh entropy into a thyrse transcript, then derive uniform output — but
// here it produces the per-chunk randomness (rᵢ) a builder uses for fresh ciphertexts, never a Fiat-Shamir challenge.
//
// domain scopes the derivation to one call site (e.g. "withdraw/new-balance"); sk is the caller's decryption key,
// absorbed so that two different keys never derive correlated randomness even from the same hedge bytes.
func SampleRandomness(domain string, sk *DecryptionKey, n int) ([]*group.Scalar, error) {
	hedge := make([]byte, 64)
	if _, err := rand.Read(hedge); err != nil {
		return nil, err
	}

	p := thyrse.New(domain)
	p.Mix("decryption-key", sk.s.Bytes())
	p.Mix("hedge", hedge)

	out := make([]*group.Scalar, n)
	for i := 0; i < n; i++ {
		out[i] = group.ScalarFromWide(p.Derive("randomness", nil, 64))
	}
	return out, nil
}

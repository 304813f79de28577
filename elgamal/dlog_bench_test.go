package elgamal

import (
	"testing"

	"github.com/ristveil/veil/group"
	"github.com/ristveil/veil/internal/testdata"
)

// BenchmarkDecryptLinear and BenchmarkDecryptBSGS measure the cost the bounded-search comment in Decrypt and
// DecryptBSGS describe: a chunk holding the largest 16-bit value, resolved by linear scan versus by the precomputed
// baby-step table.
func BenchmarkDecryptLinear(b *testing.B) {
	drbg := testdata.New("dlog-bench-linear")
	dk := NewDecryptionKey(drbg.DecryptionKey())
	pk := dk.EncryptionKey()

	const amount = 1<<16 - 1
	ct := Encrypt(group.ScalarFromUint64(amount), pk, drbg.Scalar())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decrypt(ct, dk, 0, 1<<16); err != nil {
			b.Fatalf("Decrypt: %v", err)
		}
	}
}

func BenchmarkDecryptBSGS(b *testing.B) {
	drbg := testdata.New("dlog-bench-bsgs")
	dk := NewDecryptionKey(drbg.DecryptionKey())
	pk := dk.EncryptionKey()

	const amount = 1<<16 - 1
	ct := Encrypt(group.ScalarFromUint64(amount), pk, drbg.Scalar())
	table := NewDLogTable(1 << 16)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := table.DecryptBSGS(ct, dk); err != nil {
			b.Fatalf("DecryptBSGS: %v", err)
		}
	}
}

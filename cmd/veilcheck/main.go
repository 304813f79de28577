// Command veilcheck is a diagnostic tool that round-trips each proof scheme against an in-memory fixture and
// reports the result. It exists to give operators and CI a fast, dependency-free sanity check that does not require
// a running chain or database (spec.md §0).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ristveil/veil/elgamal"
	"github.com/ristveil/veil/group"
	"github.com/ristveil/veil/internal/testdata"
	"github.com/ristveil/veil/rangeproof"
	"github.com/ristveil/veil/schemes/keyrotation"
	"github.com/ristveil/veil/schemes/normalization"
	"github.com/ristveil/veil/schemes/transfer"
	"github.com/ristveil/veil/schemes/withdraw"
)

func main() {
	scheme := flag.String("scheme", "all", "scheme to check: withdraw, transfer, keyrotation, normalization, or all")
	seed := flag.String("seed", "veilcheck", "DRBG customization string for the fixture")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	checks := map[string]func(*testdata.DRBG, zerolog.Logger) error{
		"withdraw":      checkWithdraw,
		"transfer":      checkTransfer,
		"keyrotation":   checkKeyRotation,
		"normalization": checkNormalization,
	}

	names := []string{*scheme}
	if *scheme == "all" {
		names = []string{"withdraw", "transfer", "keyrotation", "normalization"}
	}

	failed := false
	for _, name := range names {
		check, ok := checks[name]
		if !ok {
			log.Error().Str("scheme", name).Msg("unknown scheme")
			failed = true
			continue
		}
		drbg := testdata.New(*seed + "/" + name)
		start := time.Now()
		if err := check(drbg, log); err != nil {
			log.Error().Err(err).Str("scheme", name).Msg("round trip failed")
			failed = true
			continue
		}
		log.Info().Str("scheme", name).Dur("elapsed", time.Since(start)).Msg("round trip ok")
	}

	if failed {
		os.Exit(1)
	}
}

func sampleAccount(drbg *testdata.DRBG, pk *elgamal.EncryptionKey, balance uint64) elgamal.EncryptedBalance {
	var r [elgamal.NumChunks]*group.Scalar
	for i := range r {
		r[i] = drbg.Scalar()
	}
	return elgamal.EncryptBalance(elgamal.SplitUint64(balance), pk, r)
}

func checkWithdraw(drbg *testdata.DRBG, log zerolog.Logger) error {
	dk := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	old := sampleAccount(drbg, dk.EncryptionKey(), 100_000)
	table := elgamal.NewDLogTable(1 << 20)
	engine := rangeproof.SigmaEngine{}

	b, err := withdraw.New(dk, old, 4_000, table, engine)
	if err != nil {
		return err
	}
	bundle, err := b.Authorize(context.Background())
	if err != nil {
		return err
	}
	log.Debug().Int("sigma_bytes", len(bundle.SigmaProof)).Msg("withdraw bundle assembled")

	sigma, err := withdraw.SigmaProofFromCanonical(bundle.SigmaProof)
	if err != nil {
		return err
	}
	newCT, err := elgamal.EncryptedBalanceFromCanonical(bundle.NewBalance)
	if err != nil {
		return err
	}
	if !withdraw.Verify(old, dk.EncryptionKey(), 4_000, newCT, sigma, bundle.RangeProofs, bundle.Commitments, engine) {
		return fmt.Errorf("verify returned false")
	}
	return nil
}

func checkTransfer(drbg *testdata.DRBG, log zerolog.Logger) error {
	senderDK := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	recipientPK := elgamal.NewDecryptionKey(drbg.DecryptionKey()).EncryptionKey()
	auditorPK := elgamal.NewDecryptionKey(drbg.DecryptionKey()).EncryptionKey()
	old := sampleAccount(drbg, senderDK.EncryptionKey(), 250_000)
	table := elgamal.NewDLogTable(1 << 20)
	engine := rangeproof.SigmaEngine{}

	b, err := transfer.New(senderDK, old, recipientPK, []*elgamal.EncryptionKey{auditorPK}, 9_001, table, engine)
	if err != nil {
		return err
	}
	bundle, err := b.Authorize(context.Background())
	if err != nil {
		return err
	}
	log.Debug().Int("sigma_bytes", len(bundle.SigmaProof)).Msg("transfer bundle assembled")

	sigma, err := transfer.SigmaProofFromCanonical(bundle.SigmaProof)
	if err != nil {
		return err
	}
	newCT, err := elgamal.EncryptedBalanceFromCanonical(bundle.SenderNewBalance)
	if err != nil {
		return err
	}
	recipientCT, err := elgamal.EncryptedBalanceFromCanonical(bundle.RecipientBalance)
	if err != nil {
		return err
	}
	auditorDList, err := transfer.DecodeAuditorDList(bundle.AuditorDValues)
	if err != nil {
		return err
	}
	rp := &transfer.RangeProof{
		AmountProofs:       bundle.AmountRangeProofs,
		AmountCommitments:  bundle.AmountCommitments,
		BalanceProofs:      bundle.BalanceRangeProofs,
		BalanceCommitments: bundle.BalanceCommitments,
	}
	if !transfer.Verify(old, senderDK.EncryptionKey(), recipientPK, []*elgamal.EncryptionKey{auditorPK}, newCT, recipientCT, auditorDList, sigma, rp, engine) {
		return fmt.Errorf("verify returned false")
	}
	return nil
}

func checkKeyRotation(drbg *testdata.DRBG, log zerolog.Logger) error {
	oldDK := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	newDK := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	old := sampleAccount(drbg, oldDK.EncryptionKey(), 60_000)
	table := elgamal.NewDLogTable(1 << 20)
	engine := rangeproof.SigmaEngine{}

	b, err := keyrotation.New(oldDK, old, newDK, table, engine)
	if err != nil {
		return err
	}
	bundle, err := b.Authorize(context.Background())
	if err != nil {
		return err
	}
	log.Debug().Int("sigma_bytes", len(bundle.SigmaProof)).Msg("keyrotation bundle assembled")

	sigma, err := keyrotation.SigmaProofFromCanonical(bundle.SigmaProof)
	if err != nil {
		return err
	}
	newCT, err := elgamal.EncryptedBalanceFromCanonical(bundle.NewBalance)
	if err != nil {
		return err
	}
	if !keyrotation.Verify(old, oldDK.EncryptionKey(), newCT, newDK.EncryptionKey(), sigma, bundle.RangeProofs, bundle.Commitments, engine) {
		return fmt.Errorf("verify returned false")
	}
	return nil
}

func checkNormalization(drbg *testdata.DRBG, log zerolog.Logger) error {
	dk := elgamal.NewDecryptionKey(drbg.DecryptionKey())
	pk := dk.EncryptionKey()

	// A denormalized fixture (chunk 0 past the 32-bit boundary), the case normalization exists for: New must fold
	// the oversized chunk back into the plaintext and re-split before re-encrypting, not re-encrypt it as-is.
	var r [elgamal.NumChunks]*group.Scalar
	for i := range r {
		r[i] = drbg.Scalar()
	}
	old := elgamal.EncryptedBalance{
		elgamal.Encrypt(group.ScalarFromUint64(uint64(1)<<32+8_500), pk, r[0]),
		elgamal.Encrypt(group.ScalarFromUint64(0), pk, r[1]),
		elgamal.Encrypt(group.ScalarFromUint64(0), pk, r[2]),
		elgamal.Encrypt(group.ScalarFromUint64(0), pk, r[3]),
	}
	table := elgamal.NewDLogTable(1 << 33)
	engine := rangeproof.SigmaEngine{}

	b, err := normalization.New(dk, old, table, engine)
	if err != nil {
		return err
	}
	bundle, err := b.Authorize(context.Background())
	if err != nil {
		return err
	}
	log.Debug().Int("sigma_bytes", len(bundle.SigmaProof)).Msg("normalization bundle assembled")

	sigma, err := normalization.SigmaProofFromCanonical(bundle.SigmaProof)
	if err != nil {
		return err
	}
	newCT, err := elgamal.EncryptedBalanceFromCanonical(bundle.NewBalance)
	if err != nil {
		return err
	}
	if !normalization.Verify(old, pk, newCT, sigma, bundle.RangeProofs, bundle.Commitments, engine) {
		return fmt.Errorf("verify returned false")
	}
	return nil
}

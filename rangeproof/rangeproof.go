// Package rangeproof defines the pluggable range-proof binding spec.md §4.2 requires, plus a reference Engine
// implementation built from the same Sigma-protocol machinery as the four main proofs.
//
// Spec.md §1 places Bulletproofs backend internals out of scope ("the core depends on a pluggable... engine"); what
// is in scope, and preserved exactly here, is the calling convention: per-chunk invocation with bits=32 and a fixed
// choice of commitment bases per statement (spec.md §4.2's (G,H) for transfer/withdraw amounts vs. (G,Dᵢ) for
// new-balance chunks), which is what ties range validity to the sigma-protocol equations.
package rangeproof

import (
	"errors"

	"github.com/ristveil/veil/group"
)

// ErrInvalidInput is returned when a value does not fit in the requested bit width.
var ErrInvalidInput = errors.New("rangeproof: value does not fit in requested bit width")

// Engine proves and verifies that a Pedersen-style commitment K = v·V + r·R opens to a value v in [0, 2^bits), for
// blinding r, without revealing v or r.
type Engine interface {
	// Prove returns a serialized proof and the serialized commitment K = v·baseV + r·baseR.
	Prove(v uint64, r *group.Scalar, baseV, baseR *group.Point, bits int) (proof []byte, commitment []byte, err error)
	// Verify reports whether proof is a valid range proof for commitment under the given bases and bit width.
	Verify(proof []byte, commitment []byte, baseV, baseR *group.Point, bits int) bool
}

// Package crypto provides the cryptographic primitives the ledger is
// specified against: SHA-256 hashing and Ed25519 signing. Both are taken
// directly from the standard library rather than the teacher's
// secp256k1/Schnorr/BLAKE3 stack — see DESIGN.md for why the algorithm
// choice here is a hard external contract, not a style preference.
package crypto

import (
	"crypto/sha256"

	"github.com/chainlab/p2pchain/pkg/types"
)

// Hash computes the SHA-256 digest of data.
func Hash(data []byte) types.Hash {
	sum := sha256.Sum256(data)
	return types.HashFromBytes(sum[:])
}

// HashConcat hashes the concatenation of two byte strings. Used for
// building merkle trees, where a padding leaf may be zero-length rather
// than a full 32-byte digest.
func HashConcat(a, b []byte) types.Hash {
	buf := make([]byte, 0, len(a)+len(b))
	buf = append(buf, a...)
	buf = append(buf, b...)
	return Hash(buf)
}

// Package types defines core primitive value types shared across the ledger.
package types

import (
	"encoding/hex"
	"encoding/json"
)

// Hash holds the raw bytes of a block hash or transaction id. It is backed
// by a Go string rather than a fixed-size array: every computed hash is a
// 32-byte SHA-256 digest, but the chain's root sentinel, GenesisPrev, is the
// 7-byte literal "Genesis" rather than a hash at all, so the type can't be
// fixed-width without giving the sentinel a fake digest. A Go string is
// immutable and comparable, which makes Hash usable directly as a map key
// wherever the chain needs "is this block known" lookups.
type Hash string

// GenesisPrev is the sentinel previous-hash value of the first block on an
// otherwise empty chain. It is not the output of any hash function.
const GenesisPrev = Hash("Genesis")

// HashFromBytes wraps raw bytes as a Hash.
func HashFromBytes(b []byte) Hash {
	return Hash(b)
}

// Bytes returns the raw bytes backing the hash.
func (h Hash) Bytes() []byte {
	return []byte(h)
}

// IsZero reports whether h is the empty hash (the zero value of Hash).
func (h Hash) IsZero() bool {
	return h == ""
}

// String renders the hash for logs and debugging. GenesisPrev renders as
// its literal name rather than hex, since it isn't hash-shaped.
func (h Hash) String() string {
	if h == GenesisPrev {
		return "Genesis"
	}
	return hex.EncodeToString([]byte(h))
}

// MarshalJSON encodes the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString([]byte(h)))
}

// UnmarshalJSON decodes a hex string into a hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*h = Hash(b)
	return nil
}

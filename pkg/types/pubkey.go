package types

import "crypto/ed25519"

// PubKey is a node's Ed25519 public key, doubling as its wallet address.
// There is no separate address-derivation step: the spec's wallet model
// identifies an owner directly by its verification key.
type PubKey = ed25519.PublicKey

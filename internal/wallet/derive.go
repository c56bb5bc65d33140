package wallet

import (
	"crypto/ed25519"
	"fmt"
)

// DeriveKey turns a BIP-39 seed into the Ed25519 key pair a node signs
// and verifies with. Only the first 32 bytes of the 64-byte seed are
// used — there is no BIP-32 chain code to mix in, since the chain has
// no account hierarchy to derive down.
func DeriveKey(seed []byte) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	if len(seed) < ed25519.SeedSize {
		return nil, nil, fmt.Errorf("wallet: seed too short: got %d bytes, need at least %d", len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])
	pub := priv.Public().(ed25519.PublicKey)
	return priv, pub, nil
}

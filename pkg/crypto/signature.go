package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/chainlab/p2pchain/pkg/types"
)

// CoinbaseSignatureLength is the length, in bytes, of the placeholder
// signature attached to a coinbase transaction. Coinbases aren't signed —
// they're fabricated by whoever mines the block — but the wire format
// still carries a signature-shaped field, filled with random bytes.
const CoinbaseSignatureLength = 64

// GenerateKeyPair creates a new random Ed25519 key pair.
func GenerateKeyPair() (types.PubKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return pub, priv, nil
}

// Sign produces an Ed25519 signature over message.
func Sign(priv ed25519.PrivateKey, message []byte) []byte {
	return ed25519.Sign(priv, message)
}

// Verify checks an Ed25519 signature against message and a public key.
// It never panics: malformed keys or signatures simply fail to verify.
func Verify(pub types.PubKey, message, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message, sig)
}

// RandomSignature fills a CoinbaseSignatureLength-byte slice with random
// bytes, standing in for the signature field of a coinbase transaction.
func RandomSignature() ([]byte, error) {
	b := make([]byte, CoinbaseSignatureLength)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("random coinbase signature: %w", err)
	}
	return b, nil
}

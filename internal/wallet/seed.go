package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// SeedSize is the byte length of the seed DeriveKey expects (512 bits) —
// more than the 32 bytes an Ed25519 key needs, since the extra bytes of
// a BIP-39 seed carry no chain-specific meaning here and are simply
// discarded by DeriveKey.
const SeedSize = 64

// SeedFromMnemonic rejects anything that doesn't pass BIP-39's checksum
// first, then runs the standard PBKDF2-SHA512 stretch (2048 rounds,
// salted with "mnemonic"+passphrase) to produce the seed bytes a node's
// signing key is ultimately derived from.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, fmt.Errorf("wallet: mnemonic failed BIP-39 validation")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("wallet: derive seed from mnemonic: %w", err)
	}
	return seed, nil
}

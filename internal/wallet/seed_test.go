package wallet

import (
	"bytes"
	"encoding/hex"
	"testing"
)

const allAbandonArt = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art"

func TestSeedFromMnemonic_Shape(t *testing.T) {
	seed, err := SeedFromMnemonic(allAbandonArt, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	if len(seed) != SeedSize {
		t.Errorf("len(seed) = %d, want %d", len(seed), SeedSize)
	}
	if bytes.Equal(seed, make([]byte, SeedSize)) {
		t.Error("derived seed should not be all zeros")
	}
}

// TestSeedFromMnemonic_BIP39Vector checks against the published BIP-39
// test vector (12-word "abandon...about" with passphrase "TREZOR") so a
// regression in the PBKDF2 stretch doesn't go unnoticed.
func TestSeedFromMnemonic_BIP39Vector(t *testing.T) {
	mnemonic := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	want, _ := hex.DecodeString("c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04")

	got, err := SeedFromMnemonic(mnemonic, "TREZOR")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("seed = %x, want %x", got, want)
	}
}

func TestSeedFromMnemonic_DependsOnPassphraseAndMnemonic(t *testing.T) {
	base := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

	noPass, err := SeedFromMnemonic(base, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	withPass, err := SeedFromMnemonic(base, "correct horse battery staple")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	if bytes.Equal(noPass, withPass) {
		t.Error("adding a passphrase should change the derived seed")
	}

	again, err := SeedFromMnemonic(base, "correct horse battery staple")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	if !bytes.Equal(withPass, again) {
		t.Error("the same mnemonic and passphrase should always derive the same seed")
	}
}

func TestSeedFromMnemonic_RejectsBadInput(t *testing.T) {
	for _, mnemonic := range []string{"", "not a real mnemonic at all"} {
		if _, err := SeedFromMnemonic(mnemonic, ""); err == nil {
			t.Errorf("SeedFromMnemonic(%q) should have failed BIP-39 validation", mnemonic)
		}
	}
}

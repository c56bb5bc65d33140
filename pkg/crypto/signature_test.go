package crypto

import (
	"bytes"
	"crypto/ed25519"
	"testing"
)

func TestGenerateKeyPair(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error: %v", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		t.Errorf("public key length = %d, want %d", len(pub), ed25519.PublicKeySize)
	}
	if len(priv) != ed25519.PrivateKeySize {
		t.Errorf("private key length = %d, want %d", len(priv), ed25519.PrivateKeySize)
	}
}

func TestGenerateKeyPair_Unique(t *testing.T) {
	pub1, _, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error: %v", err)
	}
	pub2, _, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error: %v", err)
	}
	if bytes.Equal(pub1, pub2) {
		t.Error("two generated key pairs should not be identical")
	}
}

func TestSign_Verify(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error: %v", err)
	}

	msg := []byte("test message")
	sig := Sign(priv, msg)
	if len(sig) != ed25519.SignatureSize {
		t.Errorf("signature length = %d, want %d", len(sig), ed25519.SignatureSize)
	}
	if !Verify(pub, msg, sig) {
		t.Error("signature should verify against the correct key and message")
	}
}

func TestSign_Deterministic(t *testing.T) {
	_, priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error: %v", err)
	}
	msg := []byte("deterministic test")
	sig1 := Sign(priv, msg)
	sig2 := Sign(priv, msg)
	if !bytes.Equal(sig1, sig2) {
		t.Error("Ed25519 signatures should be deterministic (same key + same message = same sig)")
	}
}

func TestVerify_WrongMessage(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error: %v", err)
	}
	sig := Sign(priv, []byte("message"))
	if Verify(pub, []byte("different message"), sig) {
		t.Error("signature should not verify against a different message")
	}
}

func TestVerify_WrongKey(t *testing.T) {
	pub1, _, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error: %v", err)
	}
	_, priv2, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error: %v", err)
	}
	msg := []byte("message")
	sig := Sign(priv2, msg)
	if Verify(pub1, msg, sig) {
		t.Error("signature should not verify with the wrong public key")
	}
}

func TestVerify_CorruptedSignature(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error: %v", err)
	}
	msg := []byte("message")
	sig := Sign(priv, msg)
	corrupted := make([]byte, len(sig))
	copy(corrupted, sig)
	corrupted[0] ^= 0x01
	if Verify(pub, msg, corrupted) {
		t.Error("corrupted signature should not verify")
	}
}

func TestVerify_InvalidLengths(t *testing.T) {
	tests := []struct {
		name string
		pub  []byte
		sig  []byte
	}{
		{"nil public key", nil, make([]byte, ed25519.SignatureSize)},
		{"short public key", make([]byte, 4), make([]byte, ed25519.SignatureSize)},
		{"nil signature", make([]byte, ed25519.PublicKeySize), nil},
		{"short signature", make([]byte, ed25519.PublicKeySize), make([]byte, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Verify(tt.pub, []byte("message"), tt.sig) {
				t.Error("Verify should return false, never panic, on malformed inputs")
			}
		})
	}
}

func TestRandomSignature_Length(t *testing.T) {
	sig, err := RandomSignature()
	if err != nil {
		t.Fatalf("RandomSignature() error: %v", err)
	}
	if len(sig) != CoinbaseSignatureLength {
		t.Errorf("RandomSignature() length = %d, want %d", len(sig), CoinbaseSignatureLength)
	}
}

func TestRandomSignature_Unique(t *testing.T) {
	sig1, err := RandomSignature()
	if err != nil {
		t.Fatalf("RandomSignature() error: %v", err)
	}
	sig2, err := RandomSignature()
	if err != nil {
		t.Fatalf("RandomSignature() error: %v", err)
	}
	if bytes.Equal(sig1, sig2) {
		t.Error("two random signatures should not be identical")
	}
}

package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// SaltSize is the byte length of the random Argon2id salt stored in the
// clear alongside each encrypted keystore payload.
const SaltSize = 32

// kdfHeader carries everything Decrypt needs to re-derive the same
// Argon2id key Encrypt used, stored in the clear ahead of the nonce and
// ciphertext. Layout on the wire: salt(32) | memory(4) | iterations(4) |
// parallelism(1).
type kdfHeader struct {
	Salt   [SaltSize]byte
	Params EncryptionParams
}

const headerSize = SaltSize + 4 + 4 + 1

func (h kdfHeader) marshal() []byte {
	out := make([]byte, 0, headerSize)
	out = append(out, h.Salt[:]...)
	out = binary.LittleEndian.AppendUint32(out, h.Params.Memory)
	out = binary.LittleEndian.AppendUint32(out, h.Params.Iterations)
	out = append(out, h.Params.Parallelism)
	return out
}

func unmarshalHeader(data []byte) (h kdfHeader) {
	copy(h.Salt[:], data[:SaltSize])
	h.Params.Memory = binary.LittleEndian.Uint32(data[SaltSize:])
	h.Params.Iterations = binary.LittleEndian.Uint32(data[SaltSize+4:])
	h.Params.Parallelism = data[SaltSize+8]
	return h
}

// EncryptionParams holds the Argon2id cost parameters a keystore payload
// was (or should be) sealed with.
type EncryptionParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns Argon2id cost parameters suitable for protecting
// a wallet seed at rest: 64 MiB of memory, 3 passes, 4-way parallelism.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

func deriveAEADKey(password []byte, salt []byte, params EncryptionParams) []byte {
	return argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)
}

// Encrypt seals data under password, returning
// header | nonce | ciphertext, where header carries the random salt and
// the Argon2id cost parameters Decrypt needs to reproduce the same key.
func Encrypt(data, password []byte, params EncryptionParams) ([]byte, error) {
	var hdr kdfHeader
	hdr.Params = params
	if _, err := rand.Read(hdr.Salt[:]); err != nil {
		return nil, fmt.Errorf("wallet: generate salt: %w", err)
	}

	key := deriveAEADKey(password, hdr.Salt[:], params)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("wallet: build cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("wallet: generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, data, nil)

	out := make([]byte, 0, headerSize+len(nonce)+len(sealed))
	out = append(out, hdr.marshal()...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// Decrypt reverses Encrypt, re-deriving the Argon2id key from the salt
// and cost parameters carried in encrypted's header before attempting to
// open the AEAD — a wrong password surfaces as an authentication failure
// from aead.Open, not as a distinct error.
func Decrypt(encrypted, password []byte) ([]byte, error) {
	const nonceSize = chacha20poly1305.NonceSizeX
	minSize := headerSize + nonceSize + chacha20poly1305.Overhead
	if len(encrypted) < minSize {
		return nil, fmt.Errorf("wallet: encrypted payload too short: got %d bytes, need at least %d", len(encrypted), minSize)
	}

	hdr := unmarshalHeader(encrypted)
	nonce := encrypted[headerSize : headerSize+nonceSize]
	sealed := encrypted[headerSize+nonceSize:]

	key := deriveAEADKey(password, hdr.Salt[:], hdr.Params)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("wallet: build cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("wallet: decrypt (wrong password or corrupted data): %w", err)
	}
	return plaintext, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

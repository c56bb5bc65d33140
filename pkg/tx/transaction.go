// Package tx defines the single-coin transaction model: a transaction
// moves exactly one coin from an optional input (the txid it consumes) to
// exactly one output (a public key). A transaction with no input creates
// a coin out of nothing; only the miner of a block gets to include one.
package tx

import (
	"crypto/ed25519"

	"github.com/chainlab/p2pchain/pkg/crypto"
	"github.com/chainlab/p2pchain/pkg/types"
)

// Transaction moves a single coin. DO NOT change these field names or
// their meaning — TxID() and the signing message are both defined
// directly in terms of them.
type Transaction struct {
	// Output is the public key receiving the coin.
	Output types.PubKey
	// Input is the txid of the coin being spent, or nil if this
	// transaction creates a coin (a coinbase).
	Input *types.Hash
	// Signature authorizes the spend. For a coinbase it's filler: random
	// bytes with no cryptographic meaning, since there's no source key to
	// sign with.
	Signature []byte
}

// New builds a transfer transaction spending input and paying output,
// signed with signerKey.
func New(output types.PubKey, input types.Hash, signerKey ed25519.PrivateKey) *Transaction {
	msg := SigningMessage(&input, output)
	return &Transaction{
		Output:    output,
		Input:     &input,
		Signature: crypto.Sign(signerKey, msg),
	}
}

// NewCoinbase builds a coinbase transaction paying output, with a random
// filler signature — the only path that ever puts input=nil on the wire.
func NewCoinbase(output types.PubKey) (*Transaction, error) {
	sig, err := crypto.RandomSignature()
	if err != nil {
		return nil, err
	}
	return &Transaction{Output: output, Input: nil, Signature: sig}, nil
}

// SigningMessage is the message a transaction's signature is computed
// over: the spent input's txid followed by the new output, or just the
// output alone for a coinbase (there is nothing to prove ownership of).
func SigningMessage(input *types.Hash, output types.PubKey) []byte {
	if input == nil {
		return append([]byte{}, output...)
	}
	msg := make([]byte, 0, len(*input)+len(output))
	msg = append(msg, input.Bytes()...)
	msg = append(msg, output...)
	return msg
}

// TxID is the transaction's identifier: SHA256(output || signature ||
// input, if present). It is recomputed from the struct's current fields
// on every call and is never cached, so mutating a Transaction in place
// changes its TxID immediately — callers that need a stable identifier
// must take it once and hold onto the value.
func (t *Transaction) TxID() types.Hash {
	buf := make([]byte, 0, len(t.Output)+len(t.Signature)+32)
	buf = append(buf, t.Output...)
	buf = append(buf, t.Signature...)
	if t.Input != nil {
		buf = append(buf, t.Input.Bytes()...)
	}
	return crypto.Hash(buf)
}

// IsCoinbase reports whether the transaction creates a coin rather than
// spending one.
func (t *Transaction) IsCoinbase() bool {
	return t.Input == nil
}

// VerifySignature checks the transaction's signature against the public
// key that owns the coin it spends. A coinbase has nothing to verify
// against and always reports true.
func (t *Transaction) VerifySignature(sourceOutput types.PubKey) bool {
	if t.IsCoinbase() {
		return true
	}
	return crypto.Verify(sourceOutput, SigningMessage(t.Input, t.Output), t.Signature)
}

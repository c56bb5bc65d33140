package block

import (
	"testing"

	"github.com/chainlab/p2pchain/pkg/crypto"
	"github.com/chainlab/p2pchain/pkg/tx"
	"github.com/chainlab/p2pchain/pkg/types"
)

func coinbase(t *testing.T) *tx.Transaction {
	t.Helper()
	pub, _, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	cb, err := tx.NewCoinbase(pub)
	if err != nil {
		t.Fatalf("NewCoinbase: %v", err)
	}
	return cb
}

func TestBlock_HashChangesWithPrevHash(t *testing.T) {
	txs := []*tx.Transaction{coinbase(t)}
	b1 := New(types.GenesisPrev, txs)
	b2 := New(crypto.Hash([]byte("other parent")), txs)
	if b1.Hash() == b2.Hash() {
		t.Error("blocks with different prev hashes should hash differently")
	}
}

func TestBlock_HashNotCached(t *testing.T) {
	b := New(types.GenesisPrev, []*tx.Transaction{coinbase(t)})
	h1 := b.Hash()
	b.Txs = append(b.Txs, coinbase(t))
	h2 := b.Hash()
	if h1 == h2 {
		t.Error("Hash() should reflect the block's current transactions, not a cached result")
	}
}

func TestBlock_WithinSizeLimit(t *testing.T) {
	var txs []*tx.Transaction
	for i := 0; i < Size; i++ {
		txs = append(txs, coinbase(t))
	}
	b := New(types.GenesisPrev, txs)
	if !b.WithinSizeLimit() {
		t.Error("a block with exactly Size transactions should be within the limit")
	}
	b.Txs = append(b.Txs, coinbase(t))
	if b.WithinSizeLimit() {
		t.Error("a block with Size+1 transactions should exceed the limit")
	}
}

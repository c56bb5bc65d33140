// Package block defines the Block type: a previous-block link and an
// ordered list of transactions, with a hash computed fresh from both on
// every call.
package block

import (
	"github.com/chainlab/p2pchain/pkg/crypto"
	"github.com/chainlab/p2pchain/pkg/tx"
	"github.com/chainlab/p2pchain/pkg/types"
)

// Size is the maximum number of transactions a single block may carry.
// Larger blocks are illegal.
const Size = 10

// Block is an ordered batch of transactions extending a named parent.
type Block struct {
	PrevHash types.Hash
	Txs      []*tx.Transaction
}

// New builds a block extending prevHash with txs.
func New(prevHash types.Hash, txs []*tx.Transaction) *Block {
	return &Block{PrevHash: prevHash, Txs: txs}
}

// Hash computes SHA256(prev_hash || merkle_root) from the block's current
// contents. Like Transaction.TxID, this is never cached — it is
// recomputed from the live Txs slice and PrevHash every time it's called.
func (b *Block) Hash() types.Hash {
	ids := make([]types.Hash, len(b.Txs))
	for i, t := range b.Txs {
		ids[i] = t.TxID()
	}
	root := ComputeMerkleRoot(ids)
	return crypto.HashConcat(b.PrevHash.Bytes(), root)
}

// WithinSizeLimit reports whether the block carries at most Size
// transactions.
func (b *Block) WithinSizeLimit() bool {
	return len(b.Txs) <= Size
}

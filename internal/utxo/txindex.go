package utxo

import (
	"github.com/chainlab/p2pchain/pkg/tx"
	"github.com/chainlab/p2pchain/pkg/types"
)

// TxIndex is an append-only record of every transaction ever committed to
// the chain, spent or not. Reverting a block needs to recover the coin a
// spend consumed even after that coin has long left the unspent set, so
// entries here are never removed.
type TxIndex struct {
	byID map[types.Hash]*tx.Transaction
}

// NewTxIndex returns an empty transaction index.
func NewTxIndex() *TxIndex {
	return &TxIndex{byID: make(map[types.Hash]*tx.Transaction)}
}

// Put records t, keyed by its own txid. Recording a txid already present
// is a no-op — a transaction's identity never changes once committed.
func (idx *TxIndex) Put(t *tx.Transaction) {
	id := t.TxID()
	if _, ok := idx.byID[id]; ok {
		return
	}
	idx.byID[id] = t
}

// Get returns the transaction committed under id, if any.
func (idx *TxIndex) Get(id types.Hash) (*tx.Transaction, bool) {
	t, ok := idx.byID[id]
	return t, ok
}

// Clone makes an independent copy of the index, for trial application
// of a candidate branch that might be discarded.
func (idx *TxIndex) Clone() *TxIndex {
	clone := &TxIndex{byID: make(map[types.Hash]*tx.Transaction, len(idx.byID))}
	for k, v := range idx.byID {
		clone.byID[k] = v
	}
	return clone
}

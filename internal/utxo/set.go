// Package utxo tracks which coins are currently unspent and applies or
// reverts the effect a block has on that set.
package utxo

import (
	"github.com/chainlab/p2pchain/pkg/tx"
	"github.com/chainlab/p2pchain/pkg/types"
)

// Set is the collection of unspent coins: every transaction whose output
// has not yet been consumed by a later transaction's input. A coin IS a
// transaction here — there is no separate value/script record, since
// every coin is worth exactly one unit and has exactly one owner, its
// Output key.
//
// Order is preserved in insertion order so that coin selection (the
// first unspent coin a node finds when building a transaction) is
// deterministic.
type Set struct {
	order []types.Hash
	byID  map[types.Hash]*tx.Transaction
}

// NewSet returns an empty unspent-coin set.
func NewSet() *Set {
	return &Set{byID: make(map[types.Hash]*tx.Transaction)}
}

// Add records t as unspent. Adding a txid already present is a no-op.
func (s *Set) Add(t *tx.Transaction) {
	id := t.TxID()
	if _, ok := s.byID[id]; ok {
		return
	}
	s.order = append(s.order, id)
	s.byID[id] = t
}

// Remove marks id as spent, dropping it from the set.
func (s *Set) Remove(id types.Hash) {
	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Get returns the unspent transaction with the given txid, if any.
func (s *Set) Get(id types.Hash) (*tx.Transaction, bool) {
	t, ok := s.byID[id]
	return t, ok
}

// Has reports whether id is currently unspent.
func (s *Set) Has(id types.Hash) bool {
	_, ok := s.byID[id]
	return ok
}

// List returns the unspent coins in insertion order. The returned slice
// is owned by the caller.
func (s *Set) List() []*tx.Transaction {
	out := make([]*tx.Transaction, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id]
	}
	return out
}

// Len reports the number of unspent coins.
func (s *Set) Len() int {
	return len(s.order)
}

// Clone makes an independent copy of the set. The underlying
// transactions are not copied — they're treated as immutable once
// created, so sharing pointers between a set and its clone is safe.
func (s *Set) Clone() *Set {
	clone := &Set{
		order: append([]types.Hash{}, s.order...),
		byID:  make(map[types.Hash]*tx.Transaction, len(s.byID)),
	}
	for k, v := range s.byID {
		clone.byID[k] = v
	}
	return clone
}

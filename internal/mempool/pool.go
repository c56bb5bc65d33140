// Package mempool holds transactions that have been accepted by a node
// but haven't yet made it into a block.
package mempool

import (
	"sync"

	"github.com/chainlab/p2pchain/internal/utxo"
	"github.com/chainlab/p2pchain/pkg/tx"
	"github.com/chainlab/p2pchain/pkg/types"
)

// Pool is an ordered, FIFO queue of pending transactions. Order matters:
// blocks are cut from the front of the queue, so the order transactions
// are admitted in is the order they're eligible for inclusion.
type Pool struct {
	mu    sync.Mutex
	order []types.Hash
	byID  map[types.Hash]*tx.Transaction
	spent map[types.Hash]bool // inputs already claimed by a queued transaction
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{
		byID:  make(map[types.Hash]*tx.Transaction),
		spent: make(map[types.Hash]bool),
	}
}

// Add admits a transfer transaction if it spends a coin that's unspent
// according to set, that coin isn't already claimed by another queued
// transaction, and its signature verifies against the coin's owner. It
// reports whether the transaction was admitted. Coinbases are never
// admitted through Add — see AppendCoinbase.
func (p *Pool) Add(t *tx.Transaction, set *utxo.Set) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t.IsCoinbase() {
		return false
	}
	id := t.TxID()
	if _, exists := p.byID[id]; exists {
		return false
	}
	if p.spent[*t.Input] {
		return false
	}
	src, ok := set.Get(*t.Input)
	if !ok {
		return false
	}
	if !t.VerifySignature(src.Output) {
		return false
	}

	p.appendLocked(t)
	p.spent[*t.Input] = true
	return true
}

// AppendCoinbase unconditionally appends t to the tail of the queue,
// bypassing every check Add performs. It's the only way a coinbase ever
// enters the pool, and mirrors mining's append-then-slice sequence: the
// coinbase lands at the tail regardless of how full the pool already
// is, so a busy pool can push it past the next block's cut entirely.
func (p *Pool) AppendCoinbase(t *tx.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.appendLocked(t)
}

func (p *Pool) appendLocked(t *tx.Transaction) {
	id := t.TxID()
	p.order = append(p.order, id)
	p.byID[id] = t
}

// MineSlice removes and returns up to n transactions from the front of
// the queue, in queue order.
func (p *Pool) MineSlice(n int) []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n > len(p.order) {
		n = len(p.order)
	}
	out := make([]*tx.Transaction, n)
	for i := 0; i < n; i++ {
		id := p.order[i]
		out[i] = p.byID[id]
		delete(p.byID, id)
		if out[i].Input != nil {
			delete(p.spent, *out[i].Input)
		}
	}
	p.order = p.order[n:]
	return out
}

// Remove drops a single transaction from the queue, wherever it sits.
func (p *Pool) Remove(id types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(id)
}

func (p *Pool) removeLocked(id types.Hash) {
	t, ok := p.byID[id]
	if !ok {
		return
	}
	delete(p.byID, id)
	if t.Input != nil {
		delete(p.spent, *t.Input)
	}
	for i, o := range p.order {
		if o == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Clear empties the pool entirely.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = nil
	p.byID = make(map[types.Hash]*tx.Transaction)
	p.spent = make(map[types.Hash]bool)
}

// List returns every queued transaction in queue order.
func (p *Pool) List() []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*tx.Transaction, len(p.order))
	for i, id := range p.order {
		out[i] = p.byID[id]
	}
	return out
}

// Len reports the number of queued transactions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}

// Has reports whether id is currently queued.
func (p *Pool) Has(id types.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.byID[id]
	return ok
}

// InputIsQueued reports whether some queued transaction already spends
// input, so coin selection can skip coins that are about to be spent.
func (p *Pool) InputIsQueued(input types.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.spent[input]
}

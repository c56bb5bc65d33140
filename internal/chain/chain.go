// Package chain holds the ordered list of blocks a node has accepted,
// together with the unspent-coin state that list implies, and the
// mempool of transactions waiting to enter the next block.
package chain

import (
	"bytes"

	"github.com/chainlab/p2pchain/internal/mempool"
	"github.com/chainlab/p2pchain/internal/utxo"
	"github.com/chainlab/p2pchain/pkg/block"
	"github.com/chainlab/p2pchain/pkg/tx"
	"github.com/chainlab/p2pchain/pkg/types"
)

// Chain is one node's view of the blockchain: an ordered slice of
// blocks extending from genesis, the unspent-coin set that results from
// applying them in order, and the pending-transaction pool. A fresh
// Chain has no blocks at all — its tip is types.GenesisPrev — mirroring
// a brand new node that hasn't mined or synced anything yet.
//
// Chain is not safe for concurrent use on its own; callers that mutate
// it from multiple goroutines must provide their own locking. Node does
// exactly that, holding a lock around chain mutation (including the
// block fetches Reorg makes through its BlockFetcher) and releasing it
// before forwarding anything to its peers.
type Chain struct {
	blocks []*block.Block
	index  map[types.Hash]int // block hash -> position in blocks

	utxos   *utxo.Set
	txIndex *utxo.TxIndex
	mempool *mempool.Pool
}

// New returns an empty chain: no blocks, an empty unspent set, and an
// empty mempool.
func New() *Chain {
	return &Chain{
		index:   make(map[types.Hash]int),
		utxos:   utxo.NewSet(),
		txIndex: utxo.NewTxIndex(),
		mempool: mempool.New(),
	}
}

// FromBlocks rebuilds a Chain by replaying blocks in order from an empty
// state, recomputing the UTXO set and tx index rather than trusting any
// cached copy of them. It's used to restore a chain from a persisted
// block list rather than mutated directly, so a corrupt or truncated
// snapshot fails loudly instead of producing a chain whose UTXO set
// doesn't match its blocks.
func FromBlocks(blocks []*block.Block) (*Chain, error) {
	c := New()
	for _, blk := range blocks {
		if err := c.append(blk); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Tip returns the hash of the current chain tip, or types.GenesisPrev if
// the chain has no blocks yet.
func (c *Chain) Tip() types.Hash {
	if len(c.blocks) == 0 {
		return types.GenesisPrev
	}
	return c.blocks[len(c.blocks)-1].Hash()
}

// Height returns the number of blocks on the chain (0 for an empty chain).
func (c *Chain) Height() int {
	return len(c.blocks)
}

// IsKnownBlock reports whether h is the genesis sentinel or the hash of
// a block already on this chain.
func (c *Chain) IsKnownBlock(h types.Hash) bool {
	if h == types.GenesisPrev {
		return true
	}
	_, ok := c.index[h]
	return ok
}

// GetBlock returns the block with hash h, if this chain has it.
func (c *Chain) GetBlock(h types.Hash) (*block.Block, bool) {
	i, ok := c.index[h]
	if !ok {
		return nil, false
	}
	return c.blocks[i], true
}

// Blocks returns every block on the chain, in height order. The
// returned slice is owned by the caller.
func (c *Chain) Blocks() []*block.Block {
	out := make([]*block.Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Mempool returns the chain's pending-transaction pool.
func (c *Chain) Mempool() *mempool.Pool {
	return c.mempool
}

// UTXOs returns the chain's current unspent-coin set. Callers should
// treat it as read-only — mutating it outside Apply/Revert desyncs it
// from the block list.
func (c *Chain) UTXOs() *utxo.Set {
	return c.utxos
}

// append commits blk to the end of the chain and applies its effect to
// the unspent-coin set. Callers must ensure blk actually extends the
// current tip and passes VerifyBlock first.
func (c *Chain) append(blk *block.Block) error {
	if err := utxo.Apply(blk, c.utxos, c.txIndex); err != nil {
		return err
	}
	c.index[blk.Hash()] = len(c.blocks)
	c.blocks = append(c.blocks, blk)
	return nil
}

// MineBlock assembles a new block paying a fresh coin to minerPubKey,
// committing it to the chain. The coinbase is queued at the tail of the
// mempool and the block is cut from the pool's front, in that order —
// so a mempool already holding block.Size or more pending transfers can
// strand the coinbase behind the cut, leaving it for the block after
// this one.
func (c *Chain) MineBlock(minerPubKey types.PubKey) (*block.Block, error) {
	coinbase, err := tx.NewCoinbase(minerPubKey)
	if err != nil {
		return nil, err
	}
	c.mempool.AppendCoinbase(coinbase)

	txs := c.mempool.MineSlice(block.Size)
	blk := block.New(c.Tip(), txs)
	if err := c.append(blk); err != nil {
		return nil, err
	}
	return blk, nil
}

// AdmitTransaction offers t to the mempool. Coinbases are never admitted
// this way — only MineBlock introduces them.
func (c *Chain) AdmitTransaction(t *tx.Transaction) bool {
	return c.mempool.Add(t, c.utxos)
}

// UnspentCoinsOwnedBy returns the txids of coins currently owned by
// owner, reconstructed by walking every block from genesis to the tip.
// For each block, coins owner receives are added first, then any
// transaction in that same block spending a coin already credited is
// removed — a coin can only be spent in a block at or after the one
// that created it, so processing oldest-to-newest guarantees a spend is
// always seen after the receipt it consumes.
func (c *Chain) UnspentCoinsOwnedBy(owner types.PubKey) []types.Hash {
	balance := make([]types.Hash, 0)
	has := func(id types.Hash) int {
		for i, b := range balance {
			if b == id {
				return i
			}
		}
		return -1
	}

	for _, blk := range c.blocks {
		for _, t := range blk.Txs {
			if bytes.Equal(t.Output, owner) {
				balance = append(balance, t.TxID())
			}
		}
		for _, t := range blk.Txs {
			if t.Input == nil {
				continue
			}
			if i := has(*t.Input); i >= 0 {
				balance = append(balance[:i], balance[i+1:]...)
			}
		}
	}
	return balance
}

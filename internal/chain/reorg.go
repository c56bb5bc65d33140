package chain

import (
	"fmt"

	"github.com/chainlab/p2pchain/internal/utxo"
	"github.com/chainlab/p2pchain/pkg/block"
	"github.com/chainlab/p2pchain/pkg/tx"
	"github.com/chainlab/p2pchain/pkg/types"
)

// BlockFetcher retrieves a block by hash from a remote source. It's
// satisfied by a peer: chasing an unknown branch means walking backward
// through whoever announced it, one GetBlock call per step.
type BlockFetcher interface {
	GetBlock(h types.Hash) (*block.Block, bool)
}

// Reorg considers adopting the branch ending at blockHash, learned about
// from sender. If blockHash is already known, Reorg does nothing. If
// the branch sender describes turns out to be longer than this chain's
// branch back to their common ancestor, and a prefix of it longer than
// that old branch validates cleanly, the chain switches to that prefix.
//
// A branch may contain invalid blocks partway through — everything up
// to the first invalid block may still be accepted, as long as that
// valid prefix is still longer than the branch it would replace;
// otherwise the whole branch is rejected and nothing changes.
//
// On a successful switch, Reorg snapshots the mempool, clears it, and
// returns the snapshot so the caller can re-offer each entry against
// the new chain state through the normal add path. It reports false
// with no error when the branch isn't adopted for any ordinary reason
// (already known, not longer, fails validation).
func (c *Chain) Reorg(blockHash types.Hash, sender BlockFetcher) (bool, []*tx.Transaction, error) {
	if c.IsKnownBlock(blockHash) {
		return false, nil, nil
	}

	var newBranch []*block.Block
	curr := blockHash
	first := true
	for !c.IsKnownBlock(curr) {
		blk, ok := sender.GetBlock(curr)
		if !ok {
			return false, nil, nil
		}
		if first {
			if blk.Hash() != curr {
				return false, nil, nil
			}
			first = false
		}
		newBranch = append(newBranch, blk)
		curr = blk.PrevHash
	}
	forkHash := curr

	var oldBranch []*block.Block
	temp := c.Tip()
	for temp != forkHash {
		blk, ok := c.GetBlock(temp)
		if !ok {
			return false, nil, fmt.Errorf("reorg: local chain missing block %x", temp.Bytes())
		}
		oldBranch = append(oldBranch, blk)
		temp = blk.PrevHash
	}

	if len(newBranch) <= len(oldBranch) {
		return false, nil, nil
	}

	ascending := make([]*block.Block, len(newBranch))
	for i, blk := range newBranch {
		ascending[len(newBranch)-1-i] = blk
	}

	copyUTXO := c.utxos.Clone()
	copyIdx := c.txIndex.Clone()

	for _, blk := range oldBranch {
		if err := utxo.Revert(blk, copyUTXO, copyIdx); err != nil {
			return false, nil, fmt.Errorf("reorg: revert old branch: %w", err)
		}
	}

	validBlocks := 0
	for _, blk := range ascending {
		if !utxo.VerifyBlock(blk, copyUTXO) {
			break
		}
		if err := utxo.Apply(blk, copyUTXO, copyIdx); err != nil {
			break
		}
		validBlocks++
	}

	if validBlocks == 0 || validBlocks <= len(oldBranch) {
		return false, nil, nil
	}
	accepted := ascending[:validBlocks]

	for range oldBranch {
		last := c.blocks[len(c.blocks)-1]
		delete(c.index, last.Hash())
		c.blocks = c.blocks[:len(c.blocks)-1]
	}
	for _, blk := range accepted {
		c.index[blk.Hash()] = len(c.blocks)
		c.blocks = append(c.blocks, blk)
	}
	c.utxos = copyUTXO
	c.txIndex = copyIdx

	candidates := c.mempool.List()
	c.mempool.Clear()

	return true, candidates, nil
}

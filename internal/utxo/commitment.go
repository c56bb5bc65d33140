package utxo

import (
	"sort"

	"github.com/chainlab/p2pchain/pkg/block"
	"github.com/chainlab/p2pchain/pkg/types"
)

// Commitment computes a merkle root over every coin currently in set, a
// compact fingerprint two nodes can compare to check their unspent-coin
// views agree without transferring the whole set. Returns the empty
// byte string for an empty set, same as an empty block's merkle root.
func Commitment(set *Set) []byte {
	ids := make([]types.Hash, 0, set.Len())
	for _, t := range set.List() {
		ids = append(ids, t.TxID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return block.ComputeMerkleRoot(ids)
}

package block

import (
	"github.com/chainlab/p2pchain/pkg/crypto"
	"github.com/chainlab/p2pchain/pkg/types"
)

// ComputeMerkleRoot calculates the merkle root of a list of transaction
// ids.
//
// Algorithm: hash each level pairwise, halving the number of entries each
// pass, until one hash remains. Whenever a level has odd arity, pad it
// with one trailing empty (zero-length) leaf before combining — not a
// duplicate of the last real leaf — so an unpaired hash combines with
// nothing rather than with itself. A single txid is odd arity too, so its
// root is SHA256(txid || "") rather than the txid itself. The empty-leaf
// pad is re-checked at every level, not only once before the first
// pass: a block can reach an
// odd count again two or three levels up (any of 5, 6, 9 or 10 leaves
// does, all reachable at the block size limit), and padding only once
// there runs the combining loop off the end of the slice.
//
// Zero transactions return the empty byte string, not a 32-byte hash —
// there is nothing to hash, so there is no digest to return.
func ComputeMerkleRoot(txids []types.Hash) []byte {
	if len(txids) == 0 {
		return []byte{}
	}

	level := make([][]byte, len(txids))
	for i, id := range txids {
		level[i] = id.Bytes()
	}

	for {
		if len(level)%2 != 0 {
			level = append(level, []byte{})
		}
		next := make([][]byte, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = crypto.HashConcat(level[i], level[i+1]).Bytes()
		}
		level = next
		if len(level) == 1 {
			break
		}
	}

	return level[0]
}

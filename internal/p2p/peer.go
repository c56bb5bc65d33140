// Package p2p connects nodes together: gossiping new blocks and
// transactions, and serving block lookups to peers chasing an unknown
// branch.
package p2p

import (
	"github.com/chainlab/p2pchain/pkg/block"
	"github.com/chainlab/p2pchain/pkg/tx"
	"github.com/chainlab/p2pchain/pkg/types"
)

// Peer is anything that can stand in for a node on the other side of a
// connection: the node's own local implementation (internal/node.Node)
// satisfies it directly for in-process connections, and RemotePeer
// satisfies it for connections to an actual network address.
type Peer interface {
	// Address identifies the peer — its public key.
	Address() types.PubKey

	// Link and Unlink record or remove a symmetric connection to
	// another peer. They're low-level: callers outside Connect/
	// Disconnect should not call them directly.
	Link(other Peer)
	Unlink(other Peer)

	// AddTransaction offers a transaction to the peer's mempool,
	// reporting whether it was admitted.
	AddTransaction(t *tx.Transaction) bool

	// NotifyOfBlock informs the peer that a block with this hash exists,
	// as announced or forwarded by sender.
	NotifyOfBlock(h types.Hash, sender Peer)

	// GetBlock returns the block with the given hash, if the peer has it.
	GetBlock(h types.Hash) (*block.Block, bool)

	// GetLatestHash returns the hash of the peer's current chain tip.
	GetLatestHash() types.Hash
}

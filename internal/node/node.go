// Package node implements the peer-facing object a running instance of
// the chain actually is: a chain manager plus the wallet surface
// (create_transaction, get_balance) and connection bookkeeping layered
// on top of it. Node satisfies p2p.Peer directly, so two in-process
// nodes can gossip to each other with no transport in between at all —
// exactly the call graph RemotePeer reproduces over libp2p.
package node

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/chainlab/p2pchain/internal/chain"
	klog "github.com/chainlab/p2pchain/internal/log"
	"github.com/chainlab/p2pchain/internal/p2p"
	"github.com/chainlab/p2pchain/pkg/block"
	"github.com/chainlab/p2pchain/pkg/crypto"
	"github.com/chainlab/p2pchain/pkg/tx"
	"github.com/chainlab/p2pchain/pkg/types"
	"github.com/rs/zerolog"
)

// ErrSelfConnect is returned by Connect when asked to connect a node to
// itself.
var ErrSelfConnect = errors.New("node: cannot connect to self")

// ErrUnknownBlock is returned by Block when no block with the given hash
// exists on this node's chain.
var ErrUnknownBlock = errors.New("node: unknown block")

// Node is one participant in the network: a chain, a wallet key, and a
// set of connected peers. Node is safe for concurrent use — its own
// mutex guards every access to its chain. The mutex is released before
// Node forwards transactions or block notifications to another Peer,
// since those calls recurse back into this same method set
// synchronously; it stays held while a reorg fetches blocks from the
// notifying sender through GetBlock.
type Node struct {
	mu sync.Mutex

	pub  types.PubKey
	priv ed25519.PrivateKey

	ch    *chain.Chain
	peers map[string]p2p.Peer // keyed by hex-encoded address

	logger zerolog.Logger
}

// New returns a node with an empty chain, identified by the given
// Ed25519 key pair.
func New(pub types.PubKey, priv ed25519.PrivateKey) *Node {
	return &Node{
		pub:    pub,
		priv:   priv,
		ch:     chain.New(),
		peers:  make(map[string]p2p.Peer),
		logger: klog.WithComponent("node").With().Str("address", addrKey(pub)[:8]).Logger(),
	}
}

// NewWithChain returns a node identified by the given key pair, starting
// from an already-populated chain rather than an empty one. It exists so
// a restored snapshot can be handed straight to a fresh Node at startup.
func NewWithChain(pub types.PubKey, priv ed25519.PrivateKey, ch *chain.Chain) *Node {
	n := New(pub, priv)
	n.ch = ch
	return n
}

func addrKey(pub types.PubKey) string {
	return hex.EncodeToString(pub)
}

// Address identifies the node by its public key.
func (n *Node) Address() types.PubKey {
	return n.pub
}

// Link records a symmetric connection to other. Outside callers should
// go through Connect rather than calling Link directly.
func (n *Node) Link(other p2p.Peer) {
	n.mu.Lock()
	n.peers[addrKey(other.Address())] = other
	n.mu.Unlock()
}

// Unlink removes a connection to other, if one exists. Removing an
// absent connection is a no-op.
func (n *Node) Unlink(other p2p.Peer) {
	n.mu.Lock()
	delete(n.peers, addrKey(other.Address()))
	n.mu.Unlock()
}

// Connect establishes a symmetric connection between n and other, then
// has each side notify the other of its current tip — the trigger that
// brings a freshly connected node's chain up to date. Connecting a node
// to itself is rejected.
func (n *Node) Connect(other p2p.Peer) error {
	if bytes.Equal(other.Address(), n.pub) {
		return ErrSelfConnect
	}
	n.Link(other)
	other.Link(n)

	n.logger.Info().Str("peer", addrKey(other.Address())[:8]).Msg("connected")

	n.NotifyOfBlock(other.GetLatestHash(), other)
	other.NotifyOfBlock(n.GetLatestHash(), n)
	return nil
}

// Disconnect removes the connection between n and other in both
// directions. Disconnecting an already-absent peer is a no-op.
func (n *Node) Disconnect(other p2p.Peer) {
	n.Unlink(other)
	other.Unlink(n)
}

// Connections returns the node's currently connected peers, in no
// particular order.
func (n *Node) Connections() []p2p.Peer {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.peersLocked()
}

func (n *Node) peersLocked() []p2p.Peer {
	out := make([]p2p.Peer, 0, len(n.peers))
	for _, p := range n.peers {
		out = append(out, p)
	}
	return out
}

// AddTransaction offers t to the node's mempool and, if admitted, fans
// it out to every connected peer. It reports whether the transaction
// was admitted locally.
func (n *Node) AddTransaction(t *tx.Transaction) bool {
	n.mu.Lock()
	admitted := n.ch.AdmitTransaction(t)
	peers := n.peersLocked()
	n.mu.Unlock()

	if !admitted {
		return false
	}
	for _, p := range peers {
		p.AddTransaction(t)
	}
	return true
}

// MineBlock mints a block paying the node's own key, commits it to the
// chain, and notifies every connected peer of the new tip.
func (n *Node) MineBlock() (types.Hash, error) {
	n.mu.Lock()
	blk, err := n.ch.MineBlock(n.pub)
	var peers []p2p.Peer
	if err == nil {
		peers = n.peersLocked()
	}
	n.mu.Unlock()

	if err != nil {
		return "", err
	}
	h := blk.Hash()
	n.logger.Info().Str("hash", h.String()[:8]).Int("txs", len(blk.Txs)).Msg("mined block")
	for _, p := range peers {
		p.NotifyOfBlock(h, n)
	}
	return h, nil
}

// NotifyOfBlock informs the node that a block with hash h exists, as
// announced or forwarded by sender. It drives the chain's reorg
// protocol, re-admits any transactions the reorg displaced, and
// propagates the outcome to the node's own peers.
//
// BUG-FOR-BUG: the final propagation loop below calls n.NotifyOfBlock
// again rather than peer.NotifyOfBlock, and passes the original h
// rather than the chain's new tip — reproducing the source's
// self-notification bug exactly. It degrades safely here: a
// notification whose sender is n itself returns at once, since n cannot
// supply a block it does not already hold. This covers the case where
// only a prefix of the branch ending at h was adopted and h is still
// unknown.
func (n *Node) NotifyOfBlock(h types.Hash, sender p2p.Peer) {
	if sender == p2p.Peer(n) {
		return
	}
	n.mu.Lock()
	adopted, candidates, err := n.ch.Reorg(h, sender)
	if err != nil {
		n.mu.Unlock()
		n.logger.Error().Err(err).Msg("reorg failed")
		return
	}
	if !adopted {
		n.mu.Unlock()
		return
	}
	peers := n.peersLocked()
	n.mu.Unlock()

	n.logger.Info().Str("hash", h.String()[:8]).Int("candidates", len(candidates)).Msg("reorg adopted new branch")

	for _, cand := range candidates {
		n.AddTransaction(cand)
	}

	for range peers {
		n.NotifyOfBlock(h, n)
	}
}

// Block returns the block with hash h, or ErrUnknownBlock if this node
// has no such block.
func (n *Node) Block(h types.Hash) (*block.Block, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	blk, ok := n.ch.GetBlock(h)
	if !ok {
		return nil, ErrUnknownBlock
	}
	return blk, nil
}

// GetBlock returns the block with hash h, satisfying p2p.Peer and
// chain.BlockFetcher for peers chasing an unknown branch back through
// this node.
func (n *Node) GetBlock(h types.Hash) (*block.Block, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch.GetBlock(h)
}

// GetLatestHash returns the hash of the node's current chain tip.
func (n *Node) GetLatestHash() types.Hash {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch.Tip()
}

// GetMempool returns the transactions currently queued in the node's
// mempool.
func (n *Node) GetMempool() []*tx.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch.Mempool().List()
}

// GetMempoolHas reports whether t is currently queued in the node's
// mempool, keyed by its txid.
func (n *Node) GetMempoolHas(t *tx.Transaction) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch.Mempool().Has(t.TxID())
}

// GetUTXO returns the node's current unspent-coin set.
func (n *Node) GetUTXO() []*tx.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch.UTXOs().List()
}

// GetBlockchain returns every block the node has accepted, in height
// order.
func (n *Node) GetBlockchain() []*block.Block {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch.Blocks()
}

// GetAddress returns the node's public key.
func (n *Node) GetAddress() types.PubKey {
	return n.pub
}

// ClearMempool discards every transaction currently queued in the
// node's mempool.
func (n *Node) ClearMempool() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ch.Mempool().Clear()
}

// GetBalance returns the number of coins this node currently owns,
// reconstructed from the chain rather than tracked incrementally.
func (n *Node) GetBalance() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.ch.UnspentCoinsOwnedBy(n.pub))
}

// CreateTransaction builds and submits a transaction paying target one
// coin, spending the first unspent coin this node owns that isn't
// already referenced by a queued mempool entry. It reports false if the
// node has no spendable coin available. The transaction is returned
// regardless of whether the mempool (and its gossip fan-out) actually
// admits it, matching the source's "build first, admission is a side
// effect" behavior.
func (n *Node) CreateTransaction(target types.PubKey) (*tx.Transaction, bool) {
	n.mu.Lock()
	coins := n.ch.UnspentCoinsOwnedBy(n.pub)
	pool := n.ch.Mempool()
	var chosen types.Hash
	found := false
	for _, id := range coins {
		if !pool.InputIsQueued(id) {
			chosen = id
			found = true
			break
		}
	}
	priv := n.priv
	n.mu.Unlock()

	if !found {
		return nil, false
	}

	t := tx.New(target, chosen, priv)
	n.AddTransaction(t)
	return t, true
}

// PrivateKey returns the node's signing key. It exists for callers that
// need to construct transactions outside CreateTransaction's coin
// selection (e.g. a wallet CLI composing a custom transfer).
func (n *Node) PrivateKey() ed25519.PrivateKey {
	return n.priv
}

// Sign produces an Ed25519 signature over message with this node's key.
func (n *Node) Sign(message []byte) []byte {
	return crypto.Sign(n.priv, message)
}

package p2p

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	klog "github.com/chainlab/p2pchain/internal/log"
	"github.com/chainlab/p2pchain/pkg/types"
	"github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	libp2pcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	drouting "github.com/libp2p/go-libp2p/p2p/discovery/routing"
	dutil "github.com/libp2p/go-libp2p/p2p/discovery/util"
	multiaddr "github.com/multiformats/go-multiaddr"
)

const (
	rendezvous      = "p2pchain"
	dhtInterval     = 30 * time.Second
	seedDialTimeout = 10 * time.Second
)

// HostConfig configures a libp2p-backed network stack.
type HostConfig struct {
	ListenAddr string
	Port       int
	Seeds      []string
	NoDiscover bool
	DHTServer  bool
	DataDir    string // where the host's persistent identity key lives
}

// Host runs a libp2p transport bound to one local Peer: it answers other
// processes' stream RPCs on that Peer's behalf (via Server) and gossips
// block/tx announcements over GossipSub so the mesh converges faster than
// a Connect-only peer graph would. The core reorg and mempool logic never
// touches Host directly — it only ever calls Peer methods, satisfied
// here by RemotePeer the same way an in-process *node.Node satisfies them.
type Host struct {
	host   host.Host
	pubsub *pubsub.PubSub
	dht    *dht.IpfsDHT
	server *Server
	local  Peer

	ctx    context.Context
	cancel context.CancelFunc

	topicBlocks *pubsub.Topic
	subBlocks   *pubsub.Subscription
	topicTxs    *pubsub.Topic
	subTxs      *pubsub.Subscription
}

// NewHost starts a libp2p host for local, joins its gossip topics, and
// (unless cfg.NoDiscover) starts Kademlia peer discovery.
func NewHost(cfg HostConfig, local Peer) (*Host, error) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Host{local: local, ctx: ctx, cancel: cancel}

	identity, err := loadOrCreateIdentity(cfg.DataDir)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("p2p identity: %w", err)
	}

	listenAddr, err := multiaddr.NewMultiaddr(fmt.Sprintf("/ip4/%s/tcp/%d", cfg.ListenAddr, cfg.Port))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("parse listen address: %w", err)
	}
	lh, err := libp2p.New(
		libp2p.ListenAddrs(listenAddr),
		libp2p.Identity(identity),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create libp2p host: %w", err)
	}
	h.host = lh
	h.server = NewServer(lh, local)

	if !cfg.NoDiscover {
		mode := dht.ModeClient
		if cfg.DHTServer {
			mode = dht.ModeServer
		}
		kadDHT, err := dht.New(ctx, lh, dht.Mode(mode))
		if err != nil {
			lh.Close()
			cancel()
			return nil, fmt.Errorf("create kad-dht: %w", err)
		}
		if err := kadDHT.Bootstrap(ctx); err != nil {
			lh.Close()
			cancel()
			return nil, fmt.Errorf("bootstrap kad-dht: %w", err)
		}
		h.dht = kadDHT
		go h.runDiscovery()
	}

	ps, err := pubsub.NewGossipSub(ctx, lh)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("create pubsub: %w", err)
	}
	h.pubsub = ps
	if err := h.joinTopics(); err != nil {
		h.Close()
		return nil, err
	}
	go h.readBlockAnnouncements()
	go h.readTxAnnouncements()

	for _, addr := range cfg.Seeds {
		h.dialSeed(addr)
	}

	return h, nil
}

// ID returns this host's libp2p peer ID.
func (h *Host) ID() peer.ID {
	return h.host.ID()
}

// Addrs returns this host's dialable multiaddrs, each including the
// trailing /p2p/<id> component a peer needs to connect.
func (h *Host) Addrs() []string {
	var out []string
	for _, a := range h.host.Addrs() {
		out = append(out, fmt.Sprintf("%s/p2p/%s", a, h.host.ID()))
	}
	return out
}

// Dial connects to the peer described by addr (a full libp2p multiaddr
// including its /p2p/<id> suffix) and returns a RemotePeer for it.
func (h *Host) Dial(addr string) (*RemotePeer, error) {
	info, err := peer.AddrInfoFromString(addr)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}
	ctx, cancel := context.WithTimeout(h.ctx, seedDialTimeout)
	defer cancel()
	if err := h.host.Connect(ctx, *info); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return NewRemotePeer(h.host, info.ID), nil
}

func (h *Host) dialSeed(addr string) {
	logger := klog.P2P
	if _, err := h.Dial(addr); err != nil {
		logger.Warn().Str("addr", addr).Err(err).Msg("seed connect failed")
		return
	}
	logger.Info().Str("addr", addr).Msg("seed connected")
}

// AnnounceBlock publishes h's availability to the block topic so peers
// not directly linked to the local node still learn about it quickly.
// The only thing a subscriber can do with the announcement is call
// NotifyOfBlock on the local Peer with a RemotePeer standing in for the
// publisher — same as any other sender of NotifyOfBlock.
func (h *Host) AnnounceBlock(blockHash types.Hash) {
	if h.topicBlocks == nil {
		return
	}
	_ = h.topicBlocks.Publish(h.ctx, blockHash.Bytes())
}

// AnnounceTransaction publishes t's txid to the transaction topic, purely
// as a hint — peers still pull the actual transaction through AddTransaction
// the same way a directly linked peer would.
func (h *Host) AnnounceTransaction(txid types.Hash) {
	if h.topicTxs == nil {
		return
	}
	_ = h.topicTxs.Publish(h.ctx, txid.Bytes())
}

func (h *Host) joinTopics() error {
	var err error
	h.topicBlocks, err = h.pubsub.Join(topicBlocks)
	if err != nil {
		return fmt.Errorf("join block topic: %w", err)
	}
	h.subBlocks, err = h.topicBlocks.Subscribe()
	if err != nil {
		return fmt.Errorf("subscribe block topic: %w", err)
	}
	h.topicTxs, err = h.pubsub.Join(topicTransactions)
	if err != nil {
		return fmt.Errorf("join tx topic: %w", err)
	}
	h.subTxs, err = h.topicTxs.Subscribe()
	if err != nil {
		return fmt.Errorf("subscribe tx topic: %w", err)
	}
	return nil
}

func (h *Host) readBlockAnnouncements() {
	for {
		msg, err := h.subBlocks.Next(h.ctx)
		if err != nil {
			return
		}
		if msg.ReceivedFrom == h.host.ID() {
			continue
		}
		sender := NewRemotePeer(h.host, msg.ReceivedFrom)
		h.local.NotifyOfBlock(types.HashFromBytes(msg.Data), sender)
	}
}

func (h *Host) readTxAnnouncements() {
	for {
		msg, err := h.subTxs.Next(h.ctx)
		if err != nil {
			return
		}
		if msg.ReceivedFrom == h.host.ID() {
			continue
		}
		// The announcement only carries a txid hint; the actual
		// transaction still arrives through AddTransaction on a direct
		// or RemotePeer link. There's nothing further to do here beyond
		// letting the gossip mesh keep propagating it, which GossipSub
		// already does on our behalf.
	}
}

func (h *Host) runDiscovery() {
	routingDiscovery := drouting.NewRoutingDiscovery(h.dht)
	dutil.Advertise(h.ctx, routingDiscovery, rendezvous)

	ticker := time.NewTicker(dhtInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.findPeers(routingDiscovery)
		}
	}
}

func (h *Host) findPeers(routingDiscovery *drouting.RoutingDiscovery) {
	ctx, cancel := context.WithTimeout(h.ctx, 20*time.Second)
	defer cancel()
	peerCh, err := routingDiscovery.FindPeers(ctx, rendezvous)
	if err != nil {
		return
	}
	for p := range peerCh {
		if p.ID == h.host.ID() || len(p.Addrs) == 0 {
			continue
		}
		dialCtx, dialCancel := context.WithTimeout(h.ctx, seedDialTimeout)
		_ = h.host.Connect(dialCtx, p)
		dialCancel()
	}
}

// Close shuts the host down, releasing its listen socket and DHT.
func (h *Host) Close() error {
	h.cancel()
	if h.subBlocks != nil {
		h.subBlocks.Cancel()
	}
	if h.subTxs != nil {
		h.subTxs.Cancel()
	}
	if h.dht != nil {
		h.dht.Close()
	}
	if h.host != nil {
		return h.host.Close()
	}
	return nil
}

func loadOrCreateIdentity(dataDir string) (libp2pcrypto.PrivKey, error) {
	keyPath := filepath.Join(dataDir, "node.key")

	if data, err := os.ReadFile(keyPath); err == nil {
		raw, err := hex.DecodeString(string(data))
		if err != nil {
			return nil, fmt.Errorf("decode node key: %w", err)
		}
		return libp2pcrypto.UnmarshalEd25519PrivateKey(raw)
	}

	priv, _, err := libp2pcrypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate node key: %w", err)
	}
	raw, err := priv.Raw()
	if err != nil {
		return nil, fmt.Errorf("marshal node key: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(raw)), 0600); err != nil {
		return nil, fmt.Errorf("persist node key: %w", err)
	}
	return priv, nil
}

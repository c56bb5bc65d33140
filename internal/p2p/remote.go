package p2p

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	klog "github.com/chainlab/p2pchain/internal/log"
	"github.com/chainlab/p2pchain/pkg/block"
	"github.com/chainlab/p2pchain/pkg/tx"
	"github.com/chainlab/p2pchain/pkg/types"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	libp2ppeer "github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
)

// addTxRequest and the other wire types below are the JSON bodies sent
// over the stream protocols in protocol.go. Each has exactly one matching
// response type.

type addTxRequest struct {
	Tx *tx.Transaction `json:"tx"`
}

type addTxResponse struct {
	Admitted bool `json:"admitted"`
}

type notifyBlockRequest struct {
	Hash          types.Hash   `json:"hash"`
	SenderAddress types.PubKey `json:"sender_address"`
}

type getBlockRequest struct {
	Hash types.Hash `json:"hash"`
}

type getBlockResponse struct {
	Block *block.Block `json:"block"`
	Found bool         `json:"found"`
}

type getLatestResponse struct {
	Hash types.Hash `json:"hash"`
}

type addressResponse struct {
	Address types.PubKey `json:"address"`
}

// Server answers stream RPCs on behalf of a local Peer, so a remote
// RemotePeer talking to this host can exercise the same Peer interface a
// host process exercises against an in-process node.Node.
type Server struct {
	host  host.Host
	local Peer
}

// NewServer registers local's stream handlers on h. Requests arriving on
// another peer's connection to h are answered by calling straight through
// to local — typically a *node.Node.
func NewServer(h host.Host, local Peer) *Server {
	s := &Server{host: h, local: local}
	h.SetStreamHandler(protoAddress, s.handleAddress)
	h.SetStreamHandler(protoAddTx, s.handleAddTx)
	h.SetStreamHandler(protoNotifyBlock, s.handleNotifyBlock)
	h.SetStreamHandler(protoGetBlock, s.handleGetBlock)
	h.SetStreamHandler(protoGetLatest, s.handleGetLatest)
	return s
}

func (s *Server) handleAddress(stream network.Stream) {
	defer stream.Close()
	resp := addressResponse{Address: s.local.Address()}
	_ = json.NewEncoder(stream).Encode(&resp)
}

func (s *Server) handleAddTx(stream network.Stream) {
	defer stream.Close()
	var req addTxRequest
	if err := decodeJSON(stream, &req); err != nil {
		return
	}
	resp := addTxResponse{Admitted: s.local.AddTransaction(req.Tx)}
	_ = json.NewEncoder(stream).Encode(&resp)
}

func (s *Server) handleNotifyBlock(stream network.Stream) {
	defer stream.Close()
	var req notifyBlockRequest
	if err := decodeJSON(stream, &req); err != nil {
		return
	}
	sender := NewRemotePeer(s.host, stream.Conn().RemotePeer())
	sender.cacheAddress(req.SenderAddress)
	s.local.NotifyOfBlock(req.Hash, sender)
}

func (s *Server) handleGetBlock(stream network.Stream) {
	defer stream.Close()
	var req getBlockRequest
	if err := decodeJSON(stream, &req); err != nil {
		return
	}
	blk, ok := s.local.GetBlock(req.Hash)
	resp := getBlockResponse{Block: blk, Found: ok}
	_ = json.NewEncoder(stream).Encode(&resp)
}

func (s *Server) handleGetLatest(stream network.Stream) {
	defer stream.Close()
	resp := getLatestResponse{Hash: s.local.GetLatestHash()}
	_ = json.NewEncoder(stream).Encode(&resp)
}

func decodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(io.LimitReader(r, maxRPCBytes)).Decode(v)
}

// RemotePeer is a Peer backed by a libp2p connection to another process.
// Every method is a blocking stream RPC to that process's Server. Link and
// Unlink are no-ops: the symmetric connection they record lives in the
// local node.Node's peer map, not on the wire.
type RemotePeer struct {
	host host.Host
	id   libp2ppeer.ID

	addr    types.PubKey
	hasAddr bool
}

// NewRemotePeer wraps an already-connected libp2p peer ID as a Peer.
func NewRemotePeer(h host.Host, id libp2ppeer.ID) *RemotePeer {
	return &RemotePeer{host: h, id: id}
}

func (r *RemotePeer) cacheAddress(addr types.PubKey) {
	if len(addr) > 0 {
		r.addr = addr
		r.hasAddr = true
	}
}

// Address returns the remote peer's public key, fetching and caching it
// over the wire on first use.
func (r *RemotePeer) Address() types.PubKey {
	if r.hasAddr {
		return r.addr
	}
	var resp addressResponse
	if err := r.call(protoAddress, nil, &resp); err != nil {
		klog.P2P.Warn().Err(err).Str("peer", r.id.String()[:16]).Msg("address rpc failed")
		return nil
	}
	r.cacheAddress(resp.Address)
	return resp.Address
}

// Link is a no-op: RemotePeer does not itself track connections.
func (r *RemotePeer) Link(other Peer) {}

// Unlink is a no-op: RemotePeer does not itself track connections.
func (r *RemotePeer) Unlink(other Peer) {}

// AddTransaction offers t to the remote peer's mempool over the wire.
func (r *RemotePeer) AddTransaction(t *tx.Transaction) bool {
	var resp addTxResponse
	if err := r.call(protoAddTx, addTxRequest{Tx: t}, &resp); err != nil {
		klog.P2P.Warn().Err(err).Str("peer", r.id.String()[:16]).Msg("addtx rpc failed")
		return false
	}
	return resp.Admitted
}

// NotifyOfBlock tells the remote peer that a block with hash h exists,
// identifying the local node as the sender so the remote can fetch
// branches back through it if needed.
func (r *RemotePeer) NotifyOfBlock(h types.Hash, sender Peer) {
	req := notifyBlockRequest{Hash: h, SenderAddress: sender.Address()}
	if err := r.call(protoNotifyBlock, req, nil); err != nil {
		klog.P2P.Warn().Err(err).Str("peer", r.id.String()[:16]).Msg("notify rpc failed")
	}
}

// GetBlock fetches the block with hash h from the remote peer, if it has
// one.
func (r *RemotePeer) GetBlock(h types.Hash) (*block.Block, bool) {
	var resp getBlockResponse
	if err := r.call(protoGetBlock, getBlockRequest{Hash: h}, &resp); err != nil {
		klog.P2P.Warn().Err(err).Str("peer", r.id.String()[:16]).Msg("getblock rpc failed")
		return nil, false
	}
	return resp.Block, resp.Found
}

// GetLatestHash fetches the remote peer's current chain tip.
func (r *RemotePeer) GetLatestHash() types.Hash {
	var resp getLatestResponse
	if err := r.call(protoGetLatest, nil, &resp); err != nil {
		klog.P2P.Warn().Err(err).Str("peer", r.id.String()[:16]).Msg("latest rpc failed")
		return types.Hash{}
	}
	return resp.Hash
}

// call opens a stream to r using proto, writes req as JSON (if non-nil),
// signals end of write, then decodes the response into resp (if non-nil).
func (r *RemotePeer) call(proto protocol.ID, req interface{}, resp interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	stream, err := r.host.NewStream(ctx, r.id, proto)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if req != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(req); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		if _, err := stream.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write request: %w", err)
		}
	}
	if err := stream.CloseWrite(); err != nil {
		return fmt.Errorf("close write: %w", err)
	}

	if resp != nil {
		if err := decodeJSON(stream, resp); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

package p2p

import (
	"time"

	"github.com/libp2p/go-libp2p/core/protocol"
)

// Stream protocol IDs. Each one carries a single JSON request followed by
// a single JSON response, mirroring the synchronous calls on Peer.
const (
	protoAddress     = protocol.ID("/p2pchain/address/1.0.0")
	protoAddTx       = protocol.ID("/p2pchain/addtx/1.0.0")
	protoNotifyBlock = protocol.ID("/p2pchain/notify/1.0.0")
	protoGetBlock    = protocol.ID("/p2pchain/getblock/1.0.0")
	protoGetLatest   = protocol.ID("/p2pchain/latest/1.0.0")
)

// GossipSub topics used to announce new block hashes and txids to the
// whole mesh rather than peer by peer. An announcement carries only the
// hash; a host that receives a block announcement hands it to its local
// Peer's NotifyOfBlock, and the blocks themselves are then fetched over
// the stream protocols above. Transaction announcements are not acted on
// by the receiving host.
const (
	topicTransactions = "/p2pchain/tx/1.0.0"
	topicBlocks       = "/p2pchain/block/1.0.0"
)

const (
	rpcTimeout  = 10 * time.Second
	maxRPCBytes = 10 * 1024 * 1024
)

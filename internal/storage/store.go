// Package storage persists a node's chain across restarts. A node's live
// state — chain, UTXO set, mempool, tx index — lives entirely in memory
// (internal/chain owns all of it); this package only ever writes a
// point-in-time dump of the block list and only ever reads it back once,
// at startup. It is never consulted mid-reorg.
package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/chainlab/p2pchain/internal/chain"
	"github.com/chainlab/p2pchain/pkg/block"
)

// snapshotKey is the single key a snapshot is stored under. There's
// exactly one snapshot per store — this isn't a block-by-block archive,
// just a point-in-time dump the demo daemon takes on a timer and reads
// back once at startup.
var snapshotKey = []byte("snapshot/blocks")

// Store is a Badger-backed snapshot store for one node's chain.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a snapshot store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger's built-in logging.

	db, err := badger.Open(opts)
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "Cannot acquire directory lock") ||
			strings.Contains(errMsg, "resource temporarily unavailable") {
			return nil, fmt.Errorf("database at %s is locked by another process (is another chainnode instance running?): %w", path, err)
		}
		return nil, fmt.Errorf("open database at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot writes blocks, in height order, as the chain's durable
// state. The UTXO set and tx index are not stored separately — they're
// deterministic functions of the block list and are rebuilt by
// LoadSnapshot via chain.FromBlocks.
func (s *Store) SaveSnapshot(blocks []*block.Block) error {
	data, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey, data)
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a previously saved block list and replays it into a
// fresh chain.Chain. It reports ok=false if no snapshot has ever been
// saved, which is not an error — a node with no prior snapshot simply
// starts from genesis.
func (s *Store) LoadSnapshot() (c *chain.Chain, ok bool, err error) {
	var data []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot: %w", err)
	}
	if data == nil {
		return nil, false, nil
	}

	var blocks []*block.Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	c, err = chain.FromBlocks(blocks)
	if err != nil {
		return nil, false, fmt.Errorf("replay snapshot: %w", err)
	}
	return c, true, nil
}

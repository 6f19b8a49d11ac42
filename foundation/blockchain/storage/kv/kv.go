// Package kv implements block and peer storage on top of a badger key value
// database.
package kv

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/peer"
	"go.uber.org/zap"
)

// Set of key prefixes used to partition the database.
const (
	blockPrefix = "block:"
	peerPrefix  = "peer:"
)

// Config defines the settings for opening the database. An empty Path opens
// an in memory database.
type Config struct {
	Path string
	Log  *zap.SugaredLogger
}

// KV represents the badger backed storage. It implements the database.Storage
// and the peer.Store interfaces.
type KV struct {
	db *badger.DB
}

// Open opens or creates the database.
func Open(cfg Config) (*KV, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Compression = options.Snappy

	opts.Logger = nil
	if cfg.Log != nil {
		opts.Logger = logger{log: cfg.Log}
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &KV{db: db}, nil
}

// Close releases the database.
func (kv *KV) Close() error {
	return kv.db.Close()
}

// =============================================================================

// Write stores the block. The block must directly follow the last block
// stored and can never overwrite one.
func (kv *KV) Write(block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	return kv.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(blockKey(block.Index))
		switch {
		case err == nil:
			return fmt.Errorf("block %d already exists", block.Index)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if block.Index > 0 {
			if _, err := txn.Get(blockKey(block.Index - 1)); err != nil {
				return fmt.Errorf("block %d is out of order: %w", block.Index, err)
			}
		}

		return txn.Set(blockKey(block.Index), data)
	})
}

// GetBlock returns the block stored with the specified number.
func (kv *KV) GetBlock(num uint64) (database.Block, error) {
	var block database.Block

	err := kv.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blockKey(num))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &block)
		})
	})
	if err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (kv *KV) ForEach() database.Iterator {
	return &kvIterator{kv: kv}
}

// Reset removes every block from the database. Peers are kept.
func (kv *KV) Reset() error {
	return kv.db.DropPrefix([]byte(blockPrefix))
}

// =============================================================================

// SavePeer stores or refreshes the peer.
func (kv *KV) SavePeer(p peer.Peer) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	return kv.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(peerPrefix+p.Host), data)
	})
}

// LoadPeers returns every stored peer.
func (kv *KV) LoadPeers() ([]peer.Peer, error) {
	var peers []peer.Peer

	err := kv.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(peerPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var p peer.Peer
				if err := json.Unmarshal(val, &p); err != nil {
					return err
				}
				peers = append(peers, p)
				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return peers, nil
}

// =============================================================================

// blockKey forms the key for the block. The number is zero padded so the
// keys sort in chain order.
func blockKey(num uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", blockPrefix, num)
}

// kvIterator represents the iteration implementation for walking through
// the blocks in the database. This implements the database Iterator interface.
type kvIterator struct {
	kv      *KV    // Access to the storage API.
	current uint64 // Current block number being iterated over.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from the database.
func (ki *kvIterator) Next() (database.Block, error) {
	if ki.eoc {
		return database.Block{}, errors.New("end of chain")
	}

	block, err := ki.kv.GetBlock(ki.current)
	if errors.Is(err, badger.ErrKeyNotFound) {
		ki.eoc = true
	}

	ki.current++

	return block, err
}

// Done returns the end of chain value.
func (ki *kvIterator) Done() bool {
	return ki.eoc
}

// =============================================================================

// logger adapts the zap logger to the badger logging interface.
type logger struct {
	log *zap.SugaredLogger
}

func (l logger) Errorf(format string, args ...any) {
	l.log.Errorf(format, args...)
}

func (l logger) Warningf(format string, args ...any) {
	l.log.Warnf(format, args...)
}

func (l logger) Infof(format string, args ...any) {
	l.log.Infof(format, args...)
}

func (l logger) Debugf(format string, args ...any) {
	l.log.Debugf(format, args...)
}

// Package store opens the block storage selected by configuration.
package store

import (
	"fmt"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/peer"
	"github.com/pocledger/pocledger/foundation/blockchain/storage/disk"
	"github.com/pocledger/pocledger/foundation/blockchain/storage/kv"
	"github.com/pocledger/pocledger/foundation/blockchain/storage/memory"
	"go.uber.org/zap"
)

// Set of supported storage kinds.
const (
	KindMemory = "memory"
	KindDisk   = "disk"
	KindBadger = "badger"
)

// Config is the required properties to open the storage.
type Config struct {
	Kind string
	Path string
	Log  *zap.SugaredLogger
}

// Store bundles the block storage with the peer store when the selected
// kind can persist peers.
type Store struct {
	Blocks database.Storage
	Peers  peer.Store
}

// Open opens the storage of the configured kind.
func Open(cfg Config) (Store, error) {
	switch cfg.Kind {
	case KindMemory:
		m, err := memory.New()
		if err != nil {
			return Store{}, err
		}
		return Store{Blocks: m}, nil

	case KindDisk:
		d, err := disk.New(cfg.Path)
		if err != nil {
			return Store{}, err
		}
		return Store{Blocks: d}, nil

	case KindBadger:
		db, err := kv.Open(kv.Config{Path: cfg.Path, Log: cfg.Log})
		if err != nil {
			return Store{}, err
		}
		return Store{Blocks: db, Peers: db}, nil
	}

	return Store{}, fmt.Errorf("unknown storage kind %q", cfg.Kind)
}

// PeerSet constructs the peer set, backed by the peer store when there is one.
func (s Store) PeerSet() (*peer.PeerSet, error) {
	if s.Peers == nil {
		return peer.NewPeerSet(), nil
	}

	return peer.NewPeerSetWithStore(s.Peers)
}

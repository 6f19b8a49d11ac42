// Package ledger is the core API for the blockchain and implements all the
// business rules and processing.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/genesis"
	"github.com/pocledger/pocledger/foundation/blockchain/mempool"
)

// Set of error variables for ledger processing.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrChainIntegrity      = errors.New("chain integrity violated")
	ErrNoTransactions      = errors.New("no transactions in mempool")
	ErrSealConflict        = errors.New("chain tail changed while sealing")
)

// Defaults applied when the configuration leaves a value unset.
const (
	defaultSealTimeout = 30 * time.Second
	maxCommitRetries   = 3
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis        genesis.Genesis
	Storage        database.Storage
	Beneficiary    database.Address
	SealTimeout    time.Duration
	MaxPOWAttempts uint64
	EvHandler      EventHandler
}

// Ledger manages the chain of blocks and the queue of pending transactions.
// One mutex guards the chain and the queue as a unit. A second mutex makes
// sealing exclusive so the proof of work can run without holding the first.
type Ledger struct {
	genesis     genesis.Genesis
	storage     database.Storage
	beneficiary database.Address
	sealTimeout time.Duration
	maxAttempts uint64
	evHandler   EventHandler

	mu      sync.RWMutex
	chain   []database.Block
	sealed  map[string]struct{}
	mempool *mempool.Mempool
	halted  error

	sealMu sync.Mutex
}

// New constructs a ledger, loads and re-verifies any blocks already held by
// the storage and bootstraps the genesis block when the storage is empty.
func New(cfg Config) (*Ledger, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	if cfg.Beneficiary != "" && !cfg.Beneficiary.IsAddress() {
		return nil, fmt.Errorf("beneficiary %q is not a valid address", cfg.Beneficiary)
	}

	sealTimeout := cfg.SealTimeout
	if sealTimeout <= 0 {
		sealTimeout = defaultSealTimeout
	}

	// Load all existing blocks from storage into memory for processing.
	var blocks []database.Block
	iter := cfg.Storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	ev("ledger: New: loaded blocks[%d]", len(blocks))

	sealed, err := verifyBlocks(blocks, cfg.Genesis, ev)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChainIntegrity, err)
	}

	l := Ledger{
		genesis:     cfg.Genesis,
		storage:     cfg.Storage,
		beneficiary: cfg.Beneficiary,
		sealTimeout: sealTimeout,
		maxAttempts: cfg.MaxPOWAttempts,
		evHandler:   ev,
		chain:       blocks,
		sealed:      sealed,
		mempool:     mempool.New(),
	}

	if _, err := l.Bootstrap(); err != nil {
		return nil, err
	}

	return &l, nil
}

// Shutdown cleanly brings the ledger down.
func (l *Ledger) Shutdown() error {
	l.evHandler("ledger: Shutdown: started")
	defer l.evHandler("ledger: Shutdown: completed")

	// Wait for any seal in flight to finish.
	l.sealMu.Lock()
	defer l.sealMu.Unlock()

	return l.storage.Close()
}

// Bootstrap seals and appends the genesis block holding the initial capital
// rewards. When the chain already has blocks it returns the existing genesis
// block and does nothing else.
func (l *Ledger) Bootstrap() (database.Block, error) {
	l.sealMu.Lock()
	defer l.sealMu.Unlock()

	l.mu.RLock()
	if len(l.chain) > 0 {
		genesisBlock := l.chain[0]
		l.mu.RUnlock()
		return genesisBlock, nil
	}
	l.mu.RUnlock()

	l.evHandler("ledger: Bootstrap: started")
	defer l.evHandler("ledger: Bootstrap: completed")

	ctx, cancel := context.WithTimeout(context.Background(), l.sealTimeout)
	defer cancel()

	candidate := database.NewGenesisBlock(l.genesis.Rewards(), l.genesis.TimeStamp())
	block, err := candidate.Seal(ctx, uint(l.genesis.Difficulty), l.maxAttempts, l.evHandler)
	if err != nil {
		return database.Block{}, fmt.Errorf("seal genesis: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.chain) > 0 {
		return l.chain[0], nil
	}

	if err := l.storage.Write(block); err != nil {
		return database.Block{}, fmt.Errorf("write genesis: %w", err)
	}
	l.chain = append(l.chain, block)

	l.evHandler("ledger: Bootstrap: genesis[%s]: owners[%d]", block.Hash, len(l.genesis.Owners))

	return block, nil
}

// Genesis returns the genesis settings the ledger runs with.
func (l *Ledger) Genesis() genesis.Genesis {
	return l.genesis
}

// Halted returns the reason the ledger stopped accepting changes, or nil
// when it is healthy.
func (l *Ledger) Halted() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.halted
}

// Package memory keeps the chain in a slice. It backs tests and nodes started
// without a data directory.
package memory

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
)

// ErrNotFound is returned when no block is stored at the requested index.
var ErrNotFound = errors.New("block not found")

// Memory stores blocks by index in a slice. Blocks are copied on the way in
// and out so callers cannot change what was stored.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.Block
}

// New constructs an empty store.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

// Write appends the block. The block index must be the next free index.
func (m *Memory) Write(block database.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := uint64(len(m.blocks))
	switch {
	case block.Index < next:
		return fmt.Errorf("block %d already exists", block.Index)
	case block.Index > next:
		return fmt.Errorf("block %d is out of order, next is %d", block.Index, next)
	}

	m.blocks = append(m.blocks, clone(block))

	return nil
}

// GetBlock returns the block stored at the index.
func (m *Memory) GetBlock(num uint64) (database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if num >= uint64(len(m.blocks)) {
		return database.Block{}, fmt.Errorf("block %d: %w", num, ErrNotFound)
	}

	return clone(m.blocks[num]), nil
}

// ForEach returns an iterator over the blocks stored when it was called,
// starting with genesis.
func (m *Memory) ForEach() database.Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &iterator{blocks: slices.Clone(m.blocks)}
}

// Reset drops every block.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	return nil
}

func clone(block database.Block) database.Block {
	block.Entries = slices.Clone(block.Entries)
	return block
}

// =============================================================================

type iterator struct {
	blocks []database.Block
	pos    int
	eoc    bool
}

// Next returns the following block. Once the snapshot is exhausted it marks
// the iterator done and returns an error.
func (it *iterator) Next() (database.Block, error) {
	if it.pos >= len(it.blocks) {
		it.eoc = true
		return database.Block{}, errors.New("end of chain")
	}

	block := clone(it.blocks[it.pos])
	it.pos++

	return block, nil
}

// Done reports whether the iterator passed the last block.
func (it *iterator) Done() bool {
	return it.eoc
}

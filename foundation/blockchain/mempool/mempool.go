// Package mempool maintains the queue of transactions waiting to be sealed
// into a block.
package mempool

import (
	"errors"
	"sync"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
)

// ErrDuplicate is returned when a transaction is already in the pool.
var ErrDuplicate = errors.New("transaction already pending")

// Mempool represents the ordered set of pending transactions. Transactions
// leave the pool in the order they were added.
type Mempool struct {
	mu    sync.RWMutex
	queue []database.SignedTx
	ids   map[string]struct{}
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{
		ids: make(map[string]struct{}),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.queue)
}

// Add appends a transaction to the end of the queue.
func (mp *Mempool) Add(tx database.SignedTx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	id := tx.ID()
	if _, exists := mp.ids[id]; exists {
		return len(mp.queue), ErrDuplicate
	}

	mp.ids[id] = struct{}{}
	mp.queue = append(mp.queue, tx)

	return len(mp.queue), nil
}

// Contains reports whether the transaction with the specified id is pending.
func (mp *Mempool) Contains(id string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.ids[id]
	return exists
}

// Copy returns the pending transactions in queue order.
func (mp *Mempool) Copy() []database.SignedTx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make([]database.SignedTx, len(mp.queue))
	copy(cpy, mp.queue)

	return cpy
}

// Delete removes the specified transactions from the pool. Transactions added
// after a snapshot was taken are left in place.
func (mp *Mempool) Delete(txs []database.SignedTx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	remove := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		remove[tx.ID()] = struct{}{}
	}

	queue := mp.queue[:0]
	for _, tx := range mp.queue {
		id := tx.ID()
		if _, exists := remove[id]; exists {
			delete(mp.ids, id)
			continue
		}
		queue = append(queue, tx)
	}

	clear(mp.queue[len(queue):])
	mp.queue = queue
}

// Debits returns the sum of the pending amounts sent from the address.
func (mp *Mempool) Debits(from database.Address) float64 {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	var total float64
	for _, tx := range mp.queue {
		if tx.From == from {
			total += tx.Amount
		}
	}

	return total
}

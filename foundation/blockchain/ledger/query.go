package ledger

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
)

// Direction classifies an entry relative to the queried address.
type Direction string

// Set of directions an event can take.
const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// Event is a single change to the balance of an address.
type Event struct {
	BlockIndex   uint64              `json:"block_index"`
	Position     int                 `json:"position"`
	Direction    Direction           `json:"direction"`
	Type         database.EntryKind  `json:"type"`
	Counterparty database.Address    `json:"counterparty,omitempty"`
	Amount       float64             `json:"amount"`
	TimeStamp    uint64              `json:"timestamp"`
	Reason       database.ReasonKind `json:"reason,omitempty"`
}

// AddressInfo summarises the balance and history of an address.
type AddressInfo struct {
	Address      database.Address `json:"address"`
	Balance      float64          `json:"balance"`
	Transactions []Event          `json:"transactions"`
}

// =============================================================================

// BalanceOf replays the chain and returns the sealed balance of the address.
// Pending transactions are not counted.
func (l *Ledger) BalanceOf(address database.Address) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return replayBalance(l.chain, address)
}

// HistoryOf replays the chain and returns every sealed event touching the
// address, ordered by timestamp, then block index, then position.
func (l *Ledger) HistoryOf(address database.Address) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, events := replay(l.chain, address)
	return events
}

// AddressInfo returns the balance and history of the address from a single
// replay of the chain.
func (l *Ledger) AddressInfo(address database.Address) AddressInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()

	balance, events := replay(l.chain, address)

	return AddressInfo{
		Address:      address,
		Balance:      balance,
		Transactions: events,
	}
}

// Balances replays the chain and returns the balance of every address that
// appears in it.
func (l *Ledger) Balances() map[database.Address]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return replayBalances(l.chain)
}

// BlockCount returns the number of blocks in the chain, genesis included.
func (l *Ledger) BlockCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.chain)
}

// LatestBlock returns the tail of the chain.
func (l *Ledger) LatestBlock() database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.chain[len(l.chain)-1]
}

// Pending returns a copy of the pending queue in submission order.
func (l *Ledger) Pending() []database.SignedTx {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.mempool.Copy()
}

// BlocksInRange returns the blocks with index in [start, end). The bounds are
// clamped to the chain. A start that is not a number is treated as 0 and an
// end that is not a number is treated as the chain length.
func (l *Ledger) BlocksInRange(start string, end string) []database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	length := len(l.chain)
	from := parseBound(start, 0, length)
	to := parseBound(end, length, length)

	if from >= to {
		return []database.Block{}
	}

	blocks := make([]database.Block, to-from)
	copy(blocks, l.chain[from:to])

	return blocks
}

// parseBound converts a range bound and clamps it to [0, length].
func parseBound(s string, fallback int, length int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}

	return min(max(n, 0), length)
}

// =============================================================================

// replay walks the chain once and classifies every entry touching the
// address as a credit or a debit.
func replay(chain []database.Block, address database.Address) (float64, []Event) {
	var balance float64
	events := []Event{}

	for _, block := range chain {
		for pos, entry := range block.Entries {
			switch entry.Type {
			case database.EntryTx:
				tx := entry.Tx
				if tx.From == address {
					balance -= tx.Amount
					events = append(events, Event{
						BlockIndex:   block.Index,
						Position:     pos,
						Direction:    Debit,
						Type:         database.EntryTx,
						Counterparty: tx.To,
						Amount:       tx.Amount,
						TimeStamp:    tx.TimeStamp,
					})
				}
				if tx.To == address {
					balance += tx.Amount
					events = append(events, Event{
						BlockIndex:   block.Index,
						Position:     pos,
						Direction:    Credit,
						Type:         database.EntryTx,
						Counterparty: tx.From,
						Amount:       tx.Amount,
						TimeStamp:    tx.TimeStamp,
					})
				}

			case database.EntryReward:
				reward := entry.Reward
				if reward.To == address {
					balance += reward.Amount
					events = append(events, Event{
						BlockIndex: block.Index,
						Position:   pos,
						Direction:  Credit,
						Type:       database.EntryReward,
						Amount:     reward.Amount,
						TimeStamp:  reward.TimeStamp,
						Reason:     reward.Reason.Kind,
					})
				}
			}
		}
	}

	slices.SortStableFunc(events, func(a, b Event) int {
		return cmp.Or(
			cmp.Compare(a.TimeStamp, b.TimeStamp),
			cmp.Compare(a.BlockIndex, b.BlockIndex),
			cmp.Compare(a.Position, b.Position),
		)
	})

	return balance, events
}

// replayBalance walks the chain once and returns the balance of the address.
func replayBalance(chain []database.Block, address database.Address) float64 {
	var balance float64

	for _, block := range chain {
		for _, entry := range block.Entries {
			switch entry.Type {
			case database.EntryTx:
				if entry.Tx.From == address {
					balance -= entry.Tx.Amount
				}
				if entry.Tx.To == address {
					balance += entry.Tx.Amount
				}

			case database.EntryReward:
				if entry.Reward.To == address {
					balance += entry.Reward.Amount
				}
			}
		}
	}

	return balance
}

// replayBalances walks the chain once and returns every balance.
func replayBalances(chain []database.Block) map[database.Address]float64 {
	balances := make(map[database.Address]float64)

	for _, block := range chain {
		for _, entry := range block.Entries {
			switch entry.Type {
			case database.EntryTx:
				balances[entry.Tx.From] -= entry.Tx.Amount
				balances[entry.Tx.To] += entry.Tx.Amount

			case database.EntryReward:
				balances[entry.Reward.To] += entry.Reward.Amount
			}
		}
	}

	return balances
}

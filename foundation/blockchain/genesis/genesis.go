// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date           time.Time          `json:"date"`            // Time recorded on the genesis block.
	TransPerBlock  uint16             `json:"trans_per_block"` // Number of pending transactions that triggers a seal.
	Difficulty     uint16             `json:"difficulty"`      // Number of leading zero hex digits a block hash needs.
	MiningReward   float64            `json:"mining_reward"`   // Reward paid to the beneficiary of a sealed block, 0 disables it.
	InitialCapital float64            `json:"initial_capital"` // Capital allocated to every owner in the genesis block.
	Owners         []database.Address `json:"owners"`          // Addresses receiving the initial capital, in order.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, fmt.Errorf("genesis %s: %w", path, err)
	}

	return genesis, nil
}

// Validate checks the genesis settings are usable.
func (g Genesis) Validate() error {
	if g.TransPerBlock == 0 {
		return errors.New("trans_per_block must be greater than zero")
	}

	if g.MiningReward < 0 {
		return errors.New("mining_reward can't be negative")
	}

	if len(g.Owners) > 0 && g.InitialCapital <= 0 {
		return errors.New("initial_capital must be greater than zero")
	}

	seen := make(map[database.Address]bool)
	for _, owner := range g.Owners {
		if !owner.IsAddress() {
			return fmt.Errorf("owner %q is not a valid address", owner)
		}
		if seen[owner] {
			return fmt.Errorf("owner %q is listed twice", owner)
		}
		seen[owner] = true
	}

	return nil
}

// Rewards returns the initial capital allocation for the owners.
func (g Genesis) Rewards() []database.Entry {
	timestamp := g.TimeStamp()

	entries := make([]database.Entry, len(g.Owners))
	for i, owner := range g.Owners {
		entries[i] = database.NewRewardEntry(database.NewInitialReward(owner, g.InitialCapital, timestamp))
	}

	return entries
}

// TimeStamp returns the genesis date in unix milliseconds.
func (g Genesis) TimeStamp() uint64 {
	if g.Date.IsZero() {
		return 0
	}

	return uint64(g.Date.UTC().UnixMilli())
}

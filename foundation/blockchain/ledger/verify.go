package ledger

import (
	"errors"
	"fmt"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/genesis"
)

// balanceTolerance absorbs the float rounding that differs between summing
// pending debits and subtracting them one at a time.
const balanceTolerance = 1e-9

// VerifyChain re-verifies every block of the chain: hash links, proof of
// work, entry signatures and that no sender ever spent more than it held.
// A failure halts the ledger until it is restarted.
func (l *Ledger) VerifyChain() error {
	l.mu.RLock()
	chain := make([]database.Block, len(l.chain))
	copy(chain, l.chain)
	l.mu.RUnlock()

	l.evHandler("ledger: VerifyChain: started: blocks[%d]", len(chain))

	if _, err := verifyBlocks(chain, l.genesis, l.evHandler); err != nil {
		l.mu.Lock()
		defer l.mu.Unlock()

		if l.halted == nil {
			l.halted = fmt.Errorf("%w: %w", ErrChainIntegrity, err)
		}

		l.evHandler("ledger: VerifyChain: HALTED: %s", err)
		return l.halted
	}

	l.evHandler("ledger: VerifyChain: completed: chain is valid")

	return nil
}

// verifyBlocks validates a sequence of blocks starting at genesis against the
// genesis settings. It returns the ids of every sealed transaction.
func verifyBlocks(blocks []database.Block, gen genesis.Genesis, ev EventHandler) (map[string]struct{}, error) {
	sealed := make(map[string]struct{})
	if len(blocks) == 0 {
		return sealed, nil
	}

	difficulty := uint(gen.Difficulty)

	if err := blocks[0].ValidateGenesis(difficulty); err != nil {
		return nil, fmt.Errorf("block 0: %w", err)
	}

	if err := verifyInitialRewards(blocks[0], gen); err != nil {
		return nil, fmt.Errorf("block 0: %w", err)
	}

	balances := replayBalances(blocks[:1])

	for i := 1; i < len(blocks); i++ {
		block := blocks[i]

		if err := block.ValidateBlock(blocks[i-1], difficulty, ev); err != nil {
			return nil, fmt.Errorf("block %d: %w", block.Index, err)
		}

		var mined int
		for pos, entry := range block.Entries {
			switch entry.Type {
			case database.EntryTx:
				id := entry.Tx.ID()
				if _, exists := sealed[id]; exists {
					return nil, fmt.Errorf("block %d entry %d: transaction %s sealed twice", block.Index, pos, id)
				}
				sealed[id] = struct{}{}

				if entry.Tx.Amount > balances[entry.Tx.From]+balanceTolerance {
					return nil, fmt.Errorf("block %d entry %d: %w", block.Index, pos, ErrInsufficientBalance)
				}
				balances[entry.Tx.From] -= entry.Tx.Amount
				balances[entry.Tx.To] += entry.Tx.Amount

			case database.EntryReward:
				mined++
				if mined > 1 {
					return nil, fmt.Errorf("block %d entry %d: %w: more than one mining reward", block.Index, pos, database.ErrValidation)
				}
				if entry.Reward.Amount != gen.MiningReward {
					return nil, fmt.Errorf("block %d entry %d: %w: mining reward %v, expected %v", block.Index, pos, database.ErrValidation, entry.Reward.Amount, gen.MiningReward)
				}
				balances[entry.Reward.To] += entry.Reward.Amount

			default:
				return nil, errors.New("unknown entry type")
			}
		}
	}

	return sealed, nil
}

// verifyInitialRewards checks the genesis block pays the configured initial
// capital to the configured owners, in order.
func verifyInitialRewards(block database.Block, gen genesis.Genesis) error {
	if len(block.Entries) != len(gen.Owners) {
		return fmt.Errorf("%w: %d initial rewards, expected %d", database.ErrValidation, len(block.Entries), len(gen.Owners))
	}

	for i, entry := range block.Entries {
		if entry.Reward.To != gen.Owners[i] {
			return fmt.Errorf("%w: initial reward %d paid to %s, expected %s", database.ErrValidation, i, entry.Reward.To, gen.Owners[i])
		}
		if entry.Reward.Amount != gen.InitialCapital {
			return fmt.Errorf("%w: initial reward %d of %v, expected %v", database.ErrValidation, i, entry.Reward.Amount, gen.InitialCapital)
		}
	}

	return nil
}
